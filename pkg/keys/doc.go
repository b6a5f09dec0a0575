// Package keys manages data-plane API keys.
//
// A key is issued as callisto-<base64url secret> and shown to the
// operator exactly once. The database keeps only the SHA-256 digest and
// a 12-character display prefix, so a stolen control database does not
// leak working keys. Authentication hashes the presented key and
// compares digests in constant time.
//
// Touch is the usage bookkeeping half: the data-plane middleware calls
// it after each authenticated request so listings can show when and how
// often each key is used.
package keys
