/*
Package auth provides data-plane API key authentication for Callisto.

The middleware guards the Anthropic-compatible /v1/ surface: every
request there must present an issued key (callisto- prefix), which is
verified against the key store by SHA-256 digest. Health probes,
metrics, the console, and the management API are exempt; the
management API carries its own session authentication.

# Basic Usage

Wrap the server's handler chain:

	store, err := keys.NewStore(db)
	if err != nil {
		return err
	}

	middleware := auth.NewMiddleware(store, collector)
	handler := middleware.Handle(mux)

Only data-plane paths are enforced:

	auth.Protected("/v1/messages") // true
	auth.Protected("/api/usage")   // false

# Extracting Key Info

Inside a data-plane handler, retrieve the authenticated key record:

	func handler(w http.ResponseWriter, r *http.Request) {
		key, ok := auth.GetKeyInfo(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		fmt.Printf("Request with key %s (%s)\n", key.ID, key.Name)
	}

The record feeds per-key usage attribution: handlers pass key.ID to the
analytics recorder alongside the token counts they observe.

# Key Sources

The middleware accepts keys from two places, tried in order:

 1. Authorization header with Bearer scheme:
    Authorization: Bearer callisto-x5WaldQ...

 2. Custom header:
    X-API-Key: callisto-x5WaldQ...

# Rejections

Failures answer with the standard error envelope:

	{"error": {"type": "authentication_error", "message": "Invalid API key"}}

Unknown and malformed keys share one message, so callers cannot probe
which. A key-store failure answers 500, never 401.

# Security Considerations

  - Key values are never logged (only key IDs and display names)
  - Tokens without the callisto- prefix are rejected before any store
    lookup
  - Usage-stat updates run off the request path with a bounded timeout
  - Use HTTPS in production to prevent key interception
*/
package auth
