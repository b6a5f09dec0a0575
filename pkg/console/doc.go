// Package console embeds the admin console: a single-page browser UI
// over the management API.
//
// The console shows server and OAuth credential status, the classified
// usage windows with live websocket updates, snapshot history, and the
// API key registry with create/rename/delete. It authenticates with a
// console session token obtained from POST /api/auth/login and kept in
// browser localStorage.
//
// Assets live in static/ and are compiled into the binary with
// go:embed; the server mounts Handler at /ui/ and redirects / there.
package console
