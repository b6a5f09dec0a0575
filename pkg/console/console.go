package console

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFS embed.FS

// Handler serves the embedded console assets under prefix (normally
// "/ui"). Requests for the prefix root serve index.html via the
// standard file-server index behavior.
func Handler(prefix string) http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The embed directive guarantees static/ exists; reaching this
		// means the binary itself is broken.
		panic("console: embedded assets missing: " + err.Error())
	}
	return http.StripPrefix(prefix, http.FileServer(http.FS(sub)))
}
