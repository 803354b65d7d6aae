package web

import (
	"fmt"
	"io/fs"
	"net/http"
)

// RegisterRoutes registers all web GUI routes on the provided mux.
// Static assets are served from the embedded filesystem at /static/*.
// Paths no other route claims render the HTML not-found page.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Static assets (embedded via go:embed).
	staticFS := mustSub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Page routes.
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /pr/{number}", h.PRDetail)
	mux.HandleFunc("/", h.NotFound)
}

// mustSub returns the dir subtree of fsys. The embedded layout is fixed at
// build time, so a failure is a programming error.
func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(fmt.Sprintf("web: static assets unavailable: %v", err))
	}
	return sub
}
