package server

import (
	"io/fs"
	"net/http"
	"os"
	"strings"
)

// spaHandler serves the editor build in dir with SPA fallback: any path
// not matching a real file returns index.html.
func spaHandler(dir string) http.HandlerFunc {
	uiFS := os.DirFS(dir)
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		if path == "" {
			path = "index.html"
		}

		if info, err := fs.Stat(uiFS, path); err != nil || info.IsDir() {
			path = "index.html"
		}
		if _, err := fs.Stat(uiFS, path); err != nil {
			http.Error(w, "UI not found in "+dir, http.StatusNotFound)
			return
		}

		http.ServeFileFS(w, r, uiFS, path)
	}
}
