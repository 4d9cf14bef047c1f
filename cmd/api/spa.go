package main

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// spaHandler serves files from root and falls back to root/index.html for
// any path that is not a file, so client-side routes survive a reload.
// Static files are only looked up for GET and HEAD; every other method gets
// the entry document.
type spaHandler struct {
	root string
}

func newSPAHandler(root string) spaHandler {
	return spaHandler{root: root}
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		// Clean on a rooted path so ".." can never climb above root.
		name := filepath.Join(h.root, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if serveFile(w, r, name) {
			return
		}
	}

	w.Header().Set("Cache-Control", "no-cache")
	if !serveFile(w, r, filepath.Join(h.root, "index.html")) {
		w.Header().Del("Cache-Control")
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	}
}

// serveFile writes name if it is a regular file and reports whether it did.
func serveFile(w http.ResponseWriter, r *http.Request, name string) bool {
	f, err := os.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		return false
	}
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
	return true
}
