package server

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
)

// SongFileHandler serves an audio file from the songs directory. The
// filename comes from the route, never from a joined path, so traversal
// cannot escape the directory.
func (h *APIHandler) SongFileHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["filename"]
	if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, filepath.Join(h.cfg.SongsDir, name))
}

// SettingsDeniedHandler refuses every request under the settings directory.
// The flat-file documents there (credentials included) must never be
// reachable over the web.
func SettingsDeniedHandler(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Access denied", http.StatusForbidden)
}
