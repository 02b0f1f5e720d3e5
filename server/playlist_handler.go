package server

import (
	"net/http"
	"net/url"

	"mixtape/config"
	"mixtape/logger"
	"mixtape/model"
)

// playlistSong is the public view of a catalog entry. Display overrides are
// already applied; the raw filename only appears when direct links are on.
type playlistSong struct {
	Key           string `json:"key"`
	Artist        string `json:"artist"`
	Title         string `json:"title"`
	DurationLabel string `json:"durationLabel"`
	URL           string `json:"url"`
	Filename      string `json:"filename,omitempty"`
}

// PlaylistHandler returns the themed playlist for the public player page.
// It runs a scan first so freshly uploaded or deleted files are reflected.
func (h *APIHandler) PlaylistHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := h.catalog.Scan()
	if err != nil {
		logger.Warn("scan before playlist failed", logger.ErrorField(err))
		songs = h.catalog.Songs()
	}

	prefs := model.Prefs(h.store.Read(model.DocPrefs))
	directLinks := prefs.Flag(model.PrefDisplayMP3)

	out := make([]playlistSong, 0, len(songs))
	for _, s := range songs {
		entry := playlistSong{
			Key:           s.Key,
			Artist:        s.EffectiveArtist(),
			Title:         s.EffectiveTitle(),
			DurationLabel: s.DurationLabel,
			URL:           "songs/" + url.PathEscape(s.Filename),
		}
		if directLinks {
			entry.Filename = s.Filename
		}
		out = append(out, entry)
	}

	writeJSON(w, envelope{
		"status":  true,
		"banner":  prefs.Get(model.PrefBanner, "MIXTAPE"),
		"caption": prefs.Get(model.PrefCaption, ""),
		"color":   prefs.Get(model.PrefColor, config.DefaultColor),
		"runtime": h.catalog.TotalRuntimeString(),
		"songs":   out,
	})
}
