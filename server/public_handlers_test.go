package server

import (
	"encoding/json"
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"mixtape/core/tags"
	"mixtape/model"
)

func TestPlaylist(t *testing.T) {
	e := newTestEnv(t)
	e.addSong(t, "one.mp3", tags.Metadata{Artist: "Artist", Title: "One", DurationSeconds: 61})
	e.store.Write(model.DocPrefs, map[string]any{
		model.PrefBanner:  "Summer",
		model.PrefCaption: "side A",
		model.PrefColor:   "336699",
	})

	get := func() envelope {
		req := httptest.NewRequest(http.MethodGet, "/api/playlist", nil)
		rec := httptest.NewRecorder()
		e.handler.PlaylistHandler(rec, req)

		var body envelope
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		return body
	}

	body := get()
	if body["banner"] != "Summer" || body["caption"] != "side A" || body["color"] != "336699" {
		t.Errorf("theme fields: %v", body)
	}
	if body["runtime"] != "1 min 1 sec" {
		t.Errorf("runtime = %v", body["runtime"])
	}

	songs, _ := body["songs"].([]any)
	if len(songs) != 1 {
		t.Fatalf("songs = %v", body["songs"])
	}
	entry, _ := songs[0].(map[string]any)
	if entry["artist"] != "Artist" || entry["title"] != "One" {
		t.Errorf("song entry: %v", entry)
	}
	if entry["url"] != "songs/one.mp3" {
		t.Errorf("url = %v", entry["url"])
	}
	// Direct links are off by default: no raw filename in the payload.
	if _, ok := entry["filename"]; ok {
		t.Error("filename exposed with display_mp3 off")
	}

	prefs := model.Prefs(e.store.Read(model.DocPrefs))
	prefs.SetFlag(model.PrefDisplayMP3, true)
	e.store.Write(model.DocPrefs, prefs)

	songs, _ = get()["songs"].([]any)
	entry, _ = songs[0].(map[string]any)
	if entry["filename"] != "one.mp3" {
		t.Error("filename missing with display_mp3 on")
	}
}

func TestFeed(t *testing.T) {
	e := newTestEnv(t)
	e.addSong(t, "one.mp3", tags.Metadata{Artist: "Artist", Title: "One\x00\x01", DurationSeconds: 61})

	req := httptest.NewRequest(http.MethodGet, "/feed.xml", nil)
	rec := httptest.NewRecorder()
	e.handler.FeedHandler(rec, req)

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/rss+xml") {
		t.Errorf("content type = %q", ct)
	}

	var feed rssFeed
	if err := xml.Unmarshal(rec.Body.Bytes(), &feed); err != nil {
		t.Fatalf("feed is not valid XML: %v", err)
	}
	if feed.Version != "2.0" {
		t.Errorf("rss version = %q", feed.Version)
	}
	if feed.Channel.Title != "Mixtape!" {
		t.Errorf("default banner = %q", feed.Channel.Title)
	}
	if feed.Channel.Description != "1 songs, 1 min 1 sec" {
		t.Errorf("default caption = %q", feed.Channel.Description)
	}

	if len(feed.Channel.Items) != 1 {
		t.Fatalf("items = %d", len(feed.Channel.Items))
	}
	item := feed.Channel.Items[0]
	if strings.ContainsAny(item.Title, "\x00\x01") {
		t.Error("control characters survived into the feed")
	}
	if item.Enclosure.URL != "http://tape.example/songs/one.mp3" {
		t.Errorf("enclosure url = %q", item.Enclosure.URL)
	}
	if item.Enclosure.Type != "audio/mpeg" || item.Enclosure.Length == 0 {
		t.Errorf("enclosure = %+v", item.Enclosure)
	}
	if item.GUID.IsPermaLink != "false" || item.GUID.Value == "" {
		t.Errorf("guid = %+v", item.GUID)
	}
}

func TestSongFileHandler(t *testing.T) {
	e := newTestEnv(t)
	e.addSong(t, "one.mp3", tags.Metadata{})

	serve := func(filename string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/songs/x", nil)
		req = mux.SetURLVars(req, map[string]string{"filename": filename})
		rec := httptest.NewRecorder()
		e.handler.SongFileHandler(rec, req)
		return rec
	}

	rec := serve("one.mp3")
	if rec.Code != http.StatusOK {
		t.Errorf("serving a real song: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "audio/mpeg") {
		t.Errorf("content type = %q", ct)
	}

	for _, bad := range []string{"", "../secrets", "a/b.mp3", `a\b.mp3`, "..", "x..y"} {
		if rec := serve(bad); rec.Code != http.StatusNotFound {
			t.Errorf("filename %q: status %d, want 404", bad, rec.Code)
		}
	}
}

func TestSettingsDenied(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/settings/.mixtape_password", nil)
	rec := httptest.NewRecorder()
	SettingsDeniedHandler(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
