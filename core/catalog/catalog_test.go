package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mixtape/core/tags"
	"mixtape/model"
	"mixtape/store"
)

// stubReader serves canned metadata keyed by base filename.
type stubReader struct {
	meta map[string]tags.Metadata
}

func (s stubReader) Read(path string) (tags.Metadata, error) {
	return s.meta[filepath.Base(path)], nil
}

type fixture struct {
	cat      *Catalog
	store    *store.Store
	songsDir string
	reader   *stubReader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	songsDir := t.TempDir()
	st := store.New(t.TempDir())
	reader := &stubReader{meta: map[string]tags.Metadata{}}
	return &fixture{
		cat:      New(songsDir, st, reader),
		store:    st,
		songsDir: songsDir,
		reader:   reader,
	}
}

func (f *fixture) addFile(t *testing.T, name string, meta tags.Metadata) string {
	t.Helper()
	if err := os.WriteFile(filepath.Join(f.songsDir, name), []byte("\xFF\xFBdata"), 0644); err != nil {
		t.Fatal(err)
	}
	f.reader.meta[name] = meta
	return EncodeKey(name)
}

func keys(songs []*model.Song) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.Key
	}
	return out
}

func TestScan(t *testing.T) {
	t.Run("TagFallbacks", func(t *testing.T) {
		f := newFixture(t)
		f.addFile(t, "tagged.mp3", tags.Metadata{Artist: "The Band", Title: "Hit Song", DurationSeconds: 61})
		f.addFile(t, "untagged.mp3", tags.Metadata{})
		f.addFile(t, "artist_only.mp3", tags.Metadata{Artist: "Solo Act"})
		f.addFile(t, "title_only.mp3", tags.Metadata{Title: "Nameless"})

		songs, err := f.cat.Scan()
		if err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		if len(songs) != 4 {
			t.Fatalf("expected 4 songs, got %d", len(songs))
		}

		byName := make(map[string]*model.Song)
		for _, s := range songs {
			byName[s.Filename] = s
		}

		if s := byName["tagged.mp3"]; s.Artist != "The Band" || s.Title != "Hit Song" {
			t.Errorf("tagged: got %q / %q", s.Artist, s.Title)
		}
		if s := byName["tagged.mp3"]; s.DurationLabel != "1:01" {
			t.Errorf("duration label = %q, want 1:01", s.DurationLabel)
		}
		if s := byName["untagged.mp3"]; s.Artist != "" || s.Title != "untagged" {
			t.Errorf("untagged: got %q / %q, want filename fallback", s.Artist, s.Title)
		}
		if s := byName["artist_only.mp3"]; s.Title != "Unknown track" {
			t.Errorf("artist-only title = %q, want Unknown track", s.Title)
		}
		if s := byName["title_only.mp3"]; s.Artist != "Unknown artist" {
			t.Errorf("title-only artist = %q, want Unknown artist", s.Artist)
		}
	})

	t.Run("NewFilesPrepended", func(t *testing.T) {
		f := newFixture(t)
		oldKey := f.addFile(t, "old.mp3", tags.Metadata{Artist: "A", Title: "B"})
		if _, err := f.cat.Scan(); err != nil {
			t.Fatal(err)
		}

		newKey := f.addFile(t, "newer.mp3", tags.Metadata{Artist: "C", Title: "D"})
		songs, err := f.cat.Scan()
		if err != nil {
			t.Fatal(err)
		}

		got := keys(songs)
		if len(got) != 2 || got[0] != newKey || got[1] != oldKey {
			t.Errorf("expected new file ahead of existing, got %v", got)
		}
	})

	t.Run("UseFilenamePreference", func(t *testing.T) {
		f := newFixture(t)
		prefs := model.Prefs{}
		prefs.SetFlag(model.PrefUseFilename, true)
		if err := f.store.Write(model.DocPrefs, prefs); err != nil {
			t.Fatal(err)
		}

		f.addFile(t, "ignore_tags.mp3", tags.Metadata{Artist: "The Band", Title: "Hit Song"})
		songs, err := f.cat.Scan()
		if err != nil {
			t.Fatal(err)
		}

		if songs[0].Artist != "" || songs[0].Title != "ignore_tags" {
			t.Errorf("got %q / %q, want filename as title", songs[0].Artist, songs[0].Title)
		}
	})

	t.Run("WritesMirror", func(t *testing.T) {
		f := newFixture(t)
		f.addFile(t, "one.mp3", tags.Metadata{Artist: "A", Title: "One"})
		if _, err := f.cat.Scan(); err != nil {
			t.Fatal(err)
		}

		raw, err := os.ReadFile(filepath.Join(f.store.Dir(), MirrorFile))
		if err != nil {
			t.Fatalf("mirror not written: %v", err)
		}
		lines := strings.Split(string(raw), "\n")
		if len(lines) < 4 || lines[2] != "" {
			t.Fatalf("unexpected mirror shape: %q", string(raw))
		}
		if lines[3] != "A - One" {
			t.Errorf("mirror song line = %q, want %q", lines[3], "A - One")
		}
	})
}

func TestRescan(t *testing.T) {
	t.Run("PreservesOverridesAndOrder", func(t *testing.T) {
		f := newFixture(t)
		keyA := f.addFile(t, "a.mp3", tags.Metadata{Artist: "A", Title: "1"})
		keyB := f.addFile(t, "b.mp3", tags.Metadata{Artist: "B", Title: "2"})
		keyC := f.addFile(t, "c.mp3", tags.Metadata{Artist: "C", Title: "3"})
		if _, err := f.cat.Scan(); err != nil {
			t.Fatal(err)
		}

		// Pin an explicit order and an override on B.
		if err := f.cat.Reorder([]string{keyA, keyB, keyC}); err != nil {
			t.Fatal(err)
		}
		if err := f.cat.Rename(keyB, "Custom Artist", "Custom Title"); err != nil {
			t.Fatal(err)
		}

		keyD := f.addFile(t, "d.mp3", tags.Metadata{Artist: "D", Title: "4"})

		songs, err := f.cat.Rescan()
		if err != nil {
			t.Fatalf("rescan failed: %v", err)
		}

		got := keys(songs)
		want := []string{keyA, keyB, keyC, keyD}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("order[%d] = %s, want %s (full: %v)", i, got[i], want[i], got)
			}
		}

		if songs[1].DisplayArtist != "Custom Artist" || songs[1].DisplayTitle != "Custom Title" {
			t.Errorf("overrides lost on rescan: %q / %q", songs[1].DisplayArtist, songs[1].DisplayTitle)
		}
	})

	t.Run("RereadsTags", func(t *testing.T) {
		f := newFixture(t)
		f.addFile(t, "song.mp3", tags.Metadata{Artist: "Before", Title: "T"})
		if _, err := f.cat.Scan(); err != nil {
			t.Fatal(err)
		}

		f.reader.meta["song.mp3"] = tags.Metadata{Artist: "After", Title: "T"}
		songs, err := f.cat.Rescan()
		if err != nil {
			t.Fatal(err)
		}
		if songs[0].Artist != "After" {
			t.Errorf("artist = %q, want re-read tag", songs[0].Artist)
		}
	})
}

func TestReorder(t *testing.T) {
	t.Run("ExactOrder", func(t *testing.T) {
		f := newFixture(t)
		keyA := f.addFile(t, "a.mp3", tags.Metadata{Artist: "A", Title: "1"})
		keyB := f.addFile(t, "b.mp3", tags.Metadata{Artist: "B", Title: "2"})
		keyC := f.addFile(t, "c.mp3", tags.Metadata{Artist: "C", Title: "3"})
		if _, err := f.cat.Scan(); err != nil {
			t.Fatal(err)
		}

		if err := f.cat.Reorder([]string{keyC, keyA, keyB}); err != nil {
			t.Fatalf("reorder failed: %v", err)
		}

		got := keys(f.cat.Songs())
		want := []string{keyC, keyA, keyB}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("order = %v, want %v", got, want)
			}
		}
	})

	t.Run("OmittedKeysDropped", func(t *testing.T) {
		f := newFixture(t)
		keyA := f.addFile(t, "a.mp3", tags.Metadata{Artist: "A", Title: "1"})
		f.addFile(t, "b.mp3", tags.Metadata{Artist: "B", Title: "2"})
		if _, err := f.cat.Scan(); err != nil {
			t.Fatal(err)
		}

		if err := f.cat.Reorder([]string{keyA}); err != nil {
			t.Fatal(err)
		}

		songs := f.cat.Songs()
		if len(songs) != 1 || songs[0].Key != keyA {
			t.Errorf("expected only %s to survive, got %v", keyA, keys(songs))
		}
	})

	t.Run("EmptyInputFails", func(t *testing.T) {
		f := newFixture(t)
		if err := f.cat.Reorder(nil); !errors.Is(err, ErrEmptyOrder) {
			t.Errorf("err = %v, want ErrEmptyOrder", err)
		}
	})

	t.Run("UnknownKeysIgnored", func(t *testing.T) {
		f := newFixture(t)
		keyA := f.addFile(t, "a.mp3", tags.Metadata{Artist: "A", Title: "1"})
		if _, err := f.cat.Scan(); err != nil {
			t.Fatal(err)
		}

		if err := f.cat.Reorder([]string{EncodeKey("ghost.mp3"), keyA}); err != nil {
			t.Fatal(err)
		}
		songs := f.cat.Songs()
		if len(songs) != 1 || songs[0].Key != keyA {
			t.Errorf("got %v", keys(songs))
		}
	})
}

func TestDelete(t *testing.T) {
	t.Run("RemovesFileAndEntry", func(t *testing.T) {
		f := newFixture(t)
		keyA := f.addFile(t, "a.mp3", tags.Metadata{Artist: "A", Title: "1"})
		f.addFile(t, "b.mp3", tags.Metadata{Artist: "B", Title: "2"})
		if _, err := f.cat.Scan(); err != nil {
			t.Fatal(err)
		}

		if err := f.cat.Delete(keyA); err != nil {
			t.Fatalf("delete failed: %v", err)
		}

		if _, err := os.Stat(filepath.Join(f.songsDir, "a.mp3")); !os.IsNotExist(err) {
			t.Error("file still exists after delete")
		}
		for _, s := range f.cat.Songs() {
			if s.Key == keyA {
				t.Error("entry still present after delete")
			}
		}
	})

	t.Run("UnknownKeyFailsUnchanged", func(t *testing.T) {
		f := newFixture(t)
		f.addFile(t, "a.mp3", tags.Metadata{Artist: "A", Title: "1"})
		if _, err := f.cat.Scan(); err != nil {
			t.Fatal(err)
		}

		if err := f.cat.Delete(EncodeKey("missing.mp3")); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
		if len(f.cat.Songs()) != 1 {
			t.Error("catalog mutated by failed delete")
		}
	})
}

func TestRename(t *testing.T) {
	f := newFixture(t)
	keyA := f.addFile(t, "a.mp3", tags.Metadata{Artist: "A", Title: "1"})
	if _, err := f.cat.Scan(); err != nil {
		t.Fatal(err)
	}

	if err := f.cat.Rename(keyA, "New Artist", "New Title"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}

	s := f.cat.Songs()[0]
	if s.DisplayArtist != "New Artist" || s.DisplayTitle != "New Title" {
		t.Errorf("overrides = %q / %q", s.DisplayArtist, s.DisplayTitle)
	}
	if s.Artist != "A" || s.Title != "1" {
		t.Errorf("tag-derived values must survive a rename: %q / %q", s.Artist, s.Title)
	}

	if err := f.cat.Rename(EncodeKey("nope.mp3"), "x", "y"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMissingFilesPrunedOnWrite(t *testing.T) {
	f := newFixture(t)
	keyA := f.addFile(t, "a.mp3", tags.Metadata{Artist: "A", Title: "1"})
	keyB := f.addFile(t, "b.mp3", tags.Metadata{Artist: "B", Title: "2"})
	if _, err := f.cat.Scan(); err != nil {
		t.Fatal(err)
	}

	// The file vanishes behind the catalog's back.
	if err := os.Remove(filepath.Join(f.songsDir, "b.mp3")); err != nil {
		t.Fatal(err)
	}

	// Any persisting operation reconciles.
	if err := f.cat.Reorder([]string{keyA, keyB}); err != nil {
		t.Fatal(err)
	}

	songs := f.cat.Songs()
	if len(songs) != 1 || songs[0].Key != keyA {
		t.Errorf("stale entry survived persist: %v", keys(songs))
	}
}

func TestTotalRuntime(t *testing.T) {
	t.Run("ZeroSongs", func(t *testing.T) {
		f := newFixture(t)
		if got := f.cat.TotalRuntimeString(); got != "0 mins 0 secs" {
			t.Errorf("runtime = %q, want %q", got, "0 mins 0 secs")
		}
	})

	t.Run("SingularForms", func(t *testing.T) {
		f := newFixture(t)
		f.addFile(t, "one.mp3", tags.Metadata{Artist: "A", Title: "1", DurationSeconds: 61})
		if _, err := f.cat.Scan(); err != nil {
			t.Fatal(err)
		}
		if got := f.cat.TotalRuntimeString(); got != "1 min 1 sec" {
			t.Errorf("runtime = %q, want %q", got, "1 min 1 sec")
		}
	})

	t.Run("Format", func(t *testing.T) {
		cases := []struct {
			seconds int
			want    string
		}{
			{0, "0 mins 0 secs"},
			{1, "0 mins 1 sec"},
			{60, "1 min 0 secs"},
			{61, "1 min 1 sec"},
			{185, "3 mins 5 secs"},
		}
		for _, tt := range cases {
			if got := FormatRuntime(tt.seconds); got != tt.want {
				t.Errorf("FormatRuntime(%d) = %q, want %q", tt.seconds, got, tt.want)
			}
		}
	})
}
