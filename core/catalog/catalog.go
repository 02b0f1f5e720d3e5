// Package catalog maintains the ordered playlist and reconciles it against
// the songs directory. The catalog is the sole owner of the songlist
// document; every persist drops entries whose backing file has vanished, so
// a delete racing a scan resolves itself on the next write.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"mixtape/core/tags"
	"mixtape/logger"
	"mixtape/model"
	"mixtape/store"
)

// DocSonglist is the store document holding the ordered song catalog.
const DocSonglist = ".mixtape_songlist"

// MirrorFile is the derived plain-text playlist, regenerated on every
// catalog write.
const MirrorFile = "playlist.txt"

const songExt = ".mp3"

// ErrNotFound is returned when a song key is not present in the catalog.
var ErrNotFound = errors.New("song not found")

// ErrEmptyOrder is returned when a reorder is submitted with no keys.
var ErrEmptyOrder = errors.New("empty song order")

// Catalog reads and mutates the ordered song list.
type Catalog struct {
	songsDir string
	store    *store.Store
	tags     tags.Reader
	mu       sync.Mutex
}

// document is the persisted shape of the catalog.
type document struct {
	Songs []*model.Song `json:"songs"`
}

// New creates a catalog over songsDir persisting through st.
func New(songsDir string, st *store.Store, reader tags.Reader) *Catalog {
	return &Catalog{songsDir: songsDir, store: st, tags: reader}
}

// Songs returns the stored catalog in playback order.
func (c *Catalog) Songs() []*model.Song {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

func (c *Catalog) load() []*model.Song {
	var doc document
	if _, err := c.store.ReadDoc(DocSonglist, &doc); err != nil {
		logger.Error("failed to load songlist", logger.ErrorField(err))
		return nil
	}
	return doc.Songs
}

// Scan lists the songs directory and merges freshly discovered files into the
// stored catalog, new files ahead of existing ones. Entries whose backing
// file is gone are dropped when the merged catalog is persisted.
func (c *Catalog) Scan() ([]*model.Song, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	songs := c.load()
	index := make(map[string]bool, len(songs))
	for _, s := range songs {
		index[s.Key] = true
	}

	useFilename := model.Prefs(c.store.Read(model.DocPrefs)).Flag(model.PrefUseFilename)

	var fresh []*model.Song
	for _, name := range c.listSongFiles() {
		key := EncodeKey(name)
		if index[key] {
			continue
		}
		fresh = append(fresh, c.buildSong(name, key, useFilename))
	}

	if len(fresh) == 0 {
		return songs, nil
	}

	logger.Info("discovered new songs", logger.Int("count", len(fresh)))
	merged := append(fresh, songs...)
	return c.persist(merged)
}

// Rescan rebuilds every entry from the files currently on disk, re-reading
// tags for all of them. Display overrides survive keyed by the stable key,
// prior ordering is preserved for keys that still exist, and genuinely new
// keys are appended at the end.
func (c *Catalog) Rescan() ([]*model.Song, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous := c.load()
	overrides := make(map[string]*model.Song, len(previous))
	for _, s := range previous {
		overrides[s.Key] = s
	}

	useFilename := model.Prefs(c.store.Read(model.DocPrefs)).Flag(model.PrefUseFilename)

	rebuilt := make(map[string]*model.Song)
	var diskOrder []string
	for _, name := range c.listSongFiles() {
		key := EncodeKey(name)
		song := c.buildSong(name, key, useFilename)
		if old, ok := overrides[key]; ok {
			song.DisplayArtist = old.DisplayArtist
			song.DisplayTitle = old.DisplayTitle
		}
		rebuilt[key] = song
		diskOrder = append(diskOrder, key)
	}

	// Prior order first, then new keys in directory order.
	var songs []*model.Song
	for _, s := range previous {
		if fresh, ok := rebuilt[s.Key]; ok {
			songs = append(songs, fresh)
			delete(rebuilt, s.Key)
		}
	}
	for _, key := range diskOrder {
		if fresh, ok := rebuilt[key]; ok {
			songs = append(songs, fresh)
		}
	}

	return c.persist(songs)
}

// Rename sets the display-artist/display-title overrides for a song.
func (c *Catalog) Rename(key, artist, title string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	songs := c.load()
	for _, s := range songs {
		if s.Key == key {
			s.DisplayArtist = artist
			s.DisplayTitle = title
			_, err := c.persist(songs)
			return err
		}
	}
	return ErrNotFound
}

// Reorder rebuilds the catalog in the submitted key order. Keys not present
// in the current catalog are ignored; current entries omitted from the input
// are dropped — the admin UI always submits the full list.
func (c *Catalog) Reorder(keys []string) error {
	if len(keys) == 0 {
		return ErrEmptyOrder
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current := make(map[string]*model.Song)
	for _, s := range c.load() {
		current[s.Key] = s
	}

	var songs []*model.Song
	for _, key := range keys {
		if s, ok := current[key]; ok {
			songs = append(songs, s)
			delete(current, key)
		}
	}

	_, err := c.persist(songs)
	return err
}

// Delete removes the song's file from disk and its entry from the catalog.
// A failed unlink aborts without mutating the catalog.
func (c *Catalog) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	songs := c.load()
	for i, s := range songs {
		if s.Key != key {
			continue
		}
		path := filepath.Join(c.songsDir, s.Filename)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete %s: %w", s.Filename, err)
		}
		songs = append(songs[:i], songs[i+1:]...)
		_, err := c.persist(songs)
		return err
	}
	return ErrNotFound
}

// TotalRuntimeSeconds sums the durations of the stored catalog.
func (c *Catalog) TotalRuntimeSeconds() int {
	var total float64
	for _, s := range c.Songs() {
		total += s.DurationSeconds
	}
	return int(total)
}

// TotalRuntimeString formats the aggregate runtime as "M mins S secs",
// singular forms at exactly 1.
func (c *Catalog) TotalRuntimeString() string {
	return FormatRuntime(c.TotalRuntimeSeconds())
}

// FormatRuntime renders a second count as "M mins S secs".
func FormatRuntime(seconds int) string {
	mins := seconds / 60
	secs := seconds % 60

	minUnit := "mins"
	if mins == 1 {
		minUnit = "min"
	}
	secUnit := "secs"
	if secs == 1 {
		secUnit = "sec"
	}
	return fmt.Sprintf("%d %s %d %s", mins, minUnit, secs, secUnit)
}

// listSongFiles returns the audio filenames in the songs directory, in
// directory order.
func (c *Catalog) listSongFiles() []string {
	entries, err := os.ReadDir(c.songsDir)
	if err != nil {
		logger.Warn("failed to read songs directory",
			logger.String("dir", c.songsDir), logger.ErrorField(err))
		return nil
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), songExt) {
			names = append(names, e.Name())
		}
	}
	return names
}

// buildSong assembles a catalog entry for a file, applying the tag fallback
// rules: filename-as-title when the preference asks for it or both tags are
// empty, "Unknown artist"/"Unknown track" when only one half is present.
func (c *Catalog) buildSong(filename, key string, useFilename bool) *model.Song {
	path := filepath.Join(c.songsDir, filename)

	meta, err := c.tags.Read(path)
	if err != nil {
		logger.Warn("failed to read tags", logger.String("file", filename), logger.ErrorField(err))
	}

	artist, title := meta.Artist, meta.Title
	if useFilename || (artist == "" && title == "") {
		artist = ""
		title = filename[:len(filename)-len(filepath.Ext(filename))]
	} else if artist == "" {
		artist = "Unknown artist"
	} else if title == "" {
		title = "Unknown track"
	}

	song := &model.Song{
		Key:             key,
		Filename:        filename,
		Artist:          artist,
		Title:           title,
		DurationSeconds: meta.DurationSeconds,
		DurationLabel:   formatClock(meta.DurationSeconds),
	}

	if info, err := os.Stat(path); err == nil {
		song.ModifiedTime = info.ModTime().Unix()
		song.SizeBytes = info.Size()
	}

	return song
}

// formatClock renders a duration as "m:ss" for per-song labels.
func formatClock(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// persist prunes entries whose file is missing, writes the songlist document
// and regenerates the plain-text mirror. A write failure is logged and
// returned alongside the in-memory view so callers can still answer with it.
func (c *Catalog) persist(songs []*model.Song) ([]*model.Song, error) {
	kept := songs[:0]
	for _, s := range songs {
		if _, err := os.Stat(filepath.Join(c.songsDir, s.Filename)); err != nil {
			logger.Warn("song file is not accessible, removing from songlist",
				logger.String("file", s.Filename))
			continue
		}
		kept = append(kept, s)
	}

	if err := c.store.WriteDoc(DocSonglist, document{Songs: kept}); err != nil {
		logger.Error("failed to persist songlist", logger.ErrorField(err))
		return kept, err
	}

	c.writeMirror(kept)
	return kept, nil
}

// writeMirror regenerates the human-readable playlist listing: banner line,
// caption line, blank line, then one display line per song.
func (c *Catalog) writeMirror(songs []*model.Song) {
	prefs := model.Prefs(c.store.Read(model.DocPrefs))

	var total float64
	for _, s := range songs {
		total += s.DurationSeconds
	}
	fallback := fmt.Sprintf("%d songs, %s", len(songs), FormatRuntime(int(total)))

	var b strings.Builder
	b.WriteString(prefs.Get(model.PrefBanner, "MIXTAPE"))
	b.WriteString("\n")
	b.WriteString(prefs.Get(model.PrefCaption, fallback))
	b.WriteString("\n\n")
	for _, s := range songs {
		b.WriteString(s.DisplayLine())
		b.WriteString("\n")
	}

	path := filepath.Join(c.store.Dir(), MirrorFile)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		logger.Warn("failed to write playlist mirror", logger.ErrorField(err))
	}
}
