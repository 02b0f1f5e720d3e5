// Package tags reads artist/title metadata and playing time from audio files.
package tags

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"
)

// Metadata is what the catalog needs to know about a file on disk.
type Metadata struct {
	Artist          string
	Title           string
	DurationSeconds float64
}

// Reader extracts metadata for a file path.
type Reader interface {
	Read(path string) (Metadata, error)
}

type fileReader struct{}

// NewReader returns a Reader backed by ID3 tag parsing and MP3 frame walking.
func NewReader() Reader {
	return fileReader{}
}

// Read opens the file, reads its tags and sums frame durations. A file
// without tags is not an error; the catalog falls back to the filename.
func (fileReader) Read(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	var meta Metadata
	if m, err := tag.ReadFrom(f); err == nil {
		meta.Artist = cleanTag(m.Artist())
		meta.Title = cleanTag(m.Title())
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return meta, fmt.Errorf("failed to rewind audio file: %w", err)
	}
	meta.DurationSeconds = duration(f)

	return meta, nil
}

// duration walks the MP3 frames and sums their playing time. Decode errors
// end the walk; whatever was summed so far is kept.
func duration(r io.Reader) float64 {
	var total float64
	var skipped int
	dec := mp3.NewDecoder(r)
	var frame mp3.Frame
	for {
		if err := dec.Decode(&frame, &skipped); err != nil {
			break
		}
		total += frame.Duration().Seconds()
	}
	return total
}

// cleanTag strips NUL bytes that ID3v1 padding leaves in tag strings.
func cleanTag(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}
