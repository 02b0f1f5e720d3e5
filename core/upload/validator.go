// Package upload validates incoming audio files and places them in the songs
// directory. Declared size and MIME type are never trusted; the first bytes
// of the file are sniffed instead.
package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"mixtape/logger"
)

var (
	// ErrNotAudioType means the filename does not carry the accepted
	// audio extension.
	ErrNotAudioType = errors.New("not an MP3")
	// ErrInvalidFilename means the filename smuggles a second extension
	// before the final one.
	ErrInvalidFilename = errors.New("invalid filename")
	// ErrInvalidContent means the file's first bytes match no known
	// audio-container signature.
	ErrInvalidContent = errors.New("not a valid MP3")
	// ErrStorage means moving the validated file into the songs directory
	// failed.
	ErrStorage = errors.New("failed to save file")
)

var (
	audioExt    = regexp.MustCompile(`(?i)\.mp3$`)
	doubleExt   = regexp.MustCompile(`(?i)\.[^.]+\.mp3$`)
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_\-. ]`)
)

// Validator checks and stores uploaded files.
type Validator struct {
	songsDir string
}

// NewValidator creates a validator writing into songsDir.
func NewValidator(songsDir string) *Validator {
	return &Validator{songsDir: songsDir}
}

// Validate runs the full pipeline on a temp file: extension check,
// double-extension check, content sniff, name sanitization, collision
// suffixing, then the move into the songs directory. It returns the filename
// the file was saved under.
func (v *Validator) Validate(name, tmpPath string) (string, error) {
	if !audioExt.MatchString(name) {
		return "", ErrNotAudioType
	}
	if doubleExt.MatchString(name) {
		return "", ErrInvalidFilename
	}

	ok, err := sniffMP3(tmpPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !ok {
		return "", ErrInvalidContent
	}

	base := sanitizeBase(name)
	final := v.resolveCollision(base)

	dest := filepath.Join(v.songsDir, final)
	if err := moveFile(tmpPath, dest); err != nil {
		logger.Error("failed to move upload into songs directory",
			logger.String("dest", dest), logger.ErrorField(err))
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}

	logger.Info("stored upload", logger.String("filename", final))
	return final, nil
}

// sniffMP3 checks the first bytes for an ID3 tag header or an MPEG frame
// sync: first byte 0xFF, top three bits of the second byte all set.
func sniffMP3(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	header := make([]byte, 10)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return false, err
	}
	header = header[:n]

	if len(header) >= 3 && string(header[:3]) == "ID3" {
		return true, nil
	}
	if len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0 {
		return true, nil
	}
	return false, nil
}

// sanitizeBase strips the base name to a safe character set. An empty result
// falls back to a timestamp-based placeholder.
func sanitizeBase(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = unsafeChars.ReplaceAllString(base, "")
	base = strings.TrimSpace(base)
	if base == "" {
		base = fmt.Sprintf("upload_%d", time.Now().Unix())
	}
	return base
}

// resolveCollision appends an incrementing numeric suffix until the name is
// free in the songs directory. Existing files are never overwritten.
func (v *Validator) resolveCollision(base string) string {
	name := base + ".mp3"
	for counter := 1; ; counter++ {
		if _, err := os.Stat(filepath.Join(v.songsDir, name)); os.IsNotExist(err) {
			return name
		}
		name = fmt.Sprintf("%s_%d.mp3", base, counter)
	}
}

// moveFile renames the temp file into place, falling back to copy+remove
// when the temp directory lives on another filesystem.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
