package model

// Song represents one catalog entry backed by a file in the songs directory.
//
// Key is a stable, reversible encoding of Filename and is the canonical
// identifier for the song everywhere (commands, feed GUIDs, the admin UI).
type Song struct {
	Key             string  `json:"key"`
	Filename        string  `json:"filename"`
	Artist          string  `json:"artist"`
	Title           string  `json:"title"`
	DisplayArtist   string  `json:"displayArtist,omitempty"`
	DisplayTitle    string  `json:"displayTitle,omitempty"`
	DurationSeconds float64 `json:"durationSeconds"`
	DurationLabel   string  `json:"durationLabel"`
	ModifiedTime    int64   `json:"modifiedTime"`
	SizeBytes       int64   `json:"sizeBytes"`
}

// EffectiveArtist returns the user-entered display artist when present,
// otherwise the tag-derived artist.
func (s *Song) EffectiveArtist() string {
	if s.DisplayArtist != "" {
		return s.DisplayArtist
	}
	return s.Artist
}

// EffectiveTitle returns the user-entered display title when present,
// otherwise the tag-derived title.
func (s *Song) EffectiveTitle() string {
	if s.DisplayTitle != "" {
		return s.DisplayTitle
	}
	return s.Title
}

// DisplayLine formats the song for the plain-text playlist and the feed:
// "Artist - Title", or whichever half is present.
func (s *Song) DisplayLine() string {
	artist := s.EffectiveArtist()
	title := s.EffectiveTitle()
	switch {
	case artist == "":
		return title
	case title == "":
		return artist
	default:
		return artist + " - " + title
	}
}
