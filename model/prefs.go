package model

// DocPrefs is the store document holding the preference mapping.
const DocPrefs = ".mixtape_prefs"

// Preference names used by the admin surface.
const (
	PrefBanner      = "banner"
	PrefCaption     = "caption"
	PrefColor       = "color"
	PrefDisplayMP3  = "display_mp3"
	PrefUseFilename = "use_filename"
)

// Prefs is the flat preference mapping persisted as a JSON document.
// There are no required keys; absent keys fall back to defaults at read time.
// Feature toggles are stored as 1/0.
type Prefs map[string]any

// Get returns the string value for name, or fallback when absent.
func (p Prefs) Get(name, fallback string) string {
	if v, ok := p[name].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Flag reports whether a feature toggle is on. Toggles are persisted as 1/0
// but tolerate bools and float64 (the shape JSON decoding produces).
func (p Prefs) Flag(name string) bool {
	switch v := p[name].(type) {
	case bool:
		return v
	case int:
		return v == 1
	case float64:
		return v == 1
	default:
		return false
	}
}

// SetFlag stores a feature toggle in its canonical 1/0 form.
func (p Prefs) SetFlag(name string, on bool) {
	if on {
		p[name] = 1
	} else {
		p[name] = 0
	}
}
