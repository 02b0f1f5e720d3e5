package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Version is the release the running binary was built from.
const Version = "1.0.0"

// DefaultColor is the banner color used when no theme color is configured.
const DefaultColor = "EC660F"

// Config stores the application configuration.
type Config struct {
	ListenAddr  string // host:port the HTTP server binds to
	BaseURL     string // public base URL, used for feed enclosure links
	SongsDir    string // flat directory of uploaded MP3s
	SettingsDir string // flat-file JSON documents live here

	SessionTTL      time.Duration // admin session lifetime
	MaxUploadBytes  int64         // per-file upload limit
	MaxRequestBytes int64         // whole-request limit for multipart posts

	UpdateRepo string // owner/repo queried for new releases

	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt64 gets an environment variable as int64 or returns a default value.
func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	return &Config{
		ListenAddr:      getEnv("MIXTAPE_ADDR", ":8080"),
		BaseURL:         getEnv("MIXTAPE_BASE_URL", "http://localhost:8080/"),
		SongsDir:        getEnv("MIXTAPE_SONGS_DIR", "songs"),
		SettingsDir:     getEnv("MIXTAPE_SETTINGS_DIR", "settings"),
		SessionTTL:      time.Duration(getEnvInt64("MIXTAPE_SESSION_TTL_DAYS", 30)) * 24 * time.Hour,
		MaxUploadBytes:  getEnvInt64("MIXTAPE_MAX_UPLOAD_BYTES", 100<<20),
		MaxRequestBytes: getEnvInt64("MIXTAPE_MAX_REQUEST_BYTES", 110<<20),
		UpdateRepo:      getEnv("MIXTAPE_UPDATE_REPO", "mixtape/mixtape"),
		LogLevel:        getEnv("MIXTAPE_LOG_LEVEL", "info"),
		LogPath:         getEnv("MIXTAPE_LOG_PATH", ""),
	}
}

// MaxUploadHintBytes is the declared max-size hint handed to the upload form:
// the smaller of the per-file and whole-request limits.
func (c *Config) MaxUploadHintBytes() int64 {
	if c.MaxUploadBytes < c.MaxRequestBytes {
		return c.MaxUploadBytes
	}
	return c.MaxRequestBytes
}
