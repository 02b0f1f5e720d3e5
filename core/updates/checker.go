// Package updates queries the release feed and reports whether a newer
// version of the application is available.
package updates

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mixtape/logger"
)

// ErrUpstream means the release feed could not be reached or understood.
var ErrUpstream = errors.New("could not check for updates")

// Info is the result of an update check, handed straight to the admin UI.
type Info struct {
	CurrentVersion  string `json:"current_version"`
	LatestVersion   string `json:"latest_version"`
	UpdateAvailable bool   `json:"update_available"`
	ReleaseURL      string `json:"release_url"`
	DownloadURL     string `json:"download_url"`
	ReleaseNotes    string `json:"release_notes"`
	PublishedAt     string `json:"published_at"`
}

// Checker queries the GitHub releases feed for a repository.
type Checker struct {
	repo    string // "owner/name"
	current string
	apiBase string
	client  *http.Client
}

// NewChecker creates a checker for repo comparing against currentVersion.
// The outbound call is bounded by a 10 second timeout.
func NewChecker(repo, currentVersion string) *Checker {
	return &Checker{
		repo:    repo,
		current: currentVersion,
		apiBase: "https://api.github.com",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type release struct {
	TagName     string `json:"tag_name"`
	HTMLURL     string `json:"html_url"`
	ZipballURL  string `json:"zipball_url"`
	Body        string `json:"body"`
	PublishedAt string `json:"published_at"`
}

// Check fetches the latest release and compares versions.
func (c *Checker) Check() (*Info, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.apiBase, c.repo)

	resp, err := c.client.Get(url)
	if err != nil {
		logger.Warn("update check failed", logger.ErrorField(err))
		return nil, ErrUpstream
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("update check returned bad status", logger.Int("status", resp.StatusCode))
		return nil, ErrUpstream
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		logger.Warn("update check returned bad payload", logger.ErrorField(err))
		return nil, ErrUpstream
	}

	latest := strings.TrimPrefix(rel.TagName, "v")
	return &Info{
		CurrentVersion:  c.current,
		LatestVersion:   latest,
		UpdateAvailable: NewerVersion(latest, c.current),
		ReleaseURL:      rel.HTMLURL,
		DownloadURL:     rel.ZipballURL,
		ReleaseNotes:    rel.Body,
		PublishedAt:     rel.PublishedAt,
	}, nil
}

// NewerVersion reports whether a is a newer dotted-numeric version than b.
// Non-numeric segments compare as zero.
func NewerVersion(a, b string) bool {
	as := strings.Split(strings.TrimPrefix(a, "v"), ".")
	bs := strings.Split(strings.TrimPrefix(b, "v"), ".")

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av != bv {
			return av > bv
		}
	}
	return false
}
