package server

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"regexp"

	"mixtape/core/catalog"
	"mixtape/logger"
	"mixtape/model"
)

// Control characters are invalid in XML 1.0 and get stripped from every text
// field before encoding. Tab, newline and carriage return survive.
var xmlControlChars = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssItem struct {
	Title       string       `xml:"title"`
	Link        string       `xml:"link"`
	Enclosure   rssEnclosure `xml:"enclosure"`
	GUID        rssGUID      `xml:"guid"`
	Description string       `xml:"description"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Description string    `xml:"description"`
	Link        string    `xml:"link"`
	Items       []rssItem `xml:"item"`
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

// FeedHandler renders the public RSS feed of the current catalog. The GUID
// per item is the catalog key: stable and deliberately not dereferenceable.
func (h *APIHandler) FeedHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := h.catalog.Scan()
	if err != nil {
		logger.Warn("scan before feed failed", logger.ErrorField(err))
		songs = h.catalog.Songs()
	}

	prefs := model.Prefs(h.store.Read(model.DocPrefs))

	var total float64
	for _, s := range songs {
		total += s.DurationSeconds
	}

	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title: cleanXML(prefs.Get(model.PrefBanner, "Mixtape!")),
			Description: cleanXML(prefs.Get(model.PrefCaption,
				fmt.Sprintf("%d songs, %s", len(songs), catalog.FormatRuntime(int(total))))),
			Link: h.cfg.BaseURL,
		},
	}

	for _, s := range songs {
		songURL := h.cfg.BaseURL + "songs/" + url.PathEscape(s.Filename)
		feed.Channel.Items = append(feed.Channel.Items, rssItem{
			Title:       cleanXML(s.DisplayLine()),
			Link:        songURL,
			Enclosure:   rssEnclosure{URL: songURL, Length: s.SizeBytes, Type: "audio/mpeg"},
			GUID:        rssGUID{IsPermaLink: "false", Value: s.Key},
			Description: cleanXML(s.DurationLabel),
		})
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=UTF-8")
	w.Write([]byte(xml.Header))
	if err := xml.NewEncoder(w).Encode(feed); err != nil {
		logger.Error("failed to encode feed", logger.ErrorField(err))
	}
}

func cleanXML(s string) string {
	return xmlControlChars.ReplaceAllString(s, "")
}
