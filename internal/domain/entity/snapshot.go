package entity

import (
	"encoding/json"
	"time"
	"unicode/utf8"
)

// MaxSnapshotChars is the hard ceiling for a serialized snapshot. Snapshots
// above it get their paragraphs truncated before being sent to the model.
const MaxSnapshotChars = 14000

const (
	MaxParagraphs          = 30
	TruncatedParagraphs    = 10
	MaxLinks               = 100
	MaxContentChars        = 2000
	MaxDegradedContent     = 1000
	MaxContactEntries      = 5
	MinParagraphLen        = 20
)

type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id,omitempty"`
}

type Link struct {
	Text  string `json:"text"`
	Href  string `json:"href"`
	Title string `json:"title,omitempty"`
}

type PageMeta struct {
	Description string `json:"description,omitempty"`
	Keywords    string `json:"keywords,omitempty"`
	Author      string `json:"author,omitempty"`
}

// PageSnapshot is a bounded, serializable summary of the visible content and
// structure of one page. Built fresh per command, never persisted.
type PageSnapshot struct {
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Meta       PageMeta  `json:"meta"`
	Headings   []Heading `json:"headings,omitempty"`
	Paragraphs []string  `json:"paragraphs,omitempty"`
	Links      []Link    `json:"links,omitempty"`
	Content    string    `json:"content"`
	HasPricing bool      `json:"hasPricing"`
	HasContact bool      `json:"hasContact"`
	Emails     []string  `json:"emails,omitempty"`
	Phones     []string  `json:"phones,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Error      string    `json:"error,omitempty"`
}

// SerializedLen reports the size of the snapshot's JSON encoding.
func (s *PageSnapshot) SerializedLen() int {
	data, err := json.Marshal(s)
	if err != nil {
		return 0
	}
	return len(data)
}

// EnforceCap truncates the snapshot when its serialization exceeds
// MaxSnapshotChars. Paragraphs go first because they carry the bulk of the
// payload, then content, then the link list as a last resort.
func (s *PageSnapshot) EnforceCap() {
	if s.SerializedLen() <= MaxSnapshotChars {
		return
	}
	if len(s.Paragraphs) > TruncatedParagraphs {
		s.Paragraphs = s.Paragraphs[:TruncatedParagraphs]
	}
	if s.SerializedLen() > MaxSnapshotChars && len(s.Content) > MaxDegradedContent {
		s.Content = cutRuneSafe(s.Content, MaxDegradedContent)
	}
	for s.SerializedLen() > MaxSnapshotChars && len(s.Links) > 0 {
		s.Links = s.Links[:len(s.Links)/2]
	}
}

// cutRuneSafe truncates to at most limit bytes without splitting a
// multibyte rune.
func cutRuneSafe(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
