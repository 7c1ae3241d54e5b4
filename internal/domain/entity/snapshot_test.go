package entity

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestEnforceCap_TrimsLinksAsLastResort(t *testing.T) {
	snap := &PageSnapshot{Content: strings.Repeat("x", MaxContentChars)}
	for i := 0; i < MaxLinks; i++ {
		snap.Links = append(snap.Links, Link{
			Text: fmt.Sprintf("link %03d %s", i, strings.Repeat("label ", 30)),
			Href: "https://example.test/" + strings.Repeat("path/", 20),
		})
	}

	snap.EnforceCap()

	assert.LessOrEqual(t, snap.SerializedLen(), MaxSnapshotChars)
	assert.Less(t, len(snap.Links), MaxLinks, "link list must shrink when it alone busts the cap")
	assert.NotEmpty(t, snap.Links)
}

func TestEnforceCap_ContentCutKeepsValidUTF8(t *testing.T) {
	paras := make([]string, MaxParagraphs)
	for i := range paras {
		paras[i] = strings.Repeat("p", 600)
	}
	snap := &PageSnapshot{
		// 3-byte runes so a byte-offset cut at MaxDegradedContent would
		// land mid-rune.
		Content:    strings.Repeat("€", 700),
		Paragraphs: paras,
	}

	snap.EnforceCap()

	assert.LessOrEqual(t, snap.SerializedLen(), MaxSnapshotChars)
	assert.Len(t, snap.Paragraphs, TruncatedParagraphs)
	assert.LessOrEqual(t, len(snap.Content), MaxDegradedContent)
	assert.True(t, utf8.ValidString(snap.Content))
}
