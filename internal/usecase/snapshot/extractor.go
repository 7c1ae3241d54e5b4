package snapshot

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"interactai/internal/domain/entity"
)

// mainContentSelectors are tried in order before falling back to <body>.
var mainContentSelectors = []matcher{
	tagMatcher("main"),
	tagMatcher("article"),
	attrMatcher("role", "main"),
	classMatcher("content"),
	idMatcher("content"),
}

var pricingKeywords = []string{
	"price", "pricing", "cost", "$", "€", "£", "usd",
	"free", "premium", "subscription", "plan",
}

var contactKeywords = []string{
	"contact", "email", "phone", "call", "reach", "support", "help",
}

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	spaceRe = regexp.MustCompile(`[ \t]+`)
)

// Extractor builds bounded page snapshots from raw HTML. It is a pure
// function of its input: no page mutation, no errors propagated.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract converts one page into a compact structured snapshot. It never
// fails: on any internal problem it returns a degraded snapshot carrying a
// best-effort content prefix and the error text.
func (e *Extractor) Extract(rawHTML, url, title string) (snap *entity.PageSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			snap = degraded(rawHTML, url, title, "snapshot extraction panicked")
		}
	}()

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return degraded(rawHTML, url, title, "parse: "+err.Error())
	}

	body := findNode(doc, tagMatcher("body"))
	if body == nil {
		return degraded(rawHTML, url, title, "no body element")
	}

	main := body
	for _, m := range mainContentSelectors {
		if n := findNode(body, m); n != nil && isRenderable(n) {
			main = n
			break
		}
	}

	bodyText := visibleText(body)

	snap = &entity.PageSnapshot{
		URL:        url,
		Title:      title,
		Meta:       extractMeta(doc),
		Headings:   extractHeadings(body),
		Paragraphs: extractParagraphs(main),
		Links:      extractLinks(body),
		Content:    clip(visibleText(main), entity.MaxContentChars),
		HasPricing: hasPricingBlock(body),
		HasContact: hasContactBlock(body),
		Emails:     dedupe(emailRe.FindAllString(bodyText, -1), entity.MaxContactEntries),
		Phones:     dedupe(phoneRe.FindAllString(bodyText, -1), entity.MaxContactEntries),
		Timestamp:  time.Now().UTC(),
	}
	snap.EnforceCap()
	return snap
}

func degraded(rawHTML, url, title, errMsg string) *entity.PageSnapshot {
	content := rawHTML
	if doc, err := html.Parse(strings.NewReader(rawHTML)); err == nil {
		if body := findNode(doc, tagMatcher("body")); body != nil {
			content = visibleText(body)
		}
	}
	return &entity.PageSnapshot{
		URL:       url,
		Title:     title,
		Content:   clip(content, entity.MaxDegradedContent),
		Timestamp: time.Now().UTC(),
		Error:     errMsg,
	}
}

func extractMeta(doc *html.Node) entity.PageMeta {
	meta := entity.PageMeta{}
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "meta" {
			return true
		}
		name := strings.ToLower(attr(n, "name"))
		content := attr(n, "content")
		switch name {
		case "description":
			meta.Description = content
		case "keywords":
			meta.Keywords = content
		case "author":
			meta.Author = content
		}
		return true
	})
	return meta
}

var headingLevels = map[string]int{"h1": 1, "h2": 2, "h3": 3, "h4": 4, "h5": 5, "h6": 6}

func extractHeadings(body *html.Node) []entity.Heading {
	var out []entity.Heading
	walk(body, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		level, ok := headingLevels[n.Data]
		if !ok {
			return true
		}
		text := strings.TrimSpace(visibleText(n))
		if text == "" {
			return true
		}
		out = append(out, entity.Heading{Level: level, Text: text, ID: attr(n, "id")})
		return false
	})
	return out
}

func extractParagraphs(main *html.Node) []string {
	var out []string
	walk(main, func(n *html.Node) bool {
		if len(out) >= entity.MaxParagraphs {
			return false
		}
		if n.Type != html.ElementNode || n.Data != "p" {
			return true
		}
		text := strings.TrimSpace(visibleText(n))
		if len(text) > entity.MinParagraphLen {
			out = append(out, text)
		}
		return false
	})
	return out
}

func extractLinks(body *html.Node) []entity.Link {
	var out []entity.Link
	walk(body, func(n *html.Node) bool {
		if len(out) >= entity.MaxLinks {
			return false
		}
		if n.Type != html.ElementNode || n.Data != "a" {
			return true
		}
		href := attr(n, "href")
		if href == "" {
			return true
		}
		text := strings.TrimSpace(visibleText(n))
		if text == "" {
			return false
		}
		title := attr(n, "title")
		if title == "" {
			title = attr(n, "aria-label")
		}
		out = append(out, entity.Link{Text: text, Href: href, Title: title})
		return false
	})
	return out
}

// containerTags bound the keyword scans to container-like elements, matching
// the structural-first / keyword-second detection order.
var containerTags = map[string]bool{
	"div": true, "section": true, "article": true, "span": true, "p": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "footer": true, "header": true,
}

func hasPricingBlock(body *html.Node) bool {
	found := false
	walk(body, func(n *html.Node) bool {
		if n.Type == html.ElementNode &&
			(classOrIDContains(n, "price") || classOrIDContains(n, "pricing")) &&
			isRenderable(n) {
			found = true
			return false
		}
		return !found
	})
	if found {
		return true
	}
	return keywordScan(body, pricingKeywords)
}

func hasContactBlock(body *html.Node) bool {
	found := false
	walk(body, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if classOrIDContains(n, "contact") && isRenderable(n) {
			found = true
			return false
		}
		if n.Data == "a" {
			href := strings.ToLower(attr(n, "href"))
			if strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
				found = true
				return false
			}
		}
		return !found
	})
	if found {
		return true
	}
	return keywordScan(body, contactKeywords)
}

func keywordScan(body *html.Node, keywords []string) bool {
	found := false
	walk(body, func(n *html.Node) bool {
		if found {
			return false
		}
		if n.Type != html.ElementNode || !containerTags[n.Data] || !isRenderable(n) {
			return true
		}
		text := strings.ToLower(visibleText(n))
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

func dedupe(values []string, limit int) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func clip(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
