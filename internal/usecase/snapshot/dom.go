package snapshot

import (
	"strings"

	"golang.org/x/net/html"
)

type matcher func(n *html.Node) bool

func tagMatcher(tag string) matcher {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	}
}

func attrMatcher(name, value string) matcher {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && strings.EqualFold(attr(n, name), value)
	}
}

func classMatcher(class string) matcher {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, c := range strings.Fields(attr(n, "class")) {
			if strings.EqualFold(c, class) {
				return true
			}
		}
		return false
	}
}

func idMatcher(id string) matcher {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && strings.EqualFold(attr(n, "id"), id)
	}
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func findNode(root *html.Node, m matcher) *html.Node {
	if m(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, m); found != nil {
			return found
		}
	}
	return nil
}

// walk visits nodes depth-first. The callback returns false to skip the
// node's subtree.
func walk(root *html.Node, visit func(n *html.Node) bool) {
	if !visit(root) {
		return
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// skippedTags never contribute to visible text.
var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"svg": true, "iframe": true, "head": true,
}

// isRenderable approximates the runtime visibility test statically: a parser
// cannot compute layout, so rendered-size checks stay in the browser
// adapter; here only markup-level hiding is honored.
func isRenderable(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return true
	}
	if skippedTags[n.Data] {
		return false
	}
	if _, hidden := lookupAttr(n, "hidden"); hidden {
		return false
	}
	style := strings.ToLower(attr(n, "style"))
	if style != "" {
		style = strings.ReplaceAll(style, " ", "")
		if strings.Contains(style, "display:none") ||
			strings.Contains(style, "visibility:hidden") ||
			strings.Contains(style, "opacity:0;") ||
			strings.HasSuffix(style, "opacity:0") {
			return false
		}
	}
	return true
}

func classOrIDContains(n *html.Node, fragment string) bool {
	class := strings.ToLower(attr(n, "class"))
	id := strings.ToLower(attr(n, "id"))
	return strings.Contains(class, fragment) || strings.Contains(id, fragment)
}

func lookupAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// blockTags get newline separation in extracted text, mimicking innerText.
var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "li": true,
	"br": true, "tr": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "footer": true, "header": true, "ul": true, "ol": true,
}

// visibleText collects the text of all renderable descendants with
// normalized whitespace.
func visibleText(root *html.Node) string {
	var b strings.Builder
	var emit func(n *html.Node)
	emit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && !isRenderable(n) {
			return
		}
		block := n.Type == html.ElementNode && blockTags[n.Data]
		if block {
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			emit(c)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	emit(root)
	return normalizeSpace(b.String())
}

func normalizeSpace(s string) string {
	s = spaceRe.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
