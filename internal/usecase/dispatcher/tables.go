package dispatcher

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed navpatterns.yaml
var navPatternsYAML []byte

const genericFamily = "generic"

type PatternKind string

const (
	// PatternPath is a URL path or absolute URL triggering a full navigation.
	PatternPath PatternKind = "path"
	// PatternSelector is a CSS selector triggering highlight-then-click.
	PatternSelector PatternKind = "selector"
)

// NavPattern is one tagged navigation variant, evaluated in listed order.
type NavPattern struct {
	Kind  PatternKind
	Value string
}

type intentEntry struct {
	Phrase string `yaml:"phrase"`
	Target string `yaml:"target"`
}

type navTablesFile struct {
	Families map[string][]string            `yaml:"families"`
	Intents  []intentEntry                  `yaml:"intents"`
	Patterns map[string]map[string][]string `yaml:"patterns"`
}

// NavTables hold the static intent-phrase table and the per-site-family
// navigation pattern tables.
type NavTables struct {
	families map[string][]string
	intents  []intentEntry
	patterns map[string]map[string][]NavPattern
}

// LoadNavTables parses the embedded table definitions.
func LoadNavTables() (*NavTables, error) {
	var file navTablesFile
	if err := yaml.Unmarshal(navPatternsYAML, &file); err != nil {
		return nil, fmt.Errorf("parse navigation tables: %w", err)
	}
	if file.Patterns[genericFamily] == nil {
		return nil, fmt.Errorf("navigation tables missing %q family", genericFamily)
	}

	tables := &NavTables{
		families: file.Families,
		intents:  file.Intents,
		patterns: make(map[string]map[string][]NavPattern, len(file.Patterns)),
	}
	for family, targets := range file.Patterns {
		tables.patterns[family] = make(map[string][]NavPattern, len(targets))
		for target, raw := range targets {
			patterns := make([]NavPattern, 0, len(raw))
			for _, v := range raw {
				patterns = append(patterns, parsePattern(v))
			}
			tables.patterns[family][target] = patterns
		}
	}
	return tables, nil
}

func parsePattern(v string) NavPattern {
	if strings.HasPrefix(v, "/") || strings.HasPrefix(v, "http") {
		return NavPattern{Kind: PatternPath, Value: v}
	}
	return NavPattern{Kind: PatternSelector, Value: v}
}

// ResolveIntent maps an utterance onto a navigation target tag by substring
// match, first listed phrase wins.
func (t *NavTables) ResolveIntent(phrase string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(phrase))
	for _, e := range t.intents {
		if strings.Contains(lower, e.Phrase) {
			return e.Target, true
		}
	}
	return "", false
}

// Family buckets a hostname into a site family, generic when nothing
// matches.
func (t *NavTables) Family(hostname string) string {
	hostname = strings.ToLower(hostname)
	for family, needles := range t.families {
		for _, needle := range needles {
			if strings.Contains(hostname, needle) {
				return family
			}
		}
	}
	return genericFamily
}

// Patterns returns the ordered variant list for a family and target, falling
// back to the generic table when the family has no entry.
func (t *NavTables) Patterns(family, target string) []NavPattern {
	if site, ok := t.patterns[family]; ok {
		if patterns, ok := site[target]; ok && len(patterns) > 0 {
			return patterns
		}
	}
	return t.patterns[genericFamily][target]
}
