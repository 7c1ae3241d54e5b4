package interpreter

import (
	"encoding/json"
	"regexp"
	"strings"

	"interactai/internal/domain/entity"
)

// actionTokenRe is the legacy plain-text wire format: one ACTION line
// anchored at the start of the reply.
var actionTokenRe = regexp.MustCompile(`(?i)^ACTION:(HIGHLIGHT|SCROLL|CLICK|NAVIGATE|SEARCH):(.+)`)

// kindAliases maps wire-format action names onto the closed directive enum.
var kindAliases = map[string]entity.ActionKind{
	"highlight":   entity.ActionHighlight,
	"scroll":      entity.ActionScroll,
	"scrollto":    entity.ActionScroll,
	"click":       entity.ActionClick,
	"navigate":    entity.ActionNavigate,
	"read":        entity.ActionRead,
	"site_search": entity.ActionSiteSearch,
	"search":      entity.ActionSiteSearch,
}

type wireReply struct {
	ResponseType string `json:"responseType"`
	Action       string `json:"action"`
	Text         string `json:"text"`
	Selector     string `json:"selector"`
}

// parseReply turns the raw model text into a typed result. Unparseable
// output is downgraded to a plain-text reply on purpose; the model not
// following the contract is not an error the user should see.
func parseReply(raw, command string) *entity.InterpretedReply {
	trimmed := strings.TrimSpace(raw)

	reply := parseJSONReply(trimmed)
	if reply == nil {
		reply = parseActionToken(trimmed)
	}
	if reply == nil {
		// Downgraded replies carry the model text back verbatim.
		reply = &entity.InterpretedReply{Text: raw}
	}

	// The reading flow is implemented client-side, so the keyword fallback
	// fires regardless of what the model answered.
	lower := strings.ToLower(command)
	if reply.Directive == nil && strings.Contains(lower, "read") && strings.Contains(lower, "aloud") {
		reply.Directive = &entity.ActionDirective{Action: entity.ActionRead, Text: "main content"}
	}

	return reply
}

func parseJSONReply(raw string) *entity.InterpretedReply {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return nil
	}

	var wire wireReply
	if err := json.Unmarshal([]byte(raw[start:end+1]), &wire); err != nil {
		return nil
	}

	switch wire.ResponseType {
	case "reply":
		return &entity.InterpretedReply{Text: wire.Text}
	case "action":
		kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(wire.Action))]
		if !ok {
			// Richer vocabularies (e.g. "extract") fall outside the closed
			// enum and downgrade to a reply.
			return &entity.InterpretedReply{Text: wire.Text}
		}
		text := strings.TrimSpace(wire.Text)
		if text == "" {
			text = strings.TrimSpace(wire.Selector)
		}
		return &entity.InterpretedReply{
			Directive: &entity.ActionDirective{Action: kind, Text: text},
		}
	default:
		return nil
	}
}

func parseActionToken(raw string) *entity.InterpretedReply {
	m := actionTokenRe.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}

	kind, ok := kindAliases[strings.ToLower(m[1])]
	if !ok {
		return nil
	}

	display := strings.TrimSpace(strings.TrimPrefix(raw, m[0]))
	return &entity.InterpretedReply{
		Text:      display,
		Directive: &entity.ActionDirective{Action: kind, Text: strings.TrimSpace(m[2])},
	}
}
