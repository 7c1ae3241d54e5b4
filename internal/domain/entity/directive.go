package entity

type ActionKind string

// The action vocabulary is closed. The dispatcher rejects anything outside
// this set, no matter what the model replied.
const (
	ActionNavigate   ActionKind = "navigate"
	ActionHighlight  ActionKind = "highlight"
	ActionScroll     ActionKind = "scroll"
	ActionClick      ActionKind = "click"
	ActionRead       ActionKind = "read"
	ActionSiteSearch ActionKind = "site_search"
)

func (k ActionKind) Valid() bool {
	switch k {
	case ActionNavigate, ActionHighlight, ActionScroll, ActionClick, ActionRead, ActionSiteSearch:
		return true
	}
	return false
}

// ActionDirective is the sole contract between the interpreter and the
// dispatcher: one structured instruction per executed command.
type ActionDirective struct {
	Action  ActionKind        `json:"action"`
	Text    string            `json:"text"`
	Options map[string]string `json:"options,omitempty"`
}

// Execution methods reported by ActionResult.
const (
	MethodRedirect    = "redirect"
	MethodClick       = "click"
	MethodFormSubmit  = "form_submit"
	MethodButtonClick = "button_click"
	MethodInputSet    = "input_set"
)

// ActionResult reports the outcome of a single dispatched directive.
// Results are never batched.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
	Method  string `json:"method,omitempty"`
	Text    string `json:"text,omitempty"`
}

// InterpretedReply is the typed result of one model round trip: either a
// free-text reply, or exactly one directive plus the reply text with the
// action token stripped.
type InterpretedReply struct {
	Text      string           `json:"text"`
	Directive *ActionDirective `json:"directive,omitempty"`
}

func (r *InterpretedReply) IsAction() bool {
	return r.Directive != nil
}
