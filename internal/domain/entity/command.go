package entity

// Command is one user utterance, either spoken or produced by a quick-action
// preset.
type Command struct {
	Text       string
	Confidence float64
}

// QuickAction identifies one of the fixed popup presets.
type QuickAction string

const (
	QuickSummarize QuickAction = "summarize"
	QuickPricing   QuickAction = "pricing"
	QuickContacts  QuickAction = "contacts"
	QuickRead      QuickAction = "read"
)

// quickActionCommands are the preset phrasings. A preset goes through the
// exact same pipeline as a spoken command.
var quickActionCommands = map[QuickAction]string{
	QuickSummarize: "Summarize this page in 3 sentences, focusing on the main topic.",
	QuickPricing:   "Highlight the pricing on this page.",
	QuickContacts:  "Find and show me the contact information.",
	QuickRead:      "Read the main content of this page aloud.",
}

// Command resolves the preset to its command text; the second return
// reports whether the preset exists.
func (a QuickAction) Command() (string, bool) {
	cmd, ok := quickActionCommands[a]
	return cmd, ok
}

// Transcript is what the speech recognizer emits for one session: a single
// final alternative with its confidence score.
type Transcript struct {
	Text       string
	Confidence float64
}
