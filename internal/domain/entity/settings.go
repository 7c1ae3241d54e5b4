package entity

// Settings is the persisted user configuration. Read-modify-write against
// the key-value store, no versioning.
type Settings struct {
	AutoSpeak         bool `json:"autoSpeak"`
	HighlightDuration int  `json:"highlightDuration"` // milliseconds
	MaxTokens         int  `json:"maxTokens"`
}

// DefaultSettings are installed on first run.
func DefaultSettings() Settings {
	return Settings{
		AutoSpeak:         false,
		HighlightDuration: 5000,
		MaxTokens:         150,
	}
}

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}
