package output

import (
	"context"
	"errors"

	"interactai/internal/domain/entity"
)

// ErrNoSpeech is the recognizer's "no-speech" error code: the session ended
// without a final transcript.
var ErrNoSpeech = errors.New("no speech detected")

// SpeechRecognizer captures one utterance per session: continuous=false,
// no interim results, a single final alternative with confidence.
type SpeechRecognizer interface {
	Listen(ctx context.Context) (entity.Transcript, error)
	Stop()
}

type Utterance struct {
	Text   string
	Rate   float64
	Pitch  float64
	Volume float64
	Lang   string
}

// SpeechEvents mirror the synthesizer's start/end/error callbacks the
// session controller drives its state machine with.
type SpeechEvents struct {
	OnStart func()
	OnEnd   func()
	OnError func(error)
}

type SpeechSynthesizer interface {
	// Speak cancels any active utterance and speaks asynchronously,
	// reporting progress through events.
	Speak(ctx context.Context, u Utterance, events SpeechEvents)
	Cancel()
	Speaking() bool
}
