// Package speech provides console stand-ins for the speech recognizer and
// synthesizer: the recognizer reads one typed line per session, the
// synthesizer renders utterances to the terminal with pacing.
package speech

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"interactai/internal/application/port/output"
	"interactai/internal/domain/entity"
)

var _ output.SpeechRecognizer = (*ConsoleRecognizer)(nil)

// ConsoleRecognizer captures one utterance per Listen call. A blank line is
// the no-speech case.
type ConsoleRecognizer struct {
	reader *bufio.Reader
	out    io.Writer

	mu      sync.Mutex
	stopped bool
}

func NewConsoleRecognizer(in io.Reader, out io.Writer) *ConsoleRecognizer {
	return &ConsoleRecognizer{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (r *ConsoleRecognizer) Listen(ctx context.Context) (entity.Transcript, error) {
	r.mu.Lock()
	r.stopped = false
	r.mu.Unlock()

	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprint(r.out, "\n🎤 Listening... type your command\n> ")

	type result struct {
		line string
		err  error
	}
	lines := make(chan result, 1)
	go func() {
		line, err := r.reader.ReadString('\n')
		lines <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return entity.Transcript{}, ctx.Err()
	case res := <-lines:
		if res.err != nil && res.line == "" {
			return entity.Transcript{}, output.ErrNoSpeech
		}

		r.mu.Lock()
		stopped := r.stopped
		r.mu.Unlock()
		if stopped {
			return entity.Transcript{}, output.ErrNoSpeech
		}

		text := strings.TrimSpace(res.line)
		if text == "" {
			return entity.Transcript{}, output.ErrNoSpeech
		}
		// Typed input is as certain as it gets.
		return entity.Transcript{Text: text, Confidence: 1.0}, nil
	}
}

func (r *ConsoleRecognizer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
}

var _ output.SpeechSynthesizer = (*ConsoleSynthesizer)(nil)

// ConsoleSynthesizer renders utterances word by word so speech pacing, and
// with it the Speaking state, is observable. Rate 1.0 maps to normal
// reading speed.
type ConsoleSynthesizer struct {
	out          io.Writer
	wordsPerPace time.Duration

	mu       sync.Mutex
	speaking bool
	cancel   chan struct{}
}

func NewConsoleSynthesizer(out io.Writer) *ConsoleSynthesizer {
	return &ConsoleSynthesizer{
		out:          out,
		wordsPerPace: 150 * time.Millisecond,
	}
}

// SetPace overrides word pacing, used by tests to run without delays.
func (s *ConsoleSynthesizer) SetPace(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wordsPerPace = d
}

func (s *ConsoleSynthesizer) Speak(ctx context.Context, u output.Utterance, events output.SpeechEvents) {
	if strings.TrimSpace(u.Text) == "" {
		return
	}

	s.Cancel()

	s.mu.Lock()
	cancel := make(chan struct{})
	s.cancel = cancel
	s.speaking = true
	pace := s.wordsPerPace
	if u.Rate > 0 {
		pace = time.Duration(float64(pace) / u.Rate)
	}
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			// A replacement utterance owns the flag by now; only the
			// current generation may clear it.
			if s.cancel == cancel {
				s.speaking = false
			}
			s.mu.Unlock()
		}()

		if events.OnStart != nil {
			events.OnStart()
		}

		green := color.New(color.FgGreen)
		green.Fprint(s.out, "\n🔊 ")

		for _, word := range strings.Fields(u.Text) {
			select {
			case <-cancel:
				fmt.Fprintln(s.out)
				return
			case <-ctx.Done():
				fmt.Fprintln(s.out)
				if events.OnError != nil {
					events.OnError(ctx.Err())
				}
				return
			case <-time.After(pace):
			}
			green.Fprintf(s.out, "%s ", word)
		}
		fmt.Fprintln(s.out)

		if events.OnEnd != nil {
			events.OnEnd()
		}
	}()
}

func (s *ConsoleSynthesizer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		select {
		case <-s.cancel:
		default:
			close(s.cancel)
		}
	}
}

func (s *ConsoleSynthesizer) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}
