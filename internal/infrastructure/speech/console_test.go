package speech

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interactai/internal/application/port/output"
)

func TestConsoleRecognizer_CapturesOneUtterance(t *testing.T) {
	var out bytes.Buffer
	rec := NewConsoleRecognizer(strings.NewReader("highlight the pricing\n"), &out)

	transcript, err := rec.Listen(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "highlight the pricing", transcript.Text)
	assert.Equal(t, 1.0, transcript.Confidence)
}

func TestConsoleRecognizer_BlankLineIsNoSpeech(t *testing.T) {
	var out bytes.Buffer
	rec := NewConsoleRecognizer(strings.NewReader("   \n"), &out)

	_, err := rec.Listen(context.Background())
	assert.ErrorIs(t, err, output.ErrNoSpeech)
}

func TestConsoleRecognizer_EOFIsNoSpeech(t *testing.T) {
	var out bytes.Buffer
	rec := NewConsoleRecognizer(strings.NewReader(""), &out)

	_, err := rec.Listen(context.Background())
	assert.ErrorIs(t, err, output.ErrNoSpeech)
}

func TestConsoleRecognizer_ContextCancel(t *testing.T) {
	var out bytes.Buffer
	blocked, _ := newBlockedReader()
	rec := NewConsoleRecognizer(blocked, &out)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := rec.Listen(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// newBlockedReader returns a reader whose Read never completes until the
// closer is called.
func newBlockedReader() (*blockedReader, func()) {
	r := &blockedReader{ch: make(chan struct{})}
	return r, func() { close(r.ch) }
}

type blockedReader struct{ ch chan struct{} }

func (r *blockedReader) Read([]byte) (int, error) {
	<-r.ch
	return 0, nil
}

func TestConsoleSynthesizer_SpeaksAndSignalsEnd(t *testing.T) {
	var out bytes.Buffer
	synth := NewConsoleSynthesizer(&out)
	synth.SetPace(time.Microsecond)

	var started, ended atomic.Bool
	synth.Speak(context.Background(), output.Utterance{Text: "hello spoken world", Rate: 1.0}, output.SpeechEvents{
		OnStart: func() { started.Store(true) },
		OnEnd:   func() { ended.Store(true) },
	})

	assert.Eventually(t, func() bool { return ended.Load() }, time.Second, time.Millisecond)
	assert.True(t, started.Load())
	assert.False(t, synth.Speaking())
	assert.Contains(t, out.String(), "hello")
	assert.Contains(t, out.String(), "world")
}

func TestConsoleSynthesizer_EmptyTextIsIgnored(t *testing.T) {
	var out bytes.Buffer
	synth := NewConsoleSynthesizer(&out)

	var started atomic.Bool
	synth.Speak(context.Background(), output.Utterance{Text: "   "}, output.SpeechEvents{
		OnStart: func() { started.Store(true) },
	})

	assert.False(t, synth.Speaking())
	assert.False(t, started.Load())
}

func TestConsoleSynthesizer_CancelStopsSpeech(t *testing.T) {
	var out bytes.Buffer
	synth := NewConsoleSynthesizer(&out)
	synth.SetPace(50 * time.Millisecond)

	var ended atomic.Bool
	synth.Speak(context.Background(), output.Utterance{Text: strings.Repeat("word ", 100), Rate: 1.0}, output.SpeechEvents{
		OnEnd: func() { ended.Store(true) },
	})

	assert.Eventually(t, func() bool { return synth.Speaking() }, time.Second, time.Millisecond)
	synth.Cancel()

	assert.Eventually(t, func() bool { return !synth.Speaking() }, time.Second, time.Millisecond)
	assert.False(t, ended.Load(), "a canceled utterance does not report completion")
}

func TestConsoleSynthesizer_NewUtteranceCancelsOld(t *testing.T) {
	var out bytes.Buffer
	synth := NewConsoleSynthesizer(&out)
	synth.SetPace(20 * time.Millisecond)

	synth.Speak(context.Background(), output.Utterance{Text: strings.Repeat("first ", 50), Rate: 1.0}, output.SpeechEvents{})
	assert.Eventually(t, func() bool { return synth.Speaking() }, time.Second, time.Millisecond)

	var ended atomic.Bool
	synth.SetPace(time.Microsecond)
	synth.Speak(context.Background(), output.Utterance{Text: "second utterance", Rate: 1.0}, output.SpeechEvents{
		OnEnd: func() { ended.Store(true) },
	})

	assert.Eventually(t, func() bool { return ended.Load() }, time.Second, time.Millisecond)
	assert.Contains(t, out.String(), "second")
}

func TestConsoleSynthesizer_ReplacementKeepsSpeakingState(t *testing.T) {
	var out bytes.Buffer
	synth := NewConsoleSynthesizer(&out)
	synth.SetPace(20 * time.Millisecond)

	synth.Speak(context.Background(), output.Utterance{Text: strings.Repeat("first ", 50), Rate: 1.0}, output.SpeechEvents{})
	assert.Eventually(t, func() bool { return synth.Speaking() }, time.Second, time.Millisecond)

	synth.Speak(context.Background(), output.Utterance{Text: strings.Repeat("second ", 50), Rate: 1.0}, output.SpeechEvents{})

	// The canceled utterance's goroutine unwinds while the replacement is
	// underway; it must not clear the flag the replacement now owns.
	for i := 0; i < 10; i++ {
		assert.True(t, synth.Speaking())
		time.Sleep(5 * time.Millisecond)
	}
	synth.Cancel()
	assert.Eventually(t, func() bool { return !synth.Speaking() }, time.Second, time.Millisecond)
}
