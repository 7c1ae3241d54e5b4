package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interactai/internal/application/port/output"
	"interactai/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)                      {}
func (nopLogger) Info(string, ...any)                       {}
func (nopLogger) Warn(string, ...any)                       {}
func (nopLogger) Error(string, ...any)                      {}
func (l nopLogger) WithField(string, any) output.LoggerPort { return l }
func (nopLogger) Close() error                              { return nil }

func echoHandler(ctx context.Context, req entity.BusRequest) entity.BusResponse {
	return entity.BusResponse{ID: req.ID, OK: true, Payload: req.Payload}
}

func TestSend_RoundTrip(t *testing.T) {
	b := New(nopLogger{})
	defer b.Close()
	b.Register(entity.ContextPage, echoHandler)

	payload, _ := json.Marshal(map[string]string{"hello": "world"})
	resp, err := b.Send(context.Background(), entity.ContextPage, entity.BusRequest{
		ID: "r1", Type: entity.MsgGetSnapshot, Payload: payload,
	})

	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, "r1", resp.ID)
	assert.JSONEq(t, string(payload), string(resp.Payload))
}

func TestSend_NoReceiver(t *testing.T) {
	b := New(nopLogger{})
	defer b.Close()

	_, err := b.Send(context.Background(), entity.ContextPage, entity.BusRequest{Type: entity.MsgGetSnapshot})
	assert.ErrorIs(t, err, output.ErrNoReceiver)
}

func TestSend_AfterUnregister(t *testing.T) {
	b := New(nopLogger{})
	defer b.Close()
	b.Register(entity.ContextPage, echoHandler)
	require.True(t, b.Alive(entity.ContextPage))

	b.Unregister(entity.ContextPage)
	assert.False(t, b.Alive(entity.ContextPage))

	_, err := b.Send(context.Background(), entity.ContextPage, entity.BusRequest{Type: entity.MsgGetSnapshot})
	assert.ErrorIs(t, err, output.ErrNoReceiver)
}

func TestSend_FIFOPerContext(t *testing.T) {
	b := New(nopLogger{})
	defer b.Close()

	var order []string
	b.Register(entity.ContextBackground, func(ctx context.Context, req entity.BusRequest) entity.BusResponse {
		order = append(order, req.ID) // single mailbox goroutine, no lock needed
		return entity.BusResponse{ID: req.ID, OK: true}
	})

	for i := 0; i < 5; i++ {
		_, err := b.Send(context.Background(), entity.ContextBackground, entity.BusRequest{ID: fmt.Sprintf("m%d", i)})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"m0", "m1", "m2", "m3", "m4"}, order)
}

func TestSend_ContextTimeout(t *testing.T) {
	b := New(nopLogger{})
	defer b.Close()
	b.Register(entity.ContextPage, func(ctx context.Context, req entity.BusRequest) entity.BusResponse {
		<-ctx.Done()
		return entity.BusResponse{ID: req.ID}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.Send(ctx, entity.ContextPage, entity.BusRequest{ID: "slow"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSend_HandlerPanicBecomesResponse(t *testing.T) {
	b := New(nopLogger{})
	defer b.Close()
	b.Register(entity.ContextPage, func(ctx context.Context, req entity.BusRequest) entity.BusResponse {
		panic("boom")
	})

	resp, err := b.Send(context.Background(), entity.ContextPage, entity.BusRequest{ID: "p"})

	require.NoError(t, err, "a faulting handler still yields a response, not a dead channel")
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "boom")
}

func TestRegister_ReplacesPreviousIncarnation(t *testing.T) {
	b := New(nopLogger{})
	defer b.Close()

	var generation atomic.Int32
	b.Register(entity.ContextPage, func(ctx context.Context, req entity.BusRequest) entity.BusResponse {
		return entity.BusResponse{ID: "old", OK: true}
	})
	b.Register(entity.ContextPage, func(ctx context.Context, req entity.BusRequest) entity.BusResponse {
		generation.Add(1)
		return entity.BusResponse{ID: "new", OK: true}
	})

	resp, err := b.Send(context.Background(), entity.ContextPage, entity.BusRequest{ID: "x"})
	require.NoError(t, err)
	assert.Equal(t, "new", resp.ID)
	assert.EqualValues(t, 1, generation.Load())
}

func TestClose_RejectsFurtherTraffic(t *testing.T) {
	b := New(nopLogger{})
	b.Register(entity.ContextPage, echoHandler)
	b.Close()

	_, err := b.Send(context.Background(), entity.ContextPage, entity.BusRequest{})
	assert.ErrorIs(t, err, output.ErrNoReceiver)
}
