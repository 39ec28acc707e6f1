package relay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leandrodaf/midibridge/internal/logger"
	"github.com/leandrodaf/midibridge/internal/transport/memory"
	"github.com/leandrodaf/midibridge/sdk/contracts"
)

// harness wires an engine between four named pipes and exposes the far ends.
type harness struct {
	engine     *Engine
	fromClient contracts.OutputPort // what the client writes
	toClient   contracts.InputPort  // what the client reads
	fromDevice contracts.OutputPort // what the device writes
	toDevice   contracts.InputPort  // what the device reads
}

func newHarness(t *testing.T, sink contracts.TraceSink) *harness {
	t.Helper()
	tr := memory.New(0)
	t.Cleanup(func() { tr.Close() })

	clientIn, err := tr.OpenInput("bridge in")
	require.NoError(t, err)
	clientOut, err := tr.OpenOutput("bridge out")
	require.NoError(t, err)
	deviceOut, err := tr.OpenOutput("device in")
	require.NoError(t, err)
	deviceIn, err := tr.OpenInput("device out")
	require.NoError(t, err)

	fromClient, err := tr.OpenOutput("bridge in")
	require.NoError(t, err)
	toClient, err := tr.OpenInput("bridge out")
	require.NoError(t, err)
	toDevice, err := tr.OpenInput("device in")
	require.NoError(t, err)
	fromDevice, err := tr.OpenOutput("device out")
	require.NoError(t, err)

	engine := New(
		PortPair{In: clientIn, Out: clientOut},
		PortPair{In: deviceIn, Out: deviceOut},
		logger.NewZapLogger(),
		sink,
	)
	return &harness{
		engine:     engine,
		fromClient: fromClient,
		toClient:   toClient,
		fromDevice: fromDevice,
		toDevice:   toDevice,
	}
}

func receiveOne(t *testing.T, in contracts.InputPort) contracts.RawMessage {
	t.Helper()
	select {
	case msg := <-in.Messages():
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for relayed message")
		return nil
	}
}

func expectNone(t *testing.T, in contracts.InputPort) {
	t.Helper()
	select {
	case msg := <-in.Messages():
		t.Fatalf("unexpected message relayed: % X", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRelayForwardsByteExactInOrder(t *testing.T) {
	h := newHarness(t, nil)
	h.engine.Start(context.Background())
	defer h.engine.Stop()

	sent := []contracts.RawMessage{
		{0xF0, 0x7E, 0x7F, 0x06, 0x01, 0xF7},
		{0x90, 0x3C, 0x7F},
		{0xF0, 0x7D, 0x01, 0x01, 0x02, 0x40, 0xF7},
		{0x80, 0x3C, 0x00},
	}
	for _, msg := range sent {
		require.NoError(t, h.fromClient.Send(msg))
	}
	for _, want := range sent {
		require.Equal(t, want, receiveOne(t, h.toDevice))
	}
}

func TestRelayDirectionsAreIndependent(t *testing.T) {
	h := newHarness(t, nil)
	h.engine.Start(context.Background())
	defer h.engine.Stop()

	require.NoError(t, h.fromClient.Send(contracts.RawMessage{0x90, 0x3C, 0x7F}))
	require.NoError(t, h.fromDevice.Send(contracts.RawMessage{0xB0, 0x07, 0x7F}))

	require.Equal(t, contracts.RawMessage{0x90, 0x3C, 0x7F}, receiveOne(t, h.toDevice))
	require.Equal(t, contracts.RawMessage{0xB0, 0x07, 0x7F}, receiveOne(t, h.toClient))
}

func TestRelayDropsMalformedChunks(t *testing.T) {
	h := newHarness(t, nil)
	h.engine.Start(context.Background())
	defer h.engine.Stop()

	// Truncated SysEx must never be forwarded, and must not stall the
	// direction for valid traffic behind it.
	require.NoError(t, h.fromClient.Send(contracts.RawMessage{0xF0, 0x7D, 0x01}))
	require.NoError(t, h.fromClient.Send(contracts.RawMessage{0x90, 0x3C, 0x7F}))

	require.Equal(t, contracts.RawMessage{0x90, 0x3C, 0x7F}, receiveOne(t, h.toDevice))
	expectNone(t, h.toDevice)
}

func TestRelayTransportErrorStopsOneDirectionOnly(t *testing.T) {
	h := newHarness(t, nil)
	h.engine.Start(context.Background())
	defer h.engine.Stop()

	// Kill the device-facing destination, then push client traffic into it.
	require.NoError(t, h.toDevice.Close())
	require.NoError(t, h.fromClient.Send(contracts.RawMessage{0x90, 0x3C, 0x7F}))

	select {
	case terr := <-h.engine.Errors():
		require.Equal(t, contracts.ClientToDevice, terr.Direction)
		require.ErrorIs(t, terr, memory.ErrPortClosed)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for transport error")
	}

	// The opposite direction keeps relaying.
	require.NoError(t, h.fromDevice.Send(contracts.RawMessage{0xB0, 0x07, 0x7F}))
	require.Equal(t, contracts.RawMessage{0xB0, 0x07, 0x7F}, receiveOne(t, h.toClient))
}

// recordingSink collects trace records and optionally fails.
type recordingSink struct {
	mu      sync.Mutex
	records []contracts.TraceRecord
	fail    bool
}

func (s *recordingSink) Trace(record contracts.TraceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	if s.fail {
		return errors.New("sink unavailable")
	}
	return nil
}

func (s *recordingSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func TestRelayEmitsTraceRecords(t *testing.T) {
	sink := &recordingSink{}
	h := newHarness(t, sink)
	h.engine.Start(context.Background())
	defer h.engine.Stop()

	require.NoError(t, h.fromClient.Send(contracts.RawMessage{0x90, 0x3C, 0x7F}))
	require.Equal(t, contracts.RawMessage{0x90, 0x3C, 0x7F}, receiveOne(t, h.toDevice))

	require.Eventually(t, func() bool { return sink.len() == 1 }, time.Second, 10*time.Millisecond)
	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Equal(t, contracts.ClientToDevice, sink.records[0].Direction)
	require.Equal(t, contracts.RawMessage{0x90, 0x3C, 0x7F}, sink.records[0].Bytes)
}

func TestRelaySinkFailureDoesNotSuppressForwarding(t *testing.T) {
	sink := &recordingSink{fail: true}
	h := newHarness(t, sink)
	h.engine.Start(context.Background())
	defer h.engine.Stop()

	require.NoError(t, h.fromClient.Send(contracts.RawMessage{0x90, 0x3C, 0x7F}))
	require.NoError(t, h.fromClient.Send(contracts.RawMessage{0x80, 0x3C, 0x00}))

	require.Equal(t, contracts.RawMessage{0x90, 0x3C, 0x7F}, receiveOne(t, h.toDevice))
	require.Equal(t, contracts.RawMessage{0x80, 0x3C, 0x00}, receiveOne(t, h.toDevice))
}

func TestRelayStopIsIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	h.engine.Start(context.Background())
	h.engine.Stop()
	h.engine.Stop()
}
