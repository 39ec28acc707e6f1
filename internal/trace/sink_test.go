package trace

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leandrodaf/midibridge/sdk/contracts"
)

func TestFormatWithSummary(t *testing.T) {
	record := contracts.TraceRecord{
		Direction: contracts.ClientToDevice,
		Timestamp: time.Now(),
		Bytes:     contracts.RawMessage{0x90, 0x3C, 0x7F},
		Summary:   "Note On ch=1 note=60 vel=127",
	}
	require.Equal(t, "[client->device] 90 3C 7F (Note On ch=1 note=60 vel=127)", Format(record))
}

func TestFormatWithoutSummary(t *testing.T) {
	record := contracts.TraceRecord{
		Direction: contracts.DeviceToClient,
		Bytes:     contracts.RawMessage{0xF0, 0x7D, 0x01},
	}
	require.Equal(t, "[device->client] F0 7D 01", Format(record))
}

func TestSummarizeSysExCommands(t *testing.T) {
	cases := []struct {
		msg  contracts.RawMessage
		want string
	}{
		{contracts.RawMessage{0xF0, 0x7E, 0x7F, 0x06, 0x01, 0xF7}, "IdentityRequest"},
		{contracts.RawMessage{0xF0, 0x7D, 0x01, 0x01, 0x02, 0x40, 0xF7}, "SetParameter id=2 value=64"},
		{contracts.RawMessage{0xF0, 0x7D, 0x01, 0x02, 0x02, 0xF7}, "GetParameter id=2"},
		{contracts.RawMessage{0xF0, 0x7D, 0x01, 0x02, 0x02, 0x40, 0xF7}, "GetParameter id=2 value=64"},
		{contracts.RawMessage{0xF0, 0x7D, 0x01, 0x03, 0x01, 0xF7}, "TriggerAction id=1"},
		{contracts.RawMessage{0xF0, 0x7D, 0x01, 0x7F, 0x02, 0x01, 0xF7}, "ErrorReport code=2 command=0x01"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Summarize(tc.msg))
	}
}

func TestSummarizeShortMessages(t *testing.T) {
	require.Equal(t, "Note On ch=1 note=60 vel=127", Summarize(contracts.RawMessage{0x90, 0x3C, 0x7F}))
	require.Equal(t, "Note Off ch=3 note=60 vel=0", Summarize(contracts.RawMessage{0x82, 0x3C, 0x00}))
	require.Equal(t, "Control Change ch=1 cc=7 value=127", Summarize(contracts.RawMessage{0xB0, 0x07, 0x7F}))
}

func TestSummarizeMissingStatusByteIsEmpty(t *testing.T) {
	// Garbage chunks get their bytes traced, never a fabricated summary.
	require.Empty(t, Summarize(contracts.RawMessage{0x45}))
	require.Empty(t, Summarize(contracts.RawMessage{0x3C, 0x7F}))
}

func TestSummarizeUndecodableSysExIsEmpty(t *testing.T) {
	// Decode failure must drop the summary, never the bytes.
	require.Empty(t, Summarize(contracts.RawMessage{0xF0, 0x7D, 0x01}))
	require.Empty(t, Summarize(contracts.RawMessage{0xF0, 0x43, 0x01, 0x01, 0x02, 0xF7}))
}

func TestSinkWritesOneLinePerRecord(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf)

	require.NoError(t, sink.Trace(Record(contracts.ClientToDevice, contracts.RawMessage{0x90, 0x3C, 0x7F})))
	require.Equal(t, "[client->device] 90 3C 7F (Note On ch=1 note=60 vel=127)\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("sink unavailable")
}

func TestSinkEmissionFailureIsAdvisory(t *testing.T) {
	sink := NewSink(failingWriter{})
	err := sink.Trace(Record(contracts.ClientToDevice, contracts.RawMessage{0x90, 0x3C, 0x7F}))
	require.Error(t, err)
}
