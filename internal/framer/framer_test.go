package framer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifySysEx(t *testing.T) {
	chunk := []byte{0xF0, 0x7D, 0x01, 0x03, 0x01, 0xF7}
	msg, err := Classify(chunk)
	require.NoError(t, err)
	require.Equal(t, chunk, []byte(msg))
}

func TestClassifyShortMessages(t *testing.T) {
	for _, chunk := range [][]byte{
		{0x90, 0x3C, 0x7F}, // Note On
		{0x80, 0x3C, 0x00}, // Note Off
		{0xB0, 0x07, 0x7F}, // Control Change
		{0xC0, 0x05},       // Program Change
		{0xF8},             // Clock
	} {
		msg, err := Classify(chunk)
		require.NoError(t, err, "chunk % X", chunk)
		require.Equal(t, chunk, []byte(msg))
	}
}

func TestClassifyRejectsUnterminatedSysEx(t *testing.T) {
	_, err := Classify([]byte{0xF0, 0x7D, 0x01})
	require.ErrorIs(t, err, ErrUnterminatedSysEx)
}

func TestClassifyRejectsStatusByteInsideSysEx(t *testing.T) {
	_, err := Classify([]byte{0xF0, 0x7D, 0x91, 0x01, 0xF7})
	require.ErrorIs(t, err, ErrInteriorStatus)
}

func TestClassifyRejectsMissingStatus(t *testing.T) {
	_, err := Classify([]byte{0x3C, 0x7F})
	require.ErrorIs(t, err, ErrMissingStatus)
}

func TestClassifyRejectsOverlongShortMessage(t *testing.T) {
	_, err := Classify([]byte{0x90, 0x3C, 0x7F, 0x00})
	require.ErrorIs(t, err, ErrShortTooLong)
}

func TestClassifyRejectsStatusByteAsData(t *testing.T) {
	_, err := Classify([]byte{0x90, 0x3C, 0x80})
	require.ErrorIs(t, err, ErrDataByteRange)
}

func TestClassifyRejectsEmptyChunk(t *testing.T) {
	_, err := Classify(nil)
	require.ErrorIs(t, err, ErrEmptyChunk)
}

func TestDelimitAcceptsHighBytesInSysExBody(t *testing.T) {
	// A well-delimited command whose payload violates the data-byte range
	// passes the delimiter gate; rejecting the payload is the dispatcher's job.
	chunk := []byte{0xF0, 0x7D, 0x01, 0x01, 0x7F, 0x80, 0xF7}
	msg, err := Delimit(chunk)
	require.NoError(t, err)
	require.Equal(t, chunk, []byte(msg))
}

func TestDelimitRejectsUnterminatedSysEx(t *testing.T) {
	_, err := Delimit([]byte{0xF0, 0x7D, 0x01})
	require.ErrorIs(t, err, ErrUnterminatedSysEx)
}

func TestDelimitRejectsMissingStatus(t *testing.T) {
	_, err := Delimit([]byte{0x3C, 0x7F})
	require.ErrorIs(t, err, ErrMissingStatus)
}

func TestDelimitRejectsEmptyChunk(t *testing.T) {
	_, err := Delimit(nil)
	require.ErrorIs(t, err, ErrEmptyChunk)
}
