// Package trace formats per-message observation records. Formatting and
// emission are best-effort: a decode failure drops the summary, never the
// bytes, and a write failure is reported to the caller as a warning, never a
// fault that interrupts relaying or dispatch.
package trace

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/leandrodaf/midibridge/internal/sysex"
	"github.com/leandrodaf/midibridge/sdk/contracts"
)

// Sink writes one formatted line per trace record to an io.Writer.
type Sink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewSink returns a sink writing to out.
func NewSink(out io.Writer) *Sink {
	return &Sink{out: out}
}

// Trace emits one formatted line. The error is advisory; callers log it as a
// warning and carry on.
func (s *Sink) Trace(record contracts.TraceRecord) error {
	line := Format(record)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.out, line+"\n"); err != nil {
		return fmt.Errorf("trace: emit failed: %w", err)
	}
	return nil
}

// Format renders a record as `[<direction>] <hex bytes> (<summary>)`, with
// the parenthesized segment omitted when no summary is available.
func Format(record contracts.TraceRecord) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(record.Direction.String())
	b.WriteString("] ")
	b.WriteString(Hex(record.Bytes))
	if record.Summary != "" {
		b.WriteString(" (")
		b.WriteString(record.Summary)
		b.WriteString(")")
	}
	return b.String()
}

// Hex renders message bytes as uppercase hex pairs separated by spaces.
func Hex(msg contracts.RawMessage) string {
	parts := make([]string, len(msg))
	for i, v := range msg {
		parts[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, " ")
}

// Record builds a TraceRecord for a message observed now, with a best-effort
// decoded summary.
func Record(direction contracts.Direction, msg contracts.RawMessage) contracts.TraceRecord {
	return contracts.TraceRecord{
		Direction: direction,
		Timestamp: time.Now().UTC(),
		Bytes:     msg,
		Summary:   Summarize(msg),
	}
}

// Summarize produces a human-readable description of a message. It returns
// an empty string whenever the message cannot be decoded; a trace line then
// carries the raw bytes alone.
func Summarize(msg contracts.RawMessage) string {
	if len(msg) == 0 {
		return ""
	}
	if msg.IsSysEx() {
		cmd, err := sysex.Decode(msg)
		if err != nil {
			return ""
		}
		return summarizeSysEx(cmd)
	}
	return summarizeShort(msg)
}

func summarizeSysEx(cmd sysex.Command) string {
	kind := sysex.Classify(cmd)
	switch kind {
	case sysex.KindSetParameter:
		if len(cmd.Payload) == 2 {
			return fmt.Sprintf("SetParameter id=%d value=%d", cmd.Payload[0], cmd.Payload[1])
		}
	case sysex.KindGetParameter:
		switch len(cmd.Payload) {
		case 1:
			return fmt.Sprintf("GetParameter id=%d", cmd.Payload[0])
		case 2:
			return fmt.Sprintf("GetParameter id=%d value=%d", cmd.Payload[0], cmd.Payload[1])
		}
	case sysex.KindTriggerAction:
		if len(cmd.Payload) == 1 {
			return fmt.Sprintf("TriggerAction id=%d", cmd.Payload[0])
		}
	case sysex.KindErrorReport:
		if len(cmd.Payload) == 2 {
			return fmt.Sprintf("ErrorReport code=%d command=0x%02X", cmd.Payload[0], cmd.Payload[1])
		}
	}
	return kind.String()
}

func summarizeShort(msg contracts.RawMessage) string {
	status := msg[0]
	if status < 0x80 {
		// Not a status byte; nothing trustworthy to say about the chunk.
		return ""
	}
	if status >= 0xF0 {
		return "System Message"
	}
	channel := status&0x0F + 1
	switch status & 0xF0 {
	case 0x90:
		if len(msg) == 3 {
			return fmt.Sprintf("Note On ch=%d note=%d vel=%d", channel, msg[1], msg[2])
		}
	case 0x80:
		if len(msg) == 3 {
			return fmt.Sprintf("Note Off ch=%d note=%d vel=%d", channel, msg[1], msg[2])
		}
	case 0xB0:
		if len(msg) == 3 {
			return fmt.Sprintf("Control Change ch=%d cc=%d value=%d", channel, msg[1], msg[2])
		}
	}
	return fmt.Sprintf("Channel Message ch=%d", channel)
}
