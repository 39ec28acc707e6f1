//go:build windows
// +build windows

package winmm

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unsafe"

	"github.com/leandrodaf/midibridge/sdk/contracts"
	"golang.org/x/sys/windows"
)

// Type definitions for MIDI handles
type (
	HMIDIIN  windows.Handle
	HMIDIOUT windows.Handle
)

// Constants for callback flags
const (
	CALLBACK_FUNCTION = 0x00030000 // Indicates that the callback is a function
	MIDI_IO_STATUS    = 0x00000020 // MIDI input/output status
)

// Constants for MIDI input messages
const (
	MIM_OPEN      = 0x3C1 // MIDI device opened
	MIM_CLOSE     = 0x3C2 // MIDI device closed
	MIM_DATA      = 0x3C3 // Short MIDI message received
	MIM_LONGDATA  = 0x3C4 // SysEx buffer filled
	MIM_ERROR     = 0x3C5 // MIDI error
	MIM_LONGERROR = 0x3C6 // Long MIDI error
	MIM_MOREDATA  = 0x3CC // More MIDI data available
)

// MIDIHDR flags
const (
	MHDR_DONE     = 0x00000001
	MHDR_PREPARED = 0x00000002
)

const (
	// sysExBufferSize is the size of each SysEx receive buffer handed to winmm.
	sysExBufferSize = 1024
	// sysExBufferCount is how many receive buffers stay queued with the driver.
	sysExBufferCount = 4
	// inputBuffer bounds the delivery channel fed from the driver callback.
	inputBuffer = 64
)

var (
	ErrPortNotFound  = errors.New("MIDI port not found")
	ErrPortClosed    = errors.New("MIDI port closed")
	ErrNoMIDIDevices = errors.New("no MIDI devices found")
)

// Struct representing MIDI input device capabilities
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

// Struct representing MIDI output device capabilities
type midiOutCaps struct {
	wMid            uint16
	wPid            uint16
	vDriverVersion  uint32
	szPname         [32]uint16
	wTechnology     uint16
	wVoices         uint16
	wNotes          uint16
	wChannelMask    uint16
	dwSupport       uint32
}

// midiHdr mirrors the winmm MIDIHDR structure.
type midiHdr struct {
	lpData          uintptr
	dwBufferLength  uint32
	dwBytesRecorded uint32
	dwUser          uintptr
	dwFlags         uint32
	lpNext          uintptr
	reserved        uintptr
	dwOffset        uint32
	dwReserved      [8]uintptr
}

// Load the winmm.dll library and required functions
var (
	winmm                      = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs       = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps       = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen             = winmm.NewProc("midiInOpen")
	procMidiInStart            = winmm.NewProc("midiInStart")
	procMidiInStop             = winmm.NewProc("midiInStop")
	procMidiInClose            = winmm.NewProc("midiInClose")
	procMidiInPrepareHeader    = winmm.NewProc("midiInPrepareHeader")
	procMidiInUnprepareHeader  = winmm.NewProc("midiInUnprepareHeader")
	procMidiInAddBuffer        = winmm.NewProc("midiInAddBuffer")
	procMidiOutGetNumDevs      = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps      = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen            = winmm.NewProc("midiOutOpen")
	procMidiOutClose           = winmm.NewProc("midiOutClose")
	procMidiOutShortMsg        = winmm.NewProc("midiOutShortMsg")
	procMidiOutLongMsg         = winmm.NewProc("midiOutLongMsg")
	procMidiOutPrepareHeader   = winmm.NewProc("midiOutPrepareHeader")
	procMidiOutUnprepareHeader = winmm.NewProc("midiOutUnprepareHeader")
)

// Transport implements contracts.Transport over winmm.
type Transport struct {
	logger contracts.Logger
	mu     sync.Mutex
	closed bool
	inputs []*inputPort
	outs   []*outputPort
}

// New creates a winmm-backed transport.
func New(logger contracts.Logger) (*Transport, error) {
	logger.Info("MIDI transport created for Windows")
	return &Transport{logger: logger}, nil
}

// Ports lists the available MIDI input and output devices.
func (t *Transport) Ports() ([]contracts.PortInfo, error) {
	var infos []contracts.PortInfo

	r0, _, _ := procMidiInGetNumDevs.Call()
	for i := uint32(0); i < uint32(r0); i++ {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			t.logger.Warn(fmt.Sprintf("Failed to get information for MIDI input %d", i))
			continue
		}
		name := windows.UTF16ToString(caps.szPname[:])
		infos = append(infos, contracts.PortInfo{
			Name:         name,
			EntityName:   name,
			Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid),
		})
	}

	r0, _, _ = procMidiOutGetNumDevs.Call()
	for i := uint32(0); i < uint32(r0); i++ {
		var caps midiOutCaps
		r1, _, _ := procMidiOutGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			t.logger.Warn(fmt.Sprintf("Failed to get information for MIDI output %d", i))
			continue
		}
		name := windows.UTF16ToString(caps.szPname[:])
		infos = append(infos, contracts.PortInfo{
			Name:         name,
			EntityName:   name,
			Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid),
		})
	}

	if len(infos) == 0 {
		t.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}
	return infos, nil
}

// OpenInput opens the first input device whose name contains name and starts
// capture with SysEx buffers queued.
func (t *Transport) OpenInput(name string) (contracts.InputPort, error) {
	deviceID, err := findInputDevice(name)
	if err != nil {
		return nil, err
	}

	in := &inputPort{
		name:     name,
		logger:   t.logger,
		messages: make(chan contracts.RawMessage, inputBuffer),
	}

	callback := windows.NewCallback(midiInCallback)
	r1, _, callErr := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&in.handle)),
		uintptr(deviceID),
		callback,
		uintptr(unsafe.Pointer(in)),
		uintptr(CALLBACK_FUNCTION|MIDI_IO_STATUS),
	)
	if r1 != 0 {
		t.logger.Error(fmt.Sprintf("Failed to open MIDI input %d: %v", deviceID, callErr))
		return nil, fmt.Errorf("failed to open MIDI input %d: %v", deviceID, callErr)
	}

	if err := in.queueSysExBuffers(); err != nil {
		procMidiInClose.Call(uintptr(in.handle))
		return nil, err
	}

	r1, _, callErr = procMidiInStart.Call(uintptr(in.handle))
	if r1 != 0 {
		procMidiInClose.Call(uintptr(in.handle))
		return nil, fmt.Errorf("failed to start MIDI capture: %v", callErr)
	}

	t.track(in, nil)
	t.logger.Info(fmt.Sprintf("MIDI input %d connected", deviceID))
	return in, nil
}

// OpenOutput opens the first output device whose name contains name.
func (t *Transport) OpenOutput(name string) (contracts.OutputPort, error) {
	deviceID, err := findOutputDevice(name)
	if err != nil {
		return nil, err
	}

	out := &outputPort{name: name, logger: t.logger}
	r1, _, callErr := procMidiOutOpen.Call(
		uintptr(unsafe.Pointer(&out.handle)),
		uintptr(deviceID),
		0,
		0,
		0,
	)
	if r1 != 0 {
		t.logger.Error(fmt.Sprintf("Failed to open MIDI output %d: %v", deviceID, callErr))
		return nil, fmt.Errorf("failed to open MIDI output %d: %v", deviceID, callErr)
	}

	t.track(nil, out)
	t.logger.Info(fmt.Sprintf("MIDI output %d connected", deviceID))
	return out, nil
}

// Close releases every open port.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	for _, in := range t.inputs {
		in.Close()
	}
	for _, out := range t.outs {
		out.Close()
	}
	return nil
}

func (t *Transport) track(in *inputPort, out *outputPort) {
	t.mu.Lock()
	if in != nil {
		t.inputs = append(t.inputs, in)
	}
	if out != nil {
		t.outs = append(t.outs, out)
	}
	t.mu.Unlock()
}

func findInputDevice(name string) (uint32, error) {
	r0, _, _ := procMidiInGetNumDevs.Call()
	for i := uint32(0); i < uint32(r0); i++ {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			continue
		}
		if strings.Contains(windows.UTF16ToString(caps.szPname[:]), name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrPortNotFound, name)
}

func findOutputDevice(name string) (uint32, error) {
	r0, _, _ := procMidiOutGetNumDevs.Call()
	for i := uint32(0); i < uint32(r0); i++ {
		var caps midiOutCaps
		r1, _, _ := procMidiOutGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			continue
		}
		if strings.Contains(windows.UTF16ToString(caps.szPname[:]), name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrPortNotFound, name)
}

// inputPort adapts one winmm input device to contracts.InputPort.
type inputPort struct {
	name     string
	logger   contracts.Logger
	handle   HMIDIIN
	messages chan contracts.RawMessage

	headers [sysExBufferCount]*midiHdr
	buffers [sysExBufferCount][]byte

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// queueSysExBuffers prepares and queues the receive buffers winmm fills with
// incoming SysEx data.
func (in *inputPort) queueSysExBuffers() error {
	for i := 0; i < sysExBufferCount; i++ {
		in.buffers[i] = make([]byte, sysExBufferSize)
		hdr := &midiHdr{
			lpData:         uintptr(unsafe.Pointer(&in.buffers[i][0])),
			dwBufferLength: sysExBufferSize,
		}
		in.headers[i] = hdr

		r1, _, err := procMidiInPrepareHeader.Call(
			uintptr(in.handle),
			uintptr(unsafe.Pointer(hdr)),
			unsafe.Sizeof(*hdr),
		)
		if r1 != 0 {
			return fmt.Errorf("failed to prepare SysEx buffer: %v", err)
		}
		r1, _, err = procMidiInAddBuffer.Call(
			uintptr(in.handle),
			uintptr(unsafe.Pointer(hdr)),
			unsafe.Sizeof(*hdr),
		)
		if r1 != 0 {
			return fmt.Errorf("failed to queue SysEx buffer: %v", err)
		}
	}
	return nil
}

// midiInCallback processes incoming MIDI messages on the driver thread.
func midiInCallback(hMidiIn uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	in := (*inputPort)(unsafe.Pointer(dwInstance))

	switch wMsg {
	case MIM_OPEN:
		in.logger.Info("MIDI device opened")
	case MIM_CLOSE:
		in.logger.Info("MIDI device closed")
	case MIM_DATA:
		status := byte(dwParam1 & 0xFF)
		data1 := byte((dwParam1 >> 8) & 0xFF)
		data2 := byte((dwParam1 >> 16) & 0xFF)
		in.deliver(shortMessage(status, data1, data2))
	case MIM_LONGDATA:
		hdr := (*midiHdr)(unsafe.Pointer(dwParam1))
		if hdr.dwBytesRecorded > 0 {
			data := unsafe.Slice((*byte)(unsafe.Pointer(hdr.lpData)), hdr.dwBytesRecorded)
			in.deliver(contracts.RawMessage(data).Clone())
		}
		// Requeue the buffer so capture continues.
		hdr.dwBytesRecorded = 0
		if !in.isClosed() {
			procMidiInAddBuffer.Call(hMidiIn, dwParam1, unsafe.Sizeof(*hdr))
		}
	case MIM_ERROR, MIM_LONGERROR:
		in.logger.Error(fmt.Sprintf("MIDI error: msg=0x%X", wMsg))
	case MIM_MOREDATA:
		in.logger.Debug("Received MIM_MOREDATA message; ignored")
	default:
		in.logger.Warn(fmt.Sprintf("Unknown MIDI message: 0x%X", wMsg))
	}

	return 0
}

// shortMessage trims a packed winmm dword to the message's true length.
func shortMessage(status, data1, data2 byte) contracts.RawMessage {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return contracts.RawMessage{status, data1}
	default:
		return contracts.RawMessage{status, data1, data2}
	}
}

func (in *inputPort) deliver(msg contracts.RawMessage) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return
	}
	select {
	case in.messages <- msg:
	default:
		in.logger.Warn("MIDI input channel is full; message discarded")
	}
}

func (in *inputPort) isClosed() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.closed
}

func (in *inputPort) Name() string { return in.name }

func (in *inputPort) Messages() <-chan contracts.RawMessage { return in.messages }

func (in *inputPort) Close() error {
	in.closeOnce.Do(func() {
		procMidiInStop.Call(uintptr(in.handle))
		for _, hdr := range in.headers {
			if hdr != nil {
				procMidiInUnprepareHeader.Call(
					uintptr(in.handle),
					uintptr(unsafe.Pointer(hdr)),
					unsafe.Sizeof(*hdr),
				)
			}
		}
		procMidiInClose.Call(uintptr(in.handle))
		in.mu.Lock()
		in.closed = true
		close(in.messages)
		in.mu.Unlock()
	})
	return nil
}

// outputPort adapts one winmm output device to contracts.OutputPort.
type outputPort struct {
	name   string
	logger contracts.Logger
	handle HMIDIOUT
	mu     sync.Mutex
	closed bool
}

func (o *outputPort) Name() string { return o.name }

// Send transmits a short message via midiOutShortMsg and SysEx via
// midiOutLongMsg with a prepared header.
func (o *outputPort) Send(msg contracts.RawMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return fmt.Errorf("%w: %s", ErrPortClosed, o.name)
	}
	if len(msg) == 0 {
		return nil
	}

	if !msg.IsSysEx() && len(msg) <= 3 {
		var packed uint32
		for i := len(msg) - 1; i >= 0; i-- {
			packed = packed<<8 | uint32(msg[i])
		}
		r1, _, err := procMidiOutShortMsg.Call(uintptr(o.handle), uintptr(packed))
		if r1 != 0 {
			return fmt.Errorf("midiOutShortMsg failed: %v", err)
		}
		return nil
	}

	return o.sendLong(msg)
}

func (o *outputPort) sendLong(msg contracts.RawMessage) error {
	buf := msg.Clone()
	hdr := midiHdr{
		lpData:         uintptr(unsafe.Pointer(&buf[0])),
		dwBufferLength: uint32(len(buf)),
	}

	r1, _, err := procMidiOutPrepareHeader.Call(
		uintptr(o.handle),
		uintptr(unsafe.Pointer(&hdr)),
		unsafe.Sizeof(hdr),
	)
	if r1 != 0 {
		return fmt.Errorf("midiOutPrepareHeader failed: %v", err)
	}

	r1, _, err = procMidiOutLongMsg.Call(
		uintptr(o.handle),
		uintptr(unsafe.Pointer(&hdr)),
		unsafe.Sizeof(hdr),
	)
	if r1 != 0 {
		procMidiOutUnprepareHeader.Call(uintptr(o.handle), uintptr(unsafe.Pointer(&hdr)), unsafe.Sizeof(hdr))
		return fmt.Errorf("midiOutLongMsg failed: %v", err)
	}

	// The driver owns the buffer until it marks the header done.
	for hdr.dwFlags&MHDR_DONE == 0 {
		time.Sleep(time.Millisecond)
	}

	r1, _, err = procMidiOutUnprepareHeader.Call(
		uintptr(o.handle),
		uintptr(unsafe.Pointer(&hdr)),
		unsafe.Sizeof(hdr),
	)
	if r1 != 0 {
		return fmt.Errorf("midiOutUnprepareHeader failed: %v", err)
	}
	return nil
}

func (o *outputPort) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	procMidiOutClose.Call(uintptr(o.handle))
	return nil
}
