package dispatch

import (
	"fmt"
	"sync"
)

// MaxParameterID is the highest addressable parameter slot; parameter IDs and
// values are both 7-bit per the wire format.
const MaxParameterID = 0x7F

// DefaultParameterValue is what GetParameter returns for a slot that has
// never been written. A fresh store starts with every slot at this value.
const DefaultParameterValue = 0x00

// ParameterStore holds the device's 128 parameter slots. It is owned by one
// device instance and passed explicitly into its dispatcher; the mutex
// serializes access because transport backends deliver messages on their own
// callback threads.
type ParameterStore struct {
	mu     sync.Mutex
	values [MaxParameterID + 1]byte
}

// NewParameterStore returns a store with all slots at DefaultParameterValue.
func NewParameterStore() *ParameterStore {
	return &ParameterStore{}
}

// Set writes a slot. Both ID and value must be 7-bit.
func (s *ParameterStore) Set(id, value byte) error {
	if id > MaxParameterID {
		return fmt.Errorf("parameter id 0x%02X out of range", id)
	}
	if value > MaxParameterID {
		return fmt.Errorf("parameter value 0x%02X out of range", value)
	}
	s.mu.Lock()
	s.values[id] = value
	s.mu.Unlock()
	return nil
}

// Get reads a slot, returning DefaultParameterValue for never-written IDs.
func (s *ParameterStore) Get(id byte) (byte, error) {
	if id > MaxParameterID {
		return 0, fmt.Errorf("parameter id 0x%02X out of range", id)
	}
	s.mu.Lock()
	v := s.values[id]
	s.mu.Unlock()
	return v, nil
}
