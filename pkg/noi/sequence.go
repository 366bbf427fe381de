package noi

import (
	"fmt"
	"sync"
	"time"
)

// Sequencer produces the next unique credit-note serial for a store.
type Sequencer interface {
	NextID() (string, error)
}

// Counter is the part of a store a count-based sequencer needs.
type Counter interface {
	Count() (int64, error)
}

// FormatSerial renders the count-based serial scheme ("CN-001").
func FormatSerial(n int64) string {
	return fmt.Sprintf("CN-%03d", n)
}

// SerialSequencer issues count-based serials: next = count of existing
// records + 1. Reading the count and appending the row are two separate
// steps, so two concurrent submissions can observe the same count and derive
// the same serial. Safe only when the read and the append are serialized by
// the store (see CSVStore.Append) or when there is a single writer.
type SerialSequencer struct {
	Counter Counter
}

func (s *SerialSequencer) NextID() (string, error) {
	n, err := s.Counter.Count()
	if err != nil {
		return "", err
	}
	return FormatSerial(n + 1), nil
}

// TimestampSequencer issues timestamp serials ("NOI-20240101120000"),
// one-second resolution, monotonic: a same-second collision bumps the clock
// reading forward so consecutive serials always differ and sort by issue
// order.
type TimestampSequencer struct {
	Now func() time.Time // defaults to time.Now

	mu   sync.Mutex
	last time.Time
}

const timestampSerialLayout = "20060102150405"

func (s *TimestampSequencer) NextID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	now = now.Truncate(time.Second)
	if !now.After(s.last) {
		now = s.last.Add(time.Second)
	}
	s.last = now
	return "NOI-" + now.Format(timestampSerialLayout), nil
}
