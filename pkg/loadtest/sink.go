package loadtest

import (
	"sync"
)

// Sink collects the records of a single run. Append may be called from any number of goroutines
type Sink struct {
	mu      sync.Mutex
	records []Record
}

// NewSink creates a sink with room for hint records
func NewSink(hint int) *Sink {
	if hint < 0 {
		hint = 0
	}
	return &Sink{records: make([]Record, 0, hint)}
}

func (s *Sink) Append(r Record) {
	s.mu.Lock()
	s.records = append(s.records, r)
	s.mu.Unlock()
}

func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Records returns a copy of the records in arrival order
func (s *Sink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]Record, len(s.records))
	copy(ret, s.records)
	return ret
}
