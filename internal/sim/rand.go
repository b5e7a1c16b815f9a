package sim

import (
	mathrand "math/rand"
	"sync"
)

// Source yields uniform floats in [0, 1). All stochastic outcomes (vacancy
// draws, flip-sale draws, phase changes) pull from one injected Source so
// tests can pin the sequence.
type Source interface {
	Float64() float64
}

type lockedSource struct {
	mu   sync.Mutex
	rand *mathrand.Rand
}

// NewSource returns a mutex-guarded pseudo-random Source.
func NewSource(seed int64) Source {
	return &lockedSource{rand: mathrand.New(mathrand.NewSource(seed))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Float64()
}

// SequenceSource replays a fixed list of values, cycling when exhausted.
// Test helper: a sequence of {0} makes every draw succeed, {0.999} makes
// every draw fail.
type SequenceSource struct {
	mu     sync.Mutex
	values []float64
	next   int
}

func NewSequenceSource(values ...float64) *SequenceSource {
	if len(values) == 0 {
		values = []float64{0.5}
	}
	return &SequenceSource{values: values}
}

func (s *SequenceSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}
