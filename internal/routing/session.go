package routing

import (
	"context"
	"sync"

	"cityroute/internal/models"
)

// Session serializes plan requests from one logical client. Each request
// gets a sequence number; starting a new request cancels the one in flight
// and only the latest request may return a result.
type Session struct {
	planner Planner

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewSession wraps a planner with last-request-wins semantics
func NewSession(planner Planner) *Session {
	return &Session{planner: planner}
}

// Plan runs req and returns its sequence number. A request overtaken by a
// newer one returns ErrSuperseded and no itinerary.
func (s *Session) Plan(ctx context.Context, req *PlanRequest) (*models.Itinerary, uint64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.seq++
	seq := s.seq
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	it, err := s.planner.Plan(ctx, req)

	s.mu.Lock()
	latest := s.seq == seq
	if latest {
		s.cancel = nil
	}
	s.mu.Unlock()

	if !latest {
		return nil, seq, ErrSuperseded
	}
	return it, seq, err
}

// Latest returns the sequence number of the most recent request
func (s *Session) Latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// IsLatest reports whether seq is still the newest request
func (s *Session) IsLatest(seq uint64) bool {
	return s.Latest() == seq
}
