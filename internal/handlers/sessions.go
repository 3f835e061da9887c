package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"cityroute/internal/models"
	"cityroute/internal/render"
	"cityroute/internal/routing"
)

// SessionHeader carries the client session id on requests and responses
const SessionHeader = "X-Session-ID"

// ClientSession is one logical client: its plan sequence and its drawn map
type ClientSession struct {
	ID string

	planner *routing.Session
	surface *render.GeoJSONSurface
	view    *render.Session

	mu       sync.Mutex // guards render state and lastSeen
	lastSeen time.Time
}

// PlanResult is a completed plan together with what was drawn for it
type PlanResult struct {
	Sequence  uint64
	Itinerary *models.Itinerary
	Summaries []render.LegSummary
	Render    *geojson.FeatureCollection
}

// Plan runs req with last-request-wins semantics and renders the result.
// A request overtaken before it could render returns routing.ErrSuperseded.
func (c *ClientSession) Plan(ctx context.Context, req *routing.PlanRequest) (*PlanResult, error) {
	c.touch()

	it, seq, err := c.planner.Plan(ctx, req)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.planner.IsLatest(seq) {
		return nil, routing.ErrSuperseded
	}
	summaries := c.view.Render(it, req.Origin, req.Destination, req.DestinationLabel)
	return &PlanResult{
		Sequence:  seq,
		Itinerary: it,
		Summaries: summaries,
		Render:    c.surface.Collection(),
	}, nil
}

func (c *ClientSession) touch() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

func (c *ClientSession) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// SessionStore manages client sessions in memory
type SessionStore struct {
	planner  routing.Planner
	logger   *zap.Logger
	sessions map[string]*ClientSession
	mu       sync.RWMutex
}

// NewSessionStore creates a session store whose sessions share planner
func NewSessionStore(planner routing.Planner, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		planner:  planner,
		logger:   logger.Named("session"),
		sessions: make(map[string]*ClientSession),
	}
}

// GetOrCreate returns the session for id, creating it when id is empty or
// unknown. New sessions get a fresh id when none was supplied.
func (s *SessionStore) GetOrCreate(id string) *ClientSession {
	if id != "" {
		if existing := s.Get(id); existing != nil {
			return existing
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	} else if existing := s.sessions[id]; existing != nil {
		return existing
	}

	surface := render.NewGeoJSONSurface()
	session := &ClientSession{
		ID:       id,
		planner:  routing.NewSession(s.planner),
		surface:  surface,
		view:     render.NewSession(surface),
		lastSeen: time.Now(),
	}
	s.sessions[id] = session
	s.logger.Debug("created client session", zap.String("id", id))
	return session
}

func (s *SessionStore) Get(id string) *ClientSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// Delete removes a session, reporting whether it existed
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	s.logger.Debug("deleted client session", zap.String("id", id))
	return true
}

// Len returns the number of live sessions
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Prune drops sessions idle for longer than maxIdle and returns how many
// were removed
func (s *SessionStore) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.sessions {
		if session.idleSince().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("pruned idle client sessions", zap.Int("removed", removed), zap.Int("remaining", len(s.sessions)))
	}
	return removed
}
