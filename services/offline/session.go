package offline

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/meghashyamc/apidoxsearch/logger"
	"github.com/meghashyamc/apidoxsearch/query"
)

type SurfaceType string

const (
	SurfaceDispose SurfaceType = "dispose"
	SurfaceShow    SurfaceType = "show"
)

// Anchor locates the search input the popover is attached to, in pixels.
type Anchor struct {
	Top       float64 `json:"top"`
	ScrollTop float64 `json:"scroll_top"`
}

// Surface is one update of the result popover.
type Surface struct {
	Type    SurfaceType
	Seq     uint64
	Query   string
	Anchor  Anchor
	Results []Result
}

// Querier is the part of Index a Session needs.
type Querier interface {
	Ready() <-chan struct{}
	Query(ctx context.Context, q string) ([]Result, error)
}

type pendingQuery struct {
	seq    uint64
	query  string
	anchor Anchor
}

// Session holds the search state of one page session. Every submission gets the
// next sequence number and only the latest one is ever shown. emit is called
// with the session lock held and must not call back into the session.
type Session struct {
	ID string

	logger logger.Logger
	index  Querier
	emit   func(Surface)

	mu      sync.Mutex
	seq     uint64
	pending *pendingQuery
	waiting bool
}

func NewSession(logger logger.Logger, index Querier, emit func(Surface)) *Session {
	return &Session{
		ID:     uuid.New().String(),
		logger: logger,
		index:  index,
		emit:   emit,
	}
}

// Submit disposes the current surface and searches for q. A blank q only
// disposes. Before the index is ready q is parked, replacing any earlier parked
// query, and run once when the index becomes ready.
func (s *Session) Submit(ctx context.Context, q string, anchor Anchor) error {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.emit(Surface{Type: SurfaceDispose, Seq: seq})

	if query.Blank(q) {
		s.pending = nil
		s.mu.Unlock()
		return nil
	}

	select {
	case <-s.index.Ready():
		s.mu.Unlock()
		return s.run(ctx, seq, q, anchor)
	default:
	}

	s.pending = &pendingQuery{seq: seq, query: q, anchor: anchor}
	startWaiter := !s.waiting
	s.waiting = true
	s.mu.Unlock()

	s.logger.Debug("search index not ready, parking query", "session", s.ID, "seq", seq)
	if startWaiter {
		go s.awaitReady(ctx)
	}

	return nil
}

// Close submits the empty query.
func (s *Session) Close(ctx context.Context) error {
	return s.Submit(ctx, "", Anchor{})
}

func (s *Session) run(ctx context.Context, seq uint64, q string, anchor Anchor) error {
	results, err := s.index.Query(ctx, q)
	if err != nil {
		s.logger.Error("session query failed", "session", s.ID, "seq", seq, "err", err.Error())
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		s.logger.Debug("dropping stale results", "session", s.ID, "seq", seq, "latest", s.seq)
		return nil
	}

	s.emit(Surface{Type: SurfaceShow, Seq: seq, Query: q, Anchor: anchor, Results: results})
	return nil
}

func (s *Session) awaitReady(ctx context.Context) {
	select {
	case <-s.index.Ready():
	case <-ctx.Done():
		s.mu.Lock()
		s.pending = nil
		s.waiting = false
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.waiting = false
	s.mu.Unlock()

	if pending == nil {
		return
	}

	// errors are logged by run
	_ = s.run(ctx, pending.seq, pending.query, pending.anchor)
}
