// Package search resolves partial skill-name input against the remote
// catalog with a trailing-edge debounce: a query fires only after the input
// has been quiet for the configured delay, and every new keystroke cancels
// whatever was still pending.
package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hmcoe/skillprofile/pkg/models"
)

// ErrSuperseded means a newer input arrived while this query was waiting or
// in flight; its results must not be displayed.
var ErrSuperseded = errors.New("search superseded by newer input")

// QueryFunc performs the actual catalog lookup.
type QueryFunc func(ctx context.Context, q string) ([]models.SkillRef, error)

// Searcher serializes one input stream. Supersession uses monotonically
// increasing sequence numbers rather than timer cancellation alone, so a
// slow early response can never overwrite a newer one (last write wins).
type Searcher struct {
	fn    QueryFunc
	delay time.Duration

	mu      sync.Mutex
	seq     uint64
	cancel  chan struct{} // closed to release the previous waiter
	results []models.SkillRef
}

func New(fn QueryFunc, delay time.Duration) *Searcher {
	return &Searcher{fn: fn, delay: delay}
}

// Resolve registers the latest input and, after the debounce window, runs
// the query. Empty or whitespace-only input clears results without
// querying. A transport failure clears results silently and reports no
// error; the widget treats it as "no matches". Superseded calls return
// ErrSuperseded.
func (s *Searcher) Resolve(ctx context.Context, q string) ([]models.SkillRef, error) {
	s.mu.Lock()
	if s.cancel != nil {
		close(s.cancel) // cancel any pending scheduled query
	}
	s.seq++
	my := s.seq

	if strings.TrimSpace(q) == "" {
		s.cancel = nil
		s.results = nil
		s.mu.Unlock()
		return nil, nil
	}

	superseded := make(chan struct{})
	s.cancel = superseded
	s.mu.Unlock()

	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-superseded:
		return nil, ErrSuperseded
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	refs, err := s.fn(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq != my {
		// a newer query was issued while this one was in flight
		return nil, ErrSuperseded
	}
	if err != nil {
		s.results = nil
		return nil, nil
	}
	s.results = refs
	return refs, nil
}

// Results returns the latest published result set.
func (s *Searcher) Results() []models.SkillRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

// Clear drops displayed results and cancels anything pending, used when the
// user picks a match.
func (s *Searcher) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		close(s.cancel)
		s.cancel = nil
	}
	s.seq++
	s.results = nil
}
