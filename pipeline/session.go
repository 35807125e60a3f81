package pipeline

import (
	"context"
	"sync"

	"github.com/use-agent/golbat/engine"
	"github.com/use-agent/golbat/metadata"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateIdle State = iota
	StateFetching
	StatePopulated
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StatePopulated:
		return "populated"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Session tracks the metadata of one interactive user: at most one fetch
// is in flight, and starting a new one cancels and discards the previous
// fetch together with any record or error it produced. Safe for concurrent
// use.
type Session struct {
	p    *Pipeline
	full bool

	mu     sync.Mutex
	state  State
	target string
	record metadata.Record
	err    error
	gen    uint64
	cancel context.CancelFunc
}

// NewSession creates an idle Session running p. full selects full-mode
// extraction for every fetch.
func NewSession(p *Pipeline, full bool) *Session {
	return &Session{p: p, full: full}
}

// Fetch formats raw into a URL and starts fetching it, superseding any
// fetch in progress. The returned channel is closed once this fetch has
// settled or been superseded.
func (s *Session) Fetch(ctx context.Context, raw string) <-chan struct{} {
	done := make(chan struct{})

	s.mu.Lock()
	s.supersedeLocked()
	gen := s.gen

	target, err := engine.FormatTarget(raw)
	if err != nil {
		s.state = StateError
		s.err = err
		s.target = ""
		s.mu.Unlock()
		close(done)
		return done
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	s.state = StateFetching
	s.target = target
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()

		rec, err := s.p.Run(fetchCtx, target, s.full)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen != gen {
			return
		}
		s.cancel = nil
		if err != nil {
			s.state = StateError
			s.err = err
			return
		}
		s.state = StatePopulated
		s.record = rec
	}()

	return done
}

// Refresh re-fetches the last target. With no previous target, or after
// input that could not be formatted, it does nothing and returns a closed
// channel.
func (s *Session) Refresh(ctx context.Context) <-chan struct{} {
	s.mu.Lock()
	target := s.target
	s.mu.Unlock()

	if target == "" {
		done := make(chan struct{})
		close(done)
		return done
	}
	return s.Fetch(ctx, target)
}

// Clear cancels any fetch in progress and returns the session to idle.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersedeLocked()
	s.state = StateIdle
	s.target = ""
}

// Snapshot returns the current state, a copy of the record (when
// populated) and the error (when failed).
func (s *Session) Snapshot() (State, metadata.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec metadata.Record
	if s.record != nil {
		rec = s.record.Clone()
	}
	return s.state, rec, s.err
}

// supersedeLocked drops the in-flight fetch and any previous outcome.
func (s *Session) supersedeLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.record = nil
	s.err = nil
}
