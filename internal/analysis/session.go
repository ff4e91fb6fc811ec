package analysis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// SessionStatus is where a Session is in its lifecycle.
type SessionStatus int

const (
	StatusIdle SessionStatus = iota
	StatusStreaming
	StatusComplete
	StatusError
	StatusCancelled
)

func (s SessionStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusStreaming:
		return "streaming"
	case StatusComplete:
		return "complete"
	case StatusError:
		return "error"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the run has ended.
func (s SessionStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError || s == StatusCancelled
}

// Session runs one streaming analysis at a time and owns its State.
//
// Start always wins: it cancels the previous run and bumps the generation
// counter, and a read loop only commits transitions while its generation is
// current. Consumers read immutable snapshots via Snapshot or OnUpdate.
type Session struct {
	streamer Streamer
	logger   zerolog.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	status     SessionStatus
	stopped    bool
	err        error
	done       chan struct{}
	listener   func(State)

	state atomic.Pointer[State]
}

// NewSession creates an idle Session that opens streams through streamer.
func NewSession(streamer Streamer, logger zerolog.Logger) *Session {
	done := make(chan struct{})
	close(done)

	s := &Session{
		streamer: streamer,
		logger:   logger,
		done:     done,
	}
	initial := InitialState()
	s.state.Store(&initial)
	return s
}

// OnUpdate registers fn to receive every new snapshot, in commit order. fn is
// called with the session lock held: it must return quickly and must not
// call back into the Session.
func (s *Session) OnUpdate(fn func(State)) {
	s.mu.Lock()
	s.listener = fn
	s.mu.Unlock()
}

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	return *s.state.Load()
}

// Status returns the lifecycle status of the current run.
func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the transport error that ended the current run, if any.
// Cancellation is not an error.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Start resets the state and begins streaming the analysis of req. A run
// already in flight is cancelled and its remaining events are discarded.
func (s *Session) Start(ctx context.Context, req ArticleRequest) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.status = StatusStreaming
	s.stopped = false
	s.err = nil
	done := make(chan struct{})
	s.done = done

	initial := InitialState()
	initial.IsStreaming = true
	s.publishLocked(initial)
	s.mu.Unlock()

	s.logger.Debug().Uint64("generation", gen).Str("url", req.URL).Msg("analysis: session started")

	go s.run(runCtx, gen, req, done)
}

// Cancel aborts the current run and stops further network reads. It may be
// called at any time. A run that a complete or error event already settled
// keeps its status and state; otherwise the state stops streaming without
// reporting an error.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
		return
	default:
	}
	if s.cancel == nil {
		return
	}

	s.stopped = true
	s.cancel()

	if s.status != StatusStreaming {
		return
	}
	s.status = StatusCancelled

	next := s.state.Load().clone()
	next.IsStreaming = false
	s.publishLocked(next)
}

// Reset cancels any run and returns the session to the idle state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.status = StatusIdle
	s.err = nil
	s.publishLocked(InitialState())
}

// Wait blocks until the current run ends or ctx is done, and returns the
// latest snapshot.
func (s *Session) Wait(ctx context.Context) (State, error) {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
		return s.Snapshot(), nil
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	}
}

func (s *Session) run(ctx context.Context, gen uint64, req ArticleRequest, done chan struct{}) {
	defer close(done)

	body, err := s.streamer.Open(ctx, req)
	if err != nil {
		s.finish(gen, err)
		return
	}
	defer body.Close()

	decoder := NewDecoder(s.logger)
	err = decoder.Stream(ctx, body, func(ev Event) bool {
		return s.commit(gen, ev)
	})
	s.finish(gen, err)
}

// commit applies ev if gen is still current. It returns false once the run
// has been superseded, which stops the read loop.
func (s *Session) commit(gen uint64, ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.stopped {
		return false
	}

	next := Apply(*s.state.Load(), ev)
	if s.status == StatusStreaming {
		switch ev.Type {
		case EventComplete:
			s.status = StatusComplete
		case EventError:
			s.status = StatusError
		}
	}
	s.publishLocked(next)
	return true
}

func (s *Session) finish(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}

	next := s.state.Load().clone()
	next.IsStreaming = false

	switch {
	case s.status == StatusCancelled:
		// Cancel already published the stopped state.

	case s.status != StatusStreaming:
		// A complete or error event already settled the run.
		if err != nil {
			s.logger.Debug().Err(err).Uint64("generation", gen).Msg("analysis: read ended after terminal event")
		}

	case errors.Is(err, context.Canceled):
		s.status = StatusCancelled

	case err != nil:
		s.status = StatusError
		s.err = err
		msg := err.Error()
		next.Error = &msg
		s.logger.Warn().Err(err).Uint64("generation", gen).Msg("analysis: stream failed")

	case next.Error != nil:
		s.status = StatusError

	default:
		s.status = StatusComplete
	}

	s.publishLocked(next)
	s.logger.Debug().Uint64("generation", gen).Stringer("status", s.status).Msg("analysis: session finished")
}

func (s *Session) publishLocked(st State) {
	s.state.Store(&st)
	if s.listener != nil {
		s.listener(st)
	}
}
