package calltrace

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/tebeka/atexit"

	"github.com/tracekit/callscope/hooking"
)

// SessionState is the lifecycle state of a Session.
type SessionState int

// The session state machine is Idle -> Active -> Ended -> Idle. The
// Ended-to-Idle transition happens implicitly when the report flush
// succeeds.
const (
	SessionIdle SessionState = iota
	SessionActive
	SessionEnded
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionActive:
		return "active"
	case SessionEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// OutputMode selects how the report is flushed when the session ends.
type OutputMode int

const (
	// OutputText writes a flat indented text report.
	OutputText OutputMode = iota

	// OutputInteractive writes a self-contained interactive HTML report.
	OutputInteractive

	// OutputDatabase records the finalized frames into an SQLite database.
	OutputDatabase
)

func (m OutputMode) String() string {
	switch m {
	case OutputText:
		return "text"
	case OutputInteractive:
		return "interactive"
	case OutputDatabase:
		return "database"
	default:
		return "unknown"
	}
}

// A ReportEmitter writes a finalized call forest to a target. Implementations
// live outside the core: text and HTML writers in the render package, the
// database sink in the recording package.
type ReportEmitter interface {
	Emit(roots []*Frame, target string) error
}

// Only one session may be active at a time process-wide.
var (
	activeMu      sync.Mutex
	activeSession *Session
)

// Active returns the currently active session, or nil.
func Active() *Session {
	activeMu.Lock()
	defer activeMu.Unlock()

	return activeSession
}

// A Session is one bounded recording period. It owns the tree builder,
// subscribes it to the domain's call and return hooks on Start, and flushes
// the finalized forest to the configured emitter on End.
type Session struct {
	mu sync.Mutex

	state   SessionState
	domain  NamedHookable
	builder *TreeBuilder
	hook    *sessionHook

	mode     OutputMode
	target   string
	emitters map[OutputMode]ReportEmitter

	logger        *log.Logger
	endOnExitOnce sync.Once
}

// NewSession creates a session that records calls reported to the given
// domain. The session starts idle; nothing is recorded until Start.
func NewSession(domain NamedHookable) *Session {
	builder := NewTreeBuilder()

	s := &Session{
		domain:   domain,
		builder:  builder,
		emitters: make(map[OutputMode]ReportEmitter),
		logger:   log.New(os.Stderr, "callscope ", log.LstdFlags),
	}
	s.hook = &sessionHook{builder: builder}
	builder.WithLogger(s.logger)

	return s
}

// WithEmitter registers the emitter used to flush reports in the given mode.
func (s *Session) WithEmitter(mode OutputMode, emitter ReportEmitter) *Session {
	s.emitters[mode] = emitter
	return s
}

// WithLogger replaces the logger diagnostics are written to.
func (s *Session) WithLogger(logger *log.Logger) *Session {
	s.logger = logger
	s.builder.WithLogger(logger)

	return s
}

// WithMaxDepth sets the stack depth limit of the recording.
func (s *Session) WithMaxDepth(depth int) *Session {
	s.builder.WithMaxDepth(depth)
	return s
}

// WithFilter sets the predicate that decides which calls are recorded.
func (s *Session) WithFilter(filter CallFilter) *Session {
	s.builder.WithFilter(filter)
	return s
}

// ConfigureOutput sets where and how the next End flush writes.
func (s *Session) ConfigureOutput(mode OutputMode, target string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mode = mode
	s.target = target
}

// Start begins the session. Starting an already-active session is a no-op:
// the in-flight recording is kept, never truncated. Starting while another
// session is active, or while this session is mid-flush, returns an
// *InvalidStateError without changing any state.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case SessionActive:
		return nil
	case SessionEnded:
		return &InvalidStateError{Op: "start", State: s.state}
	}

	activeMu.Lock()
	if activeSession != nil && activeSession != s {
		activeMu.Unlock()
		return &InvalidStateError{
			Op:     "start",
			State:  s.state,
			Reason: "another session is active",
		}
	}
	activeSession = s
	activeMu.Unlock()

	s.builder.Reset()
	s.domain.AcceptHook(s.hook)
	s.state = SessionActive

	return nil
}

// End closes the session: it stops event delivery, finalizes frames still on
// the stack with the no-return sentinel, flushes the report, and resets the
// session to idle. Ending an idle session returns an *InvalidStateError and
// changes nothing. If the flush fails, the error is returned as a
// *RenderError and the session stays ended with its forest intact, so End
// can be called again after reconfiguring the output.
func (s *Session) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case SessionIdle:
		return &InvalidStateError{Op: "end", State: s.state}
	case SessionActive:
		s.domain.DetachHook(s.hook)
		s.builder.FinalizeOpen()
		s.state = SessionEnded

		activeMu.Lock()
		if activeSession == s {
			activeSession = nil
		}
		activeMu.Unlock()
	}

	if err := s.flush(); err != nil {
		return err
	}

	s.state = SessionIdle

	return nil
}

func (s *Session) flush() error {
	if s.target == "" {
		return nil
	}

	emitter := s.emitters[s.mode]
	if emitter == nil {
		return &RenderError{
			Target: s.target,
			Err:    fmt.Errorf("no emitter registered for %s output", s.mode),
		}
	}

	if err := emitter.Emit(s.builder.Roots(), s.target); err != nil {
		return &RenderError{Target: s.target, Err: err}
	}

	return nil
}

// EndOnExit registers an exit handler that ends the session if it is still
// active when the process terminates.
func (s *Session) EndOnExit() *Session {
	s.endOnExitOnce.Do(func() {
		atexit.Register(func() {
			if s.State() != SessionActive {
				return
			}

			if err := s.End(); err != nil {
				s.logger.Printf("end on exit: %v", err)
			}
		})
	})

	return s
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Roots returns the recorded root frames. The forest stays available after
// End until the next Start replaces it.
func (s *Session) Roots() []*Frame {
	return s.builder.Roots()
}

// Inconsistencies returns the hierarchy diagnostics collected so far.
func (s *Session) Inconsistencies() []HierarchyInconsistency {
	return s.builder.Inconsistencies()
}

// sessionHook feeds call and return events from the domain to the builder.
type sessionHook struct {
	builder *TreeBuilder
}

func (h *sessionHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case HookPosFuncCall:
		if ev, ok := ctx.Item.(CallEvent); ok {
			h.builder.OnCall(ev)
		}
	case HookPosFuncReturn:
		if ev, ok := ctx.Item.(ReturnEvent); ok {
			h.builder.OnReturn(ev)
		}
	}
}
