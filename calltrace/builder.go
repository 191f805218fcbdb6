package calltrace

import (
	"log"
	"sync"
)

// DefaultMaxDepth is the default call stack depth limit. Calls nested deeper
// than the limit are dropped from the recording.
const DefaultMaxDepth = 100

// A CallFilter decides whether an invocation is recorded. If the filter
// returns true, the call is recorded.
type CallFilter func(ev CallEvent) bool

// A suppression marks a call that was not recorded, either because it was
// filtered out or because the stack depth limit was hit. The matching return
// must be swallowed as well. Depth is the stack depth at the time of the
// call, which the stack returns to right before the suppressed call's own
// return arrives.
type suppression struct {
	callableID string
	depth      int
}

// A TreeBuilder consumes call and return events in arrival order and
// incrementally reconstructs the call hierarchy. All state is guarded by a
// single lock, so only one event is applied at a time.
type TreeBuilder struct {
	mu sync.Mutex

	stack      []*Frame
	roots      []*Frame
	suppressed []suppression

	maxDepth int
	filter   CallFilter
	logger   *log.Logger

	inconsistencies []HierarchyInconsistency
}

// NewTreeBuilder creates a TreeBuilder.
func NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{
		maxDepth: DefaultMaxDepth,
	}
}

// WithMaxDepth sets the stack depth limit. A limit of 0 or less disables the
// guard.
func (b *TreeBuilder) WithMaxDepth(depth int) *TreeBuilder {
	b.maxDepth = depth
	return b
}

// WithFilter sets the filter that decides which calls are recorded. Children
// of a filtered call are attached to its nearest recorded ancestor.
func (b *TreeBuilder) WithFilter(filter CallFilter) *TreeBuilder {
	b.filter = filter
	return b
}

// WithLogger sets the logger that hierarchy inconsistencies are reported to.
func (b *TreeBuilder) WithLogger(logger *log.Logger) *TreeBuilder {
	b.logger = logger
	return b
}

// OnCall creates a frame for the invocation, attaches it to the frame on the
// stack top or as a new root, and pushes it onto the stack.
func (b *TreeBuilder) OnCall(ev CallEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.filter != nil && !b.filter(ev) {
		b.suppress(ev)
		return
	}

	if b.maxDepth > 0 && len(b.stack) >= b.maxDepth {
		b.suppress(ev)
		return
	}

	frame := newFrame(ev)

	if len(b.stack) > 0 {
		top := b.stack[len(b.stack)-1]
		frame.Parent = top
		top.Children = append(top.Children, frame)
	} else {
		b.roots = append(b.roots, frame)
	}

	b.stack = append(b.stack, frame)
}

func (b *TreeBuilder) suppress(ev CallEvent) {
	b.suppressed = append(b.suppressed, suppression{
		callableID: ev.CallableID,
		depth:      len(b.stack),
	})
}

// OnReturn sets the return value of the frame on the stack top and pops it.
// A return that does not match the stack top is reconciled by popping frames
// down to and including the first matching ancestor; a return that matches
// nothing on the stack is ignored. Both cases are recorded as hierarchy
// inconsistencies.
func (b *TreeBuilder) OnReturn(ev ReturnEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.swallowSuppressedReturn(ev) {
		return
	}

	if len(b.stack) == 0 {
		b.reportInconsistency(ev, "return event with empty call stack")
		return
	}

	top := b.stack[len(b.stack)-1]
	if top.CallableID == ev.CallableID {
		top.ReturnValue = ev.Value
		top.Returned = true
		b.stack = b.stack[:len(b.stack)-1]
		return
	}

	b.reconcile(ev)
}

func (b *TreeBuilder) swallowSuppressedReturn(ev ReturnEvent) bool {
	n := len(b.suppressed)
	if n == 0 {
		return false
	}

	mark := b.suppressed[n-1]
	if mark.depth == len(b.stack) && mark.callableID == ev.CallableID {
		b.suppressed = b.suppressed[:n-1]
		return true
	}

	return false
}

// reconcile handles a return whose callable does not match the stack top.
// Frames above the first matching ancestor are closed without a return
// value. They stay in the tree so partial recordings still render.
func (b *TreeBuilder) reconcile(ev ReturnEvent) {
	match := -1
	for i := len(b.stack) - 1; i >= 0; i-- {
		if b.stack[i].CallableID == ev.CallableID {
			match = i
			break
		}
	}

	if match < 0 {
		b.reportInconsistency(ev, "orphan return event, ignored")
		return
	}

	b.reportInconsistency(ev, "mismatched return event, unwinding stack")

	b.stack[match].ReturnValue = ev.Value
	b.stack[match].Returned = true
	b.stack = b.stack[:match]
}

func (b *TreeBuilder) reportInconsistency(ev ReturnEvent, reason string) {
	inconsistency := HierarchyInconsistency{
		Seq:        ev.Seq,
		CallableID: ev.CallableID,
		Reason:     reason,
	}
	b.inconsistencies = append(b.inconsistencies, inconsistency)

	if b.logger != nil {
		b.logger.Printf("hierarchy inconsistency: %s", inconsistency)
	}
}

// FinalizeOpen closes every frame still on the stack with NoReturnValue.
// Frames open when the session ends must still render.
func (b *TreeBuilder) FinalizeOpen() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stack = nil
	b.suppressed = nil
}

// Reset discards the recorded forest so a new session can start clean.
func (b *TreeBuilder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stack = nil
	b.roots = nil
	b.suppressed = nil
	b.inconsistencies = nil
}

// Roots returns the root frames recorded so far, in call order.
func (b *TreeBuilder) Roots() []*Frame {
	b.mu.Lock()
	defer b.mu.Unlock()

	roots := make([]*Frame, len(b.roots))
	copy(roots, b.roots)

	return roots
}

// Depth returns the current call stack depth.
func (b *TreeBuilder) Depth() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.stack)
}

// Inconsistencies returns the diagnostics collected while building the tree.
func (b *TreeBuilder) Inconsistencies() []HierarchyInconsistency {
	b.mu.Lock()
	defer b.mu.Unlock()

	diagnostics := make([]HierarchyInconsistency, len(b.inconsistencies))
	copy(diagnostics, b.inconsistencies)

	return diagnostics
}
