package calltrace

import "sync/atomic"

// An Arg is the capture-time snapshot of one named argument.
type Arg struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// A CallEvent notifies that a callable has been entered. It is emitted
// exactly once per invocation, before the callee executes.
type CallEvent struct {
	CallableID string
	Name       string
	Args       []Arg
	Seq        uint64
}

// A ReturnEvent notifies that a callable has finished, normally or through
// failure propagation. It is matched to its CallEvent by being the next
// unmatched return on the top of the call stack.
type ReturnEvent struct {
	CallableID string
	Value      string
	Seq        uint64
}

var seqCounter uint64

// NextSeq returns a monotonically increasing sequence number that orders
// events across the process.
func NextSeq() uint64 {
	return atomic.AddUint64(&seqCounter, 1)
}
