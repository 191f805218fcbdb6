package calltrace

import "github.com/rs/xid"

// NoReturnValue marks a frame whose return was never observed, either because
// the session ended while the call was still executing or because the frame
// was discarded during stack reconciliation.
const NoReturnValue = "<no return captured>"

// A Frame represents one recorded invocation. Frames form a forest: a frame
// created while the call stack is empty becomes a root, all others are
// appended to the children of the frame on the stack top. A frame's children
// are closed once its return is processed.
type Frame struct {
	ID         string `json:"id"`
	CallableID string `json:"callable_id"`
	Name       string `json:"name"`
	Args       []Arg  `json:"args"`

	// ReturnValue holds the captured return representation, or NoReturnValue
	// if Returned is false.
	ReturnValue string `json:"return_value"`
	Returned    bool   `json:"returned"`

	Children []*Frame `json:"children"`

	// Parent is a back-reference only. Ownership flows from parent to
	// children; a frame with a nil parent is a root.
	Parent *Frame `json:"-"`
}

func newFrame(ev CallEvent) *Frame {
	return &Frame{
		ID:          xid.New().String(),
		CallableID:  ev.CallableID,
		Name:        ev.Name,
		Args:        ev.Args,
		ReturnValue: NoReturnValue,
	}
}

// CountFrames returns the total number of frames in the forest, roots
// included.
func CountFrames(roots []*Frame) int {
	count := 0
	for _, root := range roots {
		count += 1 + CountFrames(root.Children)
	}

	return count
}
