// Package report projects a finalized call forest into a renderer-agnostic
// report model. The projection is pure: it never mutates the source frames
// and projecting the same forest twice yields structurally identical trees.
package report

import (
	"fmt"
	"strings"

	"github.com/tracekit/callscope/calltrace"
)

// A ReportNode is one entry of the report model. Depth is the traversal
// distance from the node's root; children appear in call order.
type ReportNode struct {
	Depth       int           `json:"depth"`
	Label       string        `json:"label"`
	ReturnLabel string        `json:"return_label"`
	Children    []*ReportNode `json:"children"`
}

// Project converts a forest of frames into report nodes, pre-order, with
// root depth 0.
func Project(roots []*calltrace.Frame) []*ReportNode {
	nodes := make([]*ReportNode, 0, len(roots))
	for _, root := range roots {
		nodes = append(nodes, projectFrame(root, 0))
	}

	return nodes
}

func projectFrame(frame *calltrace.Frame, depth int) *ReportNode {
	node := &ReportNode{
		Depth:       depth,
		Label:       Signature(frame),
		ReturnLabel: frame.ReturnValue,
	}

	for _, child := range frame.Children {
		node.Children = append(node.Children, projectFrame(child, depth+1))
	}

	return node
}

// Signature formats a frame as a call signature, such as "add(a=2, b=3)".
func Signature(frame *calltrace.Frame) string {
	args := make([]string, 0, len(frame.Args))
	for _, arg := range frame.Args {
		args = append(args, fmt.Sprintf("%s=%s", arg.Name, arg.Value))
	}

	return fmt.Sprintf("%s(%s)", frame.Name, strings.Join(args, ", "))
}

// Flatten lists the nodes of the projected trees in pre-order, the order the
// calls were recorded in.
func Flatten(nodes []*ReportNode) []*ReportNode {
	flat := make([]*ReportNode, 0, len(nodes))
	for _, node := range nodes {
		flat = append(flat, node)
		flat = append(flat, Flatten(node.Children)...)
	}

	return flat
}
