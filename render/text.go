// Package render writes projected call-trace reports. Renderers receive the
// report model from the report package; they never reach back into the live
// session.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tracekit/callscope/calltrace"
	"github.com/tracekit/callscope/report"
)

// A TextRenderer writes a call-trace report as flat indented text, one line
// per invocation:
//
//	CALL TRACE:
//
//	main()
//	  add(a=2, b=3) -> 5
//	  multiply(a=5, b=2) -> 10
type TextRenderer struct{}

// NewTextRenderer creates a TextRenderer.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{}
}

// Emit projects the forest and writes the text report to the target path.
func (r *TextRenderer) Emit(roots []*calltrace.Frame, target string) error {
	file, err := os.Create(target)
	if err != nil {
		return err
	}
	defer file.Close()

	return r.Write(report.Project(roots), file)
}

// Write writes the projected report to w.
func (r *TextRenderer) Write(nodes []*report.ReportNode, w io.Writer) error {
	if _, err := fmt.Fprint(w, "CALL TRACE:\n\n"); err != nil {
		return err
	}

	if len(nodes) == 0 {
		_, err := fmt.Fprintln(w, "No calls traced.")
		return err
	}

	for _, node := range report.Flatten(nodes) {
		indent := strings.Repeat("  ", node.Depth)

		_, err := fmt.Fprintf(w, "%s%s -> %s\n",
			indent, node.Label, node.ReturnLabel)
		if err != nil {
			return err
		}
	}

	return nil
}
