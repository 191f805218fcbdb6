package recording

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tracekit/callscope/calltrace"
)

// A FrameRow is the flat database shape of one recorded frame. Seq is the
// pre-order position of the frame in the forest, so ordering by Seq
// reproduces call order.
type FrameRow struct {
	ID          string
	ParentID    string
	Name        string
	Args        string
	ReturnValue string
	Returned    bool
	Depth       int
	Seq         int
}

// A FrameRecorder is the report emitter for database output. One Emit call
// produces one SQLite artifact at the target path.
type FrameRecorder struct{}

// NewFrameRecorder creates a FrameRecorder.
func NewFrameRecorder() *FrameRecorder {
	return &FrameRecorder{}
}

// Emit writes the finalized forest into an SQLite database at the target
// path.
func (r *FrameRecorder) Emit(
	roots []*calltrace.Frame,
	target string,
) (err error) {
	// The recorder panics on SQL failures; the emitter contract is an error
	// return that never reaches the traced program.
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("recording frames: %v", recovered)
		}
	}()

	recorder, err := NewRecorder(target)
	if err != nil {
		return err
	}
	defer recorder.Close()

	recorder.CreateTable("frames", FrameRow{})

	seq := 0
	var insert func(frame *calltrace.Frame, parentID string, depth int)
	insert = func(frame *calltrace.Frame, parentID string, depth int) {
		recorder.InsertData("frames", FrameRow{
			ID:          frame.ID,
			ParentID:    parentID,
			Name:        frame.Name,
			Args:        formatArgs(frame.Args),
			ReturnValue: frame.ReturnValue,
			Returned:    frame.Returned,
			Depth:       depth,
			Seq:         seq,
		})
		seq++

		for _, child := range frame.Children {
			insert(child, frame.ID, depth+1)
		}
	}

	for _, root := range roots {
		insert(root, "", 0)
	}

	recorder.Flush()

	return nil
}

func formatArgs(args []calltrace.Arg) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, arg.Name+"="+arg.Value)
	}

	return strings.Join(parts, ", ")
}

func parseArgs(s string) []calltrace.Arg {
	if s == "" {
		return nil
	}

	var args []calltrace.Arg
	for _, part := range strings.Split(s, ", ") {
		name, value, found := strings.Cut(part, "=")
		if !found {
			args = append(args, calltrace.Arg{Value: part})
			continue
		}

		args = append(args, calltrace.Arg{Name: name, Value: value})
	}

	return args
}

// LoadForest reads a recorded trace back from an SQLite database and
// reconstructs the frame forest in call order.
func LoadForest(
	ctx context.Context,
	filename string,
) ([]*calltrace.Frame, error) {
	reader, err := NewReader(filename)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	reader.MapTable("frames", FrameRow{})

	entries, err := reader.Query(ctx, "frames", QueryParams{OrderBy: "Seq"})
	if err != nil {
		return nil, err
	}

	rows := make([]FrameRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, entry.(FrameRow))
	}

	return buildForest(rows), nil
}

func buildForest(rows []FrameRow) []*calltrace.Frame {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Seq < rows[j].Seq
	})

	frames := make(map[string]*calltrace.Frame, len(rows))
	var roots []*calltrace.Frame

	for _, row := range rows {
		frame := &calltrace.Frame{
			ID:          row.ID,
			Name:        row.Name,
			Args:        parseArgs(row.Args),
			ReturnValue: row.ReturnValue,
			Returned:    row.Returned,
		}
		frames[row.ID] = frame

		parent, ok := frames[row.ParentID]
		if !ok {
			roots = append(roots, frame)
			continue
		}

		frame.Parent = parent
		parent.Children = append(parent.Children, frame)
	}

	return roots
}
