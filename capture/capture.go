// Package capture renders runtime values into display strings at the moment
// an event is emitted. Representations are snapshots: once captured, later
// mutation of the value cannot change what was recorded. Capturing never
// panics into the program under trace; values that cannot be rendered are
// substituted with Placeholder.
package capture

import (
	"bytes"
	"fmt"

	"github.com/syifan/goseth"
)

// Placeholder is recorded when a value's representation cannot be computed.
const Placeholder = "<unrepresentable>"

// DefaultLimit is the default maximum length of a representation.
const DefaultLimit = 50

// An Error reports that a value's representation could not be computed. It is
// always recovered locally by substituting Placeholder.
type Error struct {
	Cause interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("cannot capture value representation: %v", e.Cause)
}

// Repr returns the display representation of v, truncated to DefaultLimit.
func Repr(v interface{}) string {
	return ReprLimit(v, DefaultLimit)
}

// ReprLimit returns the display representation of v, truncated to limit
// runes. A limit of 0 or less disables truncation.
func ReprLimit(v interface{}, limit int) string {
	s, err := tryRepr(v)
	if err != nil {
		return Placeholder
	}

	return truncate(s, limit)
}

// tryRepr formats v, recovering from panicking String or Error methods.
func tryRepr(v interface{}) (s string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Cause: r}
		}
	}()

	switch value := v.(type) {
	case nil:
		return "nil", nil
	case string:
		return fmt.Sprintf("%q", value), nil
	case error:
		return fmt.Sprintf("%q", value.Error()), nil
	case fmt.Stringer:
		return value.String(), nil
	default:
		return fmt.Sprintf("%+v", value), nil
	}
}

// Expanded returns a deep representation of v, serialized down to the given
// depth. It falls back to Repr if the value cannot be serialized.
func Expanded(v interface{}, depth int) string {
	s, err := tryExpand(v, depth)
	if err != nil {
		return Repr(v)
	}

	return s
}

func tryExpand(v interface{}, depth int) (s string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Cause: r}
		}
	}()

	buf := bytes.NewBuffer(nil)

	serializer := goseth.NewSerializer()
	serializer.SetRoot(v)
	serializer.SetMaxDepth(depth)

	err = serializer.Serialize(buf)
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}

	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit]) + "..."
}
