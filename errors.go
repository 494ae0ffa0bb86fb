package texttree

import "fmt"

// InvariantError marks a programmer error detected by the engine, such
// as a remote op referencing an unknown external id or an LV missing
// from the content tree. These are never recoverable at the point
// they're detected, so the engine panics with this type rather than
// returning it; a test harness can still recover and assert on it via
// errors.As. The internal packages (rle, causalgraph) panic with plain
// strings instead, e.g. on an overlapping RLE insert or a seq collision.
type InvariantError struct {
	Msg string
	LV  LV
}

func (e *InvariantError) Error() string {
	if e.LV == RootLV {
		return e.Msg
	}
	return fmt.Sprintf("%s (lv=%d)", e.Msg, e.LV)
}

func panicInvariant(lv LV, format string, args ...any) {
	panic(&InvariantError{Msg: fmt.Sprintf(format, args...), LV: lv})
}
