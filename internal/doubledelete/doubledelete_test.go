package doubledelete

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIncrementThenDecrementReturnsToZero(t *testing.T) {
	l := New()
	l.IncrementRange(10, 5)
	assert.Equal(t, uint32(1), l.excessAt(12))
	assert.Equal(t, 0, l.FindZeroRange(10, 5), "still excess 1 everywhere")

	consumed := l.DecrementRange(10, 5)
	assert.Equal(t, 5, consumed)
	assert.Equal(t, uint32(0), l.excessAt(12))
	assert.Equal(t, 5, l.FindZeroRange(10, 5))
}

func TestDoubleIncrementNeedsTwoDecrements(t *testing.T) {
	l := New()
	l.IncrementRange(0, 3)
	l.IncrementRange(0, 3) // same range deleted twice concurrently
	assert.Equal(t, uint32(2), l.excessAt(1))

	assert.Equal(t, 0, l.DecrementRange(0, 0))
	l.DecrementRange(0, 3)
	assert.Equal(t, uint32(1), l.excessAt(1), "one undo leaves excess 1, still not zero")

	l.DecrementRange(0, 3)
	assert.Equal(t, uint32(0), l.excessAt(1))
}

func TestFindZeroRangeStopsAtNonzero(t *testing.T) {
	l := New()
	l.IncrementRange(5, 2) // excess at [5,7)
	assert.Equal(t, 5, l.FindZeroRange(0, 5), "prefix [0,5) is all zero")
	assert.Equal(t, 0, l.FindZeroRange(5, 2))
}

func TestDecrementStopsAtFirstZero(t *testing.T) {
	l := New()
	l.IncrementRange(0, 2) // excess 1 at [0,2)
	consumed := l.DecrementRange(0, 10)
	assert.Equal(t, 2, consumed, "decrement must not run past the zero-excess tail")
}
