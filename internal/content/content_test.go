package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndSlice(t *testing.T) {
	s := New()
	s.Record(0, []rune("hello"))
	assert.Equal(t, []rune("hello"), s.Slice(0, 5))
	assert.Equal(t, []rune("ell"), s.Slice(1, 3))
}

func TestRunLength(t *testing.T) {
	s := New()
	s.Record(0, []rune("hi"))
	s.Record(10, []rune("there"))

	assert.Equal(t, 2, s.RunLength(0, 10))
	assert.Equal(t, 0, s.RunLength(2, 10), "lv 2 was never recorded")
	assert.Equal(t, 5, s.RunLength(10, 100))
}

func TestSlicePanicsOnUnrecordedRange(t *testing.T) {
	s := New()
	s.Record(0, []rune("hi"))
	assert.Panics(t, func() {
		s.Slice(0, 5)
	})
}

func TestRecordAdjacentRunsMerge(t *testing.T) {
	s := New()
	s.Record(0, []rune("ab"))
	s.Record(2, []rune("cd"))
	require.Equal(t, 4, s.RunLength(0, 10))
	assert.Equal(t, []rune("abcd"), s.Slice(0, 4))
}
