package rle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type run struct {
	key, length int
}

func (r *run) Len() int    { return r.length }
func (r *run) RleKey() int { return r.key }
func (r *run) CanAppend(next *run) bool {
	return r.key+r.length == next.key
}
func (r *run) Append(next *run) { r.length += next.length }
func (r *run) Truncate(at int) *run {
	tail := &run{key: r.key + at, length: r.length - at}
	r.length = at
	return tail
}
func (r *run) Clone() *run {
	c := *r
	return &c
}

var _ Record[*run] = (*run)(nil)

func TestInsertMergesAdjacentRuns(t *testing.T) {
	l := New[*run]()
	l.Insert(&run{key: 0, length: 5})
	l.Insert(&run{key: 5, length: 3})
	require.Equal(t, 1, l.Len(), "adjacent runs should merge into one record")
	assert.Equal(t, 8, l.At(0).Len())
}

func TestInsertOverlapPanics(t *testing.T) {
	l := New[*run]()
	l.Insert(&run{key: 0, length: 5})
	assert.Panics(t, func() {
		l.Insert(&run{key: 3, length: 2})
	})
}

func TestFindAndFindSparse(t *testing.T) {
	l := New[*run]()
	l.Insert(&run{key: 0, length: 5})
	l.Insert(&run{key: 10, length: 5})

	idx, off, found := l.Find(3)
	require.True(t, found)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 3, off)

	_, _, found = l.Find(7)
	assert.False(t, found, "key in the gap should not be found")

	_, offset, found, voidStart, voidEnd, nextIdx := l.FindSparse(7)
	assert.False(t, found)
	assert.Equal(t, 2, offset)
	assert.Equal(t, 5, voidStart)
	assert.Equal(t, 10, voidEnd)
	assert.Equal(t, 1, nextIdx)
}

func TestRemoveTruncatesStraddlingRecords(t *testing.T) {
	l := New[*run]()
	l.Insert(&run{key: 0, length: 10})
	l.Remove(3, 7)

	require.Equal(t, 2, l.Len())
	assert.Equal(t, 0, l.At(0).RleKey())
	assert.Equal(t, 3, l.At(0).Len())
	assert.Equal(t, 7, l.At(1).RleKey())
	assert.Equal(t, 3, l.At(1).Len())
}

func TestIterRangeTrimsBoundaryRecords(t *testing.T) {
	l := New[*run]()
	l.Insert(&run{key: 0, length: 5})
	l.Insert(&run{key: 5, length: 5}) // merges with the above into one 10-run

	var got []run
	l.IterRange(2, 8, func(r *run) bool {
		got = append(got, *r)
		return true
	})
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].key)
	assert.Equal(t, 6, got[0].length)
}
