package ringbuffer

import (
	"testing"

	asyncerrors "github.com/joeycumines/asyncrt/errors"
	"github.com/stretchr/testify/assert"
)

func TestRingBuffer_FixedOverflow(t *testing.T) {
	rb := New[int](2, Fixed)
	assert.NoError(t, rb.Write(1))
	assert.NoError(t, rb.Write(2))
	err := rb.Write(3)
	var full *asyncerrors.BufferFullError
	assert.ErrorAs(t, err, &full)
	assert.Equal(t, 2, full.Capacity)
	assert.Equal(t, []int{1, 2}, rb.Slice())
}

func TestRingBuffer_DropOverflow(t *testing.T) {
	rb := New[int](2, Drop)
	assert.NoError(t, rb.Write(1))
	assert.NoError(t, rb.Write(2))
	assert.NoError(t, rb.Write(3))
	assert.Equal(t, []int{1, 2}, rb.Slice())
}

func TestRingBuffer_LatestOverflow(t *testing.T) {
	rb := New[int](2, Latest)
	assert.NoError(t, rb.Write(1))
	assert.NoError(t, rb.Write(2))
	assert.NoError(t, rb.Write(3))
	assert.Equal(t, []int{2, 3}, rb.Slice())
}

func TestRingBuffer_LatestSingleCapacityAlwaysHoldsMostRecent(t *testing.T) {
	rb := New[int](1, Latest)
	for i := 0; i < 5; i++ {
		assert.NoError(t, rb.Write(i))
		v, ok := rb.Peek()
		assert.True(t, ok)
		assert.Equal(t, i, v)
	}
}

func TestRingBuffer_FIFOReadOrder(t *testing.T) {
	rb := New[int](4, Fixed)
	for i := 1; i <= 4; i++ {
		assert.NoError(t, rb.Write(i))
	}
	v, ok := rb.Read()
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.NoError(t, rb.Write(5))
	assert.Equal(t, []int{2, 3, 4, 5}, rb.Slice())
}

func TestRingBuffer_EmptyReadAndPeek(t *testing.T) {
	rb := New[int](2, Fixed)
	_, ok := rb.Read()
	assert.False(t, ok)
	_, ok = rb.Peek()
	assert.False(t, ok)
	assert.True(t, rb.IsEmpty())
}

func TestRingBuffer_ClearResetsState(t *testing.T) {
	rb := New[int](2, Fixed)
	assert.NoError(t, rb.Write(1))
	rb.Clear()
	assert.True(t, rb.IsEmpty())
	assert.Equal(t, 0, rb.Size())
	assert.NoError(t, rb.Write(9))
	v, ok := rb.Read()
	assert.True(t, ok)
	assert.Equal(t, 9, v)
}

func TestRingBuffer_IteratorConsumesFIFO(t *testing.T) {
	rb := New[int](4, Fixed)
	for i := 1; i <= 3; i++ {
		assert.NoError(t, rb.Write(i))
	}
	next := rb.Iterator()
	var got []int
	for {
		v, ok := next()
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.True(t, rb.IsEmpty())
}
