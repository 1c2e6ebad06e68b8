package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueOrder(t *testing.T) {
	rq := NewRingQueue[int](4)

	for i := 1; i <= 4; i++ {
		require.NoError(t, rq.Enqueue(i))
	}
	assert.True(t, rq.IsFull())
	assert.Equal(t, 4, rq.Len())

	for i := 1; i <= 4; i++ {
		v, err := rq.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.True(t, rq.IsEmpty())
}

func TestRingQueueFull(t *testing.T) {
	rq := NewRingQueue[string](1)
	require.NoError(t, rq.Enqueue("a"))
	assert.ErrorIs(t, rq.Enqueue("b"), ErrQueueFull)
}

func TestRingQueueEmpty(t *testing.T) {
	rq := NewRingQueue[int](2)
	_, err := rq.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)
	_, err = rq.Peek()
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestRingQueueWrapAround(t *testing.T) {
	rq := NewRingQueue[int](3)

	require.NoError(t, rq.Enqueue(1))
	require.NoError(t, rq.Enqueue(2))

	v, err := rq.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	// The write index wraps past the end of the backing array.
	require.NoError(t, rq.Enqueue(3))
	require.NoError(t, rq.Enqueue(4))
	assert.True(t, rq.IsFull())

	expected := []int{2, 3, 4}
	for _, want := range expected {
		v, err := rq.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
}

func TestRingQueuePeek(t *testing.T) {
	rq := NewRingQueue[int](2)
	require.NoError(t, rq.Enqueue(42))

	v, err := rq.Peek()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, rq.Len())
}
