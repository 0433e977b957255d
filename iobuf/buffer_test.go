package iobuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferWriteReadRoundTrip(t *testing.T) {
	b := New(16)
	assert.Equal(t, 16, b.Remaining())

	n := b.Write([]byte("hello"))
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, b.Pos())

	b.Flip()
	assert.Equal(t, 5, b.Remaining())

	dst := make([]byte, 5)
	n = b.Read(dst)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(dst))
	assert.Equal(t, 0, b.Remaining())
}

func TestBufferWriteStopsAtLimit(t *testing.T) {
	b := New(3)
	n := b.Write([]byte("abcdef"))
	assert.Equal(t, 3, n)
	assert.Equal(t, 0, b.Remaining())
}

func TestBufferSafeWriteOverflow(t *testing.T) {
	b := New(3)
	err := b.SafeWrite([]byte("abcdef"))
	assert.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, 0, b.Pos(), "position must not advance on overflow")
}

func TestBufferSafeReadUnderflow(t *testing.T) {
	b := FromBytes([]byte("ab"))
	dst := make([]byte, 3)
	err := b.SafeRead(dst)
	assert.ErrorIs(t, err, ErrUnderflow)
	assert.Equal(t, 0, b.Pos())
}

func TestBufferSafeReadN(t *testing.T) {
	b := FromBytes([]byte("hello world"))
	got, err := b.SafeReadN(5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestBufferResetRestoresWriteMode(t *testing.T) {
	b := New(8)
	b.Write([]byte("ab"))
	b.Flip()
	b.Reset(false)
	assert.Equal(t, 0, b.Pos())
	assert.Equal(t, 8, b.Limit())
}

func TestBufferResetKeepPos(t *testing.T) {
	b := New(8)
	b.Write([]byte("ab"))
	b.Reset(true)
	assert.Equal(t, 2, b.Pos())
	assert.Equal(t, 8, b.Limit())
}

func TestBufferSkip(t *testing.T) {
	b := New(8)
	b.Skip(3)
	assert.Equal(t, 3, b.Pos())
	b.Skip(100)
	assert.Equal(t, 8, b.Pos(), "skip clamps to the limit")
}

func TestBufferFirstLast(t *testing.T) {
	b := FromBytes([]byte("hello"))
	first, ok := b.First()
	assert.True(t, ok)
	assert.Equal(t, byte('h'), first)

	last, ok := b.Last()
	assert.True(t, ok)
	assert.Equal(t, byte('o'), last)

	empty := New(0)
	_, ok = empty.First()
	assert.False(t, ok)
	_, ok = empty.Last()
	assert.False(t, ok)
}

func TestNewDefault(t *testing.T) {
	assert.Equal(t, DefaultSize, NewDefault().Size())
}
