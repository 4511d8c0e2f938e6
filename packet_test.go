package chunkstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func filledChunk(t *testing.T, pool Pool, data []byte) *Chunk {
	c, err := pool.Borrow()
	assert.NoError(t, err)
	n := copy(c.WriteSlice(len(data)), data)
	assert.Equal(t, len(data), n)
	c.Written(n)
	return c
}

func chainPacket(t *testing.T, pool Pool, parts ...[]byte) *Packet {
	var head, tail *Chunk
	for _, part := range parts {
		c := filledChunk(t, pool, part)
		if head == nil {
			head = c
			tail = c
		} else {
			assert.NoError(t, tail.AppendNext(c))
			tail = c
		}
	}
	return NewPacket(head, pool)
}

func TestPacketReleaseEmpty(t *testing.T) {
	pool := NewReusePool("test", testProfile(16, 4, 200), nil)
	pkt := EmptyPacket(pool)
	assert.True(t, pkt.IsEmpty())
	assert.NoError(t, pkt.Release())
	assert.Equal(t, int64(0), pool.Stats().Live())
}

func TestPacketReleaseSentinel(t *testing.T) {
	pool := NewEmptyPool()
	c, err := pool.Borrow()
	assert.NoError(t, err)
	pkt := NewPacket(c, pool)
	assert.True(t, pkt.IsEmpty())
	assert.NoError(t, pkt.Release())
}

func TestPacketReleaseSingle(t *testing.T) {
	pool := NewReusePool("test", testProfile(16, 4, 200), nil)
	pkt := chainPacket(t, pool, []byte("hello"))
	assert.False(t, pkt.IsEmpty())
	assert.NoError(t, pkt.Release())

	stats := pool.Stats()
	assert.Equal(t, int64(1), stats.Recycled)
	assert.Equal(t, int64(0), stats.Live())
}

func TestPacketReleaseChain(t *testing.T) {
	pool := NewReusePool("test", testProfile(16, 8, 200), nil)
	pkt := chainPacket(t, pool, []byte("one"), []byte("two"), []byte("three"))
	assert.Equal(t, 11, pkt.Size())
	assert.NoError(t, pkt.Release())

	stats := pool.Stats()
	assert.Equal(t, int64(3), stats.Recycled)
	assert.Equal(t, int64(0), stats.Live())

	// releasing again is a no-op: the chain is gone
	assert.NoError(t, pkt.Release())
	assert.Equal(t, int64(3), pool.Stats().Recycled)
}

func TestPacketRead(t *testing.T) {
	pool := NewReusePool("test", testProfile(16, 8, 200), nil)
	pkt := chainPacket(t, pool, []byte("hello"), []byte("world"))

	out := make([]byte, 0, 10)
	for !pkt.IsEmpty() {
		err := pkt.Read(func(c *Chunk) (int, error) {
			slice := c.ReadSlice()
			take := 3
			if take > len(slice) {
				take = len(slice)
			}
			out = append(out, slice[:take]...)
			return take, nil
		})
		assert.NoError(t, err)
	}
	assert.Equal(t, []byte("helloworld"), out)

	// drain the final exhausted chunk
	assert.NoError(t, pkt.Read(func(c *Chunk) (int, error) {
		t.Fatal("consumer invoked on empty packet")
		return 0, nil
	}))
	assert.Equal(t, int64(0), pool.Stats().Live())
}

func TestPacketSize(t *testing.T) {
	pool := NewReusePool("test", testProfile(16, 4, 200), nil)
	pkt := chainPacket(t, pool, []byte("abcd"), []byte("efg"))
	assert.Equal(t, 7, pkt.Size())
	assert.NoError(t, pkt.Release())

	assert.Equal(t, 0, EmptyPacket(pool).Size())
}
