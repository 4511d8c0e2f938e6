package chunkstream

import (
	"sync"
	"sync/atomic"

	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/pkg/errors"
)

// Pool hands out ready-to-use chunks (refs fresh at 1) and accepts
// fully-released chunks (refs at 0) back for reuse.
type Pool interface {
	Borrow() (*Chunk, error)
	Recycle(c *Chunk) error
	Dispose()
	Capacity() int
}

// PoolStats tracks chunk traffic through a pool.
type PoolStats struct {
	Allocated int64
	Reused    int64
	Recycled  int64
	Discarded int64
}

// Live reports the number of chunks currently out in the wild.
func (self PoolStats) Live() int64 {
	return (self.Allocated + self.Reused) - self.Recycled
}

// ReusePool retains up to capacity recycled chunks in a LIFO free list and
// allocates fresh memory beyond that. Recently recycled chunks are handed out
// first.
type ReusePool struct {
	id       string
	chunkSz  int
	capacity int
	lock     sync.Mutex
	free     *arraystack.Stack
	stats    PoolStats
	ii       InstrumentInstance
}

func NewReusePool(id string, p *Profile, ii InstrumentInstance) *ReusePool {
	return &ReusePool{
		id:       id,
		chunkSz:  p.ChunkSz,
		capacity: p.PoolCapacity,
		free:     arraystack.New(),
		ii:       ii,
	}
}

func (self *ReusePool) Borrow() (*Chunk, error) {
	self.lock.Lock()
	defer self.lock.Unlock()

	if v, found := self.free.Pop(); found {
		c := v.(*Chunk)
		if err := c.unpark(); err != nil {
			return nil, errors.Wrap(err, "unpark")
		}
		self.stats.Reused++
		if self.ii != nil {
			self.ii.Borrowed(self.id)
		}
		return c, nil
	}

	c := newChunk(self.chunkSz)
	self.stats.Allocated++
	if self.ii != nil {
		self.ii.Allocated(self.id)
	}
	return c, nil
}

func (self *ReusePool) Recycle(c *Chunk) error {
	if err := recyclable(c); err != nil {
		return err
	}
	c.reset()

	self.lock.Lock()
	defer self.lock.Unlock()

	self.stats.Recycled++
	if self.free.Size() < self.capacity {
		self.free.Push(c)
		if self.ii != nil {
			self.ii.Recycled(self.id)
		}
	} else {
		self.stats.Discarded++
		if self.ii != nil {
			self.ii.Discarded(self.id)
		}
	}
	return nil
}

// Dispose drops the free list. Retained chunks are marked disposed, so a
// stale reference that tries to resurrect one fails loudly.
func (self *ReusePool) Dispose() {
	self.lock.Lock()
	defer self.lock.Unlock()

	for {
		v, found := self.free.Pop()
		if !found {
			break
		}
		_ = v.(*Chunk).unlink()
	}
	if self.ii != nil {
		self.ii.Disposed(self.id)
	}
}

func (self *ReusePool) Capacity() int {
	return self.capacity
}

func (self *ReusePool) Stats() PoolStats {
	self.lock.Lock()
	defer self.lock.Unlock()
	return self.stats
}

// TransientPool allocates fresh memory on every borrow and drops recycled
// chunks on the floor, for callers that do not want retention.
type TransientPool struct {
	id        string
	chunkSz   int
	allocated int64
	recycled  int64
	ii        InstrumentInstance
}

func NewTransientPool(id string, p *Profile, ii InstrumentInstance) *TransientPool {
	return &TransientPool{
		id:      id,
		chunkSz: p.ChunkSz,
		ii:      ii,
	}
}

func (self *TransientPool) Borrow() (*Chunk, error) {
	atomic.AddInt64(&self.allocated, 1)
	if self.ii != nil {
		self.ii.Allocated(self.id)
	}
	return newChunk(self.chunkSz), nil
}

func (self *TransientPool) Recycle(c *Chunk) error {
	if err := recyclable(c); err != nil {
		return err
	}
	if err := c.unlink(); err != nil {
		return err
	}
	atomic.AddInt64(&self.recycled, 1)
	if self.ii != nil {
		self.ii.Discarded(self.id)
	}
	return nil
}

func (self *TransientPool) Dispose() {
	if self.ii != nil {
		self.ii.Disposed(self.id)
	}
}

func (self *TransientPool) Capacity() int {
	return 0
}

func (self *TransientPool) Stats() PoolStats {
	return PoolStats{
		Allocated: atomic.LoadInt64(&self.allocated),
		Recycled:  atomic.LoadInt64(&self.recycled),
	}
}

// emptyPool exposes a single, shared, zero-capacity sentinel chunk,
// representing empty packets without allocation. The sentinel's construction
// reference is never dropped, so it can never actually reach the recycle path.
type emptyPool struct {
	sentinel *Chunk
}

func NewEmptyPool() Pool {
	return &emptyPool{sentinel: newChunk(0)}
}

func (self *emptyPool) Borrow() (*Chunk, error) {
	if err := self.sentinel.Acquire(); err != nil {
		return nil, errors.Wrap(err, "acquire sentinel")
	}
	return self.sentinel, nil
}

func (self *emptyPool) Recycle(c *Chunk) error {
	if c != self.sentinel {
		return errors.New("foreign chunk recycled to empty pool")
	}
	return nil
}

func (self *emptyPool) Dispose() {}

func (self *emptyPool) Capacity() int {
	return 0
}

func recyclable(c *Chunk) error {
	if refs := atomic.LoadInt32(&c.refs); refs != 0 {
		return errors.Errorf("recycle of chunk in use [refs=%d]", refs)
	}
	if c.next.Load() != nil {
		return errors.New("recycle of chunk with linked successor")
	}
	return nil
}
