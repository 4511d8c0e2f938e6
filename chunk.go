package chunkstream

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// refs sentinel for a chunk that has been unlinked and must never be touched again
const disposed = int32(-1)

// Chunk is a fixed-capacity memory region with independent read and write
// cursors. Chunks link into packets through their next pointers and share
// backing memory with duplicate views through their origin pointers. The
// reference count governs when the backing memory returns to its pool: views
// propagate their final release to their origin, roots recycle.
type Chunk struct {
	data   []byte
	sz     int
	rp     int
	wp     int
	refs   int32
	origin *Chunk
	next   atomic.Pointer[Chunk]
}

func newChunk(sz int) *Chunk {
	return &Chunk{
		data: make([]byte, sz),
		sz:   sz,
		refs: 1,
	}
}

func (self *Chunk) Size() int {
	return self.sz
}

func (self *Chunk) ReadableBytes() int {
	return self.wp - self.rp
}

func (self *Chunk) WritableBytes() int {
	return self.sz - self.wp
}

// WriteSlice exposes the writable window of the chunk, capped to need bytes.
func (self *Chunk) WriteSlice(need int) []byte {
	end := self.wp + need
	if end > self.sz {
		end = self.sz
	}
	return self.data[self.wp:end]
}

// Written advances the write cursor after bytes have landed in a WriteSlice.
func (self *Chunk) Written(n int) {
	self.wp += n
}

// ReadSlice exposes the unread region of the chunk.
func (self *Chunk) ReadSlice() []byte {
	return self.data[self.rp:self.wp]
}

// Consumed advances the read cursor after bytes have been taken from a ReadSlice.
func (self *Chunk) Consumed(n int) {
	self.rp += n
}

func (self *Chunk) reset() {
	self.rp = 0
	self.wp = 0
}

// Acquire registers another reference to this chunk. Acquiring a chunk whose
// count already reached zero is a use-after-release bug and fails.
func (self *Chunk) Acquire() error {
	for {
		refs := atomic.LoadInt32(&self.refs)
		if refs <= 0 {
			return errors.Errorf("acquire on released chunk [refs=%d]", refs)
		}
		if atomic.CompareAndSwapInt32(&self.refs, refs, refs+1) {
			return nil
		}
	}
}

// release drops one reference, reporting whether this caller observed the
// transition to zero. Exactly one concurrent releaser sees true.
func (self *Chunk) release() (bool, error) {
	for {
		refs := atomic.LoadInt32(&self.refs)
		if refs <= 0 {
			return false, errors.Errorf("double release [refs=%d]", refs)
		}
		if atomic.CompareAndSwapInt32(&self.refs, refs, refs-1) {
			return refs == 1, nil
		}
	}
}

// ReleaseTo drops one reference. When the last reference to a view disappears
// the release propagates to its origin; when the last reference to a root
// disappears the root is handed to pool. Propagation is a loop, so deep view
// nesting cannot grow the stack.
func (self *Chunk) ReleaseTo(pool Pool) error {
	current := self
	for current != nil {
		zero, err := current.release()
		if err != nil {
			return err
		}
		if !zero {
			return nil
		}
		origin := current.origin
		if origin == nil {
			return pool.Recycle(current)
		}
		if err := current.unlink(); err != nil {
			return err
		}
		current = origin
	}
	return nil
}

// Duplicate produces a zero-copy view over the same backing memory with
// independent cursor state. Every view references the root chunk directly,
// keeping origin chains a single level deep no matter how many times a view
// is itself duplicated.
func (self *Chunk) Duplicate() (*Chunk, error) {
	origin := self.origin
	if origin == nil {
		origin = self
	}
	if err := origin.Acquire(); err != nil {
		return nil, errors.Wrap(err, "acquire origin")
	}
	return &Chunk{
		data:   self.data,
		sz:     self.sz,
		rp:     self.rp,
		wp:     self.wp,
		refs:   1,
		origin: origin,
	}, nil
}

// AppendNext links c as this chunk's successor. A chunk that already has a
// successor cannot be re-linked; overwriting would orphan the existing chain.
func (self *Chunk) AppendNext(c *Chunk) error {
	if !self.next.CompareAndSwap(nil, c) {
		return errors.New("append over linked successor")
	}
	return nil
}

// CleanNext detaches and returns this chunk's successor (nil when unlinked).
func (self *Chunk) CleanNext() *Chunk {
	return self.next.Swap(nil)
}

// unlink severs the chunk's links and marks it disposed. Only legal at
// refs == 0; an in-use chunk must never be unlinked.
func (self *Chunk) unlink() error {
	if !atomic.CompareAndSwapInt32(&self.refs, 0, disposed) {
		return errors.Errorf("unlink on chunk in use [refs=%d]", atomic.LoadInt32(&self.refs))
	}
	self.next.Store(nil)
	self.origin = nil
	return nil
}

// unpark resurrects a recycled chunk (refs 0 -> 1) as a pool hands it back
// out. Any other starting state means a double borrow or a disposed chunk.
func (self *Chunk) unpark() error {
	if !atomic.CompareAndSwapInt32(&self.refs, 0, 1) {
		return errors.Errorf("unpark on chunk in use [refs=%d]", atomic.LoadInt32(&self.refs))
	}
	return nil
}
