package chunkstream

// Packet is an ordered chain of chunks representing one logical byte
// sequence, together with the pool its chunks are returned to. A packet owns
// its chain; holders release it exactly once.
type Packet struct {
	head *Chunk
	pool Pool
}

func NewPacket(head *Chunk, pool Pool) *Packet {
	return &Packet{head: head, pool: pool}
}

func EmptyPacket(pool Pool) *Packet {
	return &Packet{pool: pool}
}

func (self *Packet) Pool() Pool {
	return self.pool
}

// IsEmpty is true when the packet holds no unread bytes.
func (self *Packet) IsEmpty() bool {
	return self.head == nil || (self.head.ReadableBytes() == 0 && self.head.next.Load() == nil)
}

// Size walks the chain totaling unread bytes.
func (self *Packet) Size() int {
	sz := 0
	for c := self.head; c != nil; c = c.next.Load() {
		sz += c.ReadableBytes()
	}
	return sz
}

// Read exposes the head chunk to consumer, which returns how many bytes it
// took. Exhausted head chunks are released and removed before the next chunk
// is exposed. A no-op on an empty packet.
func (self *Packet) Read(consumer func(c *Chunk) (int, error)) error {
	for self.head != nil {
		if self.head.ReadableBytes() == 0 {
			next := self.head.CleanNext()
			err := self.head.ReleaseTo(self.pool)
			self.head = next
			if err != nil {
				return err
			}
			continue
		}
		n, err := consumer(self.head)
		if err != nil {
			return err
		}
		self.head.Consumed(n)
		return nil
	}
	return nil
}

// Release returns every chunk in the chain to the pool. Each chunk is
// detached from its successor before it is released, so a failure mid-walk
// cannot revisit a chunk or double-release a successor.
func (self *Packet) Release() error {
	head := self.head
	self.head = nil
	return releaseChain(head, self.pool)
}

func releaseChain(head *Chunk, pool Pool) error {
	current := head
	for current != nil {
		next := current.CleanNext()
		if err := current.ReleaseTo(pool); err != nil {
			return err
		}
		current = next
	}
	return nil
}
