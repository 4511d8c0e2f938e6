package chunkstream

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// UnderflowError reports a source that reached end of stream before the
// minimum byte count was collected.
type UnderflowError struct {
	Read     int
	Required int
}

func (self *UnderflowError) Error() string {
	if self.Read == 0 {
		return fmt.Sprintf("end of stream before any data [required %d]", self.Required)
	}
	return fmt.Sprintf("end of stream after [%d] bytes [required %d]", self.Read, self.Required)
}

// ReadPacket builds a packet from source, collecting at least min and at most
// max bytes. With min == 0 a single best-effort read is attempted and end of
// stream is an acceptable stop; with min > 0 end of stream before min bytes
// is an underflow. The partially built chain is released on every failure
// path, so no chunks leak out of pool accounting.
func ReadPacket(source io.Reader, pool Pool, min, max int, p *Profile) (*Packet, error) {
	if min < 0 || max < 0 || min > max {
		return nil, errors.Errorf("invalid read bounds [%d, %d]", min, max)
	}
	if max == 0 {
		return EmptyPacket(pool), nil
	}
	if p == nil {
		p = NewBaselineProfile()
	}

	var head, tail *Chunk
	read := 0
	ok := false
	defer func() {
		if !ok && head != nil {
			_ = releaseChain(head, pool)
		}
	}()

	for {
		need := max - read
		if p.MaxReadSz > 0 && need > p.MaxReadSz {
			need = p.MaxReadSz
		}

		if tail == nil || (tail.WritableBytes() < p.TailReuseThresh && tail.WritableBytes() < need) {
			c, err := pool.Borrow()
			if err != nil {
				return nil, errors.Wrap(err, "borrow")
			}
			if c.WritableBytes() == 0 {
				_ = c.ReleaseTo(pool)
				return nil, errors.New("pool produced chunk with no writable space")
			}
			if tail == nil {
				head = c
				tail = c
			} else {
				if err := tail.AppendNext(c); err != nil {
					_ = c.ReleaseTo(pool)
					return nil, err
				}
				tail = c
			}
		}

		n, err := source.Read(tail.WriteSlice(need))
		if n > 0 {
			tail.Written(n)
			read += n
		}
		if err != nil {
			if err == io.EOF {
				if read < min {
					return nil, &UnderflowError{Read: read, Required: min}
				}
				break
			}
			return nil, errors.Wrap(err, "read")
		}
		if min == 0 || read >= min {
			break
		}
	}

	ok = true
	if read == 0 {
		if head != nil {
			if err := releaseChain(head, pool); err != nil {
				return nil, err
			}
		}
		return EmptyPacket(pool), nil
	}
	return NewPacket(head, pool), nil
}
