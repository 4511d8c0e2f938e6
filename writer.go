package chunkstream

import (
	"io"

	"github.com/pkg/errors"
)

// WritePacket drains packet into sink. A full drain releases every chunk and
// returns a nil remainder. A sink that accepts zero bytes while the packet
// still holds data ends the drain early; the remaining packet is returned to
// the caller intact for a later retry. A sink fault releases the remaining
// packet before the error propagates, since the caller gets no handle to
// clean it up.
func WritePacket(sink io.Writer, packet *Packet) (*Packet, error) {
	for {
		head := packet.head
		if head == nil {
			return nil, nil
		}

		if head.ReadableBytes() == 0 {
			packet.head = head.CleanNext()
			if err := head.ReleaseTo(packet.pool); err != nil {
				_ = packet.Release()
				return nil, err
			}
			continue
		}

		n, err := sink.Write(head.ReadSlice())
		if n > 0 {
			head.Consumed(n)
		}
		if err != nil {
			_ = packet.Release()
			return nil, errors.Wrap(err, "write")
		}
		if n == 0 {
			return packet, nil
		}
	}
}
