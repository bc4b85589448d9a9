package protocol

import (
	"errors"

	"github.com/gamevidea/binary/buffer"
	"github.com/gamevidea/binary/byteorder"
)

// ErrZeroLength is returned when a frame's encoded content length decodes to zero.
var ErrZeroLength = errors.New("raknet: frame content length decoded to zero")

// Frame is a single reliability-annotated payload inside a frame set. It
// carries whichever of the reliable/order/sequence/fragment fields its
// Reliability requires; the others are left zero.
type Frame struct {
	Reliability   Reliability
	Fragmented    bool
	ReliableIndex uint32
	SequenceIndex uint32
	OrderIndex    uint32
	OrderChannel  uint8
	FragmentCount uint32
	FragmentID    uint16
	FragmentIndex uint32
	Payload       []byte
}

// Size returns the number of bytes this frame will occupy once encoded,
// used by the outbound queue to decide whether a frame set needs to be
// flushed before this frame is appended.
func (f *Frame) Size() int {
	size := 1 + 2 + len(f.Payload)
	if f.Reliability.Reliable() {
		size += 3
	}
	if f.Reliability.Sequenced() {
		size += 3
	}
	if f.Reliability.SequencedOrdered() {
		size += 3 + 1
	}
	if f.Fragmented {
		size += FRAME_ADDITIONAL_SIZE
	}
	return size
}

// Write encodes the frame (excluding the leading frame-set header) into buf.
func (f *Frame) Write(buf *buffer.Buffer) error {
	header := byte(f.Reliability) << 5
	if f.Fragmented {
		header |= FLAG_FRAGMENTED
	}

	if err := buf.WriteUint8(header); err != nil {
		return err
	}

	if err := buf.WriteUint16(uint16(len(f.Payload))<<3, byteorder.BigEndian); err != nil {
		return err
	}

	if f.Reliability.Reliable() {
		if err := buf.WriteUint24(f.ReliableIndex, byteorder.LittleEndian); err != nil {
			return err
		}
	}

	if f.Reliability.Sequenced() {
		if err := buf.WriteUint24(f.SequenceIndex, byteorder.LittleEndian); err != nil {
			return err
		}
	}

	if f.Reliability.SequencedOrdered() {
		if err := buf.WriteUint24(f.OrderIndex, byteorder.LittleEndian); err != nil {
			return err
		}

		if err := buf.WriteUint8(f.OrderChannel); err != nil {
			return err
		}
	}

	if f.Fragmented {
		if err := buf.WriteUint32(f.FragmentCount, byteorder.BigEndian); err != nil {
			return err
		}

		if err := buf.WriteUint16(f.FragmentID, byteorder.BigEndian); err != nil {
			return err
		}

		if err := buf.WriteUint32(f.FragmentIndex, byteorder.BigEndian); err != nil {
			return err
		}
	}

	return buf.Write(f.Payload)
}

// Read decodes one frame from buf, advancing it past the frame's bytes.
func (f *Frame) Read(buf *buffer.Buffer) error {
	header, err := buf.ReadUint8()
	if err != nil {
		return err
	}

	f.Fragmented = header&FLAG_FRAGMENTED != 0
	f.Reliability = Reliability((header & 0xe0) >> 5)

	lengthBits, err := buf.ReadUint16(byteorder.BigEndian)
	if err != nil {
		return err
	}

	length := lengthBits >> 3
	if length == 0 {
		return ErrZeroLength
	}

	if f.Reliability.Reliable() {
		if f.ReliableIndex, err = buf.ReadUint24(byteorder.LittleEndian); err != nil {
			return err
		}
	}

	if f.Reliability.Sequenced() {
		if f.SequenceIndex, err = buf.ReadUint24(byteorder.LittleEndian); err != nil {
			return err
		}
	}

	if f.Reliability.SequencedOrdered() {
		if f.OrderIndex, err = buf.ReadUint24(byteorder.LittleEndian); err != nil {
			return err
		}

		if f.OrderChannel, err = buf.ReadUint8(); err != nil {
			return err
		}
	}

	if f.Fragmented {
		if f.FragmentCount, err = buf.ReadUint32(byteorder.BigEndian); err != nil {
			return err
		}

		if f.FragmentID, err = buf.ReadUint16(byteorder.BigEndian); err != nil {
			return err
		}

		if f.FragmentIndex, err = buf.ReadUint32(byteorder.BigEndian); err != nil {
			return err
		}
	}

	f.Payload = make([]byte, length)
	return buf.Read(f.Payload)
}
