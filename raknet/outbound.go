package raknet

import (
	"slices"
	"time"

	"github.com/gamevidea/bedrock/internal/protocol"
	"github.com/gamevidea/binary/buffer"
	"github.com/gamevidea/binary/byteorder"
)

// channelState tracks the per-channel counters a connection must keep for
// reliable-ordered and sequenced delivery. RakNet gives every connection
// protocol.NUM_CHANNELS of these, independent of one another.
type channelState struct {
	orderIndex    uint32
	sequenceIndex uint32
}

// outbound owns everything needed to turn queued messages into frame sets
// on the wire: per-channel ordering state, fragmentation, MTU-aware
// batching, and the backup copies needed to answer a NACK.
type outbound struct {
	mtu int

	channels      [protocol.NUM_CHANNELS]channelState
	reliableIndex uint32
	fragmentID    uint16
	sequenceNumber uint32

	batch  *buffer.Buffer
	backup map[uint32][]byte

	lastFlush time.Time
}

func newOutbound(mtu int) *outbound {
	o := &outbound{
		mtu:    mtu,
		batch:  buffer.New(mtu),
		backup: make(map[uint32][]byte),
	}

	o.batch.SetOffset(4)
	return o
}

// maxFramePayload is the largest payload that can fit in a single,
// unfragmented frame given the connection's MTU.
func (o *outbound) maxFramePayload() int {
	return o.mtu - protocol.UDP_HEADER_SIZE - protocol.FRAME_HEADER_SIZE - protocol.FRAME_BODY_SIZE - protocol.FRAME_ADDITIONAL_SIZE
}

// Queue encodes msg and appends one or more frames for it to the current
// batch, flushing to the socket first if the batch has no room left, or
// immediately afterwards if priority demands it or the reliability is not
// ReliableOrdered (pings, acks-adjacent traffic should not wait on a tick).
func (o *outbound) Queue(send func([]byte) error, payload []byte, reliability protocol.Reliability, channel uint8, priority protocol.Priority) error {
	maxPayload := o.maxFramePayload()

	// Sequenced frames (Reliable/UnreliableSequenced) reuse the channel's
	// current order index and never advance it; only the order-exclusive
	// reliability (ReliableOrdered) advances it, and doing so resets the
	// channel's sequence index back to zero.
	var orderIndex uint32
	if reliability.Sequenced() {
		orderIndex = o.channels[channel].orderIndex
	} else if reliability.SequencedOrdered() {
		orderIndex = o.channels[channel].orderIndex
		o.channels[channel].orderIndex++
		o.channels[channel].sequenceIndex = 0
	}

	fragments := splitPayload(payload, maxPayload)
	fragmented := len(fragments) > 1

	var fragmentID uint16
	if fragmented {
		fragmentID = o.fragmentID
		o.fragmentID++
	}

	for i, part := range fragments {
		frame := &protocol.Frame{
			Reliability:  reliability,
			Fragmented:   fragmented,
			OrderIndex:   orderIndex,
			OrderChannel: channel,
			Payload:      part,
		}

		if reliability.Reliable() {
			frame.ReliableIndex = o.reliableIndex
			o.reliableIndex++
		}

		if reliability.Sequenced() {
			frame.SequenceIndex = o.channels[channel].sequenceIndex
			o.channels[channel].sequenceIndex++
		}

		if fragmented {
			frame.FragmentCount = uint32(len(fragments))
			frame.FragmentID = fragmentID
			frame.FragmentIndex = uint32(i)
		}

		if frame.Size() > o.batch.Remaining() && o.batch.Offset() > 4 {
			if err := o.flush(send); err != nil {
				return err
			}
		}

		if err := frame.Write(o.batch); err != nil {
			return err
		}
	}

	if priority == protocol.Immediate || reliability != protocol.ReliableOrdered {
		return o.flush(send)
	}

	return nil
}

// splitPayload breaks payload into chunks no larger than max, preserving
// order. A payload that already fits returns a single chunk.
func splitPayload(payload []byte, max int) [][]byte {
	if len(payload) <= max {
		return [][]byte{payload}
	}

	count := len(payload) / max
	if len(payload)%max != 0 {
		count++
	}

	chunks := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		start := i * max
		end := start + max
		if end > len(payload) {
			end = len(payload)
		}

		chunks = append(chunks, payload[start:end])
	}

	return chunks
}

// Flush forces whatever is pending in the current batch out to the wire,
// if there is anything pending at all.
func (o *outbound) Flush(send func([]byte) error) error {
	if o.batch.Offset() <= 4 {
		return nil
	}

	return o.flush(send)
}

// flush wraps the pending frame bytes in a datagram header, stashes a copy
// for retransmission, and hands the result to send.
func (o *outbound) flush(send func([]byte) error) error {
	defer func() {
		o.lastFlush = time.Now()
		o.batch.Reset()
		o.batch.SetOffset(4)
	}()

	body := make([]byte, o.batch.Offset()-4)
	copy(body, o.batch.Bytes()[4:])

	return o.sendDatagram(body, send)
}

// sendDatagram assigns body the next sequence number, stores it for
// possible retransmission, and writes it to the wire.
func (o *outbound) sendDatagram(body []byte, send func([]byte) error) error {
	seq := o.sequenceNumber
	o.sequenceNumber++

	o.backup[seq] = body

	out := buffer.New(protocol.UDP_HEADER_SIZE + len(body))
	if err := out.WriteUint8(protocol.FLAG_DATAGRAM | protocol.FLAG_NEEDS_B_AND_AS); err != nil {
		return err
	}

	if err := out.WriteUint24(seq, byteorder.LittleEndian); err != nil {
		return err
	}

	if err := out.Write(body); err != nil {
		return err
	}

	return send(out.Bytes())
}

// Acknowledge discards the backup copy of every sequence number the peer
// has confirmed receiving.
func (o *outbound) Acknowledge(sequences []uint32) {
	for _, seq := range sequences {
		delete(o.backup, seq)
	}
}

// Retransmit resends the backup copy of every sequence number the peer has
// reported missing, each under a fresh sequence number.
func (o *outbound) Retransmit(sequences []uint32, send func([]byte) error) error {
	for _, seq := range sequences {
		body, ok := o.backup[seq]
		if !ok {
			continue
		}

		delete(o.backup, seq)

		if err := o.sendDatagram(body, send); err != nil {
			return err
		}
	}

	return nil
}

// writeReceipts encodes an ACK or NACK packet covering sequences, collapsing
// consecutive runs into ranged records the way RakNet's wire format expects.
func writeReceipts(flag byte, sequences []uint32) ([]byte, error) {
	buf := buffer.New(protocol.UDP_HEADER_SIZE + len(sequences)*4)
	if err := buf.WriteUint8(protocol.FLAG_DATAGRAM | flag); err != nil {
		return nil, err
	}

	buf.SetOffset(3)
	slices.Sort(sequences)

	first := sequences[0]
	last := sequences[0]
	var recordCount int16

	for i := 1; i <= len(sequences); i++ {
		if i < len(sequences) && sequences[i] == last+1 {
			last = sequences[i]
			continue
		}

		if first == last {
			if err := buf.WriteUint8(protocol.SingleRecord); err != nil {
				return nil, err
			}

			if err := buf.WriteUint24(first, byteorder.LittleEndian); err != nil {
				return nil, err
			}
		} else {
			if err := buf.WriteUint8(protocol.RangedRecord); err != nil {
				return nil, err
			}

			if err := buf.WriteUint24(first, byteorder.LittleEndian); err != nil {
				return nil, err
			}

			if err := buf.WriteUint24(last, byteorder.LittleEndian); err != nil {
				return nil, err
			}
		}

		if i < len(sequences) {
			first = sequences[i]
			last = sequences[i]
		}
		recordCount++
	}

	offset := buf.Offset()
	buf.SetOffset(1)

	if err := buf.WriteInt16(recordCount, byteorder.BigEndian); err != nil {
		return nil, err
	}

	buf.SetOffset(offset)
	return buf.Bytes(), nil
}
