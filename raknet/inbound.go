package raknet

import (
	"github.com/gamevidea/bedrock/internal/protocol"
	"github.com/gamevidea/binary/buffer"
	"github.com/gamevidea/binary/byteorder"
)

// inbound owns everything needed to turn datagrams arriving off the wire
// back into ordered, deduplicated, reassembled message payloads.
type inbound struct {
	sequences sequenceWindow
	messages  messageWindow
	channels  [protocol.NUM_CHANNELS]orderWindow
	fragments map[uint16]*fragmentAssembly
}

func newInbound() *inbound {
	in := &inbound{
		sequences: newSequenceWindow(),
		messages:  newMessageWindow(),
		fragments: make(map[uint16]*fragmentAssembly),
	}

	for i := range in.channels {
		in.channels[i] = newOrderWindow()
	}

	return in
}

// HandleDatagram decodes a connected datagram's frame set and returns every
// message payload that is ready for delivery, in delivery order.
func (in *inbound) HandleDatagram(buf *buffer.Buffer) ([][]byte, error) {
	seq, err := buf.ReadUint24(byteorder.LittleEndian)
	if err != nil {
		return nil, err
	}

	if !in.sequences.Receive(seq) {
		return nil, nil
	}

	var delivered [][]byte
	count := 0

	for buf.Remaining() > 0 {
		frame := &protocol.Frame{}
		if err := frame.Read(buf); err != nil {
			return delivered, err
		}

		count++
		if count > protocol.MAX_FRAME_COUNT {
			return delivered, errTooManyFrames
		}

		ready, err := in.handleFrame(frame)
		if err != nil {
			return delivered, err
		}

		delivered = append(delivered, ready...)
	}

	return delivered, nil
}

// handleFrame applies deduplication, reassembly, and ordering to a single
// decoded frame. It returns every payload that became ready for delivery
// as a result, which may be more than one when this frame unblocks a run
// of already-buffered out-of-order messages on its channel.
func (in *inbound) handleFrame(frame *protocol.Frame) ([][]byte, error) {
	if frame.Reliability.Reliable() && !in.messages.Receive(frame.ReliableIndex) {
		return nil, nil
	}

	payload := frame.Payload

	if frame.Fragmented {
		if frame.FragmentCount > protocol.MAX_FRAGMENT_COUNT {
			return nil, errTooManyFragments
		}

		assembly, ok := in.fragments[frame.FragmentID]
		if !ok {
			assembly = newFragmentAssembly(frame.FragmentCount)
			in.fragments[frame.FragmentID] = assembly
		}

		joined := assembly.Add(frame.FragmentIndex, frame.Payload)
		if joined == nil {
			return nil, nil
		}

		delete(in.fragments, frame.FragmentID)
		payload = joined
	}

	if !frame.Reliability.SequencedOrdered() {
		return [][]byte{payload}, nil
	}

	return in.channels[frame.OrderChannel].Receive(frame.OrderIndex, payload), nil
}

// PendingAcks returns the datagram sequence numbers received since the last
// call and clears them, for the periodic ACK flush.
func (in *inbound) PendingAcks() []uint32 {
	if len(in.sequences.acks) == 0 {
		return nil
	}

	acks := make([]uint32, 0, len(in.sequences.acks))
	for seq := range in.sequences.acks {
		acks = append(acks, seq)
	}

	clear(in.sequences.acks)
	return acks
}

// PendingNacks returns the datagram sequence numbers still missing since
// the last call and clears them, for the periodic NACK flush.
func (in *inbound) PendingNacks() []uint32 {
	if len(in.sequences.nacks) == 0 {
		return nil
	}

	nacks := make([]uint32, 0, len(in.sequences.nacks))
	for seq := range in.sequences.nacks {
		nacks = append(nacks, seq)
	}

	clear(in.sequences.nacks)
	return nacks
}
