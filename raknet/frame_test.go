package raknet

import (
	"testing"

	"github.com/gamevidea/bedrock/internal/protocol"
	"github.com/gamevidea/binary/buffer"
)

func TestFrameWriteReadRoundTrip(t *testing.T) {
	frame := &protocol.Frame{
		Reliability:   protocol.ReliableOrdered,
		ReliableIndex: 5,
		OrderIndex:    2,
		OrderChannel:  1,
		Payload:       []byte("hello world"),
	}

	buf := buffer.New(64)
	if err := frame.Write(buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	buf.SetOffset(0)

	got := &protocol.Frame{}
	if err := got.Read(buf); err != nil {
		t.Fatalf("read: %v", err)
	}

	if got.ReliableIndex != frame.ReliableIndex || got.OrderIndex != frame.OrderIndex {
		t.Fatalf("index mismatch: %+v", got)
	}

	if string(got.Payload) != "hello world" {
		t.Fatalf("payload mismatch: %q", got.Payload)
	}
}

func TestOutboundInboundRoundTrip(t *testing.T) {
	out := newOutbound(protocol.MTU)
	in := newInbound()

	var sent [][]byte
	send := func(raw []byte) error {
		sent = append(sent, raw)
		return nil
	}

	payload := []byte("connected ping payload")
	if err := out.Queue(send, payload, protocol.ReliableOrdered, 0, protocol.Immediate); err != nil {
		t.Fatalf("queue: %v", err)
	}

	if len(sent) != 1 {
		t.Fatalf("expected 1 datagram, got %d", len(sent))
	}

	buf := buffer.From(sent[0])
	if _, err := buf.ReadUint8(); err != nil {
		t.Fatalf("read header: %v", err)
	}

	delivered, err := in.HandleDatagram(buf)
	if err != nil {
		t.Fatalf("handle datagram: %v", err)
	}

	if len(delivered) != 1 || string(delivered[0]) != string(payload) {
		t.Fatalf("unexpected delivery: %v", delivered)
	}
}

func TestOutboundFragmentsLargePayload(t *testing.T) {
	out := newOutbound(protocol.MTU)
	in := newInbound()

	payload := make([]byte, protocol.MTU*3)
	for i := range payload {
		payload[i] = byte(i % 256)
	}

	var sent [][]byte
	send := func(raw []byte) error {
		sent = append(sent, raw)
		return nil
	}

	if err := out.Queue(send, payload, protocol.ReliableOrdered, 0, protocol.Immediate); err != nil {
		t.Fatalf("queue: %v", err)
	}

	if len(sent) < 2 {
		t.Fatalf("expected payload to be split across multiple datagrams, got %d", len(sent))
	}

	var delivered [][]byte
	for _, raw := range sent {
		buf := buffer.From(raw)
		if _, err := buf.ReadUint8(); err != nil {
			t.Fatalf("read header: %v", err)
		}

		ready, err := in.HandleDatagram(buf)
		if err != nil {
			t.Fatalf("handle datagram: %v", err)
		}

		delivered = append(delivered, ready...)
	}

	if len(delivered) != 1 {
		t.Fatalf("expected 1 reassembled message, got %d", len(delivered))
	}

	if len(delivered[0]) != len(payload) {
		t.Fatalf("expected reassembled length %d, got %d", len(payload), len(delivered[0]))
	}

	for i := range payload {
		if delivered[0][i] != payload[i] {
			t.Fatalf("payload mismatch at byte %d", i)
		}
	}
}

func TestOrderWindowBuffersOutOfOrderFrames(t *testing.T) {
	w := newOrderWindow()

	if ready := w.Receive(1, []byte("b")); len(ready) != 0 {
		t.Fatalf("expected frame 1 to wait for frame 0, got %v", ready)
	}

	ready := w.Receive(0, []byte("a"))
	if len(ready) != 2 {
		t.Fatalf("expected frames 0 and 1 to both become ready, got %d", len(ready))
	}

	if string(ready[0]) != "a" || string(ready[1]) != "b" {
		t.Fatalf("unexpected order: %v", ready)
	}
}

func TestOutboundOrderIndexSequencedVsOrdered(t *testing.T) {
	out := newOutbound(protocol.MTU)

	send := func([]byte) error { return nil }

	if err := out.Queue(send, []byte("a"), protocol.ReliableSequenced, 0, protocol.Immediate); err != nil {
		t.Fatalf("queue a: %v", err)
	}

	if out.channels[0].orderIndex != 0 {
		t.Fatalf("expected a sequenced frame to reuse order index 0, got %d", out.channels[0].orderIndex)
	}

	if out.channels[0].sequenceIndex != 1 {
		t.Fatalf("expected sequence index to advance to 1, got %d", out.channels[0].sequenceIndex)
	}

	if err := out.Queue(send, []byte("b"), protocol.ReliableSequenced, 0, protocol.Immediate); err != nil {
		t.Fatalf("queue b: %v", err)
	}

	if out.channels[0].orderIndex != 0 {
		t.Fatalf("expected a second sequenced frame to still reuse order index 0, got %d", out.channels[0].orderIndex)
	}

	if out.channels[0].sequenceIndex != 2 {
		t.Fatalf("expected sequence index to advance to 2, got %d", out.channels[0].sequenceIndex)
	}

	if err := out.Queue(send, []byte("c"), protocol.ReliableOrdered, 0, protocol.Immediate); err != nil {
		t.Fatalf("queue c: %v", err)
	}

	if out.channels[0].orderIndex != 1 {
		t.Fatalf("expected an order-exclusive frame to advance order index to 1, got %d", out.channels[0].orderIndex)
	}

	if out.channels[0].sequenceIndex != 0 {
		t.Fatalf("expected an order-exclusive frame to reset sequence index to 0, got %d", out.channels[0].sequenceIndex)
	}

	if err := out.Queue(send, []byte("d"), protocol.ReliableSequenced, 0, protocol.Immediate); err != nil {
		t.Fatalf("queue d: %v", err)
	}

	if out.channels[0].orderIndex != 1 {
		t.Fatalf("expected a sequenced frame after the ordered one to reuse order index 1, got %d", out.channels[0].orderIndex)
	}
}

func TestFragmentAssemblyNeverClobbersASlot(t *testing.T) {
	assembly := newFragmentAssembly(3)

	if joined := assembly.Add(0, []byte("a")); joined != nil {
		t.Fatalf("expected incomplete assembly, got %v", joined)
	}

	if joined := assembly.Add(0, []byte("duplicate")); joined != nil {
		t.Fatalf("expected duplicate fragment index to be ignored, got %v", joined)
	}

	assembly.Add(1, []byte("b"))
	joined := assembly.Add(2, []byte("c"))

	if string(joined) != "abc" {
		t.Fatalf("got %q", joined)
	}
}
