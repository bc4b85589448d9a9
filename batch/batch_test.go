package batch

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
)

func testPool() packet.Pool {
	pool := packet.NewPool()
	return pool
}

func TestCodecRoundTripUncompressed(t *testing.T) {
	codec := NewCodec(testPool(), 0)
	codec.SetEnabled(true)

	pk := &packet.Text{TextType: packet.TextTypeRaw, Message: "hello"}

	raw, err := codec.Encode([]packet.Packet{pk})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(decoded) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(decoded))
	}

	got, ok := decoded[0].(*packet.Text)
	if !ok {
		t.Fatalf("expected *packet.Text, got %T", decoded[0])
	}

	if diff := cmp.Diff(pk.Message, got.Message); diff != "" {
		t.Fatalf("message mismatch: %s", diff)
	}
}

func TestCodecRoundTripZlib(t *testing.T) {
	codec := NewCodec(testPool(), 0)
	codec.SetCompression(Zlib)
	codec.SetEnabled(true)

	pk := &packet.Text{TextType: packet.TextTypeRaw, Message: "compressed"}

	raw, err := codec.Encode([]packet.Packet{pk})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	got := decoded[0].(*packet.Text)
	if got.Message != pk.Message {
		t.Fatalf("got %q, want %q", got.Message, pk.Message)
	}
}

func TestCodecRoundTripSnappy(t *testing.T) {
	codec := NewCodec(testPool(), 0)
	codec.SetCompression(Snappy)
	codec.SetEnabled(true)

	pk := &packet.Text{TextType: packet.TextTypeRaw, Message: "snappy"}

	raw, err := codec.Encode([]packet.Packet{pk})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	got := decoded[0].(*packet.Text)
	if got.Message != pk.Message {
		t.Fatalf("got %q, want %q", got.Message, pk.Message)
	}
}

func TestDecodeUnknownCompression(t *testing.T) {
	codec := NewCodec(testPool(), 0)
	codec.SetEnabled(true)

	_, err := codec.Decode([]byte{0x42, 0x01, 0x02})
	if err != ErrUnknownCompression {
		t.Fatalf("expected ErrUnknownCompression, got %v", err)
	}
}

func TestCodecNotEnabledPassesThroughRaw(t *testing.T) {
	codec := NewCodec(testPool(), 0)

	pk := &packet.RequestNetworkSettings{ClientProtocol: 685}

	raw, err := codec.Encode([]packet.Packet{pk})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	got, ok := decoded[0].(*packet.RequestNetworkSettings)
	if !ok {
		t.Fatalf("expected *packet.RequestNetworkSettings, got %T", decoded[0])
	}

	if got.ClientProtocol != pk.ClientProtocol {
		t.Fatalf("got %v, want %v", got.ClientProtocol, pk.ClientProtocol)
	}
}

func TestCodecBelowThresholdSkipsCompression(t *testing.T) {
	codec := NewCodec(testPool(), 0)
	codec.SetCompression(Zlib)
	codec.SetEnabled(true)
	codec.SetCompressionThreshold(1 << 20)

	pk := &packet.Text{TextType: packet.TextTypeRaw, Message: "small"}

	raw, err := codec.Encode([]packet.Packet{pk})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if Compression(raw[0]) != None {
		t.Fatalf("expected a batch under threshold to skip compression, got algorithm byte %#x", raw[0])
	}

	decoded, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded[0].(*packet.Text).Message != pk.Message {
		t.Fatalf("round trip mismatch")
	}
}
