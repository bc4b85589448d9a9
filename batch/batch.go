// Package batch implements the codec for the 0xfe game packet batch: the
// container that carries one or more Minecraft sub-packets, optionally
// compressed, inside a single RakNet message.
package batch

import (
	"bytes"
	"compress/flate"
	"errors"
	"io"

	"github.com/golang/snappy"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
)

// Compression identifies the algorithm a batch was compressed with, sent as
// the first byte of the payload once compression has been negotiated.
type Compression byte

const (
	Zlib  Compression = 0x00
	Snappy Compression = 0x01
	None  Compression = 0xff
)

// ErrUnknownCompression is returned when a batch's compression byte does
// not match any algorithm this client understands.
var ErrUnknownCompression = errors.New("batch: unknown compression algorithm")

// Codec encodes and decodes game packet batches, using whichever
// compression algorithm the server negotiated over NetworkSettings.
type Codec struct {
	enabled     bool
	compression Compression
	threshold   uint32
	pool        packet.Pool
	shieldID    int32
}

// NewCodec returns a codec that does not yet compress, matching the state
// of a connection before it receives a NetworkSettings packet: batches are
// written and read with no leading algorithm byte at all.
func NewCodec(pool packet.Pool, shieldID int32) *Codec {
	return &Codec{compression: None, pool: pool, shieldID: shieldID}
}

// SetCompression changes the algorithm used for batches written after this
// call, mirroring the compression the server announced.
func (c *Codec) SetCompression(compression Compression) {
	c.compression = compression
}

// SetCompressionThreshold records the NetworkSettings threshold below which
// a batch is sent uncompressed.
func (c *Codec) SetCompressionThreshold(threshold uint32) {
	c.threshold = threshold
}

// SetEnabled flips the codec from the pre-handshake, byte-free wire format
// to the negotiated one, which always carries a leading algorithm byte.
// It is called once NetworkSettings has been applied.
func (c *Codec) SetEnabled(enabled bool) {
	c.enabled = enabled
}

// Decode splits a raw batch payload (the bytes following the leading 0xfe
// message ID) into its individual sub-packets and decodes each with the
// packet pool, using shieldID for any packet that needs to know it.
func (c *Codec) Decode(payload []byte) ([]packet.Packet, error) {
	raw, err := c.decompress(payload)
	if err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(raw)

	var packets []packet.Packet

	for buf.Len() > 0 {
		var length uint32
		if err := protocol.Varuint32(buf, &length); err != nil {
			return packets, err
		}

		data := make([]byte, length)
		if _, err := io.ReadFull(buf, data); err != nil {
			return packets, err
		}

		pk, err := c.decodePacket(data)
		if err != nil {
			return packets, err
		}

		packets = append(packets, pk)
	}

	return packets, nil
}

// decodePacket decodes a single length-framed sub-packet: a header carrying
// the packet ID (and any sub-client bits, which this client ignores) in its
// low 10 bits, followed by the packet's own wire encoding.
func (c *Codec) decodePacket(data []byte) (packet.Packet, error) {
	buf := bytes.NewBuffer(data)

	header := &packet.Header{}
	if err := header.Read(buf); err != nil {
		return nil, err
	}

	factory, ok := c.pool[header.PacketID]
	if !ok {
		return nil, errors.New("batch: unknown packet id")
	}

	pk := factory()
	pk.Marshal(protocol.NewReader(buf, c.shieldID, false))
	return pk, nil
}

// Encode serialises packets into a single compressed batch payload, ready
// to be wrapped with the leading 0xfe message ID and sent as a game packet.
func (c *Codec) Encode(packets []packet.Packet) ([]byte, error) {
	buf := new(bytes.Buffer)

	for _, pk := range packets {
		sub := new(bytes.Buffer)

		header := &packet.Header{PacketID: pk.ID()}
		if err := header.Write(sub); err != nil {
			return nil, err
		}

		pk.Marshal(protocol.NewWriter(sub, c.shieldID))

		if err := protocol.WriteVaruint32(buf, uint32(sub.Len())); err != nil {
			return nil, err
		}

		if _, err := buf.Write(sub.Bytes()); err != nil {
			return nil, err
		}
	}

	return c.compress(buf.Bytes())
}

// compress applies the negotiated compression, or none at all if
// compression has not yet been negotiated or the payload is under
// threshold.
func (c *Codec) compress(raw []byte) ([]byte, error) {
	if !c.enabled {
		return raw, nil
	}

	if uint32(len(raw)) <= c.threshold {
		return append([]byte{byte(None)}, raw...), nil
	}

	switch c.compression {
	case Zlib:
		out := new(bytes.Buffer)
		w, err := flate.NewWriter(out, flate.DefaultCompression)
		if err != nil {
			return nil, err
		}

		if _, err := w.Write(raw); err != nil {
			return nil, err
		}

		if err := w.Close(); err != nil {
			return nil, err
		}

		return append([]byte{byte(Zlib)}, out.Bytes()...), nil
	case Snappy:
		return append([]byte{byte(Snappy)}, snappy.Encode(nil, raw)...), nil
	default:
		return append([]byte{byte(None)}, raw...), nil
	}
}

// decompress strips and applies the leading algorithm byte, or treats
// payload as raw bytes with no byte consumed if compression has not yet
// been negotiated.
func (c *Codec) decompress(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, nil
	}

	if !c.enabled {
		return payload, nil
	}

	switch Compression(payload[0]) {
	case Zlib:
		r := flate.NewReader(bytes.NewReader(payload[1:]))
		defer r.Close()

		return io.ReadAll(r)
	case Snappy:
		return snappy.Decode(nil, payload[1:])
	case None:
		return payload[1:], nil
	default:
		return nil, ErrUnknownCompression
	}
}
