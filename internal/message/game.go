package message

import "github.com/gamevidea/binary/buffer"

// GamePacket carries the raw, still-compressed batch of Minecraft sub-packets
// that rides inside a single 0xfe encapsulated frame.
type GamePacket struct {
	Data []byte
}

// Read copies the remainder of the frame's payload into pk.Data. The ID byte
// has already been consumed by the caller.
func (pk *GamePacket) Read(buf *buffer.Buffer) (err error) {
	pk.Data = make([]byte, buf.Remaining())
	return buf.Read(pk.Data)
}

// Write encodes the leading message ID followed by the raw batch bytes.
func (pk *GamePacket) Write(buf *buffer.Buffer) (err error) {
	if err = buf.WriteUint8(IDGamePacket); err != nil {
		return
	}

	return buf.Write(pk.Data)
}
