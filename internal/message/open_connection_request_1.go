package message

import (
	"github.com/gamevidea/binary/buffer"
	"github.com/gamevidea/bedrock/internal/protocol"
)

// OpenConnectionRequest1 is the first message sent by the client in the
// RakNet login sequence. It is padded with zero bytes so the whole UDP
// datagram reaches MTU bytes; a server that can receive it at that size
// knows the path supports the client's chosen MTU.
type OpenConnectionRequest1 struct {
	Protocol byte

	// MTU is the total size, including the UDP/IP header, that this
	// datagram was padded out to reach.
	MTU int
}

// Read decodes an open connection request 1 from the buffer. The ID byte
// has already been consumed by the caller.
func (pk *OpenConnectionRequest1) Read(buf *buffer.Buffer) (err error) {
	pk.MTU = protocol.UDP_HEADER_SIZE + protocol.MESSAGE_ID_SIZE + buf.Remaining()

	if err = buf.ReadMagic(); err != nil {
		return
	}

	pk.Protocol, err = buf.ReadUint8()
	return
}

// Write encodes an open connection request 1 into the buffer, including the
// leading message ID and the zero padding needed to reach pk.MTU bytes.
func (pk *OpenConnectionRequest1) Write(buf *buffer.Buffer) (err error) {
	if err = buf.WriteUint8(IDOpenConnectionRequest1); err != nil {
		return
	}

	if err = buf.WriteMagic(); err != nil {
		return
	}

	if err = buf.WriteUint8(pk.Protocol); err != nil {
		return
	}

	padding := pk.MTU - protocol.UDP_HEADER_SIZE - protocol.MESSAGE_ID_SIZE - 16 - 1
	if padding < 0 {
		padding = 0
	}

	return buf.Write(make([]byte, padding))
}
