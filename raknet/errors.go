package raknet

import "errors"

// ErrIncompatibleProtocol is returned when the remote peer rejects our
// protocol version during the open connection handshake.
var ErrIncompatibleProtocol = errors.New("raknet: incompatible protocol version")

// ErrNoResponse is returned when the remote peer does not answer the
// handshake within the dial timeout.
var ErrNoResponse = errors.New("raknet: no response from remote peer")

// ErrConnectionClosed is returned by operations attempted on a connection
// that has already been closed, locally or by the remote peer.
var ErrConnectionClosed = errors.New("raknet: connection closed")

// errDatagramFlag is returned when a datagram does not start with the
// datagram flag, as every connected RakNet datagram must.
var errDatagramFlag = errors.New("raknet: buffer does not carry the datagram flag")

// errRecordType is returned when an ACK/NACK record has an unrecognised
// record type byte.
var errRecordType = errors.New("raknet: invalid receipt record type")

// errZeroFrameLength is returned when a frame's encoded length decodes to zero.
var errZeroFrameLength = errors.New("raknet: frame length decoded to zero")

// errTooManyFrames is returned when a single datagram carries more frames
// than a connection is willing to process.
var errTooManyFrames = errors.New("raknet: datagram exceeds the maximum frame count")

// errTooManyFragments is returned when a split message claims more
// fragments than a connection is willing to buffer.
var errTooManyFragments = errors.New("raknet: split message exceeds the maximum fragment count")
