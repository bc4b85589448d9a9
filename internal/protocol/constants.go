package protocol

// PROTOCOL_VERSION is the Raknet protocol version this client speaks. The
// server replies with IncompatibleProtocolVersion during OpenConnectionRequest1
// if it disagrees.
const PROTOCOL_VERSION byte = 11

// MTU is the fixed datagram size used for the entire lifetime of a
// connection. This client never performs MTU discovery: OpenConnectionRequest1
// is padded out to this size and OpenConnectionRequest2 advertises it directly.
const MTU int = 1492

// MESSAGE_ID_SIZE is the size taken by a raknet message to represent the ID in bytes.
const MESSAGE_ID_SIZE int = 1

// UDP_HEADER_SIZE contains the size of the UDP header.
// IP Header Size (20 bytes)
// UDP header size (8 bytes)
const UDP_HEADER_SIZE int = 20 + 8

// FRAME_HEADER_SIZE contains the frame set header size.
// Header (uint8)
// Sequence Number (uint24)
const FRAME_HEADER_SIZE int = 1 + 3

// FRAME_BODY_SIZE contains the fixed size of a single frame's own header.
// Frame Header (uint8)
// Content Length (uint16, in bits)
// Message Index (uint24)
// Order Index (uint24)
// Order Channel (uint8)
const FRAME_BODY_SIZE int = 1 + 2 + 3 + 3 + 1

// FRAME_ADDITIONAL_SIZE contains the additional size of a frame that is
// fragmented.
// Fragment Count (uint32)
// Fragment ID (uint16)
// Fragment Index (uint32)
const FRAME_ADDITIONAL_SIZE int = 4 + 2 + 4

// FLAG_DATAGRAM is sent for all raknet frame-set datagrams including ACK/NACK receipts.
const FLAG_DATAGRAM uint8 = 0x80

// FLAG_NEEDS_B_AND_AS is set on every frame-set datagram. It serves no actual
// purpose in MCBE, but real RakNet peers expect it to be present.
const FLAG_NEEDS_B_AND_AS uint8 = 0x04

// FLAG_ACK is set for those datagrams that contain an ACK receipt.
const FLAG_ACK uint8 = 0x40

// FLAG_NACK is set for those datagrams that contain a NACK receipt.
const FLAG_NACK uint8 = 0x20

// FLAG_FRAGMENTED is set for those frames that are one part of a split message.
const FLAG_FRAGMENTED uint8 = 0x10

// NUM_CHANNELS is the number of independent order/sequence channels a
// connection maintains. MCBE only ever uses channel 0, but the wire format
// reserves the full range and the session keeps state for all of them.
const NUM_CHANNELS int = 32

// MAX_RECEIPTS is the number of maximum receipts we can receive in one ACK/NACK message.
const MAX_RECEIPTS int = 250

// MAX_FRAME_COUNT is the number of maximum frames that a single raknet frame set can hold.
const MAX_FRAME_COUNT int = 512

// MAX_FRAGMENT_COUNT is the number of maximum fragments that a raknet message can have.
const MAX_FRAGMENT_COUNT uint32 = 512
