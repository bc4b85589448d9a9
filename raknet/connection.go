package raknet

import (
	"math/rand"
	"net"
	"time"

	"github.com/gamevidea/bedrock/internal/message"
	"github.com/gamevidea/bedrock/internal/protocol"
	"github.com/gamevidea/binary/buffer"
	"github.com/gamevidea/binary/byteorder"
)

// State describes the lifecycle of a connection as seen purely at the
// RakNet layer; it says nothing about Minecraft login progress, which the
// session package tracks separately on top of this.
type State uint8

const (
	Connecting State = iota
	Connected
	Disconnected
)

// ackTick is how often pending ACKs and NACKs are flushed to the peer.
const ackTick = 10 * time.Millisecond

// detectionTimeout is how long a connection tolerates silence from its
// peer before declaring it lost.
const detectionTimeout = 10 * time.Second

// Conn is an established, client-initiated RakNet connection. It hides the
// datagram transport, reliability, fragmentation, and ordering machinery
// behind a stream of decoded message payloads.
type Conn struct {
	socket     *net.UDPConn
	remoteAddr *net.UDPAddr
	guid       int64
	mtu        int

	out *outbound
	in  *inbound

	state        State
	lastActivity time.Time

	incoming chan []byte
	closed   chan struct{}
	errs     chan error
}

// Dial performs the four-message RakNet open-connection handshake against
// addr and, once the transport is established, the ConnectionRequest /
// ConnectionRequestAccepted / NewIncomingConnection exchange that brings the
// connection to the Connected state.
func Dial(addr string, timeout time.Duration) (*Conn, error) {
	remoteAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}

	socket, err := net.DialUDP("udp", nil, remoteAddr)
	if err != nil {
		return nil, err
	}

	guid := rand.Int63()

	c := &Conn{
		socket:       socket,
		remoteAddr:   remoteAddr,
		guid:         guid,
		mtu:          protocol.MTU,
		out:          newOutbound(protocol.MTU),
		in:           newInbound(),
		state:        Connecting,
		lastActivity: time.Now(),
		incoming:     make(chan []byte, 256),
		closed:       make(chan struct{}),
		errs:         make(chan error, 1),
	}

	if err := c.handshake(timeout); err != nil {
		socket.Close()
		return nil, err
	}

	c.state = Connected
	go c.readLoop()
	go c.tickLoop()

	return c, nil
}

// handshake drives the seven pre-game messages of the RakNet login sequence.
func (c *Conn) handshake(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	if err := c.step(&message.OpenConnectionRequest1{
		Protocol: protocol.PROTOCOL_VERSION,
		MTU:      protocol.MTU,
	}, deadline); err != nil {
		return err
	}

	reply1 := &message.OpenConnectionReply1{}
	if err := c.awaitUnconnected(message.IDOpenConnectionReply1, reply1, deadline); err != nil {
		return err
	}

	if err := c.step(&message.OpenConnectionRequest2{
		ServerAddress:          *c.remoteAddr,
		ClientPreferredMTUSize: uint16(protocol.MTU),
		ClientGUID:             c.guid,
	}, deadline); err != nil {
		return err
	}

	reply2 := &message.OpenConnectionReply2{}
	if err := c.awaitUnconnected(message.IDOpenConnectionReply2, reply2, deadline); err != nil {
		return err
	}

	now := time.Now()
	if err := c.sendReliable(&message.ConnectionRequest{
		ClientGUID:       c.guid,
		RequestTimestamp: now.UnixMilli(),
	}); err != nil {
		return err
	}

	for {
		payload, err := c.awaitConnected(deadline)
		if err != nil {
			return err
		}

		buf := buffer.From(payload)
		id, err := buf.ReadUint8()
		if err != nil {
			return err
		}

		if id != message.IDConnectionRequestAccepted {
			continue
		}

		accepted := &message.ConnectionRequestAccepted{}
		if err := accepted.Read(buf); err != nil {
			return err
		}

		return c.sendReliable(&message.NewIncomingConnection{
			ServerAddress:     *c.remoteAddr,
			RequestTimestamp:  accepted.RequestTimestamp,
			AcceptedTimestamp: accepted.AcceptedTimestamp,
		})
	}
}

// step writes msg as a single unconnected datagram to the socket.
func (c *Conn) step(msg message.Message, deadline time.Time) error {
	buf := buffer.New(c.mtu)
	if err := msg.Write(buf); err != nil {
		return err
	}

	c.socket.SetWriteDeadline(deadline)
	_, err := c.socket.Write(buf.Bytes())
	return err
}

// awaitUnconnected blocks until a datagram carrying wantID arrives, or the
// deadline passes.
func (c *Conn) awaitUnconnected(wantID message.ID, msg message.Message, deadline time.Time) error {
	raw := make([]byte, protocol.MTU)

	for {
		if time.Now().After(deadline) {
			return ErrNoResponse
		}

		c.socket.SetReadDeadline(deadline)
		n, err := c.socket.Read(raw)
		if err != nil {
			return ErrNoResponse
		}

		buf := buffer.From(raw[:n])
		id, err := buf.ReadUint8()
		if err != nil {
			continue
		}

		if id == message.IDIncompatibleProtocolVersion {
			return ErrIncompatibleProtocol
		}

		if id != wantID {
			continue
		}

		if err := msg.Read(buf); err != nil {
			return err
		}

		return nil
	}
}

// awaitConnected blocks until a connected frame-set datagram yields at
// least one decoded message payload.
func (c *Conn) awaitConnected(deadline time.Time) ([]byte, error) {
	raw := make([]byte, c.mtu)

	for {
		if time.Now().After(deadline) {
			return nil, ErrNoResponse
		}

		c.socket.SetReadDeadline(deadline)
		n, err := c.socket.Read(raw)
		if err != nil {
			return nil, ErrNoResponse
		}

		payloads, err := c.decodeDatagram(raw[:n])
		if err != nil {
			return nil, err
		}

		if len(payloads) > 0 {
			return payloads[0], nil
		}
	}
}

// decodeDatagram dispatches a raw datagram to the ACK/NACK handlers or the
// frame reassembler, depending on its header flags.
func (c *Conn) decodeDatagram(raw []byte) ([][]byte, error) {
	buf := buffer.From(raw)

	header, err := buf.ReadUint8()
	if err != nil {
		return nil, err
	}

	if header&protocol.FLAG_DATAGRAM == 0 {
		return nil, errDatagramFlag
	}

	c.lastActivity = time.Now()

	if header&protocol.FLAG_ACK != 0 {
		return nil, c.handleAck(buf)
	}

	if header&protocol.FLAG_NACK != 0 {
		return nil, c.handleNack(buf)
	}

	return c.in.HandleDatagram(buf)
}

func (c *Conn) handleAck(buf *buffer.Buffer) error {
	sequences, err := readReceipts(buf)
	if err != nil {
		return err
	}

	c.out.Acknowledge(sequences)
	return nil
}

func (c *Conn) handleNack(buf *buffer.Buffer) error {
	sequences, err := readReceipts(buf)
	if err != nil {
		return err
	}

	return c.out.Retransmit(sequences, c.write)
}

// readReceipts decodes the record list shared by ACK and NACK packets.
func readReceipts(buf *buffer.Buffer) ([]uint32, error) {
	count, err := buf.ReadInt16(byteorder.BigEndian)
	if err != nil {
		return nil, err
	}

	var sequences []uint32

	for i := 0; i < int(count); i++ {
		recordType, err := buf.ReadUint8()
		if err != nil {
			return nil, err
		}

		switch recordType {
		case protocol.RangedRecord:
			start, err := buf.ReadUint24(byteorder.LittleEndian)
			if err != nil {
				return nil, err
			}

			end, err := buf.ReadUint24(byteorder.LittleEndian)
			if err != nil {
				return nil, err
			}

			for seq := start; seq <= end; seq++ {
				sequences = append(sequences, seq)
			}
		case protocol.SingleRecord:
			seq, err := buf.ReadUint24(byteorder.LittleEndian)
			if err != nil {
				return nil, err
			}

			sequences = append(sequences, seq)
		default:
			return nil, errRecordType
		}
	}

	return sequences, nil
}

// write sends a raw datagram to the peer.
func (c *Conn) write(raw []byte) error {
	_, err := c.socket.Write(raw)
	return err
}

// sendReliable queues msg for reliable-ordered delivery on channel zero and
// flushes it immediately.
func (c *Conn) sendReliable(msg message.Message) error {
	buf := buffer.New(c.mtu)
	if err := msg.Write(buf); err != nil {
		return err
	}

	return c.out.Queue(c.write, buf.Bytes(), protocol.ReliableOrdered, 0, protocol.Immediate)
}

// Send queues payload for delivery under the given reliability and
// ordering channel.
func (c *Conn) Send(payload []byte, reliability protocol.Reliability, channel uint8) error {
	if c.state == Disconnected {
		return ErrConnectionClosed
	}

	return c.out.Queue(c.write, payload, reliability, channel, protocol.Normal)
}

// Recv returns the channel of decoded, reassembled, in-order message
// payloads arriving from the peer.
func (c *Conn) Recv() <-chan []byte {
	return c.incoming
}

// Closed returns a channel that is closed once the connection has shut
// down, locally or remotely.
func (c *Conn) Closed() <-chan struct{} {
	return c.closed
}

// Errs returns the channel errors encountered by the background read and
// tick loops are reported on.
func (c *Conn) Errs() <-chan error {
	return c.errs
}

// RemoteAddr returns the address of the connected peer.
func (c *Conn) RemoteAddr() *net.UDPAddr {
	return c.remoteAddr
}

// State returns the current RakNet-layer connection state.
func (c *Conn) State() State {
	return c.state
}

// Close sends a disconnect notification and tears down the connection.
func (c *Conn) Close() error {
	if c.state == Disconnected {
		return nil
	}

	c.state = Disconnected

	buf := buffer.New(c.mtu)
	(&message.Disconnect{}).Write(buf)
	c.out.Queue(c.write, buf.Bytes(), protocol.Reliable, 0, protocol.Immediate)

	close(c.closed)
	return c.socket.Close()
}

// readLoop pulls datagrams off the socket for the lifetime of the
// connection, dispatching decoded payloads to incoming and replying to
// connected pings on behalf of the caller.
func (c *Conn) readLoop() {
	raw := make([]byte, c.mtu)

	for {
		c.socket.SetReadDeadline(time.Now().Add(detectionTimeout))
		n, err := c.socket.Read(raw)
		if err != nil {
			if c.state != Disconnected {
				c.errs <- err
				c.Close()
			}
			return
		}

		payloads, err := c.decodeDatagram(raw[:n])
		if err != nil {
			c.errs <- err
			continue
		}

		for _, payload := range payloads {
			if c.handleInternal(payload) {
				continue
			}

			select {
			case c.incoming <- payload:
			case <-c.closed:
				return
			}
		}
	}
}

// handleInternal answers RakNet-layer messages that never need to surface
// to the session above: pings and the server's disconnect notification.
func (c *Conn) handleInternal(payload []byte) bool {
	buf := buffer.From(payload)
	id, err := buf.ReadUint8()
	if err != nil {
		return true
	}

	switch id {
	case message.IDConnectedPing:
		ping := &message.ConnectedPing{}
		if err := ping.Read(buf); err != nil {
			return true
		}

		pong := &message.ConnectedPong{
			ClientTimestamp: ping.ClientTimestamp,
			ServerTimestamp: time.Now().UnixMilli(),
		}

		out := buffer.New(c.mtu)
		pong.Write(out)
		c.out.Queue(c.write, out.Bytes(), protocol.Unreliable, 0, protocol.Immediate)
		return true
	case message.IDDisconnectNotification:
		c.Close()
		return true
	default:
		return false
	}
}

// tickLoop flushes pending ACKs, NACKs, and batched frames on a fixed
// cadence independent of how often the caller sends or receives.
func (c *Conn) tickLoop() {
	ticker := time.NewTicker(ackTick)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case <-ticker.C:
			if err := c.out.Flush(c.write); err != nil {
				c.errs <- err
			}

			if acks := c.in.PendingAcks(); len(acks) > 0 {
				if raw, err := writeReceipts(protocol.FLAG_ACK, acks); err == nil {
					c.write(raw)
				}
			}

			if nacks := c.in.PendingNacks(); len(nacks) > 0 {
				if raw, err := writeReceipts(protocol.FLAG_NACK, nacks); err == nil {
					c.write(raw)
				}
			}
		}
	}
}
