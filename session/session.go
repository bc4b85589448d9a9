// Package session drives a single Minecraft Bedrock connection through its
// login and play lifecycle on top of the raknet and batch packages, and
// exposes the client-facing API for sending and observing game packets.
package session

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gamevidea/bedrock/auth"
	"github.com/gamevidea/bedrock/batch"
	"github.com/gamevidea/bedrock/internal/message"
	"github.com/gamevidea/bedrock/internal/protocol"
	"github.com/gamevidea/bedrock/raknet"
	"github.com/gamevidea/bedrock/world"
	"github.com/google/uuid"
	mcprotocol "github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sandertv/gophertunnel/minecraft/protocol/login"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
	"github.com/sirupsen/logrus"
)

// defaultProtocolVersion is the protocol version announced during
// RequestNetworkSettings and Login when Options.ProtocolVersion is left
// unset.
const defaultProtocolVersion = 685

// defaultViewDistance is the chunk radius requested on StartGame when
// Options.ViewDistance is left unset.
const defaultViewDistance = 8

// defaultReconnectDelay is the base delay a session waits before retrying
// a dial after losing a connection while an auto-reconnect policy is in
// effect, when Options.ReconnectDelay is left unset. The actual wait
// before the Nth attempt is this value times N.
const defaultReconnectDelay = 3 * time.Second

// defaultMaxReconnectAttempts caps how many times Run redials after a
// post-spawn disconnect before giving up, when Options.MaxReconnectAttempts
// is left unset.
const defaultMaxReconnectAttempts = 3

// errNotConnected is returned by session methods that require a live
// connection when none has been established yet.
var errNotConnected = errors.New("session: not connected")

// Session drives one Minecraft Bedrock connection from dial through
// spawn, play, and eventual disconnect. With AutoReconnect set, Run
// redials on the same Session after a post-spawn disconnect.
type Session struct {
	log *logrus.Entry

	addr     string
	identity auth.Provider
	clientData login.ClientData
	playerUUID uuid.UUID

	conn  *raknet.Conn
	codec *batch.Codec
	pool  packet.Pool

	privateKey *ecdsa.PrivateKey

	mu                   sync.Mutex
	phase                Phase
	awaitingDimensionAck bool
	reachedSpawn         bool

	player    *world.PlayerState
	attrs     *world.AttributeTable
	entities  *world.EntityTracker

	commands chan func()
	tick     uint64

	OnPacket     Emitter[packet.Packet]
	OnSpawn      Emitter[struct{}]
	OnDisconnect Emitter[string]
	OnConnect    Emitter[struct{}]
	OnLogin      Emitter[struct{}]
	OnStartGame  Emitter[*packet.StartGame]
	OnTick       Emitter[struct{}]
	OnText       Emitter[*packet.Text]
	OnKick       Emitter[string]
	OnReconnect  Emitter[int]
	OnError      Emitter[error]

	protocolVersion       int32
	viewDistance          int32
	autoReconnect         bool
	maxReconnectAttempts  int
	reconnectDelay        time.Duration
}

// Options configures a Session before it dials.
type Options struct {
	// Identity supplies the identity chain; defaults to an offline
	// provider keyed on DisplayName if left nil.
	Identity auth.Provider

	DisplayName string

	// ClientData overrides the default device/skin metadata sent during
	// login.
	ClientData *login.ClientData

	Log *logrus.Logger

	// AutoReconnect makes Run redial, with the linear backoff described at
	// ReconnectDelay, instead of returning when a connection that had
	// reached Spawned drops.
	AutoReconnect bool

	// MaxReconnectAttempts caps how many times Run redials after a
	// post-spawn disconnect before giving up and returning the last error.
	// Defaults to 3 if zero.
	MaxReconnectAttempts int

	// ReconnectDelay is the base of the linear backoff between reconnect
	// attempts: the Nth attempt waits ReconnectDelay * N. Defaults to
	// three seconds if zero.
	ReconnectDelay time.Duration

	// ProtocolVersion overrides the protocol version announced during
	// RequestNetworkSettings and Login. Defaults to 685 if zero.
	ProtocolVersion int32

	// GameVersion overrides the client's reported game version string.
	// Defaults to whatever auth.ClientData fills in if empty.
	GameVersion string

	// DeviceOS overrides the client's reported platform. Defaults to
	// whatever auth.ClientData fills in if zero.
	DeviceOS int32

	// ViewDistance is the chunk radius requested once StartGame arrives.
	// Defaults to 8 if zero.
	ViewDistance int32
}

// New constructs a Session for addr without connecting yet.
func New(addr string, opts Options) (*Session, error) {
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		return nil, err
	}

	identity := opts.Identity
	if identity == nil {
		identity = auth.OfflineProvider{DisplayName: opts.DisplayName}
	}

	clientData := auth.ClientData("", "")
	if opts.GameVersion != "" {
		clientData.GameVersion = opts.GameVersion
	}
	if opts.DeviceOS != 0 {
		clientData.DeviceOS = opts.DeviceOS
	}
	if opts.ClientData != nil {
		clientData = *opts.ClientData
	}

	logger := opts.Log
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	pool := packet.NewPool()

	protocolVersion := opts.ProtocolVersion
	if protocolVersion == 0 {
		protocolVersion = defaultProtocolVersion
	}

	viewDistance := opts.ViewDistance
	if viewDistance == 0 {
		viewDistance = defaultViewDistance
	}

	reconnectDelay := opts.ReconnectDelay
	if reconnectDelay == 0 {
		reconnectDelay = defaultReconnectDelay
	}

	maxReconnectAttempts := opts.MaxReconnectAttempts
	if maxReconnectAttempts == 0 {
		maxReconnectAttempts = defaultMaxReconnectAttempts
	}

	return &Session{
		log:                  logger.WithField("component", "session"),
		addr:                 addr,
		identity:             identity,
		clientData:           clientData,
		playerUUID:           uuid.New(),
		privateKey:           key,
		pool:                 pool,
		phase:                Disconnected,
		player:               &world.PlayerState{},
		attrs:                world.NewAttributeTable(),
		entities:             world.NewEntityTracker(),
		commands:             make(chan func(), 64),
		protocolVersion:      protocolVersion,
		viewDistance:         viewDistance,
		autoReconnect:        opts.AutoReconnect,
		maxReconnectAttempts: maxReconnectAttempts,
		reconnectDelay:       reconnectDelay,
	}, nil
}

// Phase returns the session's current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Player returns the local player's mirrored state.
func (s *Session) Player() *world.PlayerState { return s.player }

// Attributes returns the local player's mirrored attribute table.
func (s *Session) Attributes() *world.AttributeTable { return s.attrs }

// Entities returns the tracker of other entities the session has been
// told about.
func (s *Session) Entities() *world.EntityTracker { return s.entities }

func (s *Session) setPhase(next Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.phase.canTransition(next) {
		s.log.WithFields(logrus.Fields{"from": s.phase, "to": next}).Warn("ignoring illegal phase transition")
		return
	}

	s.log.WithFields(logrus.Fields{"from": s.phase, "to": next}).Debug("phase transition")
	s.phase = next
}

func (s *Session) setReachedSpawn(v bool) {
	s.mu.Lock()
	s.reachedSpawn = v
	s.mu.Unlock()
}

func (s *Session) hasReachedSpawn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reachedSpawn
}

// Run dials the server and drives the session until it disconnects or ctx
// is cancelled. With AutoReconnect set, Run redials after losing a
// connection that had reached Spawned, up to MaxReconnectAttempts times; a
// failed dial or a connection that never spawned ends Run with its error.
func (s *Session) Run(ctx context.Context) error {
	attempt := 0

	for {
		err := s.runOnce(ctx)

		if !s.autoReconnect || ctx.Err() != nil {
			return err
		}

		// Only a disconnect reached after spawning warrants a reconnect; a
		// failed dial or a rejected login is a terminal error.
		if !s.hasReachedSpawn() {
			return err
		}

		attempt++
		if s.maxReconnectAttempts > 0 && attempt > s.maxReconnectAttempts {
			return err
		}

		if err != nil {
			s.OnError.Emit(err)
		}

		s.log.WithError(err).Warn("connection lost, reconnecting")
		s.setPhase(Disconnected)
		s.OnReconnect.Emit(attempt)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.reconnectDelay * time.Duration(attempt)):
		}
	}
}

func (s *Session) runOnce(ctx context.Context) error {
	s.setPhase(Connecting)
	s.setReachedSpawn(false)

	conn, err := raknet.Dial(s.addr, 10*time.Second)
	if err != nil {
		return err
	}

	s.conn = conn
	s.codec = batch.NewCodec(s.pool, 0)
	s.setPhase(RaknetEstablished)
	s.OnConnect.Emit(struct{}{})

	defer conn.Close()

	if err := s.login(); err != nil {
		return err
	}

	s.OnLogin.Emit(struct{}{})

	return s.eventLoop(ctx)
}

// login drives RequestNetworkSettings through Login and waits for the
// server's PlayStatus acknowledgement.
func (s *Session) login() error {
	s.setPhase(LoggingIn)

	if err := s.sendPacket(&packet.RequestNetworkSettings{ClientProtocol: s.protocolVersion}); err != nil {
		return err
	}

	settings, err := s.WaitForPacket(10*time.Second, func(pk packet.Packet) bool {
		_, ok := pk.(*packet.NetworkSettings)
		return ok
	})
	if err != nil {
		return err
	}

	ns := settings.(*packet.NetworkSettings)
	s.applyNetworkSettings(ns)

	identityChain, err := s.identity.IdentityChain(&s.privateKey.PublicKey)
	if err != nil {
		return err
	}

	clientDataJWT, err := auth.SignClientData(s.privateKey, s.clientData)
	if err != nil {
		return err
	}

	connectionRequest, err := auth.EncodeConnectionRequest(identityChain, clientDataJWT)
	if err != nil {
		return err
	}

	if err := s.sendPacket(&packet.Login{
		ConnectionRequest: connectionRequest,
		ClientProtocol:    s.protocolVersion,
	}); err != nil {
		return err
	}

	status, err := s.WaitForPacket(15*time.Second, func(pk packet.Packet) bool {
		_, ok := pk.(*packet.PlayStatus)
		return ok
	})
	if err != nil {
		return err
	}

	ps := status.(*packet.PlayStatus)
	if ps.Status != packet.PlayStatusLoginSuccess {
		return fmt.Errorf("session: login rejected with status %d", ps.Status)
	}

	s.setPhase(Spawning)
	return nil
}

// applyNetworkSettings switches the batch codec to whatever compression
// the server negotiated.
func (s *Session) applyNetworkSettings(ns *packet.NetworkSettings) {
	switch ns.CompressionAlgorithm {
	case packet.CompressionAlgorithmFlate:
		s.codec.SetCompression(batch.Zlib)
	case packet.CompressionAlgorithmSnappy:
		s.codec.SetCompression(batch.Snappy)
	default:
		s.codec.SetCompression(batch.None)
	}

	s.codec.SetCompressionThreshold(uint32(ns.CompressionThreshold))
	s.codec.SetEnabled(true)
}

// do enqueues fn onto the event loop goroutine and blocks until it has run,
// returning whatever error it produced. Every public method that mutates
// session state routes through this so that state is only ever touched
// from the one goroutine that owns it, no matter which goroutine the
// caller runs on.
func (s *Session) do(fn func() error) error {
	if s.conn == nil {
		return errNotConnected
	}

	result := make(chan error, 1)
	cmd := func() { result <- fn() }

	select {
	case s.commands <- cmd:
	case <-s.conn.Closed():
		return raknet.ErrConnectionClosed
	}

	select {
	case err := <-result:
		return err
	case <-s.conn.Closed():
		return raknet.ErrConnectionClosed
	}
}

// SetInitialized tells the server the client has finished loading the
// world and is ready to be shown to other players. The session itself
// only reaches Spawned once the server replies with PlayStatus(PlayerSpawn).
func (s *Session) SetInitialized() error {
	return s.do(func() error {
		return s.sendPacket(&packet.SetLocalPlayerAsInitialized{EntityRuntimeID: s.player.RuntimeID})
	})
}

// Chat sends a public chat message as the local player.
func (s *Session) Chat(message string) error {
	return s.do(func() error {
		return s.sendPacket(&packet.Text{
			TextType: packet.TextTypeChat,
			Message:  message,
		})
	})
}

// SendCommand sends a slash command as the local player, adding the
// leading slash if the caller left it off.
func (s *Session) SendCommand(command string) error {
	if len(command) == 0 || command[0] != '/' {
		command = "/" + command
	}

	return s.do(func() error {
		return s.sendPacket(&packet.CommandRequest{
			CommandLine: command,
			CommandOrigin: mcprotocol.CommandOrigin{
				Origin:         mcprotocol.CommandOriginPlayer,
				UUID:           s.playerUUID,
				PlayerUniqueID: s.player.UniqueID,
			},
			Internal: false,
		})
	})
}

// RespondToForm answers a server-displayed form with the given JSON
// response body.
func (s *Session) RespondToForm(formID uint32, response []byte) error {
	return s.do(func() error {
		return s.sendPacket(&packet.ModalFormResponse{
			FormID:       formID,
			ResponseData: response,
		})
	})
}

// closeConn performs the actual disconnect. It must only be called from
// the event loop goroutine; callers on any other goroutine use Disconnect.
func (s *Session) closeConn() error {
	if s.conn == nil {
		return nil
	}

	s.setPhase(Disconnected)
	return s.conn.Close()
}

// Disconnect closes the connection without waiting for the server's own
// disconnect notification. Safe to call from any goroutine.
func (s *Session) Disconnect() error {
	return s.do(s.closeConn)
}

// sendPacket encodes and sends a single packet as a reliable-ordered game
// batch.
func (s *Session) sendPacket(pk packet.Packet) error {
	raw, err := s.codec.Encode([]packet.Packet{pk})
	if err != nil {
		return err
	}

	buf := make([]byte, 0, len(raw)+1)
	buf = append(buf, message.IDGamePacket)
	buf = append(buf, raw...)

	return s.conn.Send(buf, protocol.ReliableOrdered, 0)
}

// WaitForPacket blocks until a packet matching match arrives, timeout
// elapses, or the connection closes. It is one of the two places a
// session suspends waiting on the network; Run's select loop is the other.
func (s *Session) WaitForPacket(timeout time.Duration, match func(packet.Packet) bool) (packet.Packet, error) {
	result := make(chan packet.Packet, 1)

	var once sync.Once

	unregister := s.OnPacket.On(func(pk packet.Packet) {
		if match(pk) {
			once.Do(func() {
				select {
				case result <- pk:
				default:
				}
			})
		}
	})
	defer unregister()

	select {
	case pk := <-result:
		return pk, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("session: timed out waiting for packet")
	case <-s.conn.Closed():
		return nil, raknet.ErrConnectionClosed
	}
}
