package session

import (
	"context"
	"time"

	"github.com/gamevidea/bedrock/world"
	"github.com/go-gl/mathgl/mgl32"
	mcprotocol "github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
)

// tickInterval matches the 20Hz cadence the vanilla client runs its game
// loop at. Once spawned, the session uses it to send the PlayerAuthInput
// packet the server relies on as a liveness heartbeat; a client that stops
// sending it gets timed out.
const tickInterval = 50 * time.Millisecond

// eventLoop is the single goroutine that owns this session's state after
// login: every incoming payload, every queued outbound command, and the
// tick timer funnel through this one select, so nothing touching session
// state needs its own lock.
func (s *Session) eventLoop(ctx context.Context) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.closeConn()
			return ctx.Err()

		case <-s.conn.Closed():
			s.setPhase(Disconnected)
			s.OnDisconnect.Emit("connection closed")
			return nil

		case err := <-s.conn.Errs():
			s.log.WithError(err).Warn("raknet error")
			s.OnError.Emit(err)

		case payload, ok := <-s.conn.Recv():
			if !ok {
				continue
			}

			if err := s.handlePayload(payload); err != nil {
				s.log.WithError(err).Warn("failed to handle payload")
				s.OnError.Emit(err)
			}

		case cmd := <-s.commands:
			cmd()

		case <-ticker.C:
			s.onTick()
		}
	}
}

// onTick fires once every tickInterval. While the session is Spawned and
// not mid dimension-change, it sends PlayerAuthInput to keep the
// connection alive, mirroring the cadence the vanilla client's input
// packet runs at.
func (s *Session) onTick() {
	s.tick++

	if s.Phase() == Spawned && !s.isAwaitingDimensionAck() {
		if err := s.sendPlayerAuthInput(); err != nil {
			s.log.WithError(err).Warn("failed to send player auth input")
		}
	}

	s.OnTick.Emit(struct{}{})
}

// sendPlayerAuthInput sends a PlayerAuthInput packet reflecting the
// player's last-known position and rotation, with no input flags set.
func (s *Session) sendPlayerAuthInput() error {
	p := s.player

	return s.sendPacket(&packet.PlayerAuthInput{
		Pitch:      p.Pitch,
		Yaw:        p.Yaw,
		Position:   mgl32.Vec3{p.X, p.Y, p.Z},
		MoveVector: mgl32.Vec2{0, 0},
		HeadYaw:    p.HeadYaw,
		InputData:  mcprotocol.NewBitset(packet.PlayerAuthInputBitsetSize),
		Tick:       s.tick,
	})
}

func (s *Session) isAwaitingDimensionAck() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaitingDimensionAck
}

func (s *Session) setAwaitingDimensionAck(v bool) {
	s.mu.Lock()
	s.awaitingDimensionAck = v
	s.mu.Unlock()
}

// handlePayload strips the game packet message ID, decodes the batch, and
// dispatches each sub-packet.
func (s *Session) handlePayload(payload []byte) error {
	if len(payload) == 0 {
		return nil
	}

	packets, err := s.codec.Decode(payload[1:])
	if err != nil {
		return err
	}

	for _, pk := range packets {
		s.dispatch(pk)
	}

	return nil
}

// dispatch runs internal handling for packets the session itself must
// react to, then fans the packet out to every OnPacket listener.
func (s *Session) dispatch(pk packet.Packet) {
	switch pk := pk.(type) {
	case *packet.StartGame:
		s.handleStartGame(pk)
	case *packet.ResourcePacksInfo:
		s.handleResourcePacksInfo(pk)
	case *packet.ResourcePackStack:
		s.handleResourcePackStack(pk)
	case *packet.NetworkStackLatency:
		s.handleNetworkStackLatency(pk)
	case *packet.Respawn:
		s.handleRespawn(pk)
	case *packet.ChangeDimension:
		s.handleChangeDimension(pk)
	case *packet.UpdateAttributes:
		s.handleUpdateAttributes(pk)
	case *packet.AddActor:
		s.handleAddActor(pk)
	case *packet.AddPlayer:
		s.handleAddPlayer(pk)
	case *packet.RemoveActor:
		s.entities.RemoveByUniqueID(pk.EntityUniqueID)
	case *packet.MoveActorAbsolute:
		s.entities.UpdatePosition(pk.EntityRuntimeID, pk.Position[0], pk.Position[1], pk.Position[2], pk.Rotation[0], pk.Rotation[1])
	case *packet.SetActorMotion:
		s.entities.UpdateMotion(pk.EntityRuntimeID, pk.Velocity[0], pk.Velocity[1], pk.Velocity[2])
	case *packet.SetActorData:
		s.handleSetActorData(pk)
	case *packet.PlayStatus:
		s.handlePlayStatus(pk)
	case *packet.Text:
		s.OnText.Emit(pk)
	case *packet.Disconnect:
		s.OnKick.Emit(pk.Message)
		s.closeConn()
	}

	s.OnPacket.Emit(pk)
}

func (s *Session) handleStartGame(pk *packet.StartGame) {
	s.player.RuntimeID = pk.EntityRuntimeID
	s.player.UniqueID = pk.EntityUniqueID
	s.player.UpdatePosition(
		pk.PlayerPosition[0], pk.PlayerPosition[1], pk.PlayerPosition[2],
		pk.Pitch, pk.Yaw, pk.Yaw, true,
	)

	if err := s.sendPacket(&packet.RequestChunkRadius{ChunkRadius: s.viewDistance}); err != nil {
		s.log.WithError(err).Warn("failed to request chunk radius")
	}

	s.OnStartGame.Emit(pk)
}

// handleResourcePacksInfo is sent before the client has loaded any packs.
// This client never downloads resource packs, so it immediately reports
// that it has everything it needs.
func (s *Session) handleResourcePacksInfo(pk *packet.ResourcePacksInfo) {
	if err := s.sendPacket(&packet.ResourcePackClientResponse{Response: packet.PackResponseAllPacksDownloaded}); err != nil {
		s.log.WithError(err).Warn("failed to respond to resource packs info")
	}
}

// handleResourcePackStack completes the resource pack handshake, letting
// the server proceed to StartGame.
func (s *Session) handleResourcePackStack(pk *packet.ResourcePackStack) {
	if err := s.sendPacket(&packet.ResourcePackClientResponse{Response: packet.PackResponseCompleted}); err != nil {
		s.log.WithError(err).Warn("failed to complete resource pack handshake")
	}
}

// handleNetworkStackLatency echoes the server's latency probe straight
// back, as a vanilla client does, so the server's ping measurement stays
// accurate.
func (s *Session) handleNetworkStackLatency(pk *packet.NetworkStackLatency) {
	s.sendPacket(&packet.NetworkStackLatency{
		Timestamp:     pk.Timestamp,
		NeedsResponse: false,
	})
}

// handleRespawn re-centres the local player on the position the server
// assigns after death. When the server is waiting on the client to
// acknowledge it (State == RespawnStateReadyToSpawn), the client echoes
// the packet back with ClientReadyToSpawn to complete the handshake.
func (s *Session) handleRespawn(pk *packet.Respawn) {
	s.player.UpdatePosition(pk.Position[0], pk.Position[1], pk.Position[2], 0, 0, 0, true)

	if pk.State != packet.RespawnStateReadyToSpawn {
		return
	}

	if err := s.sendPacket(&packet.Respawn{
		Position:        pk.Position,
		State:           packet.RespawnStateClientReadyToSpawn,
		EntityRuntimeID: s.player.RuntimeID,
	}); err != nil {
		s.log.WithError(err).Warn("failed to acknowledge respawn")
	}
}

// handleChangeDimension re-centres the player for a dimension change and
// acknowledges it with a PlayerAction, which the server waits on before
// it considers the transfer complete.
func (s *Session) handleChangeDimension(pk *packet.ChangeDimension) {
	s.player.UpdatePosition(pk.Position[0], pk.Position[1], pk.Position[2], 0, 0, 0, false)

	s.setAwaitingDimensionAck(true)
	defer s.setAwaitingDimensionAck(false)

	if err := s.sendPacket(&packet.PlayerAction{
		EntityRuntimeID: s.player.RuntimeID,
		ActionType:      packet.PlayerActionDimensionChangeAck,
		BlockPosition:   mcprotocol.BlockPos{},
		ResultPosition:  mcprotocol.BlockPos{},
		Face:            0,
	}); err != nil {
		s.log.WithError(err).Warn("failed to acknowledge dimension change")
	}
}

func (s *Session) handleUpdateAttributes(pk *packet.UpdateAttributes) {
	for _, attr := range pk.Attributes {
		s.attrs.Set(attr.Name, world.Attribute{
			Min:     attr.Min,
			Max:     attr.Max,
			Value:   attr.Value,
			Default: attr.Default,
		})
	}
}

func (s *Session) handleAddActor(pk *packet.AddActor) {
	s.entities.AddEntity(&world.Entity{
		RuntimeID:  pk.EntityRuntimeID,
		UniqueID:   pk.EntityUniqueID,
		EntityType: pk.EntityType,
		X:          pk.Position[0],
		Y:          pk.Position[1],
		Z:          pk.Position[2],
		Pitch:      pk.Pitch,
		Yaw:        pk.Yaw,
	})
}

// handleAddPlayer tracks a remote player, the one AddActor-like packet
// that carries a username and UUID alongside the usual entity identity.
func (s *Session) handleAddPlayer(pk *packet.AddPlayer) {
	s.entities.AddPlayer(&world.Entity{
		RuntimeID:  pk.EntityRuntimeID,
		UniqueID:   pk.EntityUniqueID,
		EntityType: "minecraft:player",
		X:          pk.Position[0],
		Y:          pk.Position[1],
		Z:          pk.Position[2],
		Pitch:      pk.Pitch,
		Yaw:        pk.Yaw,
	}, pk.Username, pk.UUID.String())
}

func (s *Session) handleSetActorData(pk *packet.SetActorData) {
	metadata := make(map[uint32]any, len(pk.EntityMetadata))
	for k, v := range pk.EntityMetadata {
		metadata[k] = v
	}

	s.entities.UpdateMetadata(pk.EntityRuntimeID, metadata)
}

// handlePlayStatus surfaces the terminal failure statuses as a disconnect
// rather than leaving the caller to notice the connection stalled, and
// advances the session to Spawned on PlayerSpawn, the status that confirms
// the server has finished placing the player in the world.
func (s *Session) handlePlayStatus(pk *packet.PlayStatus) {
	switch pk.Status {
	case packet.PlayStatusLoginSuccess:
		return
	case packet.PlayStatusPlayerSpawn:
		s.setPhase(Spawned)
		s.setReachedSpawn(true)
		s.OnSpawn.Emit(struct{}{})
	default:
		s.OnDisconnect.Emit("play status failure")
		s.closeConn()
	}
}
