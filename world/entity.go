package world

import "sync"

// Entity is a locally mirrored copy of another entity's last-known state,
// as reported by AddActor/MoveActor/SetActorData-style server packets.
type Entity struct {
	RuntimeID uint64
	UniqueID  int64

	EntityType string

	X, Y, Z    float32
	Pitch, Yaw float32

	Vx, Vy, Vz float32

	// Username and PlayerUUID are set only for entities that arrived via
	// AddPlayer rather than AddActor; they are empty for every other
	// entity type.
	Username   string
	PlayerUUID string

	Metadata map[uint32]any
}

// EntityTracker indexes the entities a client has been told about by their
// runtime ID, the identifier every subsequent server packet about that
// entity uses, while keeping a secondary index on unique ID for the rarer
// messages (like despawn-by-unique-id) that reference it instead.
type EntityTracker struct {
	mu sync.RWMutex

	byRuntime map[uint64]*Entity
	byUnique  map[int64]uint64
}

// NewEntityTracker returns an empty tracker.
func NewEntityTracker() *EntityTracker {
	return &EntityTracker{
		byRuntime: make(map[uint64]*Entity),
		byUnique:  make(map[int64]uint64),
	}
}

// AddEntity registers a newly spawned entity.
func (t *EntityTracker) AddEntity(e *Entity) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.byRuntime[e.RuntimeID] = e
	t.byUnique[e.UniqueID] = e.RuntimeID
}

// AddPlayer registers a newly spawned entity that is itself a player,
// carrying the username and UUID identity pair AddActor never reports.
func (t *EntityTracker) AddPlayer(e *Entity, username, playerUUID string) {
	e.Username = username
	e.PlayerUUID = playerUUID
	t.AddEntity(e)
}

// Get returns the entity with the given runtime ID, if tracked.
func (t *EntityTracker) Get(runtimeID uint64) (*Entity, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.byRuntime[runtimeID]
	return e, ok
}

// GetByUniqueID returns the entity with the given unique ID, if tracked.
func (t *EntityTracker) GetByUniqueID(uniqueID int64) (*Entity, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	runtimeID, ok := t.byUnique[uniqueID]
	if !ok {
		return nil, false
	}

	return t.Get(runtimeID)
}

// RemoveByUniqueID removes the entity with the given unique ID, as the
// server's despawn-by-unique-id packets identify their target.
func (t *EntityTracker) RemoveByUniqueID(uniqueID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	runtimeID, ok := t.byUnique[uniqueID]
	if !ok {
		return
	}

	delete(t.byRuntime, runtimeID)
	delete(t.byUnique, uniqueID)
}

// UpdatePosition moves a tracked entity.
func (t *EntityTracker) UpdatePosition(runtimeID uint64, x, y, z, pitch, yaw float32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.byRuntime[runtimeID]
	if !ok {
		return
	}

	e.X, e.Y, e.Z = x, y, z
	e.Pitch, e.Yaw = pitch, yaw
}

// UpdateMotion records a tracked entity's current velocity, as reported by
// SetActorMotion.
func (t *EntityTracker) UpdateMotion(runtimeID uint64, vx, vy, vz float32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.byRuntime[runtimeID]
	if !ok {
		return
	}

	e.Vx, e.Vy, e.Vz = vx, vy, vz
}

// UpdateMetadata merges the given metadata keys into a tracked entity.
func (t *EntityTracker) UpdateMetadata(runtimeID uint64, metadata map[uint32]any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.byRuntime[runtimeID]
	if !ok {
		return
	}

	if e.Metadata == nil {
		e.Metadata = make(map[uint32]any, len(metadata))
	}

	for k, v := range metadata {
		e.Metadata[k] = v
	}
}

// Nearest returns the tracked entity closest to the given coordinates, or
// nil if nothing is tracked.
func (t *EntityTracker) Nearest(x, y, z float32) *Entity {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var nearest *Entity
	var nearestDist float64

	for _, e := range t.byRuntime {
		dx, dy, dz := float64(e.X-x), float64(e.Y-y), float64(e.Z-z)
		dist := dx*dx + dy*dy + dz*dz

		if nearest == nil || dist < nearestDist {
			nearest = e
			nearestDist = dist
		}
	}

	return nearest
}

// Len returns the number of entities currently tracked.
func (t *EntityTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.byRuntime)
}
