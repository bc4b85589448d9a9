// Package world mirrors the pieces of server-authoritative world state a
// client needs to track locally: the local player's own state, its
// attribute table, and the other entities it has been told about.
package world

import "math"

// PlayerState holds the local player's last-known position, rotation, and
// motion, as last reported by the server.
type PlayerState struct {
	RuntimeID uint64
	UniqueID  int64

	X, Y, Z    float32
	Pitch, Yaw float32
	HeadYaw    float32

	Vx, Vy, Vz float32
	OnGround   bool
}

// UpdatePosition overwrites the player's position and rotation.
func (p *PlayerState) UpdatePosition(x, y, z, pitch, yaw, headYaw float32, onGround bool) {
	p.X, p.Y, p.Z = x, y, z
	p.Pitch, p.Yaw, p.HeadYaw = pitch, yaw, headYaw
	p.OnGround = onGround
}

// UpdateMotion overwrites the player's velocity.
func (p *PlayerState) UpdateMotion(vx, vy, vz float32) {
	p.Vx, p.Vy, p.Vz = vx, vy, vz
}

// DistanceTo returns the straight-line distance between the player and the
// given coordinates.
func (p *PlayerState) DistanceTo(x, y, z float32) float32 {
	dx, dy, dz := float64(p.X-x), float64(p.Y-y), float64(p.Z-z)
	return float32(math.Sqrt(dx*dx + dy*dy + dz*dz))
}

// AttributeTable mirrors the named numeric attributes (health, hunger,
// movement speed, experience, and so on) the server keeps authoritative
// and periodically pushes down to the client.
type AttributeTable struct {
	attributes map[string]Attribute
}

// Attribute is a single named value with the bounds the server enforces
// on it.
type Attribute struct {
	Min, Max, Value, Default float32
}

// NewAttributeTable returns an empty attribute table.
func NewAttributeTable() *AttributeTable {
	return &AttributeTable{attributes: make(map[string]Attribute)}
}

// Set stores or replaces the named attribute.
func (t *AttributeTable) Set(name string, attr Attribute) {
	t.attributes[name] = attr
}

// Get returns the named attribute and whether it is known. Callers that
// need a sentinel default for an attribute that has never been reported
// should check ok and fall back to Attribute{}'s zero value themselves.
func (t *AttributeTable) Get(name string) (Attribute, bool) {
	attr, ok := t.attributes[name]
	return attr, ok
}

// Value returns the named attribute's current value, or 0 if it has never
// been reported.
func (t *AttributeTable) Value(name string) float32 {
	return t.attributes[name].Value
}

// Health returns minecraft:health's current value, defaulting to 20 (a
// full health bar) before the server has ever reported one.
func (t *AttributeTable) Health() float32 {
	if attr, ok := t.Get("minecraft:health"); ok {
		return attr.Value
	}
	return 20
}

// MovementSpeed returns minecraft:movement's current value, defaulting to
// 0.1 (the vanilla walk speed) before the server has ever reported one.
func (t *AttributeTable) MovementSpeed() float32 {
	if attr, ok := t.Get("minecraft:movement"); ok {
		return attr.Value
	}
	return 0.1
}

// Hunger returns minecraft:player.hunger's current value, defaulting to a
// full 20 before the server has ever reported one.
func (t *AttributeTable) Hunger() float32 {
	if attr, ok := t.Get("minecraft:player.hunger"); ok {
		return attr.Value
	}
	return 20
}

// Experience returns minecraft:player.experience's current value,
// defaulting to 0 before the server has ever reported one.
func (t *AttributeTable) Experience() float32 {
	if attr, ok := t.Get("minecraft:player.experience"); ok {
		return attr.Value
	}
	return 0
}
