package world

import "testing"

func TestEntityTrackerAddAndGet(t *testing.T) {
	tracker := NewEntityTracker()
	tracker.AddEntity(&Entity{RuntimeID: 1, UniqueID: 100, EntityType: "minecraft:zombie"})

	e, ok := tracker.Get(1)
	if !ok {
		t.Fatal("expected entity to be tracked")
	}

	if e.EntityType != "minecraft:zombie" {
		t.Fatalf("got %q", e.EntityType)
	}

	byUnique, ok := tracker.GetByUniqueID(100)
	if !ok || byUnique.RuntimeID != 1 {
		t.Fatal("expected unique id lookup to resolve to the same entity")
	}
}

func TestEntityTrackerRemoveByUniqueID(t *testing.T) {
	tracker := NewEntityTracker()
	tracker.AddEntity(&Entity{RuntimeID: 1, UniqueID: 100})
	tracker.RemoveByUniqueID(100)

	if _, ok := tracker.Get(1); ok {
		t.Fatal("expected entity to be removed")
	}

	if tracker.Len() != 0 {
		t.Fatalf("expected 0 entities, got %d", tracker.Len())
	}
}

func TestEntityTrackerNearest(t *testing.T) {
	tracker := NewEntityTracker()
	tracker.AddEntity(&Entity{RuntimeID: 1, UniqueID: 1, X: 10, Y: 0, Z: 0})
	tracker.AddEntity(&Entity{RuntimeID: 2, UniqueID: 2, X: 1, Y: 0, Z: 0})

	nearest := tracker.Nearest(0, 0, 0)
	if nearest.RuntimeID != 2 {
		t.Fatalf("expected runtime id 2 to be nearest, got %d", nearest.RuntimeID)
	}
}

func TestPlayerStateUpdatePosition(t *testing.T) {
	p := &PlayerState{}
	p.UpdatePosition(1, 2, 3, 0, 90, 90, true)

	if p.X != 1 || p.Y != 2 || p.Z != 3 {
		t.Fatalf("unexpected position: %+v", p)
	}

	if !p.OnGround {
		t.Fatal("expected OnGround to be true")
	}
}

func TestAttributeTableGetSet(t *testing.T) {
	table := NewAttributeTable()
	table.Set("minecraft:health", Attribute{Min: 0, Max: 20, Value: 20, Default: 20})

	if table.Value("minecraft:health") != 20 {
		t.Fatalf("got %v", table.Value("minecraft:health"))
	}

	if _, ok := table.Get("minecraft:unknown"); ok {
		t.Fatal("expected unknown attribute to be absent")
	}
}

func TestAttributeTableSentinelDefaults(t *testing.T) {
	table := NewAttributeTable()

	if table.Health() != 20 {
		t.Fatalf("expected default health 20, got %v", table.Health())
	}

	if table.MovementSpeed() != 0.1 {
		t.Fatalf("expected default movement speed 0.1, got %v", table.MovementSpeed())
	}

	table.Set("minecraft:health", Attribute{Min: 0, Max: 20, Value: 12, Default: 20})
	if table.Health() != 12 {
		t.Fatalf("expected reported health 12, got %v", table.Health())
	}
}

func TestEntityTrackerMotionAndPlayerIdentity(t *testing.T) {
	tracker := NewEntityTracker()
	tracker.AddPlayer(&Entity{RuntimeID: 5, UniqueID: 500}, "Alex", "11111111-1111-1111-1111-111111111111")

	e, ok := tracker.Get(5)
	if !ok {
		t.Fatal("expected player entity to be tracked")
	}

	if e.Username != "Alex" || e.PlayerUUID != "11111111-1111-1111-1111-111111111111" {
		t.Fatalf("unexpected player identity: %+v", e)
	}

	tracker.UpdateMotion(5, 1, 2, 3)
	if e.Vx != 1 || e.Vy != 2 || e.Vz != 3 {
		t.Fatalf("unexpected motion: %+v", e)
	}
}
