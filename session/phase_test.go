package session

import "testing"

func TestPhaseCanTransition(t *testing.T) {
	cases := []struct {
		from, to Phase
		want     bool
	}{
		{Disconnected, Connecting, true},
		{Connecting, RaknetEstablished, true},
		{Connecting, Spawned, false},
		{RaknetEstablished, LoggingIn, true},
		{Spawned, Disconnected, true},
		{LoggingIn, Connecting, false},
	}

	for _, c := range cases {
		if got := c.from.canTransition(c.to); got != c.want {
			t.Errorf("%s -> %s: got %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestPhaseString(t *testing.T) {
	if Spawned.String() != "spawned" {
		t.Fatalf("got %q", Spawned.String())
	}
}
