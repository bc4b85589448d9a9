package session

import "testing"

func TestEmitterCallsAllListeners(t *testing.T) {
	var e Emitter[int]

	var got []int
	e.On(func(v int) { got = append(got, v) })
	e.On(func(v int) { got = append(got, v*10) })

	e.Emit(3)

	if len(got) != 2 || got[0] != 3 || got[1] != 30 {
		t.Fatalf("unexpected listener results: %v", got)
	}
}

func TestEmitterNoListeners(t *testing.T) {
	var e Emitter[string]
	e.Emit("noop")
}

func TestEmitterUnregister(t *testing.T) {
	var e Emitter[int]

	var got []int
	unregister := e.On(func(v int) { got = append(got, v) })

	e.Emit(1)
	unregister()
	e.Emit(2)

	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("unexpected listener results after unregister: %v", got)
	}
}
