package event

import "testing"

func TestEmitter_DeliversInSubscriptionOrder(t *testing.T) {
	var e Emitter[int]
	var got []string
	e.Subscribe(func(v int) { got = append(got, "a") })
	e.Subscribe(func(v int) { got = append(got, "b") })

	e.Emit(1)

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("order=%v want [a b]", got)
	}
}

func TestEmitter_UnsubscribeStopsDelivery(t *testing.T) {
	var e Emitter[string]
	n := 0
	unsub := e.Subscribe(func(string) { n++ })

	e.Emit("x")
	unsub()
	unsub()
	e.Emit("y")

	if n != 1 {
		t.Fatalf("calls=%d want 1", n)
	}
	if e.Len() != 0 {
		t.Fatalf("len=%d want 0", e.Len())
	}
}

func TestEmitter_UnsubscribeDuringEmitKeepsSnapshot(t *testing.T) {
	var e Emitter[int]
	calls := map[string]int{}
	var unsubB func()
	e.Subscribe(func(int) {
		calls["a"]++
		unsubB()
	})
	unsubB = e.Subscribe(func(int) { calls["b"]++ })
	e.Subscribe(func(int) { calls["c"]++ })

	e.Emit(1)
	e.Emit(2)

	if calls["a"] != 2 || calls["c"] != 2 {
		t.Fatalf("unexpected calls: %v", calls)
	}
	if calls["b"] != 1 {
		t.Fatalf("b calls=%d want 1 (removed after first emit)", calls["b"])
	}
}
