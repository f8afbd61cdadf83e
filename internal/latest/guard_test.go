package latest

import "testing"

func TestGuard(t *testing.T) {
	var g Guard

	first := g.Begin()
	if !g.Current(first) {
		t.Fatal("first ticket should be current")
	}

	second := g.Begin()
	if g.Current(first) {
		t.Error("first ticket should be stale after a newer request")
	}
	if !g.Current(second) {
		t.Error("second ticket should be current")
	}

	g.Invalidate()
	if g.Current(second) {
		t.Error("Invalidate should make every ticket stale")
	}
}
