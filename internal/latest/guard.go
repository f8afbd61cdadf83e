// Package latest implements a request-generation check so that only the most
// recently started request may commit its result.
package latest

import "sync/atomic"

// Guard hands out monotonically increasing tickets.
type Guard struct {
	gen atomic.Uint64
}

// Ticket identifies one request.
type Ticket uint64

// Begin starts a new request, invalidating every earlier ticket.
func (g *Guard) Begin() Ticket {
	return Ticket(g.gen.Add(1))
}

// Current reports whether t is still the latest request.
func (g *Guard) Current(t Ticket) bool {
	return uint64(t) == g.gen.Load()
}

// Invalidate discards any in-flight request, e.g. when its consumer goes away.
func (g *Guard) Invalidate() {
	g.gen.Add(1)
}
