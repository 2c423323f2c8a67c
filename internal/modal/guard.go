package modal

import (
	"strings"
	"sync"
)

// EditGuard is the single "currently editing" flag of a session. Only one
// field edit may be in progress; a second one is refused until the first is
// saved or cancelled.
type EditGuard struct {
	mu     sync.Mutex
	target string
}

// Begin claims the guard for target. It succeeds when the guard is free or
// already held by the same target.
func (g *EditGuard) Begin(target string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.target != "" && g.target != target {
		return false
	}
	g.target = target
	return true
}

// End releases the guard if target holds it.
func (g *EditGuard) End(target string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.target == target {
		g.target = ""
	}
}

// Current returns the target being edited, or "".
func (g *EditGuard) Current() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.target
}

// GuardRegistry holds one EditGuard per session namespace. Its methods run
// under the registry lock, so Prune never drops a guard between lookup and
// claim.
type GuardRegistry struct {
	mu     sync.Mutex
	guards map[string]*EditGuard
	idle   map[string]bool // free at the last Prune
}

// NewGuardRegistry returns an empty registry.
func NewGuardRegistry() *GuardRegistry {
	return &GuardRegistry{guards: make(map[string]*EditGuard), idle: make(map[string]bool)}
}

// For returns the guard of namespace ns, creating it on first use.
func (r *GuardRegistry) For(ns string) *EditGuard {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookupLocked(ns)
}

func (r *GuardRegistry) lookupLocked(ns string) *EditGuard {
	delete(r.idle, ns)
	g, ok := r.guards[ns]
	if !ok {
		g = &EditGuard{}
		r.guards[ns] = g
	}
	return g
}

// Begin claims the guard of ns for target.
func (r *GuardRegistry) Begin(ns, target string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookupLocked(ns).Begin(target)
}

// End releases the guard of ns if target holds it.
func (r *GuardRegistry) End(ns, target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.guards[ns]; ok {
		g.End(target)
	}
}

// EndPrefix releases the guard of ns if its target starts with prefix, e.g.
// every field of a deleted record. An empty prefix releases any edit.
func (r *GuardRegistry) EndPrefix(ns, prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.guards[ns]
	if !ok {
		return
	}
	if cur := g.Current(); cur != "" && strings.HasPrefix(cur, prefix) {
		g.End(cur)
	}
}

// Current returns the target being edited in ns, or "".
func (r *GuardRegistry) Current(ns string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.guards[ns]; ok {
		return g.Current()
	}
	return ""
}

// Forget drops the guard of ns, e.g. on logout.
func (r *GuardRegistry) Forget(ns string) {
	r.mu.Lock()
	delete(r.guards, ns)
	delete(r.idle, ns)
	r.mu.Unlock()
}

// Prune drops guards that were free at this pass and the previous one, with
// no use in between.
func (r *GuardRegistry) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for ns, g := range r.guards {
		if g.Current() != "" {
			delete(r.idle, ns)
			continue
		}
		if r.idle[ns] {
			delete(r.guards, ns)
			delete(r.idle, ns)
			n++
			continue
		}
		r.idle[ns] = true
	}
	return n
}
