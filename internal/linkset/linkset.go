// Package linkset provides the two small collections every multi-link node
// wires onto its Links: a Registry of downstream peers addressable by
// instance ID for link.DownstreamLookup, and a single-slot Upstream for
// link.UpstreamLookup. Both are thread-safe since peers connect and
// disconnect concurrently with in-flight forwarding calls.
package linkset

import (
	"sort"
	"sync"

	"github.com/fleetlink/core/link"
)

// Registry tracks every currently connected downstream peer Link (a host's
// instance Links, or a controller's host Links) plus, separately, which
// peer owns which instance ID — the same Registry answers both
// DownstreamLookup.All() (broadcast fan-out) and ByInstance (targeted
// forward), since a controller's "downstream" for a given instance is the
// host Link that owns it, while a host's is the instance Link itself.
type Registry struct {
	mu         sync.RWMutex
	members    map[string]*link.Link // keyed by an opaque member key (e.g. connector id)
	byInstance map[int64]*link.Link
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		members:    make(map[string]*link.Link),
		byInstance: make(map[int64]*link.Link),
	}
}

// AddMember registers l as a connected downstream peer under key (typically
// the connection's own identifier), making it eligible for broadcast
// fan-out even before any instance has been assigned to it.
func (r *Registry) AddMember(key string, l *link.Link) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[key] = l
}

// RemoveMember drops key from the member set and from every instance
// assignment that pointed at it.
func (r *Registry) RemoveMember(key string, l *link.Link) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, key)
	for id, m := range r.byInstance {
		if m == l {
			delete(r.byInstance, id)
		}
	}
}

// Assign records that instanceID is reachable through l.
func (r *Registry) Assign(instanceID int64, l *link.Link) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byInstance[instanceID] = l
}

// Unassign forgets instanceID's routing, leaving its owning member
// connected (if still present) but unreachable-by-ID until reassigned.
func (r *Registry) Unassign(instanceID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byInstance, instanceID)
}

// ByInstance implements link.DownstreamLookup.
func (r *Registry) ByInstance(instanceID int64) (*link.Link, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.byInstance[instanceID]
	return l, ok
}

// All implements link.DownstreamLookup, in a stable (key-sorted) order so
// broadcast fan-out is deterministic across runs.
func (r *Registry) All() []*link.Link {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.members))
	for k := range r.members {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*link.Link, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.members[k])
	}
	return out
}

// Upstream holds the single upstream Link a node dials out to, satisfying
// link.UpstreamLookup. Separate from Registry since a node has at most one
// upstream but may hold many downstream peers.
type Upstream struct {
	mu sync.RWMutex
	l  *link.Link
}

// NewUpstream builds an empty Upstream.
func NewUpstream() *Upstream {
	return &Upstream{}
}

// Set installs (or replaces) the upstream Link.
func (u *Upstream) Set(l *link.Link) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.l = l
}

// Clear drops the upstream Link, e.g. after it disconnects.
func (u *Upstream) Clear() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.l = nil
}

// Upstream implements link.UpstreamLookup.
func (u *Upstream) Upstream() (*link.Link, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.l, u.l != nil
}
