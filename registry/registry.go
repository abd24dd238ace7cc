// Package registry implements the peer registry: a mapping from
// peer identity to that peer's last-known mirrored capability tree.
package registry

import (
	"time"

	"github.com/fieldOfView/zocp-go/capability"
)

// Entry is one peer's mirrored capability and liveness timestamp.
type Entry struct {
	Capability capability.Node
	LastSeen   time.Time
}

// Registry holds the mirrored trees of every currently-known peer. It
// is not safe for concurrent use; like the capability tree, it is
// owned by the single event-loop goroutine.
type Registry struct {
	entries map[string]*Entry
	now     func() time.Time
}

// New returns an empty peer registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*Entry), now: time.Now}
}

// OnEnter creates an empty mirror entry for a newly-seen peer. The
// caller is expected to immediately enqueue a `GET null` to the peer
// to learn its capability; that side effect lives in the dispatcher,
// not here, so this package stays free of transport concerns.
func (r *Registry) OnEnter(peerID string) *Entry {
	e := &Entry{Capability: capability.Node{}, LastSeen: r.now()}
	r.entries[peerID] = e
	return e
}

// OnExit removes a peer's mirror entry.
func (r *Registry) OnExit(peerID string) {
	delete(r.entries, peerID)
}

// ApplyPeerUpdate merges subtree into peerID's mirror.
func (r *Registry) ApplyPeerUpdate(peerID string, subtree capability.Node) []string {
	e, ok := r.entries[peerID]
	if !ok {
		e = r.OnEnter(peerID)
	}
	touched := capability.FromRoot(e.Capability).ApplyMerge(subtree)
	e.LastSeen = r.now()
	return touched
}

// Get returns a peer's mirrored capability, or ok=false if the peer is
// unknown.
func (r *Registry) Get(peerID string) (capability.Node, bool) {
	e, ok := r.entries[peerID]
	if !ok {
		return nil, false
	}
	return e.Capability, true
}

// Touch refreshes a peer's last-seen timestamp without altering its
// mirrored capability.
func (r *Registry) Touch(peerID string) {
	if e, ok := r.entries[peerID]; ok {
		e.LastSeen = r.now()
	}
}

// Peers returns every currently-known peer identity.
func (r *Registry) Peers() []string {
	out := make([]string, 0, len(r.entries))
	for id := range r.entries {
		out = append(out, id)
	}
	return out
}

// Len reports how many peers are currently registered.
func (r *Registry) Len() int {
	return len(r.entries)
}
