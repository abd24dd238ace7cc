// Package zocp is the public façade over the rest of this module: one
// Node ties a capability tree, peer registry, subscription table,
// dispatcher and event loop to a transport, and exposes the small
// surface an embedder actually needs (register attributes, read/write
// peers, subscribe, signal, run).
package zocp

import (
	"log/slog"
	"time"

	"github.com/fieldOfView/zocp-go/capability"
	"github.com/fieldOfView/zocp-go/dispatch"
	"github.com/fieldOfView/zocp-go/loop"
	"github.com/fieldOfView/zocp-go/registry"
	"github.com/fieldOfView/zocp-go/subscription"
	"github.com/fieldOfView/zocp-go/transport"
	"github.com/fieldOfView/zocp-go/transport/zre"
)

// Node is one ZOCP participant.
type Node struct {
	transport transport.Transport
	tree      *capability.Tree
	registry  *registry.Registry
	subs      *subscription.Table
	dispatch  *dispatch.Dispatcher
	loop      *loop.Loop
}

// New constructs a Node over the built-in ZRE transport and names it.
// The node still needs Start to begin discovery.
func New(name string, log *slog.Logger) (*Node, error) {
	tr, err := zre.New()
	if err != nil {
		return nil, err
	}
	return NewWithTransport(tr, name, log)
}

// NewWithTransport constructs a Node over a caller-supplied transport,
// for tests or alternative group-membership backends.
func NewWithTransport(tr transport.Transport, name string, log *slog.Logger) (*Node, error) {
	tr.SetName(name)

	tree := capability.New()
	reg := registry.New()
	subs := subscription.New()
	d := dispatch.New(tr, tree, reg, subs, log)
	l := loop.New(tr, d)

	return &Node{
		transport: tr,
		tree:      tree,
		registry:  reg,
		subs:      subs,
		dispatch:  d,
		loop:      l,
	}, nil
}

// Uuid returns this node's peer identity.
func (n *Node) Uuid() string { return n.transport.Uuid() }

// Name returns this node's public name.
func (n *Node) Name() string { return n.transport.Name() }

// SetHeader announces a header value, before Start.
func (n *Node) SetHeader(key, value string) { n.transport.SetHeader(key, value) }

// Header returns an announced header value.
func (n *Node) Header(key string) (string, bool) { return n.transport.Header(key) }

// SetCallbacks installs the embedder's callback surface.
func (n *Node) SetCallbacks(cb dispatch.Callbacks) { n.dispatch.SetCallbacks(cb) }

// RegisterCallHandler installs a CALL method handler.
func (n *Node) RegisterCallHandler(method string, h dispatch.CallHandler) {
	n.dispatch.RegisterHandler(method, h)
}

// Start begins discovery and connection.
func (n *Node) Start() error { return n.transport.Start() }

// Stop ends a running Run after its current iteration and tears down
// the transport.
func (n *Node) Stop() {
	n.loop.Stop()
	n.transport.Stop()
}

// RunOnce handles either the pending transport events (the first one
// it waits for plus any already queued behind it) or a due timer, and
// returns; it never waits longer than timeout. Distinct from Run: it
// hands control back to an embedder that has its own loop to run
// alongside this node's.
func (n *Node) RunOnce(timeout time.Duration) { n.loop.Step(timeout) }

// Run drives this node's event loop until Stop or StopLoop is called,
// using timeout as the per-iteration timer granularity.
func (n *Node) Run(timeout time.Duration) { n.loop.Run(timeout) }

// StopLoop ends a running Run without tearing down the transport.
func (n *Node) StopLoop() { n.loop.Stop() }

// ScheduleRepeating runs cb every interval until the returned cancel
// func is called.
func (n *Node) ScheduleRepeating(interval time.Duration, cb func()) (cancel func()) {
	return n.loop.ScheduleRepeating(interval, cb)
}

// Peers lists every currently-known peer UUID.
func (n *Node) Peers() []string { return n.registry.Peers() }

// PeerCapability returns the last-known mirrored capability tree for
// peer, if any.
func (n *Node) PeerCapability(peer string) (capability.Node, bool) { return n.registry.Get(peer) }

// PeerGet issues a GET to peer; keys == nil requests its whole tree.
func (n *Node) PeerGet(peer string, keys []string) { n.dispatch.IssuePeerGet(peer, keys) }

// PeerSet issues a SET to peer.
func (n *Node) PeerSet(peer string, payload capability.Node) { n.dispatch.IssuePeerSet(peer, payload) }

// PeerCall issues a CALL to peer.
func (n *Node) PeerCall(peer, method string, args []any) { n.dispatch.IssuePeerCall(peer, method, args) }

// PeerSubscribe issues a SUB to peer.
func (n *Node) PeerSubscribe(peer, source, sink string) {
	n.dispatch.IssuePeerSubscribe(peer, source, sink)
}

// PeerUnsubscribe issues an UNSUB to peer.
func (n *Node) PeerUnsubscribe(peer, source, sink string) {
	n.dispatch.IssuePeerUnsubscribe(peer, source, sink)
}

// EmitSignal sets the attribute at path to value and additionally
// emits an explicit SIG to every subscriber, distinct from the
// implicit MOD broadcast every mutation already triggers.
func (n *Node) EmitSignal(path string, value any) error {
	return n.dispatch.EmitSignal(path, value)
}

// SetMeta writes a reserved "_"-prefixed root key (e.g. _name).
func (n *Node) SetMeta(key string, value any) error {
	ev, err := n.tree.SetMeta(key, value)
	if err != nil {
		return err
	}
	n.dispatch.MutateLocal(ev)
	return nil
}

// SetLocation, SetOrientation, SetScale and SetMatrix are convenience
// wrappers over SetMeta for the reserved placement keys the data
// model recognizes at the root.
func (n *Node) SetLocation(xyz [3]float64) error    { return n.SetMeta("_location", xyz[:]) }
func (n *Node) SetOrientation(xyz [3]float64) error { return n.SetMeta("_orientation", xyz[:]) }
func (n *Node) SetScale(xyz [3]float64) error       { return n.SetMeta("_scale", xyz[:]) }
func (n *Node) SetMatrix(m [16]float64) error       { return n.SetMeta("_matrix", m[:]) }

// Root returns a Scope handle onto the root of this node's capability
// tree, for registering objects and attributes.
func (n *Node) Root() *Scope { return &Scope{node: n, path: nil} }
