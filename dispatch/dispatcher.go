// Package dispatch implements the central state machine that
// consumes transport events and decoded wire messages, and turns them
// into capability mutations, replies, and subscription fan-out. It is
// the heart of the system and is written to run entirely on one
// goroutine — the event loop's.
package dispatch

import (
	"fmt"
	"log/slog"

	"github.com/fieldOfView/zocp-go/capability"
	"github.com/fieldOfView/zocp-go/registry"
	"github.com/fieldOfView/zocp-go/subscription"
	"github.com/fieldOfView/zocp-go/transport"
	"github.com/fieldOfView/zocp-go/wire"
)

// Group is the well-known group every node joins at construction.
const Group = "ZOCP"

// Dispatcher wires together the capability tree, peer registry,
// subscription table and transport. It is not safe for concurrent
// use; all of its methods are meant to be called from the single
// event-loop goroutine (see the loop package).
type Dispatcher struct {
	tree      *capability.Tree
	registry  *registry.Registry
	subs      *subscription.Table
	transport transport.Transport
	handlers  map[string]CallHandler
	callbacks Callbacks
	log       *slog.Logger

	// pendingMod coalesces the broadcast-on-every-change MOD shout:
	// any number of local mutations within one event-loop iteration
	// collapse into a single trailing shout of the current tree.
	pendingMod bool
}

// New constructs a Dispatcher over tree/reg/subs and joins the
// well-known ZOCP group on tr.
func New(tr transport.Transport, tree *capability.Tree, reg *registry.Registry, subs *subscription.Table, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	d := &Dispatcher{
		tree:      tree,
		registry:  reg,
		subs:      subs,
		transport: tr,
		handlers:  make(map[string]CallHandler),
		log:       log,
	}
	tr.Join(Group)
	return d
}

// SetCallbacks installs the embedder's callback surface.
func (d *Dispatcher) SetCallbacks(cb Callbacks) {
	d.callbacks = cb
}

// RegisterHandler installs a CALL method handler.
func (d *Dispatcher) RegisterHandler(name string, h CallHandler) {
	d.handlers[name] = h
}

// HandleTransportEvent processes one transport event.
func (d *Dispatcher) HandleTransportEvent(ev *transport.Event) {
	switch ev.Type {
	case transport.EventEnter:
		d.registry.OnEnter(ev.Peer)
		d.peerEnter(ev.Peer)
		d.whisper(ev.Peer, wire.NewGetAll())

	case transport.EventExit:
		d.registry.OnExit(ev.Peer)
		d.subs.DropPeer(ev.Peer)
		d.peerExit(ev.Peer)

	case transport.EventJoin:
		d.peerJoin(ev.Peer, ev.Group)

	case transport.EventLeave:
		d.peerLeave(ev.Peer, ev.Group)

	case transport.EventWhisper:
		d.peerWhisper(ev.Peer, ev.Frames)
		d.handleFrames(ev.Peer, ev.Frames)

	case transport.EventShout:
		d.peerShout(ev.Peer, ev.Group, ev.Frames)
		d.handleFrames(ev.Peer, ev.Frames)
	}
}

func (d *Dispatcher) handleFrames(peer string, frames [][]byte) {
	for _, frame := range frames {
		msg, err := wire.Decode(frame)
		if err != nil {
			d.log.Warn("dropping malformed frame", "peer", peer, "err", err)
			continue
		}
		d.handleMessage(peer, msg)
	}
}

func (d *Dispatcher) handleMessage(peer string, msg wire.Message) {
	switch msg.Verb {
	case wire.GET:
		d.handleGet(peer, msg)
	case wire.SET:
		d.handleSet(peer, msg)
	case wire.CALL:
		d.handleCall(peer, msg)
	case wire.SUB:
		d.subs.Add(msg.Sub.Source, peer, msg.Sub.Sink)
	case wire.UNSUB:
		d.subs.Remove(msg.Sub.Source, peer, msg.Sub.Sink)
	case wire.REP:
		d.registry.ApplyPeerUpdate(peer, msg.Tree)
		d.peerReplied(peer, msg.Tree)
	case wire.MOD:
		d.registry.ApplyPeerUpdate(peer, msg.Tree)
		d.peerModified(peer, msg.Tree)
	case wire.SIG:
		for _, sink := range msg.Sig.Sinks {
			d.peerSignaled(peer, SignalPayload{Source: msg.Sig.Source, Value: msg.Sig.Value, Sink: sink})
		}
	}
}

// handleGet answers a GET with a REP whisper. A null payload replies
// with the whole tree; otherwise only the requested top-level keys.
// This never writes to the tree before replying.
func (d *Dispatcher) handleGet(peer string, msg wire.Message) {
	if msg.GetAll {
		d.whisper(peer, wire.NewRep(d.tree.Root()))
		return
	}
	reply := capability.Node{}
	for _, key := range msg.Keys {
		if v, ok := d.tree.Get(key); ok {
			reply[key] = v
		}
	}
	d.whisper(peer, wire.NewRep(reply))
}

// handleSet honors per-path access at the receiver: a leaf missing
// 'w' access is left unchanged, allowed leaves are merged and fanned
// out like any other local mutation.
func (d *Dispatcher) handleSet(peer string, msg wire.Message) {
	touched := d.tree.ApplyMergeFiltered(msg.Tree, d.allowWrite)
	if len(touched) == 0 {
		return
	}
	d.modified(msg.Tree, peer)
	d.pendingMod = true
	d.fanOutSET(touched)
}

func (d *Dispatcher) allowWrite(path []string, existing capability.Node) bool {
	if existing == nil {
		return true
	}
	access, _ := existing["access"].(string)
	return capability.ParseAccess(access).W
}

// handleCall looks up a handler by name and invokes it; an unknown
// method reports a CALL-error reply rather than failing locally.
func (d *Dispatcher) handleCall(peer string, msg wire.Message) {
	h, ok := d.handlers[msg.Call.Method]
	if !ok {
		d.log.Warn("unknown CALL method", "peer", peer, "method", msg.Call.Method)
		d.whisper(peer, wire.NewRep(capability.Node{"error": fmt.Sprintf("unknown method %q", msg.Call.Method)}))
		return
	}
	result, err := h(peer, msg.Call.Args)
	if err != nil {
		d.whisper(peer, wire.NewRep(capability.Node{"error": err.Error()}))
		return
	}
	if result != nil {
		d.whisper(peer, wire.NewRep(capability.Node{"result": result}))
	}
}

// MutateLocal runs the local-modification pipeline: it notifies the
// local callback, marks the coalesced MOD shout pending, and fans out
// SET whispers for every touched path whose attribute access contains
// 'e'. The façade calls this after registering an attribute and after
// SetMeta, and EmitSignal calls it after setting a value; opening an
// object does not call it.
func (d *Dispatcher) MutateLocal(ev capability.Event) {
	d.modified(ev.Payload, "")
	d.pendingMod = true
	d.fanOutSET(ev.Paths)
}

// EmitSignal mutates the attribute at path to value, runs the same
// local-modification pipeline as any other mutation, and additionally
// emits an explicit SIG to every subscriber, distinct from the
// implicit MOD broadcast.
func (d *Dispatcher) EmitSignal(path string, value any) error {
	ev, err := d.tree.SetValue(capability.SplitPath(path), value)
	if err != nil {
		return err
	}
	d.MutateLocal(ev)

	byPeer := make(map[string][]string)
	for _, sub := range d.subs.Matches(path) {
		byPeer[sub.PeerID] = append(byPeer[sub.PeerID], sub.Sink)
	}
	for peerID, sinks := range byPeer {
		d.whisper(peerID, wire.NewSig(path, value, sinks))
	}
	return nil
}

// fanOutSET emits a SET whisper to every subscriber of every touched
// path whose attribute access contains 'e'.
func (d *Dispatcher) fanOutSET(touched []string) {
	for _, path := range touched {
		attr, access, ok := d.tree.Attribute(path)
		if !ok || !access.E {
			continue
		}
		for _, sub := range d.subs.Matches(path) {
			d.whisper(sub.PeerID, wire.NewSet(nestAt(sub.Sink, cloneAttr(attr))))
		}
	}
}

// EndIteration flushes the coalesced MOD shout, if any mutation
// happened since the last flush. It is called once per event-loop
// iteration, before the next transport event is read.
func (d *Dispatcher) EndIteration() {
	if !d.pendingMod {
		return
	}
	d.pendingMod = false
	frame, err := wire.Encode(wire.NewMod(d.tree.Root()))
	if err != nil {
		d.log.Error("failed to encode MOD shout", "err", err)
		return
	}
	d.transport.Shout(Group, frame)
}

func (d *Dispatcher) whisper(peer string, msg wire.Message) {
	frame, err := wire.Encode(msg)
	if err != nil {
		d.log.Error("failed to encode message", "verb", msg.Verb, "err", err)
		return
	}
	d.transport.Whisper(peer, frame)
}

// IssuePeerGet encodes and whispers a GET to peer (façade entry
// point). keys == nil requests the whole tree.
func (d *Dispatcher) IssuePeerGet(peer string, keys []string) {
	if keys == nil {
		d.whisper(peer, wire.NewGetAll())
		return
	}
	d.whisper(peer, wire.NewGetKeys(keys))
}

// IssuePeerSet encodes and whispers a SET to peer.
func (d *Dispatcher) IssuePeerSet(peer string, payload capability.Node) {
	d.whisper(peer, wire.NewSet(payload))
}

// IssuePeerCall encodes and whispers a CALL to peer.
func (d *Dispatcher) IssuePeerCall(peer, method string, args []any) {
	d.whisper(peer, wire.NewCall(method, args))
}

// IssuePeerSubscribe encodes and whispers a SUB to peer.
func (d *Dispatcher) IssuePeerSubscribe(peer, source, sink string) {
	d.whisper(peer, wire.NewSub(source, sink))
}

// IssuePeerUnsubscribe encodes and whispers an UNSUB to peer.
func (d *Dispatcher) IssuePeerUnsubscribe(peer, source, sink string) {
	d.whisper(peer, wire.NewUnsub(source, sink))
}

func nestAt(sinkPath string, leaf any) capability.Node {
	segs := capability.SplitPath(sinkPath)
	if len(segs) == 0 {
		if node, ok := leaf.(capability.Node); ok {
			return node
		}
		return capability.Node{}
	}
	root := capability.Node{}
	cur := root
	for i, seg := range segs {
		if i == len(segs)-1 {
			cur[seg] = leaf
			break
		}
		next := capability.Node{}
		cur[seg] = next
		cur = next
	}
	return root
}

func cloneAttr(attr capability.Node) capability.Node {
	out := capability.Node{}
	for k, v := range attr {
		out[k] = v
	}
	return out
}
