package dispatch

import (
	"log/slog"

	"github.com/fieldOfView/zocp-go/capability"
)

// SignalPayload is what OnPeerSignaled receives for one sink named
// in an incoming SIG message.
type SignalPayload struct {
	Source string
	Value  any
	Sink   string
}

// CallHandler services one CALL verb method name. Handlers are
// synchronous; long work is the handler's own responsibility to defer.
type CallHandler func(peer string, args []any) (any, error)

// Callbacks is the embedder-facing callback surface. Every field is
// optional; a nil field behaves as the documented default (log and
// return).
type Callbacks struct {
	OnPeerEnter    func(peer string)
	OnPeerExit     func(peer string)
	OnPeerJoin     func(peer, group string)
	OnPeerLeave    func(peer, group string)
	OnPeerWhisper  func(peer string, frames [][]byte)
	OnPeerShout    func(peer, group string, frames [][]byte)
	OnPeerModified func(peer string, payload capability.Node)
	OnPeerReplied  func(peer string, payload capability.Node)
	OnPeerSignaled func(peer string, payload SignalPayload)
	// OnModified receives peer == "" for a locally-originated change.
	OnModified func(payload any, peer string)
}

func (d *Dispatcher) peerEnter(peer string) {
	if d.callbacks.OnPeerEnter != nil {
		d.callbacks.OnPeerEnter(peer)
		return
	}
	d.log.Info("peer entered", "peer", peer)
}

func (d *Dispatcher) peerExit(peer string) {
	if d.callbacks.OnPeerExit != nil {
		d.callbacks.OnPeerExit(peer)
		return
	}
	d.log.Info("peer exited", "peer", peer)
}

func (d *Dispatcher) peerJoin(peer, group string) {
	if d.callbacks.OnPeerJoin != nil {
		d.callbacks.OnPeerJoin(peer, group)
		return
	}
	d.log.Info("peer joined group", "peer", peer, "group", group)
}

func (d *Dispatcher) peerLeave(peer, group string) {
	if d.callbacks.OnPeerLeave != nil {
		d.callbacks.OnPeerLeave(peer, group)
		return
	}
	d.log.Info("peer left group", "peer", peer, "group", group)
}

func (d *Dispatcher) peerWhisper(peer string, frames [][]byte) {
	if d.callbacks.OnPeerWhisper != nil {
		d.callbacks.OnPeerWhisper(peer, frames)
		return
	}
	d.log.Debug("peer whispered", "peer", peer, "frames", len(frames))
}

func (d *Dispatcher) peerShout(peer, group string, frames [][]byte) {
	if d.callbacks.OnPeerShout != nil {
		d.callbacks.OnPeerShout(peer, group, frames)
		return
	}
	d.log.Debug("peer shouted", "peer", peer, "group", group, "frames", len(frames))
}

func (d *Dispatcher) peerModified(peer string, payload capability.Node) {
	if d.callbacks.OnPeerModified != nil {
		d.callbacks.OnPeerModified(peer, payload)
		return
	}
	d.log.Debug("peer modified", "peer", peer)
}

func (d *Dispatcher) peerReplied(peer string, payload capability.Node) {
	if d.callbacks.OnPeerReplied != nil {
		d.callbacks.OnPeerReplied(peer, payload)
		return
	}
	d.log.Debug("peer replied", "peer", peer)
}

func (d *Dispatcher) peerSignaled(peer string, payload SignalPayload) {
	if d.callbacks.OnPeerSignaled != nil {
		d.callbacks.OnPeerSignaled(peer, payload)
		return
	}
	d.log.Debug("peer signaled", "peer", peer, "source", payload.Source, "sink", payload.Sink)
}

func (d *Dispatcher) modified(payload any, peer string) {
	if d.callbacks.OnModified != nil {
		d.callbacks.OnModified(payload, peer)
		return
	}
	if peer == "" {
		d.log.Debug("modified locally", "payload", slog.AnyValue(payload))
	} else {
		d.log.Debug("modified by peer", "peer", peer)
	}
}
