package zre

import (
	"time"

	zmq "github.com/pebbe/zmq4"

	"github.com/fieldOfView/zocp-go/msg"
)

// peerExpired is how long a peer may stay silent before it is
// considered gone, in the absence of a LEAVE/disconnect (ZRE's
// PEER_EXPIRED interval).
const peerExpired = 30 * time.Second

// peerEvasive is how long a peer may stay silent before we ping it
// (ZRE's PEER_EVASIVE interval).
const peerEvasive = 10 * time.Second

// peer tracks one remote node we have exchanged a HELLO with: its
// outgoing DEALER connection, announced name/headers, group
// memberships, and message sequencing state.
type peer struct {
	uuid     string
	endpoint string
	mailbox  *zmq.Socket
	name     string
	headers  map[string]string
	groups   map[string]bool
	status   byte
	sentSeq  uint16
	wantSeq  uint16
	lastSeen time.Time
	pinged   bool
}

func newPeer(ctx *zmq.Context, uuid, endpoint string) (*peer, error) {
	mailbox, err := ctx.NewSocket(zmq.DEALER)
	if err != nil {
		return nil, err
	}
	mailbox.SetLinger(0)
	mailbox.SetSndhwm(1000)
	mailbox.SetIdentity(uuid)
	if err := mailbox.Connect(endpoint); err != nil {
		mailbox.Close()
		return nil, err
	}
	return &peer{
		uuid:     uuid,
		endpoint: endpoint,
		mailbox:  mailbox,
		groups:   make(map[string]bool),
		lastSeen: time.Now(),
	}, nil
}

func (p *peer) send(t msg.Transit) error {
	p.sentSeq++
	t.SetSequence(p.sentSeq)
	return t.Send(p.mailbox)
}

func (p *peer) close() {
	p.mailbox.Close()
}

func (p *peer) refresh() {
	p.lastSeen = time.Now()
	p.pinged = false
}

func (p *peer) expired() bool {
	return time.Since(p.lastSeen) > peerExpired
}

func (p *peer) evasive() bool {
	return !p.pinged && time.Since(p.lastSeen) > peerEvasive
}
