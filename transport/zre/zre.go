// Package zre is a concrete transport.Transport: UDP beacon discovery
// plus a ROUTER/DEALER mesh exchanging the HELLO/WHISPER/SHOUT/JOIN/
// LEAVE/PING/PING-OK frames defined in the msg package. All mutable
// state (peers, groups, sockets) is owned by a single actor goroutine
// started by Start; Join, Leave, Whisper and Shout only ever post a
// closure onto that goroutine's command channel, the same pattern
// Gyre's own node uses for its ROUTER/DEALER actor. The name and
// headers are guarded by a mutex instead, Start binds the ROUTER
// socket and publishes the beacon before launching the actor, and Stop
// closes the actor's done channel and the beacon directly.
package zre

import (
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	zmq "github.com/pebbe/zmq4"

	"github.com/fieldOfView/zocp-go/beacon"
	"github.com/fieldOfView/zocp-go/msg"
	"github.com/fieldOfView/zocp-go/transport"
)

const (
	beaconPort     = 5670
	beaconInterval = 1 * time.Second
	tickInterval   = 250 * time.Millisecond
	beaconMagic    = "ZB"
)

func marshalBeacon(id uuid.UUID, port uint16) []byte {
	buf := make([]byte, 2+16+2)
	copy(buf[0:2], beaconMagic)
	copy(buf[2:18], id[:])
	binary.BigEndian.PutUint16(buf[18:20], port)
	return buf
}

func unmarshalBeacon(data []byte) (uuid.UUID, uint16, bool) {
	if len(data) != 20 || string(data[0:2]) != beaconMagic {
		return uuid.UUID{}, 0, false
	}
	var id uuid.UUID
	copy(id[:], data[2:18])
	return id, binary.BigEndian.Uint16(data[18:20]), true
}

func parsePort(endpoint string) (uint16, error) {
	host := strings.TrimPrefix(endpoint, "tcp://")
	_, portStr, err := net.SplitHostPort(host)
	if err != nil {
		return 0, err
	}
	p, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(p), nil
}

// Node is the ZRE transport.Transport implementation.
type Node struct {
	ctx    *zmq.Context
	router *zmq.Socket
	beac   *beacon.Beacon
	id     uuid.UUID

	mu      sync.Mutex // guards name/headers, readable from any goroutine
	name    string
	headers map[string]string

	peers      map[string]*peer
	groups     map[string]*group
	peerGroups map[string]map[string]bool

	events chan *transport.Event
	cmds   chan func()
	done   chan struct{}

	endpoint string
}

// New creates an unstarted ZRE node with a freshly generated UUID.
func New() (*Node, error) {
	ctx, err := zmq.NewContext()
	if err != nil {
		return nil, fmt.Errorf("zre: new context: %w", err)
	}
	router, err := ctx.NewSocket(zmq.ROUTER)
	if err != nil {
		return nil, fmt.Errorf("zre: new router socket: %w", err)
	}
	id := uuid.New()
	n := &Node{
		ctx:        ctx,
		router:     router,
		id:         id,
		name:       id.String()[:6],
		headers:    make(map[string]string),
		peers:      make(map[string]*peer),
		groups:     make(map[string]*group),
		peerGroups: make(map[string]map[string]bool),
		events:     make(chan *transport.Event, 256),
		cmds:       make(chan func(), 256),
		done:       make(chan struct{}),
	}
	return n, nil
}

func (n *Node) Uuid() string { return n.id.String() }

func (n *Node) Name() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.name
}

func (n *Node) SetName(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.name = name
}

func (n *Node) Header(key string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	v, ok := n.headers[key]
	return v, ok
}

func (n *Node) Headers() map[string]string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make(map[string]string, len(n.headers))
	for k, v := range n.headers {
		out[k] = v
	}
	return out
}

func (n *Node) SetHeader(key, value string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.headers[key] = value
}

// Start binds the ROUTER socket to an ephemeral port, publishes a UDP
// beacon advertising it, and launches the actor goroutine.
func (n *Node) Start() error {
	if err := n.router.Bind("tcp://*:0"); err != nil {
		return fmt.Errorf("zre: bind router: %w", err)
	}
	endpoint, err := n.router.GetLastEndpoint()
	if err != nil {
		return fmt.Errorf("zre: resolve endpoint: %w", err)
	}
	n.endpoint = endpoint

	port, err := parsePort(endpoint)
	if err != nil {
		return fmt.Errorf("zre: parse bound port: %w", err)
	}

	n.beac = beacon.New()
	n.beac.SetPort(beaconPort)
	n.beac.SetInterval(beaconInterval)
	n.beac.NoEcho()
	n.beac.Subscribe([]byte(beaconMagic))
	if err := n.beac.Publish(marshalBeacon(n.id, port)); err != nil {
		return fmt.Errorf("zre: publish beacon: %w", err)
	}

	go n.run()
	return nil
}

// Stop tears down the beacon and actor goroutine. Peers are not
// explicitly notified; they will time out this node via PEER_EXPIRED.
func (n *Node) Stop() {
	close(n.done)
	if n.beac != nil {
		n.beac.Close()
	}
}

func (n *Node) Join(group string) {
	n.cmds <- func() { n.doJoin(group) }
}

func (n *Node) Leave(group string) {
	n.cmds <- func() { n.doLeave(group) }
}

func (n *Node) Whisper(peerID string, payload []byte) {
	n.cmds <- func() {
		p, ok := n.peers[peerID]
		if !ok {
			return
		}
		w := msg.NewWhisper()
		w.Content = payload
		p.send(w)
	}
}

func (n *Node) Shout(groupName string, payload []byte) {
	n.cmds <- func() {
		sh := msg.NewShout()
		sh.Group = groupName
		sh.Content = payload
		for uid, memberships := range n.peerGroups {
			if !memberships[groupName] {
				continue
			}
			if p, ok := n.peers[uid]; ok {
				p.send(sh)
			}
		}
	}
}

func (n *Node) Events() <-chan *transport.Event { return n.events }

func (n *Node) doJoin(groupName string) {
	if _, ok := n.groups[groupName]; ok {
		return
	}
	n.groups[groupName] = newGroup(groupName)
	jm := msg.NewJoin()
	jm.Group = groupName
	jm.Status = 1
	for _, p := range n.peers {
		p.send(jm)
	}
}

func (n *Node) doLeave(groupName string) {
	if _, ok := n.groups[groupName]; !ok {
		return
	}
	delete(n.groups, groupName)
	lm := msg.NewLeave()
	lm.Group = groupName
	lm.Status = 1
	for _, p := range n.peers {
		p.send(lm)
	}
}

// run owns every mutable field below it: peers, groups, peerGroups,
// and the router socket. It interleaves three sources of work: queued
// outbound commands, UDP beacon signals, and inbound ROUTER frames,
// plus a periodic liveness sweep.
func (n *Node) run() {
	defer n.router.Close()

	poller := zmq.NewPoller()
	poller.Add(n.router, zmq.POLLIN)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-n.done:
			for _, p := range n.peers {
				p.close()
			}
			return
		case cmd := <-n.cmds:
			cmd()
			continue
		case sig, ok := <-n.beac.Signals():
			if ok {
				n.onBeacon(sig)
			}
			continue
		case <-ticker.C:
			n.sweepPeers()
			continue
		default:
		}

		sockets, err := poller.Poll(tickInterval)
		if err != nil {
			continue
		}
		for _, s := range sockets {
			if s.Socket == n.router {
				n.onRouterReadable()
			}
		}
	}
}

func (n *Node) onRouterReadable() {
	t, err := msg.Recv(n.router)
	if err != nil {
		return
	}
	address := string(t.Address())

	switch m := t.(type) {
	case *msg.Hello:
		n.onHello(address, m)
	case *msg.Whisper:
		n.onWhisper(address, m)
	case *msg.Shout:
		n.onShout(address, m)
	case *msg.Join:
		n.onJoin(address, m)
	case *msg.Leave:
		n.onLeave(address, m)
	case *msg.Ping:
		n.onPing(address, m)
	case *msg.PingOk:
		n.onPingOk(address, m)
	}
}

func (n *Node) onBeacon(sig *beacon.Signal) {
	id, port, ok := unmarshalBeacon(sig.Transmit)
	if !ok {
		return
	}
	uid := id.String()
	if uid == n.id.String() {
		return
	}
	if p, known := n.peers[uid]; known {
		p.refresh()
		return
	}
	endpoint := fmt.Sprintf("tcp://%s:%d", sig.Addr, port)
	p, err := newPeer(n.ctx, uid, endpoint)
	if err != nil {
		return
	}
	n.peers[uid] = p
	n.sendHello(p)
}

func (n *Node) sendHello(p *peer) {
	hello := msg.NewHello()
	hello.Endpoint = n.endpoint
	hello.Status = 1
	hello.Name = n.Name()
	hello.Headers = n.Headers()
	for name := range n.groups {
		hello.Groups = append(hello.Groups, name)
	}
	p.send(hello)
}

func (n *Node) onHello(uid string, m *msg.Hello) {
	p, known := n.peers[uid]
	if !known {
		newP, err := newPeer(n.ctx, uid, m.Endpoint)
		if err != nil {
			return
		}
		p = newP
		n.peers[uid] = p
		n.sendHello(p)
	}
	p.name = m.Name
	p.headers = m.Headers
	p.refresh()

	if !known {
		n.events <- &transport.Event{
			Type: transport.EventEnter, Peer: uid, Name: m.Name,
			Addr: m.Endpoint, Headers: m.Headers,
		}
	}
	for _, g := range m.Groups {
		n.joinPeerToGroup(uid, g)
	}
}

func (n *Node) onWhisper(uid string, m *msg.Whisper) {
	if p, ok := n.peers[uid]; ok {
		p.refresh()
	}
	n.events <- &transport.Event{Type: transport.EventWhisper, Peer: uid, Frames: [][]byte{m.Content}}
}

func (n *Node) onShout(uid string, m *msg.Shout) {
	if p, ok := n.peers[uid]; ok {
		p.refresh()
	}
	n.events <- &transport.Event{Type: transport.EventShout, Peer: uid, Group: m.Group, Frames: [][]byte{m.Content}}
}

func (n *Node) onJoin(uid string, m *msg.Join) {
	if p, ok := n.peers[uid]; ok {
		p.refresh()
	}
	n.joinPeerToGroup(uid, m.Group)
}

func (n *Node) onLeave(uid string, m *msg.Leave) {
	if p, ok := n.peers[uid]; ok {
		p.refresh()
	}
	n.leavePeerFromGroup(uid, m.Group)
}

func (n *Node) onPing(uid string, _ *msg.Ping) {
	p, ok := n.peers[uid]
	if !ok {
		return
	}
	p.refresh()
	p.send(msg.NewPingOk())
}

func (n *Node) onPingOk(uid string, _ *msg.PingOk) {
	if p, ok := n.peers[uid]; ok {
		p.refresh()
	}
}

func (n *Node) joinPeerToGroup(uid, groupName string) {
	memberships, ok := n.peerGroups[uid]
	if !ok {
		memberships = make(map[string]bool)
		n.peerGroups[uid] = memberships
	}
	if memberships[groupName] {
		return
	}
	memberships[groupName] = true
	n.events <- &transport.Event{Type: transport.EventJoin, Peer: uid, Group: groupName}
}

func (n *Node) leavePeerFromGroup(uid, groupName string) {
	memberships := n.peerGroups[uid]
	if !memberships[groupName] {
		return
	}
	delete(memberships, groupName)
	n.events <- &transport.Event{Type: transport.EventLeave, Peer: uid, Group: groupName}
}

func (n *Node) sweepPeers() {
	for uid, p := range n.peers {
		switch {
		case p.expired():
			n.removePeer(uid)
		case p.evasive():
			p.pinged = true
			p.send(msg.NewPing())
		}
	}
}

func (n *Node) removePeer(uid string) {
	p, ok := n.peers[uid]
	if !ok {
		return
	}
	delete(n.peers, uid)
	for groupName := range n.peerGroups[uid] {
		n.events <- &transport.Event{Type: transport.EventLeave, Peer: uid, Group: groupName}
	}
	delete(n.peerGroups, uid)
	p.close()
	n.events <- &transport.Event{Type: transport.EventExit, Peer: uid}
}
