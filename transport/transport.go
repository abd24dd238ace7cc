// Package transport defines the group-membership transport contract
// that the rest of this module is written against. The transport
// itself — peer discovery, the wire-level ENTER/EXIT/JOIN/LEAVE/
// WHISPER/SHOUT primitives — is an external collaborator; this
// package only describes the shape, modeled on Gyre's public Node
// surface (gyre.go, event.go) but trimmed to exactly what the
// dispatcher depends on.
package transport

// EventType is the kind of a transport Event.
type EventType int

// The six event kinds a transport delivers.
const (
	EventEnter EventType = iota + 1
	EventExit
	EventJoin
	EventLeave
	EventWhisper
	EventShout
)

// String renders an EventType for logging.
func (e EventType) String() string {
	switch e {
	case EventEnter:
		return "ENTER"
	case EventExit:
		return "EXIT"
	case EventJoin:
		return "JOIN"
	case EventLeave:
		return "LEAVE"
	case EventWhisper:
		return "WHISPER"
	case EventShout:
		return "SHOUT"
	default:
		return "UNKNOWN"
	}
}

// Event is one transport occurrence: a peer entering or leaving, a
// group join/leave, or a point-to-point/group message delivery.
type Event struct {
	Type    EventType
	Peer    string            // sending/subject peer's UUID
	Name    string            // sending peer's public name, for ENTER
	Addr    string            // sending peer's address, for ENTER
	Headers map[string]string // announced headers, for ENTER
	Group   string            // group name, for JOIN/LEAVE/SHOUT
	Frames  [][]byte          // message payload, for WHISPER/SHOUT
}

// Transport is the group-membership primitive the dispatcher and
// event loop are built on: peer UUIDs, group join/leave, point-to-
// point whisper and group shout, and an event stream standing in for
// a poll-once primitive (a Go channel is the idiomatic equivalent of
// "poll-once returns the next event").
type Transport interface {
	// Uuid returns this node's own 128-bit peer identity as a string.
	Uuid() string

	// Name returns this node's public name.
	Name() string
	// SetName sets this node's public name before Start.
	SetName(name string)

	// Header returns one announced header value.
	Header(key string) (value string, ok bool)
	// Headers returns every announced header.
	Headers() map[string]string
	// SetHeader sets a header to be announced on presence (before Start).
	SetHeader(key, value string)

	// Start begins discovery and connection.
	Start() error
	// Stop releases transport resources. Peers are not necessarily
	// told that this node is going away: the zre implementation leaves
	// them to time it out.
	Stop()

	// Join and Leave a named group.
	Join(group string)
	Leave(group string)

	// Whisper sends payload to a single peer by UUID.
	Whisper(peer string, payload []byte)
	// Shout sends payload to every peer in group.
	Shout(group string, payload []byte)

	// Events returns the channel of incoming transport events.
	Events() <-chan *Event
}
