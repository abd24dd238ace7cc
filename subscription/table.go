// Package subscription implements the subscription table: directed
// edges from a local attribute path to a remote peer's sink path.
package subscription

import (
	"strings"

	"github.com/fieldOfView/zocp-go/capability"
)

// Sub is one subscriber: a remote peer and the path on that peer
// where fan-out updates should land.
type Sub struct {
	PeerID string
	Sink   string
}

// Table maps a local source path to the set of peers subscribed to
// it. It is not safe for concurrent use.
type Table struct {
	bySource map[string][]Sub
}

// New returns an empty subscription table.
func New() *Table {
	return &Table{bySource: make(map[string][]Sub)}
}

// Add registers (source, peerID, sink), idempotently: a duplicate
// triple is a no-op.
func (t *Table) Add(source, peerID, sink string) {
	subs := t.bySource[source]
	for _, s := range subs {
		if s.PeerID == peerID && s.Sink == sink {
			return
		}
	}
	t.bySource[source] = append(subs, Sub{PeerID: peerID, Sink: sink})
}

// Remove drops (source, peerID, sink), idempotently: removing an
// absent triple is a no-op.
func (t *Table) Remove(source, peerID, sink string) {
	subs := t.bySource[source]
	for i, s := range subs {
		if s.PeerID == peerID && s.Sink == sink {
			t.bySource[source] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Matches returns every subscription whose source path is a prefix of
// changedPath or equal to it — subscribing to a container propagates
// all nested attribute updates.
func (t *Table) Matches(changedPath string) []Sub {
	var out []Sub
	for source, subs := range t.bySource {
		if source == changedPath || strings.HasPrefix(changedPath, source+capability.PathSeparator) {
			out = append(out, subs...)
		}
	}
	return out
}

// DropPeer removes every subscription referencing peerID, whether it
// is the subscriber or (in principle) addressed by path; called on
// peer-exit.
func (t *Table) DropPeer(peerID string) {
	for source, subs := range t.bySource {
		kept := subs[:0]
		for _, s := range subs {
			if s.PeerID != peerID {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			delete(t.bySource, source)
		} else {
			t.bySource[source] = kept
		}
	}
}

// Len reports the total number of subscription edges across all
// source paths.
func (t *Table) Len() int {
	n := 0
	for _, subs := range t.bySource {
		n += len(subs)
	}
	return n
}
