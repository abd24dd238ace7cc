package subscription

import "testing"

func TestAddIsIdempotent(t *testing.T) {
	tbl := New()
	tbl.Add("C", "peer1", "C")
	tbl.Add("C", "peer1", "C")

	if tbl.Len() != 1 {
		t.Fatalf("expected 1 subscription, got %d", tbl.Len())
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	tbl := New()
	tbl.Add("C", "peer1", "C")
	tbl.Remove("C", "peer1", "C")
	tbl.Remove("C", "peer1", "C")

	if tbl.Len() != 0 {
		t.Fatalf("expected 0 subscriptions, got %d", tbl.Len())
	}
}

func TestMatchesExactAndPrefix(t *testing.T) {
	tbl := New()
	tbl.Add("objects.arm", "peer1", "arm.state")

	matches := tbl.Matches("objects.arm.angle")
	if len(matches) != 1 || matches[0].PeerID != "peer1" || matches[0].Sink != "arm.state" {
		t.Fatalf("expected container subscription to match nested attribute, got %v", matches)
	}

	if len(tbl.Matches("objects.other")) != 0 {
		t.Fatal("expected no match for unrelated path")
	}

	// A path that merely shares a prefix string (not a path segment)
	// must not match: "objects.arm2" should not match "objects.arm".
	if len(tbl.Matches("objects.arm2")) != 0 {
		t.Fatal("expected no match for a path that only shares a string prefix")
	}
}

func TestDropPeerRemovesAllItsSubscriptions(t *testing.T) {
	tbl := New()
	tbl.Add("C", "peer1", "C")
	tbl.Add("D", "peer1", "D")
	tbl.Add("D", "peer2", "D")

	tbl.DropPeer("peer1")

	if tbl.Len() != 1 {
		t.Fatalf("expected 1 subscription left, got %d", tbl.Len())
	}
	matches := tbl.Matches("D")
	if len(matches) != 1 || matches[0].PeerID != "peer2" {
		t.Fatalf("expected only peer2 left on D, got %v", matches)
	}
}
