package wire

import (
	"reflect"
	"testing"

	"github.com/fieldOfView/zocp-go/capability"
)

func roundTrip(t *testing.T, m Message) Message {
	t.Helper()
	frame, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return got
}

func TestRoundTripGetAll(t *testing.T) {
	got := roundTrip(t, NewGetAll())
	if got.Verb != GET || !got.GetAll {
		t.Fatalf("unexpected message: %#v", got)
	}
}

func TestRoundTripGetKeys(t *testing.T) {
	m := NewGetKeys([]string{"A", "B"})
	got := roundTrip(t, m)
	if got.Verb != GET || got.GetAll {
		t.Fatalf("unexpected message: %#v", got)
	}
	if !reflect.DeepEqual(got.Keys, m.Keys) {
		t.Fatalf("expected keys %v, got %v", m.Keys, got.Keys)
	}
}

func TestRoundTripSet(t *testing.T) {
	tree := capability.Node{"A": capability.Node{"value": 7.0, "typeHint": "int", "access": "r"}}
	got := roundTrip(t, NewSet(tree))
	if got.Verb != SET || !reflect.DeepEqual(got.Tree, tree) {
		t.Fatalf("unexpected message: %#v", got)
	}
}

func TestRoundTripCall(t *testing.T) {
	m := NewCall("ping", []any{1.0, "x"})
	got := roundTrip(t, m)
	if got.Verb != CALL || got.Call.Method != "ping" || !reflect.DeepEqual(got.Call.Args, m.Call.Args) {
		t.Fatalf("unexpected message: %#v", got)
	}
}

func TestRoundTripSub(t *testing.T) {
	got := roundTrip(t, NewSub("C", "C"))
	if got.Verb != SUB || got.Sub.Source != "C" || got.Sub.Sink != "C" {
		t.Fatalf("unexpected message: %#v", got)
	}
}

func TestRoundTripUnsub(t *testing.T) {
	got := roundTrip(t, NewUnsub("C", "C"))
	if got.Verb != UNSUB || got.Sub.Source != "C" || got.Sub.Sink != "C" {
		t.Fatalf("unexpected message: %#v", got)
	}
}

func TestRoundTripRep(t *testing.T) {
	tree := capability.Node{"A": capability.Node{"value": 1.0, "typeHint": "int", "access": "r"}}
	got := roundTrip(t, NewRep(tree))
	if got.Verb != REP || !reflect.DeepEqual(got.Tree, tree) {
		t.Fatalf("unexpected message: %#v", got)
	}
}

func TestRoundTripMod(t *testing.T) {
	tree := capability.Node{"A": capability.Node{"value": 1.0, "typeHint": "int", "access": "r"}}
	got := roundTrip(t, NewMod(tree))
	if got.Verb != MOD || !reflect.DeepEqual(got.Tree, tree) {
		t.Fatalf("unexpected message: %#v", got)
	}
}

func TestRoundTripSig(t *testing.T) {
	m := NewSig("C", 1.0, []string{"C", "D"})
	got := roundTrip(t, m)
	if got.Verb != SIG || got.Sig.Source != "C" || got.Sig.Value != 1.0 || !reflect.DeepEqual(got.Sig.Sinks, m.Sig.Sinks) {
		t.Fatalf("unexpected message: %#v", got)
	}
}

func TestDecodeUnknownVerbIsDecodeError(t *testing.T) {
	_, err := Decode([]byte(`{"FROB": 1}`))
	if err == nil {
		t.Fatal("expected decode error for unknown verb")
	}
}

func TestDecodeMalformedJSONIsDecodeError(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	if err == nil {
		t.Fatal("expected decode error for malformed JSON")
	}
}

func TestDecodeMultipleKeysIsDecodeError(t *testing.T) {
	_, err := Decode([]byte(`{"GET": null, "SET": {}}`))
	if err == nil {
		t.Fatal("expected decode error for multi-key envelope")
	}
}
