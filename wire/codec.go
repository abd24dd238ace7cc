// Package wire implements the ZOCP wire codec: encoding and decoding
// the five request verbs (GET/SET/CALL/SUB/UNSUB) plus REP/MOD/SIG to
// and from single-frame
// JSON objects. Framing (where a message begins and ends on the
// transport) is the transport's responsibility; this package only
// ever sees one already-delimited byte payload at a time.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fieldOfView/zocp-go/capability"
)

// Verb is one of the eight logical message kinds.
type Verb string

const (
	GET   Verb = "GET"
	SET   Verb = "SET"
	CALL  Verb = "CALL"
	SUB   Verb = "SUB"
	UNSUB Verb = "UNSUB"
	REP   Verb = "REP"
	MOD   Verb = "MOD"
	SIG   Verb = "SIG"
)

// ErrDecode wraps every decode failure: malformed JSON, an envelope
// with zero or multiple keys, or an unrecognized verb.
var ErrDecode = errors.New("wire: decode error")

// CallPayload is the CALL verb's [method, [args...]] payload.
type CallPayload struct {
	Method string
	Args   []any
}

// SubPayload is the SUB/UNSUB verb's [source_path, sink_path] payload.
type SubPayload struct {
	Source string
	Sink   string
}

// SigPayload is the SIG verb's [source_path, value, [sink_paths...]]
// payload.
type SigPayload struct {
	Source string
	Value  any
	Sinks  []string
}

// Message is a decoded (or to-be-encoded) wire message. Exactly one
// of the typed payload fields is meaningful, selected by Verb.
type Message struct {
	Verb Verb

	// GET
	Keys   []string // nil + GetAll==false is invalid; see GetAll
	GetAll bool     // true when the GET payload was JSON null

	// SET, REP, MOD
	Tree capability.Node

	Call *CallPayload
	Sub  *SubPayload
	Sig  *SigPayload
}

// NewGetAll builds a GET message requesting the whole tree.
func NewGetAll() Message { return Message{Verb: GET, GetAll: true} }

// NewGetKeys builds a GET message requesting specific top-level keys.
func NewGetKeys(keys []string) Message { return Message{Verb: GET, Keys: keys} }

// NewSet builds a SET message carrying a partial tree to merge.
func NewSet(tree capability.Node) Message { return Message{Verb: SET, Tree: tree} }

// NewCall builds a CALL message.
func NewCall(method string, args []any) Message {
	return Message{Verb: CALL, Call: &CallPayload{Method: method, Args: args}}
}

// NewSub builds a SUB message.
func NewSub(source, sink string) Message {
	return Message{Verb: SUB, Sub: &SubPayload{Source: source, Sink: sink}}
}

// NewUnsub builds an UNSUB message.
func NewUnsub(source, sink string) Message {
	return Message{Verb: UNSUB, Sub: &SubPayload{Source: source, Sink: sink}}
}

// NewRep builds a REP message.
func NewRep(tree capability.Node) Message { return Message{Verb: REP, Tree: tree} }

// NewMod builds a MOD message.
func NewMod(tree capability.Node) Message { return Message{Verb: MOD, Tree: tree} }

// NewSig builds a SIG message.
func NewSig(source string, value any, sinks []string) Message {
	return Message{Verb: SIG, Sig: &SigPayload{Source: source, Value: value, Sinks: sinks}}
}

// Encode renders m as a single JSON object frame.
func Encode(m Message) ([]byte, error) {
	var payload any

	switch m.Verb {
	case GET:
		if m.GetAll {
			payload = nil
		} else {
			payload = m.Keys
		}
	case SET, REP, MOD:
		payload = m.Tree
	case CALL:
		if m.Call == nil {
			return nil, fmt.Errorf("wire: CALL message missing payload")
		}
		payload = []any{m.Call.Method, m.Call.Args}
	case SUB, UNSUB:
		if m.Sub == nil {
			return nil, fmt.Errorf("wire: %s message missing payload", m.Verb)
		}
		payload = []any{m.Sub.Source, m.Sub.Sink}
	case SIG:
		if m.Sig == nil {
			return nil, fmt.Errorf("wire: SIG message missing payload")
		}
		payload = []any{m.Sig.Source, m.Sig.Value, m.Sig.Sinks}
	default:
		return nil, fmt.Errorf("wire: unknown verb %q", m.Verb)
	}

	return json.Marshal(map[string]any{string(m.Verb): payload})
}

// Decode parses a single frame into a Message. Malformed JSON,
// envelopes that don't carry exactly one key, and unrecognized verbs
// all report ErrDecode so callers can log-and-drop.
func Decode(frame []byte) (Message, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(frame, &envelope); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(envelope) != 1 {
		return Message{}, fmt.Errorf("%w: expected exactly one verb key, got %d", ErrDecode, len(envelope))
	}

	var verb Verb
	var raw json.RawMessage
	for k, v := range envelope {
		verb, raw = Verb(k), v
	}

	switch verb {
	case GET:
		return decodeGet(raw)
	case SET:
		tree, err := decodeTree(raw)
		return Message{Verb: SET, Tree: tree}, err
	case CALL:
		return decodeCall(raw)
	case SUB:
		sub, err := decodeSub(raw)
		return Message{Verb: SUB, Sub: sub}, err
	case UNSUB:
		sub, err := decodeSub(raw)
		return Message{Verb: UNSUB, Sub: sub}, err
	case REP:
		tree, err := decodeTree(raw)
		return Message{Verb: REP, Tree: tree}, err
	case MOD:
		tree, err := decodeTree(raw)
		return Message{Verb: MOD, Tree: tree}, err
	case SIG:
		return decodeSig(raw)
	default:
		return Message{}, fmt.Errorf("%w: unknown verb %q", ErrDecode, verb)
	}
}

func decodeGet(raw json.RawMessage) (Message, error) {
	if string(raw) == "null" {
		return Message{Verb: GET, GetAll: true}, nil
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		return Message{}, fmt.Errorf("%w: GET payload: %v", ErrDecode, err)
	}
	return Message{Verb: GET, Keys: keys}, nil
}

func decodeTree(raw json.RawMessage) (capability.Node, error) {
	var tree capability.Node
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("%w: tree payload: %v", ErrDecode, err)
	}
	return tree, nil
}

func decodeCall(raw json.RawMessage) (Message, error) {
	var tuple [2]json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err != nil {
		return Message{}, fmt.Errorf("%w: CALL payload: %v", ErrDecode, err)
	}
	var method string
	if err := json.Unmarshal(tuple[0], &method); err != nil {
		return Message{}, fmt.Errorf("%w: CALL method: %v", ErrDecode, err)
	}
	var args []any
	if err := json.Unmarshal(tuple[1], &args); err != nil {
		return Message{}, fmt.Errorf("%w: CALL args: %v", ErrDecode, err)
	}
	return Message{Verb: CALL, Call: &CallPayload{Method: method, Args: args}}, nil
}

func decodeSub(raw json.RawMessage) (*SubPayload, error) {
	var tuple [2]string
	if err := json.Unmarshal(raw, &tuple); err != nil {
		return nil, fmt.Errorf("%w: SUB/UNSUB payload: %v", ErrDecode, err)
	}
	return &SubPayload{Source: tuple[0], Sink: tuple[1]}, nil
}

func decodeSig(raw json.RawMessage) (Message, error) {
	var tuple [3]json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err != nil {
		return Message{}, fmt.Errorf("%w: SIG payload: %v", ErrDecode, err)
	}
	var source string
	if err := json.Unmarshal(tuple[0], &source); err != nil {
		return Message{}, fmt.Errorf("%w: SIG source: %v", ErrDecode, err)
	}
	var value any
	if err := json.Unmarshal(tuple[1], &value); err != nil {
		return Message{}, fmt.Errorf("%w: SIG value: %v", ErrDecode, err)
	}
	var sinks []string
	if err := json.Unmarshal(tuple[2], &sinks); err != nil {
		return Message{}, fmt.Errorf("%w: SIG sinks: %v", ErrDecode, err)
	}
	return Message{Verb: SIG, Sig: &SigPayload{Source: source, Value: value, Sinks: sinks}}, nil
}
