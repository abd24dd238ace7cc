// Package capability implements the ZOCP capability tree: a rooted,
// ordered mapping of containers and typed attributes that a node
// publishes about itself and mirrors from its peers.
//
// The tree is represented as plain map[string]any/[]any/string/float64
// values so that it serializes with encoding/json exactly as received
// on the wire, the way zocp.py's dict_merge/dict_get operate on plain
// dicts rather than a bespoke tree type.
package capability

import (
	"errors"
	"fmt"
	"strings"
)

// Node is a generic tree node: either a container (further Nodes) or
// an attribute (a map holding the reserved "value" key). Go's dynamic
// any lets a Node round-trip through JSON with no custom marshaling.
type Node = map[string]any

// PathSeparator joins path segments in their dotted wire form, the
// same convention zocp.py's dict_get_keys uses for nested branches.
const PathSeparator = "."

// SplitPath turns a dotted wire path into its segments. An empty
// string addresses the whole tree.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, PathSeparator)
}

// JoinPath is the inverse of SplitPath.
func JoinPath(segments []string) string {
	return strings.Join(segments, PathSeparator)
}

var (
	// ErrNotFound is returned when a path does not resolve to any node.
	ErrNotFound = errors.New("capability: path not found")
	// ErrNotContainer is returned when a path traverses through an
	// attribute node as though it were a container.
	ErrNotContainer = errors.New("capability: not a container")
	// ErrInvalidValue is returned when a registered value does not
	// conform to its typeHint.
	ErrInvalidValue = errors.New("capability: value does not match typeHint")
)

// IsAttribute reports whether node is an attribute node rather than a
// container: an attribute is recognized by the presence of the
// "value" key.
func IsAttribute(node Node) bool {
	_, ok := node["value"]
	return ok
}

// Event describes a single capability-tree mutation: which attribute
// paths changed and the payload that was applied.
type Event struct {
	Paths   []string
	Payload any
}

// Tree is the in-memory capability document. It is not safe for
// concurrent use; callers are expected to mutate it only from the
// single event-loop goroutine (see the loop package).
type Tree struct {
	root Node
}

// New returns an empty capability tree.
func New() *Tree {
	return &Tree{root: Node{}}
}

// FromRoot wraps an existing root node as a Tree, so that a
// previously-stored mirror (e.g. a peer's capability in the registry)
// can be merged into with the same invariants as a local tree.
func FromRoot(root Node) *Tree {
	if root == nil {
		root = Node{}
	}
	return &Tree{root: root}
}

// Root returns the tree's backing root node. Callers must treat it as
// read-only; mutation goes through the Tree's methods so that events
// fire correctly.
func (t *Tree) Root() Node {
	return t.root
}

// Get returns the subtree addressed by path, or ok=false if it does
// not exist. An empty path addresses the whole tree.
func (t *Tree) Get(path string) (any, bool) {
	return getAt(t.root, SplitPath(path))
}

func getAt(root Node, segments []string) (any, bool) {
	if len(segments) == 0 {
		return root, true
	}
	child, ok := root[segments[0]]
	if !ok {
		return nil, false
	}
	if len(segments) == 1 {
		return child, true
	}
	childNode, ok := child.(Node)
	if !ok {
		return nil, false
	}
	return getAt(childNode, segments[1:])
}

// reservedMetaKeys lists the container-level metadata keys the data
// model reserves at the root.
var reservedMetaKeys = map[string]bool{
	"_name": true, "_location": true, "_orientation": true,
	"_scale": true, "_matrix": true,
}

// SetMeta writes a reserved "_"-prefixed key at the root and returns
// the modified-event payload {key: value}.
func (t *Tree) SetMeta(key string, value any) (Event, error) {
	if !strings.HasPrefix(key, "_") {
		return Event{}, fmt.Errorf("capability: meta key %q must begin with _", key)
	}
	if key == "_name" {
		name, ok := value.(string)
		if !ok || name == "" {
			return Event{}, fmt.Errorf("%w: _name must be a non-empty string", ErrInvalidValue)
		}
	}
	t.root[key] = value
	return Event{Paths: []string{key}, Payload: Node{key: value}}, nil
}

// OpenObject creates (or retypes) objects.<name> under the container
// addressed by scope, and returns the path of the opened object's
// scope for a caller (typically a façade Scope handle) to register
// attributes into. An empty name returns scope itself unchanged,
// which callers use to mean "back to this container's own scope".
//
// Nesting follows the data model: "objects" is itself a container of
// named child containers, so scope may already be nested inside an
// object when OpenObject is called again.
func (t *Tree) OpenObject(scope []string, name, typ string) ([]string, error) {
	if name == "" {
		return scope, nil
	}
	container, err := t.ensureContainer(scope)
	if err != nil {
		return nil, err
	}
	objects, ok := container["objects"].(Node)
	if !ok {
		objects = Node{}
		container["objects"] = objects
	}
	obj, ok := objects[name].(Node)
	if !ok {
		obj = Node{}
		objects[name] = obj
	}
	obj["type"] = typ
	return append(append([]string{}, scope...), "objects", name), nil
}

// ensureContainer walks to the container at path, creating
// intermediate containers as needed, and errors if any segment along
// the way is already an attribute node.
func (t *Tree) ensureContainer(path []string) (Node, error) {
	node := t.root
	for _, seg := range path {
		next, ok := node[seg]
		if !ok {
			child := Node{}
			node[seg] = child
			node = child
			continue
		}
		child, ok := next.(Node)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotContainer, JoinPath(path))
		}
		node = child
	}
	return node, nil
}

// Bounds carries the optional numeric min/max/step fields of an
// attribute node. A nil pointer means the field is absent.
type Bounds struct {
	Min, Max, Step *float64
}

// RegisterAttr inserts an attribute node at scope.name, replacing any
// prior node at that key, and returns the modified-event payload
// (the full new attribute object).
func (t *Tree) RegisterAttr(scope []string, name string, value any, typeHint, access string, bounds Bounds) (Event, error) {
	if err := ValidateValue(typeHint, value); err != nil {
		return Event{}, err
	}
	container, err := t.ensureContainer(scope)
	if err != nil {
		return Event{}, err
	}
	attr := Node{
		"value":    value,
		"typeHint": typeHint,
		"access":   access,
	}
	if bounds.Min != nil {
		attr["min"] = *bounds.Min
	}
	if bounds.Max != nil {
		attr["max"] = *bounds.Max
	}
	if bounds.Step != nil {
		attr["step"] = *bounds.Step
	}
	container[name] = attr

	path := append(append([]string{}, scope...), name)
	return Event{Paths: []string{JoinPath(path)}, Payload: attr}, nil
}

// SetValue updates the value of an existing attribute in place,
// leaving typeHint/access/bounds untouched, and returns the
// modified-event payload. Used by the façade's EmitSignal and by
// local callers that already hold a registered attribute.
func (t *Tree) SetValue(path []string, value any) (Event, error) {
	if len(path) == 0 {
		return Event{}, ErrNotFound
	}
	container, err := t.ensureContainer(path[:len(path)-1])
	if err != nil {
		return Event{}, err
	}
	name := path[len(path)-1]
	existing, ok := container[name].(Node)
	if !ok || !IsAttribute(existing) {
		return Event{}, ErrNotFound
	}
	if typeHint, _ := existing["typeHint"].(string); typeHint != "" {
		if err := ValidateValue(typeHint, value); err != nil {
			return Event{}, err
		}
	}
	existing["value"] = value
	return Event{Paths: []string{JoinPath(path)}, Payload: existing}, nil
}

// Attribute returns the attribute node at path along with its access
// flags, if the path addresses an attribute.
func (t *Tree) Attribute(path string) (Node, AccessFlags, bool) {
	n, ok := t.Get(path)
	if !ok {
		return nil, AccessFlags{}, false
	}
	node, ok := n.(Node)
	if !ok || !IsAttribute(node) {
		return nil, AccessFlags{}, false
	}
	access, _ := node["access"].(string)
	return node, ParseAccess(access), true
}

// ApplyMerge recursively merges payload into the tree's root: for
// every key, if both sides are containers, descend; if the existing
// node is an attribute and the incoming value is a map, copy the
// incoming fields into the attribute; otherwise the incoming value
// replaces the existing one. It returns the dotted path of every node
// it wrote (an attribute, or a value or subtree stored whole), whether
// or not the stored value differed, for subscription fan-out and
// change notification.
func (t *Tree) ApplyMerge(payload Node) []string {
	var touched []string
	mergeInto(t.root, payload, nil, &touched)
	return touched
}

// ApplyMergeFiltered behaves like ApplyMerge but calls allow(path,
// existingAttribute) before merging each attribute leaf; a leaf for
// which allow returns false is left unchanged. Used to enforce
// per-path access on incoming SET requests.
func (t *Tree) ApplyMergeFiltered(payload Node, allow func(path []string, existing Node) bool) []string {
	var touched []string
	mergeIntoFiltered(t.root, payload, nil, &touched, allow)
	return touched
}

func mergeInto(dst, src Node, prefix []string, touched *[]string) {
	mergeIntoFiltered(dst, src, prefix, touched, nil)
}

func mergeIntoFiltered(dst, src Node, prefix []string, touched *[]string, allow func([]string, Node) bool) {
	for key, val := range src {
		path := append(append([]string{}, prefix...), key)
		existing, existingOk := dst[key]
		existingNode, existingIsNode := existing.(Node)
		srcNode, srcIsNode := val.(Node)

		if existingOk && existingIsNode && srcIsNode {
			if IsAttribute(existingNode) {
				// A partial attribute payload (e.g. {"value": X} from
				// a SET) merges field-by-field into the existing
				// attribute map rather than replacing it wholesale,
				// so typeHint/access/min/max/step survive a write
				// that only carries a new value.
				if allow != nil && !allow(path, existingNode) {
					continue
				}
				for k, v := range srcNode {
					existingNode[k] = v
				}
				*touched = append(*touched, JoinPath(path))
				continue
			}
			// Both containers: descend.
			mergeIntoFiltered(existingNode, srcNode, path, touched, allow)
			continue
		}

		if allow != nil {
			var existingAttr Node
			if existingIsNode && IsAttribute(existingNode) {
				existingAttr = existingNode
			}
			if !allow(path, existingAttr) {
				continue
			}
		}

		dst[key] = val
		*touched = append(*touched, JoinPath(path))
	}
}
