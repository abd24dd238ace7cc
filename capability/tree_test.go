package capability

import (
	"reflect"
	"sort"
	"testing"
)

func TestRegisterAttrAndGet(t *testing.T) {
	tr := New()
	ev, err := tr.RegisterAttr(nil, "A", 7, TypeInt, "r", Bounds{})
	if err != nil {
		t.Fatalf("RegisterAttr: %v", err)
	}
	if ev.Paths[0] != "A" {
		t.Fatalf("expected path A, got %v", ev.Paths)
	}

	got, ok := tr.Get("A")
	if !ok {
		t.Fatal("expected A to exist")
	}
	node := got.(Node)
	if node["value"] != 7 || node["typeHint"] != TypeInt || node["access"] != "r" {
		t.Fatalf("unexpected attribute node: %#v", node)
	}
}

func TestOpenObjectNesting(t *testing.T) {
	tr := New()
	scope, err := tr.OpenObject(nil, "arm", "Actuator")
	if err != nil {
		t.Fatalf("OpenObject: %v", err)
	}
	if _, err := tr.RegisterAttr(scope, "angle", 0.0, TypeFloat, "rw", Bounds{}); err != nil {
		t.Fatalf("RegisterAttr: %v", err)
	}

	got, ok := tr.Get("objects.arm.angle")
	if !ok {
		t.Fatal("expected nested attribute to exist")
	}
	if got.(Node)["value"] != 0.0 {
		t.Fatalf("unexpected value: %#v", got)
	}

	objType, ok := tr.Get("objects.arm.type")
	if !ok || objType != "Actuator" {
		t.Fatalf("expected type Actuator, got %#v", objType)
	}
}

func TestOpenObjectEmptyNameResetsToScope(t *testing.T) {
	tr := New()
	scope, _ := tr.OpenObject(nil, "arm", "Actuator")
	reset, err := tr.OpenObject(scope, "", "")
	if err != nil {
		t.Fatalf("OpenObject reset: %v", err)
	}
	if !reflect.DeepEqual(reset, scope) {
		t.Fatalf("expected reset to return scope unchanged, got %v", reset)
	}
}

func TestApplyMergeIdempotent(t *testing.T) {
	tr := New()
	tr.RegisterAttr(nil, "A", 1, TypeInt, "rw", Bounds{})

	payload := Node{"A": Node{"value": 2, "typeHint": TypeInt, "access": "rw"}}
	tr.ApplyMerge(payload)
	first := cloneNode(tr.Root())

	tr.ApplyMerge(payload)
	second := tr.Root()

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("merge is not idempotent: %#v != %#v", first, second)
	}
}

func TestApplyMergeAssociativeOnDisjointPaths(t *testing.T) {
	base := func() *Tree {
		tr := New()
		tr.RegisterAttr(nil, "A", 1, TypeInt, "rw", Bounds{})
		return tr
	}

	left := Node{"B": Node{"value": 2, "typeHint": TypeInt, "access": "r"}}
	right := Node{"C": Node{"value": 3, "typeHint": TypeInt, "access": "r"}}

	tr1 := base()
	tr1.ApplyMerge(left)
	tr1.ApplyMerge(right)

	tr2 := base()
	tr2.ApplyMerge(right)
	tr2.ApplyMerge(left)

	if !reflect.DeepEqual(tr1.Root(), tr2.Root()) {
		t.Fatalf("merge not associative on disjoint keys: %#v != %#v", tr1.Root(), tr2.Root())
	}
}

func TestApplyMergeFilteredDeniesWithoutWriteAccess(t *testing.T) {
	tr := New()
	tr.RegisterAttr(nil, "B", "x", TypeString, "r", Bounds{})

	payload := Node{"B": Node{"value": "y"}}
	touched := tr.ApplyMergeFiltered(payload, func(path []string, existing Node) bool {
		if existing == nil {
			return true
		}
		return ParseAccess(existing["access"].(string)).W
	})

	if len(touched) != 0 {
		t.Fatalf("expected no touched paths, got %v", touched)
	}
	got, _ := tr.Get("B")
	if got.(Node)["value"] != "x" {
		t.Fatalf("expected value to remain x, got %#v", got)
	}
}

func TestApplyMergeFilteredAllowsWithWriteAccess(t *testing.T) {
	tr := New()
	tr.RegisterAttr(nil, "C", 0.0, TypeFloat, "rwe", Bounds{})

	payload := Node{"C": Node{"value": 1.0}}
	touched := tr.ApplyMergeFiltered(payload, func(path []string, existing Node) bool {
		if existing == nil {
			return true
		}
		return ParseAccess(existing["access"].(string)).W
	})

	sort.Strings(touched)
	if !reflect.DeepEqual(touched, []string{"C"}) {
		t.Fatalf("expected [C], got %v", touched)
	}
	got, _ := tr.Get("C")
	attr := got.(Node)
	if attr["value"] != 1.0 {
		t.Fatalf("expected value 1.0, got %#v", got)
	}
	if attr["typeHint"] != TypeFloat {
		t.Fatalf("partial SET must not discard typeHint, got %#v", attr["typeHint"])
	}
	if attr["access"] != "rwe" {
		t.Fatalf("partial SET must not discard access, got %#v", attr["access"])
	}
}

func TestApplyMergeFilteredSurvivesRepeatedPartialSets(t *testing.T) {
	tr := New()
	tr.RegisterAttr(nil, "C", 0.0, TypeFloat, "rwe", Bounds{})
	allow := func(path []string, existing Node) bool {
		if existing == nil {
			return true
		}
		return ParseAccess(existing["access"].(string)).W
	}

	tr.ApplyMergeFiltered(Node{"C": Node{"value": 1.0}}, allow)
	touched := tr.ApplyMergeFiltered(Node{"C": Node{"value": 2.0}}, allow)

	if !reflect.DeepEqual(touched, []string{"C"}) {
		t.Fatalf("second partial SET should still be accepted, got touched=%v", touched)
	}
	got, _ := tr.Get("C")
	attr := got.(Node)
	if attr["value"] != 2.0 {
		t.Fatalf("expected value 2.0 after second SET, got %#v", attr["value"])
	}
	if attr["access"] != "rwe" {
		t.Fatalf("access must survive repeated partial SETs, got %#v", attr["access"])
	}
}

func TestSetMetaRequiresUnderscorePrefix(t *testing.T) {
	tr := New()
	if _, err := tr.SetMeta("name", "x"); err == nil {
		t.Fatal("expected error for non-underscore key")
	}
}

func TestSetMetaNameMustBeNonEmptyString(t *testing.T) {
	tr := New()
	if _, err := tr.SetMeta("_name", ""); err == nil {
		t.Fatal("expected error for empty _name")
	}
	if _, err := tr.SetMeta("_name", 5); err == nil {
		t.Fatal("expected error for non-string _name")
	}
	if _, err := tr.SetMeta("_name", "node1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegisterAttrValidatesVectorArity(t *testing.T) {
	tr := New()
	if _, err := tr.RegisterAttr(nil, "V", []any{1.0, 2.0}, TypeVec3f, "r", Bounds{}); err == nil {
		t.Fatal("expected error for vec3f with 2 elements")
	}
	if _, err := tr.RegisterAttr(nil, "V", []any{1.0, 2.0, 3.0}, TypeVec3f, "r", Bounds{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func cloneNode(n Node) Node {
	out := Node{}
	for k, v := range n {
		if child, ok := v.(Node); ok {
			out[k] = cloneNode(child)
		} else {
			out[k] = v
		}
	}
	return out
}
