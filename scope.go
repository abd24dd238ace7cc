package zocp

import "github.com/fieldOfView/zocp-go/capability"

// Scope is a handle onto one container in a Node's capability tree:
// the root, or a nested objects.<name> opened with Object. Attributes
// are registered against a Scope rather than the Node directly so
// that deeply nested objects read naturally at the call site.
type Scope struct {
	node *Node
	path []string
}

// Object opens (or retypes) a named child object under this scope and
// returns a Scope handle onto it.
func (s *Scope) Object(name, typ string) (*Scope, error) {
	path, err := s.node.tree.OpenObject(s.path, name, typ)
	if err != nil {
		return nil, err
	}
	return &Scope{node: s.node, path: path}, nil
}

func (s *Scope) register(name string, value any, typeHint, access string, bounds capability.Bounds) error {
	ev, err := s.node.tree.RegisterAttr(s.path, name, value, typeHint, access, bounds)
	if err != nil {
		return err
	}
	s.node.dispatch.MutateLocal(ev)
	return nil
}

// RegisterInt registers an integer attribute.
func (s *Scope) RegisterInt(name string, value int, access string, bounds capability.Bounds) error {
	return s.register(name, value, capability.TypeInt, access, bounds)
}

// RegisterFloat registers a floating-point attribute.
func (s *Scope) RegisterFloat(name string, value float64, access string, bounds capability.Bounds) error {
	return s.register(name, value, capability.TypeFloat, access, bounds)
}

// RegisterPercent registers a percent-typed (0-100 by convention)
// floating-point attribute.
func (s *Scope) RegisterPercent(name string, value float64, access string, bounds capability.Bounds) error {
	return s.register(name, value, capability.TypePercent, access, bounds)
}

// RegisterBool registers a boolean attribute.
func (s *Scope) RegisterBool(name string, value bool, access string) error {
	return s.register(name, value, capability.TypeBool, access, capability.Bounds{})
}

// RegisterString registers a string attribute.
func (s *Scope) RegisterString(name string, value string, access string) error {
	return s.register(name, value, capability.TypeString, access, capability.Bounds{})
}

// RegisterVec2f registers a 2-component float vector attribute.
func (s *Scope) RegisterVec2f(name string, value [2]float64, access string) error {
	return s.register(name, value[:], capability.TypeVec2f, access, capability.Bounds{})
}

// RegisterVec3f registers a 3-component float vector attribute.
func (s *Scope) RegisterVec3f(name string, value [3]float64, access string) error {
	return s.register(name, value[:], capability.TypeVec3f, access, capability.Bounds{})
}

// RegisterVec4f registers a 4-component float vector attribute.
func (s *Scope) RegisterVec4f(name string, value [4]float64, access string) error {
	return s.register(name, value[:], capability.TypeVec4f, access, capability.Bounds{})
}

// Path returns this scope's dotted wire path, "" for the root.
func (s *Scope) Path() string { return capability.JoinPath(s.path) }
