package capability

import "fmt"

// TypeHint enumerates the attribute value shapes the data model
// recognizes.
const (
	TypeInt     = "int"
	TypeFloat   = "float"
	TypePercent = "percent"
	TypeBool    = "bool"
	TypeString  = "string"
	TypeVec2f   = "vec2f"
	TypeVec3f   = "vec3f"
	TypeVec4f   = "vec4f"
)

// AccessFlags is the parsed form of an attribute's access string:
// a short combination of 'r' (remote-readable), 'w' (remote-writable)
// and 'e' (emits signals on change).
type AccessFlags struct {
	R, W, E bool
}

// ParseAccess decodes an access string such as "rwe" into flags.
// Unrecognized characters are ignored.
func ParseAccess(s string) AccessFlags {
	var f AccessFlags
	for _, c := range s {
		switch c {
		case 'r':
			f.R = true
		case 'w':
			f.W = true
		case 'e':
			f.E = true
		}
	}
	return f
}

// String renders the flags back to their short wire form, in a fixed
// r,w,e order.
func (f AccessFlags) String() string {
	s := ""
	if f.R {
		s += "r"
	}
	if f.W {
		s += "w"
	}
	if f.E {
		s += "e"
	}
	return s
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int32, int64, float32, float64:
		return true
	default:
		return false
	}
}

func asFloatSlice(v any) ([]float64, bool) {
	raw, ok := v.([]any)
	if !ok {
		if f, ok := v.([]float64); ok {
			return f, true
		}
		return nil, false
	}
	out := make([]float64, len(raw))
	for i, x := range raw {
		switch n := x.(type) {
		case float64:
			out[i] = n
		case float32:
			out[i] = float64(n)
		case int:
			out[i] = float64(n)
		default:
			return nil, false
		}
	}
	return out, true
}

// ValidateValue checks that value conforms to typeHint: vectors are
// fixed-arity numeric sequences, scalars are the expected Go kind.
func ValidateValue(typeHint string, value any) error {
	switch typeHint {
	case TypeInt, TypeFloat, TypePercent:
		if !isNumber(value) {
			return fmt.Errorf("%w: %s requires a number, got %T", ErrInvalidValue, typeHint, value)
		}
	case TypeBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: bool requires a bool, got %T", ErrInvalidValue, value)
		}
	case TypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%w: string requires a string, got %T", ErrInvalidValue, value)
		}
	case TypeVec2f, TypeVec3f, TypeVec4f:
		want := map[string]int{TypeVec2f: 2, TypeVec3f: 3, TypeVec4f: 4}[typeHint]
		vec, ok := asFloatSlice(value)
		if !ok || len(vec) != want {
			return fmt.Errorf("%w: %s requires %d numbers, got %T", ErrInvalidValue, typeHint, want, value)
		}
	default:
		return fmt.Errorf("%w: unknown typeHint %q", ErrInvalidValue, typeHint)
	}
	return nil
}
