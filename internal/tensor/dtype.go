package tensor

import "fmt"

// DType identifies a tensor element type.
type DType uint8

const (
	// Bool is a byte-per-element boolean.
	Bool DType = iota + 1
	Int32
	Int64
	Float32
	Float64
)

// Size returns the element size in bytes, or 0 for an unknown type.
func (d DType) Size() int {
	switch d {
	case Bool:
		return 1
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	default:
		return 0
	}
}

// String returns the short type name used in dumps, e.g. "f32".
func (d DType) String() string {
	switch d {
	case Bool:
		return "bool"
	case Int32:
		return "i32"
	case Int64:
		return "i64"
	case Float32:
		return "f32"
	case Float64:
		return "f64"
	default:
		return fmt.Sprintf("dtype(%d)", uint8(d))
	}
}

// ParseDType converts a short type name to a DType.
func ParseDType(s string) (DType, error) {
	switch s {
	case "bool":
		return Bool, nil
	case "i32":
		return Int32, nil
	case "i64":
		return Int64, nil
	case "f32":
		return Float32, nil
	case "f64":
		return Float64, nil
	default:
		return 0, fmt.Errorf("invalid element type: %q (expected: bool|i32|i64|f32|f64)", s)
	}
}
