package ir

import (
	"fmt"
	"strings"

	"loom/internal/tensor"
)

// TensorType is the checked type of an IR expression: an ordered shape plus
// an element type. Type checking itself happens outside this module; the
// compiler only reads types the frontend already attached.
type TensorType struct {
	Shape []int64
	DType tensor.DType
}

// NewTensorType builds a tensor type.
func NewTensorType(dtype tensor.DType, shape ...int64) *TensorType {
	return &TensorType{Shape: shape, DType: dtype}
}

// BoolScalar is the type of branch conditions.
func BoolScalar() *TensorType {
	return &TensorType{DType: tensor.Bool}
}

// Equal reports whether two tensor types are identical.
func (t *TensorType) Equal(o *TensorType) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.DType != o.DType || len(t.Shape) != len(o.Shape) {
		return false
	}
	for i, dim := range t.Shape {
		if dim != o.Shape[i] {
			return false
		}
	}
	return true
}

// String renders the type as "f32[2 3]" or "bool[]" for scalars.
func (t *TensorType) String() string {
	if t == nil {
		return "<untyped>"
	}
	var sb strings.Builder
	sb.WriteString(t.DType.String())
	sb.WriteByte('[')
	for i, dim := range t.Shape {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d", dim)
	}
	sb.WriteByte(']')
	return sb.String()
}
