package tensor

import (
	"fmt"
	"math"
	"unsafe"

	"fortio.org/safecast"
)

// Tensor is a dense n-dimensional buffer with a fixed element type.
// The VM treats tensors as opaque handles; only kernels and the host
// boundary (boolean branch conditions) look at the contents.
type Tensor struct {
	shape []int64
	dtype DType
	data  []byte
}

// Empty allocates an uninitialized tensor of the given shape and element
// type. Allocation failure is explicit: negative dimensions and element
// count overflow are reported as errors, never panics.
func Empty(shape []int64, dtype DType) (*Tensor, error) {
	n := int64(1)
	for _, dim := range shape {
		if dim < 0 {
			return nil, fmt.Errorf("tensor: negative dimension %d in shape %v", dim, shape)
		}
		if dim != 0 && n > math.MaxInt64/dim {
			return nil, fmt.Errorf("tensor: shape %v overflows element count", shape)
		}
		n *= dim
	}
	elemSize := int64(dtype.Size())
	if elemSize == 0 {
		return nil, fmt.Errorf("tensor: unknown element type %v", dtype)
	}
	if n > math.MaxInt64/elemSize {
		return nil, fmt.Errorf("tensor: shape %v overflows byte size", shape)
	}
	size, err := safecast.Conv[int](n * elemSize)
	if err != nil {
		return nil, fmt.Errorf("tensor: shape %v exceeds addressable size: %w", shape, err)
	}
	return &Tensor{
		shape: append([]int64(nil), shape...),
		dtype: dtype,
		data:  make([]byte, size),
	}, nil
}

// Shape returns the tensor's dimensions. The slice is shared; callers must
// not mutate it.
func (t *Tensor) Shape() []int64 { return t.shape }

// DType returns the element type.
func (t *Tensor) DType() DType { return t.dtype }

// Data returns the raw backing buffer.
func (t *Tensor) Data() []byte { return t.data }

// NumElements returns the total element count.
func (t *Tensor) NumElements() int64 {
	n := int64(1)
	for _, dim := range t.shape {
		n *= dim
	}
	return n
}

// SameShape reports whether t and o have identical shapes.
func (t *Tensor) SameShape(o *Tensor) bool {
	if len(t.shape) != len(o.shape) {
		return false
	}
	for i, dim := range t.shape {
		if dim != o.shape[i] {
			return false
		}
	}
	return true
}

// BoolScalar copies the first element to host memory and interprets it as a
// boolean. It fails unless the tensor is a Bool with at least one element.
func (t *Tensor) BoolScalar() (bool, error) {
	if t.dtype != Bool {
		return false, fmt.Errorf("tensor: branch condition has element type %v, want %v", t.dtype, Bool)
	}
	if len(t.data) == 0 {
		return false, fmt.Errorf("tensor: empty tensor used as branch condition")
	}
	host := make([]byte, 1)
	copy(host, t.data[:1])
	return host[0] != 0, nil
}

// String renders the shape and dtype, e.g. "f32[2 3]".
func (t *Tensor) String() string {
	return fmt.Sprintf("%v%v", t.dtype, t.shape)
}

// Float32s reinterprets the buffer as []float32. The element type must match.
func (t *Tensor) Float32s() []float32 {
	t.mustDType(Float32)
	return unsafe.Slice((*float32)(unsafe.Pointer(unsafe.SliceData(t.data))), len(t.data)/4)
}

// Float64s reinterprets the buffer as []float64.
func (t *Tensor) Float64s() []float64 {
	t.mustDType(Float64)
	return unsafe.Slice((*float64)(unsafe.Pointer(unsafe.SliceData(t.data))), len(t.data)/8)
}

// Int32s reinterprets the buffer as []int32.
func (t *Tensor) Int32s() []int32 {
	t.mustDType(Int32)
	return unsafe.Slice((*int32)(unsafe.Pointer(unsafe.SliceData(t.data))), len(t.data)/4)
}

// Int64s reinterprets the buffer as []int64.
func (t *Tensor) Int64s() []int64 {
	t.mustDType(Int64)
	return unsafe.Slice((*int64)(unsafe.Pointer(unsafe.SliceData(t.data))), len(t.data)/8)
}

// Bools reinterprets the buffer as a byte-per-element boolean view.
func (t *Tensor) Bools() []uint8 {
	t.mustDType(Bool)
	return t.data
}

func (t *Tensor) mustDType(want DType) {
	if t.dtype != want {
		panic(fmt.Sprintf("tensor: view of %v tensor as %v", t.dtype, want))
	}
}
