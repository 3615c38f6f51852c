package tensor

import "fmt"

// FromFloat32 builds a Float32 tensor from host values.
func FromFloat32(shape []int64, vals []float32) (*Tensor, error) {
	t, err := Empty(shape, Float32)
	if err != nil {
		return nil, err
	}
	if int64(len(vals)) != t.NumElements() {
		return nil, fmt.Errorf("tensor: %d values for shape %v (want %d)", len(vals), shape, t.NumElements())
	}
	copy(t.Float32s(), vals)
	return t, nil
}

// FromInt32 builds an Int32 tensor from host values.
func FromInt32(shape []int64, vals []int32) (*Tensor, error) {
	t, err := Empty(shape, Int32)
	if err != nil {
		return nil, err
	}
	if int64(len(vals)) != t.NumElements() {
		return nil, fmt.Errorf("tensor: %d values for shape %v (want %d)", len(vals), shape, t.NumElements())
	}
	copy(t.Int32s(), vals)
	return t, nil
}

// BoolScalarTensor builds a rank-0 Bool tensor holding v.
func BoolScalarTensor(v bool) *Tensor {
	t, err := Empty(nil, Bool)
	if err != nil {
		panic(err)
	}
	if v {
		t.Bools()[0] = 1
	}
	return t
}
