package nn

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

// Tensor is a dense row-major float64 array.
//
// Its JSON form is a nested array whose depth equals len(Shape); decoding
// infers the shape from the nesting and rejects ragged input.
type Tensor struct {
	Shape []int
	Data  []float64
}

// NewTensor allocates a zero tensor of the given shape.
func NewTensor(shape ...int) *Tensor {
	return &Tensor{
		Shape: append([]int(nil), shape...),
		Data:  make([]float64, shapeSize(shape)),
	}
}

// TensorFromData wraps data as a tensor of the given shape without copying.
func TensorFromData(data []float64, shape ...int) (*Tensor, error) {
	if len(data) != shapeSize(shape) {
		return nil, errors.Newf("nn: %d values do not fill shape %v", len(data), shape)
	}
	return &Tensor{Shape: append([]int(nil), shape...), Data: data}, nil
}

// Size returns the number of elements.
func (t *Tensor) Size() int {
	return len(t.Data)
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	if t == nil {
		return nil
	}
	return &Tensor{
		Shape: append([]int(nil), t.Shape...),
		Data:  append([]float64(nil), t.Data...),
	}
}

// SameShape reports whether t and o have identical shapes.
func (t *Tensor) SameShape(o *Tensor) bool {
	return equalInts(t.Shape, o.Shape)
}

// MarshalJSON encodes the tensor as a nested array.
func (t Tensor) MarshalJSON() ([]byte, error) {
	if len(t.Data) != shapeSize(t.Shape) {
		return nil, errors.Newf("nn: tensor data length %d does not match shape %v", len(t.Data), t.Shape)
	}
	buf := make([]byte, 0, len(t.Data)*12+2)
	buf, _, err := appendNested(buf, t.Shape, t.Data, 0, 0)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func appendNested(buf []byte, shape []int, data []float64, dim, off int) ([]byte, int, error) {
	if dim == len(shape) {
		v := data[off]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, 0, errors.NewNumericalInstabilityError("tensor encoding", []float64{v}, off)
		}
		return strconv.AppendFloat(buf, v, 'g', -1, 64), off + 1, nil
	}
	var err error
	buf = append(buf, '[')
	for i := 0; i < shape[dim]; i++ {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf, off, err = appendNested(buf, shape, data, dim+1, off)
		if err != nil {
			return nil, 0, err
		}
	}
	return append(buf, ']'), off, nil
}

// UnmarshalJSON decodes a nested array, inferring the shape.
func (t *Tensor) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	shape, err := inferShape(raw)
	if err != nil {
		return err
	}
	data, err := flattenInto(raw, shape, 0, make([]float64, 0, shapeSize(shape)))
	if err != nil {
		return err
	}
	t.Shape, t.Data = shape, data
	return nil
}

func inferShape(v interface{}) ([]int, error) {
	shape := []int{}
	for {
		switch x := v.(type) {
		case float64:
			return shape, nil
		case []interface{}:
			shape = append(shape, len(x))
			if len(x) == 0 {
				return shape, nil
			}
			v = x[0]
		default:
			return nil, errors.Newf("nn: tensor elements must be numbers or arrays, got %T", v)
		}
	}
}

func flattenInto(v interface{}, shape []int, dim int, dst []float64) ([]float64, error) {
	if dim == len(shape) {
		f, ok := v.(float64)
		if !ok {
			return nil, errors.Newf("nn: ragged tensor at depth %d", dim)
		}
		return append(dst, f), nil
	}
	arr, ok := v.([]interface{})
	if !ok || len(arr) != shape[dim] {
		return nil, errors.Newf("nn: ragged tensor at depth %d", dim)
	}
	var err error
	for _, e := range arr {
		if dst, err = flattenInto(e, shape, dim+1, dst); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func shapeSize(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func cloneInts(s []int) []int {
	if s == nil {
		return nil
	}
	return append([]int(nil), s...)
}
