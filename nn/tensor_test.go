package nn

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

func TestTensorJSONNestedForm(t *testing.T) {
	tensor, err := TensorFromData([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)

	b, err := json.Marshal(tensor)
	require.NoError(t, err)
	assert.JSONEq(t, `[[1,2,3],[4,5,6]]`, string(b))

	var decoded Tensor
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, []int{2, 3}, decoded.Shape)
	assert.Equal(t, tensor.Data, decoded.Data)
}

func TestTensorJSONInfersShape(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		shape []int
		data  []float64
	}{
		{"scalar", `2.5`, []int{}, []float64{2.5}},
		{"vector", `[0, -1e-7]`, []int{2}, []float64{0, -1e-7}},
		{"rank four", `[[[[1,2]],[[3,4]]]]`, []int{1, 2, 1, 2}, []float64{1, 2, 3, 4}},
		{"empty", `[]`, []int{0}, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tensor Tensor
			require.NoError(t, json.Unmarshal([]byte(tt.in), &tensor))
			assert.Equal(t, tt.shape, tensor.Shape)
			assert.Equal(t, tt.data, tensor.Data)
		})
	}
}

func TestTensorJSONRejectsRaggedInput(t *testing.T) {
	for _, in := range []string{`[[1,2],[3]]`, `[[1,2],3]`, `[1,[2]]`, `["a"]`} {
		var tensor Tensor
		assert.Error(t, json.Unmarshal([]byte(in), &tensor), in)
	}
}

func TestTensorJSONRejectsNonFinite(t *testing.T) {
	tensor := NewTensor(2)
	tensor.Data[1] = math.Inf(1)

	_, err := json.Marshal(tensor)
	require.Error(t, err)
	var nie *errors.NumericalInstabilityError
	assert.True(t, errors.As(err, &nie))
}

func TestTensorCloneIsIndependent(t *testing.T) {
	a := NewTensor(2, 2)
	b := a.Clone()
	b.Data[0] = 9
	b.Shape[0] = 7
	assert.Equal(t, 0.0, a.Data[0])
	assert.Equal(t, []int{2, 2}, a.Shape)
}

func TestTensorFromDataChecksLength(t *testing.T) {
	_, err := TensorFromData([]float64{1, 2, 3}, 2, 2)
	assert.Error(t, err)
}
