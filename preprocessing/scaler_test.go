package preprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

func TestMinMaxScaler(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
	})
	s := NewMinMaxScalerDefault()
	assert.False(t, s.IsFitted())

	out, err := s.FitTransform(X)
	require.NoError(t, err)
	want := mat.NewDense(3, 2, []float64{
		0, 0,
		0.5, 0,
		1, 0,
	})
	assert.True(t, mat.EqualApprox(want, out, 1e-12))

	assert.Equal(t, "MinMaxScaler(feature_range=[0.0, 1.0], n_features=2)", s.String())
}

func TestMinMaxScalerCustomRange(t *testing.T) {
	s := NewMinMaxScaler([2]float64{-1, 1})
	out, err := s.FitTransform(mat.NewDense(2, 1, []float64{0, 4}))
	require.NoError(t, err)
	assert.InDelta(t, -1, out.At(0, 0), 1e-12)
	assert.InDelta(t, 1, out.At(1, 0), 1e-12)

	bad := NewMinMaxScaler([2]float64{1, 1})
	var ve *errors.ValidationError
	assert.True(t, errors.As(bad.Fit(mat.NewDense(1, 1, []float64{0})), &ve))
}

func TestPixelScalerIgnoresObservedRange(t *testing.T) {
	s := NewPixelScaler()
	require.NoError(t, s.Fit(mat.NewDense(1, 2, []float64{0, 51})))

	out, err := s.Transform(mat.NewDense(1, 2, []float64{255, 51}))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, out.At(0, 0), 1e-12)
	assert.InDelta(t, 0.2, out.At(0, 1), 1e-12)
	assert.Equal(t, true, s.GetParams()["fixed_range"])
}

func TestMinMaxScalerErrors(t *testing.T) {
	s := NewMinMaxScalerDefault()

	_, err := s.Transform(mat.NewDense(1, 1, nil))
	var nfe *errors.NotFittedError
	require.True(t, errors.As(err, &nfe))
	assert.Equal(t, "MinMaxScaler", nfe.ModelName)

	require.NoError(t, s.Fit(mat.NewDense(2, 2, []float64{0, 1, 2, 3})))
	_, err = s.Transform(mat.NewDense(1, 3, nil))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}
