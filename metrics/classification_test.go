package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "Perfect accuracy",
			yTrue: []float64{0, 1, 2, 1, 0},
			yPred: []float64{0, 1, 2, 1, 0},
			want:  1.0,
		},
		{
			name:  "80% accuracy",
			yTrue: []float64{0, 1, 2, 1, 0},
			yPred: []float64{0, 1, 1, 1, 0},
			want:  0.8,
		},
		{
			name:  "Zero accuracy",
			yTrue: []float64{0, 0, 0},
			yPred: []float64{1, 1, 1},
			want:  0.0,
		},
		{
			name:    "Empty vectors",
			yTrue:   []float64{},
			yPred:   []float64{},
			wantErr: true,
		},
		{
			name:    "Length mismatch",
			yTrue:   []float64{0, 1},
			yPred:   []float64{0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var yTrue, yPred *mat.VecDense
			if len(tt.yTrue) > 0 {
				yTrue = mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			}
			if len(tt.yPred) > 0 {
				yPred = mat.NewVecDense(len(tt.yPred), tt.yPred)
			}

			got, err := Accuracy(yTrue, yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("Accuracy() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Accuracy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCategoricalAccuracy(t *testing.T) {
	yTrue := mat.NewDense(4, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
		0, 1, 0,
	})
	yPred := mat.NewDense(4, 3, []float64{
		0.7, 0.2, 0.1,
		0.1, 0.8, 0.1,
		0.5, 0.1, 0.4, // wrong
		0.3, 0.3, 0.4, // wrong
	})

	got, err := CategoricalAccuracy(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got, 1e-12)

	_, err = CategoricalAccuracy(yTrue, mat.NewDense(4, 2, nil))
	var de *errors.DimensionError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 1, de.Axis)
}

func TestCategoricalAccuracyTiesPickFirstColumn(t *testing.T) {
	yTrue := mat.NewDense(1, 2, []float64{1, 0})
	yPred := mat.NewDense(1, 2, []float64{0.5, 0.5})

	got, err := CategoricalAccuracy(yTrue, yPred)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestBinaryAccuracy(t *testing.T) {
	yTrue := mat.NewDense(4, 1, []float64{0, 1, 1, 0})
	yPred := mat.NewDense(4, 1, []float64{0.2, 0.9, 0.4, 0.6})

	got, err := BinaryAccuracy(yTrue, yPred, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got, 1e-12)
}

func TestConfusionMatrix(t *testing.T) {
	yTrue := mat.NewVecDense(5, []float64{0, 1, 2, 1, 0})
	yPred := mat.NewVecDense(5, []float64{0, 1, 1, 1, 2})

	cm, err := ConfusionMatrix(yTrue, yPred, 3)
	require.NoError(t, err)
	want := mat.NewDense(3, 3, []float64{
		1, 0, 1,
		0, 2, 0,
		0, 1, 0,
	})
	assert.True(t, mat.Equal(want, cm), "got\n%v", mat.Formatted(cm))

	_, err = ConfusionMatrix(yTrue, mat.NewVecDense(5, []float64{0, 1, 3, 1, 0}), 3)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}
