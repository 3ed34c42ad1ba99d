package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func forwardPass(values []float64, index int) (out float64, err error) {
	defer Recover(&err, "forward")
	return values[index], nil
}

func TestRecoverTurnsPanicIntoPanicError(t *testing.T) {
	_, err := forwardPass([]float64{1, 2}, 5)
	require.Error(t, err)

	var pe *PanicError
	require.True(t, As(err, &pe))
	assert.Equal(t, "forward", pe.Operation)
	assert.NotEmpty(t, pe.StackTrace)
	assert.Contains(t, pe.Error(), "panic in forward: runtime error: index out of range")
	assert.Contains(t, pe.String(), "Stack trace:")
}

func TestRecoverWithoutPanicKeepsResult(t *testing.T) {
	out, err := forwardPass([]float64{1, 2}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, out)
}

func TestRecoverKeepsEarlierError(t *testing.T) {
	weightsErr := New("weights not loaded")
	fn := func() (err error) {
		defer Recover(&err, "set_weights")
		err = weightsErr
		panic("shape mismatch")
	}

	err := fn()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in set_weights: shape mismatch")
	assert.True(t, Is(err, weightsErr))
}

func TestRecoverPanicValues(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
	}{
		{"string", "bad kernel"},
		{"int", 42},
		{"error", fmt.Errorf("bad stride")},
		{"struct", struct{ Layer string }{"conv2d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := func() (err error) {
				defer Recover(&err, "build")
				panic(tt.value)
			}
			var pe *PanicError
			require.True(t, As(fn(), &pe))
			assert.Equal(t, fmt.Sprint(tt.value), fmt.Sprint(pe.PanicValue))
		})
	}
}

func TestRecoverFrameworkWrapsPanic(t *testing.T) {
	fn := func() (err error) {
		defer RecoverFramework(&err, "predict")
		var buf []float64
		_ = buf[3]
		return nil
	}

	err := fn()
	var fe *FrameworkError
	require.True(t, As(err, &fe))
	assert.Equal(t, "predict", fe.Op)

	var pe *PanicError
	require.True(t, As(err, &pe))
	assert.Equal(t, "predict", pe.Operation)
}

func TestRecoverFrameworkWithoutPanic(t *testing.T) {
	cause := NewValidationError("batch_size", "must be positive", 0)
	fn := func() (err error) {
		defer RecoverFramework(&err, "fit")
		return cause
	}
	assert.Equal(t, cause, fn())
}

func BenchmarkRecoverNoPanic(b *testing.B) {
	values := []float64{1, 2, 3}
	for i := 0; i < b.N; i++ {
		_, _ = forwardPass(values, i%3)
	}
}
