package nn

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
	"github.com/YuminosukeSato/digitnet/pkg/log"
)

// separable returns points with a margin around the diagonal, labelled by
// which side of it they fall on.
func separable(n int, seed int64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, 2, nil)
	Y := mat.NewDense(n, 2, nil)
	for i := 0; i < n; {
		a, b := rng.Float64()*2-1, rng.Float64()*2-1
		if math.Abs(a-b) < 0.2 {
			continue
		}
		X.Set(i, 0, a)
		X.Set(i, 1, b)
		if a > b {
			Y.Set(i, 0, 1)
		} else {
			Y.Set(i, 1, 1)
		}
		i++
	}
	return X, Y
}

func mlp(t *testing.T, seed int64) *Model {
	t.Helper()
	m, err := Build(Chain("mlp",
		Input("in", 2),
		Dense("hidden", 8, "tanh"),
		Dense("out", 2, "softmax"),
	), WithSeed(seed))
	require.NoError(t, err)
	require.NoError(t, m.Compile("adam", "categorical_crossentropy", []string{"accuracy"}))
	return m
}

func TestFitLearnsSeparableData(t *testing.T) {
	m := mlp(t, 1)
	X, Y := separable(200, 2)

	h, err := m.Fit(X, Y, FitConfig{BatchSize: 8, Epochs: 100, Shuffle: true})
	require.NoError(t, err)
	require.Equal(t, 100, h.Len())

	first := h.History["loss"][0]
	last, ok := h.Last("loss")
	require.True(t, ok)
	assert.Less(t, last, first)

	acc, ok := h.Last("accuracy")
	require.True(t, ok)
	assert.GreaterOrEqual(t, acc, 0.9)

	logs, err := m.Evaluate(X, Y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, logs["accuracy"], 0.9)
}

func TestFitValidationSplitHistoryKeys(t *testing.T) {
	m := mlp(t, 1)
	X, Y := separable(10, 3)

	h, err := m.Fit(X, Y, FitConfig{BatchSize: 4, Epochs: 2, ValidationSplit: 0.2})
	require.NoError(t, err)
	assert.Equal(t, []string{"accuracy", "loss", "val_accuracy", "val_loss"}, h.Keys())
	assert.Equal(t, []int{0, 1}, h.Epoch)
	for _, k := range h.Keys() {
		assert.Len(t, h.History[k], 2, k)
	}
}

func TestFitValidationSplitUsesTrailingRows(t *testing.T) {
	m := mlp(t, 1)
	X, Y := separable(10, 3)
	// Validation rows are the last two; their accuracy must equal an
	// evaluation of exactly those rows after training.
	h, err := m.Fit(X, Y, FitConfig{BatchSize: 10, Epochs: 1, ValidationSplit: 0.2})
	require.NoError(t, err)

	logs, err := m.Evaluate(X.Slice(8, 10, 0, 2), Y.Slice(8, 10, 0, 2))
	require.NoError(t, err)
	valAcc, _ := h.Last("val_accuracy")
	valLoss, _ := h.Last("val_loss")
	assert.InDelta(t, logs["accuracy"], valAcc, 1e-12)
	assert.InDelta(t, logs["loss"], valLoss, 1e-12)
}

func TestFitValidationData(t *testing.T) {
	m := mlp(t, 1)
	X, Y := separable(20, 4)
	Xv, Yv := separable(6, 5)

	h, err := m.Fit(X, Y, FitConfig{BatchSize: 5, ValidationData: &Dataset{X: Xv, Y: Yv}})
	require.NoError(t, err)
	_, ok := h.Last("val_accuracy")
	assert.True(t, ok)
}

func TestFitWithoutValidationHasNoValKeys(t *testing.T) {
	m := mlp(t, 1)
	X, Y := separable(6, 4)

	h, err := m.Fit(X, Y, FitConfig{BatchSize: 2})
	require.NoError(t, err)
	_, ok := h.Last("val_accuracy")
	assert.False(t, ok)
	assert.Equal(t, 1, h.Len(), "zero epochs means one")
}

func TestFitErrors(t *testing.T) {
	X, Y := separable(4, 1)

	t.Run("not compiled", func(t *testing.T) {
		m, err := Build(Chain("m", Input("in", 2), Dense("out", 2, "softmax")))
		require.NoError(t, err)
		_, err = m.Fit(X, Y, FitConfig{})
		requireFrameworkError(t, err)
	})

	t.Run("target width", func(t *testing.T) {
		_, err := mlp(t, 1).Fit(X, mat.NewDense(4, 3, nil), FitConfig{})
		requireFrameworkError(t, err)
		var sme *errors.ShapeMismatchError
		assert.True(t, errors.As(err, &sme))
	})

	t.Run("row mismatch", func(t *testing.T) {
		_, err := mlp(t, 1).Fit(X, mat.NewDense(3, 2, nil), FitConfig{})
		var de *errors.DimensionError
		assert.True(t, errors.As(err, &de))
	})

	t.Run("split too small", func(t *testing.T) {
		_, err := mlp(t, 1).Fit(X.Slice(0, 1, 0, 2), Y.Slice(0, 1, 0, 2), FitConfig{ValidationSplit: 0.5})
		requireFrameworkError(t, err)
	})

	t.Run("split out of range", func(t *testing.T) {
		_, err := mlp(t, 1).Fit(X, Y, FitConfig{ValidationSplit: 1})
		var ve *errors.ValidationError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("non-finite loss", func(t *testing.T) {
		bad := mat.DenseCopyOf(X)
		bad.Set(0, 0, math.NaN())
		_, err := mlp(t, 1).Fit(bad, Y, FitConfig{BatchSize: 4})
		requireFrameworkError(t, err)
		var nie *errors.NumericalInstabilityError
		assert.True(t, errors.As(err, &nie))
	})

	t.Run("callback error", func(t *testing.T) {
		boom := errors.New("boom")
		h, err := mlp(t, 1).Fit(X, Y, FitConfig{Epochs: 3, Callbacks: []Callback{
			func(*CallbackEnv) error { return boom },
		}})
		requireFrameworkError(t, err)
		assert.True(t, errors.Is(err, boom))
		assert.Equal(t, 1, h.Len())
	})
}

func TestEarlyStopping(t *testing.T) {
	cb := EarlyStopping("val_loss", 2, 0)
	env := &CallbackEnv{}
	losses := []float64{1.0, 0.8, 0.9, 0.85, 0.7}
	stoppedAt := -1
	for i, l := range losses {
		env.Epoch, env.Logs = i, map[string]float64{"val_loss": l}
		require.NoError(t, cb(env))
		if env.StopTraining {
			stoppedAt = i
			break
		}
	}
	assert.Equal(t, 3, stoppedAt)

	acc := EarlyStopping("val_accuracy", 0, 0)
	env = &CallbackEnv{Logs: map[string]float64{"val_accuracy": 0.5}}
	require.NoError(t, acc(env))
	assert.False(t, env.StopTraining)
	env.Logs["val_accuracy"] = 0.5
	require.NoError(t, acc(env))
	assert.True(t, env.StopTraining)

	missing := EarlyStopping("val_mse", 0, 0)
	env = &CallbackEnv{Logs: map[string]float64{"loss": 1}}
	require.NoError(t, missing(env))
	assert.False(t, env.StopTraining)
}

func TestFitStopsOnEarlyStopping(t *testing.T) {
	m := mlp(t, 1)
	X, Y := separable(20, 6)

	stopAfterTwo := func(env *CallbackEnv) error {
		env.StopTraining = env.Epoch == 1
		return nil
	}
	var recorded map[string][]float64
	h, err := m.Fit(X, Y, FitConfig{Epochs: 10, Callbacks: []Callback{RecordHistory(&recorded), stopAfterTwo}})
	require.NoError(t, err)
	assert.Equal(t, 2, h.Len())
	assert.Len(t, recorded["loss"], 2)
}

func TestTimeLimit(t *testing.T) {
	start := time.Now()
	cb := TimeLimit(time.Second)
	env := &CallbackEnv{TrainBegin: start, EpochEnd: start.Add(500 * time.Millisecond)}
	require.NoError(t, cb(env))
	assert.False(t, env.StopTraining)

	env.EpochEnd = start.Add(2 * time.Second)
	require.NoError(t, cb(env))
	assert.True(t, env.StopTraining)
}

func TestVerboseFitLogsEpochs(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelInfo)
	m, err := Build(Chain("verbose", Input("in", 2), Dense("out", 2, "softmax")), WithSeed(1), WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, m.Compile("sgd", "categorical_crossentropy", []string{"accuracy"}))

	X, Y := separable(10, 7)
	_, err = m.Fit(X, Y, FitConfig{Epochs: 2, Verbose: 1, ValidationSplit: 0.2})
	require.NoError(t, err)

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Epoch finished", entries[1]["message"])
	assert.Equal(t, 2.0, entries[1][log.EpochKey])
	assert.Equal(t, "verbose", entries[1][log.ModelNameKey])
	assert.Contains(t, entries[1], log.ValAccuracyKey)
}

func TestOptimizersDescend(t *testing.T) {
	for _, name := range []string{"sgd", "adam", "rmsprop"} {
		t.Run(name, func(t *testing.T) {
			opt, err := GetOptimizer(name)
			require.NoError(t, err)
			p := &Tensor{Shape: []int{1}, Data: []float64{1}}
			for i := 0; i < 50; i++ {
				// d/dp of p^2
				opt.Update([]*Tensor{p}, []*Tensor{{Shape: []int{1}, Data: []float64{2 * p.Data[0]}}})
			}
			assert.Less(t, math.Abs(p.Data[0]), 1.0)
		})
	}
}
