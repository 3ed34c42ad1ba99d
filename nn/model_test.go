package nn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

func tinyConfig() ModelConfig {
	return Chain("tiny",
		Input("input_layer", 4),
		Reshape("reshape", 2, 2, 1),
		Conv2D("conv2d", 3, []int{2, 2}, "relu"),
		MaxPooling2D("max_pooling2d", []int{2, 2}),
		Flatten("flatten"),
		Dense("output_layer", 2, "softmax"),
	)
}

func requireFrameworkError(t *testing.T, err error) *errors.FrameworkError {
	t.Helper()
	require.Error(t, err)
	var fe *errors.FrameworkError
	require.True(t, errors.As(err, &fe), "expected FrameworkError, got %v", err)
	return fe
}

func TestChainLinksLayers(t *testing.T) {
	cfg := tinyConfig()
	assert.Equal(t, []string{"input_layer"}, cfg.InputLayers)
	assert.Equal(t, []string{"output_layer"}, cfg.OutputLayers)
	assert.Empty(t, cfg.Layers[0].InboundNodes)
	for i := 1; i < len(cfg.Layers); i++ {
		assert.Equal(t, []string{cfg.Layers[i-1].Name}, cfg.Layers[i].InboundNodes)
	}
	require.NoError(t, cfg.Validate())
}

func TestBuildRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ModelConfig)
	}{
		{"no layers", func(c *ModelConfig) { c.Layers = nil }},
		{"unknown activation", func(c *ModelConfig) { c.Layers[2].Config.Activation = "swishy" }},
		{"zero filters", func(c *ModelConfig) { c.Layers[2].Config.Filters = 0 }},
		{"kernel larger than image", func(c *ModelConfig) { c.Layers[2].Config.KernelSize = []int{3, 3} }},
		{"one dimensional kernel", func(c *ModelConfig) { c.Layers[2].Config.KernelSize = []int{2} }},
		{"same padding", func(c *ModelConfig) { c.Layers[2].Config.Padding = "same" }},
		{"reshape size mismatch", func(c *ModelConfig) { c.Layers[1].Config.TargetShape = []int{3, 3, 1} }},
		{"unknown class", func(c *ModelConfig) { c.Layers[4].ClassName = "Dropout" }},
		{"branching", func(c *ModelConfig) { c.Layers[5].InboundNodes = []string{"conv2d"} }},
		{"duplicate name", func(c *ModelConfig) { c.Layers[3].Name = "conv2d" }},
		{"wrong output layer", func(c *ModelConfig) { c.OutputLayers = []string{"flatten"} }},
		{"zero units", func(c *ModelConfig) { c.Layers[5].Config.Units = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tinyConfig()
			tt.mutate(&cfg)
			_, err := Build(cfg)
			requireFrameworkError(t, err)
		})
	}
}

func TestConfigRoundTripThroughJSON(t *testing.T) {
	m, err := Build(tinyConfig(), WithSeed(1))
	require.NoError(t, err)

	b, err := json.Marshal(m.Config())
	require.NoError(t, err)
	var decoded ModelConfig
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, m.Config(), decoded)

	rebuilt, err := Build(decoded, WithSeed(2))
	require.NoError(t, err)
	assert.Equal(t, m.Config(), rebuilt.Config())
	assert.Equal(t, m.CountParams(), rebuilt.CountParams())
}

func TestConfigIsACopy(t *testing.T) {
	m, err := Build(tinyConfig(), WithSeed(1))
	require.NoError(t, err)

	cfg := m.Config()
	cfg.Layers[2].Config.KernelSize[0] = 99
	assert.Equal(t, []int{2, 2}, m.Config().Layers[2].Config.KernelSize)
}

func TestCountParamsAndSummary(t *testing.T) {
	m, err := Build(tinyConfig(), WithSeed(1))
	require.NoError(t, err)

	// conv 2*2*1*3 + 3, dense 3*2 + 2
	assert.Equal(t, 23, m.CountParams())

	summary := m.Summary()
	assert.Contains(t, summary, `Model: "tiny"`)
	assert.Contains(t, summary, "conv2d (Conv2D)")
	assert.Contains(t, summary, "(None, 1, 1, 3)")
	assert.Contains(t, summary, "Total params: 23")
}

func TestSeedMakesInitialisationDeterministic(t *testing.T) {
	a, err := Build(tinyConfig(), WithSeed(42))
	require.NoError(t, err)
	b, err := Build(tinyConfig(), WithSeed(42))
	require.NoError(t, err)
	c, err := Build(tinyConfig(), WithSeed(43))
	require.NoError(t, err)

	assert.Equal(t, a.Weights(), b.Weights())
	assert.NotEqual(t, a.Weights()[0].Data, c.Weights()[0].Data)
}

func TestWeightsOrderAndShapes(t *testing.T) {
	m, err := Build(tinyConfig(), WithSeed(1))
	require.NoError(t, err)

	weights := m.Weights()
	require.Len(t, weights, 4)
	assert.Equal(t, []int{2, 2, 1, 3}, weights[0].Shape)
	assert.Equal(t, []int{3}, weights[1].Shape)
	assert.Equal(t, []int{3, 2}, weights[2].Shape)
	assert.Equal(t, []int{2}, weights[3].Shape)
	assert.Equal(t, []float64{0, 0, 0}, weights[1].Data, "biases start at zero")

	weights[0].Data[0] = 123
	assert.NotEqual(t, 123.0, m.Weights()[0].Data[0], "Weights returns copies")
}

func TestSetWeights(t *testing.T) {
	src, err := Build(tinyConfig(), WithSeed(1))
	require.NoError(t, err)
	dst, err := Build(tinyConfig(), WithSeed(2))
	require.NoError(t, err)

	require.NoError(t, dst.SetWeights(src.Weights()))
	assert.Equal(t, src.Weights(), dst.Weights())

	X := mat.NewDense(2, 4, []float64{0.1, 0.2, 0.3, 0.4, 1, 0, 0, 1})
	want, err := src.Predict(X)
	require.NoError(t, err)
	got, err := dst.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, got, 1e-12))
}

func TestSetWeightsRejectsMismatch(t *testing.T) {
	m, err := Build(tinyConfig(), WithSeed(1))
	require.NoError(t, err)
	before := m.Weights()

	err = m.SetWeights(before[:3])
	requireFrameworkError(t, err)

	bad := m.Weights()
	bad[3] = NewTensor(3)
	bad[0].Data[0] = 77
	err = m.SetWeights(bad)
	requireFrameworkError(t, err)
	var sme *errors.ShapeMismatchError
	require.True(t, errors.As(err, &sme))
	assert.Equal(t, "weights[3]", sme.Name)
	assert.Equal(t, before, m.Weights(), "a rejected update leaves weights untouched")

	bad[3] = nil
	requireFrameworkError(t, m.SetWeights(bad))
}

func TestCompileRejectsUnknownNames(t *testing.T) {
	m, err := Build(tinyConfig(), WithSeed(1))
	require.NoError(t, err)

	requireFrameworkError(t, m.Compile("adagrad", "categorical_crossentropy", nil))
	requireFrameworkError(t, m.Compile("adam", "hinge", nil))
	requireFrameworkError(t, m.Compile("adam", "categorical_crossentropy", []string{"auc"}))
	assert.False(t, m.IsCompiled())

	require.NoError(t, m.Compile("rmsprop", "mse", []string{"acc", "accuracy", "mse"}))
	assert.True(t, m.IsCompiled())
	require.Len(t, m.compiled.metrics, 2)
	assert.Equal(t, "accuracy", m.compiled.metrics[0].key)
}

func TestPredictChecksWidth(t *testing.T) {
	m, err := Build(tinyConfig(), WithSeed(1))
	require.NoError(t, err)

	_, err = m.Predict(mat.NewDense(1, 5, nil))
	requireFrameworkError(t, err)
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestPredictParallelMatchesRowByRow(t *testing.T) {
	m, err := Build(tinyConfig(), WithSeed(3))
	require.NoError(t, err)

	n := 3 * predictBatch / 2
	X := mat.NewDense(n, 4, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < 4; j++ {
			X.Set(i, j, float64((i*7+j*3)%11)/10)
		}
	}
	all, err := m.Predict(X)
	require.NoError(t, err)
	rows, cols := all.Dims()
	require.Equal(t, n, rows)
	require.Equal(t, 2, cols)

	for _, i := range []int{0, 1, predictBatch - 1, predictBatch, n - 1} {
		one, err := m.Predict(X.Slice(i, i+1, 0, 4))
		require.NoError(t, err)
		assert.InDelta(t, one.At(0, 0), all.At(i, 0), 1e-12, "row %d", i)
		assert.InDelta(t, one.At(0, 1), all.At(i, 1), 1e-12, "row %d", i)
		assert.InDelta(t, 1.0, all.At(i, 0)+all.At(i, 1), 1e-12)
	}
}
