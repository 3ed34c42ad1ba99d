package nn

import (
	"fmt"
	"math/rand"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
	"github.com/YuminosukeSato/digitnet/pkg/log"
)

// Model is a built layer chain. Inference is safe for concurrent use;
// Compile, Fit and SetWeights are not.
type Model struct {
	cfg      ModelConfig
	layers   []layer
	rng      *rand.Rand
	logger   log.Logger
	compiled *compiled
}

type compiled struct {
	optimizer Optimizer
	loss      Loss
	metrics   []metric
}

type buildOptions struct {
	seed   int64
	logger log.Logger
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithSeed seeds weight initialisation and shuffling. A negative seed uses
// the current time.
func WithSeed(seed int64) BuildOption {
	return func(o *buildOptions) { o.seed = seed }
}

// WithLogger sets the logger used during training.
func WithLogger(logger log.Logger) BuildOption {
	return func(o *buildOptions) { o.logger = logger }
}

func newRand(seed int64) *rand.Rand {
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Build validates cfg and instantiates every layer with freshly initialised
// weights. The same function restores a model from a saved config.
func Build(cfg ModelConfig, opts ...BuildOption) (m *Model, err error) {
	defer errors.RecoverFramework(&err, "build")

	o := buildOptions{seed: -1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.GetLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.NewFrameworkError("build", err)
	}

	rng := newRand(o.seed)
	layers := make([]layer, 0, len(cfg.Layers))
	var shape []int
	for _, lc := range cfg.Layers {
		l, err := newLayer(lc)
		if err != nil {
			return nil, errors.NewFrameworkError("build", err)
		}
		if err := l.build(shape, rng); err != nil {
			return nil, errors.NewFrameworkError("build", err)
		}
		shape = l.outputShape()
		layers = append(layers, l)
	}

	return &Model{
		cfg:    cfg.Clone(),
		layers: layers,
		rng:    rng,
		logger: o.logger.With(log.ComponentKey, "nn", log.ModelNameKey, cfg.Name),
	}, nil
}

// Name returns the model name from its config.
func (m *Model) Name() string { return m.cfg.Name }

// Config returns a copy of the structural config.
func (m *Model) Config() ModelConfig { return m.cfg.Clone() }

// InputShape returns the per-sample input shape.
func (m *Model) InputShape() []int { return cloneInts(m.layers[0].outputShape()) }

// OutputShape returns the per-sample output shape.
func (m *Model) OutputShape() []int { return cloneInts(m.layers[len(m.layers)-1].outputShape()) }

func (m *Model) inputSize() int  { return shapeSize(m.layers[0].outputShape()) }
func (m *Model) outputSize() int { return shapeSize(m.layers[len(m.layers)-1].outputShape()) }

// params returns the live weight tensors in weight-enumeration order:
// layer by layer, kernel before bias.
func (m *Model) params() []*Tensor {
	var out []*Tensor
	for _, l := range m.layers {
		out = append(out, l.params()...)
	}
	return out
}

// CountParams returns the number of scalar weights.
func (m *Model) CountParams() int {
	n := 0
	for _, p := range m.params() {
		n += p.Size()
	}
	return n
}

// Weights returns copies of the weight tensors in weight-enumeration order.
func (m *Model) Weights() []*Tensor {
	params := m.params()
	out := make([]*Tensor, len(params))
	for i, p := range params {
		out[i] = p.Clone()
	}
	return out
}

// SetWeights replaces every weight tensor. Nothing is modified unless the
// count and every shape match.
func (m *Model) SetWeights(weights []*Tensor) error {
	params := m.params()
	if len(weights) != len(params) {
		return errors.NewFrameworkErrorf("set_weights", "expected %d weight tensors, got %d", len(params), len(weights))
	}
	for i, w := range weights {
		if w == nil {
			return errors.NewFrameworkErrorf("set_weights", "weight tensor %d is nil", i)
		}
		if !w.SameShape(params[i]) || len(w.Data) != len(params[i].Data) {
			return errors.NewFrameworkError("set_weights",
				errors.NewShapeMismatchError("set_weights", fmt.Sprintf("weights[%d]", i), params[i].Shape, w.Shape))
		}
	}
	for i, w := range weights {
		copy(params[i].Data, w.Data)
	}
	return nil
}

// Compile attaches an optimizer, a loss and metrics. Compiling again resets
// the optimizer state.
func (m *Model) Compile(optimizer, loss string, metricNames []string) error {
	opt, err := GetOptimizer(optimizer)
	if err != nil {
		return errors.NewFrameworkError("compile", err)
	}
	l, err := GetLoss(loss)
	if err != nil {
		return errors.NewFrameworkError("compile", err)
	}
	c := &compiled{optimizer: opt, loss: l}
	seen := make(map[string]bool)
	for _, name := range metricNames {
		mt, err := getMetric(name)
		if err != nil {
			return errors.NewFrameworkError("compile", err)
		}
		if seen[mt.key] {
			continue
		}
		seen[mt.key] = true
		c.metrics = append(c.metrics, mt)
	}
	m.compiled = c
	return nil
}

// IsCompiled reports whether Compile has succeeded.
func (m *Model) IsCompiled() bool { return m.compiled != nil }

// Summary renders a Keras-style table of layers, output shapes and
// parameter counts.
func (m *Model) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Model: %q\n", m.cfg.Name)
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Layer (type)\tOutput Shape\tParam #")
	total := 0
	for _, l := range m.layers {
		cfg := l.config()
		n := 0
		for _, p := range l.params() {
			n += p.Size()
		}
		total += n
		fmt.Fprintf(tw, "%s (%s)\t%s\t%d\n", cfg.Name, cfg.ClassName, formatShape(l.outputShape()), n)
	}
	_ = tw.Flush()
	fmt.Fprintf(&sb, "Total params: %d\n", total)
	return sb.String()
}

func formatShape(shape []int) string {
	parts := make([]string, 0, len(shape)+1)
	parts = append(parts, "None")
	for _, d := range shape {
		parts = append(parts, fmt.Sprint(d))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
