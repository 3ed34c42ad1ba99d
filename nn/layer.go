package nn

import (
	"math/rand"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

// layer is one node of a built chain. forward must not modify x and must
// not keep state on the layer, so a built model can run concurrent
// inference. Batches are flat row-major slices of n samples.
type layer interface {
	config() LayerConfig
	build(inputShape []int, rng *rand.Rand) error
	outputShape() []int
	params() []*Tensor
	forward(x []float64, n int) (y []float64, cache interface{})
	backward(cache interface{}, dy []float64, n int) (dx []float64, grads []*Tensor)
}

type baseLayer struct {
	cfg      LayerConfig
	inShape  []int
	outShape []int
}

func (b *baseLayer) config() LayerConfig { return b.cfg.Clone() }
func (b *baseLayer) outputShape() []int  { return b.outShape }
func (b *baseLayer) params() []*Tensor   { return nil }

func newLayer(lc LayerConfig) (layer, error) {
	base := baseLayer{cfg: lc.Clone()}
	p := lc.Config
	switch lc.ClassName {
	case ClassInputLayer:
		if err := positive("input_shape", p.InputShape, 0); err != nil {
			return nil, err
		}
		return &inputLayer{baseLayer: base}, nil

	case ClassReshape:
		if err := positive("target_shape", p.TargetShape, 0); err != nil {
			return nil, err
		}
		return &reshapeLayer{baseLayer: base}, nil

	case ClassFlatten:
		return &flattenLayer{baseLayer: base}, nil

	case ClassConv2D:
		if p.Filters <= 0 {
			return nil, errors.Newf("nn: %s: filters must be positive, got %d", lc.Name, p.Filters)
		}
		if err := positive("kernel_size", p.KernelSize, 2); err != nil {
			return nil, errors.Wrapf(err, "nn: %s", lc.Name)
		}
		strides := p.Strides
		if len(strides) == 0 {
			strides = []int{1, 1}
		}
		if err := positive("strides", strides, 2); err != nil {
			return nil, errors.Wrapf(err, "nn: %s", lc.Name)
		}
		if err := validPadding(p.Padding, p.DataFormat); err != nil {
			return nil, errors.Wrapf(err, "nn: %s", lc.Name)
		}
		act, err := GetActivation(p.Activation)
		if err != nil {
			return nil, err
		}
		kInit, bInit, err := initializers(p)
		if err != nil {
			return nil, err
		}
		return &conv2D{
			baseLayer: base,
			filters:   p.Filters,
			kh:        p.KernelSize[0], kw: p.KernelSize[1],
			sh: strides[0], sw: strides[1],
			act: act, kernelInit: kInit, biasInit: bInit,
		}, nil

	case ClassMaxPooling2D:
		if err := positive("pool_size", p.PoolSize, 2); err != nil {
			return nil, errors.Wrapf(err, "nn: %s", lc.Name)
		}
		strides := p.Strides
		if len(strides) == 0 {
			strides = p.PoolSize
		}
		if err := positive("strides", strides, 2); err != nil {
			return nil, errors.Wrapf(err, "nn: %s", lc.Name)
		}
		if err := validPadding(p.Padding, p.DataFormat); err != nil {
			return nil, errors.Wrapf(err, "nn: %s", lc.Name)
		}
		return &maxPooling2D{
			baseLayer: base,
			ph:        p.PoolSize[0], pw: p.PoolSize[1],
			sh: strides[0], sw: strides[1],
		}, nil

	case ClassDense:
		if p.Units <= 0 {
			return nil, errors.Newf("nn: %s: units must be positive, got %d", lc.Name, p.Units)
		}
		act, err := GetActivation(p.Activation)
		if err != nil {
			return nil, err
		}
		kInit, bInit, err := initializers(p)
		if err != nil {
			return nil, err
		}
		return &dense{baseLayer: base, units: p.Units, act: act, kernelInit: kInit, biasInit: bInit}, nil

	default:
		return nil, errors.Newf("nn: unknown layer class %q", lc.ClassName)
	}
}

func positive(field string, v []int, wantLen int) error {
	if len(v) == 0 || (wantLen > 0 && len(v) != wantLen) {
		if wantLen > 0 {
			return errors.Newf("%s must have %d entries, got %v", field, wantLen, v)
		}
		return errors.Newf("%s must not be empty", field)
	}
	for _, d := range v {
		if d <= 0 {
			return errors.Newf("%s entries must be positive, got %v", field, v)
		}
	}
	return nil
}

func validPadding(padding, dataFormat string) error {
	if padding != "" && padding != "valid" {
		return errors.Newf("padding %q is not supported", padding)
	}
	if dataFormat != "" && dataFormat != "channels_last" {
		return errors.Newf("data_format %q is not supported", dataFormat)
	}
	return nil
}

func initializers(p LayerParams) (initializer, initializer, error) {
	kInit, err := getInitializer(p.KernelInitializer)
	if err != nil {
		return nil, nil, err
	}
	bias := p.BiasInitializer
	if bias == "" {
		bias = "zeros"
	}
	bInit, err := getInitializer(bias)
	if err != nil {
		return nil, nil, err
	}
	return kInit, bInit, nil
}

// inputLayer passes samples through unchanged.
type inputLayer struct{ baseLayer }

func (l *inputLayer) build(_ []int, _ *rand.Rand) error {
	l.outShape = cloneInts(l.cfg.Config.InputShape)
	return nil
}

func (l *inputLayer) forward(x []float64, _ int) ([]float64, interface{}) { return x, nil }

func (l *inputLayer) backward(_ interface{}, dy []float64, _ int) ([]float64, []*Tensor) {
	return dy, nil
}

// reshapeLayer changes the per-sample shape; the data is already row-major.
type reshapeLayer struct{ baseLayer }

func (l *reshapeLayer) build(in []int, _ *rand.Rand) error {
	target := l.cfg.Config.TargetShape
	if shapeSize(in) != shapeSize(target) {
		return errors.Newf("nn: %s: cannot reshape %v (%d values) to %v (%d values)",
			l.cfg.Name, in, shapeSize(in), target, shapeSize(target))
	}
	l.inShape, l.outShape = cloneInts(in), cloneInts(target)
	return nil
}

func (l *reshapeLayer) forward(x []float64, _ int) ([]float64, interface{}) { return x, nil }

func (l *reshapeLayer) backward(_ interface{}, dy []float64, _ int) ([]float64, []*Tensor) {
	return dy, nil
}

// flattenLayer collapses each sample to one axis.
type flattenLayer struct{ baseLayer }

func (l *flattenLayer) build(in []int, _ *rand.Rand) error {
	l.inShape, l.outShape = cloneInts(in), []int{shapeSize(in)}
	return nil
}

func (l *flattenLayer) forward(x []float64, _ int) ([]float64, interface{}) { return x, nil }

func (l *flattenLayer) backward(_ interface{}, dy []float64, _ int) ([]float64, []*Tensor) {
	return dy, nil
}
