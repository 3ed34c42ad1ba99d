package nn

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

// dense computes act(x·kernel + bias) with kernel shaped (in, units).
type dense struct {
	baseLayer
	units      int
	act        Activation
	kernelInit initializer
	biasInit   initializer

	kernel *Tensor
	bias   *Tensor
}

type denseCache struct {
	x, y []float64
}

func (l *dense) build(in []int, rng *rand.Rand) error {
	if len(in) != 1 {
		return errors.Newf("nn: %s: Dense expects a flat input, got shape %v", l.cfg.Name, in)
	}
	l.inShape, l.outShape = cloneInts(in), []int{l.units}
	l.kernel = NewTensor(in[0], l.units)
	l.bias = NewTensor(l.units)
	l.kernelInit(l.kernel, in[0], l.units, rng)
	l.biasInit(l.bias, in[0], l.units, rng)
	return nil
}

func (l *dense) params() []*Tensor { return []*Tensor{l.kernel, l.bias} }

func (l *dense) forward(x []float64, n int) ([]float64, interface{}) {
	in := l.inShape[0]
	out := mat.NewDense(n, l.units, nil)
	out.Mul(mat.NewDense(n, in, x), mat.NewDense(in, l.units, l.kernel.Data))

	y := out.RawMatrix().Data
	for r := 0; r < n; r++ {
		floats.Add(y[r*l.units:(r+1)*l.units], l.bias.Data)
	}
	l.act.Forward(y, l.units)
	return y, denseCache{x: x, y: y}
}

func (l *dense) backward(cache interface{}, dy []float64, n int) ([]float64, []*Tensor) {
	c := cache.(denseCache)
	in := l.inShape[0]
	l.act.Backward(c.y, dy, l.units)
	dZ := mat.NewDense(n, l.units, dy)

	dW := NewTensor(in, l.units)
	mat.NewDense(in, l.units, dW.Data).Mul(mat.NewDense(n, in, c.x).T(), dZ)

	db := NewTensor(l.units)
	for r := 0; r < n; r++ {
		floats.Add(db.Data, dy[r*l.units:(r+1)*l.units])
	}

	dx := make([]float64, n*in)
	mat.NewDense(n, in, dx).Mul(dZ, mat.NewDense(in, l.units, l.kernel.Data).T())
	return dx, []*Tensor{dW, db}
}
