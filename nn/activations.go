package nn

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

// Activation is an element-wise (or, for softmax, per trailing axis)
// non-linearity. Backward is expressed in terms of the activated output so
// layers only need to keep their outputs for the backward pass.
type Activation interface {
	Name() string
	// Forward applies the activation to x in place. width is the size of
	// the trailing axis.
	Forward(x []float64, width int)
	// Backward converts grad from dL/dy to dL/dz in place, given y.
	Backward(y, grad []float64, width int)
}

// GetActivation resolves an activation by its Keras identifier. The empty
// string means linear.
func GetActivation(name string) (Activation, error) {
	switch name {
	case "relu":
		return relu{}, nil
	case "sigmoid":
		return sigmoid{}, nil
	case "tanh":
		return tanh{}, nil
	case "softmax":
		return softmax{}, nil
	case "elu":
		return elu{alpha: 1}, nil
	case "softplus":
		return softplus{}, nil
	case "linear", "":
		return linear{}, nil
	default:
		return nil, errors.Newf("nn: unknown activation %q", name)
	}
}

type relu struct{}

func (relu) Name() string { return "relu" }

func (relu) Forward(x []float64, _ int) {
	for i, v := range x {
		if v < 0 {
			x[i] = 0
		}
	}
}

func (relu) Backward(y, grad []float64, _ int) {
	for i := range grad {
		if y[i] <= 0 {
			grad[i] = 0
		}
	}
}

type sigmoid struct{}

func (sigmoid) Name() string { return "sigmoid" }

func (sigmoid) Forward(x []float64, _ int) {
	for i, v := range x {
		if v >= 0 {
			x[i] = 1 / (1 + math.Exp(-v))
		} else {
			e := math.Exp(v)
			x[i] = e / (1 + e)
		}
	}
}

func (sigmoid) Backward(y, grad []float64, _ int) {
	for i := range grad {
		grad[i] *= y[i] * (1 - y[i])
	}
}

type tanh struct{}

func (tanh) Name() string { return "tanh" }

func (tanh) Forward(x []float64, _ int) {
	for i, v := range x {
		x[i] = math.Tanh(v)
	}
}

func (tanh) Backward(y, grad []float64, _ int) {
	for i := range grad {
		grad[i] *= 1 - y[i]*y[i]
	}
}

type elu struct{ alpha float64 }

func (elu) Name() string { return "elu" }

func (a elu) Forward(x []float64, _ int) {
	for i, v := range x {
		if v < 0 {
			x[i] = a.alpha * (math.Exp(v) - 1)
		}
	}
}

func (a elu) Backward(y, grad []float64, _ int) {
	for i := range grad {
		if y[i] <= 0 {
			grad[i] *= y[i] + a.alpha
		}
	}
}

type softplus struct{}

func (softplus) Name() string { return "softplus" }

func (softplus) Forward(x []float64, _ int) {
	for i, v := range x {
		// log1p(exp(v)) overflows for large v where it equals v.
		if v > 30 {
			continue
		}
		x[i] = math.Log1p(math.Exp(v))
	}
}

func (softplus) Backward(y, grad []float64, _ int) {
	for i := range grad {
		grad[i] *= -math.Expm1(-y[i])
	}
}

type linear struct{}

func (linear) Name() string                   { return "linear" }
func (linear) Forward([]float64, int)         {}
func (linear) Backward(_, _ []float64, _ int) {}

type softmax struct{}

func (softmax) Name() string { return "softmax" }

func (softmax) Forward(x []float64, width int) {
	for off := 0; off+width <= len(x); off += width {
		row := x[off : off+width]
		floats.AddConst(-floats.Max(row), row)
		for i, v := range row {
			row[i] = math.Exp(v)
		}
		floats.Scale(1/floats.Sum(row), row)
	}
}

func (softmax) Backward(y, grad []float64, width int) {
	for off := 0; off+width <= len(grad); off += width {
		s := y[off : off+width]
		g := grad[off : off+width]
		dot := floats.Dot(g, s)
		for i := range g {
			g[i] = s[i] * (g[i] - dot)
		}
	}
}
