package nn

import (
	"math"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

// Optimizer updates parameters in place from their gradients. params and
// grads are aligned; slot i always refers to the same parameter across
// calls so per-parameter state can be kept by position.
type Optimizer interface {
	Name() string
	Update(params, grads []*Tensor)
}

// GetOptimizer resolves an optimizer by its Keras identifier, using the
// Keras default hyperparameters.
func GetOptimizer(name string) (Optimizer, error) {
	switch name {
	case "adam":
		return NewAdam(0.001, 0.9, 0.999, epsilon), nil
	case "sgd":
		return NewSGD(0.01), nil
	case "rmsprop":
		return NewRMSprop(0.001, 0.9, epsilon), nil
	default:
		return nil, errors.Newf("nn: unknown optimizer %q", name)
	}
}

// SGD is plain stochastic gradient descent.
type SGD struct {
	LearningRate float64
}

// NewSGD returns SGD with the given learning rate.
func NewSGD(lr float64) *SGD { return &SGD{LearningRate: lr} }

func (o *SGD) Name() string { return "sgd" }

func (o *SGD) Update(params, grads []*Tensor) {
	for i, p := range params {
		for j, g := range grads[i].Data {
			p.Data[j] -= o.LearningRate * g
		}
	}
}

// Adam keeps bias-corrected first and second moment estimates.
type Adam struct {
	LearningRate float64
	Beta1, Beta2 float64
	Epsilon      float64

	t    int
	m, v [][]float64
}

// NewAdam returns an Adam optimizer.
func NewAdam(lr, beta1, beta2, eps float64) *Adam {
	return &Adam{LearningRate: lr, Beta1: beta1, Beta2: beta2, Epsilon: eps}
}

func (o *Adam) Name() string { return "adam" }

func (o *Adam) Update(params, grads []*Tensor) {
	if o.m == nil {
		o.m, o.v = zerosLike(params), zerosLike(params)
	}
	o.t++
	lr := o.LearningRate * math.Sqrt(1-math.Pow(o.Beta2, float64(o.t))) / (1 - math.Pow(o.Beta1, float64(o.t)))
	for i, p := range params {
		m, v := o.m[i], o.v[i]
		for j, g := range grads[i].Data {
			m[j] = o.Beta1*m[j] + (1-o.Beta1)*g
			v[j] = o.Beta2*v[j] + (1-o.Beta2)*g*g
			p.Data[j] -= lr * m[j] / (math.Sqrt(v[j]) + o.Epsilon)
		}
	}
}

// RMSprop divides the gradient by a running average of its magnitude.
type RMSprop struct {
	LearningRate float64
	Rho          float64
	Epsilon      float64

	v [][]float64
}

// NewRMSprop returns an RMSprop optimizer.
func NewRMSprop(lr, rho, eps float64) *RMSprop {
	return &RMSprop{LearningRate: lr, Rho: rho, Epsilon: eps}
}

func (o *RMSprop) Name() string { return "rmsprop" }

func (o *RMSprop) Update(params, grads []*Tensor) {
	if o.v == nil {
		o.v = zerosLike(params)
	}
	for i, p := range params {
		v := o.v[i]
		for j, g := range grads[i].Data {
			v[j] = o.Rho*v[j] + (1-o.Rho)*g*g
			p.Data[j] -= o.LearningRate * g / (math.Sqrt(v[j]) + o.Epsilon)
		}
	}
}

func zerosLike(params []*Tensor) [][]float64 {
	out := make([][]float64, len(params))
	for i, p := range params {
		out[i] = make([]float64, len(p.Data))
	}
	return out
}
