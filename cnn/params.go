package cnn

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
	"github.com/YuminosukeSato/digitnet/pkg/log"
)

// Params are the architecture and training hyperparameters of an
// MNISTClassifier. The JSON names are the document keys.
type Params struct {
	ConvFilters        int      `json:"conv_layer_one_filters"`
	ConvKernelSize     []int    `json:"conv_layer_one_kernel_size"`
	ConvActivation     string   `json:"conv_layer_one_activation"`
	PoolSize           []int    `json:"max_pooling_layer_one_pool_size"`
	DenseOneUnits      int      `json:"dense_layer_one_num_units"`
	DenseOneActivation string   `json:"dense_layer_one_activation"`
	DenseTwoUnits      int      `json:"dense_layer_two_num_units"`
	DenseTwoActivation string   `json:"dense_layer_two_activation"`
	Optimizer          string   `json:"optimizer"`
	Loss               string   `json:"loss"`
	Metrics            []string `json:"metrics"`

	// RandomState seeds weight initialisation and shuffling. Negative
	// values draw a fresh seed per build.
	RandomState int64 `json:"random_state"`
}

// DefaultParams returns the default hyperparameters.
func DefaultParams() Params {
	return Params{
		ConvFilters:        20,
		ConvKernelSize:     []int{2, 2},
		ConvActivation:     "relu",
		PoolSize:           []int{2, 2},
		DenseOneUnits:      20,
		DenseOneActivation: "relu",
		DenseTwoUnits:      20,
		DenseTwoActivation: "relu",
		Optimizer:          "adam",
		Loss:               "categorical_crossentropy",
		Metrics:            []string{"accuracy"},
		RandomState:        -1,
	}
}

// Clone returns a deep copy of p.
func (p Params) Clone() Params {
	p.ConvKernelSize = append([]int(nil), p.ConvKernelSize...)
	p.PoolSize = append([]int(nil), p.PoolSize...)
	p.Metrics = append([]string(nil), p.Metrics...)
	return p
}

// Option configures an MNISTClassifier.
type Option func(*MNISTClassifier)

// WithParams replaces every hyperparameter.
func WithParams(p Params) Option {
	return func(c *MNISTClassifier) {
		c.params = p.Clone()
	}
}

// WithConvFilters sets the number of convolution filters.
func WithConvFilters(filters int) Option {
	return func(c *MNISTClassifier) {
		c.params.ConvFilters = filters
	}
}

// WithConvKernelSize sets the convolution window.
func WithConvKernelSize(rows, cols int) Option {
	return func(c *MNISTClassifier) {
		c.params.ConvKernelSize = []int{rows, cols}
	}
}

// WithConvActivation sets the convolution activation.
func WithConvActivation(activation string) Option {
	return func(c *MNISTClassifier) {
		c.params.ConvActivation = activation
	}
}

// WithPoolSize sets the max pooling window. Strides equal the window.
func WithPoolSize(rows, cols int) Option {
	return func(c *MNISTClassifier) {
		c.params.PoolSize = []int{rows, cols}
	}
}

// WithDenseOne configures the first hidden dense layer.
func WithDenseOne(units int, activation string) Option {
	return func(c *MNISTClassifier) {
		c.params.DenseOneUnits = units
		c.params.DenseOneActivation = activation
	}
}

// WithDenseTwo configures the second hidden dense layer.
func WithDenseTwo(units int, activation string) Option {
	return func(c *MNISTClassifier) {
		c.params.DenseTwoUnits = units
		c.params.DenseTwoActivation = activation
	}
}

// WithOptimizer sets the optimizer identifier ("adam", "sgd", "rmsprop").
func WithOptimizer(optimizer string) Option {
	return func(c *MNISTClassifier) {
		c.params.Optimizer = optimizer
	}
}

// WithLoss sets the loss identifier.
func WithLoss(loss string) Option {
	return func(c *MNISTClassifier) {
		c.params.Loss = loss
	}
}

// WithMetrics sets the metric identifiers reported during training.
func WithMetrics(metrics ...string) Option {
	return func(c *MNISTClassifier) {
		c.params.Metrics = append([]string(nil), metrics...)
	}
}

// WithRandomState sets the random seed.
func WithRandomState(seed int64) Option {
	return func(c *MNISTClassifier) {
		c.params.RandomState = seed
	}
}

// WithLogger sets the base logger. The classifier adds its own identity
// fields to it.
func WithLogger(logger log.Logger) Option {
	return func(c *MNISTClassifier) {
		if logger != nil {
			c.baseLogger = logger
		}
	}
}

// GetParams returns the model hyperparameters.
func (c *MNISTClassifier) GetParams() map[string]interface{} {
	p := c.params.Clone()
	return map[string]interface{}{
		"conv_layer_one_filters":          p.ConvFilters,
		"conv_layer_one_kernel_size":      p.ConvKernelSize,
		"conv_layer_one_activation":       p.ConvActivation,
		"max_pooling_layer_one_pool_size": p.PoolSize,
		"dense_layer_one_num_units":       p.DenseOneUnits,
		"dense_layer_one_activation":      p.DenseOneActivation,
		"dense_layer_two_num_units":       p.DenseTwoUnits,
		"dense_layer_two_activation":      p.DenseTwoActivation,
		"optimizer":                       p.Optimizer,
		"loss":                            p.Loss,
		"metrics":                         p.Metrics,
		"random_state":                    p.RandomState,
	}
}

// SetParams sets the model hyperparameters. Numbers may be any Go integer
// type or an integral float64, as produced by encoding/json. Nothing is
// changed when any value is rejected.
func (c *MNISTClassifier) SetParams(params map[string]interface{}) error {
	p := c.params.Clone()
	for key, value := range params {
		var err error
		switch key {
		case "conv_layer_one_filters":
			p.ConvFilters, err = toInt(key, value)
		case "conv_layer_one_kernel_size":
			p.ConvKernelSize, err = toInts(key, value)
		case "conv_layer_one_activation":
			p.ConvActivation, err = toString(key, value)
		case "max_pooling_layer_one_pool_size":
			p.PoolSize, err = toInts(key, value)
		case "dense_layer_one_num_units":
			p.DenseOneUnits, err = toInt(key, value)
		case "dense_layer_one_activation":
			p.DenseOneActivation, err = toString(key, value)
		case "dense_layer_two_num_units":
			p.DenseTwoUnits, err = toInt(key, value)
		case "dense_layer_two_activation":
			p.DenseTwoActivation, err = toString(key, value)
		case "optimizer":
			p.Optimizer, err = toString(key, value)
		case "loss":
			p.Loss, err = toString(key, value)
		case "metrics":
			p.Metrics, err = toStrings(key, value)
		case "random_state":
			var seed int
			seed, err = toInt(key, value)
			p.RandomState = int64(seed)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if err != nil {
			return err
		}
	}
	c.params = p
	return nil
}

func toInt(key string, v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int(n), nil
		}
	}
	return 0, errors.NewValidationError(key, "must be an integer", v)
}

func toInts(key string, v interface{}) ([]int, error) {
	switch s := v.(type) {
	case []int:
		return append([]int(nil), s...), nil
	case [2]int:
		return []int{s[0], s[1]}, nil
	case []interface{}:
		out := make([]int, len(s))
		for i, e := range s {
			n, err := toInt(fmt.Sprintf("%s[%d]", key, i), e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	}
	return nil, errors.NewValidationError(key, "must be a list of integers", v)
}

func toString(key string, v interface{}) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", errors.NewValidationError(key, "must be a string", v)
}

func toStrings(key string, v interface{}) ([]string, error) {
	switch s := v.(type) {
	case []string:
		return append([]string(nil), s...), nil
	case []interface{}:
		out := make([]string, len(s))
		for i, e := range s {
			str, err := toString(fmt.Sprintf("%s[%d]", key, i), e)
			if err != nil {
				return nil, err
			}
			out[i] = str
		}
		return out, nil
	}
	return nil, errors.NewValidationError(key, "must be a list of strings", v)
}
