package nn

import (
	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

// Layer class names as they appear in a ModelConfig.
const (
	ClassInputLayer   = "InputLayer"
	ClassReshape      = "Reshape"
	ClassConv2D       = "Conv2D"
	ClassMaxPooling2D = "MaxPooling2D"
	ClassFlatten      = "Flatten"
	ClassDense        = "Dense"
)

// LayerParams is the union of the per-class layer settings. Fields that do
// not apply to a class are left empty and omitted from JSON.
type LayerParams struct {
	Name              string `json:"name"`
	InputShape        []int  `json:"input_shape,omitempty"`
	TargetShape       []int  `json:"target_shape,omitempty"`
	Filters           int    `json:"filters,omitempty"`
	KernelSize        []int  `json:"kernel_size,omitempty"`
	Strides           []int  `json:"strides,omitempty"`
	Padding           string `json:"padding,omitempty"`
	PoolSize          []int  `json:"pool_size,omitempty"`
	DataFormat        string `json:"data_format,omitempty"`
	Units             int    `json:"units,omitempty"`
	Activation        string `json:"activation,omitempty"`
	KernelInitializer string `json:"kernel_initializer,omitempty"`
	BiasInitializer   string `json:"bias_initializer,omitempty"`
}

// LayerConfig describes one node of the graph.
type LayerConfig struct {
	ClassName    string      `json:"class_name"`
	Name         string      `json:"name"`
	Config       LayerParams `json:"config"`
	InboundNodes []string    `json:"inbound_nodes"`
}

// ModelConfig is the structural description of a model, without weights.
type ModelConfig struct {
	Name         string        `json:"name"`
	Layers       []LayerConfig `json:"layers"`
	InputLayers  []string      `json:"input_layers"`
	OutputLayers []string      `json:"output_layers"`
}

// Input declares the graph input with the per-sample shape.
func Input(name string, shape ...int) LayerConfig {
	return LayerConfig{
		ClassName: ClassInputLayer,
		Name:      name,
		Config:    LayerParams{Name: name, InputShape: cloneInts(shape)},
	}
}

// Reshape reinterprets each sample with the target shape.
func Reshape(name string, target ...int) LayerConfig {
	return LayerConfig{
		ClassName: ClassReshape,
		Name:      name,
		Config:    LayerParams{Name: name, TargetShape: cloneInts(target)},
	}
}

// Conv2D is a stride 1, valid padding convolution.
func Conv2D(name string, filters int, kernelSize []int, activation string) LayerConfig {
	return LayerConfig{
		ClassName: ClassConv2D,
		Name:      name,
		Config: LayerParams{
			Name:              name,
			Filters:           filters,
			KernelSize:        cloneInts(kernelSize),
			Strides:           []int{1, 1},
			Padding:           "valid",
			DataFormat:        "channels_last",
			Activation:        activation,
			KernelInitializer: "glorot_uniform",
			BiasInitializer:   "zeros",
		},
	}
}

// MaxPooling2D pools with strides equal to the pool size.
func MaxPooling2D(name string, poolSize []int) LayerConfig {
	return LayerConfig{
		ClassName: ClassMaxPooling2D,
		Name:      name,
		Config: LayerParams{
			Name:       name,
			PoolSize:   cloneInts(poolSize),
			Strides:    cloneInts(poolSize),
			Padding:    "valid",
			DataFormat: "channels_last",
		},
	}
}

// Flatten collapses each sample to a vector.
func Flatten(name string) LayerConfig {
	return LayerConfig{
		ClassName: ClassFlatten,
		Name:      name,
		Config:    LayerParams{Name: name, DataFormat: "channels_last"},
	}
}

// Dense is a fully connected layer.
func Dense(name string, units int, activation string) LayerConfig {
	return LayerConfig{
		ClassName: ClassDense,
		Name:      name,
		Config: LayerParams{
			Name:              name,
			Units:             units,
			Activation:        activation,
			KernelInitializer: "glorot_uniform",
			BiasInitializer:   "zeros",
		},
	}
}

// Chain links layers into a linear graph named name. Each layer's inbound
// node is the previous layer.
func Chain(name string, layers ...LayerConfig) ModelConfig {
	cfg := ModelConfig{Name: name, Layers: make([]LayerConfig, len(layers))}
	for i, l := range layers {
		l = l.Clone()
		l.InboundNodes = []string{}
		if i > 0 {
			l.InboundNodes = []string{layers[i-1].Name}
		}
		cfg.Layers[i] = l
	}
	if len(layers) > 0 {
		cfg.InputLayers = []string{layers[0].Name}
		cfg.OutputLayers = []string{layers[len(layers)-1].Name}
	}
	return cfg
}

// Clone returns a deep copy.
func (p LayerParams) Clone() LayerParams {
	p.InputShape = cloneInts(p.InputShape)
	p.TargetShape = cloneInts(p.TargetShape)
	p.KernelSize = cloneInts(p.KernelSize)
	p.Strides = cloneInts(p.Strides)
	p.PoolSize = cloneInts(p.PoolSize)
	return p
}

// Clone returns a deep copy.
func (l LayerConfig) Clone() LayerConfig {
	l.Config = l.Config.Clone()
	if l.InboundNodes != nil {
		l.InboundNodes = append([]string{}, l.InboundNodes...)
	}
	return l
}

// Clone returns a deep copy.
func (c ModelConfig) Clone() ModelConfig {
	out := ModelConfig{Name: c.Name}
	if c.Layers != nil {
		out.Layers = make([]LayerConfig, len(c.Layers))
		for i, l := range c.Layers {
			out.Layers[i] = l.Clone()
		}
	}
	if c.InputLayers != nil {
		out.InputLayers = append([]string{}, c.InputLayers...)
	}
	if c.OutputLayers != nil {
		out.OutputLayers = append([]string{}, c.OutputLayers...)
	}
	return out
}

// Validate checks that the config describes a linear chain starting at an
// InputLayer.
func (c ModelConfig) Validate() error {
	if len(c.Layers) == 0 {
		return errors.New("nn: model config has no layers")
	}
	if c.Layers[0].ClassName != ClassInputLayer {
		return errors.Newf("nn: first layer must be %s, got %s", ClassInputLayer, c.Layers[0].ClassName)
	}
	seen := make(map[string]bool, len(c.Layers))
	for i, l := range c.Layers {
		if l.Name == "" {
			return errors.Newf("nn: layer %d has no name", i)
		}
		if seen[l.Name] {
			return errors.Newf("nn: duplicate layer name %q", l.Name)
		}
		seen[l.Name] = true

		switch {
		case i == 0 && len(l.InboundNodes) != 0:
			return errors.Newf("nn: input layer %q must not have inbound nodes", l.Name)
		case i > 0 && (len(l.InboundNodes) != 1 || l.InboundNodes[0] != c.Layers[i-1].Name):
			return errors.Newf("nn: layer %q must take its input from %q; only linear chains are supported",
				l.Name, c.Layers[i-1].Name)
		}
	}
	if len(c.InputLayers) != 1 || c.InputLayers[0] != c.Layers[0].Name {
		return errors.Newf("nn: input_layers %v must name the first layer %q", c.InputLayers, c.Layers[0].Name)
	}
	last := c.Layers[len(c.Layers)-1].Name
	if len(c.OutputLayers) != 1 || c.OutputLayers[0] != last {
		return errors.Newf("nn: output_layers %v must name the last layer %q", c.OutputLayers, last)
	}
	return nil
}
