// Package nn is a compact CPU neural network engine with a Keras-like
// contract: a model is described by a serialisable ModelConfig, built into
// a trainable graph, compiled with an optimizer, a loss and metrics, and then
// fitted, evaluated and used for inference.
//
// Only linear chains of layers are supported. Tensors use the channels-last
// layout and weight tensors follow Keras shapes, so a Conv2D kernel is
// (kernel_h, kernel_w, in_channels, filters) and a Dense kernel is
// (in_units, units), each followed by a bias vector.
//
// Basic usage:
//
//	cfg := nn.Chain("digits",
//	    nn.Input("input_layer", 784),
//	    nn.Reshape("reshape", 28, 28, 1),
//	    nn.Conv2D("conv2d", 20, []int{2, 2}, "relu"),
//	    nn.MaxPooling2D("max_pooling2d", []int{2, 2}),
//	    nn.Flatten("flatten"),
//	    nn.Dense("output_layer", 10, "softmax"),
//	)
//	model, err := nn.Build(cfg, nn.WithSeed(42))
//	if err != nil {
//	    return err
//	}
//	if err := model.Compile("adam", "categorical_crossentropy", []string{"accuracy"}); err != nil {
//	    return err
//	}
//	history, err := model.Fit(X, Y, nn.FitConfig{BatchSize: 32, Epochs: 5, ValidationSplit: 0.1})
//
// Every error returned by an exported function is a *errors.FrameworkError
// from package pkg/errors wrapping the underlying cause.
package nn
