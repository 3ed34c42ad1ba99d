// Package cnn provides MNISTClassifier, a convolutional image classifier
// built on package nn.
//
// The classifier owns its hyperparameters and, once fitted or restored, one
// nn.Model with the fixed topology
//
//	input -> reshape(side, side, 1) -> conv2d -> max_pooling2d -> flatten
//	      -> dense -> dense_1 -> output_layer (softmax)
//
// A trained classifier is persisted as a Document: every hyperparameter,
// the graph config, the flattened weights and the last training history.
//
// Example:
//
//	cfg := config.MustLoad()
//	clf := cnn.NewMNISTClassifier(cfg, cnn.WithRandomState(42))
//	valAcc, err := clf.Fit(X, y, 32, 0.1, cnn.WithEpochs(5))
//	if err != nil {
//	    return err
//	}
//	labels, err := clf.Predict(Xtest)
//	err = clf.Save("model.json")
package cnn
