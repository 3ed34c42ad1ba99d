// Package digitnet provides a convolutional image classifier for
// MNIST-style data, together with the small neural network engine it
// runs on.
//
// The module is organised like a scikit-learn/Keras stack in Go:
//
//   - cnn: MNISTClassifier, fit/predict/score and document persistence
//   - nn: layer graphs, training loop, optimizers, losses and callbacks
//   - config: process configuration (image size, class count)
//   - preprocessing: one-hot encoding and pixel scaling
//   - metrics: accuracy, confusion matrix, mean squared error
//   - datasets: CSV loading and synthetic digits
//   - plotting: training history charts
//   - core/model, core/parallel: estimator state, persistence helpers and
//     parallel loops
//   - pkg/errors, pkg/log: typed errors and structured logging
//
// # Quick Start
//
//	cfg, err := config.New(784, 10)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	clf := cnn.NewMNISTClassifier(cfg, cnn.WithRandomState(42))
//	valAcc, err := clf.Fit(X, y, 32, 0.1, cnn.WithEpochs(5))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	labels, err := clf.Predict(Xtest)
//
// The digitnet command wraps the same steps for CSV files:
//
//	MNIST_FEATURE_LENGTH=784 MNIST_NUMBER_OF_CLASSES=10 \
//	    digitnet train -data mnist_train.csv -out model.json -epochs 5 -scale
package digitnet
