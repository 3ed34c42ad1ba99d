package cnn

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/digitnet/nn"
	"github.com/YuminosukeSato/digitnet/pkg/errors"
	"github.com/YuminosukeSato/digitnet/pkg/log"
)

type fitOptions struct {
	epochs    int
	shuffle   bool
	callbacks []nn.Callback
	verbose   int
	valX      mat.Matrix
	valY      mat.Matrix
}

// FitOption configures a single call to Fit. The options are forwarded to
// nn.Model.Fit.
type FitOption func(*fitOptions)

// WithEpochs sets the number of passes over the training data (default 1).
func WithEpochs(epochs int) FitOption {
	return func(o *fitOptions) {
		o.epochs = epochs
	}
}

// WithShuffle sets whether training rows are reshuffled every epoch
// (default true).
func WithShuffle(shuffle bool) FitOption {
	return func(o *fitOptions) {
		o.shuffle = shuffle
	}
}

// WithCallbacks adds callbacks run after every epoch.
func WithCallbacks(callbacks ...nn.Callback) FitOption {
	return func(o *fitOptions) {
		o.callbacks = append(o.callbacks, callbacks...)
	}
}

// WithVerbose logs one record per epoch when verbose > 0.
func WithVerbose(verbose int) FitOption {
	return func(o *fitOptions) {
		o.verbose = verbose
	}
}

// WithValidationData evaluates on an explicit held-out set instead of a
// split of the training rows. y is encoded like the training labels.
func WithValidationData(X, y mat.Matrix) FitOption {
	return func(o *fitOptions) {
		o.valX, o.valY = X, y
	}
}

// Fit discards any attached graph, builds and compiles a fresh one and
// trains it on X and y. It returns the validation accuracy of the final
// epoch.
//
// y holds either one integer label per row or one-hot rows of width equal
// to the class count. validationSplit is the trailing fraction of rows held
// out for validation and must lie in (0, 1) unless WithValidationData is
// given.
//
// When training succeeds but the history has no "val_accuracy" (for example
// because metrics do not include accuracy), the trained graph is kept and a
// ModelError wrapping errors.ErrMissingValidationMetric is returned.
func (c *MNISTClassifier) Fit(X, y mat.Matrix, batchSize int, validationSplit float64, opts ...FitOption) (float64, error) {
	o := fitOptions{epochs: 1, shuffle: true}
	for _, opt := range opts {
		opt(&o)
	}

	Y, err := c.EncodeLabels(y)
	if err != nil {
		return 0, err
	}
	if batchSize <= 0 {
		return 0, errors.NewValidationError("batch_size", "must be positive", batchSize)
	}

	fc := nn.FitConfig{
		BatchSize: batchSize,
		Epochs:    o.epochs,
		Shuffle:   o.shuffle,
		Callbacks: o.callbacks,
		Verbose:   o.verbose,
	}
	if o.valX != nil {
		valY, err := c.EncodeLabels(o.valY)
		if err != nil {
			return 0, err
		}
		fc.ValidationData = &nn.Dataset{X: o.valX, Y: valY}
	} else {
		if validationSplit <= 0 || validationSplit >= 1 {
			return 0, errors.NewValidationError("validation_split",
				"must be in (0, 1) when no validation data is given", validationSplit)
		}
		fc.ValidationSplit = validationSplit
	}

	c.model, c.history = nil, nil
	c.state.Reset()

	m, err := c.BuildUntrainedGraph()
	if err != nil {
		return 0, err
	}
	if err := m.Compile(c.params.Optimizer, c.params.Loss, c.params.Metrics); err != nil {
		return 0, err
	}

	n, features := X.Dims()
	c.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, n,
		log.FeaturesKey, features,
		log.ClassesKey, c.cfg.NumberOfClasses,
		log.BatchSizeKey, batchSize,
		log.EpochsKey, o.epochs,
		log.OptimizerKey, c.params.Optimizer,
	)
	start := time.Now()

	h, err := m.Fit(X, Y, fc)
	if err != nil {
		c.logger.Error("Training failed", err, log.OperationKey, log.OperationFit)
		return 0, err
	}

	c.model, c.history = m, h
	c.state.SetFitted()

	valAcc, ok := h.Last("val_accuracy")
	if !ok {
		c.logger.Warn("Training finished without validation accuracy",
			log.OperationKey, log.OperationFit,
			log.ErrorCodeKey, log.ErrorMissingValidation,
		)
		return 0, errors.NewModelError(modelName+".Fit", "missing validation metric", errors.ErrMissingValidationMetric)
	}
	loss, _ := h.Last("loss")
	c.logger.Info("Training finished",
		log.OperationKey, log.OperationFit,
		log.EpochsKey, h.Len(),
		log.LossKey, loss,
		log.ValAccuracyKey, valAcc,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return valAcc, nil
}
