// Package log defines standard attribute keys for machine learning operations.
//
// The keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so records from the classifier, the nn engine and the CLI
// can be filtered the same way.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model. Examples: "MNISTClassifier", "nn.Model"
	ModelNameKey = "model.name"

	// EstimatorIDKey identifies a specific model instance (a UUID).
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ClassesKey indicates the width of the one-hot label space.
	ClassesKey = "data.classes"

	// BatchSizeKey indicates the size of mini-batches.
	BatchSizeKey = "data.batch_size"

	// ValidationSamplesKey is the number of rows held out for validation.
	ValidationSamplesKey = "data.validation_samples"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records accuracy on the training split.
	AccuracyKey = "metrics.accuracy"

	// ValAccuracyKey records accuracy on the validation split.
	ValAccuracyKey = "metrics.val_accuracy"

	// LossKey records loss value during training or evaluation.
	LossKey = "metrics.loss"

	// ValLossKey records loss on the validation split.
	ValLossKey = "metrics.val_loss"

	// EpochKey records the current epoch number during training.
	EpochKey = "training.epoch"

	// EpochsKey records the number of epochs requested.
	EpochsKey = "training.epochs"
)

// Prediction and Output Context
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorDetailKey holds the structured fields of a typed error.
	ErrorDetailKey = "error.detail"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"
)

// Hyperparameters and Configuration
const (
	// HyperParamsKey contains model hyperparameters as a structured object.
	HyperParamsKey = "model.hyperparams"

	// OptimizerKey records the optimizer identifier.
	OptimizerKey = "hyperparams.optimizer"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// LayersKey records the number of layers in a graph.
	LayersKey = "model.layers"
)

// Standard attribute value constants for common operations.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationBuild        = "build"
	OperationEvaluate     = "evaluate"
	OperationSerialize    = "serialize"
	OperationDeserialize  = "deserialize"
	OperationSetWeights   = "set_weights"
	OperationPredictProba = "predict_proba"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseInference  = "inference"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorShapeMismatch     = "SHAPE_MISMATCH"
	ErrorFramework         = "FRAMEWORK_ERROR"
	ErrorDocument          = "DOCUMENT_INCOMPATIBLE"
	ErrorMissingValidation = "MISSING_VALIDATION_METRIC"
)
