package cnn

import (
	"strconv"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/digitnet/config"
	"github.com/YuminosukeSato/digitnet/core/model"
	"github.com/YuminosukeSato/digitnet/metrics"
	"github.com/YuminosukeSato/digitnet/nn"
	"github.com/YuminosukeSato/digitnet/pkg/errors"
	"github.com/YuminosukeSato/digitnet/pkg/log"
	"github.com/YuminosukeSato/digitnet/preprocessing"
)

const (
	modelName = "MNISTClassifier"
	graphName = "mnist_classifier"
)

// Layer names of the built graph, in order.
const (
	LayerInput   = "input_layer"
	LayerReshape = "reshape"
	LayerConv    = "conv2d"
	LayerPool    = "max_pooling2d"
	LayerFlatten = "flatten"
	LayerDense1  = "dense"
	LayerDense2  = "dense_1"
	LayerOutput  = "output_layer"
)

// MNISTClassifier wraps an nn.Model with a fixed convolutional topology
// sized by a config.Config.
//
// The zero value is not usable; create instances with NewMNISTClassifier
// or FromDocument. An MNISTClassifier must not be used concurrently.
type MNISTClassifier struct {
	cfg    config.Config
	params Params

	state   *model.StateManager
	model   *nn.Model
	history *nn.History

	id         uuid.UUID
	baseLogger log.Logger
	logger     log.Logger
}

var (
	_ model.Classifier        = (*MNISTClassifier)(nil)
	_ model.ParameterGetter   = (*MNISTClassifier)(nil)
	_ model.ParameterSetter   = (*MNISTClassifier)(nil)
	_ model.Persistable       = (*MNISTClassifier)(nil)
	_ model.StreamPersistable = (*MNISTClassifier)(nil)
)

// NewMNISTClassifier creates an untrained classifier. Hyperparameters are
// stored as given and only checked when a graph is built.
func NewMNISTClassifier(cfg config.Config, opts ...Option) *MNISTClassifier {
	c := &MNISTClassifier{
		cfg:    cfg,
		params: DefaultParams(),
		state:  model.NewStateManager(),
		id:     uuid.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseLogger == nil {
		c.baseLogger = log.GetLogger()
	}
	c.logger = c.baseLogger.With(
		log.ModelNameKey, modelName,
		log.EstimatorIDKey, c.id.String(),
		log.ComponentKey, "cnn",
	)
	return c
}

// ID returns the instance identifier attached to every log record.
func (c *MNISTClassifier) ID() uuid.UUID { return c.id }

// Config returns the process configuration the classifier was created with.
func (c *MNISTClassifier) Config() config.Config { return c.cfg }

// Params returns a copy of the hyperparameters.
func (c *MNISTClassifier) Params() Params { return c.params.Clone() }

// IsFitted reports whether a trained or restored graph is attached.
func (c *MNISTClassifier) IsFitted() bool { return c.state.IsFitted() }

// Model returns the attached graph, or nil.
func (c *MNISTClassifier) Model() *nn.Model { return c.model }

// History returns a copy of the most recent training history, or nil.
func (c *MNISTClassifier) History() *nn.History { return c.history.Clone() }

// Summary renders the attached graph's layer table.
func (c *MNISTClassifier) Summary() (string, error) {
	if err := c.state.RequireBuilt(modelName, "Summary"); err != nil {
		return "", err
	}
	return c.model.Summary(), nil
}

// GraphConfig returns the graph config the current hyperparameters and
// process configuration describe.
func (c *MNISTClassifier) GraphConfig() nn.ModelConfig {
	side := c.cfg.ImageSide()
	p := c.params
	return nn.Chain(graphName,
		nn.Input(LayerInput, c.cfg.FeatureLength),
		nn.Reshape(LayerReshape, side, side, 1),
		nn.Conv2D(LayerConv, p.ConvFilters, p.ConvKernelSize, p.ConvActivation),
		nn.MaxPooling2D(LayerPool, p.PoolSize),
		nn.Flatten(LayerFlatten),
		nn.Dense(LayerDense1, p.DenseOneUnits, p.DenseOneActivation),
		nn.Dense(LayerDense2, p.DenseTwoUnits, p.DenseTwoActivation),
		nn.Dense(LayerOutput, c.cfg.NumberOfClasses, "softmax"),
	)
}

// BuildUntrainedGraph builds a fresh, uncompiled graph from the current
// hyperparameters. The classifier's own state is not touched.
func (c *MNISTClassifier) BuildUntrainedGraph() (*nn.Model, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	m, err := nn.Build(c.GraphConfig(), nn.WithSeed(c.params.RandomState), nn.WithLogger(c.logger))
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Graph built",
		log.OperationKey, log.OperationBuild,
		log.LayersKey, len(m.Config().Layers),
		log.RandomSeedKey, c.params.RandomState,
	)
	return m, nil
}

// Initialize attaches a fresh untrained graph, discarding any previous
// graph and history. The graph is compiled so it can be fitted directly.
func (c *MNISTClassifier) Initialize() error {
	m, err := c.BuildUntrainedGraph()
	if err != nil {
		return err
	}
	if err := m.Compile(c.params.Optimizer, c.params.Loss, c.params.Metrics); err != nil {
		return err
	}
	c.model, c.history = m, nil
	c.state.SetBuilt()
	return nil
}

// EncodeLabels returns y as a one-hot matrix with one column per class.
// A mat.Vector holds integer class labels. Any other matrix whose width
// equals the class count is used as given, and a DataConversionWarning is
// raised when its rows are not one-hot. A single-column matrix of another
// width is read as integer class labels.
func (c *MNISTClassifier) EncodeLabels(y mat.Matrix) (*mat.Dense, error) {
	n, cols := y.Dims()
	classes := c.cfg.NumberOfClasses
	if _, ok := y.(mat.Vector); ok {
		return preprocessing.ToCategorical(y, classes)
	}
	switch {
	case cols == classes:
		if !preprocessing.IsOneHot(y) {
			errors.Warn(errors.NewDataConversionWarning("soft targets", "one-hot",
				"label rows are not one-hot and are used as soft targets"))
		}
		return mat.DenseCopyOf(y), nil
	case cols == 1:
		return preprocessing.ToCategorical(y, classes)
	default:
		return nil, errors.NewShapeMismatchError(modelName+".EncodeLabels", "labels",
			[]int{n, classes}, []int{n, cols})
	}
}

// PredictProba returns the softmax class scores, one row per sample. Scores
// that are NaN or infinite are reported as a NumericalInstabilityError.
func (c *MNISTClassifier) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	return c.predictProba(X, "PredictProba")
}

func (c *MNISTClassifier) predictProba(X mat.Matrix, method string) (*mat.Dense, error) {
	if err := c.state.RequireBuilt(modelName, method); err != nil {
		return nil, err
	}
	n, cols := X.Dims()
	if cols != c.cfg.FeatureLength {
		return nil, errors.NewDimensionError(modelName+"."+method, c.cfg.FeatureLength, cols, 1)
	}
	P, err := c.model.Predict(X)
	if err != nil {
		return nil, err
	}
	if err := errors.CheckNumericalStability(modelName+"."+method, P.RawMatrix().Data, 0); err != nil {
		return nil, err
	}
	c.logger.Debug("Prediction finished",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.PredsKey, n,
	)
	return P, nil
}

// Predict returns the arg-max class index of every row as a decimal
// string, in input order.
func (c *MNISTClassifier) Predict(X mat.Matrix) ([]string, error) {
	P, err := c.predictProba(X, "Predict")
	if err != nil {
		return nil, err
	}
	idx := preprocessing.ArgMaxRows(P)
	labels := make([]string, len(idx))
	for i, k := range idx {
		labels[i] = strconv.Itoa(k)
	}
	return labels, nil
}

// Score returns the mean accuracy of the predictions on X against y, given
// as integer labels or one-hot rows.
func (c *MNISTClassifier) Score(X, y mat.Matrix) (float64, error) {
	P, err := c.predictProba(X, "Score")
	if err != nil {
		return 0, err
	}
	Y, err := c.EncodeLabels(y)
	if err != nil {
		return 0, err
	}
	return metrics.CategoricalAccuracy(Y, P)
}
