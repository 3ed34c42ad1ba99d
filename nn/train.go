package nn

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/digitnet/core/parallel"
	"github.com/YuminosukeSato/digitnet/pkg/errors"
	"github.com/YuminosukeSato/digitnet/pkg/log"
)

// DefaultBatchSize is used when FitConfig.BatchSize is not positive.
const DefaultBatchSize = 32

// predictBatch bounds the rows pushed through one forward pass at inference.
const predictBatch = 256

// Dataset is an explicit validation set.
type Dataset struct {
	X, Y mat.Matrix
}

// FitConfig controls Model.Fit.
type FitConfig struct {
	BatchSize int
	Epochs    int // at least one epoch runs

	// ValidationSplit holds out the last fraction of rows, taken before
	// shuffling. Ignored when ValidationData is set.
	ValidationSplit float64
	ValidationData  *Dataset

	// Shuffle reorders the training rows at the start of every epoch.
	Shuffle   bool
	Callbacks []Callback

	// Verbose > 0 logs every epoch at info level.
	Verbose int
}

// Fit trains the compiled model with mini-batch gradient descent.
func (m *Model) Fit(X, Y mat.Matrix, cfg FitConfig) (h *History, err error) {
	defer errors.RecoverFramework(&err, "fit")

	if m.compiled == nil {
		return nil, errors.NewFrameworkErrorf("fit", "model must be compiled before fit")
	}
	in, out := m.inputSize(), m.outputSize()
	xs, ys, n, err := m.flatten("fit", X, Y)
	if err != nil {
		return nil, errors.NewFrameworkError("fit", err)
	}

	var (
		valX, valY []float64
		valN       int
	)
	switch {
	case cfg.ValidationData != nil:
		if valX, valY, valN, err = m.flatten("fit", cfg.ValidationData.X, cfg.ValidationData.Y); err != nil {
			return nil, errors.NewFrameworkError("fit", err)
		}
	case cfg.ValidationSplit < 0 || cfg.ValidationSplit >= 1:
		return nil, errors.NewFrameworkError("fit",
			errors.NewValidationError("validation_split", "must be in [0, 1)", cfg.ValidationSplit))
	case cfg.ValidationSplit > 0:
		split := int(math.Floor(float64(n) * (1 - cfg.ValidationSplit)))
		if split == 0 || split == n {
			return nil, errors.NewFrameworkErrorf("fit",
				"%d samples are not enough to split with validation_split=%g", n, cfg.ValidationSplit)
		}
		valX, valY, valN = xs[split*in:], ys[split*out:], n-split
		xs, ys, n = xs[:split*in], ys[:split*out], split
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	batchSize = min(batchSize, n)
	epochs := max(cfg.Epochs, 1)

	callbacks := cfg.Callbacks
	if cfg.Verbose > 0 {
		callbacks = append(append([]Callback{}, callbacks...), LogEpoch(m.logger))
	}

	m.logger.Debug("Fit started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.ValidationSamplesKey, valN,
		log.BatchSizeKey, batchSize,
		log.EpochsKey, epochs,
	)

	history := NewHistory()
	env := &CallbackEnv{Model: m, Epochs: epochs, TrainBegin: time.Now()}
	params := m.params()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	bx := make([]float64, batchSize*in)
	by := make([]float64, batchSize*out)

	for epoch := 0; epoch < epochs; epoch++ {
		env.EpochBegin = time.Now()
		if cfg.Shuffle {
			m.rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		}

		sums := make(map[string]float64)
		for start := 0; start < n; start += batchSize {
			k := min(batchSize, n-start)
			for r := 0; r < k; r++ {
				src := order[start+r]
				copy(bx[r*in:(r+1)*in], xs[src*in:(src+1)*in])
				copy(by[r*out:(r+1)*out], ys[src*out:(src+1)*out])
			}
			logs, err := m.trainStep(bx[:k*in], by[:k*out], k, params, epoch)
			if err != nil {
				return history, errors.NewFrameworkError("fit", err)
			}
			for key, v := range logs {
				sums[key] += v * float64(k)
			}
		}

		logs := make(map[string]float64, 2*len(sums))
		for key, v := range sums {
			logs[key] = v / float64(n)
		}
		if valN > 0 {
			valLogs, err := m.evaluate(valX, valY, valN)
			if err != nil {
				return history, errors.NewFrameworkError("fit", err)
			}
			for key, v := range valLogs {
				logs["val_"+key] = v
			}
		}
		history.append(epoch, logs)

		env.Epoch, env.Logs, env.EpochEnd = epoch, logs, time.Now()
		for _, cb := range callbacks {
			if err := cb(env); err != nil {
				return history, errors.NewFrameworkError("fit", errors.Wrapf(err, "callback at epoch %d", epoch))
			}
		}
		if env.StopTraining {
			m.logger.Debug("Training stopped by callback", log.EpochKey, epoch+1)
			break
		}
	}
	return history, nil
}

func (m *Model) trainStep(x, y []float64, n int, params []*Tensor, epoch int) (map[string]float64, error) {
	c := m.compiled
	out, caches := m.forward(x, n)
	loss, grad := c.loss.Compute(y, out, n, m.outputSize())
	if err := errors.CheckScalar("loss", loss, epoch); err != nil {
		return nil, err
	}
	logs, err := c.score(y, out, n, m.outputSize())
	if err != nil {
		return nil, err
	}
	logs["loss"] = loss

	c.optimizer.Update(params, m.backward(caches, grad, n))
	return logs, nil
}

func (c *compiled) score(y, out []float64, n, width int) (map[string]float64, error) {
	logs := make(map[string]float64, len(c.metrics)+1)
	if len(c.metrics) == 0 {
		return logs, nil
	}
	yTrue, yPred := mat.NewDense(n, width, y), mat.NewDense(n, width, out)
	for _, mt := range c.metrics {
		v, err := mt.fn(yTrue, yPred)
		if err != nil {
			return nil, err
		}
		logs[mt.key] = v
	}
	return logs, nil
}

func (m *Model) forward(x []float64, n int) ([]float64, []interface{}) {
	caches := make([]interface{}, len(m.layers))
	for i, l := range m.layers {
		x, caches[i] = l.forward(x, n)
	}
	return x, caches
}

func (m *Model) backward(caches []interface{}, grad []float64, n int) []*Tensor {
	perLayer := make([][]*Tensor, len(m.layers))
	for i := len(m.layers) - 1; i >= 0; i-- {
		grad, perLayer[i] = m.layers[i].backward(caches[i], grad, n)
	}
	var grads []*Tensor
	for _, g := range perLayer {
		grads = append(grads, g...)
	}
	return grads
}

func (m *Model) predictFlat(xs []float64, n int) ([]float64, error) {
	in, out := m.inputSize(), m.outputSize()
	result := make([]float64, n*out)
	err := parallel.ParallelizeErr(n, parallel.DefaultThreshold, "predict", func(start, end int) error {
		for b := start; b < end; b += predictBatch {
			e := min(b+predictBatch, end)
			y, _ := m.forward(xs[b*in:e*in], e-b)
			copy(result[b*out:e*out], y)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (m *Model) evaluate(xs, ys []float64, n int) (map[string]float64, error) {
	pred, err := m.predictFlat(xs, n)
	if err != nil {
		return nil, err
	}
	loss, _ := m.compiled.loss.Compute(ys, pred, n, m.outputSize())
	logs, err := m.compiled.score(ys, pred, n, m.outputSize())
	if err != nil {
		return nil, err
	}
	logs["loss"] = loss
	return logs, nil
}

// Predict returns one output row per input row. Rows are processed in
// parallel.
func (m *Model) Predict(X mat.Matrix) (p *mat.Dense, err error) {
	defer errors.RecoverFramework(&err, "predict")

	n, cols := X.Dims()
	if cols != m.inputSize() {
		return nil, errors.NewFrameworkError("predict", errors.NewDimensionError("predict", m.inputSize(), cols, 1))
	}
	if n == 0 {
		return nil, errors.NewFrameworkError("predict", errors.ErrEmptyData)
	}
	out, err := m.predictFlat(rowMajor(X), n)
	if err != nil {
		return nil, errors.NewFrameworkError("predict", err)
	}
	return mat.NewDense(n, m.outputSize(), out), nil
}

// Evaluate returns the loss and metrics of the compiled model on X, Y.
func (m *Model) Evaluate(X, Y mat.Matrix) (logs map[string]float64, err error) {
	defer errors.RecoverFramework(&err, "evaluate")

	if m.compiled == nil {
		return nil, errors.NewFrameworkErrorf("evaluate", "model must be compiled before evaluate")
	}
	xs, ys, n, err := m.flatten("evaluate", X, Y)
	if err != nil {
		return nil, errors.NewFrameworkError("evaluate", err)
	}
	logs, err = m.evaluate(xs, ys, n)
	if err != nil {
		return nil, errors.NewFrameworkError("evaluate", err)
	}
	return logs, nil
}

// flatten checks X and Y against the model and copies them row-major.
func (m *Model) flatten(op string, X, Y mat.Matrix) ([]float64, []float64, int, error) {
	n, cols := X.Dims()
	if cols != m.inputSize() {
		return nil, nil, 0, errors.NewDimensionError(op, m.inputSize(), cols, 1)
	}
	yn, ycols := Y.Dims()
	if yn != n {
		return nil, nil, 0, errors.NewDimensionError(op, n, yn, 0)
	}
	if ycols != m.outputSize() {
		return nil, nil, 0, errors.NewShapeMismatchError(op, "targets", []int{n, m.outputSize()}, []int{yn, ycols})
	}
	if n == 0 {
		return nil, nil, 0, errors.ErrEmptyData
	}
	return rowMajor(X), rowMajor(Y), n, nil
}

func rowMajor(a mat.Matrix) []float64 {
	r, c := a.Dims()
	out := make([]float64, r*c)
	for i := 0; i < r; i++ {
		mat.Row(out[i*c:(i+1)*c], i, a)
	}
	return out
}
