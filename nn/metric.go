package nn

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/digitnet/metrics"
	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

// metric scores a batch. key is the name used in History.
type metric struct {
	key string
	fn  func(yTrue, yPred mat.Matrix) (float64, error)
}

func getMetric(name string) (metric, error) {
	switch name {
	case "accuracy", "acc":
		return metric{key: "accuracy", fn: accuracy}, nil
	case "mse", "mean_squared_error":
		return metric{key: "mse", fn: metrics.MSEMatrix}, nil
	default:
		return metric{}, errors.Newf("nn: unknown metric %q", name)
	}
}

// accuracy picks categorical accuracy for multi-column outputs and binary
// accuracy for a single sigmoid-style column.
func accuracy(yTrue, yPred mat.Matrix) (float64, error) {
	if _, c := yTrue.Dims(); c == 1 {
		return metrics.BinaryAccuracy(yTrue, yPred, 0.5)
	}
	return metrics.CategoricalAccuracy(yTrue, yPred)
}
