package nn

import (
	"math"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

// epsilon matches the Keras backend fuzz factor.
const epsilon = 1e-7

// Loss computes the mean loss of a batch and its gradient with respect to
// the predictions, already divided by the batch size.
type Loss interface {
	Name() string
	Compute(yTrue, yPred []float64, n, width int) (loss float64, grad []float64)
}

// GetLoss resolves a loss by its Keras identifier.
func GetLoss(name string) (Loss, error) {
	switch name {
	case "categorical_crossentropy":
		return categoricalCrossentropy{}, nil
	case "mean_squared_error", "mse":
		return meanSquaredError{}, nil
	default:
		return nil, errors.Newf("nn: unknown loss %q", name)
	}
}

type categoricalCrossentropy struct{}

func (categoricalCrossentropy) Name() string { return "categorical_crossentropy" }

func (categoricalCrossentropy) Compute(yTrue, yPred []float64, n, _ int) (float64, []float64) {
	grad := make([]float64, len(yPred))
	var total float64
	for i, t := range yTrue {
		if t == 0 {
			continue
		}
		p := math.Min(math.Max(yPred[i], epsilon), 1-epsilon)
		total -= t * math.Log(p)
		grad[i] = -t / p / float64(n)
	}
	return total / float64(n), grad
}

type meanSquaredError struct{}

func (meanSquaredError) Name() string { return "mean_squared_error" }

func (meanSquaredError) Compute(yTrue, yPred []float64, n, width int) (float64, []float64) {
	grad := make([]float64, len(yPred))
	scale := float64(n * width)
	var total float64
	for i, t := range yTrue {
		d := yPred[i] - t
		total += d * d
		grad[i] = 2 * d / scale
	}
	return total / scale, grad
}
