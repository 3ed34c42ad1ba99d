package nn

import (
	"math"
	"math/rand"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

// initializer fills t given the fan-in and fan-out of the owning layer.
type initializer func(t *Tensor, fanIn, fanOut int, rng *rand.Rand)

func getInitializer(name string) (initializer, error) {
	switch name {
	case "glorot_uniform", "":
		return glorotUniform, nil
	case "he_uniform":
		return heUniform, nil
	case "zeros":
		return constant(0), nil
	case "ones":
		return constant(1), nil
	default:
		return nil, errors.Newf("nn: unknown initializer %q", name)
	}
}

func glorotUniform(t *Tensor, fanIn, fanOut int, rng *rand.Rand) {
	uniform(t, math.Sqrt(6/float64(fanIn+fanOut)), rng)
}

func heUniform(t *Tensor, fanIn, _ int, rng *rand.Rand) {
	uniform(t, math.Sqrt(6/float64(fanIn)), rng)
}

func uniform(t *Tensor, limit float64, rng *rand.Rand) {
	for i := range t.Data {
		t.Data[i] = (rng.Float64()*2 - 1) * limit
	}
}

func constant(v float64) initializer {
	return func(t *Tensor, _, _ int, _ *rand.Rand) {
		for i := range t.Data {
			t.Data[i] = v
		}
	}
}
