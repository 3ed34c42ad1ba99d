package datasets

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

// SyntheticDigits generates n side×side images in [0, 255] for classes
// labels. Class k lights a horizontal band whose position depends on k, with
// uniform noise on top. It is meant for demos and tests, not as a stand-in
// for real digits.
func SyntheticDigits(side, classes, n int, seed int64) (*Dataset, error) {
	if side <= 0 || classes <= 0 || n <= 0 {
		return nil, errors.NewValueError("datasets.SyntheticDigits", "side, classes and n must be positive")
	}
	if classes > side {
		return nil, errors.NewValidationError("classes", "cannot exceed the image side", classes)
	}

	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, side*side, nil)
	Y := mat.NewVecDense(n, nil)
	band := max(side/classes, 1)

	for i := 0; i < n; i++ {
		k := i % classes
		Y.SetVec(i, float64(k))
		start := k * band
		for r := 0; r < side; r++ {
			for c := 0; c < side; c++ {
				v := rng.Float64() * 40
				if r >= start && r < start+band {
					v += 200
				}
				X.Set(i, r*side+c, v)
			}
		}
	}
	return &Dataset{X: X, Y: Y}, nil
}
