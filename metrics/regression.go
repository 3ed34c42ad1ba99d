package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

// MSEMatrix は行列全体の平均二乗誤差を計算する。
// 出力が複数列（one-hot など）の場合は全要素の平均をとる（Keras の "mse" と同じ）。
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return 0, errors.NewValueError("MSEMatrix", "empty matrix")
	}
	if rTrue != rPred {
		return 0, errors.NewDimensionError("MSEMatrix", rTrue, rPred, 0)
	}
	if cTrue != cPred {
		return 0, errors.NewDimensionError("MSEMatrix", cTrue, cPred, 1)
	}

	var sum float64
	for i := 0; i < rTrue; i++ {
		for j := 0; j < cTrue; j++ {
			diff := yTrue.At(i, j) - yPred.At(i, j)
			sum += diff * diff
		}
	}
	return sum / float64(rTrue*cTrue), nil
}
