package metrics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

// Accuracy は整数ラベル同士の正解率を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}
	n := yTrue.Len()
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// CategoricalAccuracy は one-hot ラベルと確率行列の arg-max が一致する割合を計算する。
// 同点の場合は最初の列が選ばれる。
func CategoricalAccuracy(yTrue, yPred mat.Matrix) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()
	if rTrue == 0 || cTrue == 0 {
		return 0, errors.NewValueError("CategoricalAccuracy", "empty matrix")
	}
	if rTrue != rPred {
		return 0, errors.NewDimensionError("CategoricalAccuracy", rTrue, rPred, 0)
	}
	if cTrue != cPred {
		return 0, errors.NewDimensionError("CategoricalAccuracy", cTrue, cPred, 1)
	}

	trueRow := make([]float64, cTrue)
	predRow := make([]float64, cPred)
	correct := 0
	for i := 0; i < rTrue; i++ {
		mat.Row(trueRow, i, yTrue)
		mat.Row(predRow, i, yPred)
		if floats.MaxIdx(trueRow) == floats.MaxIdx(predRow) {
			correct++
		}
	}
	return float64(correct) / float64(rTrue), nil
}

// BinaryAccuracy は単一列の確率を threshold で 0/1 に丸めた正解率を計算する
func BinaryAccuracy(yTrue, yPred mat.Matrix, threshold float64) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()
	if rTrue == 0 || cTrue == 0 {
		return 0, errors.NewValueError("BinaryAccuracy", "empty matrix")
	}
	if rTrue != rPred || cTrue != cPred {
		return 0, errors.NewDimensionError("BinaryAccuracy", rTrue*cTrue, rPred*cPred, 0)
	}

	correct := 0
	for i := 0; i < rTrue; i++ {
		for j := 0; j < cTrue; j++ {
			pred := 0.0
			if yPred.At(i, j) > threshold {
				pred = 1
			}
			if pred == yTrue.At(i, j) {
				correct++
			}
		}
	}
	return float64(correct) / float64(rTrue*cTrue), nil
}

// ConfusionMatrix は nClasses×nClasses の混同行列を返す。
// 行が正解ラベル、列が予測ラベル。範囲外のラベルはエラー。
func ConfusionMatrix(yTrue, yPred *mat.VecDense, nClasses int) (*mat.Dense, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return nil, errors.NewValueError("ConfusionMatrix", "empty vector")
	}
	if nClasses <= 0 {
		return nil, errors.NewValidationError("n_classes", "must be positive", nClasses)
	}
	n := yTrue.Len()
	if yPred.Len() != n {
		return nil, errors.NewDimensionError("ConfusionMatrix", n, yPred.Len(), 0)
	}

	cm := mat.NewDense(nClasses, nClasses, nil)
	for i := 0; i < n; i++ {
		t, p := int(yTrue.AtVec(i)), int(yPred.AtVec(i))
		if t < 0 || t >= nClasses || float64(t) != yTrue.AtVec(i) {
			return nil, errors.NewValidationError("y_true", "label outside [0, n_classes)", yTrue.AtVec(i))
		}
		if p < 0 || p >= nClasses || float64(p) != yPred.AtVec(i) {
			return nil, errors.NewValidationError("y_pred", "label outside [0, n_classes)", yPred.AtVec(i))
		}
		cm.Set(t, p, cm.At(t, p)+1)
	}
	return cm, nil
}
