package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

// ToCategorical はクラスラベルをone-hot行列に変換する
//
// y は長さ n のベクトル、または n×1 の行列で、各要素は [0, numClasses) の
// 整数でなければならない。戻り値は n×numClasses の行列。
//
// 使用例:
//
//	Y, err := preprocessing.ToCategorical(mat.NewVecDense(3, []float64{0, 2, 1}), 3)
//	// [[1 0 0] [0 0 1] [0 1 0]]
func ToCategorical(y mat.Matrix, numClasses int) (*mat.Dense, error) {
	if numClasses <= 0 {
		return nil, errors.NewValidationError("num_classes", "must be positive", numClasses)
	}
	n, c := y.Dims()
	if c != 1 {
		return nil, errors.NewDimensionError("ToCategorical", 1, c, 1)
	}
	if n == 0 {
		return nil, errors.ErrEmptyData
	}

	out := mat.NewDense(n, numClasses, nil)
	for i := 0; i < n; i++ {
		v := y.At(i, 0)
		if v != math.Trunc(v) || v < 0 || v >= float64(numClasses) {
			return nil, errors.NewValueError("ToCategorical",
				fmt.Sprintf("label %v at row %d is not an integer in [0, %d)", v, i, numClasses))
		}
		out.Set(i, int(v), 1)
	}
	return out, nil
}

// IsOneHot は全ての行がちょうど1つの1と残りの0で構成されているかを返す
func IsOneHot(Y mat.Matrix) bool {
	r, c := Y.Dims()
	for i := 0; i < r; i++ {
		ones := 0
		for j := 0; j < c; j++ {
			switch Y.At(i, j) {
			case 1:
				ones++
			case 0:
			default:
				return false
			}
		}
		if ones != 1 {
			return false
		}
	}
	return true
}

// ArgMaxRows は各行の最大値の列インデックスを返す。同値の場合は最初の列。
func ArgMaxRows(P mat.Matrix) []int {
	r, c := P.Dims()
	idx := make([]int, r)
	if c == 0 {
		return idx
	}
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, P)
		idx[i] = floats.MaxIdx(row)
	}
	return idx
}
