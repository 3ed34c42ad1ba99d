package nn

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

// conv2D is a channels-last valid convolution. Patches are unfolded with
// im2col so the kernel, stored as (kh, kw, in, filters), is used directly
// as a (kh*kw*in, filters) matrix.
type conv2D struct {
	baseLayer
	filters    int
	kh, kw     int
	sh, sw     int
	act        Activation
	kernelInit initializer
	biasInit   initializer

	h, w, c int
	ho, wo  int

	kernel *Tensor
	bias   *Tensor
}

type convCache struct {
	cols, y []float64
}

func (l *conv2D) build(in []int, rng *rand.Rand) error {
	if len(in) != 3 {
		return errors.Newf("nn: %s: Conv2D expects (height, width, channels), got %v", l.cfg.Name, in)
	}
	l.h, l.w, l.c = in[0], in[1], in[2]
	if l.h < l.kh || l.w < l.kw {
		return errors.Newf("nn: %s: input %dx%d is smaller than kernel %dx%d", l.cfg.Name, l.h, l.w, l.kh, l.kw)
	}
	l.ho = (l.h-l.kh)/l.sh + 1
	l.wo = (l.w-l.kw)/l.sw + 1
	l.inShape = cloneInts(in)
	l.outShape = []int{l.ho, l.wo, l.filters}

	l.kernel = NewTensor(l.kh, l.kw, l.c, l.filters)
	l.bias = NewTensor(l.filters)
	receptive := l.kh * l.kw
	l.kernelInit(l.kernel, receptive*l.c, receptive*l.filters, rng)
	l.biasInit(l.bias, receptive*l.c, receptive*l.filters, rng)
	return nil
}

func (l *conv2D) params() []*Tensor { return []*Tensor{l.kernel, l.bias} }

func (l *conv2D) patchSize() int { return l.kh * l.kw * l.c }

func (l *conv2D) im2col(x []float64, n int) []float64 {
	k := l.patchSize()
	cols := make([]float64, n*l.ho*l.wo*k)
	row := 0
	for s := 0; s < n; s++ {
		base := s * l.h * l.w * l.c
		for oi := 0; oi < l.ho; oi++ {
			for oj := 0; oj < l.wo; oj++ {
				dst := cols[row*k : (row+1)*k]
				p := 0
				for ki := 0; ki < l.kh; ki++ {
					i := oi*l.sh + ki
					for kj := 0; kj < l.kw; kj++ {
						src := base + (i*l.w+oj*l.sw+kj)*l.c
						copy(dst[p:p+l.c], x[src:src+l.c])
						p += l.c
					}
				}
				row++
			}
		}
	}
	return cols
}

func (l *conv2D) col2im(cols []float64, n int) []float64 {
	k := l.patchSize()
	dx := make([]float64, n*l.h*l.w*l.c)
	row := 0
	for s := 0; s < n; s++ {
		base := s * l.h * l.w * l.c
		for oi := 0; oi < l.ho; oi++ {
			for oj := 0; oj < l.wo; oj++ {
				src := cols[row*k : (row+1)*k]
				p := 0
				for ki := 0; ki < l.kh; ki++ {
					i := oi*l.sh + ki
					for kj := 0; kj < l.kw; kj++ {
						dst := base + (i*l.w+oj*l.sw+kj)*l.c
						floats.Add(dx[dst:dst+l.c], src[p:p+l.c])
						p += l.c
					}
				}
				row++
			}
		}
	}
	return dx
}

func (l *conv2D) forward(x []float64, n int) ([]float64, interface{}) {
	rows, k := n*l.ho*l.wo, l.patchSize()
	cols := l.im2col(x, n)

	out := mat.NewDense(rows, l.filters, nil)
	out.Mul(mat.NewDense(rows, k, cols), mat.NewDense(k, l.filters, l.kernel.Data))

	y := out.RawMatrix().Data
	for r := 0; r < rows; r++ {
		floats.Add(y[r*l.filters:(r+1)*l.filters], l.bias.Data)
	}
	l.act.Forward(y, l.filters)
	return y, convCache{cols: cols, y: y}
}

func (l *conv2D) backward(cache interface{}, dy []float64, n int) ([]float64, []*Tensor) {
	c := cache.(convCache)
	rows, k := n*l.ho*l.wo, l.patchSize()
	l.act.Backward(c.y, dy, l.filters)
	dZ := mat.NewDense(rows, l.filters, dy)

	dW := NewTensor(l.kh, l.kw, l.c, l.filters)
	mat.NewDense(k, l.filters, dW.Data).Mul(mat.NewDense(rows, k, c.cols).T(), dZ)

	db := NewTensor(l.filters)
	for r := 0; r < rows; r++ {
		floats.Add(db.Data, dy[r*l.filters:(r+1)*l.filters])
	}

	dcols := make([]float64, rows*k)
	mat.NewDense(rows, k, dcols).Mul(dZ, mat.NewDense(k, l.filters, l.kernel.Data).T())
	return l.col2im(dcols, n), []*Tensor{dW, db}
}
