package nn

import (
	"math/rand"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

// maxPooling2D is a channels-last valid max pool. When an input axis is
// shorter than the window, the window is clipped to the input and a single
// output cell is produced on that axis.
type maxPooling2D struct {
	baseLayer
	ph, pw int
	sh, sw int

	h, w, c int
	ho, wo  int
}

func pooledDim(size, pool, stride int) int {
	if size < pool {
		return 1
	}
	return (size-pool)/stride + 1
}

func (l *maxPooling2D) build(in []int, _ *rand.Rand) error {
	if len(in) != 3 {
		return errors.Newf("nn: %s: MaxPooling2D expects (height, width, channels), got %v", l.cfg.Name, in)
	}
	l.h, l.w, l.c = in[0], in[1], in[2]
	l.ho = pooledDim(l.h, l.ph, l.sh)
	l.wo = pooledDim(l.w, l.pw, l.sw)
	l.inShape = cloneInts(in)
	l.outShape = []int{l.ho, l.wo, l.c}
	return nil
}

func (l *maxPooling2D) forward(x []float64, n int) ([]float64, interface{}) {
	y := make([]float64, n*l.ho*l.wo*l.c)
	argmax := make([]int, len(y))
	for s := 0; s < n; s++ {
		base := s * l.h * l.w * l.c
		obase := s * l.ho * l.wo * l.c
		for oi := 0; oi < l.ho; oi++ {
			r0 := oi * l.sh
			r1 := min(r0+l.ph, l.h)
			for oj := 0; oj < l.wo; oj++ {
				c0 := oj * l.sw
				c1 := min(c0+l.pw, l.w)
				for ch := 0; ch < l.c; ch++ {
					best := base + (r0*l.w+c0)*l.c + ch
					for i := r0; i < r1; i++ {
						for j := c0; j < c1; j++ {
							if idx := base + (i*l.w+j)*l.c + ch; x[idx] > x[best] {
								best = idx
							}
						}
					}
					o := obase + (oi*l.wo+oj)*l.c + ch
					y[o], argmax[o] = x[best], best
				}
			}
		}
	}
	return y, argmax
}

func (l *maxPooling2D) backward(cache interface{}, dy []float64, n int) ([]float64, []*Tensor) {
	argmax := cache.([]int)
	dx := make([]float64, n*l.h*l.w*l.c)
	for o, g := range dy {
		dx[argmax[o]] += g
	}
	return dx, nil
}
