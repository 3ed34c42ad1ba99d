// Package parallel splits row ranges across CPU cores.
package parallel

import (
	"runtime"
	"sync"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

// DefaultThreshold is the row count below which work runs on the calling
// goroutine. Forward passes over a handful of rows are cheaper than the
// goroutine fan-out.
const DefaultThreshold = 64

// chunks divides items into at most runtime.NumCPU() contiguous ranges.
func chunks(items int) [][2]int {
	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}
	if numWorkers < 1 {
		return nil
	}
	chunkSize := (items + numWorkers - 1) / numWorkers

	out := make([][2]int, 0, numWorkers)
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

// ParallelizeErr runs fn over [0, items) on the calling goroutine when items
// does not exceed threshold, and split into per-core ranges otherwise. The
// first error returned by any range is reported. A panic in a worker is
// recovered and returned as a *errors.PanicError.
func ParallelizeErr(items int, threshold int, operation string, fn func(start, end int) error) error {
	if items <= 0 {
		return nil
	}
	run := func(s, e int) (err error) {
		defer errors.Recover(&err, operation)
		return fn(s, e)
	}
	if items <= threshold {
		return run(0, items)
	}

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for _, c := range chunks(items) {
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			if err := run(s, e); err != nil {
				once.Do(func() { firstErr = err })
			}
		}(c[0], c[1])
	}
	wg.Wait()
	return firstErr
}
