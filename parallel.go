package dest

import (
	"math"
	"runtime"
	"sync"
)

// parallelFor runs fn over the index range [0, n) split into
// contiguous chunks across the given number of workers.  Work items
// keep their fixed indices, so deterministic per-item computation
// stays deterministic regardless of scheduling
func parallelFor(n, workers int, fn func(start, end int)) {

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	if workers > n {
		workers = n
	}

	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk

		if end > n {
			end = n
		}

		if start >= end {
			break
		}

		wg.Add(1)

		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}

	wg.Wait()
}

func sqrt64(x float64) float64 {
	return math.Sqrt(x)
}
