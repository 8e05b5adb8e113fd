package vib

import (
	"runtime"
	"sync"
)

// NumChunks returns how many chunks ParallelFor splits [0, n) into.
func NumChunks(n, minChunk int) int {
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk {
		return 1
	}
	workers := 4 * runtime.GOMAXPROCS(0)
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// ParallelFor executes fn in parallel over contiguous chunks of [0, n).
// Chunk indices run from 0 to NumChunks(n, minChunk)-1, so callers can keep
// private per-chunk buffers and merge them in chunk order afterwards.
func ParallelFor(n, minChunk int, fn func(chunk, start, end int)) {
	if n <= 0 {
		return
	}
	workers := NumChunks(n, minChunk)
	if workers == 1 {
		fn(0, 0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)

		go func(c, s, e int) {
			defer wg.Done()
			if s < e {
				fn(c, s, e)
			}
		}(w, start, end)
	}

	wg.Wait()
}
