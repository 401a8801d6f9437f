package marker

import (
	"context"
	"runtime"
)

// Worker pool sizing constants.
const (
	// MinWorkers ensures at least one export can run.
	MinWorkers = 1

	// MaxWorkers caps concurrent exports; each PDF export holds a browser
	// page and each pandoc export a child process.
	MaxWorkers = 8

	// cpuDivisor leaves headroom for Chrome and pandoc child processes.
	cpuDivisor = 2
)

// ResolveWorkers determines how many exports ExportAsync runs at once.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolveWorkers(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is container-aware once automaxprocs has run
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	if n < MinWorkers {
		return MinWorkers
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}

// workerPool bounds concurrent exports.
type workerPool struct {
	sem chan struct{}
}

func newWorkerPool(n int) *workerPool {
	if n < MinWorkers {
		n = MinWorkers
	}
	return &workerPool{sem: make(chan struct{}, n)}
}

// acquire blocks until a slot is free or ctx is done.
func (p *workerPool) acquire(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *workerPool) release() {
	<-p.sem
}

// Size returns the pool capacity.
func (p *workerPool) Size() int {
	return cap(p.sem)
}
