package marker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/bertob/marker/internal/fileutil"
	"github.com/bertob/marker/internal/pipeline"
)

// Backend converts a complete HTML document into a file at outputPath.
// outputPath is a staging file owned by the dispatcher; backends write it
// and nothing else.
type Backend interface {
	Convert(ctx context.Context, html, outputPath string) error
}

// CancelableBackend is implemented by backends that abort promptly when
// their context is canceled. Other backends run to completion once started.
type CancelableBackend interface {
	Backend
	Cancelable() bool
}

// Dispatcher routes export jobs to the backend registered for their format.
// Safe for concurrent use; jobs writing the same file run one at a time.
type Dispatcher struct {
	backends map[Format]Backend
	locks    *pathLocks
	logger   zerolog.Logger
}

// NewDispatcher creates a Dispatcher over a copy of backends.
func NewDispatcher(backends map[Format]Backend, logger zerolog.Logger) *Dispatcher {
	m := make(map[Format]Backend, len(backends))
	for f, b := range backends {
		if b != nil {
			m[f] = b
		}
	}
	return &Dispatcher{backends: m, locks: newPathLocks(), logger: logger}
}

// Supports reports whether a backend is registered for f.
func (d *Dispatcher) Supports(f Format) bool {
	_, ok := d.backends[f]
	return ok
}

// Export runs one job. Unsupported formats fail before anything is touched.
// On failure no file is left at job.OutputPath that was not there before.
func (d *Dispatcher) Export(ctx context.Context, job ExportJob) error {
	return d.export(ctx, job, nil)
}

func (d *Dispatcher) export(ctx context.Context, job ExportJob, state *jobState) error {
	backend, ok := d.backends[job.Format]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, job.Format)
	}
	if job.OutputPath == "" {
		return fmt.Errorf("%w: %v", ErrIO, fileutil.ErrEmptyPath)
	}
	target, err := filepath.Abs(job.OutputPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	unlock, err := d.locks.lock(ctx, target)
	if err != nil {
		return err
	}
	defer unlock()

	// Cancellation is honored up to here for every backend.
	if err := ctx.Err(); err != nil {
		return err
	}
	state.advance(JobDispatching)

	html := job.Document.HTML
	if job.Format != FormatHTML && job.Document.BaseURI != "" && job.Document.BaseURI != DefaultBaseURI {
		html = pipeline.InjectBase(html, job.Document.BaseURI)
	}

	staging, err := fileutil.NewStagingFile(target)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer staging.Discard()

	runCtx := ctx
	if cb, ok := backend.(CancelableBackend); !ok || !cb.Cancelable() {
		runCtx = context.WithoutCancel(ctx)
	}

	start := time.Now()
	if err := backend.Convert(runCtx, html, staging.Path); err != nil {
		if ctxErr := runCtx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return err
		}
		d.logger.Warn().Err(err).
			Stringer("format", job.Format).
			Str("path", target).
			Msg("backend failed")
		return &ExportError{Format: job.Format, Path: target, Diagnostic: err.Error(), Err: err}
	}

	if err := staging.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	d.logger.Debug().
		Stringer("format", job.Format).
		Str("path", target).
		Dur("elapsed", time.Since(start)).
		Msg("export written")
	return nil
}

// pathLocks serializes work per key. Entries are dropped when unused.
type pathLocks struct {
	mu sync.Mutex
	m  map[string]*pathLock
}

type pathLock struct {
	ch   chan struct{}
	refs int
}

func newPathLocks() *pathLocks {
	return &pathLocks{m: make(map[string]*pathLock)}
}

// lock blocks until key is free or ctx is done.
func (l *pathLocks) lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	pl, ok := l.m[key]
	if !ok {
		pl = &pathLock{ch: make(chan struct{}, 1)}
		l.m[key] = pl
	}
	pl.refs++
	l.mu.Unlock()

	select {
	case pl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, pl)
		return nil, ctx.Err()
	}

	return func() {
		<-pl.ch
		l.release(key, pl)
	}, nil
}

func (l *pathLocks) release(key string, pl *pathLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pl.refs--
	if pl.refs == 0 {
		delete(l.m, key)
	}
}

// jobState is the observable state of one export. A nil *jobState ignores
// every transition.
type jobState struct {
	v        atomic.Uint32
	onChange func(JobState)
}

// advance moves to next if that is a forward step from a non-terminal state.
func (s *jobState) advance(next JobState) bool {
	if s == nil {
		return false
	}
	for {
		cur := JobState(s.v.Load())
		if cur.Terminal() || next <= cur {
			return false
		}
		if s.v.CompareAndSwap(uint32(cur), uint32(next)) {
			if s.onChange != nil {
				s.onChange(next)
			}
			return true
		}
	}
}

func (s *jobState) load() JobState {
	if s == nil {
		return JobPending
	}
	return JobState(s.v.Load())
}
