package marker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bertob/marker/internal/assets"
	"github.com/bertob/marker/internal/pipeline"
)

// Converter renders markdown and exports the result.
// Create with NewConverter, and Close when done.
type Converter struct {
	cfg        converterConfig
	logger     zerolog.Logger
	parser     *pipeline.Parser
	renderer   *pipeline.Renderer
	styles     assets.StyleLoader
	dispatcher *Dispatcher
	pool       *workerPool
	closers    []io.Closer

	// mu guards closed so inflight.Add never races with Close's Wait.
	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// NewConverter creates a Converter with default configuration.
// Returns error if the asset directory is invalid.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg:      converterConfig{timeout: defaultTimeout},
		logger:   zerolog.Nop(),
		parser:   pipeline.NewParser(),
		renderer: pipeline.NewRenderer(),
	}

	for _, opt := range opts {
		opt(c)
	}

	resolver, err := assets.NewAssetResolver(c.cfg.assetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}
	c.styles = resolver

	backends := c.defaultBackends()
	for f, b := range c.cfg.backends {
		if b == nil {
			delete(backends, f)
			continue
		}
		backends[f] = b
	}
	c.dispatcher = NewDispatcher(backends, c.logger)
	c.pool = newWorkerPool(ResolveWorkers(c.cfg.workers))

	return c, nil
}

// defaultBackends builds one backend per format. The browser behind the PDF
// backend is only created when PDF is not overridden.
func (c *Converter) defaultBackends() map[Format]Backend {
	backends := map[Format]Backend{FormatHTML: htmlBackend{}}

	if _, overridden := c.cfg.backends[FormatPDF]; !overridden {
		pdf := newPDFBackend(c.cfg.timeout)
		backends[FormatPDF] = pdf
		c.closers = append(c.closers, pdf)
	}

	for f := range pandocWriters {
		backends[f] = newPandocBackend(c.cfg.pandocPath, f)
	}
	return backends
}

// Parse builds the document tree without rendering it.
func (c *Converter) Parse(doc Document) *ParsedDocument {
	return c.parser.Parse(doc.source())
}

// Render converts doc into a complete HTML document. The stylesheet is read
// once, before parsing. An empty baseURI becomes DefaultBaseURI.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Render(doc Document, cfg RenderConfig, baseURI string) (rendered *RenderedDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	style, err := pipeline.ResolveStyle(cfg.StylesheetPath, cfg.InlineStyle, c.styles, c.cfg.assetBase)
	if err != nil {
		return nil, err
	}

	parsed := c.parser.Parse(doc.source())
	ext := pipeline.ResolveExtensions(cfg.featureModes(), c.cfg.assetBase)

	html, err := c.renderer.Render(parsed, ext, style)
	if err != nil {
		return nil, err
	}

	if baseURI == "" {
		baseURI = DefaultBaseURI
	}
	return &RenderedDocument{HTML: html, BaseURI: baseURI}, nil
}

// ExportRequest describes one render-and-export.
type ExportRequest struct {
	Document   Document
	Config     RenderConfig
	BaseURI    string
	Format     Format
	OutputPath string

	// OnState, if set, is called on every state transition.
	OnState func(JobState)
}

// ExportResult describes a finished export.
type ExportResult struct {
	Job      ExportJob
	Duration time.Duration
}

// Export renders req.Document and writes it to req.OutputPath.
// Unsupported formats are rejected before rendering. Blocks until the
// backend finishes, the converter timeout expires or ctx is done.
func (c *Converter) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	state := &jobState{onChange: req.OnState}
	return c.export(ctx, req, state)
}

func (c *Converter) export(ctx context.Context, req ExportRequest, state *jobState) (result *ExportResult, err error) {
	start := time.Now()
	log := c.logger.With().
		Stringer("format", req.Format).
		Str("path", req.OutputPath).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
		if err != nil {
			state.advance(JobFailed)
			log.Debug().Err(err).Msg("export failed")
			return
		}
		state.advance(JobSucceeded)
		log.Debug().Dur("elapsed", time.Since(start)).Msg("export succeeded")
	}()

	if !c.dispatcher.Supports(req.Format) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.Format)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	state.advance(JobRendering)
	rendered, err := c.Render(req.Document, req.Config, req.BaseURI)
	if err != nil {
		return nil, err
	}

	job := ExportJob{Format: req.Format, OutputPath: req.OutputPath, Document: *rendered}
	if err := c.dispatcher.export(ctx, job, state); err != nil {
		return nil, err
	}

	return &ExportResult{Job: job, Duration: time.Since(start)}, nil
}

// ExportTask is the handle of an asynchronous export.
type ExportTask struct {
	state  *jobState
	done   chan struct{}
	cancel context.CancelFunc
	result *ExportResult
	err    error
}

// Wait blocks until the export finishes.
func (t *ExportTask) Wait() (*ExportResult, error) {
	<-t.done
	return t.result, t.err
}

// Done is closed when the export finishes.
func (t *ExportTask) Done() <-chan struct{} {
	return t.done
}

// Cancel requests cancellation. Backends that cannot be interrupted finish
// the current job; a job that has not started yet never starts.
func (t *ExportTask) Cancel() {
	t.cancel()
}

// State returns the current job state.
func (t *ExportTask) State() JobState {
	return t.state.load()
}

// ExportAsync runs Export on the worker pool. onDone, if set, is called
// exactly once from the worker goroutine before Done is closed. After Close
// the task fails with ErrClosed without running.
func (c *Converter) ExportAsync(ctx context.Context, req ExportRequest, onDone func(*ExportResult, error)) *ExportTask {
	ctx, cancel := context.WithCancel(ctx)
	task := &ExportTask{
		state:  &jobState{onChange: req.OnState},
		done:   make(chan struct{}),
		cancel: cancel,
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		task.state.advance(JobFailed)
		task.err = ErrClosed
		if onDone != nil {
			onDone(nil, task.err)
		}
		close(task.done)
		return task
	}
	c.inflight.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.inflight.Done()
		defer close(task.done)
		defer cancel()

		if err := c.pool.acquire(ctx); err != nil {
			task.state.advance(JobFailed)
			task.err = err
		} else {
			task.result, task.err = c.export(ctx, req, task.state)
			c.pool.release()
		}

		if onDone != nil {
			onDone(task.result, task.err)
		}
	}()

	return task
}

// Close waits for in-flight exports and releases the browser. Later
// ExportAsync calls fail with ErrClosed.
func (c *Converter) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.inflight.Wait()

	var errs []error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
