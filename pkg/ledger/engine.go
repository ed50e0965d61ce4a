package ledger

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"marate/models"
)

// DefaultRenderTimeout bounds how long an issuance waits on the document
// renderer before degrading to fallback text.
const DefaultRenderTimeout = 5 * time.Second

// Renderer converts a stored receipt into a durable document. It is stateless:
// identical receipt fields must produce identical bytes.
type Renderer interface {
	Render(ctx context.Context, r *models.Receipt) ([]byte, error)
}

// Engine implements the ledger operations: receipt issuance, expense
// recording, aggregation, and the admin-only mutation paths. All operations
// take an explicit Principal and return typed errors.
type Engine struct {
	store         Store
	renderer      Renderer
	log           *slog.Logger
	renderTimeout time.Duration

	seq atomic.Uint64 // per-process disambiguator for receipt numbers
}

// New builds an Engine over the given store and renderer. A nil logger falls
// back to slog.Default().
func New(store Store, renderer Renderer, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		store:         store,
		renderer:      renderer,
		log:           log,
		renderTimeout: DefaultRenderTimeout,
	}
}

// SetRenderTimeout overrides the renderer latency bound.
func (e *Engine) SetRenderTimeout(d time.Duration) {
	if d > 0 {
		e.renderTimeout = d
	}
}

// Healthy reports whether the backing store is reachable.
func (e *Engine) Healthy(ctx context.Context) bool {
	return e.store.Ping(ctx) == nil
}

// renderDocument calls the renderer with the configured latency bound and
// wraps any failure, including timeout, as RendererUnavailableError.
func (e *Engine) renderDocument(ctx context.Context, r *models.Receipt) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, e.renderTimeout)
	defer cancel()

	type result struct {
		doc []byte
		err error
	}
	ch := make(chan result, 1)
	go func() {
		doc, err := e.renderer.Render(ctx, r)
		ch <- result{doc, err}
	}()

	select {
	case <-ctx.Done():
		return nil, &RendererUnavailableError{Err: ctx.Err()}
	case res := <-ch:
		if res.err != nil {
			return nil, &RendererUnavailableError{Err: res.err}
		}
		return res.doc, nil
	}
}
