// Package fanout expands every text block of a document into an explanation
// concurrently, isolating the failure of any single block.
package fanout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/slide-explainer/internal/domain"
	"github.com/phrazzld/slide-explainer/internal/platform/logger"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

// BlockExplainer explains one block of text within the context of a topic.
// generation.Explainer satisfies it.
type BlockExplainer interface {
	ExplainBlock(ctx context.Context, blockText, topic string) (string, error)
}

// Engine runs one explanation task per block.
type Engine struct {
	explainer      BlockExplainer
	maxConcurrency int
	logger         *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxConcurrency caps the number of blocks explained at once.
// Zero or less starts one goroutine per block.
func WithMaxConcurrency(n int) Option {
	return func(e *Engine) {
		e.maxConcurrency = n
	}
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an Engine. It panics if explainer is nil.
func NewEngine(explainer BlockExplainer, opts ...Option) *Engine {
	if explainer == nil {
		panic("fanout: nil BlockExplainer")
	}

	e := &Engine{
		explainer: explainer,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(slog.String("component", "fanout"))
	return e
}

// ExpandAll explains every block and returns once all of them are finished.
// The result holds exactly one entry per input position. A block whose
// explanation fails or panics gets an error placeholder instead; the other
// blocks are unaffected. With an empty topic every block maps to "" and no
// explanation is requested.
func (e *Engine) ExpandAll(ctx context.Context, blocks []domain.TextBlock, topic string) domain.ExplanationResult {
	result := domain.NewExplanationResult(topic, len(blocks))

	if topic == "" {
		for _, b := range blocks {
			result.Blocks[b.Position] = domain.BlockExplanation{SlideIndex: b.SlideIndex}
		}
		return result
	}

	log := logger.FromContextOrDefault(ctx, e.logger)

	var mu sync.Mutex
	p := pool.New()
	if e.maxConcurrency > 0 {
		p = p.WithMaxGoroutines(e.maxConcurrency)
	}

	for _, b := range blocks {
		p.Go(func() {
			explanation := e.expandOne(ctx, log, b, topic)

			mu.Lock()
			result.Blocks[b.Position] = explanation
			mu.Unlock()
		})
	}
	p.Wait()

	return result
}

func (e *Engine) expandOne(ctx context.Context, log *slog.Logger, b domain.TextBlock, topic string) domain.BlockExplanation {
	var (
		text string
		err  error
	)

	if rec := panics.Try(func() {
		text, err = e.explainer.ExplainBlock(ctx, b.Text, topic)
	}); rec != nil {
		err = fmt.Errorf("panic: %v", rec.Value)
		log.Error("explanation task panicked",
			slog.Int("position", b.Position),
			slog.String("stack", string(rec.Stack)))
	}

	if err != nil {
		log.Warn("explanation generation failed",
			slog.Int("position", b.Position),
			slog.Int("slide_index", b.SlideIndex),
			slog.String("error", err.Error()))
		return domain.BlockExplanation{
			SlideIndex: b.SlideIndex,
			Text:       FailureText(b.Position, err),
			Failed:     true,
		}
	}

	return domain.BlockExplanation{SlideIndex: b.SlideIndex, Text: text}
}

// FailureText is the placeholder stored for a block whose explanation failed.
func FailureText(position int, err error) string {
	return fmt.Sprintf("ERROR - explanation generation for slide %d failed: %v", position, err)
}
