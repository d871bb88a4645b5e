package task

import (
	"context"
	"fmt"

	"github.com/phrazzld/slide-explainer/internal/document"
	"github.com/phrazzld/slide-explainer/internal/domain"
)

// TopicExplainer names the subject of a whole document.
// generation.Explainer satisfies it.
type TopicExplainer interface {
	ExplainTopic(ctx context.Context, fullText string) (string, error)
}

// BlockExpander explains every block of a document. fanout.Engine satisfies it.
type BlockExpander interface {
	ExpandAll(ctx context.Context, blocks []domain.TextBlock, topic string) domain.ExplanationResult
}

// Pipeline turns a parsed presentation into explanations: the topic is
// generated from the full text first, then every block is expanded with it.
type Pipeline struct {
	topics TopicExplainer
	blocks BlockExpander
}

// NewPipeline creates a Pipeline.
func NewPipeline(topics TopicExplainer, blocks BlockExpander) *Pipeline {
	return &Pipeline{topics: topics, blocks: blocks}
}

// Run explains p. Only a failure to generate the topic is returned as an
// error; failures of single blocks are recorded in the result.
func (p *Pipeline) Run(ctx context.Context, pres *document.Presentation) (domain.ExplanationResult, error) {
	blocks := document.Extract(pres)

	topic, err := p.topics.ExplainTopic(ctx, document.FullText(blocks))
	if err != nil {
		return domain.ExplanationResult{}, fmt.Errorf("failed to generate topic: %w", err)
	}

	return p.blocks.ExpandAll(ctx, blocks, topic), nil
}
