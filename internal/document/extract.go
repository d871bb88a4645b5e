package document

import (
	"strings"

	"github.com/phrazzld/slide-explainer/internal/domain"
)

// Extract returns one TextBlock per slide with text, in slide order.
// Slides whose text is empty after trimming are skipped and the remaining
// blocks are numbered 1..K; each block keeps its original slide number in
// SlideIndex.
func Extract(p *Presentation) []domain.TextBlock {
	if p == nil {
		return nil
	}

	blocks := make([]domain.TextBlock, 0, len(p.Slides))
	for i, slide := range p.Slides {
		text := strings.TrimSpace(slide.Text())
		if text == "" {
			continue
		}

		index := slide.Index
		if index == 0 {
			index = i + 1
		}

		blocks = append(blocks, domain.TextBlock{
			Position:   len(blocks) + 1,
			SlideIndex: index,
			Text:       text,
		})
	}
	return blocks
}

// FullText joins the block texts with single spaces. It is the input used
// to generate the topic of the whole document.
func FullText(blocks []domain.TextBlock) string {
	texts := make([]string, len(blocks))
	for i, b := range blocks {
		texts[i] = b.Text
	}
	return strings.Join(texts, " ")
}
