package document

import "strings"

// Presentation is a parsed document: its slides in presentation order.
type Presentation struct {
	Slides []Slide
}

// Slide holds the text paragraphs of one slide in reading order.
// Index is the 1-based slide number within the presentation.
type Slide struct {
	Index      int
	Paragraphs []Paragraph
}

// Paragraph is one line of text made of formatting runs.
type Paragraph struct {
	Runs []Run
}

// Run is a span of text sharing the same formatting.
type Run struct {
	Text string
}

// Text renders the slide: each paragraph is its trimmed runs concatenated,
// followed by a newline. The result is not trimmed.
func (s Slide) Text() string {
	var b strings.Builder
	for _, p := range s.Paragraphs {
		for _, r := range p.Runs {
			b.WriteString(strings.TrimSpace(r.Text))
		}
		b.WriteString("\n")
	}
	return b.String()
}
