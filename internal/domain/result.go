package domain

import "sort"

// BlockExplanation is the outcome for one text block. Text holds either the
// generated explanation or, when Failed is set, a description of the failure.
type BlockExplanation struct {
	SlideIndex int    `json:"slide_index"`
	Text       string `json:"text"`
	Failed     bool   `json:"failed,omitempty"`
}

// ExplanationResult is everything produced for a job: the topic generated for
// the whole document and one entry per text block keyed by block position.
type ExplanationResult struct {
	Topic  string                   `json:"topic"`
	Blocks map[int]BlockExplanation `json:"blocks"`
}

// NewExplanationResult returns an empty result sized for n blocks.
func NewExplanationResult(topic string, n int) ExplanationResult {
	return ExplanationResult{
		Topic:  topic,
		Blocks: make(map[int]BlockExplanation, n),
	}
}

// Positions returns the block positions in ascending order.
func (r ExplanationResult) Positions() []int {
	positions := make([]int, 0, len(r.Blocks))
	for pos := range r.Blocks {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	return positions
}

// FailedCount returns how many blocks hold an error placeholder.
func (r ExplanationResult) FailedCount() int {
	n := 0
	for _, b := range r.Blocks {
		if b.Failed {
			n++
		}
	}
	return n
}

// Explanations flattens the result into the position to text mapping
// written to result artifacts.
func (r ExplanationResult) Explanations() map[int]string {
	out := make(map[int]string, len(r.Blocks))
	for pos, b := range r.Blocks {
		out[pos] = b.Text
	}
	return out
}
