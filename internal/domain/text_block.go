package domain

// TextBlock is the text of one non-empty slide. Position numbers the kept
// slides densely from 1 in document order; SlideIndex is the slide's 1-based
// number in the original document, so blank slides leave gaps there only.
type TextBlock struct {
	Position   int    `json:"position"`
	SlideIndex int    `json:"slide_index"`
	Text       string `json:"text"`
}
