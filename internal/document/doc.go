// Package document reads presentation files and turns them into the ordered
// text blocks the explainer works on.
//
// A presentation is modelled as slides holding paragraphs holding runs, the
// same nesting the Office Open XML format uses. ParsePPTX builds that model
// from a .pptx archive and Extract flattens it into domain.TextBlock values,
// dropping slides that carry no text.
package document
