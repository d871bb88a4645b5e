// Package domain contains the core entities of the explainer: jobs, their
// owners, the text blocks extracted from a document and the explanation
// result produced for a finished job. It has no knowledge of storage,
// transport or the generation provider.
package domain
