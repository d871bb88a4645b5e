// Package generation is the boundary between the explainer and the external
// LLM service that writes topics and slide explanations.
//
// The package is organised in two layers:
//
//   - Generator is a single request/response call to a provider. Provider
//     implementations live under internal/platform (gemini, anthropic,
//     openai) and translate their SDK errors into the sentinel errors
//     declared in errors.go.
//   - Explainer builds the prompts for a document topic and for one slide,
//     short-circuits empty input, and degrades authentication failures to an
//     empty explanation so a misconfigured key never aborts a batch.
//
// Generators can be wrapped with NewRateLimitedGenerator and
// NewRetryingGenerator to respect provider quotas and ride out transient
// failures. None of the types here keep state between calls, so one
// instance is shared by every concurrent slide request.
package generation
