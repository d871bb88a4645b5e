// Package gemini provides an implementation of the generation.Generator interface
// that uses Google's Gemini API for generating slide explanations.
//
// This package is an infrastructure adapter in the hexagonal architecture,
// connecting the application's domain logic to Google's external Gemini AI service.
// It translates a generation.Request into a GenerateContent call and maps
// API failures onto the sentinel errors of the generation package, so callers
// never see genai types.
package gemini
