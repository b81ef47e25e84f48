// Package gemini provides an implementation of the generation.Generator interface
// that uses Google's Gemini API to write textbook chapters.
//
// This package is an infrastructure adapter in the hexagonal architecture,
// connecting the chapter generation loop to Google's external Gemini AI service.
// It renders the chapter prompt, requests a JSON response, and decodes it into a
// generation.RawChapter without exposing the details of the external service to
// the core application.
//
// Transient API failures are retried with exponential backoff. Responses blocked
// by safety filters and malformed responses are reported as permanent errors.
package gemini
