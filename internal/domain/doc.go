// Package domain contains the core business entities of the textbook
// generation pipeline: textbooks (generation jobs), the chapters generated
// for them, and the audio work items derived from finished chapters. It is
// independent of any storage, transport, or content generator.
package domain
