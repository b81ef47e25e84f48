// Package config loads the server settings from KOTOBA_* environment
// variables and an optional YAML file, applies defaults and validates the
// result. Sections cover the HTTP server, the database, the LLM provider,
// the chapter generation loop, the audio fan-out backend and the task runner.
package config
