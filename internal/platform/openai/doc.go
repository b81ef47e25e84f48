// Package openai provides a generation.Generator backed by any OpenAI-compatible
// chat completion endpoint (OpenAI, OpenRouter, DeepSeek, local gateways).
package openai
