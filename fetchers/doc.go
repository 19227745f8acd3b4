// Package fetchers provides ready-made [ghost.Fetcher] implementations
// for the text-generation boundary.
//
// [Model] runs against any LangChainGo llms.Model (OpenAI, Anthropic,
// Ollama, and the rest). [HTTP] runs against a generation HTTP endpoint
// using the engine's wire envelope. Both share the same response
// handling: the service is asked for JSON with a completion and a short
// plan list, optionally wrapped in a fenced code block, and anything
// that fails to parse as that degrades gracefully to a raw-text
// completion with an empty plan.
package fetchers
