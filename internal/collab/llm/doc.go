// Package llm wraps the OpenAI-compatible API used for script writing,
// phonetic respelling, subtitle correction and word-level transcription.
//
// Calls are retried through internal/retry. Rate limits, 5xx responses and
// network failures are transient; authorization and request errors are fatal.
package llm
