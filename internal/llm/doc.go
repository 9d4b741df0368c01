// Package llm classifies batches of transaction descriptions into a fixed
// category catalog. It supports a remote classifier service, Gemini,
// Anthropic, OpenAI and an offline naive Bayes model, with rate limiting and
// retry logic shared between them.
package llm
