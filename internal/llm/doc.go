// Package llm enriches file analyses with model-generated insight.
//
// It speaks to a local Ollama server for generation and parses the
// structured response into purpose, architecture, and breaking-change
// annotations. The server is optional: when it is unreachable or a
// request fails, the Enhancer degrades to structural heuristics so
// indexing proceeds without it.
package llm
