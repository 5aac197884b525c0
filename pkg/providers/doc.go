// Package providers groups the model backends built on
// [github.com/germanamz/ollamagen/pkg/modeladapter].
//
// Sub-packages:
//   - [github.com/germanamz/ollamagen/pkg/providers/ollama] — non-streaming text generation against an Ollama server
package providers
