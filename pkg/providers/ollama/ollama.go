// Package ollama provides a Generator implementation for the Ollama
// /api/generate endpoint in non-streaming mode.
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/germanamz/ollamagen/pkg/modeladapter"
	"github.com/germanamz/ollamagen/pkg/modeladapter/usage"
)

const (
	// DefaultBaseURL is the address of a local Ollama server.
	DefaultBaseURL = "http://localhost:11434"
	// DefaultModel is the model used when none is configured.
	DefaultModel = "mistral"

	generatePath = "/api/generate"
)

// ErrMissingResponse is returned when the reply has no string "response" field.
var ErrMissingResponse = errors.New(`reply has no string "response" field`)

var _ modeladapter.Generator = (*Adapter)(nil)

// Adapter implements modeladapter.Generator for the Ollama generate API.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter for the server at baseURL using model.
// Empty arguments fall back to DefaultBaseURL and DefaultModel.
func New(baseURL, model string) *Adapter {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}

	a := &Adapter{ModelAdapter: modeladapter.New(baseURL, modeladapter.Auth{}, nil)}
	a.Name = model

	return a
}

// Generate sends prompt to the default local server with the default model
// and returns the generated text.
func Generate(ctx context.Context, prompt string) (string, error) {
	return New("", "").Generate(ctx, prompt)
}

// Generate sends prompt to the server and returns the "response" field of the
// reply unmodified. Any transport, status, or decoding failure is returned as
// an error; nothing is retried.
//
// The prompt travels as a JSON string, so it is sent verbatim only when it is
// valid UTF-8. Invalid bytes are replaced with U+FFFD, as encoding/json does.
func (a *Adapter) Generate(ctx context.Context, prompt string) (string, error) {
	req := apiRequest{
		Model:  a.Name,
		Prompt: prompt,
		Stream: false,
	}

	var resp apiResponse
	if err := a.PostJSON(ctx, generatePath, req, &resp); err != nil {
		return "", fmt.Errorf("ollama: %w", describeStatus(err))
	}

	text, ok := responseText(resp.Response)
	if !ok {
		return "", fmt.Errorf("ollama: %w", ErrMissingResponse)
	}

	a.Usage.Add(usage.Count{
		PromptTokens:   resp.PromptEvalCount,
		ResponseTokens: resp.EvalCount,
		Duration:       time.Duration(resp.TotalDuration),
	})

	return text, nil
}

// --- request / response types ---

type apiRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type apiResponse struct {
	// Response stays raw so a missing key, a null, and a non-string value
	// can all be rejected instead of decoding to "".
	Response        json.RawMessage `json:"response"`
	Done            bool            `json:"done"`
	PromptEvalCount int             `json:"prompt_eval_count"`
	EvalCount       int             `json:"eval_count"`
	TotalDuration   int64           `json:"total_duration"`
}

// responseText decodes raw as a JSON string. Absent, null, and non-string
// values report false.
func responseText(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", false
	}

	return text, true
}

type apiError struct {
	Error string `json:"error"`
}

// describeStatus annotates a status error with Ollama's
// {"error": "..."} message when the body carries one.
func describeStatus(err error) error {
	var se *modeladapter.StatusError
	if !errors.As(err, &se) {
		return err
	}

	var body apiError
	if json.Unmarshal([]byte(se.Body), &body) != nil || body.Error == "" {
		return err
	}

	return fmt.Errorf("%w (%s)", err, body.Error)
}
