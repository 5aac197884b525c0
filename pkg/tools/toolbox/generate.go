package toolbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/germanamz/ollamagen/pkg/modeladapter"
)

// GenerateToolName is the name under which GenerateTool is registered.
const GenerateToolName = "generate"

var generateSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"prompt": {"type": "string", "description": "Text sent to the model verbatim"}
	},
	"required": ["prompt"]
}`)

type generateInput struct {
	Prompt *string `json:"prompt"`
}

// GenerateTool returns a tool that sends its "prompt" argument to g and
// returns the generated text.
func GenerateTool(g modeladapter.Generator) Tool {
	return Tool{
		Name:        GenerateToolName,
		Description: "Generate a completion for a prompt with the configured local model",
		InputSchema: generateSchema,
		Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
			var in generateInput
			if err := json.Unmarshal(input, &in); err != nil {
				return "", fmt.Errorf("generate: invalid input: %w", err)
			}
			if in.Prompt == nil {
				return "", errors.New("generate: prompt is required")
			}

			return g.Generate(ctx, *in.Prompt)
		},
	}
}
