// Package toolbox exposes generators as named tools with a JSON Schema input.
// The MCP server dispatches every call through [ToolBox.Call].
package toolbox

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
)

// Handler runs a tool with its JSON arguments and returns a text result.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Tool describes one callable entry.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     Handler
}

// Result is what a caller sees from a tool call. Failures are reported in
// Content with IsError set, never as a Go error.
type Result struct {
	Content string
	IsError bool
}

// ToolBox maps tool names to tools.
type ToolBox struct {
	tools map[string]Tool
}

// New returns an empty ToolBox.
func New() *ToolBox {
	return &ToolBox{tools: make(map[string]Tool)}
}

// Register adds tools, replacing any already registered under the same name.
func (tb *ToolBox) Register(tools ...Tool) {
	for _, t := range tools {
		tb.tools[t.Name] = t
	}
}

// Tools lists the registered tools ordered by name.
func (tb *ToolBox) Tools() []Tool {
	list := make([]Tool, 0, len(tb.tools))
	for _, t := range tb.tools {
		list = append(list, t)
	}

	slices.SortFunc(list, func(a, b Tool) int { return cmp.Compare(a.Name, b.Name) })

	return list
}

// Call runs the named tool. Missing arguments are passed as an empty object.
func (tb *ToolBox) Call(ctx context.Context, name string, args json.RawMessage) Result {
	t, ok := tb.tools[name]
	if !ok {
		return Result{Content: fmt.Sprintf("tool not found: %s", name), IsError: true}
	}

	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	out, err := t.Handler(ctx, args)
	if err != nil {
		return Result{Content: err.Error(), IsError: true}
	}

	return Result{Content: out}
}
