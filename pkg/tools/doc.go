// Package tools exposes generators to other programs as tools.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/ollamagen/pkg/tools/toolbox] — Tool type, ToolBox registry, and the generate tool
//   - [github.com/germanamz/ollamagen/pkg/tools/mcpserver] — MCP server using the official MCP Go SDK for exposing tools over stdio
package tools
