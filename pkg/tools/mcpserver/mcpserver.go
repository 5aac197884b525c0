// Package mcpserver serves a toolbox over the Model Context Protocol using
// the official MCP Go SDK.
package mcpserver

import (
	"context"
	"io"

	"github.com/germanamz/ollamagen/pkg/tools/toolbox"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server advertises the tools of a ToolBox and routes every call through
// [toolbox.ToolBox.Call].
type Server struct {
	sdk *mcp.Server
	tb  *toolbox.ToolBox
}

// New builds a server named name for the tools currently in tb. Tools
// registered on tb afterwards are not advertised.
func New(name, version string, tb *toolbox.ToolBox) *Server {
	s := &Server{
		sdk: mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil),
		tb:  tb,
	}

	for _, t := range tb.Tools() {
		s.sdk.AddTool(&mcp.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		}, s.call)
	}

	return s
}

// call maps a toolbox result onto the protocol. Tool failures stay in-band
// as IsError results so the client sees the message.
func (s *Server) call(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := s.tb.Call(ctx, req.Params.Name, req.Params.Arguments)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: res.Content}},
		IsError: res.IsError,
	}, nil
}

// Serve speaks newline-delimited JSON-RPC on in and out until ctx is
// cancelled or in reaches EOF. A clean EOF returns nil.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return s.run(ctx, &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	})
}

func (s *Server) run(ctx context.Context, transport mcp.Transport) error {
	return s.sdk.Run(ctx, transport)
}

// nopWriteCloser keeps the caller's writer open when the session ends.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
