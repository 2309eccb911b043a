// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Umwelt tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/umwelt/internal/node"
	"github.com/starford/umwelt/internal/phaseservice"
)

const semanticsURI = "umwelt://semantics"

// Server wraps the MCP server with Umwelt tools.
type Server struct {
	mcp *server.MCPServer
	svc *phaseservice.Service
}

// New creates a new MCP server with all Umwelt tools registered.
func New(svc *phaseservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Umwelt",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_nodes",
		mcp.WithDescription("List every node of a phase in ingestion order."),
		mcp.WithString("phase", mcp.Required(), mcp.Description("Phase name (file stem under phases/)")),
	), s.listNodes)

	s.mcp.AddTool(mcp.NewTool("show_tree",
		mcp.WithDescription("Show a phase as an indented tree of labels with kind and id."),
		mcp.WithString("phase", mcp.Required(), mcp.Description("Phase name")),
	), s.showTree)

	s.mcp.AddTool(mcp.NewTool("node_childs",
		mcp.WithDescription("List the direct children of a node."),
		mcp.WithString("phase", mcp.Required(), mcp.Description("Phase name")),
		mcp.WithNumber("id", mcp.Required(), mcp.Min(1), mcp.Description("Node id")),
	), s.nodeChilds)

	s.mcp.AddTool(mcp.NewTool("imprint",
		mcp.WithDescription("Write the artifacts of every node of a phase into an empty target directory. "+
			"Read the umwelt://semantics resource for the available semantics and their file layout."),
		mcp.WithString("phase", mcp.Required(), mcp.Description("Phase name")),
		mcp.WithString("semantic", mcp.Required(), mcp.Enum(node.Semantics()...), mcp.Description("Semantic to render")),
		mcp.WithString("target", mcp.Description("Output directory; the configured target when empty")),
	), s.imprint)

	s.mcp.AddTool(mcp.NewTool("list_imprints",
		mcp.WithDescription("List recent imprints, newest first."),
		mcp.WithNumber("limit", mcp.Min(1), mcp.Description("Maximum number of entries")),
	), s.listImprints)

	s.mcp.AddTool(mcp.NewTool("verify_imprint",
		mcp.WithDescription("Compare the files of a recorded imprint with the disk."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Imprint id")),
	), s.verifyImprint)

	s.mcp.AddResource(
		mcp.NewResource(semanticsURI, "Semantics",
			mcp.WithResourceDescription("Available semantics and the files each node kind renders to."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSemanticsResource,
	)

	return s
}

// Serve runs the server over the given streams until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phase, err := req.RequireString("phase")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	nodes, err := s.svc.Nodes(ctx, phase)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(nodes)
}

func (s *Server) showTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phase, err := req.RequireString("phase")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	outline, err := s.svc.Outline(ctx, phase)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(outline), nil
}

func (s *Server) nodeChilds(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phase, err := req.RequireString("phase")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	childs, err := s.svc.Childs(ctx, phase, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(childs)
}

func (s *Server) imprint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phase, err := req.RequireString("phase")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	semantic, err := req.RequireString("semantic")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Imprint(ctx, phaseservice.ImprintRequest{
		Phase:    phase,
		Semantic: semantic,
		Target:   req.GetString("target", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) listImprints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.svc.Imprints(ctx, req.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("no imprints recorded"), nil
	}
	return jsonResult(entries)
}

func (s *Server) verifyImprint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r, err := s.svc.Verify(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(r)
}

func (s *Server) readSemanticsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      semanticsURI,
			MIMEType: "text/markdown",
			Text:     SemanticsContract(),
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(strings.TrimSpace(string(out))), nil
}
