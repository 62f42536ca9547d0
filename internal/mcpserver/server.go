// Package mcpserver exposes the handoff methods as Model Context Protocol
// tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/handoff/internal/document"
	"github.com/starford/handoff/internal/rpc"
)

// Template resource URIs.
const (
	StandardTemplateURI = "handoff://templates/standard"
	QuickTemplateURI    = "handoff://templates/quick"
)

// Server wraps the MCP server with one tool per dispatcher method.
type Server struct {
	mcp        *server.MCPServer
	dispatcher *rpc.Dispatcher
}

// New creates an MCP server with every handoff tool registered.
func New(d *rpc.Dispatcher, version string) *Server {
	s := &Server{dispatcher: d}

	s.mcp = server.NewMCPServer(
		"handoff",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool(rpc.MethodRead,
		mcp.WithDescription("Read an active handoff document, in full or as a section summary."),
		mcp.WithString("handoff_id", mcp.Required(), mcp.Description("Id returned by create_handoff")),
		mcp.WithString("format", mcp.Enum("full", "summary"), mcp.Description("full (default) or summary")),
	), s.tool(rpc.MethodRead))

	s.mcp.AddTool(mcp.NewTool(rpc.MethodCreate,
		mcp.WithDescription("Create a handoff document from the standard or quick template."),
		mcp.WithString("type", mcp.Required(), mcp.Enum(document.TypeStandard, document.TypeQuick)),
		mcp.WithObject("initialData", mcp.Required(),
			mcp.Description("date, time, currentState{workingOn,status,nextStep}, optional projectContext, environmentStatus{details{name: ✅|⚠️|❌}}")),
	), s.tool(rpc.MethodCreate))

	s.mcp.AddTool(mcp.NewTool(rpc.MethodUpdate,
		mcp.WithDescription("Rewrite sections (progress, priorities, issues, environment, context) of an active handoff."),
		mcp.WithString("handoff_id", mcp.Required()),
		mcp.WithArray("updates", mcp.Required(),
			mcp.Description("List of {section, content} objects applied in order")),
	), s.tool(rpc.MethodUpdate))

	s.mcp.AddTool(mcp.NewTool(rpc.MethodComplete,
		mcp.WithDescription("Record completion progress and optionally archive the handoff."),
		mcp.WithString("handoff_id", mcp.Required()),
		mcp.WithObject("completionData", mcp.Required(),
			mcp.Description("endTime, progress[], nextSteps[], optional archiveReason")),
	), s.tool(rpc.MethodComplete))

	s.mcp.AddTool(mcp.NewTool(rpc.MethodArchive,
		mcp.WithDescription("Stamp archive information into a handoff and move it to the archive."),
		mcp.WithString("handoff_id", mcp.Required()),
		mcp.WithObject("metadata", mcp.Required(),
			mcp.Description("reason, tags[], completionStatus (success|partial|blocked)")),
	), s.tool(rpc.MethodArchive))

	s.mcp.AddTool(mcp.NewTool(rpc.MethodList,
		mcp.WithDescription("List handoffs ordered by priority, with optional filters."),
		mcp.WithString("status", mcp.Required(), mcp.Enum("active", "archived", "all")),
		mcp.WithString("type", mcp.Enum(document.TypeStandard, document.TypeQuick)),
		mcp.WithObject("filters", mcp.Description("dateRange{start,end}, tags[], hasIssues")),
	), s.tool(rpc.MethodList))

	s.mcp.AddTool(mcp.NewTool(rpc.MethodHistory,
		mcp.WithDescription("Show the lifecycle journal of a handoff, newest first."),
		mcp.WithString("handoff_id", mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Maximum entries (default 50)")),
	), s.tool(rpc.MethodHistory))

	s.addTemplate(StandardTemplateURI, "Standard handoff template", document.StandardTemplate)
	s.addTemplate(QuickTemplateURI, "Quick handoff template", document.QuickTemplate)

	return s
}

// Listen serves MCP frames read from in and written to out until ctx is
// cancelled or in is closed.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// tool forwards the call arguments to the dispatcher as JSON params.
func (s *Server) tool(method string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		params, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result, err := s.dispatcher.Call(ctx, method, params)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}

func (s *Server) addTemplate(uri, name, content string) {
	s.mcp.AddResource(
		mcp.NewResource(uri, name,
			mcp.WithResourceDescription("Skeleton written to the templates directory on first start."),
			mcp.WithMIMEType("text/markdown"),
		),
		func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return []mcp.ResourceContents{
				mcp.TextResourceContents{URI: uri, MIMEType: "text/markdown", Text: content},
			}, nil
		},
	)
}
