package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/novem-io/novem-webview/internal/theme"
	"github.com/novem-io/novem-webview/internal/webview"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server exposes a mounted view to an MCP client. The client acts as the
// host: its navigate calls are host messages.
type Server struct {
	app      *webview.App
	enforcer *theme.Enforcer
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server driving app.
func NewServer(app *webview.App) *Server {
	s := &Server{app: app}

	s.mcp = server.NewMCPServer(
		"novem-webview",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(navigateTool, s.handleNavigate)
	s.mcp.AddTool(getViewTool, s.handleGetView)
	s.mcp.AddTool(getViewContextTool, s.handleGetViewContext)
	s.mcp.AddTool(getFetchedDataTool, s.handleGetFetchedData)
}

// SetEnforcer enables the enforce_theme tool.
func (s *Server) SetEnforcer(e *theme.Enforcer) {
	s.enforcer = e
	s.mcp.AddTool(enforceThemeTool, s.handleEnforceTheme)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
