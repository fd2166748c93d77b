package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/novem-io/novem-webview/internal/hostmsg"
	"github.com/novem-io/novem-webview/internal/viewstate"
)

// handleNavigate hands a navigate message to the listener. Like any host
// message it is not acknowledged beyond the route it moved to.
func (s *Server) handleNavigate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	route, err := request.RequireString("route")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: route"), nil
	}

	s.app.Listener().Handle(hostmsg.Message{
		Command:       hostmsg.CommandNavigate,
		Route:         route,
		VisID:         request.GetString("vis_id", ""),
		URI:           request.GetString("uri", ""),
		ShortName:     request.GetString("short_name", ""),
		Token:         request.GetString("token", ""),
		APIRoot:       request.GetString("api_root", ""),
		IgnoreSSLWarn: request.GetBool("ignore_ssl_warn", false),
	})

	return mcp.NewToolResultText(fmt.Sprintf("Navigated to %s.", s.app.Router().Location())), nil
}

func (s *Server) handleGetView(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sel := s.app.Router().Current()
	if sel.View == "" {
		return mcp.NewToolResultError(fmt.Sprintf("no view for route %q", sel.Route)), nil
	}
	return jsonResult(sel)
}

func (s *Server) handleGetViewContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.app.Contexts().Get().Redacted())
}

func (s *Server) handleGetFetchedData(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data := s.app.Data().Get()
	if data == nil {
		return mcp.NewToolResultText("No data fetched yet. Send a navigate with short_name, token and api_root first."), nil
	}
	if expr := request.GetString("query", ""); expr != "" {
		out, err := viewstate.Query(data, expr)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
	return jsonResult(data)
}

func (s *Server) handleEnforceTheme(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.enforcer == nil {
		return mcp.NewToolResultError("theme enforcement is not configured"), nil
	}
	mode, err := s.enforcer.Enforce(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("enforcing theme: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Theme is %s.", mode)), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
