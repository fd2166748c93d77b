package mcp

import "github.com/mark3labs/mcp-go/mcp"

// navigateTool delivers a navigate host message.
var navigateTool = mcp.NewTool("navigate",
	mcp.WithDescription("Send a navigate message to the view. Replaces the whole view context and moves to the given route; the view fetches its data when token, api_root and short_name are all set."),
	mcp.WithString("route",
		mcp.Required(),
		mcp.Description("Route to show"),
		mcp.Enum("/", "/plots", "/mails", "/profile"),
	),
	mcp.WithString("short_name",
		mcp.Description("Short name of the visualization to fetch"),
	),
	mcp.WithString("token",
		mcp.Description("Bearer token for the API"),
	),
	mcp.WithString("api_root",
		mcp.Description("API root URL, ending in a slash"),
	),
	mcp.WithString("vis_id",
		mcp.Description("Visualization id"),
	),
	mcp.WithString("uri",
		mcp.Description("Visualization URI"),
	),
	mcp.WithBoolean("ignore_ssl_warn",
		mcp.Description("Request the API over plain http"),
	),
)

// getViewTool defines the get_view MCP tool.
var getViewTool = mcp.NewTool("get_view",
	mcp.WithDescription("Get the view selected by the current route, with its context and data."),
)

// getViewContextTool defines the get_view_context MCP tool.
var getViewContextTool = mcp.NewTool("get_view_context",
	mcp.WithDescription("Get the current view context. The token is redacted."),
)

// getFetchedDataTool defines the get_fetched_data MCP tool.
var getFetchedDataTool = mcp.NewTool("get_fetched_data",
	mcp.WithDescription("Get the data most recently fetched for the view."),
	mcp.WithString("query",
		mcp.Description("JMESPath expression selecting part of the data (e.g. about.name)"),
	),
)

// enforceThemeTool defines the enforce_theme MCP tool.
var enforceThemeTool = mcp.NewTool("enforce_theme",
	mcp.WithDescription("Read the host theme from the page and apply it to every sub-frame."),
)
