// Package sample hosts deterministic weather, crypto and web search tools on an in-process MCP
// server. The demo command and the examples adapt them through the bridge package.
package sample

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/skosovsky/mcptoolkit/bridge"
)

// Name and Version identify the sample server.
const (
	Name    = "mcptoolkit-sample"
	Version = "0.1.0"
)

// UnmappedTool is served but has no canonical identifier, so adapting it is always skipped.
const UnmappedTool = "get_server_time"

type forecast struct {
	temperature float64
	condition   string
	humidity    int
	windSpeed   string
}

var forecasts = map[string]forecast{
	"tokyo":    {22, "Sunny", 60, "10 km/h"},
	"london":   {14, "Overcast", 82, "18 km/h"},
	"new york": {18, "Partly cloudy", 55, "12 km/h"},
}

var prices = map[string]float64{
	"bitcoin":  45000,
	"ethereum": 2500,
	"solana":   98.5,
}

// NewServer returns an MCP server with the sample tools registered under their external names.
func NewServer() *server.MCPServer {
	s := server.NewMCPServer(Name, Version)
	s.AddTools(
		server.ServerTool{
			Tool: mcp.NewTool("get_weather",
				mcp.WithDescription("Get current weather for a location"),
				mcp.WithString("location", mcp.Required(), mcp.Description("City or place name")),
			),
			Handler: getWeather,
		},
		server.ServerTool{
			Tool: mcp.NewTool("get_cryptocurrency_price",
				mcp.WithDescription("Get the current price of a cryptocurrency in USD"),
				mcp.WithString("crypto", mcp.Required(), mcp.Description("Cryptocurrency name, e.g. bitcoin")),
			),
			Handler: getPrice,
		},
		server.ServerTool{
			Tool: mcp.NewTool("perform_web_search",
				mcp.WithDescription("Search the web"),
				mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
			),
			Handler: search,
		},
		server.ServerTool{
			Tool:    mcp.NewTool(UnmappedTool, mcp.WithDescription("Current server time")),
			Handler: serverTime,
		},
	)
	return s
}

// Tools returns the sample server's tools as external tools, sorted by name.
func Tools() []bridge.ExternalTool {
	return bridge.FromMCPServer(NewServer())
}

func getWeather(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	location, err := req.RequireString("location")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, ok := forecasts[strings.ToLower(strings.TrimSpace(location))]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no forecast for %q", location)), nil
	}
	return mcp.NewToolResultStructuredOnly(map[string]any{
		"location":    location,
		"temperature": f.temperature,
		"condition":   f.condition,
		"humidity":    f.humidity,
		"wind_speed":  f.windSpeed,
	}), nil
}

func getPrice(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	crypto, err := req.RequireString("crypto")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	price, ok := prices[strings.ToLower(strings.TrimSpace(crypto))]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown cryptocurrency %q", crypto)), nil
	}
	return mcp.NewToolResultStructuredOnly(map[string]any{
		"crypto":   crypto,
		"price":    price,
		"currency": "USD",
	}), nil
}

func search(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"1. %[1]s - Wikipedia\n2. %[1]s news and updates\n3. What is %[1]s?", query)), nil
}

func serverTime(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(time.Now().UTC().Format(time.RFC3339)), nil
}
