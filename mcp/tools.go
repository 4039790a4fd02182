package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Rabahbelksier/Offers365/internal/aliexpress"
)

func registerTools(s *server.MCPServer, pipe *aliexpress.Pipeline, defaults aliexpress.Credentials) {
	// resolve_product
	resolveTool := mcp.NewTool("resolve_product",
		mcp.WithDescription("Resolve an AliExpress URL into product metadata and eight affiliate tracking links"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("AliExpress product URL (may be shortened or embedded in text)"),
		),
		mcp.WithString("app_key",
			mcp.Description("Affiliate API app key (defaults to server configuration)"),
		),
		mcp.WithString("app_secret",
			mcp.Description("Affiliate API app secret (defaults to server configuration)"),
		),
		mcp.WithString("tracking_id",
			mcp.Description("Affiliate tracking id (defaults to server configuration)"),
		),
	)
	s.AddTool(resolveTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleResolveProduct(ctx, request, pipe, defaults)
	})

	// extract_product_id
	extractTool := mcp.NewTool("extract_product_id",
		mcp.WithDescription("Extract the numeric product id from an AliExpress URL without calling the affiliate API"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("AliExpress product URL"),
		),
	)
	s.AddTool(extractTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleExtractProductID(ctx, request)
	})
}

func handleResolveProduct(ctx context.Context, request mcp.CallToolRequest, pipe *aliexpress.Pipeline, defaults aliexpress.Credentials) (*mcp.CallToolResult, error) {
	url := request.GetString("url", "")
	if url == "" {
		return mcp.NewToolResultError("url is required"), nil
	}

	creds := aliexpress.Credentials{
		AppKey:     request.GetString("app_key", defaults.AppKey),
		AppSecret:  request.GetString("app_secret", defaults.AppSecret),
		TrackingID: request.GetString("tracking_id", defaults.TrackingID),
	}

	resp, err := pipe.Run(ctx, url, creds)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resolve error: %v", err)), nil
	}

	data, _ := json.MarshalIndent(resp, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func handleExtractProductID(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url := request.GetString("url", "")
	if url == "" {
		return mcp.NewToolResultError("url is required"), nil
	}
	if !aliexpress.SupportedDomain(url) {
		return mcp.NewToolResultError(aliexpress.ErrUnsupportedDomain.Error()), nil
	}

	id, err := aliexpress.NewResolver(nil).ProductID(ctx, url)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("extract error: %v", err)), nil
	}
	return mcp.NewToolResultText(id), nil
}
