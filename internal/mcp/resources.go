package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/gymview/internal/catalog"
)

// --- Resource definitions ---

var resCatalog = mcp.NewResource(
	"gymview://catalog",
	"Muscle Group Catalog",
	mcp.WithResourceDescription("All muscle groups with their exercise lists"),
	mcp.WithMIMEType("application/json"),
)

// listMuscleGroups doubles as a tool for clients that prefer tools over
// resources; both serve the same static catalog.
func (h *handlers) listMuscleGroups(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(catalog.Groups())
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) catalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(catalog.Groups())
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
