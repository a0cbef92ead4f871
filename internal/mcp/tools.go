package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/gymview/internal/view"
)

// --- Tool definitions ---

var toolGetExamples = mcp.NewTool("get_exercise_examples",
	mcp.WithDescription("Get ranked exercise examples from the user's history plus catalog fallback. Least-observed exercises come first. Optionally filter by muscle groups."),
	mcp.WithString("groups", mcp.Description("Comma-separated muscle group keys (e.g. 'legs,core'). Omit for all groups.")),
)

var toolGetSessionExamples = mcp.NewTool("get_session_examples",
	mcp.WithDescription("Get exercise examples for the currently active training session. Fails with 'no examples available' when the session id does not match an active session."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier from the session_started event")),
)

var toolGetSuggestions = mcp.NewTool("get_suggestions",
	mcp.WithDescription("Get the user's current suggestion set. Empty until a suggestions_set event arrives."),
)

var toolListMuscleGroups = mcp.NewTool("list_muscle_groups",
	mcp.WithDescription("List all muscle groups in the catalog with their exercises."),
)

// --- Tool handlers ---

func splitGroups(raw string) []string {
	if raw == "" {
		return nil
	}
	var groups []string
	for _, g := range strings.Split(raw, ",") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}

func (h *handlers) getExamples(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	groups := splitGroups(req.GetString("groups", ""))

	examples, err := h.ds.Examples(ctx, uid, groups)
	if err != nil {
		h.log.Error("mcp get_exercise_examples", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(examples)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessionExamples(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}

	uid := UserIDFromContext(ctx)
	examples, err := h.ds.ExamplesForSession(ctx, uid, sessionID)
	if errors.Is(err, view.ErrNoExamples) {
		return mcp.NewToolResultError(view.ErrNoExamples.Error()), nil
	}
	if err != nil {
		h.log.Error("mcp get_session_examples", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(examples)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSuggestions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	set, err := h.ds.Suggestions(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_suggestions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(set)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
