package mcp

import (
	"context"

	"github.com/meltforce/gymview/internal/hosting"
	"github.com/meltforce/gymview/internal/models"
)

// DataSource abstracts the view layer for MCP tools. *hosting.Registry is
// the local implementation; a remote client over the REST API could satisfy
// it as well.
type DataSource interface {
	Examples(ctx context.Context, userID string, groupKeys []string) ([]models.Exercise, error)
	ExamplesForSession(ctx context.Context, userID, sessionID string) ([]models.Exercise, error)
	Suggestions(ctx context.Context, userID string) (models.SuggestionSet, error)
}

// Compile-time check: *hosting.Registry satisfies DataSource.
var _ DataSource = (*hosting.Registry)(nil)
