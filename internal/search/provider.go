package search

import (
	"context"

	"github.com/young1lin/exa-bridge/internal/models"
)

// Provider defines the interface for search providers
type Provider interface {
	// Search performs a search query and returns results in ranking order
	Search(ctx context.Context, q models.SearchQuery) (*models.SearchResponse, error)
}
