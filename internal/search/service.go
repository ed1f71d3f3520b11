package search

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/young1lin/exa-bridge/internal/models"
	"github.com/young1lin/exa-bridge/pkg/logger"
)

// Service validates search queries and hands them to the provider
type Service struct {
	provider Provider
}

// NewService creates a new search service
func NewService(p Provider) *Service {
	return &Service{provider: p}
}

// Search validates q before any network call and returns the provider's
// results unchanged and in order.
func (s *Service) Search(ctx context.Context, q models.SearchQuery) (*models.SearchResponse, error) {
	q.Query = strings.TrimSpace(q.Query)
	if err := models.Validate(q); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Debug("performing search",
		zap.String("query", q.Query),
		zap.Int("num_results", q.NumResults),
		zap.Bool("use_autoprompt", q.UseAutoprompt),
	)

	resp, err := s.provider.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = []models.SearchResult{}
	}
	resp.TotalResults = len(resp.Results)
	return resp, nil
}
