package exa

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/young1lin/exa-bridge/internal/models"
	"github.com/young1lin/exa-bridge/pkg/logger"
)

// searchRequest represents the search request body
type searchRequest struct {
	Query              string          `json:"query"`
	NumResults         int             `json:"numResults"`
	UseAutoprompt      bool            `json:"useAutoprompt"`
	IncludeDomains     []string        `json:"includeDomains,omitempty"`
	ExcludeDomains     []string        `json:"excludeDomains,omitempty"`
	StartPublishedDate string          `json:"startPublishedDate,omitempty"`
	EndPublishedDate   string          `json:"endPublishedDate,omitempty"`
	Contents           *searchContents `json:"contents,omitempty"`
}

type searchContents struct {
	Text bool `json:"text"`
}

// searchResponse represents the search response
type searchResponse struct {
	RequestID        string         `json:"requestId,omitempty"`
	AutopromptString string         `json:"autopromptString,omitempty"`
	Results          []searchResult `json:"results"`
}

// searchResult represents a single search result
type searchResult struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	PublishedDate string   `json:"publishedDate"`
	Author        string   `json:"author"`
	Source        string   `json:"source"`
	Score         *float64 `json:"score"`
	Text          string   `json:"text"`
}

// Search performs a one-shot search. Results keep the provider's order.
func (c *Client) Search(ctx context.Context, q models.SearchQuery) (*models.SearchResponse, error) {
	reqBody := searchRequest{
		Query:              q.Query,
		NumResults:         q.NumResults,
		UseAutoprompt:      q.UseAutoprompt,
		IncludeDomains:     q.IncludeDomains,
		ExcludeDomains:     q.ExcludeDomains,
		StartPublishedDate: q.StartPublishedDate,
		EndPublishedDate:   q.EndPublishedDate,
		Contents:           &searchContents{Text: true},
	}

	var searchResp searchResponse
	if err := c.do(ctx, "search", http.MethodPost, "/search", nil, reqBody, &searchResp); err != nil {
		return nil, err
	}

	result := &models.SearchResponse{
		Query:            q.Query,
		AutopromptString: searchResp.AutopromptString,
		Results:          make([]models.SearchResult, 0, len(searchResp.Results)),
	}
	for _, item := range searchResp.Results {
		result.Results = append(result.Results, models.SearchResult{
			ID:            item.ID,
			Title:         item.Title,
			URL:           item.URL,
			PublishedDate: item.PublishedDate,
			Author:        item.Author,
			Source:        item.Source,
			Score:         item.Score,
			Text:          item.Text,
		})
	}
	result.TotalResults = len(result.Results)

	logger.FromContext(ctx).Info("exa search completed",
		zap.String("query", q.Query),
		zap.Int("result_count", result.TotalResults),
	)

	return result, nil
}
