package models

// SearchQuery represents a one-shot search request
type SearchQuery struct {
	Query              string   `json:"query" validate:"required"`
	NumResults         int      `json:"num_results" validate:"gte=1,lte=100"`
	UseAutoprompt      bool     `json:"use_autoprompt"`
	IncludeDomains     []string `json:"include_domains,omitempty"`
	ExcludeDomains     []string `json:"exclude_domains,omitempty"`
	StartPublishedDate string   `json:"start_published_date,omitempty"`
	EndPublishedDate   string   `json:"end_published_date,omitempty"`
}

// DefaultSearchQuery returns a query with the defaults used by the CLI and HTTP API
func DefaultSearchQuery(query string) SearchQuery {
	return SearchQuery{
		Query:         query,
		NumResults:    3,
		UseAutoprompt: true,
	}
}

// SearchResult represents a single search result.
// Every field except URL may be empty.
type SearchResult struct {
	ID            string   `json:"id,omitempty"`
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	PublishedDate string   `json:"published_date,omitempty"`
	Author        string   `json:"author,omitempty"`
	Source        string   `json:"source,omitempty"`
	Score         *float64 `json:"score,omitempty"`
	Text          string   `json:"text,omitempty"`
}

// SearchResponse is the envelope returned by the search endpoint
type SearchResponse struct {
	Query            string         `json:"query"`
	AutopromptString string         `json:"autoprompt_string,omitempty"`
	Results          []SearchResult `json:"results"`
	TotalResults     int            `json:"total_results"`
}
