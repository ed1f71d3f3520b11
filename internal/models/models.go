package models

import (
	"encoding/json"
	"time"
)

// ==================== Webset Models ====================

// WebsetStatus is the processing state reported by the provider
type WebsetStatus string

const (
	WebsetStatusIdle    WebsetStatus = "idle"
	WebsetStatusPending WebsetStatus = "pending"
	WebsetStatusRunning WebsetStatus = "running"
	WebsetStatusPaused  WebsetStatus = "paused"
)

// Known reports whether the status is one the provider documents
func (s WebsetStatus) Known() bool {
	switch s {
	case WebsetStatusIdle, WebsetStatusPending, WebsetStatusRunning, WebsetStatusPaused:
		return true
	}
	return false
}

// EnrichmentFormat is the value type an enrichment agent extracts
type EnrichmentFormat string

const (
	FormatText    EnrichmentFormat = "text"
	FormatDate    EnrichmentFormat = "date"
	FormatNumber  EnrichmentFormat = "number"
	FormatOptions EnrichmentFormat = "options"
	FormatEmail   EnrichmentFormat = "email"
	FormatPhone   EnrichmentFormat = "phone"
)

// Webset represents a provider-side webset snapshot
type Webset struct {
	ID          string             `json:"id"`
	Object      string             `json:"object,omitempty"`
	Status      WebsetStatus       `json:"status"`
	ExternalID  string             `json:"externalId,omitempty"`
	Searches    []WebsetSearch     `json:"searches,omitempty"`
	Enrichments []WebsetEnrichment `json:"enrichments,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// WebsetSearch is a search job attached to a webset
type WebsetSearch struct {
	ID       string         `json:"id"`
	Status   string         `json:"status,omitempty"`
	Query    string         `json:"query"`
	Count    int            `json:"count,omitempty"`
	Progress SearchProgress `json:"progress"`
}

// SearchProgress reports how far a webset search has got
type SearchProgress struct {
	Found      int     `json:"found"`
	Completion float64 `json:"completion"`
}

// WebsetEnrichment is an enrichment configured on a webset
type WebsetEnrichment struct {
	ID          string             `json:"id"`
	Status      string             `json:"status,omitempty"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description"`
	Format      EnrichmentFormat   `json:"format"`
	Options     []EnrichmentOption `json:"options,omitempty"`
}

// Label returns the human readable name of the enrichment
func (e WebsetEnrichment) Label() string {
	if e.Title != "" {
		return e.Title
	}
	if e.Description != "" {
		return e.Description
	}
	return e.ID
}

// EnrichmentOption is a choice for an options-format enrichment
type EnrichmentOption struct {
	Label string `json:"label" validate:"required"`
}

// Found returns the number of items found across all searches
func (w *Webset) Found() int {
	total := 0
	for _, s := range w.Searches {
		total += s.Progress.Found
	}
	return total
}

// EnrichmentTitles maps enrichment id to label
func (w *Webset) EnrichmentTitles() map[string]string {
	titles := make(map[string]string, len(w.Enrichments))
	for _, e := range w.Enrichments {
		titles[e.ID] = e.Label()
	}
	return titles
}

// ==================== Webset Creation ====================

// CreateWebsetRequest represents the webset creation payload
type CreateWebsetRequest struct {
	Search      CreateSearchParams       `json:"search"`
	Enrichments []CreateEnrichmentParams `json:"enrichments,omitempty" validate:"dive"`
	ExternalID  string                   `json:"externalId,omitempty"`
}

// CreateSearchParams is the search part of a creation request
type CreateSearchParams struct {
	Query string `json:"query" validate:"required"`
	Count int    `json:"count" validate:"gte=1"`
}

// CreateEnrichmentParams is one enrichment in a creation request.
// Title is local presentation only and never sent to the provider.
type CreateEnrichmentParams struct {
	Title       string             `json:"-"`
	Description string             `json:"description" validate:"required"`
	Format      EnrichmentFormat   `json:"format,omitempty" validate:"omitempty,oneof=text date number options email phone"`
	Options     []EnrichmentOption `json:"options,omitempty" validate:"dive"`
}

// ==================== Webset Items ====================

// ItemPage is one page of the items listing
type ItemPage struct {
	Data       []Item `json:"data"`
	HasMore    bool   `json:"hasMore"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// Item represents a webset item
type Item struct {
	ID          string             `json:"id"`
	Object      string             `json:"object,omitempty"`
	Source      string             `json:"source"`
	SourceID    string             `json:"sourceId,omitempty"`
	WebsetID    string             `json:"websetId"`
	Properties  Properties         `json:"properties"`
	Evaluations []Evaluation       `json:"evaluations,omitempty"`
	Enrichments []EnrichmentResult `json:"enrichments,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`

	// Raw is the item as the provider sent it
	Raw json.RawMessage `json:"-"`
}

// Evaluation is the verdict on one search criterion
type Evaluation struct {
	Criterion  string      `json:"criterion"`
	Reasoning  string      `json:"reasoning,omitempty"`
	Satisfied  string      `json:"satisfied"` // "yes", "no", "unclear"
	References []Reference `json:"references,omitempty"`
}

// EnrichmentResult is the output of one enrichment agent for one item.
// Result is nil when the agent found nothing.
type EnrichmentResult struct {
	Object       string           `json:"object,omitempty"`
	Status       string           `json:"status,omitempty"`
	EnrichmentID string           `json:"enrichmentId"`
	Format       EnrichmentFormat `json:"format"`
	Result       Values           `json:"result"`
	Reasoning    string           `json:"reasoning,omitempty"`
	References   []Reference      `json:"references,omitempty"`
}

// Reference is a source the provider cited
type Reference struct {
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	URL     string `json:"url"`
}

// ==================== API Errors ====================

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Type    string             `json:"type"`
	Code    string             `json:"code,omitempty"`
	Message string             `json:"message"`
	Fields  []FieldErrorDetail `json:"fields,omitempty"`
}

// FieldErrorDetail names one invalid request field
type FieldErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
