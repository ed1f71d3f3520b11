package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/young1lin/exa-bridge/internal/apperr"
	"github.com/young1lin/exa-bridge/internal/models"
	"github.com/young1lin/exa-bridge/pkg/logger"
)

//go:embed job.schema.json
var jobSchema []byte

const defaultJobCount = 3

// Job is a webset job file
type Job struct {
	Search      JobSearch       `json:"search"`
	Enrichments []JobEnrichment `json:"enrichments,omitempty"`
	ExternalID  string          `json:"external_id,omitempty"`
}

// JobSearch accepts both "limit" and "count" for the item target
type JobSearch struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
	Count int    `json:"count,omitempty"`
}

// JobEnrichment is either a plain name ("Email") or a full enrichment object
type JobEnrichment struct {
	Title       string                    `json:"title,omitempty"`
	Description string                    `json:"description"`
	Format      models.EnrichmentFormat   `json:"format,omitempty"`
	Options     []models.EnrichmentOption `json:"options,omitempty"`
}

func (e *JobEnrichment) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*e = EnrichmentFromName(name)
		return nil
	}

	type plain JobEnrichment
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = JobEnrichment(p)
	return nil
}

// EnrichmentFromName expands a bare enrichment name into a description and
// a format guessed from the name.
func EnrichmentFromName(name string) JobEnrichment {
	name = strings.TrimSpace(name)
	lower := strings.ToLower(name)

	format := models.FormatText
	switch {
	case strings.Contains(lower, "email"):
		format = models.FormatEmail
	case strings.Contains(lower, "phone"):
		format = models.FormatPhone
	}

	return JobEnrichment{
		Title:       name,
		Description: "Extract the " + lower,
		Format:      format,
	}
}

// Request converts the job into a webset creation request
func (j *Job) Request() models.CreateWebsetRequest {
	count := j.Search.Count
	if count == 0 {
		count = j.Search.Limit
	}
	if count == 0 {
		count = defaultJobCount
	}

	req := models.CreateWebsetRequest{
		Search:     models.CreateSearchParams{Query: j.Search.Query, Count: count},
		ExternalID: j.ExternalID,
	}
	for _, e := range j.Enrichments {
		format := e.Format
		if format == "" {
			format = models.FormatText
		}
		req.Enrichments = append(req.Enrichments, models.CreateEnrichmentParams{
			Title:       e.Title,
			Description: e.Description,
			Format:      format,
			Options:     e.Options,
		})
	}
	return req
}

// Titles maps enrichment description to the title given in the job file.
// The provider does not store titles, so callers match on description.
func (j *Job) Titles() map[string]string {
	titles := make(map[string]string, len(j.Enrichments))
	for _, e := range j.Enrichments {
		if e.Title != "" {
			titles[e.Description] = e.Title
		}
	}
	return titles
}

// DefaultJob is used when no job file exists
func DefaultJob() *Job {
	return &Job{
		Search: JobSearch{
			Query: "entrepreneur (founder, co-founder, or owner of a business) currently resides in the usa",
			Limit: defaultJobCount,
		},
		Enrichments: []JobEnrichment{
			{Title: "Name", Description: "Extract the full name of the entrepreneur (founder, co-founder, or business owner)", Format: models.FormatText},
			{Title: "Email", Description: "Extract the email address of the entrepreneur for contact purposes", Format: models.FormatEmail},
			{Title: "Phone", Description: "Extract the phone number of the entrepreneur or their business", Format: models.FormatPhone},
			{Title: "Location", Description: "Extract the location (city, state) where the entrepreneur currently resides", Format: models.FormatText},
			{Title: "Company Name", Description: "Extract the name of the company or business founded by the entrepreneur", Format: models.FormatText},
			{Title: "Company Website", Description: "Extract the website URL of the entrepreneur's company or business", Format: models.FormatText},
		},
	}
}

// LoadJob reads and validates a job file. A missing file falls back to DefaultJob.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("job file not found, using default job", zap.String("path", path))
		return DefaultJob(), nil
	}
	if err != nil {
		return nil, &apperr.ConfigError{Key: "job", Message: err.Error()}
	}
	return ParseJob(data)
}

// ParseJob validates data against the job schema and decodes it
func ParseJob(data []byte) (*Job, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(jobSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, apperr.NewValidation("job", fmt.Sprintf("invalid JSON: %v", err))
	}

	if !result.Valid() {
		ve := &apperr.ValidationError{}
		for _, re := range result.Errors() {
			ve.Fields = append(ve.Fields, apperr.FieldError{
				Field:   re.Field(),
				Message: re.Description(),
			})
		}
		return nil, ve
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, apperr.NewValidation("job", err.Error())
	}
	return &job, nil
}
