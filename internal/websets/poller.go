package websets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/young1lin/exa-bridge/internal/apperr"
	"github.com/young1lin/exa-bridge/internal/config"
	"github.com/young1lin/exa-bridge/internal/metrics"
	"github.com/young1lin/exa-bridge/internal/models"
	"github.com/young1lin/exa-bridge/internal/storage"
	"github.com/young1lin/exa-bridge/pkg/logger"
)

const (
	DefaultInterval = 10 * time.Second
	DefaultMaxWait  = 300 * time.Second
	defaultPageSize = 100
)

// WebsetAPI is the part of the Exa client the poller needs
type WebsetAPI interface {
	CreateWebset(ctx context.Context, req models.CreateWebsetRequest) (*models.Webset, error)
	GetWebset(ctx context.Context, id string) (*models.Webset, error)
	ListItems(ctx context.Context, websetID, cursor string, limit int) (*models.ItemPage, error)
}

// Journal records runs so they can be listed and resumed later.
// Get returns nil when the webset was never recorded.
type Journal interface {
	Put(run *storage.Run) error
	Get(websetID string) (*storage.Run, error)
}

// Outcome is how a wait ended
type Outcome string

const (
	OutcomeIdle     Outcome = "idle"
	OutcomeTimedOut Outcome = "timed_out"
)

// UnexpectedStatusError is returned when the provider reports a status the poller does not know
type UnexpectedStatusError struct {
	WebsetID string
	Status   models.WebsetStatus
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("webset %s reported unexpected status %q", e.WebsetID, e.Status)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return apperr.ErrUnexpectedResponse
}

// Options tunes a single wait. Zero values fall back to the poller's defaults.
type Options struct {
	MaxWait  time.Duration
	Interval time.Duration
	// Titles maps enrichment description to the column title to use
	Titles map[string]string
}

// WaitResult describes the last observed state of a wait. A timeout is a
// result, not an error.
type WaitResult struct {
	WebsetID string
	Status   models.WebsetStatus
	Outcome  Outcome
	Polls    int
	Elapsed  time.Duration
	Found    int
	Webset   *models.Webset
}

// TimedOut reports whether the webset was still busy when the wait ended
func (r *WaitResult) TimedOut() bool {
	return r.Outcome == OutcomeTimedOut
}

// RunResult is a finished wait plus, when the webset went idle, its items
type RunResult struct {
	WaitResult
	// Query is the search the journal recorded for the webset, if any
	Query string
	Items []models.Item
	Table *models.Table
}

// Poller drives a webset from creation to a flattened table
type Poller struct {
	api      WebsetAPI
	interval time.Duration
	maxWait  time.Duration
	pageSize int
	journal  Journal

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewPoller creates a poller using the poll and provider settings of cfg
func NewPoller(api WebsetAPI, cfg *config.Config) *Poller {
	p := &Poller{
		api:      api,
		interval: cfg.Poll.IntervalDuration(),
		maxWait:  cfg.Poll.MaxWaitDuration(),
		pageSize: cfg.Provider.PageSize,
		sleep:    sleepContext,
		now:      time.Now,
	}
	if p.interval <= 0 {
		p.interval = DefaultInterval
	}
	if p.maxWait <= 0 {
		p.maxWait = DefaultMaxWait
	}
	if p.pageSize <= 0 {
		p.pageSize = defaultPageSize
	}
	return p
}

// WithJournal makes the poller record runs in j
func (p *Poller) WithJournal(j Journal) *Poller {
	p.journal = j
	return p
}

// RunToCompletion creates a webset, waits for it and collects its items
func (p *Poller) RunToCompletion(ctx context.Context, req models.CreateWebsetRequest, opts Options) (*RunResult, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	ws, err := p.api.CreateWebset(ctx, req)
	if err != nil {
		metrics.PollOutcomes.WithLabelValues("failed").Inc()
		return nil, err
	}
	p.record(ctx, &storage.Run{WebsetID: ws.ID, Query: req.Search.Query, Status: string(ws.Status), Outcome: "created"})

	if opts.Titles == nil {
		opts.Titles = make(map[string]string, len(req.Enrichments))
		for _, e := range req.Enrichments {
			if e.Title != "" {
				opts.Titles[e.Description] = e.Title
			}
		}
	}
	return p.Resume(ctx, ws.ID, opts)
}

// Resume waits for an existing webset and, if it goes idle, collects and flattens its items
func (p *Poller) Resume(ctx context.Context, websetID string, opts Options) (*RunResult, error) {
	wait, err := p.Wait(ctx, websetID, opts)
	if err != nil {
		return nil, err
	}

	result := &RunResult{WaitResult: *wait, Query: p.recordedQuery(ctx, websetID)}
	if wait.TimedOut() {
		return result, nil
	}

	items, err := p.Collect(ctx, websetID)
	if err != nil {
		return nil, err
	}
	result.Items = items
	result.Table = Flatten(items, EnrichmentTitles(wait.Webset, opts.Titles))

	p.record(ctx, &storage.Run{
		WebsetID:  websetID,
		Status:    string(wait.Status),
		Outcome:   string(wait.Outcome),
		ItemCount: len(items),
	})
	return result, nil
}

// Wait polls the webset until it is idle or the wait budget runs out
func (p *Poller) Wait(ctx context.Context, websetID string, opts Options) (*WaitResult, error) {
	log := logger.FromContext(ctx).With(zap.String("webset_id", websetID))

	interval, maxWait := opts.Interval, opts.MaxWait
	if interval <= 0 {
		interval = p.interval
	}
	if maxWait <= 0 {
		maxWait = p.maxWait
	}

	start := p.now()
	result := &WaitResult{WebsetID: websetID}

	for {
		if err := ctx.Err(); err != nil {
			metrics.PollOutcomes.WithLabelValues("canceled").Inc()
			return nil, err
		}

		ws, err := p.api.GetWebset(ctx, websetID)
		if err != nil {
			metrics.PollOutcomes.WithLabelValues("failed").Inc()
			return nil, err
		}
		result.Polls++

		if !ws.Status.Known() {
			metrics.PollOutcomes.WithLabelValues("failed").Inc()
			p.record(ctx, &storage.Run{WebsetID: websetID, Status: string(ws.Status), Outcome: "failed"})
			return nil, &UnexpectedStatusError{WebsetID: websetID, Status: ws.Status}
		}

		elapsed := p.now().Sub(start)
		result.Status = ws.Status
		result.Elapsed = elapsed
		result.Found = ws.Found()
		result.Webset = ws

		if ws.Status == models.WebsetStatusIdle {
			result.Outcome = OutcomeIdle
			break
		}
		if elapsed >= maxWait {
			result.Outcome = OutcomeTimedOut
			break
		}

		delay := interval
		if remaining := maxWait - elapsed; remaining < delay {
			delay = remaining
		}
		log.Info("webset still processing",
			zap.String("status", string(ws.Status)),
			zap.Int("found", result.Found),
			zap.Duration("elapsed", elapsed),
			zap.Duration("next_poll", delay),
		)

		if err := p.sleep(ctx, delay); err != nil {
			metrics.PollOutcomes.WithLabelValues("canceled").Inc()
			return nil, err
		}
	}

	metrics.PollOutcomes.WithLabelValues(string(result.Outcome)).Inc()
	log.Info("webset wait finished",
		zap.String("outcome", string(result.Outcome)),
		zap.String("status", string(result.Status)),
		zap.Int("polls", result.Polls),
		zap.Duration("elapsed", result.Elapsed),
	)

	if result.TimedOut() {
		p.record(ctx, &storage.Run{WebsetID: websetID, Status: string(result.Status), Outcome: string(result.Outcome)})
	}
	return result, nil
}

// Collect fetches every item of the webset, following cursors in order
func (p *Poller) Collect(ctx context.Context, websetID string) ([]models.Item, error) {
	items := make([]models.Item, 0)
	seen := make(map[string]bool)
	cursor := ""

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := p.api.ListItems(ctx, websetID, cursor, p.pageSize)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Data...)

		if !page.HasMore || page.NextCursor == "" {
			break
		}
		if seen[page.NextCursor] {
			return nil, &apperr.ProviderError{
				Op:      "list_items",
				Message: fmt.Sprintf("cursor %q repeated", page.NextCursor),
				Cause:   apperr.ErrUnexpectedResponse,
			}
		}
		seen[page.NextCursor] = true
		cursor = page.NextCursor
	}

	metrics.WebsetItemsCollected.Add(float64(len(items)))
	logger.FromContext(ctx).Info("webset items collected",
		zap.String("webset_id", websetID),
		zap.Int("count", len(items)),
	)
	return items, nil
}

// record writes to the journal if there is one. Failures are only logged.
func (p *Poller) record(ctx context.Context, run *storage.Run) {
	if p.journal == nil {
		return
	}
	if err := p.journal.Put(run); err != nil {
		logger.FromContext(ctx).Warn("failed to record webset run",
			zap.String("webset_id", run.WebsetID),
			zap.Error(err),
		)
	}
}

// recordedQuery looks the webset up in the journal. Lookup failures are only logged.
func (p *Poller) recordedQuery(ctx context.Context, websetID string) string {
	if p.journal == nil {
		return ""
	}
	run, err := p.journal.Get(websetID)
	if err != nil {
		logger.FromContext(ctx).Warn("failed to read webset run",
			zap.String("webset_id", websetID),
			zap.Error(err),
		)
		return ""
	}
	if run == nil {
		return ""
	}
	return run.Query
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
