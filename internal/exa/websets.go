package exa

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/young1lin/exa-bridge/internal/models"
	"github.com/young1lin/exa-bridge/pkg/logger"
)

// CreateWebset starts a new webset. The provider begins searching right away.
func (c *Client) CreateWebset(ctx context.Context, req models.CreateWebsetRequest) (*models.Webset, error) {
	var ws models.Webset
	if err := c.do(ctx, "create_webset", http.MethodPost, c.websetsPath+"/websets", nil, req, &ws); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("webset created",
		zap.String("webset_id", ws.ID),
		zap.String("status", string(ws.Status)),
		zap.Int("enrichments", len(ws.Enrichments)),
	)
	return &ws, nil
}

// GetWebset fetches the current state of a webset
func (c *Client) GetWebset(ctx context.Context, id string) (*models.Webset, error) {
	var ws models.Webset
	if err := c.do(ctx, "get_webset", http.MethodGet, c.websetPath(id), nil, nil, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// ListItems fetches one page of webset items. An empty cursor starts from the first page.
func (c *Client) ListItems(ctx context.Context, websetID, cursor string, limit int) (*models.ItemPage, error) {
	var page models.ItemPage
	err := c.do(ctx, "list_items", http.MethodGet, c.websetPath(websetID, "items"), pageQuery(cursor, limit), nil, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}
