package imgix

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/imgix/contentful/internal/cache"
	"github.com/imgix/contentful/internal/logging"
	"github.com/imgix/contentful/internal/models"
)

// sourcesPageSize is the network-layer page size for the source listing.
const sourcesPageSize = 200

type sourceEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type sourceRecord struct {
	ID         string `json:"id"`
	Attributes struct {
		Name       string `json:"name"`
		Enabled    bool   `json:"enabled"`
		Deployment struct {
			Type            string   `json:"type"`
			ImgixSubdomains []string `json:"imgix_subdomains"`
		} `json:"deployment"`
	} `json:"attributes"`
}

// ListSources fetches every configured Source and returns the eligible ones:
// enabled and not a webproxy deployment. A transport failure is logged and
// yields an empty slice; the caller decides whether emptiness is an error.
func (c *Client) ListSources(ctx context.Context) []models.Source {
	path := "sources?sort=name&page[number]=0&page[size]=" + strconv.Itoa(sourcesPageSize)

	data, err := c.getCached(ctx, path, cache.SourcesKey())
	if err != nil {
		c.logError("failed to list sources", err)
		return []models.Source{}
	}

	var envelope sourceEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logError("failed to decode source listing", err)
		return []models.Source{}
	}

	eligible := []models.Source{}
	for _, raw := range coerceDataArray(envelope.Data) {
		var record sourceRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			c.logError("failed to decode source record", err)
			continue
		}
		if !record.Attributes.Enabled {
			continue
		}
		if record.Attributes.Deployment.Type == string(models.SourceTypeWebProxy) {
			continue
		}

		// A source may expose several subdomains; the first one serves.
		domain := ""
		if len(record.Attributes.Deployment.ImgixSubdomains) > 0 {
			domain = record.Attributes.Deployment.ImgixSubdomains[0]
		}

		eligible = append(eligible, models.Source{
			ID:     record.ID,
			Name:   record.Attributes.Name,
			Type:   models.SourceType(record.Attributes.Deployment.Type),
			Domain: domain,
		})
	}

	return eligible
}

func (c *Client) logError(msg string, err error) {
	if c.logger == nil {
		return
	}
	if apiErr, ok := err.(*APIError); ok {
		c.logger.Error(msg, logging.WithField("status", apiErr.StatusCode),
			logging.WithField("detail", apiErr.Detail()))
		return
	}
	c.logger.Error(msg, logging.WithField("error", err.Error()))
}
