package imgix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/imgix/contentful/internal/cache"
	"github.com/imgix/contentful/internal/models"
	"github.com/imgix/contentful/internal/params"
)

type assetEnvelope struct {
	Data json.RawMessage `json:"data"`
	Meta struct {
		Cursor struct {
			TotalRecords json.RawMessage `json:"totalRecords"`
		} `json:"cursor"`
	} `json:"meta"`
}

type assetRecord struct {
	Attributes map[string]interface{} `json:"attributes"`
}

// AssetPage is one page of a Source's asset listing plus the listing's total
// record count from the response cursor.
type AssetPage struct {
	Assets       []models.Asset
	TotalRecords int
}

// ListQuery builds the default (unfiltered) asset listing query for a page.
func ListQuery(pageIndex int) string {
	return fmt.Sprintf("?page[number]=%d&page[size]=%d", pageIndex, models.PageSize)
}

// SearchQuery builds an OR-combined filter query against categories,
// keywords, and origin path. The term is NFC-normalized so visually
// identical input always produces the same filter.
func SearchQuery(term string, pageIndex int) string {
	escaped := url.QueryEscape(norm.NFC.String(term))
	return fmt.Sprintf(
		"?filter[or:categories]=%s&filter[or:keywords]=%s&filter[or:origin_path]=%s&page[number]=%d&page[size]=%d",
		escaped, escaped, escaped, pageIndex, models.PageSize)
}

// FetchAssetPage requests one page of a Source's assets using the given
// query string (from ListQuery or SearchQuery). Each asset's Src is the
// origin-relative path; callers qualify it with QualifyAssetURLs. The
// JSON-valued attribute fields are stringified for the UI layer.
func (c *Client) FetchAssetPage(ctx context.Context, sourceID, query string) (AssetPage, error) {
	path := "assets/" + sourceID + query

	data, err := c.getCached(ctx, path, cache.AssetPageKey(sourceID, query))
	if err != nil {
		c.logError("failed to fetch asset page", err)
		return AssetPage{}, err
	}

	var envelope assetEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logError("failed to decode asset page", err)
		return AssetPage{}, fmt.Errorf("failed to decode asset page: %w", err)
	}

	page := AssetPage{
		Assets:       []models.Asset{},
		TotalRecords: parseTotalRecords(envelope.Meta.Cursor.TotalRecords),
	}

	for _, raw := range coerceDataArray(envelope.Data) {
		var record assetRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			c.logError("failed to decode asset record", err)
			continue
		}

		attributes := params.StringifyJSONFields(record.Attributes, "custom_fields", "tags")
		stringifyDominantColors(attributes)

		src, _ := attributes["origin_path"].(string)
		page.Assets = append(page.Assets, models.Asset{
			Src:        src,
			Attributes: attributes,
		})
	}

	return page, nil
}

// stringifyDominantColors handles the one stringified field that lives a
// level deeper than the rest.
func stringifyDominantColors(attributes map[string]interface{}) {
	colors, ok := attributes["colors"].(map[string]interface{})
	if !ok {
		return
	}
	normalized := params.StringifyJSONFields(colors, "dominant_colors")
	attributes["colors"] = normalized
}

// parseTotalRecords tolerates the cursor count arriving as either a JSON
// number or a quoted string. Anything unparseable counts as zero.
func parseTotalRecords(raw json.RawMessage) int {
	text := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if text == "" || text == "null" {
		return 0
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	return n
}

// QualifyAssetURLs rewrites each asset's origin-relative path into a
// fully-qualified rendering URL on the Source's imgix subdomain. Invoked
// once per fetched page; it does not detect already-qualified input.
func QualifyAssetURLs(assets []models.Asset, domain string) []models.Asset {
	qualified := make([]models.Asset, len(assets))
	for i, asset := range assets {
		asset.Src = "https://" + domain + ".imgix.net" + asset.Src
		qualified[i] = asset
	}
	return qualified
}

// TotalPageCount computes the page count for a listing at the fixed gallery
// page size. Zero records means zero pages, never a division artifact.
func TotalPageCount(totalRecords int) int {
	if totalRecords <= 0 {
		return 0
	}
	return (totalRecords + models.PageSize - 1) / models.PageSize
}
