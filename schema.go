package pandugo

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// GetGuideSchema fetches the guide metadata schema definition.
func (c *Client) GetGuideSchema(ctx context.Context) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, endpointGuideSchema, nil, nil, c.resourceTTL)
	if err != nil {
		return nil, &ResourceError{Resource: "guide schema", Cause: err}
	}
	return body, nil
}

// GetVisitorSchema fetches the visitor metadata schema definition.
func (c *Client) GetVisitorSchema(ctx context.Context) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, endpointVisitorSchema, nil, nil, c.resourceTTL)
	if err != nil {
		return nil, &ResourceError{Resource: "visitor schema", Cause: err}
	}
	return body, nil
}

// ResourceOverview summarizes one resource type in a DataOverview.
type ResourceOverview struct {
	Count  int             `json:"count"`
	Sample json.RawMessage `json:"sample,omitempty"`
}

// DataOverview is a snapshot of the data available upstream: counts and a
// sample record per resource type.
type DataOverview struct {
	Timestamp time.Time        `json:"timestamp"`
	Guides    ResourceOverview `json:"guides"`
	Features  ResourceOverview `json:"features"`
	Pages     ResourceOverview `json:"pages"`
	Reports   ResourceOverview `json:"reports"`
}

// GetDataOverview fetches all four resource lists and reports their sizes
// plus a sample record each. Each list call goes through the full pipeline,
// so four tokens are consumed.
func (c *Client) GetDataOverview(ctx context.Context) (*DataOverview, error) {
	guides, err := c.GetGuides(ctx, ListParams{})
	if err != nil {
		return nil, err
	}
	features, err := c.GetFeatures(ctx, ListParams{})
	if err != nil {
		return nil, err
	}
	pages, err := c.GetPages(ctx, ListParams{})
	if err != nil {
		return nil, err
	}
	reports, err := c.GetReports(ctx, ListParams{})
	if err != nil {
		return nil, err
	}

	overview := &DataOverview{
		Timestamp: time.Now(),
		Guides:    ResourceOverview{Count: len(guides)},
		Features:  ResourceOverview{Count: len(features)},
		Pages:     ResourceOverview{Count: len(pages)},
		Reports:   ResourceOverview{Count: len(reports)},
	}
	if len(guides) > 0 {
		overview.Guides.Sample = guides[0].Raw
	}
	if len(features) > 0 {
		overview.Features.Sample = features[0].Raw
	}
	if len(pages) > 0 {
		overview.Pages.Sample = pages[0].Raw
	}
	if len(reports) > 0 {
		overview.Reports.Sample = reports[0].Raw
	}
	return overview, nil
}
