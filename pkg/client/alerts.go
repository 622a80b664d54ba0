package client

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// AlertsClient covers deadline alerts.
type AlertsClient struct {
	client *Client
}

// ListAlertsOptions filters the alert log.
type ListAlertsOptions struct {
	RequestID string
	Kind      string
	Since     time.Time
	Limit     int
	Offset    int
}

// AlertList is one page of alerts.
type AlertList struct {
	Items []Alert `json:"items"`
	Total int64   `json:"total"`
}

type thresholdList struct {
	Jurisdiction string      `json:"jurisdiction,omitempty"`
	Thresholds   []Threshold `json:"thresholds"`
}

// Scan runs one alert scan.  Alerts already raised for a threshold are not
// raised again, so repeated scans are safe.
func (a *AlertsClient) Scan(ctx context.Context, asOf time.Time) (*ScanResult, error) {
	path := "/api/v1/alerts/scan"
	if !asOf.IsZero() {
		path += "?" + url.Values{"as_of": {formatDate(asOf)}}.Encode()
	}
	var out ScanResult
	if err := a.client.post(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List pages through raised alerts.
func (a *AlertsClient) List(ctx context.Context, opts *ListAlertsOptions) (*AlertList, error) {
	q := url.Values{}
	if opts != nil {
		if opts.RequestID != "" {
			q.Set("request_id", opts.RequestID)
		}
		if opts.Kind != "" {
			q.Set("kind", opts.Kind)
		}
		if !opts.Since.IsZero() {
			q.Set("since", formatDate(opts.Since))
		}
		if opts.Limit > 0 {
			q.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			q.Set("offset", strconv.Itoa(opts.Offset))
		}
	}
	var out AlertList
	if err := a.client.get(ctx, "/api/v1/alerts", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Thresholds returns the thresholds in force, optionally for one jurisdiction.
func (a *AlertsClient) Thresholds(ctx context.Context, jurisdiction string) ([]Threshold, error) {
	q := url.Values{}
	if jurisdiction != "" {
		q.Set("jurisdiction", jurisdiction)
	}
	var out thresholdList
	if err := a.client.get(ctx, "/api/v1/alerts/thresholds", q, &out); err != nil {
		return nil, err
	}
	return out.Thresholds, nil
}

//Personal.AI order the ending
