package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// RequestsClient covers /api/v1/requests.
type RequestsClient struct {
	client *Client
}

// CreateRequest is the payload for a new tracked request.
type CreateRequest struct {
	ReferenceID        string   `json:"reference_id,omitempty"`
	Agency             string   `json:"agency"`
	Jurisdiction       string   `json:"jurisdiction"`
	Topic              string   `json:"topic"`
	TemplateID         string   `json:"template_id,omitempty"`
	RenderedText       string   `json:"rendered_text,omitempty"`
	DateFiled          string   `json:"date_filed"`
	Flags              []string `json:"flags,omitempty"`
	FeeWaiverRequested bool     `json:"fee_waiver_requested"`
}

// ListRequestsOptions filters a request listing.
type ListRequestsOptions struct {
	Jurisdiction string
	Status       string
	Agency       string
	Limit        int
	Offset       int
}

// RequestList is one page of requests.
type RequestList struct {
	Items  []RequestView `json:"items"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ResponseEvent reports an analyzed agency reply.
type ResponseEvent struct {
	ReceivedAt         *time.Time `json:"received_at,omitempty"`
	PageCount          int        `json:"page_count"`
	PagesWithheld      int        `json:"pages_withheld"`
	Exemptions         []string   `json:"exemptions_cited,omitempty"`
	FeeAssessed        *float64   `json:"fee_assessed,omitempty"`
	FeeWaiverGranted   *bool      `json:"fee_waiver_granted,omitempty"`
	RedactionSuspected bool       `json:"redaction_suspicion_flag"`
	Summary            string     `json:"summary,omitempty"`
}

type overdueList struct {
	AsOf  time.Time     `json:"as_of"`
	Items []RequestView `json:"items"`
}

func requestPath(id string, parts ...string) string {
	p := "/api/v1/requests/" + url.PathEscape(id)
	if len(parts) > 0 {
		p += "/" + strings.Join(parts, "/")
	}
	return p
}

// Create registers a new request and returns it with its computed deadline.
func (r *RequestsClient) Create(ctx context.Context, req *CreateRequest) (*RequestView, error) {
	if req == nil {
		return nil, fmt.Errorf("client: create request is nil")
	}
	var out RequestView
	if err := r.client.post(ctx, "/api/v1/requests", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches one request.
func (r *RequestsClient) Get(ctx context.Context, id string) (*RequestView, error) {
	if id == "" {
		return nil, fmt.Errorf("client: request id is required")
	}
	var out RequestView
	if err := r.client.get(ctx, requestPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List pages through requests.
func (r *RequestsClient) List(ctx context.Context, opts *ListRequestsOptions) (*RequestList, error) {
	q := url.Values{}
	if opts != nil {
		if opts.Jurisdiction != "" {
			q.Set("jurisdiction", opts.Jurisdiction)
		}
		if opts.Status != "" {
			q.Set("status", opts.Status)
		}
		if opts.Agency != "" {
			q.Set("agency", opts.Agency)
		}
		if opts.Limit > 0 {
			q.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			q.Set("offset", strconv.Itoa(opts.Offset))
		}
	}
	var out RequestList
	if err := r.client.get(ctx, "/api/v1/requests", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatus applies a manual transition.  expectedVersion 0 skips the
// concurrency check.
func (r *RequestsClient) UpdateStatus(ctx context.Context, id, status, note string, expectedVersion int) (*RequestView, error) {
	body := map[string]interface{}{"status": status, "note": note}
	if expectedVersion > 0 {
		body["expected_version"] = expectedVersion
	}
	var out RequestView
	if err := r.client.post(ctx, requestPath(id, "status"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordResponse records an agency reply.
func (r *RequestsClient) RecordResponse(ctx context.Context, id string, ev *ResponseEvent) (*RequestView, error) {
	if ev == nil {
		return nil, fmt.Errorf("client: response event is nil")
	}
	var out RequestView
	if err := r.client.post(ctx, requestPath(id, "response"), ev, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmFiling reports the outcome of the filing channel.
func (r *RequestsClient) ConfirmFiling(ctx context.Context, id string, filedAt time.Time, failure string) (*RequestView, error) {
	body := map[string]interface{}{}
	if !filedAt.IsZero() {
		body["filed_at"] = formatDate(filedAt)
	}
	if failure != "" {
		body["failed"] = true
		body["error"] = failure
	}
	var out RequestView
	if err := r.client.post(ctx, requestPath(id, "confirm"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ApplyExtension records a statutory extension and recomputes the deadline.
func (r *RequestsClient) ApplyExtension(ctx context.Context, id, reason string) (*RequestView, error) {
	var out RequestView
	if err := r.client.post(ctx, requestPath(id, "extension"), map[string]string{"reason": reason}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddNote appends a note.
func (r *RequestsClient) AddNote(ctx context.Context, id, text string) (*RequestView, error) {
	var out RequestView
	if err := r.client.post(ctx, requestPath(id, "notes"), map[string]string{"text": text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Overdue lists requests past deadline as of the given date.  A zero asOf
// uses the server's today.
func (r *RequestsClient) Overdue(ctx context.Context, asOf time.Time) ([]RequestView, error) {
	q := url.Values{}
	if !asOf.IsZero() {
		q.Set("as_of", formatDate(asOf))
	}
	var out overdueList
	if err := r.client.get(ctx, "/api/v1/requests/overdue", q, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Stats returns counts by status and jurisdiction.
func (r *RequestsClient) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := r.client.get(ctx, "/api/v1/requests/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Document returns the rendered request text.
func (r *RequestsClient) Document(ctx context.Context, id string) (string, error) {
	raw, err := r.client.send(ctx, http.MethodGet, requestPath(id, "document"), nil)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

//Personal.AI order the ending
