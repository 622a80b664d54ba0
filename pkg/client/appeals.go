package client

import (
	"context"
	"fmt"
	"net/url"
)

// AppealsClient covers appeal generation and the appeal life cycle.
type AppealsClient struct {
	client *Client
}

type appealList struct {
	Items []Appeal `json:"items"`
}

// Generate drafts the next appeal round for a request.  It fails with
// TRK_004 when the request's effective status is not appealable.
func (a *AppealsClient) Generate(ctx context.Context, requestID string, grounds []Ground) (*Appeal, error) {
	if requestID == "" {
		return nil, fmt.Errorf("client: request id is required")
	}
	if grounds == nil {
		grounds = []Ground{}
	}
	var out Appeal
	body := map[string]interface{}{"grounds": grounds}
	if err := a.client.post(ctx, requestPath(requestID, "appeals"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns every appeal round of a request, oldest first.
func (a *AppealsClient) List(ctx context.Context, requestID string) ([]Appeal, error) {
	var out appealList
	if err := a.client.get(ctx, requestPath(requestID, "appeals"), nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Get fetches one appeal.
func (a *AppealsClient) Get(ctx context.Context, appealID string) (*Appeal, error) {
	var out Appeal
	if err := a.client.get(ctx, "/api/v1/appeals/"+url.PathEscape(appealID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatus moves an appeal along its own life cycle.
func (a *AppealsClient) UpdateStatus(ctx context.Context, appealID, status, note string) (*Appeal, error) {
	var out Appeal
	body := map[string]string{"status": status, "note": note}
	if err := a.client.post(ctx, "/api/v1/appeals/"+url.PathEscape(appealID)+"/status", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

//Personal.AI order the ending
