package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// AlarmService handles alarm feed and lifecycle calls
type AlarmService struct {
	client *Client
}

// AlarmListOptions filters the alarm feed. Zero values use server defaults.
type AlarmListOptions struct {
	Status string
	Type   string
	Page   int
	Limit  int
}

// List retrieves one page of the alarm feed
func (s *AlarmService) List(ctx context.Context, opts *AlarmListOptions) (*Feed, error) {
	query := url.Values{}
	if opts != nil {
		if opts.Status != "" {
			query.Set("status", opts.Status)
		}
		if opts.Type != "" {
			query.Set("type", opts.Type)
		}
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.Limit > 0 {
			query.Set("limit", strconv.Itoa(opts.Limit))
		}
	}

	path := "/api/v1/alarms"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	feed := &Feed{Items: []FeedItem{}}
	if _, err := s.client.doRequest(ctx, http.MethodGet, path, nil, &feed.Items, &feed.Meta); err != nil {
		return nil, err
	}
	return feed, nil
}

// Apply runs a batch action
func (s *AlarmService) Apply(ctx context.Context, req ActionRequest) (*ActionResult, error) {
	res := &ActionResult{}
	var meta struct {
		Processed int `json:"processed"`
	}
	msg, err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/alarms", req, &res.Alarms, &meta)
	if err != nil {
		return nil, err
	}
	res.Message = msg
	res.Processed = meta.Processed
	return res, nil
}

// Acknowledge acknowledges the given alarms
func (s *AlarmService) Acknowledge(ctx context.Context, ids ...int64) (*ActionResult, error) {
	return s.Apply(ctx, ActionRequest{Action: "acknowledge", AlarmIDs: ids})
}

// Silence silences the given alarms. A zero duration uses the server default.
func (s *AlarmService) Silence(ctx context.Context, seconds int, ids ...int64) (*ActionResult, error) {
	req := ActionRequest{Action: "silence", AlarmIDs: ids}
	if seconds > 0 {
		req.SilenceDuration = &seconds
	}
	return s.Apply(ctx, req)
}

// Resolve resolves the given alarms
func (s *AlarmService) Resolve(ctx context.Context, ids ...int64) (*ActionResult, error) {
	return s.Apply(ctx, ActionRequest{Action: "resolve", AlarmIDs: ids})
}

// ResolvePatient resolves every open alarm of a discharged patient
func (s *AlarmService) ResolvePatient(ctx context.Context, patientID int64) (*ActionResult, error) {
	res := &ActionResult{}
	var meta struct {
		Processed int `json:"processed"`
	}
	path := fmt.Sprintf("/api/v1/patients/%d/alarms/resolve", patientID)
	msg, err := s.client.doRequest(ctx, http.MethodPost, path, nil, &res.Alarms, &meta)
	if err != nil {
		return nil, err
	}
	res.Message = msg
	res.Processed = meta.Processed
	return res, nil
}
