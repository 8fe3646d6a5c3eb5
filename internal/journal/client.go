package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"github.com/spherelog/spherelog/internal/model"
)

// Client reads journal collections from the journaling backend over HTTP.
// Transient failures are retried with exponential backoff; the caller only
// sees an error once retries are exhausted.
type Client struct {
	http       *resty.Client
	maxElapsed time.Duration
}

// NewClient constructs a Client for the given base URL.
func NewClient(baseURL string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second)
	return &Client{http: c, maxElapsed: 30 * time.Second}
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	op := func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(out).
			Get(path)
		if err != nil {
			return err
		}
		if resp.IsError() {
			if resp.StatusCode() >= 500 {
				return fmt.Errorf("journal backend %s: status %d", path, resp.StatusCode())
			}
			// 4xx will not heal with retries.
			return backoff.Permanent(fmt.Errorf("journal backend %s: status %d", path, resp.StatusCode()))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.maxElapsed
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

// Partners returns current and past partner profiles.
func (c *Client) Partners(ctx context.Context) ([]model.Entity, error) {
	var raw []model.Entity
	if err := c.getJSON(ctx, "/api/partners", &raw); err != nil {
		return nil, err
	}
	out := make([]model.Entity, 0, len(raw))
	for _, e := range raw {
		out = append(out, NormalizeEntity(e, model.SphereRelationships))
	}
	return out, nil
}

// Family returns family member profiles.
func (c *Client) Family(ctx context.Context) ([]model.Entity, error) {
	var raw []model.Entity
	if err := c.getJSON(ctx, "/api/family", &raw); err != nil {
		return nil, err
	}
	out := make([]model.Entity, 0, len(raw))
	for _, e := range raw {
		out = append(out, NormalizeEntity(e, model.SphereFamily))
	}
	return out, nil
}

// Friends returns friend profiles.
func (c *Client) Friends(ctx context.Context) ([]model.Entity, error) {
	var raw []model.Entity
	if err := c.getJSON(ctx, "/api/friends", &raw); err != nil {
		return nil, err
	}
	out := make([]model.Entity, 0, len(raw))
	for _, e := range raw {
		out = append(out, NormalizeEntity(e, model.SphereFriends))
	}
	return out, nil
}

// memoryRecord is the wire shape of a memory; ProfileID predates EntityID
// in the journal schema and survives in old rows.
type memoryRecord struct {
	model.Memory
	ProfileID string `json:"profileId,omitempty"`
}

// Memories returns all memory records across spheres, normalized.
func (c *Client) Memories(ctx context.Context) ([]model.Memory, error) {
	var raw []memoryRecord
	if err := c.getJSON(ctx, "/api/memories", &raw); err != nil {
		return nil, err
	}
	out := make([]model.Memory, 0, len(raw))
	for _, r := range raw {
		out = append(out, NormalizeMemory(r.Memory, r.ProfileID))
	}
	return out, nil
}
