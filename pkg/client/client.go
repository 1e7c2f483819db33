package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ferrall/leasehold/pkg/types"
)

// APIError is a non-2xx answer from the daemon.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("leasehold: %s (http %d)", e.Message, e.Code)
}

// Client talks to a leasehold daemon's HTTP surface.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var failure struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&failure); err != nil || failure.Error == "" {
			failure.Error = resp.Status
		}
		return &APIError{Code: resp.StatusCode, Message: failure.Error}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ResourceStatus mirrors the daemon's per-resource status document.
type ResourceStatus struct {
	Name                string  `json:"name"`
	State               string  `json:"state"`
	Epoch               uint64  `json:"epoch"`
	HolderID            string  `json:"holder_id"`
	LeaseID             string  `json:"lease_id"`
	TTLRemainingSeconds float64 `json:"ttl_remaining_seconds"`
	Expired             bool    `json:"expired"`
}

// DeadlockReport is the cycle summary from /v1/deadlock or /v1/status.
type DeadlockReport struct {
	Detected bool     `json:"detected"`
	Chains   []string `json:"chains"`
	Edges    int      `json:"edges"`
}

// Status is the dashboard summary.
type Status struct {
	Resources []ResourceStatus `json:"resources"`
	Deadlock  DeadlockReport   `json:"deadlock"`
}

func (c *Client) Status(ctx context.Context) (*Status, error) {
	var out Status
	if err := c.do(ctx, http.MethodGet, "/v1/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Snapshot(ctx context.Context, resource string) (*ResourceStatus, error) {
	var out ResourceStatus
	if err := c.do(ctx, http.MethodGet, "/v1/resources/"+resource, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Grant leases a resource to holder for ttl and returns the minted lease.
func (c *Client) Grant(ctx context.Context, resource string, holder types.HolderID, ttl time.Duration) (*types.Lease, error) {
	req := map[string]any{
		"holder_id":   holder.String(),
		"ttl_seconds": int64(ttl / time.Second),
	}
	var resp struct {
		LeaseID    string `json:"lease_id"`
		Epoch      uint64 `json:"epoch"`
		TTLSeconds int64  `json:"ttl_seconds"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/resources/"+resource+"/lease", req, &resp); err != nil {
		return nil, err
	}

	leaseID, err := uuid.Parse(resp.LeaseID)
	if err != nil {
		return nil, err
	}
	return &types.Lease{
		LeaseID:  leaseID,
		Holder:   holder,
		Epoch:    types.Epoch(resp.Epoch),
		Duration: time.Duration(resp.TTLSeconds) * time.Second,
	}, nil
}

func (c *Client) Reclaim(ctx context.Context, resource string) error {
	return c.do(ctx, http.MethodPost, "/v1/resources/"+resource+"/reclaim", nil, nil)
}

func (c *Client) AddWait(ctx context.Context, from, to uint64) error {
	return c.do(ctx, http.MethodPost, "/v1/waits", map[string]uint64{"from": from, "to": to}, nil)
}

func (c *Client) RemoveWait(ctx context.Context, from, to uint64) error {
	return c.do(ctx, http.MethodDelete, "/v1/waits", map[string]uint64{"from": from, "to": to}, nil)
}

func (c *Client) Deadlock(ctx context.Context) (*DeadlockReport, error) {
	var out DeadlockReport
	if err := c.do(ctx, http.MethodGet, "/v1/deadlock", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
