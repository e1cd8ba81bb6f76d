// Package backend is a read-only client for the agent-services backend:
// the service list, per-service deployment status, and the wallet list.
// All write operations (deploys, funding) live elsewhere; this client is
// only the data source for the state store.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/vietddude/agentboard/internal/core/domain"
)

// Client talks to the backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a backend client for a base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// ListServices fetches the full service list.
func (c *Client) ListServices(ctx context.Context) ([]domain.Service, error) {
	var services []domain.Service
	if err := c.getJSON(ctx, "/api/services", &services); err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

// GetDeploymentStatus fetches the current deployment status of one service.
func (c *Client) GetDeploymentStatus(ctx context.Context, serviceHash string) (domain.DeploymentStatus, error) {
	var deployment struct {
		Status domain.DeploymentStatus `json:"status"`
	}
	path := "/api/services/" + url.PathEscape(serviceHash) + "/deployment"
	if err := c.getJSON(ctx, path, &deployment); err != nil {
		return "", fmt.Errorf("get deployment status: %w", err)
	}
	return deployment.Status, nil
}

// ListWallets fetches the user's wallet records.
func (c *Client) ListWallets(ctx context.Context) ([]domain.Wallet, error) {
	var wallets []domain.Wallet
	if err := c.getJSON(ctx, "/api/wallets", &wallets); err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return wallets, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
