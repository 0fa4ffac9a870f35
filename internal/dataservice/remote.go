package dataservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2/clientcredentials"
)

// maxBody caps how much of an upstream response is read.
const maxBody = 16 << 20

// Remote talks to the data service over HTTP.
type Remote struct {
	baseURL string
	client  *http.Client
}

// RemoteOptions configures a Remote.
type RemoteOptions struct {
	BaseURL string
	// ClientID, ClientSecret and TokenURL enable OAuth2 client credentials.
	ClientID     string
	ClientSecret string
	TokenURL     string
	// Client overrides the HTTP client. Ignored when client credentials are set.
	Client *http.Client
}

// NewRemote returns a Remote for opts. The client sets no timeout of its own.
func NewRemote(opts RemoteOptions) *Remote {
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	if opts.ClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     opts.TokenURL,
		}
		client = cc.Client(context.Background())
	}
	return &Remote{baseURL: opts.BaseURL, client: client}
}

// ListUsers fetches GET {base}/users and returns the body unchanged.
func (c *Remote) ListUsers(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' || !json.Valid(body) {
		return nil, fmt.Errorf("%w: response is not a JSON array", ErrUpstream)
	}
	return json.RawMessage(body), nil
}
