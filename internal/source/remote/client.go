// Package remote reads donations and donor identities from the donation
// platform's HTTP API.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"donorboard/internal/core"
	"donorboard/internal/source"
)

const (
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 32 << 20
)

// Config describes how to reach and authenticate against the platform API.
// When ClientID is set the client uses the OAuth2 client credentials flow;
// otherwise a non-empty Token is sent as a static bearer token.
type Config struct {
	BaseURL      string
	Token        string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Timeout      time.Duration
}

type Client struct {
	base *url.URL
	http *http.Client
}

var _ source.Fetcher = (*Client)(nil)

func New(ctx context.Context, cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid remote api url %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{base: base, http: newHTTPClient(ctx, cfg, timeout)}, nil
}

func newHTTPClient(ctx context.Context, cfg Config, timeout time.Duration) *http.Client {
	plain := &http.Client{Timeout: timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, plain)

	var hc *http.Client
	switch {
	case cfg.ClientID != "":
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		hc = cc.Client(ctx)
	case cfg.Token != "":
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}))
	default:
		return plain
	}
	hc.Timeout = timeout
	return hc
}

// ListDonations calls GET /donations?orgId=.
func (c *Client) ListDonations(ctx context.Context, filter source.DonationFilter) ([]core.DonationRecord, error) {
	const op = "list donations"
	q := url.Values{}
	if filter.OrgID != "" {
		q.Set("orgId", filter.OrgID)
	}
	resp, err := c.get(ctx, q, "donations")
	if err != nil {
		return nil, &source.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &source.TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(statusText(resp))}
	}

	var payloads []source.DonationPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payloads); err != nil {
		return nil, &source.TransportError{Op: "decode donations", Err: err}
	}
	donations, err := source.DecodeDonations(ctx, payloads)
	if err != nil {
		return nil, &source.TransportError{Op: "decode donations", Err: err}
	}
	return source.FilterByOrg(donations, filter.OrgID), nil
}

// GetDonorIdentity calls GET /donors/{id}. A 404 is reported as source.ErrNotFound.
func (c *Client) GetDonorIdentity(ctx context.Context, donorID string) (core.DonorIdentity, error) {
	const op = "get donor identity"
	resp, err := c.get(ctx, nil, "donors", donorID)
	if err != nil {
		return core.DonorIdentity{}, &source.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return core.DonorIdentity{}, fmt.Errorf("donor %q: %w", donorID, source.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return core.DonorIdentity{}, &source.TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(statusText(resp))}
	}

	var p source.IdentityPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&p); err != nil {
		return core.DonorIdentity{}, fmt.Errorf("decode donor %q: %w", donorID, err)
	}
	return source.DecodeIdentity(p, donorID)
}

func (c *Client) get(ctx context.Context, q url.Values, segments ...string) (*http.Response, error) {
	u := c.base.JoinPath(segments...)
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return c.http.Do(req)
}

func statusText(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(b))
	if msg == "" {
		return http.StatusText(resp.StatusCode)
	}
	return msg
}
