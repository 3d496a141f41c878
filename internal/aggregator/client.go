package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dvloznov/bank-sync/internal/logger"
)

// TokenProvider supplies a bearer credential for each request.
type TokenProvider interface {
	Token() (string, error)
}

// Client is an HTTP client for the open-banking aggregator API.
type Client struct {
	origin     string
	httpClient *http.Client
	tokens     TokenProvider
}

// NewClient creates a client for the API at the given origin.
func NewClient(origin string, tokens TokenProvider) *Client {
	return &Client{
		origin:     origin,
		httpClient: &http.Client{},
		tokens:     tokens,
	}
}

// ProbeSession checks whether the session is still accepted by the remote
// service. A nil return means the session is live; any error means it must
// be treated as invalid.
func (c *Client) ProbeSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodGet, "/sessions/"+sessionID, nil, nil, nil)
}

// GetApplication returns the registered application details.
func (c *Client) GetApplication(ctx context.Context) (*Application, error) {
	var app Application
	if err := c.do(ctx, http.MethodGet, "/application", nil, nil, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// StartAuthorization submits a consent request and returns the URL the
// end user must open to authorize access.
func (c *Client) StartAuthorization(ctx context.Context, req AuthorizationRequest) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth", nil, req, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// CreateSession exchanges an authorization code for a new session.
func (c *Client) CreateSession(ctx context.Context, code string) (*Session, error) {
	body := map[string]string{"code": code}
	var session Session
	if err := c.do(ctx, http.MethodPost, "/sessions", nil, body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// FetchTransactions retrieves all transactions for one account over the
// date range, following the continuation-key protocol until the remote
// omits the key. Any non-success response discards the whole fetch.
func (c *Client) FetchTransactions(ctx context.Context, accountUID, dateFrom, dateTo string) ([]RawTransaction, error) {
	log := logger.FromContext(ctx)
	log.Info().
		Str("date_from", dateFrom).
		Str("date_to", dateTo).
		Msg("Fetching transactions")

	params := url.Values{}
	params.Set("date_from", dateFrom)
	params.Set("date_to", dateTo)
	params.Set("strategy", "default")

	var all []RawTransaction
	for {
		var page struct {
			Transactions    []RawTransaction `json:"transactions"`
			ContinuationKey string           `json:"continuation_key"`
		}
		path := "/accounts/" + accountUID + "/transactions"
		if err := c.do(ctx, http.MethodGet, path, params, nil, &page); err != nil {
			return nil, err
		}

		all = append(all, page.Transactions...)
		log.Info().
			Int("batch", len(page.Transactions)).
			Int("total", len(all)).
			Msg("Fetched transaction batch")

		if page.ContinuationKey == "" {
			break
		}
		params.Set("continuation_key", page.ContinuationKey)
	}

	return all, nil
}

// do issues one authenticated request and decodes the JSON response into
// out when out is non-nil. Non-2xx responses are returned as errors.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.origin + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("aggregator: %s %s: marshal body: %w", method, path, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("aggregator: %s %s: %w", method, path, err)
	}
	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("aggregator: %s %s: credential: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("aggregator: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("aggregator: %s %s: status %d: %s", method, path, resp.StatusCode, detail)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("aggregator: %s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}
