package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClient talks to the external wallet service:
//
//	POST {base}/debit        {userId, amount, tag}        -> {balance}
//	POST {base}/credit       {userId, amount, tag, note}  -> {balance}
//	POST {base}/match-rounds {userId, game, bet, payout, metadata}
//
// 402 maps to ErrInsufficientFunds. The idempotency key travels in the
// Idempotency-Key header.
type HTTPClient struct {
	base   string
	token  string
	client *http.Client
}

type walletRequest struct {
	UserID string `json:"userId"`
	Amount int    `json:"amount"`
	Tag    string `json:"tag,omitempty"`
	Note   string `json:"note,omitempty"`
}

type walletResponse struct {
	Balance int    `json:"balance"`
	Error   string `json:"error,omitempty"`
}

func NewHTTPClient(baseURL, token string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse wallet url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("wallet url must be http or https, got %q", baseURL)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		base:   strings.TrimRight(u.String(), "/"),
		token:  token,
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPClient) Debit(ctx context.Context, userID string, amount int, tag string) (int, error) {
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	var resp walletResponse
	err := c.post(ctx, "/debit", walletRequest{UserID: userID, Amount: amount, Tag: tag}, &resp)
	return resp.Balance, err
}

func (c *HTTPClient) Credit(ctx context.Context, userID string, amount int, tag, note string) (int, error) {
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	var resp walletResponse
	err := c.post(ctx, "/credit", walletRequest{UserID: userID, Amount: amount, Tag: tag, Note: note}, &resp)
	return resp.Balance, err
}

func (c *HTTPClient) RecordMatchRound(ctx context.Context, round MatchRound) error {
	return c.post(ctx, "/match-rounds", round, nil)
}

func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if key := IdempotencyKey(ctx); key != "" {
		req.Header.Set("Idempotency-Key", key)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusPaymentRequired:
		return ErrInsufficientFunds
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s %s", ErrUnavailable, resp.Status, strings.TrimSpace(string(data)))
	case resp.StatusCode >= 300:
		return fmt.Errorf("wallet %s: %s %s", path, resp.Status, strings.TrimSpace(string(data)))
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode wallet response: %w", err)
	}
	return nil
}
