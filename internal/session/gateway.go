package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskdesk/internal/credstore"
)

// Request describes one authenticated call. It is a value: the gateway
// never mutates it, so it can be replayed byte for byte.
type Request struct {
	Method string
	Path   string
	Body   []byte
	Header http.Header
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Gateway is the single egress point for authenticated API calls.
type Gateway struct {
	baseURL   string
	client    *http.Client
	store     credstore.Store
	refresher *Refresher
	logger    *zap.Logger
}

func NewGateway(baseURL string, client *http.Client, store credstore.Store, refresher *Refresher, logger *zap.Logger) *Gateway {
	return &Gateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    client,
		store:     store,
		refresher: refresher,
		logger:    logger,
	}
}

// Do sends req with the current access token. A 401 triggers one refresh
// and one replay; a 401 on the replay ends the session. Every other status
// is returned unchanged. Transport failures wrap ErrUnavailable.
func (g *Gateway) Do(ctx context.Context, req Request) (*Response, error) {
	const maxAttempts = 2

	for attempt := 1; ; attempt++ {
		token, err := g.store.Get(ctx, credstore.Access)
		if err != nil {
			return nil, fmt.Errorf("read access token: %w", err)
		}

		resp, err := g.send(ctx, req, token)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusUnauthorized {
			return resp, nil
		}

		if attempt == maxAttempts {
			g.logger.Warn("request rejected after refresh",
				zap.String("method", req.Method), zap.String("path", req.Path))
			return nil, g.refresher.Lose(ctx, ErrAuthExpired)
		}

		// Refresh is a no-op if another request already replaced token.
		if _, err := g.refresher.Refresh(ctx, token); err != nil {
			return nil, err
		}
	}
}

func (g *Gateway) send(ctx context.Context, req Request, token string) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, g.baseURL+req.Path, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, req.Method, req.Path, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: raw}, nil
}
