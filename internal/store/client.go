package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/terrenospy/terrenospy/internal/terreno"
)

// Client talks to the document store endpoints of a running server. One
// attempt per call, no retries; the caller owns the fallback policy.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient creates a store client. A nil http.Client means
// http.DefaultClient (no timeout beyond the transport's own).
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), hc: hc}
}

// Fetch loads the listing document. The request carries a cache-busting
// query parameter so intermediaries never serve a stale document.
func (c *Client) Fetch(ctx context.Context) ([]terreno.Terreno, error) {
	u := c.baseURL + "/api/data?v=" + strconv.FormatInt(time.Now().UnixNano(), 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch document: HTTP %d %s", resp.StatusCode, resp.Status)
	}
	var doc struct {
		Terrenos *[]terreno.Terreno `json:"terrenos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc.Terrenos == nil {
		return nil, ErrInvalidFormat
	}
	return *doc.Terrenos, nil
}

// Push replaces the remote document with the given working set.
func (c *Client) Push(ctx context.Context, ts []terreno.Terreno) error {
	if ts == nil {
		ts = []terreno.Terreno{}
	}
	body, err := json.Marshal(terreno.Documento{Terrenos: ts})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/api/data", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("push document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("push document: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return nil
}

// Provider is one source in the ordered read-path fallback chain.
type Provider struct {
	Name string
	Load func(ctx context.Context) ([]terreno.Terreno, error)
}

// FirstOf tries each provider in order and returns the first successful
// result along with the provider's name. When every provider fails it
// returns an empty set and an empty name; the UI always has something to
// render.
func FirstOf(ctx context.Context, providers ...Provider) ([]terreno.Terreno, string, error) {
	var lastErr error
	for _, p := range providers {
		ts, err := p.Load(ctx)
		if err == nil {
			return ts, p.Name, nil
		}
		lastErr = err
	}
	return []terreno.Terreno{}, "", lastErr
}
