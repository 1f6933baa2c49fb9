// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog is the HTTP client for the remote legal-document catalog:
// paged summary listing, document detail, and file download.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/lawbook/internal/httputil"
	"github.com/pdiddy/lawbook/pkg/types"
)

const (
	listPath   = "/list"
	detailPath = "/detail"

	defaultPageSize  = 10
	defaultUserAgent = "lawbook/0.1"
)

// Client talks to the catalog API.
type Client struct {
	http *http.Client
	cfg  types.CatalogConfig
}

// New returns a Client. A nil http client uses one with cfg.Timeout.
func New(client *http.Client, cfg types.CatalogConfig) *Client {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{http: client, cfg: cfg}
}

// envelope is the common response wrapper: {"code": 200, "result": ...}.
type envelope[T any] struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Result T      `json:"result"`
}

type listResult struct {
	Data       []types.DocumentSummary `json:"data"`
	TotalSizes int                     `json:"totalSizes"`
}

// ListPage returns the summaries on a 1-based page. An empty slice marks
// the end of the result set.
func (c *Client) ListPage(ctx context.Context, page int) ([]types.DocumentSummary, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(c.cfg.PageSize))
	if c.cfg.SearchType != "" {
		params.Set("searchType", c.cfg.SearchType)
	}
	for _, p := range c.cfg.Params {
		for _, v := range p.Values {
			params.Add(p.Key, v)
		}
	}
	params.Set("_", strconv.FormatInt(time.Now().UnixMilli(), 10))

	var env envelope[listResult]
	if err := c.getJSON(ctx, c.cfg.BaseURL+listPath+"?"+params.Encode(), &env); err != nil {
		return nil, fmt.Errorf("listing page %d: %w", page, err)
	}
	return env.Result.Data, nil
}

// Detail returns the full record for id. Relative file paths are resolved
// against FileBaseURL.
func (c *Client) Detail(ctx context.Context, id string) (*types.DocumentDetail, error) {
	params := url.Values{"id": {id}}

	var env envelope[types.DocumentDetail]
	if err := c.getJSON(ctx, c.cfg.BaseURL+detailPath+"?"+params.Encode(), &env); err != nil {
		return nil, fmt.Errorf("fetching detail %s: %w", id, err)
	}

	detail := env.Result
	if detail.ID == "" {
		detail.ID = id
	}
	for i, f := range detail.Body {
		if f.URL == "" && f.Path != "" {
			detail.Body[i].URL = c.fileURL(f.Path)
		}
	}
	return &detail, nil
}

// Fetch downloads a source file.
func (c *Client) Fetch(ctx context.Context, fileURL string) ([]byte, error) {
	return httputil.GetBytes(ctx, c.http, fileURL, c.cfg.UserAgent, c.cfg.MaxRetries)
}

func (c *Client) fileURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	base := strings.TrimRight(c.cfg.FileBaseURL, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

func (c *Client) getJSON(ctx context.Context, reqURL string, v any) error {
	data, err := httputil.GetBytes(ctx, c.http, reqURL, c.cfg.UserAgent, c.cfg.MaxRetries)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// PublishDate drops the time component of a catalog publish value.
func PublishDate(publish string) string {
	date, _, _ := strings.Cut(strings.TrimSpace(publish), " ")
	return date
}
