package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"cmsimport/internal/services"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	defaultUserAgent   = "cmsimport/dev"
	errorBodyLimit     = 4096
)

// Config describes the HTTP client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit is requests per second across all callers; zero disables pacing.
	RateLimit  float64
	RateBurst  int
	UserAgent  string
	HTTPClient *http.Client
}

// Client implements Store over the CMS HTTP/JSON API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	tokens    TokenSource
}

var _ Store = (*Client)(nil)

// NewClient creates a Client from the supplied configuration.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, errors.New("cms: base url is required")
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("cms: parse base url: %w", err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("cms: base url %q must be absolute", base)
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:   baseURL,
		http:      client,
		limiter:   limiter,
		userAgent: userAgent,
	}, nil
}

// UseTokens installs the source of bearer tokens for authenticated calls.
func (c *Client) UseTokens(tokens TokenSource) {
	c.tokens = tokens
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}

// Authenticate exchanges credentials for a token.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	var resp authResponse
	endpoint := c.baseURL.JoinPath("auth", "token")
	if err := c.do(ctx, "authenticate", http.MethodPost, endpoint, authRequest{Username: username, Password: password}, &resp, false, false); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Token) == "" {
		return "", errors.New("cms: authenticate response missing token")
	}
	return resp.Token, nil
}

type searchResponse struct {
	Items []Item `json:"items"`
}

// SearchContent returns items matching the request predicate.
func (c *Client) SearchContent(ctx context.Context, req SearchRequest) ([]Item, error) {
	if req.Predicate.IsEmpty() {
		return nil, nil
	}
	var resp searchResponse
	endpoint := c.baseURL.JoinPath("content", "search")
	if err := c.do(ctx, "search content", http.MethodPost, endpoint, req, &resp, true, false); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// AddContent creates an item and returns the stored representation.
func (c *Client) AddContent(ctx context.Context, item *Item) (*Item, error) {
	if item == nil {
		return nil, errors.New("cms: add content: item is nil")
	}
	var created Item
	endpoint := c.baseURL.JoinPath("content")
	if err := c.do(ctx, "add content", http.MethodPost, endpoint, item, &created, true, false); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateContent replaces an existing item.
func (c *Client) UpdateContent(ctx context.Context, item *Item) error {
	if item == nil || item.ID <= 0 {
		return errors.New("cms: update content: item id is required")
	}
	endpoint := c.baseURL.JoinPath("content", strconv.FormatInt(item.ID, 10))
	return c.do(ctx, "update content", http.MethodPut, endpoint, item, nil, true, false)
}

// ResolveFolder looks up a folder by path. A missing folder yields false with
// no error.
func (c *Client) ResolveFolder(ctx context.Context, path string) (Folder, bool, error) {
	var folder Folder
	endpoint := c.baseURL.JoinPath("folders")
	endpoint.RawQuery = url.Values{"path": {path}}.Encode()
	err := c.do(ctx, "resolve folder", http.MethodGet, endpoint, nil, &folder, true, true)
	if errors.Is(err, services.ErrNotFound) {
		return Folder{}, false, nil
	}
	if err != nil {
		return Folder{}, false, err
	}
	return folder, folder.ID > 0, nil
}

// ResolveTaxonomy looks up a taxonomy node by path. A missing node yields
// false with no error.
func (c *Client) ResolveTaxonomy(ctx context.Context, path string) (Taxonomy, bool, error) {
	var taxonomy Taxonomy
	endpoint := c.baseURL.JoinPath("taxonomies")
	endpoint.RawQuery = url.Values{"path": {path}}.Encode()
	err := c.do(ctx, "resolve taxonomy", http.MethodGet, endpoint, nil, &taxonomy, true, true)
	if errors.Is(err, services.ErrNotFound) {
		return Taxonomy{}, false, nil
	}
	if err != nil {
		return Taxonomy{}, false, err
	}
	return taxonomy, taxonomy.ID > 0, nil
}

type associationsResponse struct {
	Items []TaxonomyAssociation `json:"items"`
}

// ListTaxonomyAssociations returns the taxonomy links of an item.
func (c *Client) ListTaxonomyAssociations(ctx context.Context, itemID int64) ([]TaxonomyAssociation, error) {
	var resp associationsResponse
	endpoint := c.baseURL.JoinPath("content", strconv.FormatInt(itemID, 10), "taxonomy")
	if err := c.do(ctx, "list taxonomy", http.MethodGet, endpoint, nil, &resp, true, false); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// AddTaxonomyAssociation persists a taxonomy link.
func (c *Client) AddTaxonomyAssociation(ctx context.Context, assoc TaxonomyAssociation) error {
	endpoint := c.baseURL.JoinPath("taxonomy-items")
	return c.do(ctx, "add taxonomy item", http.MethodPost, endpoint, assoc, nil, true, false)
}

func (c *Client) do(ctx context.Context, op, method string, endpoint *url.URL, body, out any, authenticated, lookup bool) error {
	if c == nil {
		return errors.New("cms: client is nil")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("cms: %s: rate limiter: %w", op, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("cms: encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("cms: build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated && c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransportError(ctx, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return classifyStatus(op, resp.StatusCode, resp.Status, strings.TrimSpace(string(snippet)), lookup)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("cms: decode %s response: %w", op, err)
	}
	return nil
}
