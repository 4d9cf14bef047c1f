// Package client is a Go client for the Book Hub REST API.
//
// ListBooks is a read-through cache: it is served from memory until the TTL
// lapses or this client performs a mutating call, after which the next call
// refetches. The cache is never treated as authoritative.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/PaulBabatuyi/bookhub/internal/data"
	"github.com/PaulBabatuyi/bookhub/internal/service"
)

// APIError is a failure envelope returned by the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bookhub: %d %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	ttl     time.Duration

	mu    sync.RWMutex
	token string

	cacheMu   sync.Mutex
	cached    []*data.Listing
	fetchedAt time.Time
	gen       uint64
	group     singleflight.Group
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithToken(token string) Option { return func(c *Client) { c.token = token } }

// WithCacheTTL bounds how long ListBooks results are reused. Zero disables
// the cache.
func WithCacheTTL(d time.Duration) Option { return func(c *Client) { c.ttl = d } }

// New returns a client for the API rooted at baseURL (e.g. http://localhost:8080).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		ttl:     30 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Signup creates an account and keeps the returned token for later calls.
func (c *Client) Signup(ctx context.Context, email, password, name string) (*service.AuthResult, error) {
	var res service.AuthResult
	in := service.RegisterInput{Email: email, Password: password, Name: name}
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", in, &res); err != nil {
		return nil, err
	}
	c.SetToken(res.Token)
	return &res, nil
}

// Login signs in and keeps the returned token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	var res service.AuthResult
	in := service.LoginInput{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", in, &res); err != nil {
		return nil, err
	}
	c.SetToken(res.Token)
	return &res, nil
}

// ListBooks returns listing summaries, newest first.
func (c *Client) ListBooks(ctx context.Context) ([]*data.Listing, error) {
	c.cacheMu.Lock()
	if c.ttl > 0 && c.cached != nil && time.Since(c.fetchedAt) < c.ttl {
		out := append([]*data.Listing(nil), c.cached...)
		c.cacheMu.Unlock()
		return out, nil
	}
	gen := c.gen
	c.cacheMu.Unlock()

	// The shared fetch outlives any single caller; http.Client.Timeout still
	// bounds it. Each caller stops waiting when its own ctx is done.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(fmt.Sprintf("list-%d", gen), func() (any, error) {
		var books []*data.Listing
		if err := c.do(fetchCtx, http.MethodGet, "/api/books", nil, &books); err != nil {
			return nil, err
		}
		c.cacheMu.Lock()
		// a mutation that raced with this fetch makes the result stale
		if c.gen == gen {
			c.cached = books
			c.fetchedAt = time.Now()
		}
		c.cacheMu.Unlock()
		return books, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return append([]*data.Listing(nil), res.Val.([]*data.Listing)...), nil
	}
}

// Invalidate drops the cached listing summaries.
func (c *Client) Invalidate() {
	c.cacheMu.Lock()
	c.cached = nil
	c.gen++
	c.cacheMu.Unlock()
}

// GetBook returns one listing with its messages. It always hits the server.
func (c *Client) GetBook(ctx context.Context, id string) (*data.Listing, error) {
	var l data.Listing
	if err := c.do(ctx, http.MethodGet, "/api/books/"+url.PathEscape(id), nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *Client) CreateBook(ctx context.Context, in service.CreateListingInput) (*data.Listing, error) {
	defer c.Invalidate()
	var l data.Listing
	if err := c.do(ctx, http.MethodPost, "/api/books", in, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *Client) DeleteBook(ctx context.Context, id string) error {
	defer c.Invalidate()
	return c.do(ctx, http.MethodDelete, "/api/books/"+url.PathEscape(id), nil, nil)
}

// SendMessage appends an inquiry to a listing. by is only used by servers
// running without required auth.
func (c *Client) SendMessage(ctx context.Context, id, text, by string) (*data.Message, error) {
	defer c.Invalidate()
	var m data.Message
	in := service.MessageInput{Text: text, By: by}
	if err := c.do(ctx, http.MethodPost, "/api/books/"+url.PathEscape(id)+"/message", in, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 400 || !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
