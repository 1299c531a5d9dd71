// Package api is the HTTP client for the SteamedNotes REST API.
//
// Authentication is cookie based: sign-in sets a session cookie that the
// shared cookie jar replays on every later request, including the websocket
// handshake. No token is ever passed explicitly.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
)

const (
	// DefaultTimeout bounds a single request when Options.Timeout is zero.
	DefaultTimeout = 15 * time.Second

	// maxErrorBody caps how much of an error response is kept for messages.
	maxErrorBody = 256

	requestIDHeader = "X-Request-ID"
)

// Options configures a Client.
type Options struct {
	BaseURL string        // e.g. "https://www.steamednotes.com"
	Timeout time.Duration // per-request timeout, 0 = DefaultTimeout
	WSPath  string        // websocket path, "" = "/api/ws"
	Logger  *slog.Logger  // nil = slog.Default()
}

// Client talks to the notes API. It is safe for concurrent use.
type Client struct {
	base    *url.URL
	http    *http.Client
	jar     *sessionJar
	wsPath  string
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a client with its own cookie jar.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("api: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api: unsupported scheme %q", base.Scheme)
	}

	jar, err := newSessionJar()
	if err != nil {
		return nil, fmt.Errorf("api: cookie jar: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	wsPath := opts.WSPath
	if wsPath == "" {
		wsPath = "/api/ws"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		base:    base,
		http:    &http.Client{Jar: jar, Timeout: timeout},
		jar:     jar,
		wsPath:  wsPath,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// BaseURL returns the server root the client was configured with.
func (c *Client) BaseURL() string { return c.base.String() }

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// GetNote fetches a single note.
func (c *Client) GetNote(ctx context.Context, id ID) (*Note, error) {
	q := url.Values{"note_id": {id.String()}}
	var note Note
	if err := c.do(ctx, http.MethodGet, "/api/notes/getnote", q, nil, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// UpdateNote persists a note's title and content.
func (c *Client) UpdateNote(ctx context.Context, u NoteUpdate) error {
	return c.do(ctx, http.MethodPatch, "/api/note/update", nil, u, nil)
}

// ListFolderNotes lists the notes of a folder in server order.
func (c *Client) ListFolderNotes(ctx context.Context, folderID ID) ([]NoteSummary, error) {
	q := url.Values{"folder_id": {folderID.String()}}
	var notes []NoteSummary
	if err := c.do(ctx, http.MethodGet, "/api/notes", q, nil, &notes); err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []NoteSummary{}
	}
	return notes, nil
}

// IsSignedIn reports whether the jar holds a valid session. A 401 is a
// definite "no"; any other failure is returned as an error.
func (c *Client) IsSignedIn(ctx context.Context) (bool, error) {
	err := c.do(ctx, http.MethodGet, "/api/issignedin", nil, nil, nil)
	switch {
	case err == nil:
		return true, nil
	case StatusCode(err) == http.StatusUnauthorized:
		return false, nil
	default:
		return false, err
	}
}

// SignIn exchanges credentials for a session cookie.
func (c *Client) SignIn(ctx context.Context, creds Credentials) error {
	return c.do(ctx, http.MethodPost, "/api/signin", nil, creds, nil)
}

// Logout ends the session on the server and forgets the local cookies.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/logout", nil, nil, nil)
	c.jar.Reset()
	return err
}

// Cookies returns the cookies the jar would send to the server root.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.base)
}

// sessionJar is a cookie jar that can be emptied on logout while requests
// are in flight on other goroutines.
type sessionJar struct {
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

func newSessionJar() (*sessionJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &sessionJar{jar: jar}, nil
}

// SetCookies implements http.CookieJar.
func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	j.jar.SetCookies(u, cookies)
}

// Cookies implements http.CookieJar.
func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.jar.Cookies(u)
}

// Reset drops every stored cookie.
func (j *sessionJar) Reset() {
	fresh, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return
	}
	j.mu.Lock()
	j.jar = fresh
	j.mu.Unlock()
}

// do performs one JSON request. body and out may be nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set(requestIDHeader, reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("api: request failed", "method", method, "path", path, "request_id", reqID, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api: request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", reqID,
		"elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
