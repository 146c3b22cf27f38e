// internal/websession/session.go

// Package websession materializes the browser's ambient auth state into a
// portable HTTP session that outlives the automation handle.
package websession

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"github.com/robin0505/PKU-Get/internal/browser"
)

// Session is a standalone HTTP client session seeded from a browser. It
// performs no network I/O on construction.
type Session struct {
	id      string
	client  *http.Client
	headers http.Header
	logger  *zap.Logger
}

// New creates an empty session with a public-suffix-aware cookie jar.
func New(logger *zap.Logger) (*Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	return &Session{
		id: id,
		client: &http.Client{
			Jar:     jar,
			Timeout: 60 * time.Second,
		},
		headers: make(http.Header),
		logger:  logger.With(zap.String("session_id", id)),
	}, nil
}

// Materialize builds a session from the automation handle's current state:
// its User-Agent becomes a default header and every cookie it holds is
// imported. The handle may be torn down immediately afterwards.
func Materialize(ctx context.Context, h browser.Handle, logger *zap.Logger) (*Session, error) {
	s, err := New(logger)
	if err != nil {
		return nil, err
	}

	ua, err := h.UserAgent(ctx)
	if err != nil {
		return nil, err
	}
	s.SetDefaultHeader("User-Agent", ua)

	cookies, err := h.Cookies(ctx)
	if err != nil {
		return nil, err
	}
	imported := s.ImportCookies(cookies)

	s.logger.Info("Session materialized from browser state",
		zap.Int("cookies_total", len(cookies)),
		zap.Int("cookies_imported", imported))
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// SetDefaultHeader registers a header applied to every request that does not
// already carry one.
func (s *Session) SetDefaultHeader(key, value string) {
	s.headers.Set(key, value)
}

// UserAgent returns the session's default User-Agent, if any.
func (s *Session) UserAgent() string {
	return s.headers.Get("User-Agent")
}

// ImportCookies copies browser cookies into the jar, preserving domain,
// path, secure flag and expiry. Records missing a name or value are skipped.
// Returns the number of cookies actually imported.
func (s *Session) ImportCookies(cookies []browser.Cookie) int {
	imported := 0
	for _, c := range cookies {
		if c.Name == "" || c.Value == "" {
			s.logger.Debug("Skipping cookie record missing name or value",
				zap.String("domain", c.Domain))
			continue
		}

		origin := cookieOrigin(c)
		if origin == nil {
			s.logger.Debug("Skipping cookie with unusable domain",
				zap.String("name", c.Name), zap.String("domain", c.Domain))
			continue
		}

		s.client.Jar.SetCookies(origin, []*http.Cookie{{
			Name:    c.Name,
			Value:   c.Value,
			Domain:  strings.TrimPrefix(c.Domain, "."),
			Path:    c.Path,
			Secure:  c.Secure,
			Expires: c.Expires,
		}})
		imported++
	}
	return imported
}

// Cookies returns the cookies the jar would send to the given URL.
func (s *Session) Cookies(u *url.URL) []*http.Cookie {
	return s.client.Jar.Cookies(u)
}

// Client exposes the underlying http.Client for callers that manage their
// own requests. Default headers are not applied on this path.
func (s *Session) Client() *http.Client {
	return s.client
}

// Do executes a request with the session's default headers applied.
func (s *Session) Do(req *http.Request) (*http.Response, error) {
	for key, values := range s.headers {
		if req.Header.Get(key) != "" {
			continue
		}
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	return s.client.Do(req)
}

// Get issues a GET request through the session.
func (s *Session) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return s.Do(req)
}

// cookieOrigin reconstructs a URL the cookie jar will accept the cookie
// from. Secure cookies get an https origin.
func cookieOrigin(c browser.Cookie) *url.URL {
	host := strings.TrimPrefix(c.Domain, ".")
	if host == "" {
		return nil
	}
	scheme := "http"
	if c.Secure {
		scheme = "https"
	}
	path := c.Path
	if path == "" {
		path = "/"
	}
	return &url.URL{Scheme: scheme, Host: host, Path: path}
}
