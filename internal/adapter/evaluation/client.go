// Package evaluation talks to the remote evaluation service: registration,
// authentication and the structured log collector.
package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	pathRegister = "/register"
	pathAuth     = "/auth"
	pathLogs     = "/logs"

	// MaxMessageLength is the longest message, in characters, the collector accepts.
	MaxMessageLength = 500
	// DefaultStack is the stack reported for every entry of this service.
	DefaultStack = "backend"

	defaultTimeout = 5 * time.Second
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrInvalidLevel     = errors.New("invalid log level")
)

var levels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
	"fatal": {},
}

type Registration struct {
	Email          string `json:"email"`
	Name           string `json:"name"`
	MobileNo       string `json:"mobileNo,omitempty"`
	GithubUsername string `json:"githubUsername,omitempty"`
	RollNo         string `json:"rollNo"`
	AccessCode     string `json:"accessCode"`
}

type RegistrationResult struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	RollNo       string `json:"rollNo"`
	AccessCode   string `json:"accessCode"`
	ClientID     string `json:"clientID"`
	ClientSecret string `json:"clientSecret"`
}

type Credentials struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	RollNo       string `json:"rollNo"`
	AccessCode   string `json:"accessCode"`
	ClientID     string `json:"clientID"`
	ClientSecret string `json:"clientSecret"`
}

// Token is the result of a successful authentication.
type Token struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Expired reports whether the access token carries an exp claim that lies
// before now. Tokens without a readable claim are treated as valid until the
// collector rejects them.
func (t *Token) Expired(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return true
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(t.AccessToken, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}

	return !now.Before(claims.ExpiresAt.Time)
}

// Entry is one record sent to the log collector.
type Entry struct {
	Stack   string `json:"stack"`
	Level   string `json:"level"`
	Package string `json:"package"`
	Message string `json:"message"`
}

// Normalize lower-cases the entry fields and truncates the message to
// MaxMessageLength characters.
func (e Entry) Normalize() (Entry, error) {
	e.Stack = strings.ToLower(e.Stack)
	e.Level = strings.ToLower(e.Level)
	e.Package = strings.ToLower(e.Package)

	if _, ok := levels[e.Level]; !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidLevel, e.Level)
	}

	if r := []rune(e.Message); len(r) > MaxMessageLength {
		e.Message = string(r[:MaxMessageLength])
	}

	return e, nil
}

type logResponse struct {
	LogID   string `json:"logID"`
	Message string `json:"message"`
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Register(ctx context.Context, reg Registration) (*RegistrationResult, error) {
	const op = "adapter.evaluation.Client.Register"

	var res RegistrationResult
	if err := c.do(ctx, pathRegister, "", reg, &res); err != nil {
		return nil, fmt.Errorf("%s: registration failed: %w", op, err)
	}

	return &res, nil
}

func (c *Client) Authenticate(ctx context.Context, creds Credentials) (*Token, error) {
	const op = "adapter.evaluation.Client.Authenticate"

	var token Token
	if err := c.do(ctx, pathAuth, "", creds, &token); err != nil {
		return nil, fmt.Errorf("%s: authentication failed: %w", op, err)
	}

	return &token, nil
}

// SendLog posts e to the collector and returns the id it assigned.
func (c *Client) SendLog(ctx context.Context, accessToken string, e Entry) (string, error) {
	const op = "adapter.evaluation.Client.SendLog"

	e, err := e.Normalize()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var res logResponse
	if err := c.do(ctx, pathLogs, accessToken, e, &res); err != nil {
		return "", fmt.Errorf("%s: failed to send log: %w", op, err)
	}

	return res.LogID, nil
}

func (c *Client) do(ctx context.Context, path, accessToken string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.RequestIDHeader, requestID(ctx))
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
