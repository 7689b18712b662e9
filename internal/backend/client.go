// Package backend talks to the remote member service: registration, login,
// logout and account deletion.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/utafrali/storefront/pkg/httpclient"
)

// HTTPDoer is the interface for executing HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Endpoints locates the member service operations.
type Endpoints struct {
	BaseURL      string
	RegisterPath string
	LoginPath    string
	LogoutPath   string
	AccountPath  string
}

// DefaultEndpoints returns the paths used by the reference backend.
func DefaultEndpoints(baseURL string) Endpoints {
	return Endpoints{
		BaseURL:      baseURL,
		RegisterPath: "/register",
		LoginPath:    "/login",
		LogoutPath:   "/logout",
		AccountPath:  "/users",
	}
}

// RegisterRequest is the body of a registration call.
type RegisterRequest struct {
	Username  string `json:"username"`
	UserEmail string `json:"useremail"`
	Password  string `json:"password"`
}

// LoginRequest is the body of a login call.
type LoginRequest struct {
	UserEmail string `json:"useremail"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

// LoginResponse is the member identity granted by a successful login.
type LoginResponse struct {
	UserID          string
	Username        string
	AccessToken     string
	DiscountPercent int
	// ExpiresAt is read from the token when it is a JWT. Zero otherwise.
	ExpiresAt time.Time
}

type loginEnvelope struct {
	Response *struct {
		Username    string   `json:"username"`
		AccessToken string   `json:"accessToken"`
		Discount    *float64 `json:"discount"`
		ID          userID   `json:"id"`
	} `json:"response"`
}

// userID accepts both JSON strings and numbers.
type userID string

func (u *userID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*u = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*u = userID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("user id must be a string or number: %w", err)
	}
	*u = userID(n.String())
	return nil
}

// Client calls the member service.
type Client struct {
	http      HTTPDoer
	endpoints Endpoints
	logger    *slog.Logger
}

// NewClient creates a backend client.
func NewClient(doer HTTPDoer, endpoints Endpoints, logger *slog.Logger) *Client {
	endpoints.BaseURL = strings.TrimRight(endpoints.BaseURL, "/")
	return &Client{http: doer, endpoints: endpoints, logger: logger}
}

// Register creates a member account. It does not log in.
func (c *Client) Register(ctx context.Context, in RegisterRequest) error {
	resp, err := c.postJSON(ctx, "register", c.endpoints.RegisterPath, in)
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

// Login exchanges credentials for a member session.
func (c *Client) Login(ctx context.Context, in LoginRequest) (*LoginResponse, error) {
	resp, err := c.postJSON(ctx, "login", c.endpoints.LoginPath, in)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	var env loginEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, transportError("login", fmt.Errorf("decode response: %w", err))
	}
	if env.Response == nil {
		return nil, transportError("login", errors.New("response object missing"))
	}

	out := &LoginResponse{
		UserID:      string(env.Response.ID),
		Username:    env.Response.Username,
		AccessToken: env.Response.AccessToken,
	}
	if err := out.Validate(); err != nil {
		return nil, transportError("login", err)
	}
	if env.Response.Discount != nil {
		out.DiscountPercent = discountPercent(*env.Response.Discount)
	}
	if exp, ok := tokenExpiry(out.AccessToken); ok {
		out.ExpiresAt = exp
		c.logger.DebugContext(ctx, "member token issued",
			slog.String("user_id", out.UserID),
			slog.Time("expires_at", exp),
		)
	}
	return out, nil
}

// Validate rejects a login response that cannot back a member session.
func (r *LoginResponse) Validate() error {
	if r == nil {
		return errors.New("empty login response")
	}
	var missing []string
	if r.UserID == "" {
		missing = append(missing, "id")
	}
	if r.Username == "" {
		missing = append(missing, "username")
	}
	if r.AccessToken == "" {
		missing = append(missing, "accessToken")
	}
	if len(missing) > 0 {
		return fmt.Errorf("response missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// discountPercent rounds d to a whole percentage within [0, 100].
func discountPercent(d float64) int {
	switch {
	case math.IsNaN(d) || d <= 0:
		return 0
	case d >= 100:
		return 100
	}
	return int(math.Round(d))
}

// Logout invalidates the member token on the server.
func (c *Client) Logout(ctx context.Context, token string) error {
	req, err := c.newRequest(ctx, http.MethodPost, c.endpoints.LogoutPath, nil)
	if err != nil {
		return err
	}
	setBearer(req, token)

	resp, err := c.send(req, "logout")
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

// DeleteAccount removes the member account identified by userID.
func (c *Client) DeleteAccount(ctx context.Context, id, token string) error {
	path := c.endpoints.AccountPath + "/" + url.PathEscape(id)
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	setBearer(req, token)

	resp, err := c.send(req, "delete_account")
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

// Ping reports whether the backend answers at all. Any HTTP status counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.endpoints.BaseURL+"/", http.NoBody)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return transportError("ping", err)
	}
	drain(resp)
	return nil
}

func (c *Client) postJSON(ctx context.Context, op, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", op, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, op)
}

func (c *Client) newRequest(ctx context.Context, method, path string, payload []byte) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoints.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// send executes req and converts non-2xx responses into *StatusError. The
// returned response is always 2xx with an open body.
func (c *Client) send(req *http.Request, op string) (*http.Response, error) {
	ctx := req.Context()
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, transportError(op, err)
	}

	if err := httpclient.CheckResponse(resp, "backend"); err != nil {
		var respErr *httpclient.ResponseError
		if errors.As(err, &respErr) {
			c.logger.DebugContext(ctx, "backend rejected request",
				slog.String("op", op),
				slog.Int("status", respErr.StatusCode),
				slog.String("code", respErr.Code),
				slog.String("detail", respErr.Detail),
			)
			return nil, &StatusError{
				Op:         op,
				StatusCode: respErr.StatusCode,
				Code:       respErr.Code,
				Detail:     respErr.Detail,
			}
		}
		return nil, transportError(op, err)
	}
	return resp, nil
}

func setBearer(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

// tokenExpiry reads the exp claim of a JWT without verifying it. The
// storefront never holds the signing key; the value is informational.
func tokenExpiry(token string) (time.Time, bool) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

