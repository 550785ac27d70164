package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campushire/campushire/internal/identity"
)

const (
	bearerPrefix = "Bearer "

	loginPath    = "/login"
	registerPath = "/register"
	mePath       = "/me"
)

// Client represents an HTTP client for the campushire API
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     zerolog.Logger

	mu             sync.RWMutex
	token          string
	onUnauthorized func()
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger used for request tracing
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// New creates a new API client. baseURL includes the API prefix, e.g.
// https://campus.example.com/api
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: "campushire-cli",
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken sets the default Authorization header for subsequent requests
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the default Authorization header
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token returns the bearer token currently attached to requests
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// OnUnauthorized registers fn to be called whenever a request other than
// login or register is answered with 401. Only one hook is kept.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// AuthResponse is the data payload of a successful login or register
type AuthResponse struct {
	User  *identity.User `json:"user"`
	Token string         `json:"token"`
}

// RegisterResponse is the result of a registration. Token and User are only
// set when the backend starts a session right away.
type RegisterResponse struct {
	AuthResponse
	Message string
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates the user and returns the user and bearer token
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	jsonData, err := json.Marshal(LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := c.send(ctx, http.MethodPost, loginPath, "application/json", bytes.NewReader(jsonData), true)
	if err != nil {
		return nil, err
	}

	var authResp AuthResponse
	if err := decodeData(body, &authResp); err != nil {
		return nil, err
	}
	if authResp.User == nil || authResp.Token == "" {
		return nil, fmt.Errorf("%w: missing user or token", ErrInvalidResponse)
	}

	return &authResp, nil
}

// Register submits the registration form as multipart/form-data
func (c *Client) Register(ctx context.Context, reg *identity.Registration) (*RegisterResponse, error) {
	payload, contentType, err := encodeRegistration(reg)
	if err != nil {
		return nil, err
	}

	body, err := c.send(ctx, http.MethodPost, registerPath, contentType, payload, true)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	regResp := &RegisterResponse{Message: env.Message}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &regResp.AuthResponse); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}

	return regResp, nil
}

// Me returns the user the current bearer token belongs to
func (c *Client) Me(ctx context.Context) (*identity.User, error) {
	body, err := c.send(ctx, http.MethodGet, mePath, "", nil, false)
	if err != nil {
		return nil, err
	}

	var data struct {
		User *identity.User `json:"user"`
	}
	if err := decodeData(body, &data); err != nil {
		return nil, err
	}
	if data.User == nil {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidResponse)
	}

	return data.User, nil
}

// Raw performs an authenticated request and returns the response body as is.
// A nil body sends no payload; otherwise it is sent as JSON.
func (c *Client) Raw(ctx context.Context, method, path string, jsonBody []byte) ([]byte, error) {
	var (
		reader      io.Reader
		contentType string
	)
	if jsonBody != nil {
		reader = bytes.NewReader(jsonBody)
		contentType = "application/json"
	}
	return c.send(ctx, strings.ToUpper(method), path, contentType, reader, false)
}

// Do performs an authenticated JSON request and decodes the response data into out
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	var jsonBody []byte
	if in != nil {
		var err error
		jsonBody, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	body, err := c.Raw(ctx, method, path, jsonBody)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decodeData(body, out)
}

// send executes a request. Public requests (login, register) never fire the
// unauthorized hook.
func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader, public bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", bearerPrefix+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrNetwork, err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("request_id", requestID).
		Msg("HTTP request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
		if resp.StatusCode == http.StatusUnauthorized && !public {
			c.fireUnauthorized()
		}
		return nil, apiErr
	}

	return respBody, nil
}

func (c *Client) fireUnauthorized() {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// errorMessage extracts the server-provided message from an error body
func errorMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	if env.Message != "" {
		return env.Message
	}
	return env.Error
}

func decodeData(body []byte, out any) error {
	// Bodies without the {success, data} envelope (e.g. bare arrays) decode whole.
	data := body
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		data = env.Data
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func encodeRegistration(reg *identity.Registration) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"name", reg.Name},
		{"email", reg.Email},
		{"password", reg.Password},
		{"role", string(reg.Role)},
	}
	if reg.Role.IsCampusMember() {
		fields = append(fields, [2]string{"department", reg.Department}, [2]string{"batch", reg.Batch})
	}
	if reg.Role == identity.RoleRecruiter {
		fields = append(fields, [2]string{"company", reg.Company}, [2]string{"jobTitle", reg.JobTitle})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", f[0], err)
		}
	}

	if reg.IDCardPath != "" {
		if !reg.Role.IsCampusMember() {
			return nil, "", fmt.Errorf("an ID card can only be attached for students and alumni")
		}
		if err := attachFile(w, "bracuIdCard", reg.IDCardPath); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func attachFile(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to copy %s: %w", path, err)
	}
	return nil
}
