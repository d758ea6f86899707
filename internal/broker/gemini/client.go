// Package gemini is the crypto execution gateway and market data source
// backed by the Gemini REST API.
package gemini

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/SignalTrader/internal/platform/http"
	"github.com/Alias1177/SignalTrader/models"
)

const (
	gatewayName = "gemini"

	// ProductionURL is the live exchange
	ProductionURL = "https://api.gemini.com"
	// SandboxURL is the test exchange
	SandboxURL = "https://api.sandbox.gemini.com"
)

// Client is the Gemini API client
type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *httpClient.Client
	validate   *validator.Validate
	logger     zerolog.Logger

	// nonces must strictly increase per API key
	nonceMu   sync.Mutex
	lastNonce int64
	now       func() time.Time
}

// ClientOptions holds options for creating a new Gemini client
type ClientOptions struct {
	APIKey            string
	APISecret         string
	Sandbox           bool
	BaseURL           string
	RequestTimeout    time.Duration
	RequestsPerMinute int
	MaxRetryTimeout   time.Duration
}

// NewClient creates a new Gemini API client
func NewClient(options ClientOptions) *Client {
	httpOpts := httpClient.ClientOptions{
		Timeout:           options.RequestTimeout,
		RequestsPerMinute: options.RequestsPerMinute,
		MaxRetryTimeout:   options.MaxRetryTimeout,
	}

	// private endpoints are limited to 600 per minute, public to 120
	if httpOpts.RequestsPerMinute == 0 {
		httpOpts.RequestsPerMinute = 120
	}

	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = ProductionURL
		if options.Sandbox {
			baseURL = SandboxURL
		}
	}

	return &Client{
		apiKey:     options.APIKey,
		apiSecret:  options.APISecret,
		baseURL:    baseURL,
		httpClient: httpClient.NewClient(httpOpts),
		validate:   validator.New(),
		logger:     log.With().Str("component", "gemini_client").Logger(),
		now:        time.Now,
	}
}

// IsConfigured reports whether API credentials are present. Every other
// private call fails with models.ErrNotConfigured when this is false.
func (c *Client) IsConfigured() bool {
	return c.apiKey != "" && c.apiSecret != ""
}

func (c *Client) nextNonce() int64 {
	c.nonceMu.Lock()
	defer c.nonceMu.Unlock()

	nonce := c.now().UnixMilli()
	if nonce <= c.lastNonce {
		nonce = c.lastNonce + 1
	}
	c.lastNonce = nonce
	return nonce
}

// sign returns the base64 payload and its hex HMAC-SHA384 signature
func (c *Client) sign(payload []byte) (string, string) {
	encoded := base64.StdEncoding.EncodeToString(payload)
	mac := hmac.New(sha512.New384, []byte(c.apiSecret))
	mac.Write([]byte(encoded))
	return encoded, hex.EncodeToString(mac.Sum(nil))
}

// private calls an authenticated endpoint. params are merged into the
// signed payload next to request and nonce.
func (c *Client) private(ctx context.Context, op, path string, params map[string]any, out any) error {
	if !c.IsConfigured() {
		return &models.GatewayError{Gateway: gatewayName, Op: op, Err: models.ErrNotConfigured}
	}

	payload := map[string]any{
		"request": path,
		"nonce":   fmt.Sprintf("%d", c.nextNonce()),
	}
	for k, v := range params {
		payload[k] = v
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", op, err)
	}
	encoded, signature := c.sign(raw)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Content-Length", "0")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("X-GEMINI-APIKEY", c.apiKey)
	req.Header.Set("X-GEMINI-PAYLOAD", encoded)
	req.Header.Set("X-GEMINI-SIGNATURE", signature)

	return c.send(req, op, out)
}

// public calls an unauthenticated GET endpoint
func (c *Client) public(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.send(req, op, out)
}

func (c *Client) send(req *http.Request, op string, out any) error {
	c.logger.Debug().Str("op", op).Str("path", req.URL.Path).Msg("Calling Gemini")

	resp, err := c.httpClient.DoRequest(req.Context(), req)
	if err != nil {
		c.logger.Error().Err(err).Str("op", op).Msg("Gemini request failed")
		return &models.GatewayError{Gateway: gatewayName, Op: op, StatusCode: httpClient.StatusCode(err), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &models.GatewayError{Gateway: gatewayName, Op: op, Err: fmt.Errorf("reading response body: %w", err)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return &models.GatewayError{Gateway: gatewayName, Op: op, Err: fmt.Errorf("parsing JSON: %w", err)}
	}
	return nil
}
