// Package alpaca is the stock execution gateway and market data source
// backed by the Alpaca trading and market data REST APIs.
package alpaca

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/SignalTrader/internal/platform/http"
	"github.com/Alias1177/SignalTrader/models"
)

const (
	gatewayName = "alpaca"

	// PaperURL is the paper-trading endpoint, used when no base URL is set
	PaperURL = "https://paper-api.alpaca.markets"
	// DataURL is the market data endpoint
	DataURL = "https://data.alpaca.markets"
)

// Client is the Alpaca API client
type Client struct {
	apiKey     string
	secretKey  string
	baseURL    string
	dataURL    string
	httpClient *httpClient.Client
	validate   *validator.Validate
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Alpaca client
type ClientOptions struct {
	APIKey            string
	SecretKey         string
	BaseURL           string
	DataURL           string
	RequestTimeout    time.Duration
	RequestsPerMinute int
	MaxRetryTimeout   time.Duration
}

// NewClient creates a new Alpaca API client
func NewClient(options ClientOptions) *Client {
	httpOpts := httpClient.ClientOptions{
		Timeout:           options.RequestTimeout,
		RequestsPerMinute: options.RequestsPerMinute,
		MaxRetryTimeout:   options.MaxRetryTimeout,
	}

	// Alpaca allows 200 requests per minute per account
	if httpOpts.RequestsPerMinute == 0 {
		httpOpts.RequestsPerMinute = 200
	}
	if options.BaseURL == "" {
		options.BaseURL = PaperURL
	}
	if options.DataURL == "" {
		options.DataURL = DataURL
	}

	return &Client{
		apiKey:     options.APIKey,
		secretKey:  options.SecretKey,
		baseURL:    options.BaseURL,
		dataURL:    options.DataURL,
		httpClient: httpClient.NewClient(httpOpts),
		validate:   validator.New(),
		logger:     log.With().Str("component", "alpaca_client").Logger(),
	}
}

// IsConfigured reports whether API credentials are present
func (c *Client) IsConfigured() bool {
	return c.apiKey != "" && c.secretKey != ""
}

// do sends a signed request and decodes a JSON response into out, if
// out is not nil. Transport failures come back as *models.GatewayError.
func (c *Client) do(ctx context.Context, op, method, url string, payload, out any) error {
	if !c.IsConfigured() {
		return &models.GatewayError{Gateway: gatewayName, Op: op, Err: models.ErrNotConfigured}
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", op, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("APCA-API-KEY-ID", c.apiKey)
	req.Header.Set("APCA-API-SECRET-KEY", c.secretKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("op", op).Str("method", method).Str("url", url).Msg("Calling Alpaca")

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		c.logger.Error().Err(err).Str("op", op).Msg("Alpaca request failed")
		return &models.GatewayError{Gateway: gatewayName, Op: op, StatusCode: httpClient.StatusCode(err), Err: err}
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &models.GatewayError{Gateway: gatewayName, Op: op, Err: fmt.Errorf("reading response body: %w", err)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Error().Err(err).Str("response", string(raw)).Msg("Error parsing JSON")
		return &models.GatewayError{Gateway: gatewayName, Op: op, Err: fmt.Errorf("parsing JSON: %w", err)}
	}
	if err := c.validate.Struct(out); err != nil {
		return &models.GatewayError{Gateway: gatewayName, Op: op, Err: fmt.Errorf("unexpected response: %w", err)}
	}
	return nil
}
