// Package insightsapi implements the generation.Client interface over the
// insight generation service's HTTP API.
package insightsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/phrazzld/atlas-api/internal/config"
	"github.com/phrazzld/atlas-api/internal/generation"
)

// defaultRequestTimeout bounds a single HTTP request when the configuration
// does not specify one.
const defaultRequestTimeout = 15 * time.Second

// Client talks to the insight generation backend over HTTP. An optional
// rate limiter paces outbound requests across all subjects; polling many
// subjects at once must not hammer the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Ensure Client implements generation.Client interface
var _ generation.Client = (*Client)(nil)

// New creates a Client from the insights backend configuration. If logger
// is nil, a default logger will be used.
func New(cfg config.InsightsConfig, logger *slog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("insights base URL cannot be empty")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid insights base URL %q: %w", cfg.BaseURL, err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		logger:     logger.With(slog.String("component", "insights_client")),
	}, nil
}

// Initialize implements generation.Client.Initialize
// It asks the backend to start generation for the subject and reports what
// the backend decided.
func (c *Client) Initialize(
	ctx context.Context,
	subjectID string,
) (*generation.InitializationResult, error) {
	endpoint := c.subjectURL(subjectID, "initialize")

	var result generation.InitializationResult
	if err := c.do(ctx, http.MethodPost, endpoint, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInitializationFailed, err)
	}

	c.logger.DebugContext(ctx, "initialize call succeeded",
		slog.String("subject_id", subjectID),
		slog.String("init_status", string(result.Status)))
	return &result, nil
}

// Status implements generation.Client.Status
// It fetches the current state of the subject's generation run.
func (c *Client) Status(
	ctx context.Context,
	subjectID string,
) (*generation.StatusReport, error) {
	endpoint := c.subjectURL(subjectID, "status")

	var report generation.StatusReport
	if err := c.do(ctx, http.MethodGet, endpoint, &report); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrStatusUnavailable, err)
	}

	c.logger.DebugContext(ctx, "status call succeeded",
		slog.String("subject_id", subjectID),
		slog.Bool("is_generating", report.IsGenerating),
		slog.Int("completed", report.Completed))
	return &report, nil
}

// subjectURL builds the endpoint URL for one subject operation.
func (c *Client) subjectURL(subjectID, operation string) string {
	return c.baseURL + "/api/insights/" + url.PathEscape(subjectID) + "/" + operation
}

// do performs one HTTP round trip and decodes the JSON response into out.
// The limiter, when configured, is awaited before the request goes out.
func (c *Client) do(ctx context.Context, method, endpoint string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected response status %s", resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
