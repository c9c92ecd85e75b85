package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/haasonsaas/concierge/internal/observability"
	"github.com/haasonsaas/concierge/pkg/models"
)

const (
	defaultComposioBaseURL = "https://backend.composio.dev"
	defaultRequestTimeout  = 60 * time.Second

	// Tool results can be large; cap the body read so a misbehaving backend
	// cannot exhaust memory.
	maxResponseBytes = 8 << 20
)

// ComposioClient is a Broker backed by the Composio HTTP API.
type ComposioClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *observability.Logger
}

// ComposioConfig holds settings for the Composio backend.
type ComposioConfig struct {
	// APIKey authenticates every request (required).
	APIKey string

	// BaseURL overrides the production endpoint, mainly for tests.
	BaseURL string

	Timeout time.Duration
}

// NewComposioClient creates a Composio-backed broker.
func NewComposioClient(cfg ComposioConfig, logger *observability.Logger) (*ComposioClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("composio: api key is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultComposioBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	if logger == nil {
		logger = observability.NewDefaultLogger()
	}
	return &ComposioClient{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.WithComponent("composio"),
	}, nil
}

type executeRequest struct {
	UserID    string         `json:"user_id"`
	Arguments map[string]any `json:"arguments"`
}

type executeResponse struct {
	Data       any    `json:"data"`
	Successful *bool  `json:"successful"`
	Error      string `json:"error"`
}

// Execute implements Broker.
func (c *ComposioClient) Execute(ctx context.Context, userID, slug string, args map[string]any) (*models.ToolResult, error) {
	if args == nil {
		args = map[string]any{}
	}
	body, err := json.Marshal(executeRequest{UserID: userID, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("composio: encode arguments for %s: %w", slug, err)
	}

	endpoint := fmt.Sprintf("%s/api/v3/tools/execute/%s", c.baseURL, url.PathEscape(slug))
	start := time.Now()
	raw, status, err := c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("composio: execute %s: %w", slug, err)
	}

	c.logger.Debug(ctx, "tool executed",
		"slug", slug,
		"status", status,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	var resp executeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("composio: decode result for %s: %w", slug, err)
	}
	if status >= 400 {
		message := resp.Error
		if message == "" {
			message = http.StatusText(status)
		}
		return nil, fmt.Errorf("composio: execute %s: status %d: %s", slug, status, message)
	}

	result := &models.ToolResult{Data: resp.Data, Successful: resp.Successful}
	if resp.Error != "" && resp.Successful == nil {
		failed := false
		result.Successful = &failed
	}
	return result, nil
}

type toolListResponse struct {
	Items []struct {
		Slug            string         `json:"slug"`
		Description     string         `json:"description"`
		InputParameters map[string]any `json:"input_parameters"`
	} `json:"items"`
}

// FetchTools implements Broker.
func (c *ComposioClient) FetchTools(ctx context.Context, userID string, slugs []string) ([]models.ToolDefinition, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("tool_slugs", strings.Join(slugs, ","))
	if userID != "" {
		query.Set("user_id", userID)
	}
	endpoint := fmt.Sprintf("%s/api/v3/tools?%s", c.baseURL, query.Encode())

	raw, status, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("composio: fetch tools: %w", err)
	}
	if status >= 400 {
		return nil, fmt.Errorf("composio: fetch tools: status %d", status)
	}

	var resp toolListResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("composio: decode tool list: %w", err)
	}

	tools := make([]models.ToolDefinition, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Slug == "" {
			continue
		}
		tools = append(tools, models.ToolDefinition{
			Name:        item.Slug,
			Description: item.Description,
			Parameters:  item.InputParameters,
		})
	}
	return tools, nil
}

func (c *ComposioClient) do(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("x-api-key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return raw, resp.StatusCode, nil
}
