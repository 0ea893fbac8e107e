package llm

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"tribunal/internal/agent/ports"
	"tribunal/internal/errors"
	"tribunal/internal/logging"
	"tribunal/internal/token"
)

// OpenAIClient speaks the OpenAI-compatible chat completions API. It tracks
// instance spend, so it also satisfies ports.BudgetReporter, and its default
// temperature can be adjusted between attempts (ports.TemperatureControl).
type OpenAIClient struct {
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
	retry      errors.RetryConfig
	costLimit  float64
	logger     logging.Logger

	mu          sync.Mutex
	temperature float64
	stats       ports.InstanceStats
}

var (
	_ ports.LLMClient          = (*OpenAIClient)(nil)
	_ ports.TemperatureControl = (*OpenAIClient)(nil)
	_ ports.BudgetReporter     = (*OpenAIClient)(nil)
)

// NewOpenAIClient builds a client from config, filling provider defaults.
func NewOpenAIClient(config Config, logger logging.Logger) (*OpenAIClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.APIKey == "" {
		config.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	timeout := 120 * time.Second
	if config.TimeoutSeconds > 0 {
		timeout = time.Duration(config.TimeoutSeconds) * time.Second
	}
	retry := errors.DefaultRetryConfig()
	if config.MaxRetries > 0 {
		retry.MaxAttempts = config.MaxRetries
	}
	return &OpenAIClient{
		model:       config.Model,
		apiKey:      config.APIKey,
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		headers:     config.Headers,
		retry:       retry,
		costLimit:   config.CostLimit,
		temperature: config.Temperature,
		logger:      logging.OrNop(logger),
	}, nil
}

func (c *OpenAIClient) ModelName() string { return c.model }

func (c *OpenAIClient) Temperature() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.temperature
}

func (c *OpenAIClient) SetTemperature(temperature float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.temperature = temperature
}

func (c *OpenAIClient) Stats() ports.InstanceStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *OpenAIClient) CostLimit() float64 { return c.costLimit }

// Query sends messages and returns opts.N completions from one API call.
// Transient provider failures are retried with exponential backoff.
func (c *OpenAIClient) Query(ctx context.Context, messages []ports.Message, opts ports.QueryOptions) ([]ports.Completion, error) {
	n := opts.N
	if n <= 0 {
		n = 1
	}
	temperature := c.Temperature()
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}

	var completions []ports.Completion
	err := errors.Retry(ctx, c.retry, func(ctx context.Context) error {
		var err error
		completions, err = c.query(ctx, messages, n, temperature)
		return err
	}, c.logger)
	if err != nil {
		return nil, err
	}
	return completions, nil
}

func (c *OpenAIClient) query(ctx context.Context, messages []ports.Message, n int, temperature float64) ([]ports.Completion, error) {
	reqBody := map[string]any{
		"model":       c.model,
		"messages":    convertMessages(messages),
		"temperature": temperature,
		"n":           n,
		"stream":      false,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &errors.TransientError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.FromHTTPStatus(resp.StatusCode, fmt.Errorf("chat completions: %s", strings.TrimSpace(string(respBody))))
	}

	var oaiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(respBody, &oaiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(oaiResp.Choices) == 0 {
		return nil, &errors.TransientError{Err: stderrors.New("no choices in response")}
	}

	usage := ports.TokenUsage{
		PromptTokens:     oaiResp.Usage.PromptTokens,
		CompletionTokens: oaiResp.Usage.CompletionTokens,
		TotalTokens:      oaiResp.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		// Some compatible providers omit usage. Estimate so cost
		// accounting never silently reads zero.
		contents := make([]string, len(oaiResp.Choices))
		for i, choice := range oaiResp.Choices {
			contents[i] = choice.Message.Content
		}
		usage = estimateUsage(messages, contents)
	}
	c.recordUsage(usage)

	completions := make([]ports.Completion, len(oaiResp.Choices))
	perChoice := usage
	perChoice.CompletionTokens /= len(oaiResp.Choices)
	for i, choice := range oaiResp.Choices {
		completions[i] = ports.Completion{Content: choice.Message.Content, Usage: perChoice}
	}
	return completions, nil
}

func (c *OpenAIClient) recordUsage(usage ports.TokenUsage) {
	cost := ports.CalculateCost(usage, c.model)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = c.stats.Add(ports.InstanceStats{
		InstanceCost:   cost,
		TokensSent:     usage.PromptTokens,
		TokensReceived: usage.CompletionTokens,
		APICalls:       1,
	})
	c.logger.Debug("api call cost %.6f, instance total %.4f", cost, c.stats.InstanceCost)
}

func convertMessages(messages []ports.Message) []map[string]any {
	out := make([]map[string]any, len(messages))
	for i, msg := range messages {
		m := map[string]any{
			"role":    msg.Role,
			"content": msg.Content,
		}
		if msg.CacheEligible {
			m["cache_control"] = map[string]string{"type": "ephemeral"}
		}
		out[i] = m
	}
	return out
}

func estimateUsage(messages []ports.Message, completions []string) ports.TokenUsage {
	var usage ports.TokenUsage
	for _, msg := range messages {
		usage.PromptTokens += token.Count(msg.Content)
	}
	for _, content := range completions {
		usage.CompletionTokens += token.Count(content)
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	return usage
}
