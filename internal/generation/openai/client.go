// Package openai implements generation.Generator against an OpenAI-compatible
// chat completions endpoint (OpenRouter by default).
//
// Structured output is requested with a json_schema response format, and the
// schema is repeated in the system prompt for providers that ignore it. When
// the call declares tools the client runs a bounded tool-call loop: tool calls
// returned by the model are executed locally and their results appended to the
// conversation before asking again.
//
// Retries are off by default (one attempt). WithRetryMaxAttempts enables
// retrying on HTTP 408/429/5xx, empty content and network timeouts with
// exponential backoff; context cancellation aborts immediately.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/syncsphere/server/internal/generation"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1/chat/completions"

	defaultHTTPTimeout    = 30 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 1
	maxToolRounds         = 4

	systemPrompt = "You must respond with a single JSON object that conforms to this JSON schema:\n"
)

var ErrAPIKeyRequired = errors.New("api key required")

type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRetryMaxAttempts overrides the attempt count per request (defaults to 1).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed.
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Referer:        strings.TrimSpace(cfg.Referer),
			Title:          strings.TrimSpace(cfg.Title),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		logger:           slog.Default(),
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = DefaultBaseURL
	}
	return client
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("chat request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

type emptyContentError struct {
	Op           string
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf(
		"%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.Op,
		e.FinishReason,
		e.Refusal,
		e.Snippet,
	)
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Tools          []toolSpec      `json:"tools,omitempty"`
}

type responseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *jsonSchemaFormat `json:"json_schema,omitempty"`
}

type jsonSchemaFormat struct {
	Name   string `json:"name"`
	Schema any    `json:"schema"`
	Strict bool   `json:"strict"`
}

type toolSpec struct {
	Type     string       `json:"type"`
	Function functionSpec `json:"function"`
}

type functionSpec struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

type chatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
		// Some providers return the streaming schema (delta) even when stream=false.
		Delta        chatCompletionMessage `json:"delta"`
		Text         string                `json:"text"`
		FinishReason string                `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatCompletionMessage struct {
	Content   string     `json:"content"`
	ToolCalls []toolCall `json:"tool_calls"`
	Refusal   string     `json:"refusal"`
}

type toolCall struct {
	Type     string       `json:"type"`
	ID       string       `json:"id"`
	Index    int          `json:"index"`
	Function functionCall `json:"function"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Generate runs call against the backend, executing declared tools when the model asks for them.
func (c *Client) Generate(ctx context.Context, call *generation.Call) (json.RawMessage, error) {
	op := "generate " + call.Name
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrAPIKeyRequired)
	}

	schema, err := json.Marshal(call.OutputSchema)
	if err != nil {
		return nil, fmt.Errorf("%s: encode schema: %w", op, err)
	}

	tools := make([]toolSpec, 0, len(call.Tools))
	for _, tool := range call.Tools {
		tools = append(tools, toolSpec{
			Type: "function",
			Function: functionSpec{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.InputSchema,
			},
		})
	}

	messages := []chatMessage{
		{Role: "system", Content: systemPrompt + string(schema)},
		{Role: "user", Content: call.Prompt},
	}

	for round := 0; ; round++ {
		payload := chatCompletionRequest{
			Model:       c.cfg.Model,
			Messages:    messages,
			Temperature: 0,
			ResponseFormat: &responseFormat{
				Type: "json_schema",
				JSONSchema: &jsonSchemaFormat{
					Name:   call.Name,
					Schema: call.OutputSchema,
				},
			},
			Tools: tools,
		}

		msg, err := c.completionWithRetry(ctx, payload, op)
		if err != nil {
			return nil, err
		}

		if len(call.Tools) == 0 && msg.content == "" {
			msg.content = toolArguments(msg.toolCalls)
		}
		if len(call.Tools) > 0 && len(msg.toolCalls) > 0 {
			if round >= maxToolRounds {
				return nil, fmt.Errorf("%s: tool call limit of %d rounds exceeded", op, maxToolRounds)
			}
			messages = append(messages, chatMessage{Role: "assistant", ToolCalls: msg.toolCalls})
			for _, tc := range msg.toolCalls {
				messages = append(messages, chatMessage{
					Role:       "tool",
					ToolCallID: tc.ID,
					Content:    c.runTool(ctx, call, tc),
				})
			}
			continue
		}

		if msg.content == "" {
			return nil, fmt.Errorf("%s: model returned tool calls without content", op)
		}
		return json.RawMessage(msg.content), nil
	}
}

func (c *Client) runTool(ctx context.Context, call *generation.Call, tc toolCall) string {
	tool, err := call.Tool(tc.Function.Name)
	if err == nil {
		var result json.RawMessage
		result, err = tool.Invoke(ctx, json.RawMessage(tc.Function.Arguments))
		if err == nil {
			c.logger.DebugContext(ctx, "tool call", "call", call.Name, "tool", tool.Name)
			return string(result)
		}
	}

	c.logger.WarnContext(ctx, "tool call failed", "call", call.Name, "tool", tc.Function.Name, "error", err)
	encoded, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(encoded)
}

type completion struct {
	content   string
	toolCalls []toolCall
}

func (c *Client) completionWithRetry(ctx context.Context, payload chatCompletionRequest, op string) (completion, error) {
	attempts := c.retryAttempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		resp, body, err := c.sendChatRequestOnce(ctx, payload)
		if err == nil {
			msg := extractCompletion(resp)
			if msg.content != "" || len(msg.toolCalls) > 0 {
				return msg, nil
			}
			if len(resp.Choices) == 0 {
				err = fmt.Errorf("%s: empty choices", op)
			} else {
				err = &emptyContentError{
					Op:           op,
					FinishReason: resp.Choices[0].FinishReason,
					Refusal:      firstNonEmpty(resp.Choices[0].Message.Refusal, resp.Choices[0].Delta.Refusal),
					Snippet:      generation.Snippet(string(body)),
				}
			}
		}

		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return completion{}, err
		}
		c.logger.InfoContext(ctx, "retrying chat request", "op", op, "attempt", attempt, "delay", delay, "error", err)
		if err := c.sleep(ctx, delay); err != nil {
			return completion{}, err
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return completion{}, fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

func extractCompletion(resp chatCompletionResponse) completion {
	for _, choice := range resp.Choices {
		if content := firstNonEmpty(choice.Message.Content, choice.Delta.Content, choice.Text); content != "" {
			return completion{content: content}
		}
		if len(choice.Message.ToolCalls) > 0 {
			return completion{toolCalls: choice.Message.ToolCalls}
		}
		if len(choice.Delta.ToolCalls) > 0 {
			return completion{toolCalls: choice.Delta.ToolCalls}
		}
	}
	return completion{}
}

// toolArguments returns the first non-empty tool call arguments. Some providers
// deliver structured output as a function call even when no tools were declared.
func toolArguments(calls []toolCall) string {
	for _, call := range calls {
		if args := strings.TrimSpace(call.Function.Arguments); args != "" {
			return args
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func (c *Client) sendChatRequestOnce(ctx context.Context, payload chatCompletionRequest) (chatCompletionResponse, []byte, error) {
	var resp chatCompletionResponse
	endpoint, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return resp, nil, fmt.Errorf("chat request: parse url: %w", err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return resp, nil, fmt.Errorf("chat request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(encoded))
	if err != nil {
		return resp, nil, fmt.Errorf("chat request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return resp, nil, fmt.Errorf("chat request: http error: %w", err)
	}
	defer httpResp.Body.Close()
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return resp, nil, fmt.Errorf("chat request: read body: %w", err)
	}
	if httpResp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(httpResp.Header.Get("Retry-After"))
		return resp, body, &httpStatusError{
			StatusCode: httpResp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return resp, body, fmt.Errorf("chat request: decode response: %w", err)
	}
	if resp.Error != nil {
		return resp, body, fmt.Errorf("chat request: api error: %s", strings.TrimSpace(resp.Error.Message))
	}
	return resp, body, nil
}

func (c *Client) retryAttempts() int {
	if c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var emptyErr *emptyContentError
	if errors.As(err, &emptyErr) {
		return c.backoffDelay(attempt), true
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return c.capDelay(statusErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}

	return 0, false
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	base := c.retryBaseDelay
	if base <= 0 {
		return 0
	}

	// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
	delay := base
	for i := 1; i < attempt; i++ {
		if c.retryMaxDelay > 0 && delay > c.retryMaxDelay/2 {
			delay = c.retryMaxDelay
			break
		}
		delay *= 2
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if c.retryMaxDelay > 0 && delay > c.retryMaxDelay {
		return c.retryMaxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
