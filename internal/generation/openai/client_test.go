package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syncsphere/server/internal/generation"
)

func contentResponse(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{
				"message": map[string]any{"content": content},
			},
		},
	}
}

func toolCallResponse(id, name, args string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{
				"finish_reason": "tool_calls",
				"message": map[string]any{
					"content": "",
					"tool_calls": []any{
						map[string]any{
							"type": "function",
							"id":   id,
							"function": map[string]any{
								"name":      name,
								"arguments": args,
							},
						},
					},
				},
			},
		},
	}
}

func testCall() *generation.Call {
	return &generation.Call{
		Name:         "greet",
		Prompt:       "Say hello",
		OutputSchema: &jsonschema.Schema{Type: "object"},
	}
}

func TestClientGenerate(t *testing.T) {
	var got chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test", r.Header.Get("Authorization"))
		assert.Equal(t, "syncsphere", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		require.NoError(t, json.NewEncoder(w).Encode(contentResponse(`{"greeting":"hi"}`)))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model", Title: "syncsphere"})
	out, err := client.Generate(context.Background(), testCall())
	require.NoError(t, err)
	assert.JSONEq(t, `{"greeting":"hi"}`, string(out))

	assert.Equal(t, "demo-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, `"type":"object"`)
	assert.Equal(t, "Say hello", got.Messages[1].Content)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_schema", got.ResponseFormat.Type)
	assert.Equal(t, "greet", got.ResponseFormat.JSONSchema.Name)
	assert.Empty(t, got.Tools)
}

func TestClientGenerateMissingAPIKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := client.Generate(context.Background(), testCall())
	assert.ErrorIs(t, err, ErrAPIKeyRequired)
}

func TestClientGenerateHTTPError(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	_, err := client.Generate(context.Background(), testCall())
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load(), "retries are disabled by default")
}

func TestClientGenerateRetriesOnServerError(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(contentResponse(`{"ok":true}`))
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL},
		WithRetryMaxAttempts(3),
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)
	out, err := client.Generate(context.Background(), testCall())
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(out))
	assert.Equal(t, []time.Duration{2 * time.Second}, slept)
}

func TestClientGenerateDoesNotRetryClientError(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL}, WithRetryMaxAttempts(3), WithSleeper(func(time.Duration) {}))
	_, err := client.Generate(context.Background(), testCall())
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClientGenerateEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "content_filter",
					"message":       map[string]any{"content": "", "refusal": "no"},
				},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	_, err := client.Generate(context.Background(), testCall())

	var emptyErr *emptyContentError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, "content_filter", emptyErr.FinishReason)
	assert.Equal(t, "no", emptyErr.Refusal)
}

func TestClientGenerateToolArgumentsWithoutTools(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(toolCallResponse("call_1", "emit", `{"greeting":"hi"}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	out, err := client.Generate(context.Background(), testCall())
	require.NoError(t, err)
	assert.JSONEq(t, `{"greeting":"hi"}`, string(out))
}

type lookupInput struct {
	Title string `json:"title"`
}

type lookupOutput struct {
	Found bool `json:"found"`
}

func TestClientGenerateRunsTools(t *testing.T) {
	var requests []chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)

		if len(requests) == 1 {
			_ = json.NewEncoder(w).Encode(toolCallResponse("call_1", "lookup", `{"title":"Sintel"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(contentResponse(`{"done":true}`))
	}))
	defer server.Close()

	var seen string
	call := testCall()
	call.Tools = []generation.Tool{
		generation.NewTool("lookup", "Looks up a title.", func(_ context.Context, in lookupInput) (lookupOutput, error) {
			seen = in.Title
			return lookupOutput{Found: true}, nil
		}),
	}

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	out, err := client.Generate(context.Background(), call)
	require.NoError(t, err)
	assert.JSONEq(t, `{"done":true}`, string(out))
	assert.Equal(t, "Sintel", seen)

	require.Len(t, requests, 2)
	require.Len(t, requests[0].Tools, 1)
	assert.Equal(t, "lookup", requests[0].Tools[0].Function.Name)

	followUp := requests[1].Messages
	require.Len(t, followUp, 4)
	assert.Equal(t, "assistant", followUp[2].Role)
	assert.Equal(t, "tool", followUp[3].Role)
	assert.Equal(t, "call_1", followUp[3].ToolCallID)
	assert.JSONEq(t, `{"found":true}`, followUp[3].Content)
}

func TestClientGenerateToolRoundLimit(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(toolCallResponse("call", "lookup", `{"title":"x"}`))
	}))
	defer server.Close()

	call := testCall()
	call.Tools = []generation.Tool{
		generation.NewTool("lookup", "", func(context.Context, lookupInput) (lookupOutput, error) {
			return lookupOutput{}, nil
		}),
	}

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	_, err := client.Generate(context.Background(), call)
	require.Error(t, err)
	assert.Equal(t, int32(maxToolRounds+1), hits.Load())
}

func TestParseRetryAfter(t *testing.T) {
	d, ok := parseRetryAfter("3")
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, d)

	_, ok = parseRetryAfter("")
	assert.False(t, ok)

	_, ok = parseRetryAfter("-1")
	assert.False(t, ok)
}
