// Package generationtest provides a scripted generation backend for tests.
package generationtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/syncsphere/server/internal/generation"
)

var ErrNoResponse = errors.New("generationtest: no scripted response")

type ToolCall struct {
	Name string
	Args string
}

// Response scripts one answer. ToolCalls run first, then OutputFunc (if set) or Output is returned.
type Response struct {
	ToolCalls  []ToolCall
	Output     string
	OutputFunc func(call *generation.Call, toolResults []json.RawMessage) string
	Err        error
	// Wait blocks the call until it is closed or the context is done.
	Wait <-chan struct{}
}

type Generator struct {
	mu        sync.Mutex
	responses map[string][]Response
	calls     []generation.Call
}

func New() *Generator {
	return &Generator{responses: make(map[string][]Response)}
}

// On queues resp for calls named name. The last queued response is reused once the queue drains.
func (g *Generator) On(name string, resp Response) *Generator {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.responses[name] = append(g.responses[name], resp)
	return g
}

func (g *Generator) Calls() []generation.Call {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]generation.Call, len(g.calls))
	copy(out, g.calls)
	return out
}

func (g *Generator) CallCount(name string) int {
	count := 0
	for _, call := range g.Calls() {
		if call.Name == name {
			count++
		}
	}
	return count
}

func (g *Generator) next(call *generation.Call) (Response, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, *call)

	queue := g.responses[call.Name]
	if len(queue) == 0 {
		return Response{}, false
	}

	resp := queue[0]
	if len(queue) > 1 {
		g.responses[call.Name] = queue[1:]
	}
	return resp, true
}

func (g *Generator) Generate(ctx context.Context, call *generation.Call) (json.RawMessage, error) {
	resp, ok := g.next(call)
	if !ok {
		return nil, fmt.Errorf("%w for %q", ErrNoResponse, call.Name)
	}

	if resp.Wait != nil {
		select {
		case <-resp.Wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	results := make([]json.RawMessage, 0, len(resp.ToolCalls))
	for _, tc := range resp.ToolCalls {
		tool, err := call.Tool(tc.Name)
		if err != nil {
			return nil, err
		}
		result, err := tool.Invoke(ctx, json.RawMessage(tc.Args))
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	if resp.Err != nil {
		return nil, resp.Err
	}

	if resp.OutputFunc != nil {
		return json.RawMessage(resp.OutputFunc(call, results)), nil
	}

	return json.RawMessage(resp.Output), nil
}
