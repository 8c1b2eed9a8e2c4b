package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"
)

var (
	ErrInvalidInput   = errors.New("input does not match schema")
	ErrSchemaMismatch = errors.New("output does not match schema")
	ErrUnknownTool    = errors.New("unknown tool")
)

// Generator produces JSON conforming to call.OutputSchema, invoking call.Tools as needed.
type Generator interface {
	Generate(ctx context.Context, call *Call) (json.RawMessage, error)
}

type Call struct {
	Name         string
	Prompt       string
	OutputSchema *jsonschema.Schema
	Tools        []Tool
}

// Tool returns the declared tool named name.
func (c *Call) Tool(name string) (Tool, error) {
	for _, tool := range c.Tools {
		if tool.Name == name {
			return tool, nil
		}
	}

	return Tool{}, fmt.Errorf("%w: %q", ErrUnknownTool, name)
}

type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema

	invoke func(ctx context.Context, args json.RawMessage) (any, error)
}

// NewTool declares a tool whose arguments decode into I.
func NewTool[I, O any](name, description string, fn func(ctx context.Context, input I) (O, error)) Tool {
	var zero I
	return Tool{
		Name:        name,
		Description: description,
		InputSchema: reflectSchema(zero),
		invoke: func(ctx context.Context, args json.RawMessage) (any, error) {
			var input I
			if err := DecodeJSON(string(args), &input); err != nil {
				return nil, fmt.Errorf("tool %s: %w: %w", name, ErrInvalidInput, err)
			}
			return fn(ctx, input)
		},
	}
}

// Invoke runs the tool with JSON arguments and returns its JSON-encoded result.
func (t Tool) Invoke(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	if t.invoke == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, t.Name)
	}

	result, err := t.invoke(ctx, args)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("tool %s: encode result: %w", t.Name, err)
	}

	return encoded, nil
}
