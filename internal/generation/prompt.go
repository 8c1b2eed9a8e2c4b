package generation

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/invopop/jsonschema"
	"github.com/syncsphere/server/pkg/validator"
)

// Prompt is a named template rendering I into a request whose answer decodes into O.
type Prompt[I, O any] struct {
	name     string
	tmpl     *template.Template
	schema   *jsonschema.Schema
	tools    []Tool
	validate *validator.Validator
}

// NewPrompt parses text as a text/template. It panics on a malformed template.
func NewPrompt[I, O any](name, text string, tools ...Tool) *Prompt[I, O] {
	var zero O
	return &Prompt[I, O]{
		name:     name,
		tmpl:     template.Must(template.New(name).Option("missingkey=error").Parse(text)),
		schema:   reflectSchema(zero),
		tools:    tools,
		validate: validator.NewValidator(),
	}
}

func (p *Prompt[I, O]) Name() string {
	return p.name
}

// Render executes the template against input.
func (p *Prompt[I, O]) Render(input I) (string, error) {
	var sb strings.Builder
	if err := p.tmpl.Execute(&sb, input); err != nil {
		return "", fmt.Errorf("%s: render prompt: %w", p.name, err)
	}

	return strings.TrimSpace(sb.String()), nil
}

func (p *Prompt[I, O]) Generate(ctx context.Context, g Generator, input I) (O, error) {
	var out O

	if err := p.validate.Err(input); err != nil {
		return out, fmt.Errorf("%s: %w: %w", p.name, ErrInvalidInput, err)
	}

	rendered, err := p.Render(input)
	if err != nil {
		return out, err
	}

	raw, err := g.Generate(ctx, &Call{
		Name:         p.name,
		Prompt:       rendered,
		OutputSchema: p.schema,
		Tools:        p.tools,
	})
	if err != nil {
		return out, fmt.Errorf("%s: %w", p.name, err)
	}

	if err := DecodeJSON(string(raw), &out); err != nil {
		return out, fmt.Errorf("%s: %w: %w", p.name, ErrSchemaMismatch, err)
	}

	if err := p.validate.Err(out); err != nil {
		return out, fmt.Errorf("%s: %w: %w", p.name, ErrSchemaMismatch, err)
	}

	return out, nil
}
