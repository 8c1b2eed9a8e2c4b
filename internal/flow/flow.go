// Package flow holds the three generative-text operations: volume suggestion,
// subtitle generation and subtitle discovery. Each flow renders a fixed prompt,
// asks a generation.Generator for structured output and collapses every
// transport or schema failure into one *Error carrying a user-facing message.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var ErrGenerationFailed = errors.New("generation failed")

// Error is a failed flow call. It matches ErrGenerationFailed and unwraps to the cause.
type Error struct {
	Flow    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Flow, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrGenerationFailed
}

func fail(ctx context.Context, flow, message string, err error) error {
	slog.WarnContext(ctx, "flow failed", "flow", flow, "error", err)
	return &Error{Flow: flow, Message: message, Err: err}
}

// Message returns the user-facing message of a flow failure, or fallback for other errors.
func Message(err error, fallback string) string {
	var flowErr *Error
	if errors.As(err, &flowErr) {
		return flowErr.Message
	}
	return fallback
}
