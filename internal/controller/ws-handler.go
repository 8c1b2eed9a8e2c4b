package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/syncsphere/server/internal/domain"
	"github.com/syncsphere/server/internal/flow"
	"github.com/syncsphere/server/internal/service/party"
	"github.com/syncsphere/server/pkg/ctxlogger"
	"github.com/syncsphere/server/pkg/wsrouter"
)

const messageError = "ERROR"

type errorPayload struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
}

func (c controller) joinParty(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.InfoContext(r.Context(), "failed to upgrade connection", "error", err)
		return
	}

	clientID := uuid.NewString()
	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("client_id", clientID))

	if err := c.connRepo.Add(conn, clientID); err != nil {
		slog.WarnContext(ctx, "failed to register connection", "error", err)
		conn.Close()
		return
	}
	defer func() {
		c.connRepo.RemoveByConn(conn)
		slog.InfoContext(ctx, "party client removed", "clients", c.connRepo.Len())
	}()

	if err := c.connRepo.Send(conn, &party.Message{
		Type:    party.MessagePartyState,
		Payload: c.partyService.State(ctx),
	}); err != nil {
		slog.InfoContext(ctx, "failed to send initial state", "error", err)
		return
	}

	slog.InfoContext(ctx, "party client connected", "clients", c.connRepo.Len())
	if err := c.getWSRouter().ServeConn(ctx, conn); err != nil {
		slog.InfoContext(ctx, "party client disconnected", "error", err)
		return
	}
	slog.InfoContext(ctx, "party client left")
}

func (c controller) sendError(ctx context.Context, conn *websocket.Conn, err error) {
	message := err.Error()
	switch {
	case errors.Is(err, flow.ErrGenerationFailed):
		message = flow.Message(err, message)
	case isValidationError(err),
		errors.Is(err, wsrouter.ErrUnknownMessageType),
		errors.Is(err, wsrouter.ErrInvalidPayload),
		errors.Is(err, domain.ErrHistoryEntryNotFound),
		errors.Is(err, domain.ErrUnknownPlayerEvent):
	default:
		slog.WarnContext(ctx, "websocket handler failed", "error", err)
	}

	if err := c.connRepo.Send(conn, &party.Message{
		Type: messageError,
		Payload: errorPayload{
			Type:    wsrouter.GetMessageTypeFromCtx(ctx),
			Message: message,
		},
	}); err != nil {
		slog.DebugContext(ctx, "failed to send error", "error", err)
	}
}

func (c controller) validated(input any) error {
	if err := c.validate.Err(input); err != nil {
		return fmt.Errorf("%w: %w", wsrouter.ErrInvalidPayload, err)
	}
	return nil
}

type emptyInput struct{}

func (c controller) handleAlive(_ context.Context, _ *websocket.Conn, _ emptyInput) error {
	return nil
}

func (c controller) handlePlayerEvent(ctx context.Context, _ *websocket.Conn, input playerEventInput) error {
	if err := c.validated(input); err != nil {
		return err
	}

	if _, err := c.partyService.PlayerEvent(ctx, input.Event); err != nil {
		return fmt.Errorf("failed to apply player event: %w", err)
	}

	return nil
}

type loadHistoryInput struct {
	EntryID string `json:"entryId" validate:"required"`
}

func (c controller) handleLoadHistory(ctx context.Context, _ *websocket.Conn, input loadHistoryInput) error {
	if err := c.validated(input); err != nil {
		return err
	}

	if _, err := c.partyService.LoadHistory(ctx, input.EntryID); err != nil {
		return fmt.Errorf("failed to load history entry: %w", err)
	}

	return nil
}

func (c controller) handleUpdateCaptions(ctx context.Context, _ *websocket.Conn, input updateCaptionsInput) error {
	if err := c.validated(input); err != nil {
		return err
	}

	if _, err := c.partyService.UpdateCaptions(ctx, &party.UpdateCaptionsParams{
		Enabled:        input.Enabled,
		TargetLanguage: input.TargetLanguage,
	}); err != nil {
		return fmt.Errorf("failed to update captions: %w", err)
	}

	return nil
}
