package controller

import (
	"errors"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/syncsphere/server/internal/domain"
	"github.com/syncsphere/server/internal/flow"
	"github.com/syncsphere/server/internal/platform"
	"github.com/syncsphere/server/internal/service/device"
	"github.com/syncsphere/server/internal/service/party"
	"github.com/syncsphere/server/pkg/rest"
)

const variantDestructive = "destructive"

// Notification mirrors the toast the UI shows for an operation.
type Notification struct {
	Variant     string `json:"variant,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// readInput decodes and validates the request body, writing the error response itself.
func (c controller) readInput(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := rest.ReadJSON(r, dst); err != nil {
		slog.InfoContext(r.Context(), "read json failed", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return false
	}

	if validationErrors, ok := c.validate.Validate(dst); !ok {
		slog.InfoContext(r.Context(), "validation failed", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return false
	}

	return true
}

// isValidationError reports whether err came from a service parameter rule.
func isValidationError(err error) bool {
	var fieldErrs validation.Errors
	var ruleErr validation.Error
	return errors.As(err, &fieldErrs) || errors.As(err, &ruleErr)
}

func writeData(w http.ResponseWriter, data any, notification *Notification) {
	env := rest.Envelope{"data": data}
	if notification != nil {
		env["notification"] = notification
	}

	rest.WriteJSON(w, http.StatusOK, env)
}

// writeError maps service errors to a status code and notification. fallback describes a
// failed generation call and is used for any error without a more specific notification.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback Notification) {
	status := http.StatusInternalServerError
	notification := fallback
	notification.Variant = variantDestructive
	message := err.Error()

	switch {
	case isValidationError(err):
		status = http.StatusBadRequest
		notification = Notification{Variant: variantDestructive, Title: "Invalid Request", Description: message}
	case errors.Is(err, domain.ErrDeviceNotFound),
		errors.Is(err, domain.ErrAppNotFound),
		errors.Is(err, domain.ErrHistoryEntryNotFound):
		status = http.StatusNotFound
		notification = Notification{Variant: variantDestructive, Title: "Not Found", Description: message}
	case errors.Is(err, domain.ErrFeatureNotSupported):
		status = http.StatusUnprocessableEntity
		notification = Notification{Variant: variantDestructive, Title: "Not Supported", Description: "This device does not support that audio feature."}
	case errors.Is(err, domain.ErrUnknownPlayerEvent):
		status = http.StatusBadRequest
		notification = Notification{Variant: variantDestructive, Title: "Unknown Event", Description: message}
	case errors.Is(err, device.ErrNoDevicesSelected):
		status = http.StatusBadRequest
		notification = Notification{Variant: variantDestructive, Title: "No devices selected", Description: "Please select at least one device to get suggestions."}
	case errors.Is(err, device.ErrSuggestionInProgress),
		errors.Is(err, device.ErrScanInProgress),
		errors.Is(err, party.ErrCaptionRefreshInProgress),
		errors.Is(err, party.ErrSubtitleSearchInProgress):
		status = http.StatusConflict
		notification = Notification{Variant: variantDestructive, Title: "Please Wait", Description: "This action is already in progress."}
	case errors.Is(err, platform.ErrInstallUnavailable):
		status = http.StatusConflict
		notification = Notification{
			Variant:     variantDestructive,
			Title:       "Installation Not Available",
			Description: "The app may already be installed, or your browser doesn't support this feature.",
		}
	case errors.Is(err, flow.ErrGenerationFailed):
		status = http.StatusBadGateway
		message = flow.Message(err, message)
	}

	if status >= http.StatusInternalServerError {
		slog.WarnContext(r.Context(), "request failed", "error", err)
	} else {
		slog.InfoContext(r.Context(), "request rejected", "error", err)
	}

	rest.WriteJSON(w, status, rest.Envelope{
		"error":        message,
		"notification": notification,
	})
}
