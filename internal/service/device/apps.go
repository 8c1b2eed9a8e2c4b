package device

import (
	"context"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/syncsphere/server/internal/domain"
)

func (s *Service) Apps(ctx context.Context) []domain.App {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.apps)
}

// ToggleCapture flips whether an app's audio is routed to the devices. Capture state is not persisted.
func (s *Service) ToggleCapture(ctx context.Context, appID string) (domain.App, error) {
	if err := validation.ValidateWithContext(ctx, appID, AppIDRule...); err != nil {
		return domain.App{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.apps {
		if s.apps[i].ID == appID {
			s.apps[i].Captured = !s.apps[i].Captured
			return s.apps[i], nil
		}
	}

	return domain.App{}, domain.ErrAppNotFound
}
