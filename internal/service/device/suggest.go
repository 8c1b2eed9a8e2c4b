package device

import (
	"context"
	"log/slog"

	"github.com/syncsphere/server/internal/domain"
	"github.com/syncsphere/server/internal/flow"
)

type SuggestVolumesResponse struct {
	Devices []domain.Device
	// UpdatedIDs lists the devices whose volume came from the suggestion.
	UpdatedIDs []string
}

// SuggestVolumes asks for volumes for the selected devices and applies every returned value.
// On failure the volumes are left untouched.
func (s *Service) SuggestVolumes(ctx context.Context) (SuggestVolumesResponse, error) {
	s.mu.Lock()
	selected := make([]flow.VolumeDevice, 0, len(s.devices))
	for _, d := range s.devices {
		if d.Selected {
			selected = append(selected, flow.VolumeDevice{DeviceID: d.ID, DeviceType: d.Type})
		}
	}
	s.mu.Unlock()

	if len(selected) == 0 {
		return SuggestVolumesResponse{}, ErrNoDevicesSelected
	}

	if !s.suggesting.CompareAndSwap(false, true) {
		return SuggestVolumesResponse{}, ErrSuggestionInProgress
	}
	defer s.suggesting.Store(false)

	suggested, err := s.suggester.Suggest(ctx, selected)
	if err != nil {
		return SuggestVolumesResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := make([]string, 0, len(suggested))
	for i := range s.devices {
		volume, ok := suggested[s.devices[i].ID]
		if !ok {
			continue
		}
		s.devices[i].Volume = domain.ClampVolume(volume)
		updated = append(updated, s.devices[i].ID)
	}
	if len(updated) > 0 {
		s.persist(ctx)
	}

	slog.InfoContext(ctx, "volume suggestions applied", "requested", len(selected), "updated", len(updated))
	return SuggestVolumesResponse{
		Devices:    domain.CloneDevices(s.devices),
		UpdatedIDs: updated,
	}, nil
}
