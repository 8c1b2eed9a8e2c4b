package device

import (
	"context"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/syncsphere/server/internal/domain"
)

func (s *Service) Toggle(ctx context.Context, deviceID string) (domain.Device, error) {
	if err := validation.ValidateWithContext(ctx, deviceID, DeviceIDRule...); err != nil {
		return domain.Device{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.find(deviceID)
	if err != nil {
		return domain.Device{}, err
	}
	d.Selected = !d.Selected
	s.persist(ctx)

	slog.DebugContext(ctx, "device toggled", "deviceID", deviceID, "selected", d.Selected)
	return d.Clone(), nil
}

type SetVolumeParams struct {
	DeviceID string
	Volume   int
}

// SetVolume stores the volume clamped to [0,100].
func (s *Service) SetVolume(ctx context.Context, params *SetVolumeParams) (domain.Device, error) {
	if err := validation.ValidateStructWithContext(ctx, params,
		validation.Field(&params.DeviceID, DeviceIDRule...),
	); err != nil {
		return domain.Device{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.find(params.DeviceID)
	if err != nil {
		return domain.Device{}, err
	}
	d.Volume = domain.ClampVolume(params.Volume)
	s.persist(ctx)

	return d.Clone(), nil
}

type UpdateFeatureSettingsParams struct {
	DeviceID string
	Settings domain.FeatureSettings
}

func (s *Service) UpdateFeatureSettings(ctx context.Context, params *UpdateFeatureSettingsParams) (domain.Device, error) {
	if err := validation.ValidateStructWithContext(ctx, params,
		validation.Field(&params.DeviceID, DeviceIDRule...),
		validation.Field(&params.Settings, FeatureSettingsRule...),
	); err != nil {
		return domain.Device{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.find(params.DeviceID)
	if err != nil {
		return domain.Device{}, err
	}
	if err := d.MergeFeatureSettings(params.Settings); err != nil {
		return domain.Device{}, err
	}
	s.persist(ctx)

	slog.DebugContext(ctx, "feature settings updated", "deviceID", params.DeviceID)
	return d.Clone(), nil
}
