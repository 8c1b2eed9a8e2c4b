package device

import (
	"context"
	"log/slog"

	"github.com/syncsphere/server/internal/domain"
)

type ScanResponse struct {
	Found   []domain.Device
	Devices []domain.Device
}

// Scan runs the platform scanner and appends what it finds with fresh ids.
func (s *Service) Scan(ctx context.Context) (ScanResponse, error) {
	if !s.scanning.CompareAndSwap(false, true) {
		return ScanResponse{}, ErrScanInProgress
	}
	defer s.scanning.Store(false)

	found, err := s.scanner.Scan(ctx)
	if err != nil {
		return ScanResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added := make([]domain.Device, 0, len(found))
	for _, d := range found {
		d = d.Clone()
		d.ID = s.nextID()
		d.Volume = domain.ClampVolume(d.Volume)
		s.devices = append(s.devices, d)
		added = append(added, d.Clone())
	}
	if len(added) > 0 {
		s.persist(ctx)
	}

	slog.InfoContext(ctx, "device scan finished", "found", len(added))
	return ScanResponse{
		Found:   added,
		Devices: domain.CloneDevices(s.devices),
	}, nil
}
