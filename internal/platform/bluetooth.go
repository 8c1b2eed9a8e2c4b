// Package platform holds stand-ins for host capabilities a server process does not have:
// Bluetooth discovery, per-application audio capture and the browser install prompt.
package platform

import (
	"context"
	"log/slog"
	"time"

	"github.com/syncsphere/server/internal/domain"
)

const DefaultScanDelay = 2 * time.Second

// BluetoothScanner simulates a discovery pass that always finds the same headset.
type BluetoothScanner struct {
	delay time.Duration
}

func NewBluetoothScanner(delay time.Duration) *BluetoothScanner {
	return &BluetoothScanner{delay: delay}
}

// Scan waits for the scan delay and returns the discovered devices without ids;
// the caller assigns ids that are unique within its list.
func (s *BluetoothScanner) Scan(ctx context.Context) ([]domain.Device, error) {
	slog.InfoContext(ctx, "scanning for bluetooth devices", "delay", s.delay)

	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	return []domain.Device{
		{
			Name:              "Bose QuietComfort",
			Type:              domain.DeviceTypeHeadphones,
			Selected:          false,
			Volume:            50,
			SupportedFeatures: []domain.AudioFeature{domain.FeatureSpatialAudio, domain.FeatureStereo},
			FeatureSettings: &domain.FeatureSettings{
				SpatialAudio: &domain.SpatialAudioSettings{Enabled: true, HeadTracking: false},
			},
		},
	}, nil
}
