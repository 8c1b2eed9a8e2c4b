// Package device defines the cache slot that holds the persisted device list.
package device

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/syncsphere/server/internal/domain"
)

// DefaultKey is the name of the single slot the device list is stored under.
const DefaultKey = "audioSplitConfig"

var (
	ErrNotFound = errors.New("device list not found")
	ErrCorrupt  = errors.New("device list is corrupt")
)

// Encode serializes the list as-is, preserving order and fields.
func Encode(devices []domain.Device) ([]byte, error) {
	if devices == nil {
		devices = []domain.Device{}
	}
	data, err := json.Marshal(devices)
	if err != nil {
		return nil, fmt.Errorf("failed to encode devices: %w", err)
	}

	return data, nil
}

func Decode(data []byte) ([]domain.Device, error) {
	var devices []domain.Device
	if err := json.Unmarshal(data, &devices); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if devices == nil {
		return nil, fmt.Errorf("%w: not a list", ErrCorrupt)
	}

	seen := make(map[string]struct{}, len(devices))
	for i, d := range devices {
		if d.ID == "" {
			return nil, fmt.Errorf("%w: device %d has no id", ErrCorrupt, i)
		}
		if _, ok := seen[d.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate device id %q", ErrCorrupt, d.ID)
		}
		seen[d.ID] = struct{}{}
	}

	return devices, nil
}
