package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/syncsphere/server/internal/domain"
	"github.com/syncsphere/server/internal/repository/device"
)

type repo struct {
	rc  *redis.Client
	key string
}

func NewRepo(rc *redis.Client, key string) *repo {
	if key == "" {
		key = device.DefaultKey
	}

	return &repo{
		rc:  rc,
		key: key,
	}
}

func (r repo) GetDevices(ctx context.Context) ([]domain.Device, error) {
	data, err := r.rc.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, device.ErrNotFound
		}

		return nil, fmt.Errorf("failed to get devices: %w", err)
	}

	return device.Decode(data)
}

func (r repo) SetDevices(ctx context.Context, devices []domain.Device) error {
	data, err := device.Encode(devices)
	if err != nil {
		return err
	}

	if err := r.rc.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set devices: %w", err)
	}

	return nil
}
