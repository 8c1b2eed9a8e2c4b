// Package file stores the device list in a single JSON file guarded by an flock lock,
// so several server processes sharing a data directory never observe a torn write.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/syncsphere/server/internal/domain"
	"github.com/syncsphere/server/internal/repository/device"
)

const lockRetryDelay = 20 * time.Millisecond

type repo struct {
	path string
	lock *flock.Flock
}

func NewRepo(path string) *repo {
	return &repo{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

func (r *repo) acquire(ctx context.Context, shared bool) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create device file directory: %w", err)
	}

	var err error
	if shared {
		_, err = r.lock.TryRLockContext(ctx, lockRetryDelay)
	} else {
		_, err = r.lock.TryLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return fmt.Errorf("failed to lock device file: %w", err)
	}

	return nil
}

func (r *repo) GetDevices(ctx context.Context) ([]domain.Device, error) {
	if err := r.acquire(ctx, true); err != nil {
		return nil, err
	}
	defer r.lock.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, device.ErrNotFound
		}

		return nil, fmt.Errorf("failed to read device file: %w", err)
	}

	return device.Decode(data)
}

func (r *repo) SetDevices(ctx context.Context, devices []domain.Device) error {
	data, err := device.Encode(devices)
	if err != nil {
		return err
	}

	if err := r.acquire(ctx, false); err != nil {
		return err
	}
	defer r.lock.Unlock()

	tmpPath := r.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write device file: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace device file: %w", err)
	}

	return nil
}
