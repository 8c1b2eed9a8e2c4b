package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syncsphere/server/internal/domain"
	"github.com/syncsphere/server/internal/repository/device"
)

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", device.DefaultKey+".json")
	r := NewRepo(path)
	ctx := context.Background()

	_, err := r.GetDevices(ctx)
	require.ErrorIs(t, err, device.ErrNotFound)

	devices := domain.SeedDevices()
	require.NoError(t, r.SetDevices(ctx, devices))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	want, err := device.Encode(devices)
	require.NoError(t, err)
	assert.Equal(t, want, raw)

	got, err := r.GetDevices(ctx)
	require.NoError(t, err)
	assert.Equal(t, devices, got)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must not linger")
}

func TestFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"1"}`), 0o644))

	_, err := NewRepo(path).GetDevices(context.Background())
	assert.ErrorIs(t, err, device.ErrCorrupt)
}
