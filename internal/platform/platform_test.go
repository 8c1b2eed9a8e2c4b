package platform

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syncsphere/server/internal/domain"
)

func TestBluetoothScan(t *testing.T) {
	devices, err := NewBluetoothScanner(time.Millisecond).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)

	d := devices[0]
	assert.Equal(t, "Bose QuietComfort", d.Name)
	assert.Empty(t, d.ID)
	assert.True(t, d.Supports(domain.FeatureSpatialAudio))
	require.NotNil(t, d.FeatureSettings)
	assert.Equal(t, domain.SpatialAudioSettings{Enabled: true, HeadTracking: false}, *d.FeatureSettings.SpatialAudio)
}

func TestBluetoothScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBluetoothScanner(time.Hour).Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInstallPrompt(t *testing.T) {
	var p InstallPrompt
	assert.False(t, p.Available())

	_, err := p.Prompt(context.Background())
	assert.ErrorIs(t, err, ErrInstallUnavailable)
	assert.Len(t, Instructions(), 3)
}

func TestAppSource(t *testing.T) {
	apps, err := NewAppSource().Apps(context.Background())
	require.NoError(t, err)
	assert.Empty(t, apps)
}
