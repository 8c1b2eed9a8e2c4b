package device

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syncsphere/server/internal/domain"
	"github.com/syncsphere/server/internal/flow"
	"github.com/syncsphere/server/internal/generation/generationtest"
	"github.com/syncsphere/server/internal/platform"
	deviceRepo "github.com/syncsphere/server/internal/repository/device"
	deviceRedis "github.com/syncsphere/server/internal/repository/device/redis"
)

type failingRepo struct{}

func (failingRepo) GetDevices(context.Context) ([]domain.Device, error) {
	return nil, errors.New("unreachable")
}

func (failingRepo) SetDevices(context.Context, []domain.Device) error {
	return errors.New("unreachable")
}

type testEnv struct {
	service *Service
	gen     *generationtest.Generator
	redis   *miniredis.Miniredis
	repo    iDeviceRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	t.Cleanup(func() { rc.Close() })

	repo := deviceRedis.NewRepo(rc, deviceRepo.DefaultKey)
	gen := generationtest.New()
	service := NewService(
		repo,
		flow.NewVolumeSuggestion(gen),
		platform.NewBluetoothScanner(time.Millisecond),
		platform.NewAppSource(domain.App{ID: "spotify", Name: "Spotify"}),
	)

	return &testEnv{service: service, gen: gen, redis: s, repo: repo}
}

func TestLoadSeedsWhenCacheMissing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.service.Load(ctx)
	assert.Equal(t, domain.SeedDevices(), env.service.List(ctx))

	stored, err := env.repo.GetDevices(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SeedDevices(), stored, "seed list must be written back")
}

func TestLoadSeedsWhenCacheCorrupt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.redis.Set(deviceRepo.DefaultKey, `[{"id":`))

	env.service.Load(ctx)
	assert.Equal(t, domain.SeedDevices(), env.service.List(ctx))
}

func TestLoadFromCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cached := []domain.Device{
		{ID: "a", Name: "Desk", Type: domain.DeviceTypeSpeakers, Selected: true, Volume: 150},
	}
	require.NoError(t, env.repo.SetDevices(ctx, cached))

	env.service.Load(ctx)
	devices := env.service.List(ctx)
	require.Len(t, devices, 1)
	assert.Equal(t, "Desk", devices[0].Name)
	assert.Equal(t, 100, devices[0].Volume, "cached volume must be clamped")
}

func TestLoadSurvivesRepoFailure(t *testing.T) {
	service := NewService(failingRepo{}, nil, nil, platform.NewAppSource())
	ctx := context.Background()

	service.Load(ctx)
	assert.Equal(t, domain.SeedDevices(), service.List(ctx))

	d, err := service.Toggle(ctx, "1")
	require.NoError(t, err, "persist failures are not fatal")
	assert.False(t, d.Selected)
}

func TestToggleAndPersist(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.service.Load(ctx)

	d, err := env.service.Toggle(ctx, "2")
	require.NoError(t, err)
	assert.True(t, d.Selected)

	stored, err := env.repo.GetDevices(ctx)
	require.NoError(t, err)
	assert.True(t, stored[1].Selected)

	_, err = env.service.Toggle(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrDeviceNotFound)
}

func TestSetVolumeClamps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.service.Load(ctx)

	d, err := env.service.SetVolume(ctx, &SetVolumeParams{DeviceID: "1", Volume: 130})
	require.NoError(t, err)
	assert.Equal(t, 100, d.Volume)

	d, err = env.service.SetVolume(ctx, &SetVolumeParams{DeviceID: "1", Volume: -5})
	require.NoError(t, err)
	assert.Equal(t, 0, d.Volume)
}

func TestVolumesStayClampedUnderRandomUpdates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.service.Load(ctx)
	rnd := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		id := domain.SeedDevices()[rnd.Intn(8)].ID
		switch rnd.Intn(2) {
		case 0:
			_, err := env.service.Toggle(ctx, id)
			require.NoError(t, err)
		case 1:
			_, err := env.service.SetVolume(ctx, &SetVolumeParams{DeviceID: id, Volume: rnd.Intn(400) - 200})
			require.NoError(t, err)
		}
	}

	for _, d := range env.service.List(ctx) {
		assert.GreaterOrEqual(t, d.Volume, domain.MinVolume)
		assert.LessOrEqual(t, d.Volume, domain.MaxVolume)
	}
}

func TestUpdateFeatureSettings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.service.Load(ctx)

	d, err := env.service.UpdateFeatureSettings(ctx, &UpdateFeatureSettingsParams{
		DeviceID: "5",
		Settings: domain.FeatureSettings{SpatialAudio: &domain.SpatialAudioSettings{Enabled: true, HeadTracking: false}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SpatialAudioSettings{Enabled: true, HeadTracking: false}, *d.FeatureSettings.SpatialAudio)

	_, err = env.service.UpdateFeatureSettings(ctx, &UpdateFeatureSettingsParams{
		DeviceID: "1",
		Settings: domain.FeatureSettings{SpatialAudio: &domain.SpatialAudioSettings{Enabled: true}},
	})
	assert.ErrorIs(t, err, domain.ErrFeatureNotSupported)
}

func TestSuggestVolumes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.service.Load(ctx)
	env.gen.On("suggestInitialVolume", generationtest.Response{
		Output: `{"suggestedVolumes":{"1":55,"7":0,"3":90}}`,
	})

	resp, err := env.service.SuggestVolumes(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "7"}, resp.UpdatedIDs, "only selected devices are updated")

	devices := env.service.List(ctx)
	assert.Equal(t, 55, devices[0].Volume)
	assert.Equal(t, 60, devices[2].Volume)
	assert.Equal(t, 0, devices[6].Volume)

	stored, err := env.repo.GetDevices(ctx)
	require.NoError(t, err)
	assert.Equal(t, devices, stored)
}

func TestSuggestVolumesNoSelection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.service.Load(ctx)
	_, err := env.service.Toggle(ctx, "1")
	require.NoError(t, err)
	_, err = env.service.Toggle(ctx, "7")
	require.NoError(t, err)

	_, err = env.service.SuggestVolumes(ctx)
	assert.ErrorIs(t, err, ErrNoDevicesSelected)
	assert.Zero(t, env.gen.CallCount("suggestInitialVolume"))
}

func TestSuggestVolumesFailureLeavesVolumes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.service.Load(ctx)
	env.gen.On("suggestInitialVolume", generationtest.Response{Err: errors.New("boom")})

	_, err := env.service.SuggestVolumes(ctx)
	assert.ErrorIs(t, err, flow.ErrGenerationFailed)
	assert.Equal(t, domain.SeedDevices(), env.service.List(ctx))
}

func TestSuggestVolumesInProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.service.Load(ctx)
	release := make(chan struct{})
	env.gen.On("suggestInitialVolume", generationtest.Response{
		Output: `{"suggestedVolumes":{}}`,
		Wait:   release,
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := env.service.SuggestVolumes(ctx)
		assert.NoError(t, err)
	}()

	require.Eventually(t, func() bool { return env.gen.CallCount("suggestInitialVolume") == 1 }, time.Second, 5*time.Millisecond)
	_, err := env.service.SuggestVolumes(ctx)
	assert.ErrorIs(t, err, ErrSuggestionInProgress)

	close(release)
	wg.Wait()
}

func TestScanAppendsWithUniqueIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.service.Load(ctx)

	first, err := env.service.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, first.Found, 1)
	assert.Equal(t, "9", first.Found[0].ID)
	assert.Equal(t, "Bose QuietComfort", first.Found[0].Name)

	second, err := env.service.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10", second.Found[0].ID)
	assert.Len(t, second.Devices, 10)

	seen := map[string]bool{}
	for _, d := range env.service.List(ctx) {
		assert.False(t, seen[d.ID], "duplicate id %s", d.ID)
		seen[d.ID] = true
	}
}

func TestToggleCapture(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.service.Load(ctx)

	app, err := env.service.ToggleCapture(ctx, "spotify")
	require.NoError(t, err)
	assert.True(t, app.Captured)
	assert.True(t, env.service.Apps(ctx)[0].Captured)

	_, err = env.service.ToggleCapture(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAppNotFound)
}

func TestListReturnsCopies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.service.Load(ctx)

	devices := env.service.List(ctx)
	devices[4].FeatureSettings.SpatialAudio.Enabled = true
	devices[0].Volume = 1

	fresh := env.service.List(ctx)
	assert.False(t, fresh[4].FeatureSettings.SpatialAudio.Enabled)
	assert.Equal(t, 75, fresh[0].Volume)
}

func TestDeviceParamsValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.service.Load(ctx)
	before := env.service.List(ctx)

	_, err := env.service.Toggle(ctx, "")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDeviceNotFound)

	_, err = env.service.SetVolume(ctx, &SetVolumeParams{Volume: 10})
	assert.Error(t, err)

	_, err = env.service.UpdateFeatureSettings(ctx, &UpdateFeatureSettingsParams{DeviceID: "5"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrFeatureNotSupported)

	_, err = env.service.ToggleCapture(ctx, "")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrAppNotFound)

	assert.Equal(t, before, env.service.List(ctx))
}
