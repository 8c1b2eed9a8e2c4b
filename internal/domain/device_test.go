package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampVolume(t *testing.T) {
	cases := map[int]int{-20: 0, 0: 0, 55: 55, 100: 100, 250: 100}
	for in, want := range cases {
		assert.Equal(t, want, ClampVolume(in), "clamp(%d)", in)
	}
}

func TestMergeFeatureSettings(t *testing.T) {
	devices := SeedDevices()

	sony := devices[4]
	require.True(t, sony.Supports(FeatureSpatialAudio))
	require.NoError(t, sony.MergeFeatureSettings(FeatureSettings{SpatialAudio: &SpatialAudioSettings{Enabled: true}}))
	assert.True(t, sony.FeatureSettings.SpatialAudio.Enabled)
	assert.False(t, sony.FeatureSettings.SpatialAudio.HeadTracking)

	realtek := devices[0]
	err := realtek.MergeFeatureSettings(FeatureSettings{SpatialAudio: &SpatialAudioSettings{Enabled: true}})
	assert.ErrorIs(t, err, ErrFeatureNotSupported)
	assert.Nil(t, realtek.FeatureSettings)
}

func TestCloneIsDeep(t *testing.T) {
	original := SeedDevices()[4]
	clone := original.Clone()
	clone.FeatureSettings.SpatialAudio.Enabled = true
	clone.SupportedFeatures[0] = FeatureDolbyAtmos

	assert.False(t, original.FeatureSettings.SpatialAudio.Enabled)
	assert.Equal(t, FeatureSpatialAudio, original.SupportedFeatures[0])
}

func TestSeedDevicesJSONShape(t *testing.T) {
	b, err := json.Marshal(SeedDevices()[2])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"3","name":"NVIDIA Broadcast","type":"microphone","selected":false,"volume":60}`, string(b))
}

func TestPlayerApply(t *testing.T) {
	p := NewPlayer(SeedHistory()[0].Video())

	status, err := p.Apply(PlayerEventPlay)
	require.NoError(t, err)
	assert.True(t, p.IsPlaying)
	assert.Equal(t, ViewerStatusPlaying, status)

	status, err = p.Apply(PlayerEventWaiting)
	require.NoError(t, err)
	assert.True(t, p.IsPlaying)
	assert.Equal(t, ViewerStatusBuffering, status)

	status, err = p.Apply(PlayerEventPause)
	require.NoError(t, err)
	assert.False(t, p.IsPlaying)
	assert.Equal(t, ViewerStatusPaused, status)

	_, err = p.Apply("seek")
	assert.ErrorIs(t, err, ErrUnknownPlayerEvent)
}
