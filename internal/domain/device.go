package domain

import (
	"errors"
	"slices"
)

var (
	ErrDeviceNotFound      = errors.New("device not found")
	ErrFeatureNotSupported = errors.New("feature not supported by device")
)

const (
	MinVolume = 0
	MaxVolume = 100
)

type DeviceType string

const (
	DeviceTypeHeadphones DeviceType = "headphones"
	DeviceTypeSpeakers   DeviceType = "speakers"
	DeviceTypeMicrophone DeviceType = "microphone"
	DeviceTypeOther      DeviceType = "other"
)

type AudioFeature string

const (
	FeatureDolbyAtmos   AudioFeature = "dolbyAtmos"
	FeatureSpatialAudio AudioFeature = "spatialAudio"
	FeatureStereo       AudioFeature = "stereo"
)

type SpatialAudioSettings struct {
	Enabled      bool `json:"enabled"`
	HeadTracking bool `json:"headTracking"`
}

type FeatureSettings struct {
	SpatialAudio *SpatialAudioSettings `json:"spatialAudio,omitempty"`
}

// Device describes one audio endpoint. The JSON shape is the one stored in the device cache.
type Device struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Type              DeviceType       `json:"type"`
	Selected          bool             `json:"selected"`
	Volume            int              `json:"volume"`
	SupportedFeatures []AudioFeature   `json:"supportedFeatures,omitempty"`
	FeatureSettings   *FeatureSettings `json:"featureSettings,omitempty"`
}

func ClampVolume(volume int) int {
	return max(MinVolume, min(MaxVolume, volume))
}

func (d Device) Supports(feature AudioFeature) bool {
	return slices.Contains(d.SupportedFeatures, feature)
}

// Clone returns a deep copy so callers can not mutate shared state.
func (d Device) Clone() Device {
	c := d
	if d.SupportedFeatures != nil {
		c.SupportedFeatures = slices.Clone(d.SupportedFeatures)
	}
	if d.FeatureSettings != nil {
		fs := *d.FeatureSettings
		if fs.SpatialAudio != nil {
			sa := *fs.SpatialAudio
			fs.SpatialAudio = &sa
		}
		c.FeatureSettings = &fs
	}
	return c
}

// MergeFeatureSettings overlays the non-nil sections of update onto the device settings.
func (d *Device) MergeFeatureSettings(update FeatureSettings) error {
	if update.SpatialAudio != nil && !d.Supports(FeatureSpatialAudio) {
		return ErrFeatureNotSupported
	}

	if d.FeatureSettings == nil {
		d.FeatureSettings = &FeatureSettings{}
	}
	if update.SpatialAudio != nil {
		sa := *update.SpatialAudio
		d.FeatureSettings.SpatialAudio = &sa
	}

	return nil
}

func CloneDevices(devices []Device) []Device {
	out := make([]Device, len(devices))
	for i, d := range devices {
		out[i] = d.Clone()
	}
	return out
}

// SeedDevices is the list used when no cached list exists or the cache is unreadable.
func SeedDevices() []Device {
	return []Device{
		{ID: "1", Name: "Realtek HD Audio", Type: DeviceTypeSpeakers, Selected: true, Volume: 75, SupportedFeatures: []AudioFeature{FeatureStereo}},
		{ID: "2", Name: "Logitech Pro X", Type: DeviceTypeHeadphones, Selected: false, Volume: 30, SupportedFeatures: []AudioFeature{FeatureStereo}},
		{ID: "3", Name: "NVIDIA Broadcast", Type: DeviceTypeMicrophone, Selected: false, Volume: 60},
		{ID: "4", Name: "SteelSeries Sonar", Type: DeviceTypeOther, Selected: false, Volume: 50},
		{
			ID: "5", Name: "Sony WH-1000XM4", Type: DeviceTypeHeadphones, Selected: false, Volume: 40,
			SupportedFeatures: []AudioFeature{FeatureSpatialAudio, FeatureStereo},
			FeatureSettings:   &FeatureSettings{SpatialAudio: &SpatialAudioSettings{Enabled: false, HeadTracking: true}},
		},
		{ID: "6", Name: "Monitor Speakers", Type: DeviceTypeSpeakers, Selected: false, Volume: 80, SupportedFeatures: []AudioFeature{FeatureStereo}},
		{ID: "7", Name: "Blue Yeti", Type: DeviceTypeMicrophone, Selected: true, Volume: 65},
		{ID: "8", Name: "Home Theatre System", Type: DeviceTypeOther, Selected: false, Volume: 85, SupportedFeatures: []AudioFeature{FeatureDolbyAtmos, FeatureStereo}},
	}
}
