package flow

import (
	"context"
	"errors"
	"math"

	"github.com/syncsphere/server/internal/domain"
	"github.com/syncsphere/server/internal/generation"
)

const (
	volumeFlowName = "suggestInitialVolume"

	VolumeSuggestionFailedMessage = "Failed to get suggestions from the AI flow."
)

var ErrNoDevices = errors.New("no devices to suggest volumes for")

type VolumeDevice struct {
	DeviceID   string            `json:"deviceId" validate:"required" jsonschema_description:"The unique identifier of the audio device."`
	DeviceType domain.DeviceType `json:"deviceType" validate:"required,oneof=headphones speakers microphone other" jsonschema:"enum=headphones,enum=speakers,enum=microphone,enum=other"`
}

type VolumeInput struct {
	Devices []VolumeDevice `json:"devices" validate:"required,min=1,dive"`
}

type volumeOutput struct {
	SuggestedVolumes map[string]float64 `json:"suggestedVolumes" validate:"required,dive,gte=0,lte=100" jsonschema_description:"Map of device IDs to suggested volume levels (0-100)."`
}

type VolumeSuggestion struct {
	gen    generation.Generator
	prompt *generation.Prompt[VolumeInput, volumeOutput]
}

func NewVolumeSuggestion(gen generation.Generator) *VolumeSuggestion {
	return &VolumeSuggestion{
		gen:    gen,
		prompt: generation.NewPrompt[VolumeInput, volumeOutput](volumeFlowName, volumePromptText),
	}
}

// Suggest returns a suggested volume per device id. Ids the backend skipped are absent and
// ids that were not asked for are dropped.
func (f *VolumeSuggestion) Suggest(ctx context.Context, devices []VolumeDevice) (map[string]int, error) {
	if len(devices) == 0 {
		return nil, ErrNoDevices
	}

	out, err := f.prompt.Generate(ctx, f.gen, VolumeInput{Devices: devices})
	if err != nil {
		return nil, fail(ctx, volumeFlowName, VolumeSuggestionFailedMessage, err)
	}

	known := make(map[string]struct{}, len(devices))
	for _, d := range devices {
		known[d.DeviceID] = struct{}{}
	}

	suggested := make(map[string]int, len(out.SuggestedVolumes))
	for id, volume := range out.SuggestedVolumes {
		if _, ok := known[id]; !ok {
			continue
		}
		suggested[id] = domain.ClampVolume(int(math.Round(volume)))
	}

	return suggested, nil
}
