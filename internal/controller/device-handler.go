package controller

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/syncsphere/server/internal/domain"
	"github.com/syncsphere/server/internal/service/device"
)

var suggestionFailed = Notification{
	Title:       "AI Suggestion Failed",
	Description: "Could not get volume suggestions. Please try again later.",
}

func (c controller) listDevices(w http.ResponseWriter, r *http.Request) {
	writeData(w, c.deviceService.List(r.Context()), nil)
}

func (c controller) toggleDevice(w http.ResponseWriter, r *http.Request) {
	d, err := c.deviceService.Toggle(r.Context(), chi.URLParam(r, "device-id"))
	if err != nil {
		writeError(w, r, err, Notification{Title: "Update Failed", Description: "Could not update the device."})
		return
	}

	writeData(w, d, nil)
}

type setVolumeInput struct {
	Volume *int `json:"volume" validate:"required"`
}

func (c controller) setVolume(w http.ResponseWriter, r *http.Request) {
	var input setVolumeInput
	if !c.readInput(w, r, &input) {
		return
	}

	d, err := c.deviceService.SetVolume(r.Context(), &device.SetVolumeParams{
		DeviceID: chi.URLParam(r, "device-id"),
		Volume:   *input.Volume,
	})
	if err != nil {
		writeError(w, r, err, Notification{Title: "Update Failed", Description: "Could not update the volume."})
		return
	}

	writeData(w, d, nil)
}

type updateFeatureSettingsInput struct {
	SpatialAudio *domain.SpatialAudioSettings `json:"spatialAudio" validate:"required"`
}

func (c controller) updateFeatureSettings(w http.ResponseWriter, r *http.Request) {
	var input updateFeatureSettingsInput
	if !c.readInput(w, r, &input) {
		return
	}

	d, err := c.deviceService.UpdateFeatureSettings(r.Context(), &device.UpdateFeatureSettingsParams{
		DeviceID: chi.URLParam(r, "device-id"),
		Settings: domain.FeatureSettings{SpatialAudio: input.SpatialAudio},
	})
	if err != nil {
		writeError(w, r, err, Notification{Title: "Update Failed", Description: "Could not update audio features."})
		return
	}

	writeData(w, d, &Notification{
		Title:       "Settings Updated",
		Description: fmt.Sprintf("Audio features for %s have been updated.", d.Name),
	})
}

func (c controller) suggestVolumes(w http.ResponseWriter, r *http.Request) {
	resp, err := c.deviceService.SuggestVolumes(r.Context())
	if err != nil {
		writeError(w, r, err, suggestionFailed)
		return
	}

	writeData(w, map[string]any{
		"devices":    resp.Devices,
		"updatedIds": resp.UpdatedIDs,
	}, &Notification{
		Title:       "Success",
		Description: "Volume levels have been updated with AI suggestions.",
	})
}

func (c controller) scanDevices(w http.ResponseWriter, r *http.Request) {
	resp, err := c.deviceService.Scan(r.Context())
	if err != nil {
		writeError(w, r, err, Notification{Title: "Scan Failed", Description: "Could not scan for devices."})
		return
	}

	notification := &Notification{
		Title:       "No Devices Found",
		Description: "No new Bluetooth devices are in range.",
	}
	if len(resp.Found) > 0 {
		notification = &Notification{
			Title:       "Device Found!",
			Description: fmt.Sprintf("%s has been added to your device list.", resp.Found[0].Name),
		}
	}

	writeData(w, map[string]any{
		"found":   resp.Found,
		"devices": resp.Devices,
	}, notification)
}

func (c controller) listApps(w http.ResponseWriter, r *http.Request) {
	writeData(w, c.deviceService.Apps(r.Context()), nil)
}

func (c controller) toggleCapture(w http.ResponseWriter, r *http.Request) {
	app, err := c.deviceService.ToggleCapture(r.Context(), chi.URLParam(r, "app-id"))
	if err != nil {
		writeError(w, r, err, Notification{Title: "Update Failed", Description: "Could not change audio capture."})
		return
	}

	notification := &Notification{
		Title:       "Audio Capture Disabled",
		Description: fmt.Sprintf("Audio from %s will now be played normally.", app.Name),
	}
	if app.Captured {
		notification = &Notification{
			Title:       "Audio Capture Enabled",
			Description: fmt.Sprintf("Audio from %s will now be routed to your devices.", app.Name),
		}
	}

	writeData(w, app, notification)
}
