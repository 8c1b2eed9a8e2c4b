package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/syncsphere/server/internal/domain"
	"github.com/syncsphere/server/internal/flow"
	"github.com/syncsphere/server/internal/service/party"
)

var (
	subtitleFailed = Notification{
		Title:       "Subtitle Error",
		Description: flow.SubtitleFailedMessage,
	}
	searchFailed = Notification{
		Title:       "Subtitle Search Failed",
		Description: flow.SubtitleSearchFailedMessage,
	}
)

func subtitleSearchNotification(result flow.FindSubtitlesResult) *Notification {
	if result.Found {
		return &Notification{Title: "Subtitle Search", Description: result.Message}
	}
	return &Notification{Variant: variantDestructive, Title: "Subtitle Search", Description: result.Message}
}

type generateSubtitleInput struct {
	Transcript     string `json:"transcript" validate:"required"`
	VideoTitle     string `json:"videoTitle" validate:"required"`
	TargetLanguage string `json:"targetLanguage" validate:"max=64"`
}

func (c controller) generateSubtitle(w http.ResponseWriter, r *http.Request) {
	var input generateSubtitleInput
	if !c.readInput(w, r, &input) {
		return
	}

	subtitle, err := c.subtitleGenerator.Generate(r.Context(), flow.SubtitleInput{
		Transcript:     input.Transcript,
		VideoTitle:     input.VideoTitle,
		TargetLanguage: input.TargetLanguage,
	})
	if err != nil {
		writeError(w, r, err, subtitleFailed)
		return
	}

	writeData(w, map[string]string{"subtitle": subtitle}, nil)
}

type findSubtitlesInput struct {
	VideoTitle string `json:"videoTitle" validate:"required"`
}

func (c controller) findSubtitles(w http.ResponseWriter, r *http.Request) {
	var input findSubtitlesInput
	if !c.readInput(w, r, &input) {
		return
	}

	result, err := c.subtitleFinder.Find(r.Context(), input.VideoTitle)
	if err != nil {
		writeError(w, r, err, searchFailed)
		return
	}

	writeData(w, result, subtitleSearchNotification(result))
}

func (c controller) getParty(w http.ResponseWriter, r *http.Request) {
	writeData(w, c.partyService.State(r.Context()), nil)
}

type playerEventInput struct {
	Event domain.PlayerEvent `json:"event" validate:"required,oneof=play pause waiting"`
}

func (c controller) playerEvent(w http.ResponseWriter, r *http.Request) {
	var input playerEventInput
	if !c.readInput(w, r, &input) {
		return
	}

	state, err := c.partyService.PlayerEvent(r.Context(), input.Event)
	if err != nil {
		writeError(w, r, err, Notification{Title: "Playback Error", Description: "Could not update playback."})
		return
	}

	writeData(w, state, nil)
}

func (c controller) loadHistory(w http.ResponseWriter, r *http.Request) {
	state, err := c.partyService.LoadHistory(r.Context(), chi.URLParam(r, "entry-id"))
	if err != nil {
		writeError(w, r, err, Notification{Title: "Load Failed", Description: "Could not load the video."})
		return
	}

	writeData(w, state, &Notification{Title: "Now Playing", Description: state.Player.Video.Title})
}

type updateCaptionsInput struct {
	Enabled        bool   `json:"enabled"`
	TargetLanguage string `json:"targetLanguage" validate:"max=64"`
}

func (c controller) updateCaptions(w http.ResponseWriter, r *http.Request) {
	var input updateCaptionsInput
	if !c.readInput(w, r, &input) {
		return
	}

	state, err := c.partyService.UpdateCaptions(r.Context(), &party.UpdateCaptionsParams{
		Enabled:        input.Enabled,
		TargetLanguage: input.TargetLanguage,
	})
	if err != nil {
		writeError(w, r, err, Notification{Title: "Update Failed", Description: "Could not update captions."})
		return
	}

	writeData(w, state, nil)
}

func (c controller) findPartySubtitles(w http.ResponseWriter, r *http.Request) {
	result, err := c.partyService.FindSubtitles(r.Context())
	if err != nil {
		writeError(w, r, err, searchFailed)
		return
	}

	writeData(w, result, subtitleSearchNotification(result))
}
