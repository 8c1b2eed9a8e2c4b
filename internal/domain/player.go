package domain

import "errors"

var ErrUnknownPlayerEvent = errors.New("unknown player event")

type PlayerEvent string

const (
	PlayerEventPlay    PlayerEvent = "play"
	PlayerEventPause   PlayerEvent = "pause"
	PlayerEventWaiting PlayerEvent = "waiting"
)

type Video struct {
	Title  string `json:"title"`
	Src    string `json:"src"`
	Poster string `json:"poster"`
}

type Player struct {
	Video     Video `json:"video"`
	IsPlaying bool  `json:"isPlaying"`
}

func NewPlayer(video Video) *Player {
	return &Player{
		Video:     video,
		IsPlaying: false,
	}
}

// Apply moves the player according to a playback event and returns the status viewers should show.
func (p *Player) Apply(event PlayerEvent) (ViewerStatus, error) {
	switch event {
	case PlayerEventPlay:
		p.IsPlaying = true
		return ViewerStatusPlaying, nil
	case PlayerEventPause:
		p.IsPlaying = false
		return ViewerStatusPaused, nil
	case PlayerEventWaiting:
		return ViewerStatusBuffering, nil
	default:
		return "", ErrUnknownPlayerEvent
	}
}
