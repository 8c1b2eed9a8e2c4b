package party

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/syncsphere/server/internal/domain"
	"github.com/syncsphere/server/internal/flow"
)

var (
	ErrCaptionRefreshInProgress = errors.New("caption refresh already in progress")
	ErrSubtitleSearchInProgress = errors.New("subtitle search already in progress")
)

const (
	MessagePartyState     = "PARTY_STATE"
	MessageCaptionUpdated = "CAPTION_UPDATED"

	DefaultCaptionInterval = 5 * time.Second
)

type iSubtitleGenerator interface {
	Generate(context.Context, flow.SubtitleInput) (string, error)
}

type iSubtitleFinder interface {
	Find(ctx context.Context, videoTitle string) (flow.FindSubtitlesResult, error)
}

type iBroadcaster interface {
	Broadcast(ctx context.Context, v any) (int, error)
}

type iTranscript interface {
	Next(videoTitle string) string
}

// Message is what the party pushes to every connected client.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type CaptionSettings struct {
	Enabled        bool   `json:"enabled"`
	TargetLanguage string `json:"targetLanguage"`
}

type State struct {
	Player    domain.Player             `json:"player"`
	Viewers   domain.Viewers            `json:"viewers"`
	History   []domain.HistoryEntry     `json:"history"`
	Captions  CaptionSettings           `json:"captions"`
	Caption   string                    `json:"caption"`
	Subtitles *flow.FindSubtitlesResult `json:"subtitles,omitempty"`
}

// Service owns the simulated watch party: one shared player whose events every viewer mirrors.
type Service struct {
	generator   iSubtitleGenerator
	finder      iSubtitleFinder
	broadcaster iBroadcaster
	transcript  iTranscript
	interval    time.Duration

	// sendMu is held from snapshot to broadcast so clients receive states in order.
	// Lock order is sendMu, then mu.
	sendMu    sync.Mutex
	mu        sync.Mutex
	player    *domain.Player
	viewers   domain.Viewers
	history   []domain.HistoryEntry
	captions  CaptionSettings
	caption   string
	subtitles *flow.FindSubtitlesResult
	// epoch changes whenever an in-flight caption would no longer apply.
	epoch uint64

	refreshing atomic.Bool
	searching  atomic.Bool
}

func NewService(generator iSubtitleGenerator, finder iSubtitleFinder, broadcaster iBroadcaster, transcript iTranscript, interval time.Duration) *Service {
	if interval <= 0 {
		interval = DefaultCaptionInterval
	}

	history := domain.SeedHistory()
	return &Service{
		generator:   generator,
		finder:      finder,
		broadcaster: broadcaster,
		transcript:  transcript,
		interval:    interval,
		player:      domain.NewPlayer(history[0].Video()),
		viewers:     domain.SeedViewers(),
		history:     history,
	}
}

// snapshot must be called with mu held.
func (s *Service) snapshot() State {
	state := State{
		Player:   *s.player,
		Viewers:  slices.Clone(s.viewers),
		History:  slices.Clone(s.history),
		Captions: s.captions,
		Caption:  s.caption,
	}
	if s.subtitles != nil {
		found := *s.subtitles
		state.Subtitles = &found
	}

	return state
}

func (s *Service) State(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot()
}

func (s *Service) broadcast(ctx context.Context, msgType string, payload any) {
	if s.broadcaster == nil {
		return
	}
	if _, err := s.broadcaster.Broadcast(ctx, &Message{Type: msgType, Payload: payload}); err != nil {
		slog.WarnContext(ctx, "failed to broadcast", "type", msgType, "error", err)
	}
}

func (s *Service) PlayerEvent(ctx context.Context, event domain.PlayerEvent) (State, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	status, err := s.player.Apply(event)
	if err != nil {
		s.mu.Unlock()
		return State{}, err
	}
	s.viewers.SetStatus(status)
	state := s.snapshot()
	s.mu.Unlock()

	slog.DebugContext(ctx, "player event", "event", event, "status", status)
	s.broadcast(ctx, MessagePartyState, state)
	return state, nil
}

// LoadHistory makes a history entry the active video. Playback stops and captions for the
// previous video are dropped.
func (s *Service) LoadHistory(ctx context.Context, entryID string) (State, error) {
	if err := validation.ValidateWithContext(ctx, entryID, HistoryEntryIDRule...); err != nil {
		return State{}, err
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	idx := slices.IndexFunc(s.history, func(e domain.HistoryEntry) bool { return e.ID == entryID })
	if idx < 0 {
		s.mu.Unlock()
		return State{}, domain.ErrHistoryEntryNotFound
	}

	entry := s.history[idx]
	s.player = domain.NewPlayer(entry.Video())
	s.viewers.SetStatus(domain.ViewerStatusPaused)
	s.caption = ""
	s.subtitles = nil
	s.epoch++
	state := s.snapshot()
	s.mu.Unlock()

	slog.InfoContext(ctx, "history entry loaded", "entryID", entryID, "title", entry.Title)
	s.broadcast(ctx, MessagePartyState, state)
	return state, nil
}

type UpdateCaptionsParams struct {
	Enabled        bool
	TargetLanguage string
}

func (s *Service) UpdateCaptions(ctx context.Context, params *UpdateCaptionsParams) (State, error) {
	if err := validation.ValidateStructWithContext(ctx, params,
		validation.Field(&params.TargetLanguage, TargetLanguageRule...),
	); err != nil {
		return State{}, err
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	next := CaptionSettings{Enabled: params.Enabled, TargetLanguage: params.TargetLanguage}
	if next != s.captions {
		s.epoch++
	}
	s.captions = next
	if !next.Enabled {
		s.caption = ""
	}
	state := s.snapshot()
	s.mu.Unlock()

	s.broadcast(ctx, MessagePartyState, state)
	return state, nil
}
