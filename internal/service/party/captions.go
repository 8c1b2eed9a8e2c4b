package party

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/syncsphere/server/internal/flow"
)

type CaptionUpdate struct {
	Caption string `json:"caption"`
}

// RefreshCaption generates the next caption line while captions are on and the video plays.
// It reports whether a caption was applied. A failed generation applies the placeholder
// caption and returns the error; a result that lands after the captions or the video changed
// is discarded.
func (s *Service) RefreshCaption(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if !s.captions.Enabled || !s.player.IsPlaying {
		s.mu.Unlock()
		return false, nil
	}
	epoch := s.epoch
	input := flow.SubtitleInput{
		VideoTitle:     s.player.Video.Title,
		TargetLanguage: s.captions.TargetLanguage,
	}
	s.mu.Unlock()

	if !s.refreshing.CompareAndSwap(false, true) {
		return false, ErrCaptionRefreshInProgress
	}
	defer s.refreshing.Store(false)

	input.Transcript = s.transcript.Next(input.VideoTitle)
	caption, genErr := s.generator.Generate(ctx, input)
	if genErr != nil {
		caption = flow.SubtitlePlaceholder
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	if epoch != s.epoch || !s.captions.Enabled {
		s.mu.Unlock()
		slog.DebugContext(ctx, "discarding stale caption", "title", input.VideoTitle)
		return false, nil
	}
	s.caption = caption
	s.mu.Unlock()

	s.broadcast(ctx, MessageCaptionUpdated, CaptionUpdate{Caption: caption})
	return true, genErr
}

// Run refreshes the caption on a fixed interval until ctx is done. The schedule does not
// depend on whether the previous refresh failed.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RefreshCaption(ctx); err != nil && !errors.Is(err, ErrCaptionRefreshInProgress) {
				slog.WarnContext(ctx, "caption refresh failed", "error", err)
			}
		}
	}
}

// FindSubtitles searches for the original subtitle track of the active video.
func (s *Service) FindSubtitles(ctx context.Context) (flow.FindSubtitlesResult, error) {
	if !s.searching.CompareAndSwap(false, true) {
		return flow.FindSubtitlesResult{}, ErrSubtitleSearchInProgress
	}
	defer s.searching.Store(false)

	s.mu.Lock()
	title := s.player.Video.Title
	s.mu.Unlock()

	result, err := s.finder.Find(ctx, title)
	if err != nil {
		return flow.FindSubtitlesResult{}, err
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	if s.player.Video.Title != title {
		s.mu.Unlock()
		return result, nil
	}
	s.subtitles = &result
	state := s.snapshot()
	s.mu.Unlock()

	s.broadcast(ctx, MessagePartyState, state)
	return result, nil
}
