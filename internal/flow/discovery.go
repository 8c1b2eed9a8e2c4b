package flow

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/syncsphere/server/internal/generation"
)

const (
	discoveryFlowName = "findSubtitles"
	lookupToolName    = "findOriginalSubtitles"

	SubtitlesFoundMessage       = "Subtitles found!"
	SubtitlesNotFoundMessage    = "Sorry, I couldn't find any original subtitles for that video."
	SubtitleSearchFailedMessage = "Failed to search for subtitles."

	knownSubtitleTitle = "big buck bunny"
	knownSubtitleTrack = "[00:00:01] A large rabbit, known as Big Buck Bunny, emerges from his burrow. " +
		"[00:00:05] He observes a butterfly, peacefully. " +
		"[00:00:10] Suddenly, three mischievous rodents appear and start bothering the butterfly. " +
		"[00:00:15] Bunny watches, annoyed. " +
		"[00:00:20] The rodents then turn their attention to Bunny himself, pelting him with nuts and berries. " +
		"[00:00:25] Bunny has had enough and devises a plan for retaliation."
)

type FindSubtitlesInput struct {
	VideoTitle string `json:"videoTitle" validate:"required" jsonschema_description:"The title of the video to find subtitles for."`
}

type FindSubtitlesResult struct {
	Found         bool   `json:"found"`
	SubtitleTrack string `json:"subtitleTrack,omitempty"`
	Message       string `json:"message"`
}

type discoveryOutput struct {
	SubtitleTrack string `json:"subtitleTrack,omitempty" jsonschema_description:"The full subtitle track, if one was found."`
	Message       string `json:"message" validate:"required" jsonschema_description:"A message describing the search result."`
}

type lookupInput struct {
	Title string `json:"title" jsonschema_description:"The title of the movie or series."`
}

type LookupResult struct {
	Found           bool   `json:"found"`
	SubtitleContent string `json:"subtitleContent,omitempty"`
}

// LookupSubtitles matches title case-insensitively against the one title with a stored track.
func LookupSubtitles(title string) LookupResult {
	if strings.Contains(strings.ToLower(title), knownSubtitleTitle) {
		return LookupResult{Found: true, SubtitleContent: knownSubtitleTrack}
	}
	return LookupResult{}
}

type lookupRecorderKey struct{}

// lookupRecorder keeps the last tool result of one Find call.
type lookupRecorder struct {
	mu     sync.Mutex
	result *LookupResult
}

func (r *lookupRecorder) record(result LookupResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result = &result
}

func (r *lookupRecorder) last() (LookupResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.result == nil {
		return LookupResult{}, false
	}
	return *r.result, true
}

func lookupTool(ctx context.Context, input lookupInput) (LookupResult, error) {
	slog.DebugContext(ctx, "searching for subtitles", "title", input.Title)
	result := LookupSubtitles(input.Title)
	if rec, ok := ctx.Value(lookupRecorderKey{}).(*lookupRecorder); ok {
		rec.record(result)
	}
	return result, nil
}

type SubtitleDiscovery struct {
	gen    generation.Generator
	prompt *generation.Prompt[FindSubtitlesInput, discoveryOutput]
}

func NewSubtitleDiscovery(gen generation.Generator) *SubtitleDiscovery {
	tool := generation.NewTool(
		lookupToolName,
		"Searches for an original subtitle file for a given video title.",
		lookupTool,
	)
	return &SubtitleDiscovery{
		gen:    gen,
		prompt: generation.NewPrompt[FindSubtitlesInput, discoveryOutput](discoveryFlowName, discoveryPromptText, tool),
	}
}

// Find searches for the original subtitle track of videoTitle. Not finding one is a
// successful result with Found set to false.
func (f *SubtitleDiscovery) Find(ctx context.Context, videoTitle string) (FindSubtitlesResult, error) {
	rec := &lookupRecorder{}
	out, err := f.prompt.Generate(
		context.WithValue(ctx, lookupRecorderKey{}, rec),
		f.gen,
		FindSubtitlesInput{VideoTitle: videoTitle},
	)
	if err != nil {
		return FindSubtitlesResult{}, fail(ctx, discoveryFlowName, SubtitleSearchFailedMessage, err)
	}

	lookup, ok := rec.last()
	if !ok {
		slog.DebugContext(ctx, "model skipped subtitle lookup tool", "title", videoTitle)
		lookup = LookupSubtitles(videoTitle)
	}
	if lookup.Found != (out.SubtitleTrack != "") {
		slog.DebugContext(ctx, "model output disagrees with lookup", "title", videoTitle, "message", out.Message)
	}

	if !lookup.Found {
		return FindSubtitlesResult{Message: SubtitlesNotFoundMessage}, nil
	}
	return FindSubtitlesResult{
		Found:         true,
		SubtitleTrack: lookup.SubtitleContent,
		Message:       SubtitlesFoundMessage,
	}, nil
}
