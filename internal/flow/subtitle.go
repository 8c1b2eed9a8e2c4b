package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/syncsphere/server/internal/generation"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const (
	subtitleFlowName = "generateSubtitle"

	SubtitleFailedMessage = "Failed to generate subtitle."
	// SubtitlePlaceholder replaces the caption when generation fails.
	SubtitlePlaceholder = "Could not generate subtitle."
)

type SubtitleInput struct {
	Transcript     string `json:"transcript" validate:"required" jsonschema_description:"A small chunk of audio transcript from a video."`
	VideoTitle     string `json:"videoTitle" validate:"required" jsonschema_description:"The title of the video being watched."`
	TargetLanguage string `json:"targetLanguage,omitempty" jsonschema_description:"Language to translate the subtitle into."`
}

type subtitleOutput struct {
	Subtitle string `json:"subtitle" validate:"required" jsonschema_description:"The corrected subtitle line, translated if requested."`
}

type SubtitleGeneration struct {
	gen    generation.Generator
	prompt *generation.Prompt[SubtitleInput, subtitleOutput]
}

func NewSubtitleGeneration(gen generation.Generator) *SubtitleGeneration {
	return &SubtitleGeneration{
		gen:    gen,
		prompt: generation.NewPrompt[SubtitleInput, subtitleOutput](subtitleFlowName, subtitlePromptText),
	}
}

// Generate returns one cleaned-up subtitle line, translated when input.TargetLanguage is set.
func (f *SubtitleGeneration) Generate(ctx context.Context, input SubtitleInput) (string, error) {
	input.TargetLanguage = LanguageName(input.TargetLanguage)

	out, err := f.prompt.Generate(ctx, f.gen, input)
	if err != nil {
		return "", fail(ctx, subtitleFlowName, SubtitleFailedMessage, err)
	}

	subtitle := strings.Join(strings.Fields(out.Subtitle), " ")
	switch {
	case subtitle == "":
		err = fmt.Errorf("%w: blank subtitle", generation.ErrSchemaMismatch)
	case strings.Contains(subtitle, "{{"):
		err = fmt.Errorf("%w: template placeholder in subtitle", generation.ErrSchemaMismatch)
	}
	if err != nil {
		return "", fail(ctx, subtitleFlowName, SubtitleFailedMessage, err)
	}

	return subtitle, nil
}

// LanguageName expands a BCP 47 tag such as "es" or "pt-BR" to its English name, keeping
// region and script ("Brazilian Portuguese", "Traditional Chinese").
// Labels that are not tags ("Spanish") are returned trimmed but otherwise unchanged.
func LanguageName(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}

	tag, err := language.Parse(label)
	if err != nil {
		return label
	}
	base, confidence := tag.Base()
	if confidence == language.No || base.String() == "und" {
		return label
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}

	return label
}
