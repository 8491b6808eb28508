// Package synth turns text into audio with a Personal Voice profile. The
// Synthesizer validates the profile store, builds the SSML, and hands it to a
// SpeechEngine; like the REST layer, it reports outcomes through a result
// envelope and never panics across the engine boundary.
package synth

import (
	"context"
	"fmt"
	"strings"

	"github.com/book-expert/logger"
	"github.com/book-expert/personalvoice-service/internal/core"
	"github.com/book-expert/personalvoice-service/internal/profile"
	"github.com/book-expert/personalvoice-service/internal/ssml"
)

const maskedSuffixLength = 4

// Result is the outcome of one synthesis request.
type Result struct {
	OK             bool
	Error          string
	OutputPath     string
	ResultID       string
	CancelReason   string
	CancelDetails  string
	WordBoundaries []core.WordBoundary
}

// Options tunes a synthesis request.
type Options struct {
	// CaptureWordBoundaries records word timing events emitted during
	// synthesis, converted to milliseconds.
	CaptureWordBoundaries bool
}

// Synthesizer drives the speech engine from the profile store.
type Synthesizer struct {
	engine core.SpeechEngine
	log    *logger.Logger
}

// New creates a Synthesizer using the given engine.
func New(engine core.SpeechEngine, log *logger.Logger) *Synthesizer {
	return &Synthesizer{
		engine: engine,
		log:    log,
	}
}

// Synthesize renders text to the audio file at outputPath using the store's
// selected speaker profile. The engine is never invoked when validation
// fails, and engine faults are converted to failure results.
func (s *Synthesizer) Synthesize(
	ctx context.Context,
	text string,
	cfg *profile.Config,
	outputPath string,
	opts Options,
) Result {
	validationErr := cfg.ValidateForSynthesis()
	if validationErr != nil {
		return failureResult(validationErr.Error())
	}

	if strings.TrimSpace(text) == "" {
		return failureResult("text is empty")
	}

	selected := cfg.SelectedProfile()
	if selected == nil {
		return failureResult("no speaker profile selected")
	}

	s.log.Info(
		"Personal Voice synthesis start: region=%s voice=%s lang=%s speaker_profile_id=%s output=%s key=%s",
		cfg.SpeechRegion,
		cfg.VoiceName,
		cfg.Language,
		selected.SpeakerProfileID,
		outputPath,
		maskSecret(cfg.SpeechKey),
	)

	doc := ssml.PersonalVoice(text, selected.SpeakerProfileID, cfg.VoiceName, cfg.Language)

	engineResult, err := s.engine.SpeakSSMLToFile(
		ctx,
		cfg.SpeechKey,
		cfg.SpeechRegion,
		doc,
		outputPath,
		opts.CaptureWordBoundaries,
	)
	if err != nil {
		s.log.Error("Speech engine invocation failed: %v", err)

		return failureResult(fmt.Sprintf("speech engine invocation failed: %v", err))
	}

	switch engineResult.Outcome {
	case core.EngineCompleted:
		s.log.Info("Personal Voice synthesis completed: result_id=%s output=%s",
			engineResult.ResultID, outputPath)

		return Result{
			OK:             true,
			Error:          "",
			OutputPath:     outputPath,
			ResultID:       engineResult.ResultID,
			CancelReason:   "",
			CancelDetails:  "",
			WordBoundaries: engineResult.WordBoundaries,
		}
	case core.EngineCanceled:
		s.log.Error("Personal Voice synthesis canceled: reason=%s details=%s",
			engineResult.CancelReason, engineResult.CancelDetails)

		return Result{
			OK:             false,
			Error:          "speech synthesis canceled",
			OutputPath:     "",
			ResultID:       engineResult.ResultID,
			CancelReason:   engineResult.CancelReason,
			CancelDetails:  engineResult.CancelDetails,
			WordBoundaries: nil,
		}
	default:
		s.log.Error("Personal Voice synthesis ended with unexpected reason: %s",
			engineResult.ReasonText)

		result := failureResult("unexpected synthesis result reason: " + engineResult.ReasonText)
		result.ResultID = engineResult.ResultID

		return result
	}
}

func failureResult(message string) Result {
	return Result{
		OK:             false,
		Error:          message,
		OutputPath:     "",
		ResultID:       "",
		CancelReason:   "",
		CancelDetails:  "",
		WordBoundaries: nil,
	}
}

// maskSecret keeps the last few characters of a secret for log correlation.
func maskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	if len(trimmed) <= maskedSuffixLength {
		return strings.Repeat("*", len(trimmed))
	}

	return strings.Repeat("*", len(trimmed)-maskedSuffixLength) + trimmed[len(trimmed)-maskedSuffixLength:]
}
