package synth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"

	"github.com/book-expert/personalvoice-service/internal/core"
)

// The engine reports audio offsets in 100-nanosecond ticks.
const ticksPerMillisecond = 10_000

const outputDirPermissions = 0o750

// AzureEngine implements core.SpeechEngine on the Azure Speech SDK, writing
// RIFF 24 kHz 16-bit mono PCM to the output file.
type AzureEngine struct{}

// NewAzureEngine returns a ready-to-use engine. SDK resources are created and
// released per call; the SDK keeps no useful state between syntheses with
// differing credentials.
func NewAzureEngine() *AzureEngine {
	return &AzureEngine{}
}

// SpeakSSMLToFile synthesizes the SSML document into outputPath and blocks
// until the engine reports a terminal state or ctx is done.
func (e *AzureEngine) SpeakSSMLToFile(
	ctx context.Context,
	key, region, ssmlDoc, outputPath string,
	captureWordBoundaries bool,
) (*core.EngineResult, error) {
	dirErr := os.MkdirAll(filepath.Dir(outputPath), outputDirPermissions)
	if dirErr != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", dirErr)
	}

	speechConfig, err := speech.NewSpeechConfigFromSubscription(key, region)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech config: %w", err)
	}
	defer speechConfig.Close()

	err = speechConfig.SetSpeechSynthesisOutputFormat(common.Riff24Khz16BitMonoPcm)
	if err != nil {
		return nil, fmt.Errorf("failed to set synthesis output format: %w", err)
	}

	audioConfig, err := audio.NewAudioConfigFromWavFileOutput(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio output config: %w", err)
	}
	defer audioConfig.Close()

	synthesizer, err := speech.NewSpeechSynthesizerFromConfig(speechConfig, audioConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech synthesizer: %w", err)
	}
	defer synthesizer.Close()

	var (
		boundariesMu sync.Mutex
		boundaries   []core.WordBoundary
	)

	if captureWordBoundaries {
		synthesizer.SynthesisWordBoundary(func(event speech.SpeechSynthesisWordBoundaryEventArgs) {
			defer event.Close()

			boundariesMu.Lock()
			defer boundariesMu.Unlock()

			boundaries = append(boundaries, core.WordBoundary{
				Text:          event.Text,
				AudioOffsetMS: float64(event.AudioOffset) / ticksPerMillisecond,
				DurationMS:    float64(event.Duration) / float64(time.Millisecond),
			})
		})
	}

	outcomeChan := synthesizer.SpeakSsmlAsync(ssmlDoc)

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context done while waiting for synthesis: %w", ctx.Err())
	case outcome := <-outcomeChan:
		defer outcome.Close()

		if outcome.Error != nil {
			return nil, fmt.Errorf("synthesis outcome error: %w", outcome.Error)
		}

		return e.mapResult(outcome.Result, boundaries)
	}
}

func (e *AzureEngine) mapResult(
	result *speech.SpeechSynthesisResult,
	boundaries []core.WordBoundary,
) (*core.EngineResult, error) {
	engineResult := &core.EngineResult{
		Outcome:        core.EngineOther,
		ResultID:       result.ResultID,
		ReasonText:     "",
		CancelReason:   "",
		CancelDetails:  "",
		WordBoundaries: nil,
	}

	switch result.Reason {
	case common.SynthesizingAudioCompleted:
		engineResult.Outcome = core.EngineCompleted
		engineResult.WordBoundaries = boundaries

		return engineResult, nil
	case common.Canceled:
		engineResult.Outcome = core.EngineCanceled

		details, detailsErr := speech.NewCancellationDetailsFromSpeechSynthesisResult(result)
		if detailsErr != nil {
			return nil, fmt.Errorf("failed to read cancellation details: %w", detailsErr)
		}

		engineResult.CancelReason = fmt.Sprintf("%v", details.Reason)
		engineResult.CancelDetails = details.ErrorDetails

		return engineResult, nil
	default:
		engineResult.ReasonText = fmt.Sprintf("%v", result.Reason)

		return engineResult, nil
	}
}
