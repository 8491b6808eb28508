// Package core defines the interfaces shared across the personal voice
// service: blob storage for audio and the external speech engine boundary.
package core

import "context"

// ObjectStore defines the interface for interacting with a key-value blob
// store holding consent, prompt, and synthesized audio.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// EngineOutcome classifies the terminal state of one synthesis invocation.
type EngineOutcome int

// The three outcomes a speech engine call can end in. Anything the engine
// reports that is neither completed nor canceled maps to EngineOther.
const (
	EngineCompleted EngineOutcome = iota
	EngineCanceled
	EngineOther
)

// WordBoundary is one word-boundary event captured during synthesis, with
// offsets converted from engine ticks to milliseconds.
type WordBoundary struct {
	Text          string  `json:"text"`
	AudioOffsetMS float64 `json:"audio_offset_ms"`
	DurationMS    float64 `json:"duration_ms"`
}

// EngineResult is the terminal state of a synthesis invocation. CancelReason
// and CancelDetails are populated on cancellation; ReasonText echoes
// unexpected terminal reasons.
type EngineResult struct {
	Outcome        EngineOutcome
	ResultID       string
	ReasonText     string
	CancelReason   string
	CancelDetails  string
	WordBoundaries []WordBoundary
}

// SpeechEngine is the vendor speech engine boundary: a synchronous call that
// renders SSML into the audio file at outputPath. Implementations return an
// error only for invocation faults (engine unavailable, bad configuration);
// synthesis outcomes, including cancellation, are carried in EngineResult.
type SpeechEngine interface {
	SpeakSSMLToFile(
		ctx context.Context,
		key, region, ssmlDoc, outputPath string,
		captureWordBoundaries bool,
	) (*EngineResult, error)
}
