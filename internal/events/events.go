// Package events defines the NATS event contracts for the personal voice
// workflows: provisioning a voice from consent and prompt recordings, and
// synthesizing speech with an already provisioned voice.
package events

import (
	bookevents "github.com/book-expert/events"
)

// EventHeader carries the identifiers every workflow event shares.
type EventHeader = bookevents.EventHeader

// ProvisionRequestedEvent asks the worker to provision a personal voice. The
// consent and prompt recordings are referenced by object store keys.
type ProvisionRequestedEvent struct {
	Header EventHeader `json:"header"`

	ProjectID       string   `json:"project_id"`
	ConsentID       string   `json:"consent_id"`
	PersonalVoiceID string   `json:"personal_voice_id"`
	ConsentLocale   string   `json:"consent_locale"`
	VoiceTalentName string   `json:"voice_talent_name"`
	CompanyName     string   `json:"company_name"`
	ConsentAudioKey string   `json:"consent_audio_key"`
	PromptAudioKeys []string `json:"prompt_audio_keys"`
}

// ProvisionCompletedEvent is the reply to a ProvisionRequestedEvent. OK is
// false when any provisioning step failed; Error then explains which one.
type ProvisionCompletedEvent struct {
	Header EventHeader `json:"header"`

	OK               bool   `json:"ok"`
	Error            string `json:"error,omitempty"`
	ProfileID        string `json:"profile_id,omitempty"`
	SpeakerProfileID string `json:"speaker_profile_id,omitempty"`
	OperationID      string `json:"operation_id,omitempty"`
	Status           string `json:"status,omitempty"`
}

// SynthesisRequestedEvent asks the worker to synthesize Text with the
// currently selected speaker profile.
type SynthesisRequestedEvent struct {
	Header EventHeader `json:"header"`

	Text                  string `json:"text"`
	CaptureWordBoundaries bool   `json:"capture_word_boundaries"`
}

// WordBoundaryMark is one word boundary from the synthesis stream, with
// offsets already converted to milliseconds.
type WordBoundaryMark struct {
	Text          string  `json:"text"`
	AudioOffsetMS float64 `json:"audio_offset_ms"`
	DurationMS    float64 `json:"duration_ms"`
}

// SynthesisCompletedEvent is the reply to a SynthesisRequestedEvent. On
// success AudioKey names the synthesized WAV in the object store.
type SynthesisCompletedEvent struct {
	Header EventHeader `json:"header"`

	OK             bool               `json:"ok"`
	Error          string             `json:"error,omitempty"`
	AudioKey       string             `json:"audio_key,omitempty"`
	ResultID       string             `json:"result_id,omitempty"`
	WordBoundaries []WordBoundaryMark `json:"word_boundaries,omitempty"`
}
