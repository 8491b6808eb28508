// Package customvoice wraps the Azure Custom Voice REST API used to provision
// Personal Voice resources: projects, consents, personal voices, and the
// long-running operations that track voice training.
//
// Every remote call returns a result value embedding Envelope instead of a Go
// error. Transport failures, provider errors, and local validation problems
// all become inspectable failure envelopes; nothing in this package panics or
// surfaces an error to the caller.
package customvoice

import "strings"

// Credentials identifies an Azure Speech resource. Both fields must be
// non-empty before any network call is issued.
type Credentials struct {
	// Key is the Ocp-Apim-Subscription-Key value.
	Key string

	// Region selects the regional endpoint, e.g. "eastus".
	Region string
}

func (c Credentials) missingFields() []string {
	var missing []string

	if strings.TrimSpace(c.Key) == "" {
		missing = append(missing, "speech_key")
	}

	if strings.TrimSpace(c.Region) == "" {
		missing = append(missing, "speech_region")
	}

	return missing
}

// Envelope is the uniform success/failure contract carried by every remote
// call result. Callers branch on OK; the remaining fields are diagnostics.
type Envelope struct {
	OK bool

	// Error describes the failure. Empty when OK.
	Error string

	// StatusCode is the HTTP status, when a response was received.
	StatusCode int

	// ResponseBody is the raw provider response body, kept for diagnostics
	// on provider errors.
	ResponseBody string

	// Hint optionally suggests a remedy for the failure.
	Hint string

	// Note annotates a success, e.g. when an existing consent resource was
	// reused after a conflict.
	Note string
}

func okEnvelope(statusCode int) Envelope {
	return Envelope{
		OK:           true,
		Error:        "",
		StatusCode:   statusCode,
		ResponseBody: "",
		Hint:         "",
		Note:         "",
	}
}

func failure(message string) Envelope {
	return Envelope{
		OK:           false,
		Error:        message,
		StatusCode:   0,
		ResponseBody: "",
		Hint:         "",
		Note:         "",
	}
}

func providerFailure(message string, statusCode int, body string) Envelope {
	return Envelope{
		OK:           false,
		Error:        message,
		StatusCode:   statusCode,
		ResponseBody: body,
		Hint:         "",
		Note:         "",
	}
}

func missingFieldsFailure(fields []string) Envelope {
	return failure("missing required field(s): " + strings.Join(fields, ", "))
}

// OperationStatus is the state of a long-running Custom Voice operation.
type OperationStatus string

// Operation states surfaced by polling. Anything that is not terminal is
// treated as still running.
const (
	StatusRunning   OperationStatus = "Running"
	StatusSucceeded OperationStatus = "Succeeded"
	StatusFailed    OperationStatus = "Failed"
)

// Terminal reports whether the status ends the polling loop.
func (s OperationStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Project is a Custom Voice project resource.
type Project struct {
	ID              string `json:"id"`
	Kind            string `json:"kind"`
	Description     string `json:"description"`
	DisplayName     string `json:"displayName"`
	CreatedDateTime string `json:"createdDateTime"`
}

// Consent is an uploaded voice-talent consent resource.
type Consent struct {
	ID              string `json:"id"`
	ProjectID       string `json:"projectId"`
	VoiceTalentName string `json:"voiceTalentName"`
	CompanyName     string `json:"companyName"`
	Locale          string `json:"locale"`
	Status          string `json:"status"`
	CreatedDateTime string `json:"createdDateTime"`
}

// PersonalVoice is a personal voice resource. SpeakerProfileID may be empty
// until training assigns one.
type PersonalVoice struct {
	ID               string `json:"id"`
	ProjectID        string `json:"projectId"`
	ConsentID        string `json:"consentId"`
	SpeakerProfileID string `json:"speakerProfileId"`
	Status           string `json:"status"`
	CreatedDateTime  string `json:"createdDateTime"`
}

// Operation is a long-running operation resource tracked by id.
type Operation struct {
	ID     string          `json:"id"`
	Status OperationStatus `json:"status"`
}

// ProjectResult is the outcome of CreateProject.
type ProjectResult struct {
	Envelope

	Project Project
}

// ConsentResult is the outcome of PostConsentFromFile and GetConsent. The
// operation fields are populated only when the provider returned them.
type ConsentResult struct {
	Envelope

	Consent           Consent
	OperationID       string
	OperationLocation string
}

// PersonalVoiceResult is the outcome of CreatePersonalVoiceFromFiles and
// GetPersonalVoice. SpeakerProfileID mirrors the payload field for callers
// that only need the id.
type PersonalVoiceResult struct {
	Envelope

	PersonalVoice     PersonalVoice
	SpeakerProfileID  string
	OperationID       string
	OperationLocation string
}

// OperationResult is the outcome of GetOperation.
type OperationResult struct {
	Envelope

	Operation Operation
}

// WaitResult is the outcome of WaitForOperation. On success, Status holds the
// terminal operation state, which may be StatusFailed.
type WaitResult struct {
	Envelope

	Status      OperationStatus
	Operation   Operation
	OperationID string
}

// ConsentUpload carries everything PostConsentFromFile needs. All string
// fields are required; AudioPath must point at an existing file.
type ConsentUpload struct {
	ConsentID       string
	ProjectID       string
	VoiceTalentName string
	CompanyName     string
	Locale          string
	Description     string
	AudioPath       string
}

// VoiceUpload carries everything CreatePersonalVoiceFromFiles needs. At least
// one prompt audio path is required; upload order is preserved.
type VoiceUpload struct {
	PersonalVoiceID  string
	ProjectID        string
	ConsentID        string
	Description      string
	PromptAudioPaths []string
}
