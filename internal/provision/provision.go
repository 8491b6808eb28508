// Package provision sequences the Custom Voice provisioning workflow:
// project creation, consent upload, personal voice creation, and the poll to
// a terminal training state. The first failing step aborts the run and its
// failure envelope is returned untouched; nothing is rolled back, so a rerun
// with the same user-chosen ids resumes against the provider's idempotent
// semantics.
package provision

import (
	"context"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/personalvoice-service/internal/customvoice"
	"github.com/book-expert/personalvoice-service/internal/profile"
)

// Request carries everything one provisioning run needs. All ids are
// user-chosen and reusable across retries.
type Request struct {
	ProjectID        string
	ConsentID        string
	PersonalVoiceID  string
	ConsentLocale    string
	VoiceTalentName  string
	CompanyName      string
	ConsentAudioPath string
	PromptAudioPaths []string
}

// Result is the outcome of a provisioning run. On success, Profile is the
// newly stored speaker profile and SpeakerProfileID the server-issued id it
// wraps.
type Result struct {
	customvoice.Envelope

	Profile          profile.SpeakerProfile
	SpeakerProfileID string
	OperationID      string
	Status           customvoice.OperationStatus
}

// Provisioner runs provisioning workflows against one Custom Voice client.
type Provisioner struct {
	client       *customvoice.Client
	log          *logger.Logger
	pollTimeout  time.Duration
	pollInterval time.Duration
}

// New creates a Provisioner. Non-positive poll settings fall back to the
// customvoice defaults.
func New(client *customvoice.Client, log *logger.Logger, pollTimeout, pollInterval time.Duration) *Provisioner {
	if pollTimeout <= 0 {
		pollTimeout = customvoice.DefaultPollTimeout
	}

	if pollInterval <= 0 {
		pollInterval = customvoice.DefaultPollInterval
	}

	return &Provisioner{
		client:       client,
		log:          log,
		pollTimeout:  pollTimeout,
		pollInterval: pollInterval,
	}
}

// Run executes the workflow and, on terminal success, appends and selects a
// new speaker profile, records the request ids for later resumption, and
// saves the store to configPath.
func (p *Provisioner) Run(
	ctx context.Context,
	cfg *profile.Config,
	configPath string,
	req Request,
) Result {
	var result Result

	creds := customvoice.Credentials{Key: cfg.SpeechKey, Region: cfg.SpeechRegion}

	p.log.Info("Provisioning personal voice: project=%s consent=%s voice=%s",
		req.ProjectID, req.ConsentID, req.PersonalVoiceID)

	projectResult := p.client.CreateProject(ctx, creds, req.ProjectID, "", "")
	if !projectResult.OK {
		p.log.Error("Project creation failed: %s", projectResult.Error)
		result.Envelope = projectResult.Envelope

		return result
	}

	consentResult := p.client.PostConsentFromFile(ctx, creds, customvoice.ConsentUpload{
		ConsentID:       req.ConsentID,
		ProjectID:       req.ProjectID,
		VoiceTalentName: req.VoiceTalentName,
		CompanyName:     req.CompanyName,
		Locale:          req.ConsentLocale,
		Description:     "",
		AudioPath:       req.ConsentAudioPath,
	})
	if !consentResult.OK {
		p.log.Error("Consent upload failed: %s", consentResult.Error)
		result.Envelope = consentResult.Envelope

		return result
	}

	if consentResult.Note != "" {
		p.log.Info("Consent step: %s", consentResult.Note)
	}

	voiceResult := p.client.CreatePersonalVoiceFromFiles(ctx, creds, customvoice.VoiceUpload{
		PersonalVoiceID:  req.PersonalVoiceID,
		ProjectID:        req.ProjectID,
		ConsentID:        req.ConsentID,
		Description:      "",
		PromptAudioPaths: req.PromptAudioPaths,
	})
	if !voiceResult.OK {
		p.log.Error("Personal voice creation failed: %s", voiceResult.Error)
		result.Envelope = voiceResult.Envelope

		return result
	}

	result.OperationID = voiceResult.OperationID
	result.SpeakerProfileID = voiceResult.SpeakerProfileID

	waitResult := p.client.WaitForOperation(ctx, creds, voiceResult.OperationID, p.pollTimeout, p.pollInterval)
	if !waitResult.OK {
		p.log.Error("Operation wait failed: %s", waitResult.Error)
		result.Envelope = waitResult.Envelope

		return result
	}

	result.Status = waitResult.Status

	if waitResult.Status != customvoice.StatusSucceeded {
		p.log.Error("Voice training ended in status %s", waitResult.Status)
		result.Envelope = customvoice.Envelope{
			OK:           false,
			Error:        "voice training operation ended in status " + string(waitResult.Status),
			StatusCode:   waitResult.StatusCode,
			ResponseBody: "",
			Hint:         "",
			Note:         "",
		}

		return result
	}

	// The speaker profile id was returned synchronously by the creation
	// call; the poll only confirms readiness.
	profileName := strings.TrimSpace(req.VoiceTalentName)
	if profileName == "" {
		profileName = "Profile " + req.PersonalVoiceID
	}

	result.Profile = cfg.AddProfile(profileName, voiceResult.SpeakerProfileID)

	cfg.ProjectID = req.ProjectID
	cfg.ConsentID = req.ConsentID
	cfg.PersonalVoiceID = req.PersonalVoiceID
	cfg.ConsentLocale = req.ConsentLocale
	cfg.VoiceTalentName = req.VoiceTalentName
	cfg.CompanyName = req.CompanyName

	saveErr := profile.Save(cfg, configPath)
	if saveErr != nil {
		p.log.Error("Failed to save profile store: %v", saveErr)
		result.Envelope = customvoice.Envelope{
			OK:           false,
			Error:        "failed to save profile store: " + saveErr.Error(),
			StatusCode:   0,
			ResponseBody: "",
			Hint:         "the personal voice was created remotely; rerun with the same ids to re-save",
			Note:         "",
		}

		return result
	}

	p.log.Info("Personal voice provisioned: profile=%s speaker_profile_id=%s",
		result.Profile.ID, voiceResult.SpeakerProfileID)

	result.Envelope = customvoice.Envelope{
		OK:           true,
		Error:        "",
		StatusCode:   waitResult.StatusCode,
		ResponseBody: "",
		Hint:         "",
		Note:         consentResult.Note,
	}

	return result
}
