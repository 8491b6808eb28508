// Package profile manages the Personal Voice credential and speaker-profile
// store. The store is an explicit value: callers load it from disk, pass it to
// the operations that need it, and save it back. Nothing in this package keeps
// ambient global state.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Defaults applied when the store document is missing or incomplete.
const (
	DefaultVoiceName     = "DragonLatestNeural"
	DefaultLanguage      = "en-US"
	DefaultConsentLocale = "en-US"

	// DefaultAPIVersion is the Custom Voice REST api-version used unless the
	// store overrides it.
	DefaultAPIVersion = "2024-02-01-preview"
)

// Environment variables consulted, in order, when the stored key or region is
// empty. File contents always win over the environment.
var (
	speechKeyEnvVars    = []string{"AZURE_SPEECH_KEY", "SPEECH_KEY"}
	speechRegionEnvVars = []string{"AZURE_SPEECH_REGION", "SPEECH_REGION"}
)

// File and directory permissions.
const (
	filePermissions = 0o600
	dirPermissions  = 0o750
)

const creationDateLayout = "2006-01-02"

// ErrMissingConfig indicates that required synthesis configuration is absent.
var ErrMissingConfig = errors.New("missing required config values")

// SpeakerProfile is one trained Personal Voice profile. Profiles are created
// only by a completed provisioning run and are immutable afterwards.
type SpeakerProfile struct {
	// ID is a locally generated identifier, unique within the store.
	ID string `json:"id"`

	// Name is the display name shown when picking a profile.
	Name string `json:"name"`

	// SpeakerProfileID is the opaque, server-issued identifier embedded into
	// synthesis SSML.
	SpeakerProfileID string `json:"speaker_profile_id"`

	// CreationDate is the local date the profile was recorded, YYYY-MM-DD.
	CreationDate string `json:"creation_date"`
}

// Config is the persisted Personal Voice store: Speech credentials, synthesis
// defaults, the profile list, and the most recent provisioning request fields
// so a partially completed creation can be resumed with the same ids.
type Config struct {
	SpeechKey    string `json:"speech_key"`
	SpeechRegion string `json:"speech_region"`
	VoiceName    string `json:"voice_name"`
	Language     string `json:"language"`

	Profiles          []SpeakerProfile `json:"profiles"`
	SelectedProfileID string           `json:"selected_profile_id"`

	CustomVoiceAPIVersion string `json:"custom_voice_api_version"`
	ProjectID             string `json:"personal_voice_project_id"`
	ConsentID             string `json:"personal_voice_consent_id"`
	PersonalVoiceID       string `json:"personal_voice_id"`
	ConsentLocale         string `json:"personal_voice_consent_locale"`
	VoiceTalentName       string `json:"personal_voice_voice_talent_name"`
	CompanyName           string `json:"personal_voice_company_name"`
}

// legacyDocument mirrors Config plus the retired top-level speaker_profile_id
// field, so old store files can be migrated on load.
type legacyDocument struct {
	Config

	LegacySpeakerProfileID string `json:"speaker_profile_id"`

	// SelectedProfileID shadows the embedded Config field so an absent key
	// can be told apart from a present-but-empty selection.
	SelectedProfileID *string `json:"selected_profile_id"`
}

// NewConfig returns a Config populated with defaults and no profiles.
func NewConfig() *Config {
	return &Config{
		SpeechKey:             "",
		SpeechRegion:          "",
		VoiceName:             DefaultVoiceName,
		Language:              DefaultLanguage,
		Profiles:              nil,
		SelectedProfileID:     "",
		CustomVoiceAPIVersion: DefaultAPIVersion,
		ProjectID:             "",
		ConsentID:             "",
		PersonalVoiceID:       "",
		ConsentLocale:         DefaultConsentLocale,
		VoiceTalentName:       "",
		CompanyName:           "",
	}
}

// Load reads the store document from path. A missing file yields a default
// Config. Empty credentials are filled from the environment; non-empty stored
// values are never overwritten.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return applyEnvDefaults(NewConfig()), nil
		}

		return nil, fmt.Errorf("failed to read profile store %s: %w", path, err)
	}

	var doc legacyDocument

	err = json.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile store %s: %w", path, err)
	}

	cfg := doc.Config
	applyDocumentDefaults(&cfg)

	// Migrate the retired single-profile format: a bare speaker_profile_id
	// with no profiles list becomes exactly one profile.
	if len(cfg.Profiles) == 0 && strings.TrimSpace(doc.LegacySpeakerProfileID) != "" {
		migrated := SpeakerProfile{
			ID:               newProfileID(),
			Name:             "Migrated Profile",
			SpeakerProfileID: doc.LegacySpeakerProfileID,
			CreationDate:     today(),
		}
		cfg.Profiles = []SpeakerProfile{migrated}
	}

	// Only documents that never carried a selection default to the first
	// profile. An explicitly empty selection round-trips as empty.
	switch {
	case doc.SelectedProfileID != nil:
		cfg.SelectedProfileID = *doc.SelectedProfileID
	case len(cfg.Profiles) > 0:
		cfg.SelectedProfileID = cfg.Profiles[0].ID
	}

	return applyEnvDefaults(&cfg), nil
}

// Save writes the store document to path, creating parent directories as
// needed.
func Save(cfg *Config, path string) error {
	dirErr := os.MkdirAll(filepath.Dir(path), dirPermissions)
	if dirErr != nil {
		return fmt.Errorf("failed to create profile store directory: %w", dirErr)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile store: %w", err)
	}

	writeErr := os.WriteFile(path, data, filePermissions)
	if writeErr != nil {
		return fmt.Errorf("failed to write profile store %s: %w", path, writeErr)
	}

	return nil
}

// SelectedProfile returns the profile referenced by SelectedProfileID, or nil
// when nothing is selected. A dangling reference counts as no selection.
func (c *Config) SelectedProfile() *SpeakerProfile {
	if strings.TrimSpace(c.SelectedProfileID) == "" {
		return nil
	}

	for i := range c.Profiles {
		if c.Profiles[i].ID == c.SelectedProfileID {
			return &c.Profiles[i]
		}
	}

	return nil
}

// AddProfile appends a new profile with a generated id and today's date, and
// selects it. An empty name gets a dated placeholder.
func (c *Config) AddProfile(name, speakerProfileID string) SpeakerProfile {
	date := today()
	if strings.TrimSpace(name) == "" {
		name = "Profile " + date
	}

	p := SpeakerProfile{
		ID:               newProfileID(),
		Name:             name,
		SpeakerProfileID: speakerProfileID,
		CreationDate:     date,
	}

	c.Profiles = append(c.Profiles, p)
	c.SelectedProfileID = p.ID

	return p
}

// ValidateForSynthesis reports every missing field required before a
// synthesis call, wrapped in ErrMissingConfig. The selected-profile check
// distinguishes "no profile selected" from a selection that no longer exists.
func (c *Config) ValidateForSynthesis() error {
	var missing []string

	if strings.TrimSpace(c.SpeechKey) == "" {
		missing = append(missing, "speech_key")
	}

	if strings.TrimSpace(c.SpeechRegion) == "" {
		missing = append(missing, "speech_region")
	}

	switch {
	case strings.TrimSpace(c.SelectedProfileID) == "":
		missing = append(missing, "selected_profile_id (no profile selected)")
	case c.SelectedProfile() == nil:
		missing = append(missing, "selected_profile_id (profile not found)")
	}

	if strings.TrimSpace(c.VoiceName) == "" {
		missing = append(missing, "voice_name")
	}

	if strings.TrimSpace(c.Language) == "" {
		missing = append(missing, "language")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	return nil
}

// APIVersion returns the configured Custom Voice api-version, falling back to
// the default when the stored value is blank.
func (c *Config) APIVersion() string {
	version := strings.TrimSpace(c.CustomVoiceAPIVersion)
	if version == "" {
		return DefaultAPIVersion
	}

	return version
}

func applyDocumentDefaults(cfg *Config) {
	if cfg.VoiceName == "" {
		cfg.VoiceName = DefaultVoiceName
	}

	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}

	if cfg.ConsentLocale == "" {
		cfg.ConsentLocale = DefaultConsentLocale
	}

	if cfg.CustomVoiceAPIVersion == "" {
		cfg.CustomVoiceAPIVersion = DefaultAPIVersion
	}
}

func applyEnvDefaults(cfg *Config) *Config {
	if strings.TrimSpace(cfg.SpeechKey) == "" {
		cfg.SpeechKey = firstEnv(speechKeyEnvVars)
	}

	if strings.TrimSpace(cfg.SpeechRegion) == "" {
		cfg.SpeechRegion = firstEnv(speechRegionEnvVars)
	}

	return cfg
}

func firstEnv(names []string) string {
	for _, name := range names {
		value := strings.TrimSpace(os.Getenv(name))
		if value != "" {
			return value
		}
	}

	return ""
}

func newProfileID() string {
	return "profile-" + uuid.NewString()
}

func today() string {
	return time.Now().Format(creationDateLayout)
}
