// Package profile_test tests the Personal Voice profile store.
package profile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/personalvoice-service/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := profile.Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)

	assert.Equal(t, profile.DefaultVoiceName, cfg.VoiceName)
	assert.Equal(t, profile.DefaultLanguage, cfg.Language)
	assert.Equal(t, profile.DefaultAPIVersion, cfg.CustomVoiceAPIVersion)
	assert.Empty(t, cfg.Profiles)
	assert.Empty(t, cfg.SelectedProfileID)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "store", "personal_voice_config.json")

	cfg := profile.NewConfig()
	cfg.SpeechKey = "test-key"
	cfg.SpeechRegion = "eastus"
	cfg.VoiceName = "DragonLatestNeural"
	cfg.Language = "en-GB"
	cfg.ProjectID = "proj-1"
	cfg.ConsentID = "consent-1"
	cfg.PersonalVoiceID = "voice-1"
	cfg.ConsentLocale = "en-GB"
	cfg.VoiceTalentName = "Jane Doe"
	cfg.CompanyName = "Contoso"

	added := cfg.AddProfile("Jane Doe", "spk-abc-123")
	require.NotEmpty(t, added.ID)
	require.Equal(t, added.ID, cfg.SelectedProfileID)

	require.NoError(t, profile.Save(cfg, path))

	loaded, err := profile.Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg, loaded)
}

func TestSaveLoad_EmptySelectionStaysEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "deselected.json")

	cfg := profile.NewConfig()
	cfg.AddProfile("Jane Doe", "spk-abc-123")
	cfg.SelectedProfileID = ""

	require.NoError(t, profile.Save(cfg, path))

	loaded, err := profile.Load(path)
	require.NoError(t, err)

	require.Len(t, loaded.Profiles, 1)
	assert.Empty(t, loaded.SelectedProfileID)
}

func TestLoad_AbsentSelectionDefaultsToFirstProfile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "no-selection.json")
	doc := `{
		"profiles": [
			{"id": "p1", "name": "First", "speaker_profile_id": "spk-1", "creation_date": "2025-01-02"},
			{"id": "p2", "name": "Second", "speaker_profile_id": "spk-2", "creation_date": "2025-01-03"}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := profile.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "p1", cfg.SelectedProfileID)
}

func TestLoad_MigratesLegacySpeakerProfileID(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "legacy.json")
	legacy := `{
		"speech_key": "k",
		"speech_region": "westus",
		"speaker_profile_id": "legacy-spk-id"
	}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	cfg, err := profile.Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Profiles, 1)
	assert.Equal(t, "legacy-spk-id", cfg.Profiles[0].SpeakerProfileID)
	assert.Equal(t, "Migrated Profile", cfg.Profiles[0].Name)
	assert.NotEmpty(t, cfg.Profiles[0].ID)
	assert.NotEmpty(t, cfg.Profiles[0].CreationDate)
	assert.Equal(t, cfg.Profiles[0].ID, cfg.SelectedProfileID)
}

func TestLoad_ProfilesListWinsOverLegacyField(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mixed.json")
	doc := `{
		"speaker_profile_id": "legacy-spk-id",
		"profiles": [
			{"id": "p1", "name": "Kept", "speaker_profile_id": "spk-1", "creation_date": "2025-01-02"}
		],
		"selected_profile_id": "p1"
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := profile.Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Profiles, 1)
	assert.Equal(t, "spk-1", cfg.Profiles[0].SpeakerProfileID)
}

func TestLoad_EnvFallbackFillsOnlyEmptyFields(t *testing.T) {
	t.Setenv("AZURE_SPEECH_KEY", "env-key")
	t.Setenv("AZURE_SPEECH_REGION", "env-region")

	path := filepath.Join(t.TempDir(), "partial.json")
	doc := `{"speech_key": "file-key", "speech_region": ""}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := profile.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.SpeechKey, "stored key must not be overwritten")
	assert.Equal(t, "env-region", cfg.SpeechRegion)
}

func TestLoad_EnvFallbackSecondaryName(t *testing.T) {
	t.Setenv("AZURE_SPEECH_KEY", "")
	t.Setenv("SPEECH_KEY", "secondary-key")
	t.Setenv("AZURE_SPEECH_REGION", "")
	t.Setenv("SPEECH_REGION", "")

	cfg, err := profile.Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "secondary-key", cfg.SpeechKey)
	assert.Empty(t, cfg.SpeechRegion)
}

func TestSelectedProfile_DanglingReferenceIsNoSelection(t *testing.T) {
	t.Parallel()

	cfg := profile.NewConfig()
	cfg.AddProfile("A", "spk-a")
	cfg.SelectedProfileID = "not-a-real-id"

	assert.Nil(t, cfg.SelectedProfile())
}

func TestAddProfile_DefaultsNameAndSelects(t *testing.T) {
	t.Parallel()

	cfg := profile.NewConfig()

	first := cfg.AddProfile("", "spk-1")
	assert.Contains(t, first.Name, "Profile ")

	second := cfg.AddProfile("Named", "spk-2")
	assert.Equal(t, second.ID, cfg.SelectedProfileID)
	assert.NotEqual(t, first.ID, second.ID)

	selected := cfg.SelectedProfile()
	require.NotNil(t, selected)
	assert.Equal(t, "spk-2", selected.SpeakerProfileID)
}

func TestValidateForSynthesis_DistinguishesSelectionErrors(t *testing.T) {
	t.Parallel()

	cfg := profile.NewConfig()
	cfg.SpeechKey = "k"
	cfg.SpeechRegion = "r"

	err := cfg.ValidateForSynthesis()
	require.ErrorIs(t, err, profile.ErrMissingConfig)
	assert.Contains(t, err.Error(), "no profile selected")

	cfg.AddProfile("A", "spk-a")
	cfg.SelectedProfileID = "dangling"

	err = cfg.ValidateForSynthesis()
	require.ErrorIs(t, err, profile.ErrMissingConfig)
	assert.Contains(t, err.Error(), "profile not found")

	cfg.SelectedProfileID = cfg.Profiles[0].ID
	require.NoError(t, cfg.ValidateForSynthesis())
}

func TestValidateForSynthesis_CollectsAllMissingFields(t *testing.T) {
	t.Parallel()

	cfg := profile.NewConfig()
	cfg.VoiceName = ""
	cfg.Language = ""

	err := cfg.ValidateForSynthesis()
	require.ErrorIs(t, err, profile.ErrMissingConfig)
	assert.Contains(t, err.Error(), "speech_key")
	assert.Contains(t, err.Error(), "speech_region")
	assert.Contains(t, err.Error(), "voice_name")
	assert.Contains(t, err.Error(), "language")
}

func TestAPIVersion_FallsBackToDefault(t *testing.T) {
	t.Parallel()

	cfg := profile.NewConfig()
	cfg.CustomVoiceAPIVersion = "  "
	assert.Equal(t, profile.DefaultAPIVersion, cfg.APIVersion())

	cfg.CustomVoiceAPIVersion = "2025-01-01"
	assert.Equal(t, "2025-01-01", cfg.APIVersion())
}
