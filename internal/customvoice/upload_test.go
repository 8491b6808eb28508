package customvoice_test

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/personalvoice-service/internal/customvoice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maxMultipartMemory = 32 << 20

func writeTempAudio(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

func consentUploadFixture(audioPath string) customvoice.ConsentUpload {
	return customvoice.ConsentUpload{
		ConsentID:       "consent-1",
		ProjectID:       "proj-1",
		VoiceTalentName: "Jane Doe",
		CompanyName:     "Contoso",
		Locale:          "en-US",
		Description:     "",
		AudioPath:       audioPath,
	}
}

func TestPostConsentFromFile_MultipartContract(t *testing.T) {
	t.Parallel()

	audioPath := writeTempAudio(t, "consent.wav", []byte("RIFF....WAVE"))

	client := newTestClient(t, http.HandlerFunc(
		func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodPost, request.Method)
			assert.Equal(t, "/customvoice/consents/consent-1", request.URL.Path)

			require.NoError(t, request.ParseMultipartForm(maxMultipartMemory))
			assert.Equal(t, "proj-1", request.FormValue("projectId"))
			assert.Equal(t, "Jane Doe", request.FormValue("voiceTalentName"))
			assert.Equal(t, "Contoso", request.FormValue("companyName"))
			assert.Equal(t, "en-US", request.FormValue("locale"))

			files := request.MultipartForm.File["audiodata"]
			require.Len(t, files, 1)
			assert.Equal(t, "consent.wav", files[0].Filename)
			assert.Equal(t, "audio/wav", files[0].Header.Get("Content-Type"))

			writer.Header().Set("Operation-Id", "op-consent-1")
			writer.WriteHeader(http.StatusCreated)
			_, _ = writer.Write([]byte(`{"id": "consent-1", "status": "NotStarted"}`))
		},
	))

	result := client.PostConsentFromFile(context.Background(), testCreds, consentUploadFixture(audioPath))

	require.True(t, result.OK, "expected success, got: %s", result.Error)
	assert.Equal(t, "op-consent-1", result.OperationID)
	assert.Equal(t, "consent-1", result.Consent.ID)
}

func TestPostConsentFromFile_OperationIDFromLocationHeader(t *testing.T) {
	t.Parallel()

	audioPath := writeTempAudio(t, "consent.mp3", []byte("mp3data"))

	client := newTestClient(t, http.HandlerFunc(
		func(writer http.ResponseWriter, request *http.Request) {
			require.NoError(t, request.ParseMultipartForm(maxMultipartMemory))

			files := request.MultipartForm.File["audiodata"]
			require.Len(t, files, 1)
			assert.Equal(t, "audio/mpeg", files[0].Header.Get("Content-Type"))

			writer.Header().Set(
				"Operation-Location",
				"https://eastus.api.cognitive.microsoft.com/customvoice/operations/op-from-location?api-version=2024-02-01-preview",
			)
			writer.WriteHeader(http.StatusCreated)
			_, _ = writer.Write([]byte(`{"id": "consent-1"}`))
		},
	))

	result := client.PostConsentFromFile(context.Background(), testCreds, consentUploadFixture(audioPath))

	require.True(t, result.OK, "expected success, got: %s", result.Error)
	assert.Equal(t, "op-from-location", result.OperationID)
}

func TestPostConsentFromFile_ConflictReusesExistingConsent(t *testing.T) {
	t.Parallel()

	audioPath := writeTempAudio(t, "consent.wav", []byte("RIFF"))

	getCalls := 0
	client := newTestClient(t, http.HandlerFunc(
		func(writer http.ResponseWriter, request *http.Request) {
			if request.Method == http.MethodPost {
				writer.WriteHeader(http.StatusConflict)
				_, _ = writer.Write([]byte(`{"error": "exists"}`))

				return
			}

			getCalls++

			writer.WriteHeader(http.StatusOK)
			_, _ = writer.Write([]byte(`{"id": "consent-1", "status": "Succeeded", "locale": "en-US"}`))
		},
	))

	result := client.PostConsentFromFile(context.Background(), testCreds, consentUploadFixture(audioPath))

	require.True(t, result.OK, "409 must be reclassified as success")
	assert.Equal(t, 1, getCalls)
	assert.Equal(t, "consent-1", result.Consent.ID)
	assert.Contains(t, result.Note, "already exists")
}

func TestPostConsentFromFile_ConflictWithFailedGetStaysFailure(t *testing.T) {
	t.Parallel()

	audioPath := writeTempAudio(t, "consent.wav", []byte("RIFF"))

	client := newTestClient(t, http.HandlerFunc(
		func(writer http.ResponseWriter, request *http.Request) {
			if request.Method == http.MethodPost {
				writer.WriteHeader(http.StatusConflict)
				_, _ = writer.Write([]byte(`{"error": "exists"}`))

				return
			}

			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{}`))
		},
	))

	result := client.PostConsentFromFile(context.Background(), testCreds, consentUploadFixture(audioPath))

	require.False(t, result.OK)
	assert.Equal(t, http.StatusConflict, result.StatusCode)
}

func TestPostConsentFromFile_MissingFileFailsLocally(t *testing.T) {
	t.Parallel()

	requestCount := 0
	client := newTestClient(t, http.HandlerFunc(
		func(writer http.ResponseWriter, _ *http.Request) {
			requestCount++

			writer.WriteHeader(http.StatusOK)
		},
	))

	upload := consentUploadFixture(filepath.Join(t.TempDir(), "missing.wav"))
	result := client.PostConsentFromFile(context.Background(), testCreds, upload)

	require.False(t, result.OK)
	assert.Contains(t, result.Error, "consent audio file not found")
	assert.Zero(t, requestCount)
}

func TestPostConsentFromFile_MissingFieldsNamed(t *testing.T) {
	t.Parallel()

	client := customvoice.New("")

	upload := customvoice.ConsentUpload{
		ConsentID:       "",
		ProjectID:       "",
		VoiceTalentName: "",
		CompanyName:     "",
		Locale:          "",
		Description:     "",
		AudioPath:       "",
	}
	result := client.PostConsentFromFile(context.Background(), testCreds, upload)

	require.False(t, result.OK)
	assert.Contains(t, result.Error, "consent_id")
	assert.Contains(t, result.Error, "project_id")
	assert.Contains(t, result.Error, "voice_talent_name")
	assert.Contains(t, result.Error, "company_name")
	assert.Contains(t, result.Error, "locale")
}

func TestCreatePersonalVoiceFromFiles_MultipleAudioPartsInOrder(t *testing.T) {
	t.Parallel()

	first := writeTempAudio(t, "prompt_1.wav", []byte("first"))
	second := writeTempAudio(t, "prompt_2.mp3", []byte("second"))
	third := writeTempAudio(t, "prompt_3.bin", []byte("third"))

	client := newTestClient(t, http.HandlerFunc(
		func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/customvoice/personalvoices/voice-1", request.URL.Path)

			require.NoError(t, request.ParseMultipartForm(maxMultipartMemory))
			assert.Equal(t, "proj-1", request.FormValue("projectId"))
			assert.Equal(t, "consent-1", request.FormValue("consentId"))

			files := request.MultipartForm.File["audiodata"]
			require.Len(t, files, 3)

			assert.Equal(t, "prompt_1.wav", files[0].Filename)
			assert.Equal(t, "audio/wav", files[0].Header.Get("Content-Type"))
			assert.Equal(t, "prompt_2.mp3", files[1].Filename)
			assert.Equal(t, "audio/mpeg", files[1].Header.Get("Content-Type"))
			assert.Equal(t, "prompt_3.bin", files[2].Filename)
			assert.Equal(t, "application/octet-stream", files[2].Header.Get("Content-Type"))

			part, err := files[1].Open()
			require.NoError(t, err)

			defer part.Close()

			data, err := io.ReadAll(part)
			require.NoError(t, err)
			assert.Equal(t, []byte("second"), data)

			writer.Header().Set("Operation-Id", "op-voice-1")
			writer.WriteHeader(http.StatusCreated)
			_, _ = writer.Write([]byte(`{"id": "voice-1", "speakerProfileId": "spk-42"}`))
		},
	))

	upload := customvoice.VoiceUpload{
		PersonalVoiceID:  "voice-1",
		ProjectID:        "proj-1",
		ConsentID:        "consent-1",
		Description:      "",
		PromptAudioPaths: []string{first, second, third},
	}
	result := client.CreatePersonalVoiceFromFiles(context.Background(), testCreds, upload)

	require.True(t, result.OK, "expected success, got: %s", result.Error)
	assert.Equal(t, "spk-42", result.SpeakerProfileID)
	assert.Equal(t, "op-voice-1", result.OperationID)
}

func TestCreatePersonalVoiceFromFiles_RequiresPromptAudio(t *testing.T) {
	t.Parallel()

	client := customvoice.New("")

	upload := customvoice.VoiceUpload{
		PersonalVoiceID:  "voice-1",
		ProjectID:        "proj-1",
		ConsentID:        "consent-1",
		Description:      "",
		PromptAudioPaths: nil,
	}
	result := client.CreatePersonalVoiceFromFiles(context.Background(), testCreds, upload)

	require.False(t, result.OK)
	assert.Contains(t, result.Error, "prompt_audio_paths")
}

func TestCreatePersonalVoiceFromFiles_NullSpeakerProfileIDIsSuccess(t *testing.T) {
	t.Parallel()

	audioPath := writeTempAudio(t, "prompt.wav", []byte("RIFF"))

	client := newTestClient(t, http.HandlerFunc(
		func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusCreated)
			_, _ = writer.Write([]byte(`{"id": "voice-1", "speakerProfileId": null}`))
		},
	))

	upload := customvoice.VoiceUpload{
		PersonalVoiceID:  "voice-1",
		ProjectID:        "proj-1",
		ConsentID:        "consent-1",
		Description:      "",
		PromptAudioPaths: []string{audioPath},
	}
	result := client.CreatePersonalVoiceFromFiles(context.Background(), testCreds, upload)

	require.True(t, result.OK, "expected success, got: %s", result.Error)
	assert.Empty(t, result.SpeakerProfileID)
}
