package customvoice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Multipart field names per the Custom Voice API contract. The audio field
// repeats once per file on the personal voice upload.
const (
	fieldProjectID       = "projectId"
	fieldConsentID       = "consentId"
	fieldVoiceTalentName = "voiceTalentName"
	fieldCompanyName     = "companyName"
	fieldLocale          = "locale"
	fieldDescription     = "description"
	fieldAudioData       = "audiodata"
)

// PostConsentFromFile uploads the voice talent consent recording as
// multipart/form-data. Success on HTTP 200 or 201.
//
// Consent ids are user-chosen, so HTTP 409 (the id already exists) is treated
// as an idempotent success: the existing resource is fetched and returned
// with a note. The existing consent's talent, company, and locale are not
// compared against the request.
func (c *Client) PostConsentFromFile(ctx context.Context, creds Credentials, upload ConsentUpload) ConsentResult {
	var result ConsentResult

	missing := creds.missingFields()
	missing = appendIfBlank(missing, upload.ConsentID, "consent_id")
	missing = appendIfBlank(missing, upload.ProjectID, "project_id")
	missing = appendIfBlank(missing, upload.VoiceTalentName, "voice_talent_name")
	missing = appendIfBlank(missing, upload.CompanyName, "company_name")
	missing = appendIfBlank(missing, upload.Locale, "locale")

	if len(missing) > 0 {
		result.Envelope = missingFieldsFailure(missing)

		return result
	}

	if _, statErr := os.Stat(upload.AudioPath); statErr != nil {
		result.Envelope = failure("consent audio file not found: " + upload.AudioPath)

		return result
	}

	fields := map[string]string{
		fieldProjectID:       upload.ProjectID,
		fieldVoiceTalentName: upload.VoiceTalentName,
		fieldCompanyName:     upload.CompanyName,
		fieldLocale:          upload.Locale,
	}
	if strings.TrimSpace(upload.Description) != "" {
		fields[fieldDescription] = strings.TrimSpace(upload.Description)
	}

	body, contentType, buildErr := buildMultipartBody(fields, []string{upload.AudioPath})
	if buildErr != nil {
		result.Envelope = failure(buildErr.Error())

		return result
	}

	resp, err := c.roundTrip(ctx, consentUploadTimeout, requestSpec{
		method:      http.MethodPost,
		creds:       creds,
		path:        "/customvoice/consents/" + url.PathEscape(upload.ConsentID),
		body:        body,
		contentType: contentType,
	})
	if err != nil {
		result.Envelope = failure(err.Error())

		return result
	}

	result.OperationLocation = resp.header.Get(headerOperationLocation)
	result.OperationID = parseOperationID(result.OperationLocation, resp.header.Get(headerOperationID))

	if resp.statusCode == http.StatusConflict {
		existing := c.GetConsent(ctx, creds, upload.ConsentID)
		if existing.OK {
			existing.Note = "consent already exists; using existing consent resource"

			return existing
		}
	}

	if resp.statusCode != http.StatusOK && resp.statusCode != http.StatusCreated {
		result.Envelope = providerFailure("consent upload failed", resp.statusCode, string(resp.body))

		return result
	}

	if decodeErr := json.Unmarshal(resp.body, &result.Consent); decodeErr != nil {
		result.Envelope = providerFailure(
			fmt.Sprintf("failed to parse consent response: %v", decodeErr),
			resp.statusCode,
			string(resp.body),
		)

		return result
	}

	result.Envelope = okEnvelope(resp.statusCode)

	return result
}

// CreatePersonalVoiceFromFiles creates a personal voice from prompt
// recordings, uploading every file as a repeated audiodata part in a single
// multipart request. Success on HTTP 200 or 201; the returned
// speakerProfileId may still be empty when training has not assigned one.
func (c *Client) CreatePersonalVoiceFromFiles(
	ctx context.Context,
	creds Credentials,
	upload VoiceUpload,
) PersonalVoiceResult {
	var result PersonalVoiceResult

	missing := creds.missingFields()
	missing = appendIfBlank(missing, upload.PersonalVoiceID, "personal_voice_id")
	missing = appendIfBlank(missing, upload.ProjectID, "project_id")
	missing = appendIfBlank(missing, upload.ConsentID, "consent_id")

	if len(upload.PromptAudioPaths) == 0 {
		missing = append(missing, "prompt_audio_paths (at least one prompt audio file)")
	}

	if len(missing) > 0 {
		result.Envelope = missingFieldsFailure(missing)

		return result
	}

	for _, path := range upload.PromptAudioPaths {
		if _, statErr := os.Stat(path); statErr != nil {
			result.Envelope = failure("prompt audio file not found: " + path)

			return result
		}
	}

	fields := map[string]string{
		fieldProjectID: upload.ProjectID,
		fieldConsentID: upload.ConsentID,
	}
	if strings.TrimSpace(upload.Description) != "" {
		fields[fieldDescription] = strings.TrimSpace(upload.Description)
	}

	body, contentType, buildErr := buildMultipartBody(fields, upload.PromptAudioPaths)
	if buildErr != nil {
		result.Envelope = failure(buildErr.Error())

		return result
	}

	resp, err := c.roundTrip(ctx, voiceUploadTimeout, requestSpec{
		method:      http.MethodPost,
		creds:       creds,
		path:        "/customvoice/personalvoices/" + url.PathEscape(upload.PersonalVoiceID),
		body:        body,
		contentType: contentType,
	})
	if err != nil {
		result.Envelope = failure(err.Error())

		return result
	}

	result.OperationLocation = resp.header.Get(headerOperationLocation)
	result.OperationID = parseOperationID(result.OperationLocation, resp.header.Get(headerOperationID))

	if resp.statusCode != http.StatusOK && resp.statusCode != http.StatusCreated {
		result.Envelope = providerFailure(
			"personal voice creation failed",
			resp.statusCode,
			string(resp.body),
		)

		return result
	}

	if decodeErr := json.Unmarshal(resp.body, &result.PersonalVoice); decodeErr != nil {
		result.Envelope = providerFailure(
			fmt.Sprintf("failed to parse personal voice response: %v", decodeErr),
			resp.statusCode,
			string(resp.body),
		)

		return result
	}

	result.SpeakerProfileID = result.PersonalVoice.SpeakerProfileID
	result.Envelope = okEnvelope(resp.statusCode)

	return result
}

// buildMultipartBody assembles the form fields and audio file parts into an
// in-memory multipart body. Each file is opened, copied, and closed before
// the next; order of audioPaths is preserved.
func buildMultipartBody(fields map[string]string, audioPaths []string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	for name, value := range fields {
		err := writer.WriteField(name, value)
		if err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}

	for _, path := range audioPaths {
		err := writeAudioPart(writer, path)
		if err != nil {
			return nil, "", err
		}
	}

	err := writer.Close()
	if err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

// writeAudioPart adds one audiodata part with a content type inferred from
// the file extension. The file handle is released before returning on every
// path.
func writeAudioPart(writer *multipart.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open audio file %s: %w", path, err)
	}
	defer file.Close()

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(
		`form-data; name=%q; filename=%q`,
		fieldAudioData,
		filepath.Base(path),
	))
	header.Set(headerContentType, guessAudioContentType(path))

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create audio part for %s: %w", path, err)
	}

	_, err = io.Copy(part, file)
	if err != nil {
		return fmt.Errorf("failed to copy audio file %s: %w", path, err)
	}

	return nil
}

// guessAudioContentType maps a file extension to the content type the API
// expects. Unknown extensions fall back to octet-stream, which the API may
// reject.
func guessAudioContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav"
	case ".mp3", ".mpeg":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

func appendIfBlank(missing []string, value, name string) []string {
	if strings.TrimSpace(value) == "" {
		missing = append(missing, name)
	}

	return missing
}
