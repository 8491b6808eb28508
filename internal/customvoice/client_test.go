// Package customvoice_test tests the Custom Voice REST client wrapper.
package customvoice_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/book-expert/personalvoice-service/internal/customvoice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = customvoice.Credentials{Key: "test-key", Region: "eastus"}

func newTestClient(t *testing.T, handler http.Handler) *customvoice.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return customvoice.New("", customvoice.WithBaseURL(server.URL))
}

func TestCreateProject_Success(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(
		func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodPut, request.Method)
			assert.Equal(t, "/customvoice/projects/proj-1", request.URL.Path)
			assert.Equal(t, customvoice.DefaultAPIVersion, request.URL.Query().Get("api-version"))
			assert.Equal(t, "test-key", request.Header.Get("Ocp-Apim-Subscription-Key"))
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

			writer.WriteHeader(http.StatusCreated)
			_, _ = writer.Write([]byte(`{"id": "proj-1", "kind": "PersonalVoice"}`))
		},
	))

	result := client.CreateProject(context.Background(), testCreds, "proj-1", "", "")

	require.True(t, result.OK, "expected success, got: %s", result.Error)
	assert.Equal(t, http.StatusCreated, result.StatusCode)
	assert.Equal(t, "proj-1", result.Project.ID)
	assert.Equal(t, "PersonalVoice", result.Project.Kind)
}

func TestCreateProject_ProviderErrorCarriesStatusAndBody(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(
		func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusForbidden)
			_, _ = writer.Write([]byte(`{"error": {"code": "Unauthorized"}}`))
		},
	))

	result := client.CreateProject(context.Background(), testCreds, "proj-1", "", "")

	require.False(t, result.OK)
	assert.Equal(t, http.StatusForbidden, result.StatusCode)
	assert.Contains(t, result.Error, "project create failed")
	assert.Contains(t, result.ResponseBody, "Unauthorized")
}

func TestCreateProject_LocalValidationSkipsNetwork(t *testing.T) {
	t.Parallel()

	requestCount := 0
	client := newTestClient(t, http.HandlerFunc(
		func(writer http.ResponseWriter, _ *http.Request) {
			requestCount++

			writer.WriteHeader(http.StatusOK)
		},
	))

	result := client.CreateProject(context.Background(), customvoice.Credentials{Key: "", Region: ""}, "", "", "")

	require.False(t, result.OK)
	assert.Contains(t, result.Error, "speech_key")
	assert.Contains(t, result.Error, "speech_region")
	assert.Contains(t, result.Error, "project_id")
	assert.Zero(t, requestCount, "no request may be sent for locally detectable errors")
}

func TestCreateProject_TransportErrorBecomesFailureEnvelope(t *testing.T) {
	t.Parallel()

	// Point at a server that is already closed.
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client := customvoice.New("", customvoice.WithBaseURL(server.URL))
	result := client.CreateProject(context.Background(), testCreds, "proj-1", "", "")

	require.False(t, result.OK)
	assert.NotEmpty(t, result.Error)
	assert.Zero(t, result.StatusCode)
}

func TestGetConsent_SuccessOnlyOn200(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(
		func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/customvoice/consents/consent-1", request.URL.Path)

			writer.WriteHeader(http.StatusAccepted)
			_, _ = writer.Write([]byte(`{"id": "consent-1"}`))
		},
	))

	result := client.GetConsent(context.Background(), testCreds, "consent-1")

	require.False(t, result.OK)
	assert.Equal(t, http.StatusAccepted, result.StatusCode)
}

func TestGetOperation_ParsesStatus(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(
		func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/customvoice/operations/op-1", request.URL.Path)

			writer.WriteHeader(http.StatusOK)
			_, _ = writer.Write([]byte(`{"id": "op-1", "status": "Running"}`))
		},
	))

	result := client.GetOperation(context.Background(), testCreds, "op-1")

	require.True(t, result.OK, "expected success, got: %s", result.Error)
	assert.Equal(t, customvoice.StatusRunning, result.Operation.Status)
	assert.False(t, result.Operation.Status.Terminal())
}

func TestGetOperation_MalformedJSONBecomesFailure(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(
		func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusOK)
			_, _ = writer.Write([]byte(`not json`))
		},
	))

	result := client.GetOperation(context.Background(), testCreds, "op-1")

	require.False(t, result.OK)
	assert.Contains(t, result.Error, "failed to parse")
	assert.Equal(t, "not json", result.ResponseBody)
}

func TestGetPersonalVoice_ExtractsSpeakerProfileID(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(
		func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/customvoice/personalvoices/voice-1", request.URL.Path)

			writer.WriteHeader(http.StatusOK)
			_, _ = writer.Write([]byte(`{"id": "voice-1", "speakerProfileId": "spk-9", "status": "Succeeded"}`))
		},
	))

	result := client.GetPersonalVoice(context.Background(), testCreds, "voice-1")

	require.True(t, result.OK, "expected success, got: %s", result.Error)
	assert.Equal(t, "spk-9", result.SpeakerProfileID)
	assert.Equal(t, "spk-9", result.PersonalVoice.SpeakerProfileID)
}
