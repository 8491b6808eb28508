package customvoice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Per-call timeouts. The multi-file voice upload carries the most data and
// gets the longest budget.
const (
	smallCallTimeout     = 60 * time.Second
	consentUploadTimeout = 120 * time.Second
	voiceUploadTimeout   = 300 * time.Second
)

// HTTP headers and parameters.
const (
	headerSubscriptionKey   = "Ocp-Apim-Subscription-Key"
	headerContentType       = "Content-Type"
	headerOperationID       = "Operation-Id"
	headerOperationLocation = "Operation-Location"
	contentTypeJSON         = "application/json"
	apiVersionParam         = "api-version"
)

// DefaultAPIVersion is used when the client is constructed with a blank
// api-version.
const DefaultAPIVersion = "2024-02-01-preview"

// Client issues Custom Voice REST calls. The zero value is not usable;
// construct with New.
type Client struct {
	httpClient *http.Client
	apiVersion string
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the regional endpoint. Intended for tests against
// local mock servers.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a Custom Voice client pinned to one api-version. Timeouts are
// applied per call, so the underlying http.Client carries none.
func New(apiVersion string, opts ...Option) *Client {
	if strings.TrimSpace(apiVersion) == "" {
		apiVersion = DefaultAPIVersion
	}

	client := &Client{
		httpClient: &http.Client{},
		apiVersion: apiVersion,
		baseURL:    "",
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// CreateProject creates (or idempotently re-creates) a PersonalVoice project
// via PUT. Success on HTTP 200 or 201.
func (c *Client) CreateProject(
	ctx context.Context,
	creds Credentials,
	projectID, description, displayName string,
) ProjectResult {
	var result ProjectResult

	missing := creds.missingFields()
	if strings.TrimSpace(projectID) == "" {
		missing = append(missing, "project_id")
	}

	if len(missing) > 0 {
		result.Envelope = missingFieldsFailure(missing)

		return result
	}

	payload := map[string]string{"kind": "PersonalVoice"}
	if strings.TrimSpace(description) != "" {
		payload["description"] = strings.TrimSpace(description)
	}

	if strings.TrimSpace(displayName) != "" {
		payload["displayName"] = strings.TrimSpace(displayName)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		result.Envelope = failure(fmt.Sprintf("failed to marshal project payload: %v", err))

		return result
	}

	resp, err := c.roundTrip(ctx, smallCallTimeout, requestSpec{
		method:      http.MethodPut,
		creds:       creds,
		path:        "/customvoice/projects/" + url.PathEscape(projectID),
		body:        bytes.NewReader(body),
		contentType: contentTypeJSON,
	})
	if err != nil {
		result.Envelope = failure(err.Error())

		return result
	}

	if resp.statusCode != http.StatusOK && resp.statusCode != http.StatusCreated {
		result.Envelope = providerFailure(
			"project create failed",
			resp.statusCode,
			string(resp.body),
		)

		return result
	}

	if decodeErr := json.Unmarshal(resp.body, &result.Project); decodeErr != nil {
		result.Envelope = providerFailure(
			fmt.Sprintf("failed to parse project response: %v", decodeErr),
			resp.statusCode,
			string(resp.body),
		)

		return result
	}

	result.Envelope = okEnvelope(resp.statusCode)

	return result
}

// GetConsent fetches a consent resource by id. Success only on HTTP 200.
func (c *Client) GetConsent(ctx context.Context, creds Credentials, consentID string) ConsentResult {
	var result ConsentResult

	missing := creds.missingFields()
	if strings.TrimSpace(consentID) == "" {
		missing = append(missing, "consent_id")
	}

	if len(missing) > 0 {
		result.Envelope = missingFieldsFailure(missing)

		return result
	}

	resp, err := c.roundTrip(ctx, smallCallTimeout, requestSpec{
		method:      http.MethodGet,
		creds:       creds,
		path:        "/customvoice/consents/" + url.PathEscape(consentID),
		body:        nil,
		contentType: "",
	})
	if err != nil {
		result.Envelope = failure(err.Error())

		return result
	}

	if resp.statusCode != http.StatusOK {
		result.Envelope = providerFailure("get consent failed", resp.statusCode, string(resp.body))

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

// GetOperation fetches the status of a long-running operation. Success only
// on HTTP 200.
func (c *Client) GetOperation(ctx context.Context, creds Credentials, operationID string) OperationResult {
	var result OperationResult

	missing := creds.missingFields()
	if strings.TrimSpace(operationID) == "" {
		missing = append(missing, "operation_id")
	}

	if len(missing) > 0 {
		result.Envelope = missingFieldsFailure(missing)

		return result
	}

	resp, err := c.roundTrip(ctx, smallCallTimeout, requestSpec{
		method:      http.MethodGet,
		creds:       creds,
		path:        "/customvoice/operations/" + url.PathEscape(operationID),
		body:        nil,
		contentType: "",
	})
	if err != nil {
		result.Envelope = failure(err.Error())

		return result
	}

	if resp.statusCode != http.StatusOK {
		result.Envelope = providerFailure("get operation failed", resp.statusCode, string(resp.body))

		return result
	}

	if decodeErr := json.Unmarshal(resp.body, &result.Operation); decodeErr != nil {
		result.Envelope = providerFailure(
			fmt.Sprintf("failed to parse operation response: %v", decodeErr),
			resp.statusCode,
			string(resp.body),
		)

		return result
	}

	result.Envelope = okEnvelope(resp.statusCode)

	return result
}

// GetPersonalVoice fetches a personal voice resource, including its
// speakerProfileId once training has assigned one. Success only on HTTP 200.
func (c *Client) GetPersonalVoice(
	ctx context.Context,
	creds Credentials,
	personalVoiceID string,
) PersonalVoiceResult {
	var result PersonalVoiceResult

	missing := creds.missingFields()
	if strings.TrimSpace(personalVoiceID) == "" {
		missing = append(missing, "personal_voice_id")
	}

	if len(missing) > 0 {
		result.Envelope = missingFieldsFailure(missing)

		return result
	}

	resp, err := c.roundTrip(ctx, smallCallTimeout, requestSpec{
		method:      http.MethodGet,
		creds:       creds,
		path:        "/customvoice/personalvoices/" + url.PathEscape(personalVoiceID),
		body:        nil,
		contentType: "",
	})
	if err != nil {
		result.Envelope = failure(err.Error())

		return result
	}

	if resp.statusCode != http.StatusOK {
		result.Envelope = providerFailure(
			"get personal voice failed",
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

// requestSpec describes one HTTP request to the Custom Voice API.
type requestSpec struct {
	method      string
	creds       Credentials
	path        string
	body        io.Reader
	contentType string
}

// response is the fully read reply to a requestSpec.
type response struct {
	statusCode int
	body       []byte
	header     http.Header
}

func (c *Client) endpoint(region string) string {
	if c.baseURL != "" {
		return c.baseURL
	}

	return fmt.Sprintf("https://%s.api.cognitive.microsoft.com", region)
}

// roundTrip issues the request with the given timeout and reads the whole
// response. Transport errors are returned for the caller to convert into a
// failure envelope.
func (c *Client) roundTrip(ctx context.Context, timeout time.Duration, spec requestSpec) (*response, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fullURL := c.endpoint(spec.creds.Region) + spec.path +
		"?" + apiVersionParam + "=" + url.QueryEscape(c.apiVersion)

	req, err := http.NewRequestWithContext(callCtx, spec.method, fullURL, spec.body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(headerSubscriptionKey, spec.creds.Key)

	if spec.contentType != "" {
		req.Header.Set(headerContentType, spec.contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to custom voice API failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read custom voice API response: %w", err)
	}

	return &response{
		statusCode: resp.StatusCode,
		body:       body,
		header:     resp.Header,
	}, nil
}

// parseOperationID extracts the operation id from the Operation-Id header
// value or, failing that, from the path segment following "operations" in the
// Operation-Location header value.
func parseOperationID(operationLocation, operationID string) string {
	if operationID != "" {
		return operationID
	}

	if operationLocation == "" {
		return ""
	}

	parsed, err := url.Parse(operationLocation)
	if err != nil {
		return ""
	}

	// Expected shape: /customvoice/operations/{id}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, segment := range segments {
		if segment == "operations" && i+1 < len(segments) {
			return segments[i+1]
		}
	}

	return ""
}
