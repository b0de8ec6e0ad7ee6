package lingopipe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient talks to the collaborator session service: session record CRUD
// and post-session review artifacts. The realtime core only uses it to
// bootstrap a session id before opening the transport and to hand off at
// session end.
type APIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewAPIClient(baseURL, apiKey string) *APIClient {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &APIClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 2,
			},
		},
	}
}

func (ac *APIClient) request(ctx context.Context, method, endpoint string, body interface{}) ([]byte, *Error) {
	url := ac.baseURL + endpoint
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, WrapError(err, ErrCodeJSONParse)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, WrapError(err, ErrCodeAPIRequest)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "lingopipe-sdk-go/1.0")
	if ac.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+ac.apiKey)
	}

	resp, err := ac.httpClient.Do(req)
	if err != nil {
		return nil, WrapError(err, ErrCodeAPIRequest)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(err, ErrCodeAPIRequest)
	}

	if resp.StatusCode >= 400 {
		errMsg := string(respBody)
		if errMsg == "" {
			errMsg = http.StatusText(resp.StatusCode)
		}
		return nil, NewError(errMsg, ErrCodeAPIRequest).AddDetail("status_code", resp.StatusCode)
	}

	return respBody, nil
}

func decodeInto[T any](data []byte) (T, *Error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return out, WrapError(err, ErrCodeJSONParse)
	}
	return out, nil
}

// Session operations

func (ac *APIClient) CreateSession(ctx context.Context, cfg SessionConfig) (*Session, *Error) {
	resp, err := ac.request(ctx, http.MethodPost, "/api/v1/sessions", cfg)
	if err != nil {
		return nil, err
	}
	return decodeInto[*Session](resp)
}

func (ac *APIClient) GetSession(ctx context.Context, id string) (*Session, *Error) {
	resp, err := ac.request(ctx, http.MethodGet, "/api/v1/sessions/"+id, nil)
	if err != nil {
		return nil, err
	}
	return decodeInto[*Session](resp)
}

func (ac *APIClient) UpdateSession(ctx context.Context, id string, update SessionUpdate) (*Session, *Error) {
	resp, err := ac.request(ctx, http.MethodPut, "/api/v1/sessions/"+id, update)
	if err != nil {
		return nil, err
	}
	return decodeInto[*Session](resp)
}

func (ac *APIClient) ListSessions(ctx context.Context) ([]Session, *Error) {
	resp, err := ac.request(ctx, http.MethodGet, "/api/v1/sessions", nil)
	if err != nil {
		return nil, err
	}
	return decodeInto[[]Session](resp)
}

// Voices

func (ac *APIClient) Voices(ctx context.Context) ([]Voice, *Error) {
	resp, err := ac.request(ctx, http.MethodGet, "/api/v1/voices", nil)
	if err != nil {
		return nil, err
	}
	return decodeInto[[]Voice](resp)
}

// Review artifacts, keyed by session id. Generate* asks the service to
// build the artifact; Get* fetches a previously built one.

func (ac *APIClient) GenerateSummary(ctx context.Context, id string) (*LessonSummary, *Error) {
	resp, err := ac.request(ctx, http.MethodPost, fmt.Sprintf("/api/v1/sessions/%s/summary", id), nil)
	if err != nil {
		return nil, err
	}
	return decodeInto[*LessonSummary](resp)
}

func (ac *APIClient) GetSummary(ctx context.Context, id string) (*LessonSummary, *Error) {
	resp, err := ac.request(ctx, http.MethodGet, fmt.Sprintf("/api/v1/sessions/%s/summary", id), nil)
	if err != nil {
		return nil, err
	}
	return decodeInto[*LessonSummary](resp)
}

func (ac *APIClient) GetVocabulary(ctx context.Context, id string) ([]VocabItem, *Error) {
	resp, err := ac.request(ctx, http.MethodGet, fmt.Sprintf("/api/v1/sessions/%s/vocab", id), nil)
	if err != nil {
		return nil, err
	}
	return decodeInto[[]VocabItem](resp)
}

func (ac *APIClient) GetFlashcards(ctx context.Context, id string) ([]Flashcard, *Error) {
	resp, err := ac.request(ctx, http.MethodGet, fmt.Sprintf("/api/v1/sessions/%s/flashcards", id), nil)
	if err != nil {
		return nil, err
	}
	return decodeInto[[]Flashcard](resp)
}

// GetSegments fetches the server-side transcript of a completed session.
func (ac *APIClient) GetSegments(ctx context.Context, id string) ([]TranscriptSegment, *Error) {
	resp, err := ac.request(ctx, http.MethodGet, fmt.Sprintf("/api/v1/sessions/%s/segments", id), nil)
	if err != nil {
		return nil, err
	}
	return decodeInto[[]TranscriptSegment](resp)
}
