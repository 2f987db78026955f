package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Remote talks to the chat service over HTTP with a bearer token. All §6
// operations map 1:1 onto /api/chat routes; transport failures are wrapped
// as ErrBackendUnavailable so the poll loop can tell them apart from
// application-level refusals.
type Remote struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewRemote builds a remote backend for the given base URL and token.
func NewRemote(baseURL, token string) *Remote {
	return &Remote{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// APIError is a non-2xx answer from the service, carrying the decoded error
// message when one was provided.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("chat api: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("chat api: status %d", e.Status)
}

func (r *Remote) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrBackendUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: %s %s: status %d", ErrBackendUnavailable, method, path, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrBackendUnavailable, path, err)
	}
	return nil
}

func (r *Remote) RequestPairing(ctx context.Context) (PairingUpdate, error) {
	var update PairingUpdate
	err := r.do(ctx, http.MethodPost, "/api/chat/start-session", nil, &update)
	return update, err
}

func (r *Remote) SessionStatus(ctx context.Context) (PairingUpdate, error) {
	var update PairingUpdate
	err := r.do(ctx, http.MethodGet, "/api/chat/session-status", nil, &update)
	return update, err
}

func (r *Remote) EndSession(ctx context.Context) error {
	return r.do(ctx, http.MethodPost, "/api/chat/end-session", nil, nil)
}

func (r *Remote) ListReconnectRequests(ctx context.Context) ([]ReconnectRequest, error) {
	var payload struct {
		Requests []ReconnectRequest `json:"requests"`
	}
	if err := r.do(ctx, http.MethodGet, "/api/chat/get-reconnect-requests", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Requests, nil
}

func (r *Remote) SubmitReconnectRequest(ctx context.Context, targetID string) (string, error) {
	body := map[string]string{"target_user_id": targetID}
	var payload struct {
		RequestID string `json:"request_id"`
	}
	if err := r.do(ctx, http.MethodPost, "/api/chat/request-reconnect", body, &payload); err != nil {
		return "", err
	}
	return payload.RequestID, nil
}

func (r *Remote) ResolveReconnectRequest(ctx context.Context, requestID string, accept bool) error {
	response := "decline"
	if accept {
		response = "accept"
	}
	body := map[string]string{"request_id": requestID, "response": response}
	return r.do(ctx, http.MethodPost, "/api/chat/respond-reconnect", body, nil)
}

func (r *Remote) ListMetUsers(ctx context.Context) ([]MetUserRecord, error) {
	var payload struct {
		MetUsers []MetUserRecord `json:"met_users"`
	}
	if err := r.do(ctx, http.MethodGet, "/api/chat/met-users", nil, &payload); err != nil {
		return nil, err
	}
	return payload.MetUsers, nil
}

func (r *Remote) StartDirectChat(ctx context.Context, targetID string) (Partner, error) {
	body := map[string]string{"target_user_id": targetID}
	var payload struct {
		Success bool     `json:"success"`
		Partner *Partner `json:"partner"`
	}
	if err := r.do(ctx, http.MethodPost, "/api/chat/start-direct-chat", body, &payload); err != nil {
		return Partner{}, err
	}
	if payload.Partner == nil {
		return Partner{}, fmt.Errorf("%w: start-direct-chat: missing partner", ErrBackendUnavailable)
	}
	return *payload.Partner, nil
}

func (r *Remote) ReportParticipant(ctx context.Context, partnerID, reason, description string) error {
	body := map[string]string{
		"reported_user_id": partnerID,
		"reason":           reason,
		"description":      description,
	}
	return r.do(ctx, http.MethodPost, "/api/chat/report", body, nil)
}

func (r *Remote) Stats(ctx context.Context) (ChatStats, error) {
	var stats ChatStats
	err := r.do(ctx, http.MethodGet, "/api/chat/stats", nil, &stats)
	return stats, err
}
