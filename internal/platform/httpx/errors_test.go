package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pixelfolio/pixelfolio/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{shared.ErrValidation, http.StatusBadRequest},
		{shared.ErrDuplicateEmail, http.StatusBadRequest},
		{shared.ErrInvalidRole, http.StatusBadRequest},
		{shared.ErrAlreadyPurchased, http.StatusBadRequest},
		{shared.ErrOwnPost, http.StatusBadRequest},
		{shared.ErrInvalidCredentials, http.StatusUnauthorized},
		{shared.ErrUnauthenticated, http.StatusUnauthorized},
		{shared.ErrInvalidToken, http.StatusUnauthorized},
		{shared.ErrUnknownAccount, http.StatusUnauthorized},
		{shared.ErrSuspended, http.StatusForbidden},
		{shared.ErrForbidden, http.StatusForbidden},
		{shared.ErrSelfDemotion, http.StatusForbidden},
		{shared.ErrSelfDeletion, http.StatusForbidden},
		{shared.ErrNotFound, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		res := httptest.NewRecorder()
		RespondError(res, tc.err)
		if res.Code != tc.status {
			t.Errorf("RespondError(%v) status = %d, want %d", tc.err, res.Code, tc.status)
		}
	}
}

func TestRespondErrorEnvelope(t *testing.T) {
	res := httptest.NewRecorder()
	RespondError(res, shared.ErrNotFound)

	var body map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] != false {
		t.Fatalf("success = %v, want false", body["success"])
	}
	if body["msg"] == "" || body["msg"] == nil {
		t.Fatal("failure envelope must carry a message")
	}
	if ct := res.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
}

// Token-level failures must not be distinguishable from a missing credential.
func TestRespondErrorCollapsesAuthDetail(t *testing.T) {
	messages := make(map[string]bool)
	for _, err := range []error{shared.ErrUnauthenticated, shared.ErrInvalidToken, shared.ErrUnknownAccount} {
		res := httptest.NewRecorder()
		RespondError(res, err)
		var body map[string]any
		if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		messages[body["msg"].(string)] = true
	}
	if len(messages) != 1 {
		t.Fatalf("auth failures leak distinct messages: %v", messages)
	}
}

// Internal errors must not leak their text to the client.
func TestRespondErrorHidesInternalDetail(t *testing.T) {
	res := httptest.NewRecorder()
	RespondError(res, errors.New("pq: connection refused"))

	if got := res.Body.String(); got == "" || len(got) > 0 && (res.Code != http.StatusInternalServerError) {
		t.Fatalf("unexpected response: %d %s", res.Code, got)
	}
	var body map[string]any
	_ = json.Unmarshal(res.Body.Bytes(), &body)
	if body["msg"] != "unexpected error" {
		t.Fatalf("msg = %v, must be generic", body["msg"])
	}
}

func TestSuccessMergesPayload(t *testing.T) {
	res := httptest.NewRecorder()
	Success(res, http.StatusCreated, "created", Envelope{"id": 7})

	var body map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] != true || body["msg"] != "created" || body["id"] != float64(7) {
		t.Fatalf("unexpected envelope: %v", body)
	}
}
