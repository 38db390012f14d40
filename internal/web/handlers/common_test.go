package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/biometric"
	"github.com/kozaktomas/face-attendance/internal/database"
)

func TestRespondJSON_SetsStatusAndContentType(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		data       any
		wantBody   string
	}{
		{"OK", http.StatusOK, map[string]string{"status": "ok"}, "{\"status\":\"ok\"}\n"},
		{"Created", http.StatusCreated, map[string]string{}, "{}\n"},
		{"NilData", http.StatusNoContent, nil, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondJSON(recorder, tc.statusCode, tc.data)

			assertStatusCode(t, recorder, tc.statusCode)
			assertContentType(t, recorder, "application/json")
			if recorder.Body.String() != tc.wantBody {
				t.Errorf("expected body %q, got %q", tc.wantBody, recorder.Body.String())
			}
		})
	}
}

func TestRespondError_ContainsErrorKey(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondError(recorder, http.StatusBadRequest, "something went wrong")

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "something went wrong")
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("E1\r\nforged line"); got != "E1forged line" {
		t.Errorf("sanitizeForLog = %q", got)
	}
}

func TestHealthCheck_ReturnsOK(t *testing.T) {
	recorder := httptest.NewRecorder()
	HealthCheck(recorder, httptest.NewRequest("GET", "/api/v1/health", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var result map[string]string
	parseJSONResponse(t, recorder, &result)
	if result["status"] != "ok" {
		t.Errorf("expected status 'ok', got '%s'", result["status"])
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReadiness(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"ready", nil, http.StatusOK},
		{"store down", database.Unavailable("ping", errors.New("refused")), http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			Readiness(pingFunc(func(context.Context) error { return tc.err }))(recorder, httptest.NewRequest("GET", "/api/v1/ready", nil))
			assertStatusCode(t, recorder, tc.status)
		})
	}
}

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"decode", fmt.Errorf("decode: %w", &biometric.DecodeError{Reason: "missing comma"}), http.StatusBadRequest, ""},
		{"no face", &biometric.LivenessError{Reason: biometric.ReasonNoFace}, http.StatusBadRequest, biometric.ReasonNoFace},
		{"multi face", &biometric.LivenessError{Reason: biometric.ReasonMultipleFaces, Faces: 2}, http.StatusBadRequest, biometric.ReasonMultipleFaces},
		{"validation", &attendance.ValidationError{Field: "name", Reason: "must not be empty"}, http.StatusBadRequest, "invalid name: must not be empty"},
		{"invalid qr", fmt.Errorf("%w: code expired", attendance.ErrInvalidQR), http.StatusBadRequest, "invalid QR code: code expired"},
		{"no match", &biometric.NoMatchError{Candidates: 2}, http.StatusNotFound, "face not recognized"},
		{"unknown identity", fmt.Errorf("%w: %q", attendance.ErrUnknownIdentity, "E9"), http.StatusNotFound, ""},
		{"duplicate", fmt.Errorf("x: %w", database.ErrDuplicateKey), http.StatusConflict, ""},
		{"unavailable", database.Unavailable("list", errors.New("dial tcp: refused")), http.StatusServiceUnavailable, "identity store unavailable"},
		{"mismatch", &biometric.DimensionMismatchError{Want: 15, Got: 3}, http.StatusInternalServerError, "internal server error"},
		{"other", errors.New("secret detail"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondServiceError(recorder, "test", tc.err)

			assertStatusCode(t, recorder, tc.status)
			if tc.message != "" {
				assertJSONError(t, recorder, tc.message)
			}
		})
	}
}

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		ok      bool
		status  int
		message string
	}{
		{"valid", `{"name":"Ann","identity_key":"E1","face_image":"data:,x"}`, true, 0, ""},
		{"employee id alias", `{"name":"Ann","employee_id":"E1","face_image":"data:,x"}`, true, 0, ""},
		{"malformed json", `{"name":`, false, http.StatusBadRequest, errInvalidRequestBody},
		{"missing key", `{"name":"Ann","face_image":"data:,x"}`, false, http.StatusBadRequest, "identity_key is required"},
		{"missing image", `{"name":"Ann","identity_key":"E1"}`, false, http.StatusBadRequest, "face_image is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/v1/register", strings.NewReader(tc.body))

			var dst RegisterRequest
			if got := decodeRequest(recorder, req, &dst); got != tc.ok {
				t.Fatalf("decodeRequest = %v, want %v", got, tc.ok)
			}
			if tc.ok {
				if dst.key() != "E1" {
					t.Errorf("expected key E1, got %q", dst.key())
				}
				return
			}
			assertStatusCode(t, recorder, tc.status)
			assertJSONError(t, recorder, tc.message)
		})
	}
}

func TestDecodeRequest_TooLarge(t *testing.T) {
	body := `{"face_image":"` + strings.Repeat("A", maxBodyBytes+1) + `"}`
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/liveness", strings.NewReader(body))

	var dst LivenessRequest
	if decodeRequest(recorder, req, &dst) {
		t.Fatal("expected oversized body to be rejected")
	}
	assertStatusCode(t, recorder, http.StatusRequestEntityTooLarge)
}
