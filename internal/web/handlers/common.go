package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/biometric"
	"github.com/kozaktomas/face-attendance/internal/logger"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// maxBodyBytes bounds request bodies; base64 inflates the image limit by 4/3.
const maxBodyBytes = biometric.MaxPayloadBytes/3*4 + 64<<10

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeRequest reads a JSON body into dst and validates its struct tags.
// It writes the error response itself and reports whether to continue.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return false
	}
	if err := attendance.Validator().Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errInvalidRequestBody
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("%s is required", fe.Field())
	default:
		return fmt.Sprintf("invalid %s", fe.Field())
	}
}

// statusFor maps a service error class to an HTTP status.
func statusFor(class attendance.Class) int {
	switch class {
	case attendance.ClassClientError:
		return http.StatusBadRequest
	case attendance.ClassNotFound:
		return http.StatusNotFound
	case attendance.ClassConflict:
		return http.StatusConflict
	case attendance.ClassUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError logs err and writes the matching status. Details of
// unexpected failures stay in the log.
func respondServiceError(w http.ResponseWriter, op string, err error) {
	class := attendance.LogOutcome(op, err)
	status := statusFor(class)

	var message string
	var liveness *biometric.LivenessError
	switch {
	case errors.As(err, &liveness):
		message = liveness.Reason
	case errors.Is(err, biometric.ErrNoMatch):
		message = "face not recognized"
	case class == attendance.ClassUnavailable:
		message = "identity store unavailable"
	case class == attendance.ClassInternal:
		message = "internal server error"
	default:
		message = err.Error()
	}
	respondError(w, status, message)
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Readiness reports 503 while the store cannot be reached.
func Readiness(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			logger.Warning("readiness check failed", logger.LoggerOptions{Key: "error", Data: err})
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
