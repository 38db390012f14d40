package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
)

// AttendanceHandler handles enrollment, check-in and liveness endpoints
type AttendanceHandler struct {
	config  *config.Config
	service *attendance.Service
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(cfg *config.Config, svc *attendance.Service) *AttendanceHandler {
	return &AttendanceHandler{
		config:  cfg,
		service: svc,
	}
}

// Register enrolls a new identity from a face image
func (h *AttendanceHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	id, err := h.service.Register(r.Context(), attendance.RegisterInput{
		Name:        req.Name,
		IdentityKey: req.key(),
		FaceImage:   req.FaceImage,
	})
	if err != nil {
		respondServiceError(w, "register "+sanitizeForLog(req.key()), err)
		return
	}

	respondJSON(w, http.StatusCreated, RegisterResponse{
		ID:          id.ID,
		Name:        id.DisplayName,
		IdentityKey: id.IdentityKey,
	})
}

// MarkFace records attendance for the person in the face image
func (h *AttendanceHandler) MarkFace(w http.ResponseWriter, r *http.Request) {
	var req FaceAttendanceRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	checkIn, err := h.service.MarkByFace(r.Context(), attendance.FaceInput{
		FaceImage: req.FaceImage,
		Location:  req.Location.toLocation(),
	})
	if err != nil {
		respondServiceError(w, "mark attendance by face", err)
		return
	}

	respondJSON(w, http.StatusOK, FaceAttendanceResponse{
		AttendanceID: checkIn.Event.ID,
		EmployeeName: checkIn.Identity.DisplayName,
		EmployeeID:   checkIn.Identity.IdentityKey,
		Confidence:   checkIn.Event.Confidence,
		Score:        checkIn.Event.Score,
		Timestamp:    checkIn.Event.Timestamp,
	})
}

// MarkQR records attendance from a scanned QR payload
func (h *AttendanceHandler) MarkQR(w http.ResponseWriter, r *http.Request) {
	var req QRAttendanceRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	checkIn, err := h.service.MarkByQR(r.Context(), attendance.QRInput{
		Payload: attendance.QRPayload{
			EmployeeID: req.QRData.EmployeeID,
			Timestamp:  string(req.QRData.Timestamp),
		},
		Location: req.Location.toLocation(),
	})
	if err != nil {
		respondServiceError(w, "mark attendance by qr", err)
		return
	}

	respondJSON(w, http.StatusOK, QRAttendanceResponse{
		AttendanceID: checkIn.Event.ID,
		EmployeeName: checkIn.Identity.DisplayName,
		EmployeeID:   checkIn.Identity.IdentityKey,
		Timestamp:    checkIn.Event.Timestamp,
	})
}

// Liveness reports whether a capture would pass the liveness checks
func (h *AttendanceHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	var req LivenessRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	verdict, err := h.service.CheckLiveness(r.Context(), req.FaceImage)
	if err != nil {
		respondServiceError(w, "check liveness", err)
		return
	}

	respondJSON(w, http.StatusOK, LivenessResponse{
		IsLive:    verdict.Live,
		Reason:    verdict.Reason,
		Sharpness: verdict.Sharpness,
		Faces:     verdict.Faces,
	})
}
