package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
)

// IdentitiesHandler handles read-only identity endpoints
type IdentitiesHandler struct {
	config  *config.Config
	service *attendance.Service
}

// NewIdentitiesHandler creates a new identities handler
func NewIdentitiesHandler(cfg *config.Config, svc *attendance.Service) *IdentitiesHandler {
	return &IdentitiesHandler{
		config:  cfg,
		service: svc,
	}
}

// List returns enrolled identities, optionally filtered by ?q= on the name
func (h *IdentitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	identities, err := h.service.ListIdentities(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondServiceError(w, "list identities", err)
		return
	}

	response := make([]IdentityResponse, len(identities))
	for i := range identities {
		response[i] = identityToResponse(&identities[i])
	}
	respondJSON(w, http.StatusOK, response)
}

// Get returns a single identity
func (h *IdentitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := attendance.ValidateIdentityKey(key); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.service.GetIdentity(r.Context(), key)
	if err != nil {
		respondServiceError(w, "get identity", err)
		return
	}
	respondJSON(w, http.StatusOK, identityToResponse(id))
}
