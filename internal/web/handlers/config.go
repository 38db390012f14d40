package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/biometric"
	"github.com/kozaktomas/face-attendance/internal/config"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config   *config.Config
	strategy *biometric.Strategy
	backend  string
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config, strategy *biometric.Strategy, backend string) *ConfigHandler {
	return &ConfigHandler{
		config:   cfg,
		strategy: strategy,
		backend:  backend,
	}
}

// ConfigResponse describes the active matching setup. Connection strings
// are never included.
type ConfigResponse struct {
	Strategy      string  `json:"strategy"`
	Metric        string  `json:"metric"`
	Threshold     float64 `json:"threshold"`
	Dim           int     `json:"dim"`
	Resolver      string  `json:"resolver"`
	Detector      string  `json:"detector"`
	Store         string  `json:"store"`
	BlurThreshold float64 `json:"blur_threshold"`
	QRExpiryMins  int     `json:"qr_expiry_minutes"`
}

// Get returns the active configuration
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ConfigResponse{
		Strategy:      h.strategy.Name(),
		Metric:        h.strategy.Metric.Name(),
		Threshold:     h.strategy.Threshold,
		Dim:           h.strategy.Dim(),
		Resolver:      h.config.Face.Resolver,
		Detector:      h.config.Detector.Backend,
		Store:         h.backend,
		BlurThreshold: h.config.Face.BlurThreshold,
		QRExpiryMins:  h.config.QR.ExpiryMinutes,
	})
}
