package handlers

import (
	"context"
	_ "embed"
	"encoding/json"
	"net/http"

	"github.com/koios/zigstar-flasher/pkg/models"
	"go.uber.org/zap"
)

//go:embed static/index.html
var indexHTML []byte

// DeviceController performs the device-side work behind /prepare and /flash
type DeviceController interface {
	Prepare(ctx context.Context, deviceIP string) bool
	Flash(ctx context.Context, req models.FlashRequest) bool
}

// FlashHandler handles HTTP requests for the flasher control page
type FlashHandler struct {
	controller DeviceController
	logger     *zap.Logger
}

// NewFlashHandler creates a new flash handler
func NewFlashHandler(controller DeviceController, logger *zap.Logger) *FlashHandler {
	return &FlashHandler{
		controller: controller,
		logger:     logger,
	}
}

// RegisterRoutes registers the control routes. "/" doubles as the catch-all, so every
// unknown path ends in handleIndex and gets a 404 there.
func (h *FlashHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", h.handleIndex)
	mux.HandleFunc("/prepare", h.handlePrepare)
	mux.HandleFunc("/flash", h.handleFlash)
}

// handleIndex handles GET / - serves the static control page
func (h *FlashHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || r.URL.Path != "/" {
		notFound(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(indexHTML)
}

// handlePrepare handles POST /prepare - switches the companion device into update mode
func (h *FlashHandler) handlePrepare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		notFound(w)
		return
	}

	values, err := parseFormBody(w, r)
	if err != nil {
		h.badRequest(w, "/prepare", err)
		return
	}

	req, err := decodePrepareRequest(values)
	if err != nil {
		h.badRequest(w, "/prepare", err)
		return
	}

	result := h.controller.Prepare(r.Context(), req.DeviceIP)

	h.logger.Info("Prepare request handled",
		zap.String("device_ip", req.DeviceIP),
		zap.Bool("success", result))
	h.writeJSON(w, http.StatusOK, models.OperationResponse{Success: result})
}

// handleFlash handles POST /flash - runs the flashing utility
func (h *FlashHandler) handleFlash(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		notFound(w)
		return
	}

	values, err := parseFormBody(w, r)
	if err != nil {
		h.badRequest(w, "/flash", err)
		return
	}

	req, err := decodeFlashRequest(values)
	if err != nil {
		h.badRequest(w, "/flash", err)
		return
	}

	result := h.controller.Flash(r.Context(), req)

	h.logger.Info("Flash request handled",
		zap.String("device_ip", req.DeviceIP),
		zap.String("firmware_file", req.FirmwareFile),
		zap.Bool("success", result))
	h.writeJSON(w, http.StatusOK, models.OperationResponse{Success: result})
}

func (h *FlashHandler) badRequest(w http.ResponseWriter, route string, err error) {
	h.logger.Warn("Rejected malformed request",
		zap.String("route", route),
		zap.Error(err))

	h.writeJSON(w, http.StatusBadRequest, models.OperationResponse{Success: false, Error: err.Error()})
}

func (h *FlashHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// notFound writes a 404 with an empty body
func notFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
}
