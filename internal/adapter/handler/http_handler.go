package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/material-scanner/internal/adapter/decoder"
	"github.com/rl1809/material-scanner/internal/adapter/export"
	"github.com/rl1809/material-scanner/internal/core/domain"
	"github.com/rl1809/material-scanner/internal/core/service"
	"github.com/rl1809/material-scanner/internal/port"
)

type HTTPHandler struct {
	controller *service.Controller
	push       *decoder.PushDecoder
	exporter   port.InventoryExporter
	capture    domain.CaptureConfig
	validate   *validator.Validate
	log        *logrus.Entry
}

type DecodedHTTPRequest struct {
	Text string `json:"text" validate:"required"`
}

type DecodeErrorHTTPRequest struct {
	Message string `json:"message"`
}

type CameraErrorHTTPRequest struct {
	Message string `json:"message" validate:"required"`
}

type ClearHTTPRequest struct {
	Confirm bool `json:"confirm" validate:"required"`
}

type MutationHTTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ValidateHTTPResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Committed int    `json:"committed"`
}

type StateHTTPResponse struct {
	Mode         domain.Mode       `json:"mode"`
	Buffer       []domain.Material `json:"buffer"`
	Inventory    []domain.Material `json:"inventory"`
	CanValidate  bool              `json:"can_validate"`
	DecoderError string            `json:"decoder_error,omitempty"`
}

type InventoryHTTPResponse struct {
	Count int               `json:"count"`
	Items []domain.Material `json:"items"`
}

// NewHTTPHandler wires the user-facing controls. push may be nil when
// decode events arrive through another decoder; the decode endpoints then
// answer 409.
func NewHTTPHandler(controller *service.Controller, push *decoder.PushDecoder, exporter port.InventoryExporter, capture domain.CaptureConfig, log *logrus.Entry) *HTTPHandler {
	return &HTTPHandler{
		controller: controller,
		push:       push,
		exporter:   exporter,
		capture:    capture,
		validate:   validator.New(),
		log:        log,
	}
}

func (h *HTTPHandler) Routes(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", h.State).Methods(http.MethodGet)

	api.HandleFunc("/scan/config", h.CaptureConfig).Methods(http.MethodGet)
	api.HandleFunc("/scan/start", h.StartScan).Methods(http.MethodPost)
	api.HandleFunc("/scan/cancel", h.CancelScan).Methods(http.MethodPost)
	api.HandleFunc("/scan/validate", h.ValidateScan).Methods(http.MethodPost)
	api.HandleFunc("/scan/retry", h.RetryScan).Methods(http.MethodPost)
	api.HandleFunc("/scan/items/{id}", h.RemoveScanned).Methods(http.MethodDelete)
	api.HandleFunc("/scan/decoded", h.Decoded).Methods(http.MethodPost)
	api.HandleFunc("/scan/decode-error", h.DecodeError).Methods(http.MethodPost)
	api.HandleFunc("/scan/camera-error", h.CameraError).Methods(http.MethodPost)

	api.HandleFunc("/inventory", h.Inventory).Methods(http.MethodGet)
	api.HandleFunc("/inventory/export", h.ExportInventory).Methods(http.MethodGet)
	api.HandleFunc("/inventory/clear", h.ClearInventory).Methods(http.MethodPost)
	api.HandleFunc("/inventory/{id}", h.RemoveItem).Methods(http.MethodDelete)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) State(w http.ResponseWriter, r *http.Request) {
	st := h.controller.State()
	resp := StateHTTPResponse{
		Mode:        st.Mode,
		Buffer:      st.Buffer,
		Inventory:   st.Inventory,
		CanValidate: st.Mode == domain.ModeScanning && len(st.Buffer) > 0,
	}
	if st.DecoderErr != nil {
		resp.DecoderError = st.DecoderErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) CaptureConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.capture)
}

func (h *HTTPHandler) StartScan(w http.ResponseWriter, r *http.Request) {
	err := h.controller.StartScan(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		message := "internal error"

		if errors.Is(err, service.ErrAlreadyScanning) {
			status = http.StatusConflict
			message = "scan already in progress"
		} else if errors.Is(err, service.ErrDecoderUnavailable) {
			status = http.StatusServiceUnavailable
			message = "camera unavailable"
		}

		writeJSON(w, status, MutationHTTPResponse{Success: false, Message: message})
		return
	}

	writeJSON(w, http.StatusOK, MutationHTTPResponse{Success: true, Message: "scan started"})
}

func (h *HTTPHandler) CancelScan(w http.ResponseWriter, r *http.Request) {
	h.controller.Cancel()
	writeJSON(w, http.StatusOK, MutationHTTPResponse{Success: true, Message: "scan cancelled"})
}

func (h *HTTPHandler) ValidateScan(w http.ResponseWriter, r *http.Request) {
	n, err := h.controller.ValidateNonEmpty()
	if err != nil {
		status := http.StatusInternalServerError
		message := "internal error"

		if errors.Is(err, service.ErrNotScanning) {
			status = http.StatusConflict
			message = "no scan in progress"
		} else if errors.Is(err, service.ErrNothingToValidate) {
			status = http.StatusConflict
			message = "nothing to validate"
		}

		writeJSON(w, status, ValidateHTTPResponse{Success: false, Message: message})
		return
	}

	writeJSON(w, http.StatusOK, ValidateHTTPResponse{Success: true, Message: "materials added", Committed: n})
}

func (h *HTTPHandler) RetryScan(w http.ResponseWriter, r *http.Request) {
	err := h.controller.Retry(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		message := "internal error"

		if errors.Is(err, service.ErrNotScanning) {
			status = http.StatusConflict
			message = "no scan in progress"
		} else if errors.Is(err, service.ErrDecoderUnavailable) {
			status = http.StatusServiceUnavailable
			message = "camera unavailable"
		}

		writeJSON(w, status, MutationHTTPResponse{Success: false, Message: message})
		return
	}

	writeJSON(w, http.StatusOK, MutationHTTPResponse{Success: true, Message: "camera ready"})
}

func (h *HTTPHandler) RemoveScanned(w http.ResponseWriter, r *http.Request) {
	if !h.controller.RemoveScanned(mux.Vars(r)["id"]) {
		writeJSON(w, http.StatusNotFound, MutationHTTPResponse{Success: false, Message: "material not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) Decoded(w http.ResponseWriter, r *http.Request) {
	var req DecodedHTTPRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.forward(w, r, domain.DecodeEvent{Text: req.Text})
}

func (h *HTTPHandler) DecodeError(w http.ResponseWriter, r *http.Request) {
	var req DecodeErrorHTTPRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Message == "" {
		req.Message = "decode error"
	}
	h.forward(w, r, domain.DecodeEvent{Err: req.Message})
}

// CameraError is posted by the front end when the camera itself fails
// (permission denied, device lost). Unlike a decode error it ends the
// decode stream, leaving the scan waiting for a retry.
func (h *HTTPHandler) CameraError(w http.ResponseWriter, r *http.Request) {
	var req CameraErrorHTTPRequest
	if !h.decode(w, r, &req) {
		return
	}
	if h.push == nil {
		writeJSON(w, http.StatusConflict, MutationHTTPResponse{Success: false, Message: "decode events are not accepted over http"})
		return
	}

	if err := h.push.Fail(); err != nil {
		if errors.Is(err, decoder.ErrNotRunning) {
			writeJSON(w, http.StatusConflict, MutationHTTPResponse{Success: false, Message: "no scan in progress"})
			return
		}
		h.log.WithError(err).Error("failed to report camera error")
		writeJSON(w, http.StatusInternalServerError, MutationHTTPResponse{Success: false, Message: "internal error"})
		return
	}

	h.log.WithField("reason", req.Message).Warn("camera lost")
	writeJSON(w, http.StatusAccepted, MutationHTTPResponse{Success: true, Message: "camera released"})
}

func (h *HTTPHandler) forward(w http.ResponseWriter, r *http.Request, ev domain.DecodeEvent) {
	if h.push == nil {
		writeJSON(w, http.StatusConflict, MutationHTTPResponse{Success: false, Message: "decode events are not accepted over http"})
		return
	}

	if err := h.push.Push(r.Context(), ev); err != nil {
		if errors.Is(err, decoder.ErrNotRunning) {
			writeJSON(w, http.StatusConflict, MutationHTTPResponse{Success: false, Message: "no scan in progress"})
			return
		}
		h.log.WithError(err).Warn("failed to forward decode event")
		writeJSON(w, http.StatusServiceUnavailable, MutationHTTPResponse{Success: false, Message: "scanner busy"})
		return
	}

	writeJSON(w, http.StatusAccepted, MutationHTTPResponse{Success: true, Message: "accepted"})
}

func (h *HTTPHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	items := h.controller.Inventory().Items()
	writeJSON(w, http.StatusOK, InventoryHTTPResponse{Count: len(items), Items: items})
}

func (h *HTTPHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if !h.controller.RemoveItem(mux.Vars(r)["id"]) {
		writeJSON(w, http.StatusNotFound, MutationHTTPResponse{Success: false, Message: "material not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) ClearInventory(w http.ResponseWriter, r *http.Request) {
	var req ClearHTTPRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.controller.ClearInventory()
	writeJSON(w, http.StatusOK, MutationHTTPResponse{Success: true, Message: "inventory cleared"})
}

func (h *HTTPHandler) ExportInventory(w http.ResponseWriter, r *http.Request) {
	items := h.controller.Inventory().Items()
	filename := "inventory-" + time.Now().Format("20060102-150405") + ".xlsx"

	var buf bytes.Buffer
	if err := h.exporter.Write(&buf, items); err != nil {
		h.log.WithError(err).Error("inventory export failed")
		writeJSON(w, http.StatusInternalServerError, MutationHTTPResponse{Success: false, Message: "export failed"})
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// decode reads and validates a JSON body, answering 400 itself on failure.
func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, MutationHTTPResponse{Success: false, Message: "invalid request body"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, MutationHTTPResponse{Success: false, Message: "missing required fields"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
