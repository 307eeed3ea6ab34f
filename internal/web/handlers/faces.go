package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Pinkesh2905/FaceTrace/internal/cache"
	"github.com/Pinkesh2905/FaceTrace/internal/facematch"
	"github.com/Pinkesh2905/FaceTrace/internal/registration"
)

// EncodingCache is the part of the encoding cache the face endpoints use.
type EncodingCache interface {
	Get(tenantID string) *cache.Snapshot
	Refresh(ctx context.Context, tenantID string) error
}

// FacesHandler handles face registration and the encoding cache
type FacesHandler struct {
	registrar *registration.Registrar
	cache     EncodingCache
	logger    *slog.Logger
}

// NewFacesHandler creates a new faces handler
func NewFacesHandler(registrar *registration.Registrar, c EncodingCache, logger *slog.Logger) *FacesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FacesHandler{registrar: registrar, cache: c, logger: logger}
}

type registerEncodingRequest struct {
	Encoding []float64 `json:"encoding"`
}

// Register handles POST /api/v1/employees/{id}/face with a multipart "image"
// or a JSON encoding. Photos without exactly one face are rejected with 422.
func (h *FacesHandler) Register(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	employeeID := chi.URLParam(r, "id")

	var err error
	var resp any
	if isMultipart(r) {
		image, readErr := readImage(r)
		if readErr != nil {
			respondError(w, http.StatusBadRequest, readErr.Error())
			return
		}
		resp, err = h.registrar.Register(r.Context(), tenant, employeeID, image)
	} else {
		var req registerEncodingRequest
		if decodeErr := decodeJSON(w, r, &req); decodeErr != nil {
			respondError(w, http.StatusBadRequest, errInvalidRequestBody)
			return
		}
		resp, err = h.registrar.RegisterEncoding(r.Context(), tenant, employeeID, facematch.Encoding(req.Encoding))
	}
	if err != nil {
		h.respondRegistrationError(w, tenant, employeeID, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /api/v1/employees/{id}/face
func (h *FacesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	employeeID := chi.URLParam(r, "id")

	if err := h.registrar.Unregister(r.Context(), tenant, employeeID); err != nil {
		h.respondRegistrationError(w, tenant, employeeID, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"employee_id":     employeeID,
		"face_registered": false,
	})
}

func (h *FacesHandler) respondRegistrationError(w http.ResponseWriter, tenant, employeeID string, err error) {
	if registration.IsRegistrationError(err) {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("face registration failed", "tenant", tenant, "employee", sanitizeForLog(employeeID), "error", err)
		respondError(w, status, "face registration failed")
		return
	}
	respondError(w, status, err.Error())
}

// RefreshResponse reports the tenant snapshot after a refresh.
type RefreshResponse struct {
	TenantID  string    `json:"tenant_id"`
	Encodings int       `json:"encodings"`
	Indexed   bool      `json:"indexed"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// Refresh handles POST /api/v1/encodings/refresh
func (h *FacesHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	if err := h.cache.Refresh(r.Context(), tenant); err != nil {
		h.logger.Error("encoding refresh failed", "tenant", tenant, "error", err)
		if errors.Is(err, context.Canceled) {
			return
		}
		respondError(w, http.StatusInternalServerError, "encoding refresh failed")
		return
	}
	snap := h.cache.Get(tenant)
	respondJSON(w, http.StatusOK, RefreshResponse{
		TenantID:  tenant,
		Encodings: snap.Len(),
		Indexed:   snap.Indexed(),
		LoadedAt:  snap.LoadedAt,
	})
}
