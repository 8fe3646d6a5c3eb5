package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/spherelog/spherelog/internal/api/respond"
	"github.com/spherelog/spherelog/internal/model"
	"github.com/spherelog/spherelog/internal/services"
)

// TemplateHandler serves reminder template CRUD.
type TemplateHandler struct {
	svc *services.TemplateService
}

func NewTemplateHandler(svc *services.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

// ListTemplates GET /api/templates
func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, h.svc.List())
}

// GetTemplate GET /api/templates/{templateId}
func (h *TemplateHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["templateId"]
	tpl, ok := h.svc.TemplateByID(id)
	if !ok {
		respond.WriteNotFound(w, "template not found")
		return
	}
	respond.WriteJSON(w, http.StatusOK, tpl)
}

// CreateTemplate POST /api/templates
func (h *TemplateHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req model.Template
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.svc.Add(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// UpdateTemplate PUT /api/templates/{templateId}
func (h *TemplateHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req model.Template
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	req.ID = mux.Vars(r)["templateId"]
	if err := h.svc.Update(r.Context(), req); err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, req)
}

// DeleteTemplate DELETE /api/templates/{templateId}
func (h *TemplateHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), mux.Vars(r)["templateId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError maps domain errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case model.IsValidationError(err):
		respond.WriteBadRequest(w, err.Error())
	case model.IsNotFoundError(err):
		respond.WriteNotFound(w, err.Error())
	case model.IsConflictError(err):
		respond.WriteError(w, http.StatusConflict, err.Error())
	default:
		respond.WriteInternalError(w, err.Error())
	}
}
