package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/spherelog/spherelog/internal/api/respond"
	"github.com/spherelog/spherelog/internal/model"
	"github.com/spherelog/spherelog/internal/services"
)

// AssignmentHandler serves the per-sphere assignment map.
type AssignmentHandler struct {
	svc *services.AssignmentService
}

func NewAssignmentHandler(svc *services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{svc: svc}
}

// ListAssignments GET /api/assignments
func (h *AssignmentHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, h.svc.Map())
}

// GetAssignment GET /api/assignments/{sphere}
func (h *AssignmentHandler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	sphere := model.Sphere(mux.Vars(r)["sphere"])
	if !sphere.Valid() {
		respond.WriteBadRequest(w, "unknown sphere")
		return
	}
	asg := h.svc.Assignment(sphere)
	respond.WriteJSON(w, http.StatusOK, asg)
}

// SetDefault PUT /api/assignments/{sphere}
func (h *AssignmentHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	sphere := model.Sphere(mux.Vars(r)["sphere"])
	var req struct {
		DefaultTemplateID *string `json:"defaultTemplateId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := h.svc.SetDefault(r.Context(), sphere, req.DefaultTemplateID); err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, h.svc.Assignment(sphere))
}

// SetChoice PUT /api/assignments/{sphere}/entities/{entityId}
func (h *AssignmentHandler) SetChoice(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sphere := model.Sphere(vars["sphere"])
	var choice model.EntityChoice
	if err := json.NewDecoder(r.Body).Decode(&choice); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := h.svc.SetChoice(r.Context(), sphere, vars["entityId"], choice); err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, h.svc.Assignment(sphere))
}

// RemoveChoice DELETE /api/assignments/{sphere}/entities/{entityId}
func (h *AssignmentHandler) RemoveChoice(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sphere := model.Sphere(vars["sphere"])
	if err := h.svc.RemoveChoice(r.Context(), sphere, vars["entityId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
