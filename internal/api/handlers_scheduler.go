package api

import (
	"net/http"

	"github.com/spherelog/spherelog/internal/api/respond"
	"github.com/spherelog/spherelog/internal/reminder"
)

// SchedulerHandler exposes manual refresh and status.
type SchedulerHandler struct {
	sched *reminder.Scheduler
}

func NewSchedulerHandler(sched *reminder.Scheduler) *SchedulerHandler {
	return &SchedulerHandler{sched: sched}
}

// Refresh POST /api/scheduler/refresh?force=true
func (h *SchedulerHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	if err := h.sched.Refresh(r.Context(), force); err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, h.sched.Status())
}

// Status GET /api/scheduler/status
func (h *SchedulerHandler) Status(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, h.sched.Status())
}
