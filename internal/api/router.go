package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spherelog/spherelog/internal/api/recovery"
	"github.com/spherelog/spherelog/internal/health"
	"github.com/spherelog/spherelog/internal/reminder"
	"github.com/spherelog/spherelog/internal/services"
)

// NewRouter builds the HTTP router over the reminder services.
func NewRouter(
	templates *services.TemplateService,
	assignments *services.AssignmentService,
	sched *reminder.Scheduler,
	checker *health.ServiceHealthChecker,
	gatherer prometheus.Gatherer,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	healthHandler := NewHealthHandler(checker)
	templateHandler := NewTemplateHandler(templates)
	assignmentHandler := NewAssignmentHandler(assignments)
	schedulerHandler := NewSchedulerHandler(sched)

	// Health
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	// Templates
	router.HandleFunc("/api/templates", templateHandler.ListTemplates).Methods("GET")
	router.HandleFunc("/api/templates", templateHandler.CreateTemplate).Methods("POST")
	router.HandleFunc("/api/templates/{templateId}", templateHandler.GetTemplate).Methods("GET")
	router.HandleFunc("/api/templates/{templateId}", templateHandler.UpdateTemplate).Methods("PUT")
	router.HandleFunc("/api/templates/{templateId}", templateHandler.DeleteTemplate).Methods("DELETE")

	// Assignments
	router.HandleFunc("/api/assignments", assignmentHandler.ListAssignments).Methods("GET")
	router.HandleFunc("/api/assignments/{sphere}", assignmentHandler.GetAssignment).Methods("GET")
	router.HandleFunc("/api/assignments/{sphere}", assignmentHandler.SetDefault).Methods("PUT")
	router.HandleFunc("/api/assignments/{sphere}/entities/{entityId}", assignmentHandler.SetChoice).Methods("PUT")
	router.HandleFunc("/api/assignments/{sphere}/entities/{entityId}", assignmentHandler.RemoveChoice).Methods("DELETE")

	// Scheduler
	router.HandleFunc("/api/scheduler/refresh", schedulerHandler.Refresh).Methods("POST")
	router.HandleFunc("/api/scheduler/status", schedulerHandler.Status).Methods("GET")

	// Metrics
	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return router
}
