package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hmcoe/skillprofile/internal/admin"
	"github.com/hmcoe/skillprofile/internal/config"
	"github.com/hmcoe/skillprofile/internal/state"
	"github.com/hmcoe/skillprofile/pkg/metrics"
	"github.com/hmcoe/skillprofile/pkg/profiling"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, client *profiling.Client, store *state.Store) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(MetricsMiddleware)

	// Create handlers
	systemHandler := &SystemHandler{}
	if store != nil {
		systemHandler.Store = store
	}
	formHandler := NewFormHandler(client, store, cfg.SearchDebounce)
	adminHandler := NewAdminHandler(admin.NewSession(client, store, cfg.PerPage, cfg.ExportDir))
	viewHandler := NewViewHandler(client)

	// System endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})).Methods("GET")
	r.PathPrefix("/static/").Handler(http.FileServer(http.FS(staticFS))).Methods("GET")

	// Submission form
	r.HandleFunc("/", formHandler.Page).Methods("GET")
	r.HandleFunc("/profile", formHandler.State).Methods("GET")
	r.HandleFunc("/profile/load", formHandler.Load).Methods("POST")
	r.HandleFunc("/profile/field", formHandler.SetField).Methods("POST")
	r.HandleFunc("/profile/industries", formHandler.SetIndustries).Methods("POST")
	r.HandleFunc("/profile/photo", formHandler.SetPhoto).Methods("POST")
	r.HandleFunc("/profile/section", formHandler.SetSection).Methods("POST")
	r.HandleFunc("/profile/submit", formHandler.Submit).Methods("POST")
	r.HandleFunc("/profile/reset", formHandler.Reset).Methods("POST")
	r.HandleFunc("/profile/{collection}", formHandler.AddRow).Methods("POST")
	r.HandleFunc("/profile/{collection}/{index}", formHandler.UpdateRow).Methods("PATCH")
	r.HandleFunc("/profile/{collection}/{index}", formHandler.RemoveRow).Methods("DELETE")

	// Debounced skill search
	r.HandleFunc("/skills", formHandler.Search).Methods("GET")

	// Admin dashboard
	r.HandleFunc("/hmcoe-admin", adminHandler.Page).Methods("GET")
	r.HandleFunc("/hmcoe-admin/login", adminHandler.Login).Methods("POST")
	r.HandleFunc("/hmcoe-admin/logout", adminHandler.Logout).Methods("POST")
	r.HandleFunc("/hmcoe-admin/profiles", adminHandler.List).Methods("GET")
	r.HandleFunc("/hmcoe-admin/profiles/{id}/select", adminHandler.Select).Methods("POST")
	r.HandleFunc("/hmcoe-admin/profiles/deselect", adminHandler.Deselect).Methods("POST")
	r.HandleFunc("/hmcoe-admin/profiles/{id}", adminHandler.Delete).Methods("DELETE")
	r.HandleFunc("/hmcoe-admin/profiles/{id}/approval", adminHandler.SetApproval).Methods("PATCH")
	r.HandleFunc("/hmcoe-admin/export/{format}", adminHandler.Export).Methods("GET")

	// Read-only viewer
	r.HandleFunc("/view", viewHandler.Page).Methods("GET")

	return r
}
