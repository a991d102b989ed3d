// -----------------------------------------------------------------------
// Last Modified: Thursday, 20th August 2026 8:47:33 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Service info (exact "/" only; the mux routes every unmatched path here)
	mux.HandleFunc("/", s.app.APIHandler.InfoHandler)

	// WebSocket route (run lifecycle event stream)
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Scrape submission
	mux.HandleFunc("/api/scrape", func(w http.ResponseWriter, r *http.Request) {
		RouteByMethod(w, r, MethodRouter{
			http.MethodPost: s.app.ScrapeHandler.SubmitHandler,
		})
	})
	mux.HandleFunc("/api/scrape/wait", func(w http.ResponseWriter, r *http.Request) {
		RouteByMethod(w, r, MethodRouter{
			http.MethodPost: s.app.ScrapeHandler.WaitHandler,
		})
	})

	// API routes - Run registry
	mux.HandleFunc("/api/runs", s.app.RunsHandler.ListRunsHandler)
	mux.HandleFunc("/api/runs/", s.app.RunsHandler.GetRunHandler) // GET /{id}

	// API routes - Account pool observability
	mux.HandleFunc("/api/accounts/status", s.app.AccountsHandler.StatusHandler)

	// API routes - Maintenance scheduler
	mux.HandleFunc("/api/scheduler/status", s.app.SchedulerHandler.GetStatusHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/shutdown", s.ShutdownHandler) // Graceful shutdown endpoint (dev mode)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
