package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/cors"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 10 << 20

// apiVersion is reported by the index route.
const apiVersion = "1.0.0"

// NewHTTPHandler returns an http.Handler with all routes registered. Browser
// front ends served from allowedOrigins may call it cross-origin.
func (s *GraphServer) NewHTTPHandler(allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("GET /projects", s.handleListProjects)
	mux.HandleFunc("POST /projects", s.handleCreateProject)
	mux.HandleFunc("GET /project/{projectId}", s.handleGetProject)
	mux.HandleFunc("PUT /project/{projectId}", s.handleSaveProject)

	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/conversation/{id}", s.handleGetConversation)
	mux.HandleFunc("DELETE /api/conversation/{id}", s.handleDeleteConversation)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})

	var h http.Handler = mux
	h = corsHandler(h)
	h = RecoveryMiddleware(h)
	h = LoggingMiddleware(s.metrics, h)
	return h
}

// handleHealth handles GET /health.
func (s *GraphServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"message":   "Simulation Backend API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleIndex handles GET /.
func (s *GraphServer) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "DEVS Simulation Backend API",
		"version": apiVersion,
		"endpoints": []string{
			"GET /health - Health check",
			"GET /projects - List projects",
			"POST /projects - Create a project",
			"GET /project/{projectId} - Get project with nodes and edges",
			"PUT /project/{projectId} - Replace project nodes and edges",
			"POST /api/chat - Send a chat message",
			"GET /api/conversation/{id} - Get conversation history",
			"DELETE /api/conversation/{id} - Delete conversation history",
			"GET /metrics - Prometheus metrics",
		},
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeErrorDetails writes a JSON error response carrying the underlying cause.
func writeErrorDetails(w http.ResponseWriter, status int, message string, err error) {
	writeJSON(w, status, map[string]string{"error": message, "details": err.Error()})
}
