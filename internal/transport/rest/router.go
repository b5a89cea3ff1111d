package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"decihire/internal/service"
	"decihire/internal/transport/rest/handler"
	"decihire/internal/transport/rest/middleware"
	"decihire/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService       *service.AuthService
	BankService       *service.BankService
	RecorderService   *service.RecorderService
	ReportService     *service.ReportService
	InvitationService *service.InvitationService
	WSHub             *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(c.AuthService)
	questionHandler := handler.NewQuestionHandler(c.BankService)
	sessionHandler := handler.NewSessionHandler(c.RecorderService)
	reportHandler := handler.NewReportHandler(c.ReportService)
	inviteHandler := handler.NewInvitationHandler(c.InvitationService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	r.Use(corsMiddleware)

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/invitations/{code}/redeem", inviteHandler.Redeem).Methods("POST", "OPTIONS")

	// WebSocket routes (token in query param)
	v1.HandleFunc("/ws/dashboard", wsHandler.DashboardWS).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Candidate routes, scoped to the session in the token
	candidate := v1.PathPrefix("/sessions/current").Subrouter()
	candidate.Use(authMW.RequireCandidate)

	candidate.HandleFunc("", sessionHandler.Current).Methods("GET", "OPTIONS")
	candidate.HandleFunc("/answers", sessionHandler.Answer).Methods("POST", "OPTIONS")
	candidate.HandleFunc("/submit", sessionHandler.Submit).Methods("POST", "OPTIONS")

	// Recruiter routes
	recruiter := v1.NewRoute().Subrouter()
	recruiter.Use(authMW.RequireRecruiter)

	recruiter.HandleFunc("/questions", questionHandler.Create).Methods("POST", "OPTIONS")
	recruiter.HandleFunc("/questions", questionHandler.List).Methods("GET", "OPTIONS")
	recruiter.HandleFunc("/questions/{id}", questionHandler.Update).Methods("PUT", "OPTIONS")
	recruiter.HandleFunc("/questions/{id}/publish", questionHandler.Publish).Methods("POST", "OPTIONS")

	recruiter.HandleFunc("/profiles", questionHandler.Profiles).Methods("GET", "OPTIONS")
	recruiter.HandleFunc("/profiles/{profile}/bank", questionHandler.Bank).Methods("GET", "OPTIONS")
	recruiter.HandleFunc("/profiles/{profile}/leaderboard", reportHandler.Leaderboard).Methods("GET", "OPTIONS")
	recruiter.HandleFunc("/profiles/{profile}/stats", reportHandler.Stats).Methods("GET", "OPTIONS")

	recruiter.HandleFunc("/invitations", inviteHandler.Create).Methods("POST", "OPTIONS")
	recruiter.HandleFunc("/invitations/{code}", inviteHandler.Revoke).Methods("DELETE", "OPTIONS")

	recruiter.HandleFunc("/results", reportHandler.List).Methods("GET", "OPTIONS")
	recruiter.HandleFunc("/results/{sessionId}", reportHandler.Get).Methods("GET", "OPTIONS")
	recruiter.HandleFunc("/results/{sessionId}/rescore", reportHandler.Rescore).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
