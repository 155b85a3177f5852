package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes. metrics may be nil.
func SetupRoutes(handler *Handler, metrics http.Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	if metrics != nil {
		r.Handle("/metrics", metrics).Methods("GET")
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// Account routes
	api.HandleFunc("/register", handler.Register).Methods("POST")
	api.HandleFunc("/login", handler.Login).Methods("POST")
	api.HandleFunc("/logout", handler.authMiddleware(handler.Logout)).Methods("POST")
	api.HandleFunc("/account", handler.authMiddleware(handler.DeleteAccount)).Methods("DELETE")

	// Trading routes
	api.HandleFunc("/quotes/{ticker}", handler.authMiddleware(handler.GetQuote)).Methods("GET")
	api.HandleFunc("/trades/buy", handler.authMiddleware(handler.Buy)).Methods("POST")
	api.HandleFunc("/trades/sell", handler.authMiddleware(handler.Sell)).Methods("POST")
	api.HandleFunc("/trades", handler.authMiddleware(handler.GetTrades)).Methods("GET")
	api.HandleFunc("/portfolio", handler.authMiddleware(handler.GetPortfolio)).Methods("GET")

	return r
}
