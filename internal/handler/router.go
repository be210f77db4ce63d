package handler

import (
	"net/http"

	"github.com/Dan9191/user-service/internal/middleware"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter registers the user routes and wraps the router in the access log
// and cross-origin policy.
func NewRouter(h *Handler, log *logrus.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/users", h.ListUsers).Methods("GET")
	r.HandleFunc("/users", h.CreateUser).Methods("POST")
	r.HandleFunc("/users/{id}", h.UpdateUser).Methods("PUT")
	r.HandleFunc("/users/{id}", h.DeleteUser).Methods("DELETE")
	r.HandleFunc("/healthz", h.Health).Methods("GET")

	// Wrapped rather than registered with r.Use, which mux skips for
	// unmatched routes and preflights.
	return middleware.AccessLog(log)(middleware.CORS(r))
}
