// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Jordan-Tam/mini-wiki-sub000/internal/api/handlers"
	"github.com/Jordan-Tam/mini-wiki-sub000/internal/api/middleware"
	"github.com/Jordan-Tam/mini-wiki-sub000/internal/cache"
	"github.com/Jordan-Tam/mini-wiki-sub000/internal/realtime"
	"github.com/Jordan-Tam/mini-wiki-sub000/internal/storage"
)

// NewRouter creates and configures the HTTP router: the REST API under /api
// and the realtime gateway under /ws. The gateway does its own path routing
// against the schemas registered in its route table; mux only mounts it.
func NewRouter(
	db *storage.DB,
	registry *realtime.Registry,
	gateway *realtime.Gateway,
	c *cache.Cache,
) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	pages := storage.NewPageRepository(db)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", handlers.HealthCheck(db)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(db, registry)).Methods("GET")

	api.HandleFunc("/pages", handlers.ListPages(pages)).Methods("GET")
	api.HandleFunc("/pages", handlers.CreatePage(pages)).Methods("POST")
	api.HandleFunc("/pages/{id}", handlers.GetPage(pages)).Methods("GET")
	api.HandleFunc("/pages/{id}", handlers.UpdatePage(pages)).Methods("PUT")
	api.HandleFunc("/pages/{id}", handlers.DeletePage(pages)).Methods("DELETE")

	api.HandleFunc("/leaderboard", handlers.Leaderboard(c)).Methods("GET")

	// Upgrade requests are stripped of the mount prefix so the gateway's
	// schemas see paths like /wiki/42/chat/alice.
	r.PathPrefix("/ws").Handler(http.StripPrefix("/ws", gateway))

	return r
}
