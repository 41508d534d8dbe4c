package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Jordan-Tam/mini-wiki-sub000/internal/api/middleware"
	"github.com/Jordan-Tam/mini-wiki-sub000/internal/storage"
	"github.com/Jordan-Tam/mini-wiki-sub000/internal/storage/models"
)

// PageRequest is the create/update payload for a wiki page.
type PageRequest struct {
	WikiID int    `json:"wiki_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// ListPages returns all pages, filtered by the optional wiki_id query
// parameter.
func ListPages(repo *storage.PageRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var wikiID *int
		if raw := r.URL.Query().Get("wiki_id"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "wiki_id must be a non-negative integer")
				return
			}
			wikiID = &n
		}

		pages, err := repo.List(r.Context(), wikiID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query pages")
			return
		}
		if pages == nil {
			pages = []models.Page{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(pages)
	}
}

// CreatePage adds a new page.
func CreatePage(repo *storage.PageRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if req.Title == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Title is required")
			return
		}
		if req.WikiID < 0 {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "wiki_id must be a non-negative integer")
			return
		}

		page := &models.Page{
			WikiID: req.WikiID,
			Title:  req.Title,
			Body:   req.Body,
		}
		if err := repo.Create(r.Context(), page); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create page")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(page)
	}
}

// GetPage returns one page by id.
func GetPage(repo *storage.PageRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		page, err := repo.GetByID(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query page")
			return
		}
		if page == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Page not found")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page)
	}
}

// UpdatePage rewrites a page's title and body.
func UpdatePage(repo *storage.PageRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		var req PageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if req.Title == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Title is required")
			return
		}

		page, err := repo.GetByID(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query page")
			return
		}
		if page == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Page not found")
			return
		}

		page.Title = req.Title
		page.Body = req.Body
		if err := repo.Update(r.Context(), page); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Page not found")
				return
			}
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update page")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page)
	}
}

// DeletePage removes a page by id.
func DeletePage(repo *storage.PageRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		if err := repo.Delete(r.Context(), id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Page not found")
				return
			}
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to delete page")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
