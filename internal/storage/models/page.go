// Package models defines the persisted documents of the wiki store.
package models

import "time"

// Page is one wiki page document. The realtime gateway never touches pages;
// they are served by the REST surface and keyed by the same wiki ids the
// chat rooms use.
type Page struct {
	ID        string    `json:"id"`
	WikiID    int       `json:"wiki_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
