package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Jordan-Tam/mini-wiki-sub000/internal/storage/models"
)

// PageRepository provides data access for wiki pages.
type PageRepository struct {
	BaseRepository
}

// NewPageRepository creates a new page repository.
func NewPageRepository(db *DB) *PageRepository {
	return &PageRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new page, assigning it an id and timestamps.
func (r *PageRepository) Create(ctx context.Context, page *models.Page) error {
	page.ID = GenerateID()
	page.CreatedAt = r.Now()
	page.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO pages (id, wiki_id, title, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		page.ID, page.WikiID, page.Title, page.Body,
		page.CreatedAt, page.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting page: %w", err)
	}

	return nil
}

// GetByID retrieves a page by its id. Returns (nil, nil) when absent.
func (r *PageRepository) GetByID(ctx context.Context, id string) (*models.Page, error) {
	page := &models.Page{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT id, wiki_id, title, body, created_at, updated_at
		FROM pages WHERE id = ?
	`, id).Scan(
		&page.ID, &page.WikiID, &page.Title, &page.Body,
		&page.CreatedAt, &page.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying page: %w", err)
	}

	return page, nil
}

// List retrieves all pages, optionally restricted to one wiki id.
func (r *PageRepository) List(ctx context.Context, wikiID *int) ([]models.Page, error) {
	query := `
		SELECT id, wiki_id, title, body, created_at, updated_at
		FROM pages
	`
	var args []any
	if wikiID != nil {
		query += " WHERE wiki_id = ?"
		args = append(args, *wikiID)
	}
	query += " ORDER BY wiki_id, title"

	rows, err := r.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying pages: %w", err)
	}
	defer rows.Close()

	var pages []models.Page
	for rows.Next() {
		var page models.Page
		if err := rows.Scan(
			&page.ID, &page.WikiID, &page.Title, &page.Body,
			&page.CreatedAt, &page.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		pages = append(pages, page)
	}

	return pages, rows.Err()
}

// Update rewrites a page's title and body.
func (r *PageRepository) Update(ctx context.Context, page *models.Page) error {
	page.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE pages SET title = ?, body = ?, updated_at = ?
		WHERE id = ?
	`, page.Title, page.Body, page.UpdatedAt, page.ID)

	if err != nil {
		return fmt.Errorf("updating page: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// Delete removes a page by its id.
func (r *PageRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM pages WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting page: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// CountByWiki returns how many pages each wiki id has.
func (r *PageRepository) CountByWiki(ctx context.Context) (map[int]int, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT wiki_id, COUNT(*) FROM pages GROUP BY wiki_id
	`)
	if err != nil {
		return nil, fmt.Errorf("counting pages: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var wikiID, count int
		if err := rows.Scan(&wikiID, &count); err != nil {
			return nil, fmt.Errorf("scanning page count: %w", err)
		}
		counts[wikiID] = count
	}

	return counts, rows.Err()
}
