package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// ErrNotFound signals an update or lookup against an id that does not exist.
// Callers treat it as a data-integrity bug, not a retriable condition.
var ErrNotFound = errors.New("item not found")

const schema = `
CREATE TABLE IF NOT EXISTS items (
	id                   TEXT PRIMARY KEY,
	kind                 TEXT NOT NULL,
	title                TEXT NOT NULL,
	link                 TEXT NOT NULL,
	source               TEXT NOT NULL,
	secondary            TEXT NOT NULL DEFAULT '',
	media_url            TEXT NOT NULL DEFAULT '',
	image_url            TEXT NOT NULL DEFAULT '',
	translated_title     TEXT NOT NULL DEFAULT '',
	translated_secondary TEXT NOT NULL DEFAULT '',
	status               TEXT NOT NULL,
	created_at           TIMESTAMP NOT NULL,
	updated_at           TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_status_created ON items (status, created_at);
CREATE INDEX IF NOT EXISTS idx_items_created ON items (created_at);
`

const itemColumns = "id, kind, title, link, source, secondary, media_url, image_url, translated_title, translated_secondary, status, created_at, updated_at"

// SQLiteRepository persists items into a local sqlite database.
type SQLiteRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ ports.ItemRepository = (*SQLiteRepository)(nil)

// Open connects to the sqlite file at path, creating the schema if it does
// not exist yet.
func Open(path string) (*SQLiteRepository, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteRepository{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close releases the underlying database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Insert computes the item fingerprint and stores the row unless that
// fingerprint is already known, in which case the existing id is returned
// without writing. Duplicate ingestion is therefore silent, never an error.
func (r *SQLiteRepository) Insert(ctx context.Context, item domain.Item) (string, error) {
	id := domain.Fingerprint(item.Title, item.Link)

	query, args, err := sq.Select("id").From("items").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return "", fmt.Errorf("build lookup: %w", err)
	}

	var existing string
	err = r.db.GetContext(ctx, &existing, query, args...)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("lookup item: %w", err)
	}

	now := r.now()
	status := item.Status
	if status == "" {
		status = domain.StatusPendingReview
	}

	query, args, err = sq.Insert("items").
		Columns("id", "kind", "title", "link", "source", "secondary",
			"media_url", "image_url", "translated_title", "translated_secondary",
			"status", "created_at", "updated_at").
		Values(id, item.Kind, item.Title, item.Link, item.Source, item.Secondary,
			item.MediaURL, item.ImageURL, "", "",
			status, now, now).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert item: %w", err)
	}

	return id, nil
}

// GetByID fetches a single item or ErrNotFound.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	query, args, err := sq.Select(itemColumns).From("items").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get: %w", err)
	}

	item := &domain.Item{}
	if err := r.db.GetContext(ctx, item, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	return item, nil
}

// ListByStatus returns items in the given status, newest-created first.
func (r *SQLiteRepository) ListByStatus(ctx context.Context, status domain.Status, limit int) ([]domain.Item, error) {
	return r.listByStatus(ctx, status, 0, limit)
}

// ListByStatusWithin behaves like ListByStatus but only returns items
// created inside the trailing window.
func (r *SQLiteRepository) ListByStatusWithin(ctx context.Context, status domain.Status, window time.Duration, limit int) ([]domain.Item, error) {
	return r.listByStatus(ctx, status, window, limit)
}

func (r *SQLiteRepository) listByStatus(ctx context.Context, status domain.Status, window time.Duration, limit int) ([]domain.Item, error) {
	builder := sq.Select(itemColumns).From("items").
		Where(sq.Eq{"status": status}).
		OrderBy("created_at DESC")

	if window > 0 {
		builder = builder.Where(sq.GtOrEq{"created_at": r.now().Add(-window)})
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	items := []domain.Item{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list items by status %s: %w", status, err)
	}
	return items, nil
}

// SetStatus advances the item lifecycle state.
func (r *SQLiteRepository) SetStatus(ctx context.Context, id string, status domain.Status) error {
	return r.update(ctx, id, map[string]interface{}{"status": status})
}

// SetDetail persists the fields resolved by a detail fetch.
func (r *SQLiteRepository) SetDetail(ctx context.Context, id string, secondary, mediaURL, imageURL string) error {
	return r.update(ctx, id, map[string]interface{}{
		"secondary": secondary,
		"media_url": mediaURL,
		"image_url": imageURL,
	})
}

// SetTranslation persists the translated title and secondary field.
func (r *SQLiteRepository) SetTranslation(ctx context.Context, id string, title, secondary string) error {
	return r.update(ctx, id, map[string]interface{}{
		"translated_title":     title,
		"translated_secondary": secondary,
	})
}

func (r *SQLiteRepository) update(ctx context.Context, id string, fields map[string]interface{}) error {
	builder := sq.Update("items").Where(sq.Eq{"id": id}).Set("updated_at", r.now())
	for column, value := range fields {
		builder = builder.Set(column, value)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update item %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update item %s: %w", id, ErrNotFound)
	}
	return nil
}

// CleanupOldRecords deletes every item strictly older than the keep-th
// newest one and returns how many rows went away. With fewer than keep rows
// it is a no-op. The cutoff is purely creation-time based: status is not
// consulted, so a long-stuck item can age out mid-pipeline.
func (r *SQLiteRepository) CleanupOldRecords(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, fmt.Errorf("retention cap must be positive, got %d", keep)
	}

	query, args, err := sq.Select("created_at").From("items").
		OrderBy("created_at DESC").
		Limit(1).Offset(uint64(keep - 1)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build cutoff query: %w", err)
	}

	var cutoff time.Time
	if err := r.db.GetContext(ctx, &cutoff, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("find retention cutoff: %w", err)
	}

	query, args, err = sq.Delete("items").Where(sq.Lt{"created_at": cutoff}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete old items: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return deleted, nil
}
