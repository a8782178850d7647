// Package store persists submission records.
package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"govportal/internal/intake/models"
	"govportal/pkg/platform/sentinel"
)

//go:embed schema.sql
var schemaSQL string

// Postgres stores records in one table per category.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an open pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the category tables when they do not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Insert writes rec into the category's table in a single statement.
func (s *Postgres) Insert(ctx context.Context, spec models.CategorySpec, rec *models.Record) error {
	query, args := insertStatement(spec.Table, rec.Columns())
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return classify(err, spec.Table)
	}
	return nil
}

func insertStatement(table string, cols []models.Column) (string, []any) {
	names := make([]string, len(cols))
	params := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		names[i] = pq.QuoteIdentifier(c.Name)
		params[i] = "$" + strconv.Itoa(i+1)
		args[i] = c.Value
	}
	query := "INSERT INTO " + pq.QuoteIdentifier(table) +
		" (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(params, ", ") + ")"
	return query, args
}

// FindByReference returns the tracking view of a submission.
func (s *Postgres) FindByReference(ctx context.Context, spec models.CategorySpec, referenceID string) (*models.TrackingInfo, error) {
	query := "SELECT reference_id, status, created_at FROM " + pq.QuoteIdentifier(spec.Table) + " WHERE reference_id = $1"

	info := &models.TrackingInfo{Category: spec.Category}
	var createdAt time.Time
	err := s.pool.QueryRow(ctx, query, referenceID).Scan(&info.ReferenceID, &info.Status, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s by reference: %w", spec.Table, err)
	}
	info.CreatedAt = createdAt.UTC()
	return info, nil
}
