// Package project resolves the project scope for training submissions.
package project

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MezriHC/Better-Ads-sub000/internal/domain"
)

// Context yields the project id that scopes a training submission. An empty
// id is a submission precondition failure, not a core error.
type Context interface {
	CurrentProjectID(ctx context.Context) (string, error)
}

// StaticContext always returns the configured project id. Used when the
// service runs pinned to one project (single-tenant deployments, tests).
type StaticContext struct {
	ProjectID string
}

func (c StaticContext) CurrentProjectID(context.Context) (string, error) {
	if strings.TrimSpace(c.ProjectID) == "" {
		return "", domain.ErrProjectUnavailable
	}
	return c.ProjectID, nil
}

// PGContext resolves the most recently active project from Postgres.
type PGContext struct {
	pool *pgxpool.Pool
}

// NewPGContext creates a Postgres-backed project context.
func NewPGContext(pool *pgxpool.Pool) *PGContext {
	return &PGContext{pool: pool}
}

func (c *PGContext) CurrentProjectID(ctx context.Context) (string, error) {
	query := `
SELECT id
FROM projects
WHERE status = 'active'
ORDER BY updated_at DESC
LIMIT 1;
`
	var id string
	if err := c.pool.QueryRow(ctx, query).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrProjectUnavailable
		}
		return "", err
	}
	return id, nil
}
