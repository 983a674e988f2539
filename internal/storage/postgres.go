package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/artboard/artboard/internal/db"
)

// Postgres is a Store backed by the drawings table.
type Postgres struct {
	db db.DBTX
}

func NewPostgres(conn db.DBTX) *Postgres {
	return &Postgres{db: conn}
}

const createDrawing = `
INSERT INTO drawings (id, owner_id, name, document, background)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at, updated_at`

func (p *Postgres) Create(ctx context.Context, d Drawing) (*Drawing, error) {
	err := p.db.QueryRow(ctx, createDrawing, d.ID, d.OwnerID, d.Name, d.Document, d.Background).
		Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert drawing: %w", err)
	}
	return &d, nil
}

const getDrawing = `
SELECT id, owner_id, name, document, background, created_at, updated_at
FROM drawings WHERE id = $1`

func (p *Postgres) Get(ctx context.Context, id string) (*Drawing, error) {
	var d Drawing
	err := p.db.QueryRow(ctx, getDrawing, id).Scan(
		&d.ID, &d.OwnerID, &d.Name, &d.Document, &d.Background, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get drawing: %w", err)
	}
	return &d, nil
}

const saveDrawing = `
UPDATE drawings
SET document = $2, background = COALESCE($3, background), updated_at = now()
WHERE id = $1`

func (p *Postgres) Save(ctx context.Context, id string, document, background []byte) error {
	tag, err := p.db.Exec(ctx, saveDrawing, id, document, background)
	if err != nil {
		return fmt.Errorf("save drawing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const renameDrawing = `UPDATE drawings SET name = $2, updated_at = now() WHERE id = $1`

func (p *Postgres) Rename(ctx context.Context, id, name string) error {
	tag, err := p.db.Exec(ctx, renameDrawing, id, name)
	if err != nil {
		return fmt.Errorf("rename drawing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const listDrawings = `
SELECT id, owner_id, name, created_at, updated_at
FROM drawings WHERE owner_id = $1
ORDER BY updated_at DESC, id`

func (p *Postgres) List(ctx context.Context, ownerID string) ([]Summary, error) {
	rows, err := p.db.Query(ctx, listDrawings, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list drawings: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Summary, error) {
		var s Summary
		err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.CreatedAt, &s.UpdatedAt)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan drawings: %w", err)
	}
	return out, nil
}

const deleteDrawing = `DELETE FROM drawings WHERE id = $1`

func (p *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, deleteDrawing, id)
	if err != nil {
		return fmt.Errorf("delete drawing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
