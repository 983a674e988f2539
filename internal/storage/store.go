// Package storage persists saved drawings: the JSON document projection
// plus a PNG background, owned by one user.
package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("drawing not found")

// Drawing is one saved drawing with its payload.
type Drawing struct {
	ID         string
	OwnerID    string
	Name       string
	Document   []byte
	Background []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Summary describes a drawing without its payload.
type Summary struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (d *Drawing) Summary() Summary {
	return Summary{
		ID:        d.ID,
		OwnerID:   d.OwnerID,
		Name:      d.Name,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// Store uploads, downloads, lists and deletes drawings.
type Store interface {
	Create(ctx context.Context, d Drawing) (*Drawing, error)
	Get(ctx context.Context, id string) (*Drawing, error)
	// Save replaces a drawing's document and background. A nil background
	// keeps the stored one.
	Save(ctx context.Context, id string, document, background []byte) error
	Rename(ctx context.Context, id, name string) error
	List(ctx context.Context, ownerID string) ([]Summary, error)
	Delete(ctx context.Context, id string) error
}
