package storage

import (
	"bytes"
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// Memory is a Store kept in process memory.
type Memory struct {
	mu       sync.RWMutex
	drawings map[string]*Drawing
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		drawings: make(map[string]*Drawing),
		now:      time.Now,
	}
}

func (m *Memory) Create(_ context.Context, d Drawing) (*Drawing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	d.Document = bytes.Clone(d.Document)
	d.Background = bytes.Clone(d.Background)
	d.CreatedAt, d.UpdatedAt = now, now
	m.drawings[d.ID] = &d
	return clone(&d), nil
}

func (m *Memory) Get(_ context.Context, id string) (*Drawing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.drawings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(d), nil
}

func (m *Memory) Save(_ context.Context, id string, document, background []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.drawings[id]
	if !ok {
		return ErrNotFound
	}
	d.Document = bytes.Clone(document)
	if background != nil {
		d.Background = bytes.Clone(background)
	}
	d.UpdatedAt = m.now().UTC()
	return nil
}

func (m *Memory) Rename(_ context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.drawings[id]
	if !ok {
		return ErrNotFound
	}
	d.Name = name
	d.UpdatedAt = m.now().UTC()
	return nil
}

// List returns the owner's drawings, most recently updated first.
func (m *Memory) List(_ context.Context, ownerID string) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Summary{}
	for _, d := range m.drawings {
		if d.OwnerID == ownerID {
			out = append(out, d.Summary())
		}
	}
	slices.SortFunc(out, func(a, b Summary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.drawings[id]; !ok {
		return ErrNotFound
	}
	delete(m.drawings, id)
	return nil
}

func clone(d *Drawing) *Drawing {
	c := *d
	c.Document = bytes.Clone(d.Document)
	c.Background = bytes.Clone(d.Background)
	return &c
}
