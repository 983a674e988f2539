package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/artboard/artboard/internal/db"
)

// UserRecord is a stored account including its password hash.
type UserRecord struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
}

func (r *UserRecord) User() *User {
	return &User{ID: r.ID, Email: r.Email, DisplayName: r.DisplayName}
}

// UserStore persists accounts. CreateUser returns ErrEmailTaken for a
// duplicate email; lookups return ErrUserNotFound.
type UserStore interface {
	CreateUser(ctx context.Context, u UserRecord) (*UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*UserRecord, error)
	GetUserByID(ctx context.Context, id string) (*UserRecord, error)
}

// PostgresUsers stores accounts in the users table.
type PostgresUsers struct {
	db db.DBTX
}

func NewPostgresUsers(conn db.DBTX) *PostgresUsers {
	return &PostgresUsers{db: conn}
}

const createUser = `
INSERT INTO users (id, email, password, display_name)
VALUES ($1, $2, $3, $4)`

func (p *PostgresUsers) CreateUser(ctx context.Context, u UserRecord) (*UserRecord, error) {
	if _, err := p.db.Exec(ctx, createUser, u.ID, u.Email, u.PasswordHash, u.DisplayName); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

const selectUser = `SELECT id, email, password, display_name FROM users WHERE `

func (p *PostgresUsers) GetUserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	return p.get(ctx, selectUser+"email = $1", email)
}

func (p *PostgresUsers) GetUserByID(ctx context.Context, id string) (*UserRecord, error) {
	return p.get(ctx, selectUser+"id = $1", id)
}

func (p *PostgresUsers) get(ctx context.Context, query, arg string) (*UserRecord, error) {
	var u UserRecord
	err := p.db.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// MemoryUsers keeps accounts in process memory.
type MemoryUsers struct {
	mu      sync.RWMutex
	byID    map[string]UserRecord
	byEmail map[string]string
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{
		byID:    make(map[string]UserRecord),
		byEmail: make(map[string]string),
	}
}

func (m *MemoryUsers) CreateUser(_ context.Context, u UserRecord) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[u.Email]; ok {
		return nil, ErrEmailTaken
	}
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u.ID
	return &u, nil
}

func (m *MemoryUsers) GetUserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	m.mu.RLock()
	id, ok := m.byEmail[email]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrUserNotFound
	}
	return m.GetUserByID(ctx, id)
}

func (m *MemoryUsers) GetUserByID(_ context.Context, id string) (*UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}
