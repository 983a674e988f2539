package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/artboard/artboard/internal/engine"
	"github.com/artboard/artboard/internal/typeid"
)

// Saver writes an engine's drawing back to storage.
type Saver interface {
	SaveEngine(ctx context.Context, drawingID string, eng *engine.Engine) error
}

// Store opens drawings for editing and saves them.
type Store interface {
	Saver
	Open(ctx context.Context, drawingID, userID string) (*engine.Engine, error)
}

// saveTimeout bounds each background save.
const saveTimeout = 10 * time.Second

type Hub struct {
	store Store

	mu       sync.Mutex
	sessions map[string]*Session // drawingID -> session
	opening  map[string]struct{} // drawings reserved by a Join still opening
	stopped  bool
}

func NewHub(store Store) *Hub {
	return &Hub{
		store:    store,
		sessions: make(map[string]*Session),
		opening:  make(map[string]struct{}),
	}
}

// Join opens drawingID for userID. A drawing has at most one editor, so a
// second Join before Leave returns ErrSessionBusy. The drawing is loaded
// without holding the hub lock; the slot stays reserved meanwhile.
func (h *Hub) Join(ctx context.Context, drawingID, userID string) (*Session, error) {
	if err := h.reserve(drawingID); err != nil {
		return nil, err
	}

	eng, err := h.store.Open(ctx, drawingID, userID)

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.opening, drawingID)
	if err != nil {
		return nil, err
	}
	if h.stopped {
		eng.Close()
		return nil, ErrHubStopped
	}

	s := &Session{
		ID:        typeid.NewSessionID(),
		DrawingID: drawingID,
		UserID:    userID,
		saver:     h.store,
		eng:       eng,
	}
	h.sessions[drawingID] = s

	slog.Info("session opened", "session", s.ID, "drawing", drawingID, "user", userID)
	return s, nil
}

func (h *Hub) reserve(drawingID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return ErrHubStopped
	}
	if _, ok := h.sessions[drawingID]; ok {
		return ErrSessionBusy
	}
	if _, ok := h.opening[drawingID]; ok {
		return ErrSessionBusy
	}
	h.opening[drawingID] = struct{}{}
	return nil
}

// Leave saves any unsaved edits and closes the session.
func (h *Hub) Leave(s *Session) {
	h.mu.Lock()
	if h.sessions[s.DrawingID] == s {
		delete(h.sessions, s.DrawingID)
	}
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.Save(ctx); err != nil {
		slog.Error("save drawing", "error", err, "drawing", s.DrawingID)
	}

	s.mu.Lock()
	s.eng.Close()
	s.mu.Unlock()

	slog.Info("session closed", "session", s.ID, "drawing", s.DrawingID)
}

// Lookup returns the open session for drawingID.
func (h *Hub) Lookup(drawingID string) (*Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[drawingID]
	return s, ok
}

// Len returns the number of open sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Run autosaves dirty sessions every interval until ctx is done. A zero
// interval disables autosave.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.SaveAll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// SaveAll saves every session with unsaved edits and returns how many
// were written.
func (h *Hub) SaveAll(ctx context.Context) int {
	saved := 0
	for _, s := range h.snapshot() {
		if !s.Dirty() {
			continue
		}
		saveCtx, cancel := context.WithTimeout(ctx, saveTimeout)
		err := s.Save(saveCtx)
		cancel()
		if err != nil {
			slog.Error("autosave drawing", "error", err, "drawing", s.DrawingID)
			continue
		}
		saved++
	}
	if saved > 0 {
		slog.Debug("autosaved drawings", "count", saved)
	}
	return saved
}

// Stop refuses new sessions and saves all open ones.
func (h *Hub) Stop() {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()

	n := h.SaveAll(context.Background())
	slog.Info("session hub stopped", "saved", n)
}

func (h *Hub) snapshot() []*Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}
