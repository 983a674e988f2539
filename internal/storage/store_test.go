package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artboard/artboard/internal/db"
	"github.com/artboard/artboard/internal/typeid"
)

func testStore(t *testing.T, store Store, owner, other string) {
	ctx := context.Background()

	created, err := store.Create(ctx, Drawing{
		ID:         typeid.NewDrawingID(),
		OwnerID:    owner,
		Name:       "Lake",
		Document:   []byte(`{"version":1}`),
		Background: []byte{1, 2, 3},
	})
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lake", got.Name)
	assert.JSONEq(t, `{"version":1}`, string(got.Document))
	assert.Equal(t, []byte{1, 2, 3}, got.Background)

	require.NoError(t, store.Save(ctx, created.ID, []byte(`{"version":1,"width":5}`), nil))
	got, err = store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got.Background, "nil background keeps the stored one")
	assert.JSONEq(t, `{"version":1,"width":5}`, string(got.Document))

	require.NoError(t, store.Save(ctx, created.ID, []byte(`{}`), []byte{9}))
	require.NoError(t, store.Rename(ctx, created.ID, "Pond"))
	got, err = store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{9}, got.Background)
	assert.Equal(t, "Pond", got.Name)

	second, err := store.Create(ctx, Drawing{ID: typeid.NewDrawingID(), OwnerID: owner, Name: "Hills", Document: []byte(`{}`)})
	require.NoError(t, err)
	_, err = store.Create(ctx, Drawing{ID: typeid.NewDrawingID(), OwnerID: other, Name: "Theirs", Document: []byte(`{}`)})
	require.NoError(t, err)

	list, err := store.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	ids := []string{list[0].ID, list[1].ID}
	assert.ElementsMatch(t, []string{created.ID, second.ID}, ids)

	require.NoError(t, store.Delete(ctx, created.ID))
	_, err = store.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, created.ID), ErrNotFound)
	assert.ErrorIs(t, store.Save(ctx, created.ID, []byte(`{}`), nil), ErrNotFound)
	assert.ErrorIs(t, store.Rename(ctx, created.ID, "x"), ErrNotFound)

	empty, err := store.List(ctx, "user_nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemory(), "user_a", "user_b")
}

func TestMemoryListOrder(t *testing.T) {
	m := NewMemory()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	ctx := context.Background()

	old, _ := m.Create(ctx, Drawing{ID: "draw_old", OwnerID: "u"})
	_, _ = m.Create(ctx, Drawing{ID: "draw_new", OwnerID: "u"})
	require.NoError(t, m.Save(ctx, old.ID, []byte(`{}`), nil))

	list, err := m.List(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "draw_old", list[0].ID, "most recently saved first")
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	doc := []byte(`{"a":1}`)
	_, err := m.Create(ctx, Drawing{ID: "draw_x", OwnerID: "u", Document: doc})
	require.NoError(t, err)

	doc[0] = 'X'
	got, _ := m.Get(ctx, "draw_x")
	got.Document[1] = 'Y'
	again, _ := m.Get(ctx, "draw_x")
	assert.Equal(t, `{"a":1}`, string(again.Document))
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, url)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, db.Migrate(ctx, pool))

	owner, other := typeid.NewUserID(), typeid.NewUserID()
	for _, id := range []string{owner, other} {
		_, err := pool.Exec(ctx,
			`INSERT INTO users (id, email, password, display_name) VALUES ($1, $2, 'x', 'Test')`,
			id, id+"@example.com")
		require.NoError(t, err)
	}

	testStore(t, NewPostgres(pool), owner, other)
}
