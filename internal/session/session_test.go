package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artboard/artboard/internal/auth"
	"github.com/artboard/artboard/internal/document"
	"github.com/artboard/artboard/internal/drawing"
	"github.com/artboard/artboard/internal/engine"
	"github.com/artboard/artboard/internal/imagecache"
	"github.com/artboard/artboard/internal/scene"
	"github.com/artboard/artboard/internal/storage"
)

func newTestDrawings(t *testing.T) (*drawing.Service, string) {
	opts := engine.DefaultOptions()
	opts.Size = scene.Sz(100, 80)
	svc := drawing.NewService(storage.NewMemory(), imagecache.New(nil), opts)
	sum, err := svc.Create(context.Background(), "user_a", "Test", false)
	require.NoError(t, err)
	return svc, sum.ID
}

func command(t *testing.T, c CommandPayload) *Message {
	data, err := json.Marshal(c)
	require.NoError(t, err)
	return &Message{Type: TypeCommand, Payload: data}
}

func pointer(t *testing.T, p PointerPayload) *Message {
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return &Message{Type: TypePointer, Payload: data}
}

func mode(m engine.Mode) *engine.Mode { return &m }

func decodeView(t *testing.T, msg *Message) engine.View {
	require.Equal(t, TypeView, msg.Type)
	var v engine.View
	require.NoError(t, json.Unmarshal(msg.Payload, &v))
	return v
}

func TestSessionHandle(t *testing.T) {
	svc, id := newTestDrawings(t)
	hub := NewHub(svc)
	ctx := context.Background()

	s, err := hub.Join(ctx, id, "user_a")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.ID, "sess_"))

	replies, err := s.Handle(ctx, pointer(t, PointerPayload{Mode: mode(engine.ModeAdd), X: 10, Y: 10}))
	require.NoError(t, err)
	require.Len(t, replies, 1)
	v := decodeView(t, replies[0])
	require.Len(t, v.Elements, 1)
	assert.Equal(t, scene.KindCloud, v.Elements[0].Kind)
	assert.True(t, v.CanUndo)
	assert.True(t, s.Dirty())

	replies, err = s.Handle(ctx, pointer(t, PointerPayload{X: 20, Y: 20}))
	require.NoError(t, err)
	v = decodeView(t, replies[0])
	assert.Equal(t, 0, v.Selected, "default mode selects")

	replies, err = s.Handle(ctx, command(t, CommandPayload{Op: OpDuplicate}))
	require.NoError(t, err)
	v = decodeView(t, replies[0])
	require.Len(t, v.Elements, 2)
	assert.Equal(t, 1, v.Selected)
	assert.Equal(t, 20, v.Elements[1].X)

	replies, err = s.Handle(ctx, command(t, CommandPayload{Op: OpUndo}))
	require.NoError(t, err)
	assert.Len(t, decodeView(t, replies[0]).Elements, 1)

	kind := scene.KindPine
	_, err = s.Handle(ctx, command(t, CommandPayload{Op: OpSetAddKind, Kind: &kind}))
	require.NoError(t, err)
	_, err = s.Handle(ctx, command(t, CommandPayload{Op: OpSetAddSize, Width: 5, Height: 6}))
	require.NoError(t, err)
	_, err = s.Handle(ctx, command(t, CommandPayload{Op: OpSetMode, Mode: mode(engine.ModeAdd)}))
	require.NoError(t, err)
	replies, err = s.Handle(ctx, pointer(t, PointerPayload{X: 50, Y: 50}))
	require.NoError(t, err)
	v = decodeView(t, replies[0])
	assert.Equal(t, engine.ModeAdd, v.Mode)
	assert.Equal(t, document.Element{Kind: scene.KindPine, X: 50, Y: 50, Width: 5, Height: 6}, v.Elements[len(v.Elements)-1])

	replies, err = s.Handle(ctx, command(t, CommandPayload{Op: OpFrame}))
	require.NoError(t, err)
	require.Equal(t, TypeFrame, replies[0].Type)
	var frame FramePayload
	require.NoError(t, json.Unmarshal(replies[0].Payload, &frame))
	img, err := png.Decode(bytes.NewReader(frame.PNG))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 80, frame.Height)

	replies, err = s.Handle(ctx, command(t, CommandPayload{Op: OpSave}))
	require.NoError(t, err)
	assert.Equal(t, TypeSaved, replies[0].Type)
	assert.False(t, s.Dirty())

	doc, err := svc.Document(ctx, id, "user_a")
	require.NoError(t, err)
	assert.Len(t, doc.Elements, 2)

	hub.Leave(s)
	assert.Zero(t, hub.Len())
}

func TestSessionErrors(t *testing.T) {
	svc, id := newTestDrawings(t)
	hub := NewHub(svc)
	ctx := context.Background()
	s, err := hub.Join(ctx, id, "user_a")
	require.NoError(t, err)
	defer hub.Leave(s)

	tests := []struct {
		name string
		msg  *Message
		want string
	}{
		{"undo empty", command(t, CommandPayload{Op: OpUndo}), "nothing to undo"},
		{"remove without selection", command(t, CommandPayload{Op: OpRemove}), engine.ErrNoSelection.Error()},
		{"unknown op", command(t, CommandPayload{Op: "explode"}), "unknown command op"},
		{"set mode without mode", command(t, CommandPayload{Op: OpSetMode}), "setMode requires mode"},
		{"move without selection", pointer(t, PointerPayload{Mode: mode(engine.ModeMove)}), engine.ErrNoSelection.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.msg.Seq = 7
			replies, err := s.Handle(ctx, tt.msg)
			require.NoError(t, err)
			require.Len(t, replies, 1)
			assert.Equal(t, TypeError, replies[0].Type)
			assert.Equal(t, int64(7), replies[0].Seq)
			var e ErrorPayload
			require.NoError(t, json.Unmarshal(replies[0].Payload, &e))
			assert.Contains(t, e.Message, tt.want)
		})
	}

	_, err = s.Handle(ctx, &Message{Type: "bogus"})
	assert.Error(t, err)
	_, err = s.Handle(ctx, &Message{Type: TypePointer, Payload: json.RawMessage(`"x"`)})
	assert.Error(t, err)
	assert.False(t, s.Dirty())
}

func TestHubSingleEditor(t *testing.T) {
	svc, id := newTestDrawings(t)
	hub := NewHub(svc)
	ctx := context.Background()

	s, err := hub.Join(ctx, id, "user_a")
	require.NoError(t, err)
	_, err = hub.Join(ctx, id, "user_a")
	assert.ErrorIs(t, err, ErrSessionBusy)

	got, ok := hub.Lookup(id)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, err = hub.Join(ctx, "draw_missing", "user_a")
	assert.ErrorIs(t, err, drawing.ErrNotFound)
	_, err = NewHub(svc).Join(ctx, id, "user_b")
	assert.ErrorIs(t, err, drawing.ErrForbidden)

	hub.Leave(s)
	s, err = hub.Join(ctx, id, "user_a")
	require.NoError(t, err)
	hub.Leave(s)
}

func TestDirtyOnlyAfterChanges(t *testing.T) {
	svc, id := newTestDrawings(t)
	hub := NewHub(svc)
	ctx := context.Background()
	s, err := hub.Join(ctx, id, "user_a")
	require.NoError(t, err)
	defer hub.Leave(s)

	for _, msg := range []*Message{
		pointer(t, PointerPayload{Mode: mode(engine.ModeNone), X: 5, Y: 5}),
		pointer(t, PointerPayload{Mode: mode(engine.ModeSelect), X: 5, Y: 5}),
		command(t, CommandPayload{Op: OpSetMode, Mode: mode(engine.ModeAdd)}),
		command(t, CommandPayload{Op: OpSetAddSize, Width: 8, Height: 8}),
		command(t, CommandPayload{Op: OpFrame}),
	} {
		_, err := s.Handle(ctx, msg)
		require.NoError(t, err)
		assert.False(t, s.Dirty(), "%s", msg.Payload)
	}
	assert.Zero(t, hub.SaveAll(ctx))

	_, err = s.Handle(ctx, pointer(t, PointerPayload{X: 5, Y: 5}))
	require.NoError(t, err)
	assert.True(t, s.Dirty())
}

// gatedStore blocks Open until release is closed.
type gatedStore struct {
	Store
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) Open(ctx context.Context, drawingID, userID string) (*engine.Engine, error) {
	close(g.entered)
	<-g.release
	return g.Store.Open(ctx, drawingID, userID)
}

func newGatedHub(t *testing.T) (*Hub, *gatedStore, string) {
	svc, id := newTestDrawings(t)
	store := &gatedStore{Store: svc, entered: make(chan struct{}), release: make(chan struct{})}
	return NewHub(store), store, id
}

func TestJoinDoesNotBlockHub(t *testing.T) {
	hub, store, id := newGatedHub(t)
	ctx := context.Background()

	type joined struct {
		s   *Session
		err error
	}
	done := make(chan joined, 1)
	go func() {
		s, err := hub.Join(ctx, id, "user_a")
		done <- joined{s, err}
	}()
	<-store.entered

	_, ok := hub.Lookup(id)
	assert.False(t, ok)
	assert.Zero(t, hub.Len())
	assert.Zero(t, hub.SaveAll(ctx))
	_, err := hub.Join(ctx, id, "user_a")
	assert.ErrorIs(t, err, ErrSessionBusy, "slot is reserved while opening")

	close(store.release)
	res := <-done
	require.NoError(t, res.err)
	got, ok := hub.Lookup(id)
	require.True(t, ok)
	assert.Same(t, res.s, got)
	hub.Leave(res.s)
}

func TestJoinFailureReleasesSlot(t *testing.T) {
	svc, id := newTestDrawings(t)
	hub := NewHub(svc)
	ctx := context.Background()

	_, err := hub.Join(ctx, id, "user_b")
	assert.ErrorIs(t, err, drawing.ErrForbidden)
	s, err := hub.Join(ctx, id, "user_a")
	require.NoError(t, err)
	hub.Leave(s)
}

func TestStopWhileOpening(t *testing.T) {
	hub, store, id := newGatedHub(t)

	done := make(chan error, 1)
	go func() {
		_, err := hub.Join(context.Background(), id, "user_a")
		done <- err
	}()
	<-store.entered

	hub.Stop()
	close(store.release)
	assert.ErrorIs(t, <-done, ErrHubStopped)
	assert.Zero(t, hub.Len())
}

type countingSaver struct {
	Store
	saves int
	fail  bool
}

func (c *countingSaver) SaveEngine(ctx context.Context, id string, eng *engine.Engine) error {
	c.saves++
	if c.fail {
		return errors.New("disk full")
	}
	return c.Store.SaveEngine(ctx, id, eng)
}

func TestHubSaveAllAndStop(t *testing.T) {
	svc, id := newTestDrawings(t)
	store := &countingSaver{Store: svc}
	hub := NewHub(store)
	ctx := context.Background()

	s, err := hub.Join(ctx, id, "user_a")
	require.NoError(t, err)
	assert.Zero(t, hub.SaveAll(ctx), "clean sessions are skipped")

	_, err = s.Handle(ctx, pointer(t, PointerPayload{Mode: mode(engine.ModeAdd), X: 1, Y: 1}))
	require.NoError(t, err)

	store.fail = true
	assert.Zero(t, hub.SaveAll(ctx))
	assert.True(t, s.Dirty(), "failed save keeps the session dirty")

	store.fail = false
	assert.Equal(t, 1, hub.SaveAll(ctx))
	assert.Equal(t, 2, store.saves)

	_, err = s.Handle(ctx, command(t, CommandPayload{Op: OpUndo}))
	require.NoError(t, err)
	hub.Stop()
	assert.False(t, s.Dirty())
	_, err = hub.Join(ctx, id, "user_a")
	assert.ErrorIs(t, err, ErrHubStopped)

	doc, err := svc.Document(ctx, id, "user_a")
	require.NoError(t, err)
	assert.Empty(t, doc.Elements)
}

func TestHubRunAutosaves(t *testing.T) {
	svc, id := newTestDrawings(t)
	hub := NewHub(svc)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := hub.Join(ctx, id, "user_a")
	require.NoError(t, err)
	defer hub.Leave(s)
	_, err = s.Handle(ctx, pointer(t, PointerPayload{Mode: mode(engine.ModeAdd), X: 1, Y: 1}))
	require.NoError(t, err)

	go hub.Run(ctx, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return !s.Dirty() }, time.Second, 5*time.Millisecond)
}

func newWSServer(t *testing.T, hub *Hub) *httptest.Server {
	r := mux.NewRouter()
	r.Handle("/ws/drawings/{drawingId}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.WithUserID(r.Context(), r.URL.Query().Get("user"))
		hub.ServeWS(nil).ServeHTTP(w, r.WithContext(ctx))
	}))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, id, user string) (*websocket.Conn, *http.Response, error) {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/drawings/" + id + "?user=" + user
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return websocket.Dial(ctx, url, nil)
}

func readMessage(t *testing.T, conn *websocket.Conn) *Message {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return &msg
}

func writeMessage(t *testing.T, conn *websocket.Conn, msg *Message) {
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

func TestWebSocketSession(t *testing.T) {
	svc, id := newTestDrawings(t)
	hub := NewHub(svc)
	srv := newWSServer(t, hub)

	conn, _, err := dial(t, srv, id, "user_a")
	require.NoError(t, err)
	conn.SetReadLimit(8 << 20)

	welcome := readMessage(t, conn)
	require.Equal(t, TypeWelcome, welcome.Type)
	var wp WelcomePayload
	require.NoError(t, json.Unmarshal(welcome.Payload, &wp))
	assert.NotEmpty(t, wp.ClientID)
	assert.Equal(t, engine.ModeSelect, wp.View.Mode)
	assert.Equal(t, id, welcome.DrawingID)

	_, resp, err := dial(t, srv, id, "user_a")
	require.Error(t, err, "second editor is refused")
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	add := pointer(t, PointerPayload{Mode: mode(engine.ModeAdd), X: 30, Y: 30})
	add.Seq = 1
	writeMessage(t, conn, add)
	reply := readMessage(t, conn)
	assert.Equal(t, int64(1), reply.Seq)
	assert.Equal(t, wp.ClientID, reply.ClientID)
	assert.Len(t, decodeView(t, reply).Elements, 1)

	writeMessage(t, conn, command(t, CommandPayload{Op: OpFrame}))
	assert.Equal(t, TypeFrame, readMessage(t, conn).Type)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("{not json")))
	assert.Equal(t, TypeError, readMessage(t, conn).Type)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	doc, err := svc.Document(context.Background(), id, "user_a")
	require.NoError(t, err)
	assert.Len(t, doc.Elements, 1, "disconnect saves the drawing")
}

func TestWebSocketRejects(t *testing.T) {
	svc, id := newTestDrawings(t)
	srv := newWSServer(t, NewHub(svc))

	tests := []struct {
		name   string
		id     string
		user   string
		status int
	}{
		{"anonymous", id, "", http.StatusUnauthorized},
		{"stranger", id, "user_b", http.StatusForbidden},
		{"missing", "draw_missing", "user_a", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := dial(t, srv, tt.id, tt.user)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
