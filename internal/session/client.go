package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/artboard/artboard/internal/auth"
	"github.com/artboard/artboard/internal/drawing"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	// maxMsgSize limits incoming messages only.
	maxMsgSize = 64 * 1024
)

type Client struct {
	session  *Session
	conn     *websocket.Conn
	send     chan []byte
	ClientID string
}

func NewClient(session *Session, conn *websocket.Conn) *Client {
	return &Client{
		session:  session,
		conn:     conn,
		send:     make(chan []byte, 64),
		ClientID: uuid.New().String(),
	}
}

// ReadPump applies incoming messages to the session until the connection
// closes. It closes the send channel on return, which stops WritePump.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		close(c.send)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			slog.Debug("read error", "error", err, "client", c.ClientID)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "client", c.ClientID)
			c.sendError("invalid message", 0)
			continue
		}

		replies, err := c.session.Handle(ctx, &msg)
		if err != nil {
			slog.Warn("rejected message", "error", err, "type", msg.Type, "client", c.ClientID)
			c.sendError(err.Error(), msg.Seq)
			continue
		}
		for _, r := range replies {
			r.ClientID = c.ClientID
			c.Send(r)
		}
	}
}

func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				slog.Debug("write error", "error", err, "client", c.ClientID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}

	select {
	case c.send <- data:
	default:
		slog.Warn("client send buffer full, dropping message", "client", c.ClientID)
	}
}

func (c *Client) sendError(text string, seq int64) {
	msg, err := newMessage(TypeError, ErrorPayload{Message: text, Seq: seq})
	if err != nil {
		return
	}
	msg.DrawingID = c.session.DrawingID
	c.Send(msg)
}

// ServeWS upgrades /ws/drawings/{drawingId} for the authenticated user and
// runs the client until it disconnects. originPatterns are passed to
// websocket.Accept.
func (h *Hub) ServeWS(originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drawingID := mux.Vars(r)["drawingId"]
		userID := auth.UserIDFromContext(r.Context())
		if userID == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		s, err := h.Join(r.Context(), drawingID, userID)
		if err != nil {
			switch {
			case errors.Is(err, drawing.ErrNotFound):
				http.Error(w, "drawing not found", http.StatusNotFound)
			case errors.Is(err, drawing.ErrForbidden):
				http.Error(w, "forbidden", http.StatusForbidden)
			case errors.Is(err, ErrSessionBusy):
				http.Error(w, err.Error(), http.StatusConflict)
			case errors.Is(err, ErrHubStopped):
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
			default:
				slog.Error("open session", "error", err, "drawing", drawingID)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		defer h.Leave(s)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			slog.Error("websocket accept", "error", err)
			return
		}

		client := NewClient(s, conn)
		welcome, err := newMessage(TypeWelcome, WelcomePayload{
			SessionID: s.ID,
			ClientID:  client.ClientID,
			View:      s.View(),
		})
		if err == nil {
			welcome.DrawingID = drawingID
			welcome.ClientID = client.ClientID
			client.Send(welcome)
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		done := make(chan struct{})
		go func() {
			client.WritePump(ctx)
			close(done)
		}()
		client.ReadPump(ctx)
		<-done
	}
}
