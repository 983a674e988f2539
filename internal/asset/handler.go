// Package asset serves element sprites so front ends draw the same images
// the compositor does.
package asset

import (
	"bytes"
	"encoding/json"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"

	"github.com/artboard/artboard/internal/imagecache"
	"github.com/artboard/artboard/internal/render"
	"github.com/artboard/artboard/internal/scene"
)

// Handler serves sprite endpoints.
type Handler struct {
	images render.ImageSource

	mu      sync.Mutex
	encoded map[scene.Kind][]byte
}

// NewHandler creates a handler that serves sprites from images.
func NewHandler(images render.ImageSource) *Handler {
	return &Handler{images: images, encoded: make(map[scene.Kind][]byte)}
}

type kindInfo struct {
	Kind   scene.Kind `json:"kind"`
	URL    string     `json:"url"`
	Width  int        `json:"width"`
	Height int        `json:"height"`
}

// Routes registers GET /assets and GET /assets/{kind}.png on r.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/assets", h.List).Methods("GET")
	r.HandleFunc("/assets/{file}", h.Sprite).Methods("GET")
}

// List describes every sprite.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	kinds := scene.Kinds()
	out := make([]kindInfo, 0, len(kinds))
	for _, k := range kinds {
		b := h.images.Image(k).Bounds()
		out = append(out, kindInfo{
			Kind:   k,
			URL:    "/assets/" + imagecache.FileName(k),
			Width:  b.Dx(),
			Height: b.Dy(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// Sprite handles GET /assets/{kind}.png.
func (h *Handler) Sprite(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindForFile(mux.Vars(r)["file"])
	if !ok {
		http.NotFound(w, r)
		return
	}

	data, err := h.png(kind)
	if err != nil {
		slog.Error("encode sprite", "error", err, "kind", kind)
		http.Error(w, "failed to encode image", http.StatusInternalServerError)
		return
	}

	// Sprites are loaded once per process
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func kindForFile(name string) (scene.Kind, bool) {
	for _, k := range scene.Kinds() {
		if imagecache.FileName(k) == name {
			return k, true
		}
	}
	return scene.KindNone, false
}

func (h *Handler) png(kind scene.Kind) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if data, ok := h.encoded[kind]; ok {
		return data, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, h.images.Image(kind)); err != nil {
		return nil, err
	}
	h.encoded[kind] = buf.Bytes()
	return buf.Bytes(), nil
}
