// Package drawing manages a user's saved drawings and renders them.
package drawing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/artboard/artboard/internal/document"
	"github.com/artboard/artboard/internal/engine"
	"github.com/artboard/artboard/internal/render"
	"github.com/artboard/artboard/internal/storage"
	"github.com/artboard/artboard/internal/typeid"
)

var (
	ErrNotFound  = storage.ErrNotFound
	ErrForbidden = errors.New("forbidden")
	ErrInvalid   = errors.New("invalid drawing")
)

// maxNameLength bounds drawing names.
const maxNameLength = 200

type Service struct {
	store  storage.Store
	images render.ImageSource
	opts   engine.Options
}

func NewService(store storage.Store, images render.ImageSource, opts engine.Options) *Service {
	return &Service{store: store, images: images, opts: opts}
}

// Create stores a new drawing for ownerID: the sample landscape when sample
// is set, otherwise an empty canvas of the configured size.
func (s *Service) Create(ctx context.Context, ownerID, name string, sample bool) (*storage.Summary, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return nil, fmt.Errorf("%w: name must be 1-%d characters", ErrInvalid, maxNameLength)
	}

	doc := document.NewEmptyDocument(s.opts.Size)
	if sample {
		doc = document.NewSampleDocument(s.opts.Size)
	}
	var buf bytes.Buffer
	if err := document.Encode(&buf, doc); err != nil {
		return nil, err
	}

	d, err := s.store.Create(ctx, storage.Drawing{
		ID:       typeid.NewDrawingID(),
		OwnerID:  ownerID,
		Name:     name,
		Document: buf.Bytes(),
	})
	if err != nil {
		return nil, fmt.Errorf("create drawing: %w", err)
	}
	sum := d.Summary()
	return &sum, nil
}

// Get returns a drawing if userID owns it.
func (s *Service) Get(ctx context.Context, id, userID string) (*storage.Drawing, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.OwnerID != userID {
		return nil, ErrForbidden
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]storage.Summary, error) {
	list, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list drawings: %w", err)
	}
	return list, nil
}

// Document decodes the stored document of a drawing.
func (s *Service) Document(ctx context.Context, id, userID string) (*document.Document, error) {
	d, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return document.Decode(bytes.NewReader(d.Document))
}

// SaveDocument validates doc and replaces the stored one, keeping the
// background.
func (s *Service) SaveDocument(ctx context.Context, id, userID string, doc *document.Document) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	if err := doc.ValidateWithin(s.opts.MaxCanvas); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := document.Encode(&buf, doc); err != nil {
		return err
	}
	return s.store.Save(ctx, id, buf.Bytes(), nil)
}

func (s *Service) Rename(ctx context.Context, id, userID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return fmt.Errorf("%w: name must be 1-%d characters", ErrInvalid, maxNameLength)
	}
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	return s.store.Rename(ctx, id, name)
}

func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// SetBackground decodes a PNG, JPEG or BMP upload and stores it as PNG.
func (s *Service) SetBackground(ctx context.Context, id, userID string, r io.Reader) (image.Rectangle, error) {
	d, err := s.Get(ctx, id, userID)
	if err != nil {
		return image.Rectangle{}, err
	}
	img, _, err := document.DecodeBackground(r, s.opts.MaxCanvas)
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	var buf bytes.Buffer
	if err := document.EncodeBackground(&buf, img); err != nil {
		return image.Rectangle{}, err
	}
	if err := s.store.Save(ctx, id, d.Document, buf.Bytes()); err != nil {
		return image.Rectangle{}, err
	}
	return img.Bounds(), nil
}

// Background returns the stored PNG background, or nil if there is none.
func (s *Service) Background(ctx context.Context, id, userID string) ([]byte, error) {
	d, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return d.Background, nil
}

// Open loads a drawing into a new engine. The caller owns the engine and
// must Close it.
func (s *Service) Open(ctx context.Context, id, userID string) (*engine.Engine, error) {
	d, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	doc, err := document.Decode(bytes.NewReader(d.Document))
	if err != nil {
		return nil, err
	}
	var background image.Image
	if len(d.Background) > 0 {
		background, _, err = document.DecodeBackground(bytes.NewReader(d.Background), s.opts.MaxCanvas)
		if err != nil {
			return nil, err
		}
	}

	eng := engine.New(s.images, nil, s.opts)
	if err := eng.Load(doc, background); err != nil {
		eng.Close()
		return nil, err
	}
	return eng, nil
}

// SaveEngine stores the engine's current document. Backgrounds are only
// changed through SetBackground.
func (s *Service) SaveEngine(ctx context.Context, id string, eng *engine.Engine) error {
	var buf bytes.Buffer
	if err := document.Encode(&buf, eng.Document()); err != nil {
		return err
	}
	if err := s.store.Save(ctx, id, buf.Bytes(), nil); err != nil {
		return fmt.Errorf("save drawing %s: %w", id, err)
	}
	return nil
}

// Render composites a saved drawing.
func (s *Service) Render(ctx context.Context, id, userID string) (*storage.Drawing, *image.RGBA, error) {
	d, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, nil, err
	}
	eng, err := s.Open(ctx, id, userID)
	if err != nil {
		return nil, nil, err
	}
	defer eng.Close()
	return d, eng.Frame(), nil
}
