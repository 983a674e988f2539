package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"

	_ "golang.org/x/image/bmp"
)

// Encode writes doc as JSON.
func Encode(w io.Writer, doc *Document) error {
	if doc.Version == 0 {
		doc.Version = Version
	}
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

// Decode reads and validates a JSON document.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Version > Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidDocument, doc.Version)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// EncodeBackground writes img as PNG. Backgrounds are stored losslessly.
func EncodeBackground(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode background: %w", err)
	}
	return nil
}

// DecodeBackground reads a PNG, JPEG or BMP image and reports its format.
// The header is checked first so an image with a side past limit is
// rejected with ErrImageTooLarge before any pixels are allocated. A limit
// outside (0, MaxCanvas] means MaxCanvas.
func DecodeBackground(r io.Reader, limit int) (image.Image, string, error) {
	limit = clampLimit(limit)
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("read background: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode background: %w", err)
	}
	if cfg.Width > limit || cfg.Height > limit {
		return nil, "", fmt.Errorf("%w: %dx%d exceeds %d", ErrImageTooLarge, cfg.Width, cfg.Height, limit)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode background: %w", err)
	}
	return img, format, nil
}
