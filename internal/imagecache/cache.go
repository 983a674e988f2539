// Package imagecache maps element kinds to sprite images.
package imagecache

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/artboard/artboard/internal/scene"
)

// PlaceholderSize is the edge length of synthesized sprites.
const PlaceholderSize = 64

var placeholderColors = map[scene.Kind]color.RGBA{
	scene.KindCloud:    {R: 0xf0, G: 0xf4, B: 0xff, A: 0xff},
	scene.KindMountain: {R: 0x6b, G: 0x5b, B: 0x4e, A: 0xff},
	scene.KindPine:     {R: 0x1b, G: 0x5e, B: 0x20, A: 0xff},
	scene.KindPond:     {R: 0x29, G: 0x79, B: 0xff, A: 0xff},
	scene.KindRain:     {R: 0x60, G: 0x7d, B: 0x8b, A: 0xff},
	scene.KindTree:     {R: 0x38, G: 0x8e, B: 0x3c, A: 0xff},
}

// Cache loads each kind's sprite once and hands out the same image on
// every later call. It is safe for concurrent use.
type Cache struct {
	fsys fs.FS

	mu     sync.Mutex
	images map[scene.Kind]image.Image
}

// New creates a cache reading "<kind>.png" files from fsys. A nil fsys
// makes every sprite a placeholder.
func New(fsys fs.FS) *Cache {
	return &Cache{
		fsys:   fsys,
		images: make(map[scene.Kind]image.Image),
	}
}

// NewDir creates a cache backed by a directory on disk.
func NewDir(dir string) *Cache {
	if dir == "" {
		return New(nil)
	}
	return New(os.DirFS(dir))
}

// Image returns the sprite for kind. A kind whose file is missing or
// unreadable gets a synthesized placeholder; the result is cached either way.
func (c *Cache) Image(kind scene.Kind) image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()

	if img, ok := c.images[kind]; ok {
		return img
	}

	img, err := c.load(kind)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("load sprite", "kind", kind, "error", err)
		}
		img = Placeholder(kind)
	}
	c.images[kind] = img
	return img
}

// Count returns how many kinds have been resolved so far.
func (c *Cache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}

func (c *Cache) load(kind scene.Kind) (image.Image, error) {
	if c.fsys == nil {
		return nil, fs.ErrNotExist
	}
	name := FileName(kind)
	f, err := c.fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return img, nil
}

// FileName is the asset file holding kind's sprite.
func FileName(kind scene.Kind) string {
	return strings.ToLower(kind.String()) + ".png"
}

// Placeholder draws a flat sprite for kind: a filled disc on a transparent
// square, so overlapping placeholders stay distinguishable.
func Placeholder(kind scene.Kind) *image.RGBA {
	fill, ok := placeholderColors[kind]
	if !ok {
		fill = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	}
	img := image.NewRGBA(image.Rect(0, 0, PlaceholderSize, PlaceholderSize))
	r := PlaceholderSize / 2
	for y := range PlaceholderSize {
		for x := range PlaceholderSize {
			dx, dy := x-r, y-r
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(x, y, fill)
			}
		}
	}
	return img
}
