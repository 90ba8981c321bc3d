// Package imageio loads annotation images from disk and produces fixed-width
// thumbnails for the review grid.
package imageio

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	gocache "github.com/patrickmn/go-cache"
	_ "golang.org/x/image/webp"
)

// Loader decodes images and caches thumbnails by path, width and file
// modification time. Thumbnails expire on a TTL since the grid revisits the
// same pages while the operator pans back and forth.
type Loader struct {
	thumbs *gocache.Cache
}

func NewLoader(ttl time.Duration) *Loader {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Loader{thumbs: gocache.New(ttl, 2*ttl)}
}

// Load decodes the image at path. imaging handles the registered formats;
// webp files that slip past the registered decoder get an explicit fallback.
func (l *Loader) Load(path string) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat image: %w", err)
	}
	img, err := imaging.Open(path)
	if err == nil {
		return img, nil
	}
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("open image: %w", openErr)
		}
		defer f.Close()
		if img, webpErr := webp.Decode(f); webpErr == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("decode image %s: %w", filepath.Base(path), err)
}

// Thumbnail returns a width-bounded rendition of the image, preserving the
// aspect ratio. Results are cached until the file changes or the TTL lapses.
func (l *Loader) Thumbnail(path string, width int) (image.Image, error) {
	if width <= 0 {
		width = 250
	}
	key := thumbKey(path, width)
	if cached, ok := l.thumbs.Get(key); ok {
		return cached.(image.Image), nil
	}
	img, err := l.Load(path)
	if err != nil {
		return nil, err
	}
	thumb := imaging.Resize(img, width, 0, imaging.Lanczos)
	l.thumbs.Set(key, image.Image(thumb), gocache.DefaultExpiration)
	return thumb, nil
}

func thumbKey(path string, width int) string {
	mod := int64(0)
	if info, err := os.Stat(path); err == nil {
		mod = info.ModTime().UnixNano()
	}
	return fmt.Sprintf("%s|%d|%d", path, width, mod)
}
