package assets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

var ErrUnsupportedImage = errors.New("unsupported image type")

// Image is a picture used by the PDF export
type Image struct {
	Name string
	Type string // "PNG", "JPG" or "GIF"
	Data []byte
}

// Set holds the export images. Nil entries are drawn without a picture.
type Set struct {
	Logo       *Image
	Watermark  *Image
	FooterLogo *Image
}

// Loader fetches the export images once. Export stays disabled until the
// configured logo and watermark are in memory.
type Loader struct {
	client        *resty.Client
	logoURL       string
	watermarkURL  string
	footerLogoURL string

	set    Set
	loaded bool
	mu     sync.RWMutex
}

// NewLoader creates a loader for the given image locations. Locations are
// http(s) URLs or local file paths; empty ones are skipped.
func NewLoader(logoURL, watermarkURL, footerLogoURL string) *Loader {
	return &Loader{
		client:        resty.New().SetTimeout(15 * time.Second),
		logoURL:       logoURL,
		watermarkURL:  watermarkURL,
		footerLogoURL: footerLogoURL,
	}
}

// Load fetches every configured image. A failed fetch is logged, the other
// images are still loaded, and Ready stays false.
func (l *Loader) Load(ctx context.Context) error {
	var set Set
	var errs []error

	fetch := func(name, location string) *Image {
		if location == "" {
			return nil
		}
		img, err := l.fetch(ctx, name, location)
		if err != nil {
			logrus.Warnf("Failed to load %s image from %s: %v", name, location, err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return nil
		}
		logrus.Debugf("Loaded %s image (%s, %d bytes)", name, img.Type, len(img.Data))
		return img
	}

	set.Logo = fetch("logo", l.logoURL)
	set.Watermark = fetch("watermark", l.watermarkURL)
	set.FooterLogo = fetch("footer", l.footerLogoURL)

	l.mu.Lock()
	l.set = set
	l.loaded = true
	l.mu.Unlock()

	return errors.Join(errs...)
}

// Ready reports whether export can run: the configured logo and watermark
// are loaded. The footer logo is optional.
func (l *Loader) Ready() bool {
	if l.logoURL == "" && l.watermarkURL == "" {
		return true
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.loaded {
		return false
	}
	if l.logoURL != "" && l.set.Logo == nil {
		return false
	}
	if l.watermarkURL != "" && l.set.Watermark == nil {
		return false
	}
	return true
}

// Set returns the loaded images
func (l *Loader) Set() Set {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.set
}

func (l *Loader) fetch(ctx context.Context, name, location string) (*Image, error) {
	var data []byte
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		resp, err := l.client.R().
			SetContext(ctx).
			Get(location)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("server returned status %d", resp.StatusCode())
		}
		data = resp.Body()
	} else {
		var err error
		if data, err = os.ReadFile(location); err != nil {
			return nil, err
		}
	}

	imageType, err := detectType(data)
	if err != nil {
		return nil, err
	}
	return &Image{Name: name, Type: imageType, Data: data}, nil
}

func detectType(data []byte) (string, error) {
	switch contentType := http.DetectContentType(data); contentType {
	case "image/png":
		return "PNG", nil
	case "image/jpeg":
		return "JPG", nil
	case "image/gif":
		return "GIF", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}
}
