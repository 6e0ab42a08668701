package surface

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Assets decodes and caches local images referenced by a story.
type Assets struct {
	log *zap.Logger

	mu      sync.Mutex
	images  map[string]image.Image
	failed  map[string]error
	baseDir string
}

// NewAssets resolves relative paths against baseDir.
func NewAssets(baseDir string, log *zap.Logger) *Assets {
	return &Assets{
		log:     log,
		images:  make(map[string]image.Image),
		failed:  make(map[string]error),
		baseDir: baseDir,
	}
}

// Image returns the decoded image at src. A failure is logged once and
// remembered so a broken asset doesn't cost a decode per frame.
func (a *Assets) Image(src string) (image.Image, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if img, ok := a.images[src]; ok {
		return img, nil
	}
	if err, ok := a.failed[src]; ok {
		return nil, err
	}

	img, err := a.load(src)
	if err != nil {
		a.failed[src] = err
		a.log.Warn("asset unavailable, drawing without it", zap.String("src", src), zap.Error(err))
		return nil, err
	}
	a.images[src] = img
	return img, nil
}

func (a *Assets) load(src string) (image.Image, error) {
	path, err := a.localPath(src)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func (a *Assets) localPath(src string) (string, error) {
	if src == "" {
		return "", fmt.Errorf("empty asset source")
	}
	if strings.HasPrefix(src, "file://") {
		u, err := url.Parse(src)
		if err != nil {
			return "", err
		}
		return u.Path, nil
	}
	if strings.Contains(src, "://") {
		return "", fmt.Errorf("remote asset %q must be resolved to a local file before rendering", src)
	}
	if a.baseDir != "" && !filepath.IsAbs(src) {
		return filepath.Join(a.baseDir, src), nil
	}
	return src, nil
}
