package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultFetchTimeout bounds a remote soundtrack download.
const DefaultFetchTimeout = 15 * time.Second

const maxAudioBytes = 256 << 20

// Fetcher loads soundtrack bytes from http(s) URLs, file:// URLs or paths.
type Fetcher struct {
	Client  *http.Client
	Timeout time.Duration
	BaseDir string // relative paths resolve against it
}

// Fetch returns the raw audio bytes. The timeout covers the whole download.
func (f *Fetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return f.fetchHTTP(ctx, src)
	case strings.HasPrefix(src, "file://"):
		u, err := url.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", src, err)
		}
		return readLimited(u.Path)
	case strings.Contains(src, "://"):
		return nil, fmt.Errorf("unsupported audio scheme in %q", src)
	default:
		p := src
		if f.BaseDir != "" && !filepath.IsAbs(p) {
			p = filepath.Join(f.BaseDir, p)
		}
		return readLimited(p)
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, src string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", src, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	if len(data) > maxAudioBytes {
		return nil, fmt.Errorf("fetch %s: larger than %d bytes", src, maxAudioBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("fetch %s: empty body", src)
	}
	return data, nil
}

func readLimited(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxAudioBytes {
		return nil, fmt.Errorf("%s: larger than %d bytes", path, maxAudioBytes)
	}
	return os.ReadFile(path)
}
