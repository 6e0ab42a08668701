package audio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ivlev/story2video/internal/story"
)

func TestResolveOrder(t *testing.T) {
	slides := []story.Slide{
		{ID: "a"},
		{ID: "b", Audio: &story.Audio{URL: "b.mp3"}},
		{ID: "c", Audio: &story.Audio{URL: "c.mp3"}},
	}

	half := 0.5
	src, ok := Resolve(&story.Story{Audio: &story.Audio{URL: "story.mp3", Volume: &half}}, slides)
	require.True(t, ok)
	assert.Equal(t, "story.mp3", src.URL)
	assert.Equal(t, "story", src.Origin)
	assert.Equal(t, 0.5, src.Volume)

	src, ok = Resolve(&story.Story{}, slides)
	require.True(t, ok)
	assert.Equal(t, "b.mp3", src.URL)
	assert.Equal(t, "slide b", src.Origin)
	assert.Equal(t, 1.0, src.Volume, "unset volume plays at full level")

	muted := 0.0
	src, ok = Resolve(&story.Story{Audio: &story.Audio{URL: "story.mp3", Volume: &muted}}, slides)
	require.True(t, ok)
	assert.Equal(t, 0.0, src.Volume)

	// scope restricted to the last slide
	src, ok = Resolve(&story.Story{}, slides[2:])
	require.True(t, ok)
	assert.Equal(t, "c.mp3", src.URL)

	_, ok = Resolve(&story.Story{Audio: &story.Audio{}}, slides[:1])
	assert.False(t, ok)
}

func TestSourceExt(t *testing.T) {
	assert.Equal(t, ".mp3", Source{URL: "https://cdn.example.com/a/track.MP3?sig=1"}.Ext())
	assert.Equal(t, ".m4a", Source{URL: "file:///tmp/x.m4a"}.Ext())
	assert.Equal(t, ".audio", Source{URL: "https://cdn.example.com/stream"}.Ext())
}

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.mp3":
			w.Write([]byte("ID3-bytes"))
		case "/slow.mp3":
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := &Fetcher{Client: srv.Client(), Timeout: 100 * time.Millisecond}

	data, err := f.Fetch(context.Background(), srv.URL+"/ok.mp3")
	require.NoError(t, err)
	assert.Equal(t, "ID3-bytes", string(data))

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.mp3")
	assert.ErrorContains(t, err, "404")

	start := time.Now()
	_, err = f.Fetch(context.Background(), srv.URL+"/slow.mp3")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFetchLocal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bg.wav"), []byte("RIFF"), 0o644))

	f := &Fetcher{BaseDir: dir}

	data, err := f.Fetch(context.Background(), "bg.wav")
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data))

	data, err = f.Fetch(context.Background(), "file://"+filepath.Join(dir, "bg.wav"))
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data))

	_, err = f.Fetch(context.Background(), "s3://bucket/bg.wav")
	assert.Error(t, err)

	_, err = f.Fetch(context.Background(), "nope.wav")
	assert.Error(t, err)
}

func TestMuxArgs(t *testing.T) {
	m := &Muxer{}
	args := strings.Join(m.buildArgs("v.mp4", "a.mp3", "out.mp4", 1), " ")
	assert.Contains(t, args, "-i v.mp4 -stream_loop -1 -i a.mp3")
	assert.Contains(t, args, "-c:v copy -c:a aac -b:a 192k")
	assert.Contains(t, args, "-shortest")
	assert.NotContains(t, args, "volume=")
	assert.True(t, strings.HasSuffix(args, "out.mp4"))

	m.Bitrate = "128k"
	args = strings.Join(m.buildArgs("v.mp4", "a.mp3", "out.mp4", 0.4), " ")
	assert.Contains(t, args, "-b:a 128k")
	assert.Contains(t, args, "-af volume=0.4")

	args = strings.Join(m.buildArgs("v.mp4", "a.mp3", "out.mp4", 0), " ")
	assert.Contains(t, args, "-af volume=0 ")
}

func TestIntegrateDegrades(t *testing.T) {
	dir := t.TempDir()
	video := []byte("video-only")

	in := &Integrator{
		Fetcher: &Fetcher{BaseDir: dir},
		Muxer:   &Muxer{FFmpegPath: filepath.Join(dir, "no-ffmpeg")},
		Log:     zaptest.NewLogger(t),
	}

	out, muxed := in.Integrate(context.Background(), dir, video, Source{URL: "missing.mp3", Origin: "story"})
	assert.False(t, muxed)
	assert.Equal(t, video, out)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "track.mp3"), []byte("ID3"), 0o644))
	out, muxed = in.Integrate(context.Background(), dir, video, Source{URL: "track.mp3", Origin: "story"})
	assert.False(t, muxed)
	assert.Equal(t, video, out)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "mux scratch files are cleaned up")
}
