package audio

import (
	"context"

	"go.uber.org/zap"

	"github.com/ivlev/story2video/internal/metrics"
)

// Integrator fetches and muxes a soundtrack, degrading to the video-only
// buffer on any failure.
type Integrator struct {
	Fetcher *Fetcher
	Muxer   *Muxer
	Log     *zap.Logger
}

// Integrate returns the muxed buffer and true, or video unchanged and false.
func (i *Integrator) Integrate(ctx context.Context, dir string, video []byte, src Source) ([]byte, bool) {
	log := i.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("audio", src.URL), zap.String("origin", src.Origin))

	data, err := i.Fetcher.Fetch(ctx, src.URL)
	if err != nil {
		log.Warn("audio fetch failed, exporting without sound", zap.Error(err))
		metrics.AudioMuxTotal.WithLabelValues(metrics.AudioDegraded).Inc()
		return video, false
	}

	muxed, err := i.Muxer.Mux(ctx, dir, video, data, src)
	if err != nil {
		log.Warn("audio mux failed, exporting without sound", zap.Error(err))
		metrics.AudioMuxTotal.WithLabelValues(metrics.AudioDegraded).Inc()
		return video, false
	}

	log.Info("audio track muxed", zap.Int("audio_bytes", len(data)))
	metrics.AudioMuxTotal.WithLabelValues(metrics.AudioMuxed).Inc()
	return muxed, true
}
