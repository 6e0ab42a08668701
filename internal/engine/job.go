package engine

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivlev/story2video/internal/video"
)

// RenderJob owns everything one render allocates: the scratch directory
// and the active backend. Close releases both.
type RenderJob struct {
	ID  string
	Dir string

	backend video.Backend
	log     *zap.Logger
}

func newJob(scratchRoot string, log *zap.Logger) (*RenderJob, error) {
	id := uuid.NewString()
	dir, err := os.MkdirTemp(scratchRoot, "story2video_"+id[:8]+"_")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &RenderJob{ID: id, Dir: dir, log: log.With(zap.String("job_id", id))}, nil
}

// use makes b the active backend, closing the previous one.
func (j *RenderJob) use(b video.Backend) error {
	err := j.closeBackend()
	j.backend = b
	return err
}

func (j *RenderJob) closeBackend() error {
	if j.backend == nil {
		return nil
	}
	err := j.backend.Close()
	if err != nil {
		j.log.Warn("backend close failed", zap.String("backend", j.backend.Name()), zap.Error(err))
	}
	j.backend = nil
	return err
}

// Close closes the backend and removes the scratch directory.
func (j *RenderJob) Close() error {
	return errors.Join(j.closeBackend(), os.RemoveAll(j.Dir))
}
