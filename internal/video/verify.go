package video

import (
	"context"
	"fmt"
	"math"

	"github.com/ivlev/story2video/internal/system"
)

// VerifyDuration checks that the container at path plays for frames/fps
// seconds, within one frame.
func VerifyDuration(ctx context.Context, ffprobePath, path string, frames, fps int) error {
	got, err := system.ProbeDuration(ctx, ffprobePath, path)
	if err != nil {
		return err
	}
	return checkDuration(got, frames, fps)
}

func checkDuration(got float64, frames, fps int) error {
	want := float64(frames) / float64(fps)
	if tolerance := 1 / float64(fps); math.Abs(got-want) > tolerance+1e-6 {
		return fmt.Errorf("encoded duration %.3fs, expected %.3fs (±%.3fs)", got, want, tolerance)
	}
	return nil
}
