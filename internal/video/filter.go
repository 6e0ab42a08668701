package video

import (
	"fmt"
	"strconv"
	"strings"
)

// FilterChain is a linear ffmpeg -vf graph.
type FilterChain []string

// Scale resizes to exactly w x h.
func (f FilterChain) Scale(w, h int) FilterChain {
	return append(f, fmt.Sprintf("scale=%d:%d", w, h))
}

// EvenDimensions rounds both dimensions down to even numbers, which 4:2:0
// chroma subsampling requires.
func (f FilterChain) EvenDimensions() FilterChain {
	return append(f, "scale=trunc(iw/2)*2:trunc(ih/2)*2")
}

// Format converts to the given pixel format.
func (f FilterChain) Format(pixFmt string) FilterChain {
	return append(f, "format="+pixFmt)
}

// FrameCounter burns the output frame number into the top-left corner.
func (f FilterChain) FrameCounter() FilterChain {
	return append(f, "drawtext=text='%{n}':x=10:y=10:fontsize=24:fontcolor=yellow:box=1:boxcolor=black@0.5")
}

func (f FilterChain) String() string {
	return strings.Join(f, ",")
}

// keyframeExpr forces an IDR frame on every one-second boundary.
func keyframeExpr(fps int) string {
	return fmt.Sprintf("expr:eq(mod(n,%d),0)", fps)
}

// keyframeTimes lists the hinted keyframes as seconds for -force_key_frames.
func keyframeTimes(indices []int, fps int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.FormatFloat(float64(idx)/float64(fps), 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// encoderArgs returns codec-specific rate control and quality options. All
// hardware paths prefer output quality over latency.
func encoderArgs(encoder string, bitsPerSecond, crf int) []string {
	bitrate := strconv.Itoa(bitsPerSecond)
	switch encoder {
	case "h264_videotoolbox":
		return []string{"-b:v", bitrate, "-realtime", "0", "-profile:v", "high"}
	case "h264_nvenc":
		return []string{"-b:v", bitrate, "-preset", "p6", "-tune", "hq", "-rc", "vbr", "-profile:v", "high"}
	case "h264_qsv":
		return []string{"-b:v", bitrate, "-preset", "slower", "-profile:v", "high"}
	default: // libx264
		return []string{"-crf", strconv.Itoa(crf), "-preset", "medium", "-profile:v", "high"}
	}
}
