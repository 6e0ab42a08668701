// Package audio attaches a story's soundtrack to an encoded video.
//
// Audio is best effort: any failure leaves the video-only buffer in place.
package audio

import (
	"fmt"
	"path"
	"strings"

	"github.com/ivlev/story2video/internal/story"
)

// Source is a resolved soundtrack reference.
type Source struct {
	URL    string
	Volume float64 // 1 is the original level, 0 is silent
	Origin string  // "story" or "slide <id>"
}

// Ext guesses a file extension from the URL path.
func (s Source) Ext() string {
	u := s.URL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	ext := strings.ToLower(path.Ext(u))
	if ext == "" || len(ext) > 5 {
		return ".audio"
	}
	return ext
}

// Resolve picks the soundtrack for a render: the story-level track first,
// then the first slide in scope that carries one.
func Resolve(st *story.Story, scope []story.Slide) (Source, bool) {
	if st != nil && st.Audio != nil && st.Audio.URL != "" {
		return Source{URL: st.Audio.URL, Volume: st.Audio.Gain(), Origin: "story"}, true
	}
	for i, sl := range scope {
		if sl.Audio != nil && sl.Audio.URL != "" {
			id := sl.ID
			if id == "" {
				id = fmt.Sprint(i)
			}
			return Source{URL: sl.Audio.URL, Volume: sl.Audio.Gain(), Origin: "slide " + id}, true
		}
	}
	return Source{}, false
}
