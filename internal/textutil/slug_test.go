package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Launch Day", "launch-day"},
		{"  Café — Crème brûlée!  ", "cafe-creme-brulee"},
		{"Q3/2025: results", "q3-2025-results"},
		{"Привет, мир", "привет-мир"},
		{"---", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}

func TestSlugOr(t *testing.T) {
	assert.Equal(t, "story", SlugOr("!!!", FallbackSlug))
	assert.Equal(t, "promo", SlugOr("Promo", FallbackSlug))
}
