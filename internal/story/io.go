package story

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML or JSON document, fills defaults and validates it.
func Parse(data []byte) (*Story, error) {
	var st Story
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode story: %w", err)
	}
	st.applyDefaults()
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return &st, nil
}

// Load reads a story document from a file.
func Load(path string) (*Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	st, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return st, nil
}

// Save writes a story document as YAML.
func Save(st *Story, path string) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func (s *Story) applyDefaults() {
	if s.Canvas.Width <= 0 || s.Canvas.Height <= 0 {
		s.Canvas = Canvas{Width: DefaultCanvasWidth, Height: DefaultCanvasHeight}
	}
	for i := range s.Slides {
		if s.Slides[i].Background.Type == "" {
			s.Slides[i].Background.Type = BackgroundColor
		}
	}
}
