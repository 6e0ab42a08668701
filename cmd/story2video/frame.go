package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ivlev/story2video/internal/surface"
)

func newFrameCommand(ctx *commandContext) *cobra.Command {
	var (
		flags  exportFlags
		slide  int
		atMs   float64
		output string
	)

	cmd := &cobra.Command{
		Use:   "frame <story>",
		Short: "Render one instant of a slide to PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := ctx.ensure()
			if err != nil {
				return err
			}
			st, path, err := loadStory(args[0])
			if err != nil {
				return err
			}
			settings, err := flags.settings(cfg)
			if err != nil {
				return err
			}
			if slide < 0 || slide >= len(st.Slides) {
				return fmt.Errorf("slide %d out of range (%d slides)", slide, len(st.Slides))
			}

			width, height := settings.Size()
			raster := surface.NewRaster(width, height, st.Canvas, surface.NewAssets(filepath.Dir(path), log), log)
			defer raster.Close()

			f := surface.Frame{Slide: &st.Slides[slide], SlideIndex: slide, TimeMs: atMs}
			if err := raster.Commit(cmd.Context(), f); err != nil {
				return err
			}
			img, err := raster.Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			if output == "" {
				output = fmt.Sprintf("frame_s%d_%06.0fms.png", slide, atMs)
			}
			if err := writePNG(output, img); err != nil {
				return err
			}
			fmt.Printf("[+] %s\n", output)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&slide, "index", "i", 0, "Slide index (0-based)")
	cmd.Flags().Float64VarP(&atMs, "at", "t", 0, "Time within the slide, in milliseconds")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PNG path")
	return cmd
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
