package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ivlev/story2video/internal/audio"
	"github.com/ivlev/story2video/internal/config"
	"github.com/ivlev/story2video/internal/engine"
	"github.com/ivlev/story2video/internal/story"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "inspect [story]",
		Short: "Show per-slide frame counts for the given export settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := ctx.ensure()
			if err != nil {
				return err
			}
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			st, _, err := loadStory(path)
			if err != nil {
				return err
			}
			if err := st.Validate(); err != nil {
				return err
			}
			settings, err := flags.settings(cfg)
			if err != nil {
				return err
			}
			return printInspection(cmd.OutOrStdout(), st, settings)
		},
	}
	flags.register(cmd)
	return cmd
}

func printInspection(w io.Writer, st *story.Story, s config.ExportSettings) error {
	current := -1
	if s.Scope == config.ScopeCurrent {
		current = s.CurrentSlide
	}
	slides, err := st.Select(current)
	if err != nil {
		return err
	}
	offset := max(0, current)

	width, height := s.Size()
	fmt.Fprintf(w, "Title:  %s\n", st.Title)
	fmt.Fprintf(w, "Output: %dx%d @ %d fps, %s bitrate\n", width, height, s.FPS, s.Bitrate)
	fmt.Fprintf(w, "File:   %s\n\n", engine.Filename(st.Title, s.Resolution))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tDURATION\tFRAMES\tELEMENTS\tBACKGROUND")
	for i, sl := range slides {
		fmt.Fprintf(tw, "%d\t%s\t%.2fs\t%d\t%d\t%s\n",
			offset+i, sl.ID, sl.Duration, sl.FrameCount(s.FPS), len(sl.Elements), sl.Background.Type)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nTotal: %.2fs, %d frames\n", story.TotalDuration(slides), story.FrameCount(slides, s.FPS))
	if src, ok := audio.Resolve(st, slides); ok && s.IncludeAudio {
		fmt.Fprintf(w, "Audio: %s (%s)\n", src.URL, src.Origin)
	} else {
		fmt.Fprintln(w, "Audio: none")
	}
	return nil
}
