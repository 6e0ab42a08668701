package main

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivlev/story2video/internal/source"
	"github.com/ivlev/story2video/internal/story"
	"github.com/ivlev/story2video/internal/system"
	"github.com/ivlev/story2video/internal/textutil"
)

const (
	pdfInputDir   = "input/pdf"
	audioInputDir = "input/audio"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var (
		output       string
		title        string
		pageDuration float64
		duration     float64
		vary         bool
		seed         int64
		dpi          int
		workers      int
		audioPath    string
		audioSync    bool
	)

	cmd := &cobra.Command{
		Use:   "import [pdf|image-dir]",
		Short: "Turn a PDF or a folder of images into a story file",
		Long:  "Rasterize every page to PNG and write a story with one image slide per page. Without an argument the newest PDF in input/pdf/ is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := ctx.ensure()
			if err != nil {
				return err
			}

			input := ""
			if len(args) == 1 {
				input = args[0]
			} else {
				input, err = system.FindLatestFile(pdfInputDir, ".pdf")
				if err != nil {
					return fmt.Errorf("%w; put a PDF into %s/ or pass a path", err, pdfInputDir)
				}
				fmt.Printf("[*] Selected file: %s\n", input)
			}

			src, err := source.Open(input)
			if err != nil {
				return err
			}
			defer src.Close()

			if title == "" {
				title = source.TitleFromPath(input)
			}
			if output == "" {
				output = filepath.Join(storyInputDir, textutil.SlugOr(title, textutil.FallbackSlug)+".yaml")
			}
			baseDir := filepath.Dir(output)
			stem := strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))

			if audioPath == "" {
				if latest, err := system.FindLatestFile(audioInputDir, system.AudioExtensions...); err == nil {
					audioPath = latest
					fmt.Printf("[*] Selected audio: %s\n", audioPath)
				}
			}
			if audioPath != "" && audioSync && duration <= 0 {
				d, err := system.ProbeDuration(cmd.Context(), cfg.Render.FFprobePath, audioPath)
				if err != nil {
					log.Warn("could not read audio duration", zap.String("path", audioPath), zap.Error(err))
				} else {
					duration = d
					fmt.Printf("[*] Story length set from audio: %.2fs\n", duration)
				}
			}
			if audioPath != "" {
				if abs, err := filepath.Abs(audioPath); err == nil {
					audioPath = abs
				}
			}
			absBase, err := filepath.Abs(baseDir)
			if err != nil {
				return err
			}

			st, err := source.Import(cmd.Context(), src, source.ImportOptions{
				Title:         title,
				AssetDir:      filepath.Join(absBase, stem+"_assets"),
				BaseDir:       absBase,
				DPI:           dpi,
				Workers:       workers,
				PageDuration:  pageDuration,
				TotalDuration: duration,
				Vary:          vary,
				Seed:          seed,
				AudioPath:     audioPath,
				Log:           log,
			})
			if err != nil {
				return err
			}
			if err := story.Save(st, output); err != nil {
				return err
			}
			fmt.Printf("[+++] %d slides, %.2fs: %s\n", len(st.Slides), story.TotalDuration(st.Slides), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Story file to write (default input/stories/<title>.yaml)")
	cmd.Flags().StringVar(&title, "title", "", "Story title (default: input file name)")
	cmd.Flags().Float64Var(&pageDuration, "page-duration", source.DefaultPageDuration, "Seconds per page")
	cmd.Flags().Float64VarP(&duration, "duration", "d", 0, "Total story length in seconds, split across pages")
	cmd.Flags().BoolVar(&vary, "vary", true, "Vary page durations by up to 15% when --duration is set")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Seed for duration variation")
	cmd.Flags().IntVar(&dpi, "dpi", source.DefaultDPI, "PDF rasterization DPI")
	cmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "Pages rendered in parallel")
	cmd.Flags().StringVar(&audioPath, "audio", "", "Soundtrack (default: newest file in input/audio/)")
	cmd.Flags().BoolVar(&audioSync, "audio-sync", true, "Match the story length to the soundtrack")
	return cmd
}
