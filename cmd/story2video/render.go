package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivlev/story2video/internal/engine"
	"github.com/ivlev/story2video/internal/surface"
	"github.com/ivlev/story2video/internal/system"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		flags        exportFlags
		output       string
		software     bool
		frameCounter bool
		stats        bool
		metricsAddr  string
	)

	cmd := &cobra.Command{
		Use:   "render [story]",
		Short: "Render a story to MP4",
		Long:  "Render a story file (YAML or JSON) to an H.264 MP4. Without an argument the newest file in input/stories/ is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := ctx.ensure()
			if err != nil {
				return err
			}
			system.InitResourceLimits(log)

			var path string
			if len(args) == 1 {
				path = args[0]
			}
			st, path, err := loadStory(path)
			if err != nil {
				return err
			}
			settings, err := flags.settings(cfg)
			if err != nil {
				return err
			}
			if software {
				cfg.Render.SoftwareOnly = true
			}
			if stats {
				cfg.ShowStats = true
			}
			if metricsAddr != "" {
				cfg.Metrics.Addr = metricsAddr
			}
			if !system.HasBinary(cfg.Render.FFmpegPath) {
				return fmt.Errorf("%s not found in PATH; install ffmpeg or set render.ffmpeg_path", cfg.Render.FFmpegPath)
			}
			if frameCounter && !system.CheckFilterSupport(cmd.Context(), cfg.Render.FFmpegPath, "drawtext") {
				fmt.Println("[!] ffmpeg was built without drawtext, frame counter disabled")
				frameCounter = false
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Metrics.Addr != "" {
				srv := serveMetrics(cfg.Metrics.Addr, log)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			baseDir := filepath.Dir(path)
			width, height := settings.Size()
			raster := surface.NewRaster(width, height, st.Canvas, surface.NewAssets(baseDir, log), log)
			defer raster.Close()

			orch := newOrchestrator(runCtx, cfg, baseDir, frameCounter, log)

			fmt.Println("--- [STORY2VIDEO] ---")
			fmt.Printf("[*] Story: %s | Slides: %d\n", path, len(st.Slides))
			fmt.Printf("[*] Output: %dx%d @ %d FPS | Bitrate: %s\n", width, height, settings.FPS, settings.Bitrate)
			fmt.Println("---------------------")

			bar := progressbar.NewOptions(100,
				progressbar.OptionSetDescription("Preparing"),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetRenderBlankState(true),
				progressbar.OptionClearOnFinish(),
			)
			orch.OnProgress = func(p engine.Progress) {
				bar.Describe(p.Status)
				_ = bar.Set(p.Percent)
			}

			res, err := orch.Render(runCtx, st, settings, raster)
			_ = bar.Finish()
			if err != nil {
				if errors.Is(err, context.Canceled) {
					fmt.Println("[!] Render canceled")
				}
				return err
			}

			if output == "" {
				output = defaultOutput(res.Filename)
			}
			if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(output, res.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			if res.FellBack {
				fmt.Println("[!] Hardware encoding failed, used the software encoder")
			}
			if settings.IncludeAudio && !res.AudioMuxed {
				fmt.Println("[*] Exported without a soundtrack")
			}
			fmt.Printf("[+++] Done! %d frames, %.1fs via %s: %s\n", res.Frames, res.Duration.Seconds(), res.Backend, output)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default output/<title>_<resolution>.mp4)")
	cmd.Flags().BoolVar(&software, "software", false, "Skip hardware encoders")
	cmd.Flags().BoolVar(&frameCounter, "frame-counter", false, "Burn the frame number into the video")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print a performance report and append to benchmark.log")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while rendering")

	return cmd
}

func serveMetrics(addr string, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", addr))
	return srv
}
