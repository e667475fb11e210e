// Command probe-classifier captures a few frames from the configured camera,
// sends each to the emotion classifier and prints what comes back.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vzahanych/emotion-stream/internal/camera"
	"github.com/vzahanych/emotion-stream/internal/camera/backend"
	"github.com/vzahanych/emotion-stream/internal/config"
	"github.com/vzahanych/emotion-stream/internal/emotion"
	"github.com/vzahanych/emotion-stream/internal/logger"
)

var (
	configPath string
	frames     int
	interval   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "probe-classifier",
	Short: "Capture frames and print the classifier's verdict for each",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return probe(cmd.Context())
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	rootCmd.Flags().IntVarP(&frames, "frames", "n", 5, "Number of frames to classify")
	rootCmd.Flags().DurationVar(&interval, "interval", time.Second, "Pause between frames")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func probe(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.LogConfig{Level: "warn", Format: "text"})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	fmt.Printf("Camera source:  %s\n", cfg.Camera.Source)
	fmt.Printf("Classifier URL: %s\n", cfg.Classifier.ServiceURL)
	fmt.Println()

	client := emotion.NewClient(emotion.ClientConfig{
		ServiceURL:      cfg.Classifier.ServiceURL,
		Timeout:         cfg.Classifier.Timeout,
		Fallback:        emotion.Label(cfg.Classifier.FallbackLabel),
		MaxWidth:        cfg.Classifier.MaxWidth,
		DetectorBackend: cfg.Classifier.Detector,
	}, log)
	if err := client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("classifier not reachable: %w", err)
	}
	fmt.Println("Classifier is reachable")

	cam := camera.NewShared(backend.Opener(cfg.Camera))
	if err := cam.Open(ctx); err != nil {
		return err
	}
	defer cam.Close()
	fmt.Println("Camera is open")
	fmt.Println()

	for i := 1; i <= frames; i++ {
		img, err := cam.NextFrame()
		if err != nil {
			fmt.Printf("[frame %d] camera delivered no frame: %v\n", i, err)
			return nil
		}

		start := time.Now()
		resp, err := client.Analyze(ctx, img)
		took := time.Since(start).Round(time.Millisecond)
		if err != nil {
			fmt.Printf("[frame %d] analyze failed after %s: %v (stream would show %q)\n",
				i, took, err, client.Fallback())
		} else {
			printFaces(i, took, resp)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
	return nil
}

func printFaces(i int, took time.Duration, resp *emotion.AnalyzeResponse) {
	fmt.Printf("[frame %d] %d face(s) in %s\n", i, len(resp.Results), took)
	for _, face := range resp.Results {
		fmt.Printf("  dominant=%s face_confidence=%.2f\n", face.DominantEmotion, face.FaceConfidence)

		labels := make([]string, 0, len(face.Emotion))
		for l := range face.Emotion {
			labels = append(labels, l)
		}
		sort.Slice(labels, func(a, b int) bool { return face.Emotion[labels[a]] > face.Emotion[labels[b]] })
		for _, l := range labels {
			fmt.Printf("    %-9s %6.2f%%\n", l, face.Emotion[l])
		}
	}
}
