package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vzahanych/emotion-stream/internal/chart"
	"github.com/vzahanych/emotion-stream/internal/config"
	"github.com/vzahanych/emotion-stream/internal/state"
)

var chartOutput string

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render the emotion chart from stored samples",
	Long: `Render the bar chart of every sample persisted in the sample database
(storage.db_path) without opening the camera. Writes PNG to --output, or to
stdout when the output is "-".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if _, err := os.Stat(cfg.Storage.DBPath); err != nil {
			return fmt.Errorf("no sample database at %s: %w", cfg.Storage.DBPath, err)
		}

		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		stateMgr, err := state.NewManager(cfg, log)
		if err != nil {
			return err
		}
		defer stateMgr.Close()

		tally, err := stateMgr.Tally(cmd.Context())
		if err != nil {
			return err
		}

		var out io.Writer = cmd.OutOrStdout()
		if chartOutput != "-" {
			f, err := os.Create(chartOutput)
			if err != nil {
				return fmt.Errorf("create %s: %w", chartOutput, err)
			}
			defer f.Close()
			out = f
		}

		renderer := chart.NewRenderer(chart.Config{
			Width:  cfg.Chart.Width,
			Height: cfg.Chart.Height,
			Title:  cfg.Chart.Title,
		})
		if err := renderer.RenderTo(out, tally); err != nil {
			return err
		}

		log.Info("Chart rendered", "output", chartOutput, "samples", tally.Total())
		return nil
	},
}

func init() {
	chartCmd.Flags().StringVarP(&chartOutput, "output", "o", "emotions_chart.png", `Output file, "-" for stdout`)
}
