package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/opera-sds/granulewatch/internal/config"
	"github.com/opera-sds/granulewatch/internal/latency"
)

// LatencyCommand holds configuration and dependencies for the latency command.
type LatencyCommand struct {
	configPath   string
	jsonPath     string
	htmlPath     string
	temporalDays int
	revisionDays int
	collections  []string

	loadConfig configLoader
	newArchive archiveProvider

	// now is injectable for tests. Defaults to time.Now.
	now func() time.Time
}

// NewLatencyCommand creates the latency subcommand.
func NewLatencyCommand() *cobra.Command {
	return newLatencyCommandWithDeps(config.LoadConfig, defaultArchive, time.Now)
}

func newLatencyCommandWithDeps(loadConfig configLoader, newArchive archiveProvider, now func() time.Time) *cobra.Command {
	lc := &LatencyCommand{
		loadConfig: loadConfig,
		newArchive: newArchive,
		now:        now,
	}

	cmd := &cobra.Command{
		Use:   "latency",
		Short: "Measure production latency per product type",
		Long: "Query recently produced granules per collection, resolve each " +
			"product's latest input granule, and report the production latency " +
			"distributions as JSON and an HTML histogram page.",
		Args: cobra.NoArgs,
		RunE: lc.run,
	}

	cmd.Flags().StringVarP(&lc.configPath, "config", "c", "", "config file path")
	cmd.Flags().StringVarP(&lc.jsonPath, "output", "o", "latency.json", "latency measurements file")
	cmd.Flags().StringVar(&lc.htmlPath, "html", "latency.html", "histogram page file (empty = skip)")
	cmd.Flags().IntVar(&lc.temporalDays, "temporal-days", 0, "sensing window in days (0 = config value)")
	cmd.Flags().IntVar(&lc.revisionDays, "revision-days", 0, "revision window in days (0 = config value)")
	cmd.Flags().StringSliceVar(&lc.collections, "collections", nil, "output collections to measure (empty = config value)")

	return cmd
}

func (lc *LatencyCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := lc.loadConfig(lc.configPath)
	if err != nil {
		return err
	}

	lc.applyFlags(cfg)

	collector := &latency.Collector{
		Source:       lc.newArchive(cfg),
		Collections:  cfg.Latency.Collections,
		TemporalDays: cfg.Latency.TemporalDays,
		RevisionDays: cfg.Latency.RevisionDays,
		Now:          lc.now,
	}

	report, err := collector.Collect(cmd.Context())
	if err != nil {
		return err
	}

	err = latency.WriteJSON(lc.jsonPath, report)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", lc.jsonPath)

	if lc.htmlPath == "" {
		return nil
	}

	now := lc.now().UTC()
	temporalFrom := now.AddDate(0, 0, -cfg.Latency.TemporalDays)
	revisionFrom := now.AddDate(0, 0, -cfg.Latency.RevisionDays)

	file, err := os.Create(lc.htmlPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", lc.htmlPath, err)
	}
	defer file.Close()

	err = latency.RenderPage(file, report, temporalFrom, revisionFrom, now)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", lc.htmlPath)

	return file.Close()
}

func (lc *LatencyCommand) applyFlags(cfg *config.Config) {
	if lc.temporalDays > 0 {
		cfg.Latency.TemporalDays = lc.temporalDays
	}

	if lc.revisionDays > 0 {
		cfg.Latency.RevisionDays = lc.revisionDays
	}

	if len(lc.collections) > 0 {
		cfg.Latency.Collections = lc.collections
	}
}
