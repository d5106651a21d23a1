package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/opera-sds/granulewatch/internal/config"
	"github.com/opera-sds/granulewatch/internal/daily"
)

// DailyCommand holds configuration and dependencies for the daily command.
type DailyCommand struct {
	configPath  string
	jsonPath    string
	htmlPath    string
	days        int
	collections []string

	loadConfig configLoader
	newHits    hitsProvider

	now func() time.Time
}

// NewDailyCommand creates the daily subcommand.
func NewDailyCommand() *cobra.Command {
	return newDailyCommandWithDeps(config.LoadConfig, defaultHits, time.Now)
}

func newDailyCommandWithDeps(loadConfig configLoader, newHits hitsProvider, now func() time.Time) *cobra.Command {
	dc := &DailyCommand{
		loadConfig: loadConfig,
		newHits:    newHits,
		now:        now,
	}

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Count products per day per collection",
		Long: "Query the archive for per-day granule counts over the recent " +
			"window and report them as JSON and an HTML bar chart page.",
		Args: cobra.NoArgs,
		RunE: dc.run,
	}

	cmd.Flags().StringVarP(&dc.configPath, "config", "c", "", "config file path")
	cmd.Flags().StringVarP(&dc.jsonPath, "output", "o", "daily_counts.json", "daily counts file")
	cmd.Flags().StringVar(&dc.htmlPath, "html", "daily_counts.html", "bar chart page file (empty = skip)")
	cmd.Flags().IntVar(&dc.days, "days", 0, "window in days (0 = config value)")
	cmd.Flags().StringSliceVar(&dc.collections, "collections", nil, "collections to count (empty = config value)")

	return cmd
}

func (dc *DailyCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := dc.loadConfig(dc.configPath)
	if err != nil {
		return err
	}

	if dc.days > 0 {
		cfg.Daily.Days = dc.days
	}

	if len(dc.collections) > 0 {
		cfg.Daily.Collections = dc.collections
	}

	collector := &daily.Collector{
		Source:      dc.newHits(cfg),
		Collections: cfg.Daily.Collections,
		Days:        cfg.Daily.Days,
		Now:         dc.now,
	}

	rows, err := collector.Collect(cmd.Context())
	if err != nil {
		return err
	}

	err = daily.WriteJSON(dc.jsonPath, rows)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", dc.jsonPath)

	if dc.htmlPath == "" {
		return nil
	}

	file, err := os.Create(dc.htmlPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", dc.htmlPath, err)
	}
	defer file.Close()

	err = daily.RenderPage(file, rows, dc.now().UTC())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", dc.htmlPath)

	return file.Close()
}
