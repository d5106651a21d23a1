package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/opera-sds/granulewatch/internal/config"
	"github.com/opera-sds/granulewatch/internal/dupes"
)

const dayFlagLayout = "2006-01-02"

// Sentinel errors for dupes flag validation.
var (
	// ErrBadDayFlag indicates --from or --to is not a YYYY-MM-DD date.
	ErrBadDayFlag = errors.New("dates must be YYYY-MM-DD")
	// ErrDayRangeInverted indicates --to precedes --from.
	ErrDayRangeInverted = errors.New("--to precedes --from")
)

// DupesCommand holds configuration and dependencies for the dupes command.
type DupesCommand struct {
	configPath string
	from       string
	to         string
	outputDir  string
	resume     bool

	loadConfig configLoader
	newSource  sourceProvider
}

// NewDupesCommand creates the dupes subcommand.
func NewDupesCommand() *cobra.Command {
	return newDupesCommandWithDeps(config.LoadConfig, defaultSource)
}

func newDupesCommandWithDeps(loadConfig configLoader, newSource sourceProvider) *cobra.Command {
	dc := &DupesCommand{
		loadConfig: loadConfig,
		newSource:  newSource,
	}

	cmd := &cobra.Command{
		Use:   "dupes",
		Short: "Find duplicate and orphaned DSWx-HLS production",
		Long: "Join DSWx-HLS products against their HLS inputs per sensing day, " +
			"writing per-day CSVs of duplicated outputs, unprocessed inputs, and " +
			"inputs missing from the archive.",
		Args: cobra.NoArgs,
		RunE: dc.run,
	}

	cmd.Flags().StringVarP(&dc.configPath, "config", "c", "", "config file path")
	cmd.Flags().StringVar(&dc.from, "from", "", "first sensing day, YYYY-MM-DD")
	cmd.Flags().StringVar(&dc.to, "to", "", "last sensing day, YYYY-MM-DD (default --from)")
	cmd.Flags().StringVarP(&dc.outputDir, "output-dir", "o", "", "directory for per-day CSVs (default config value)")
	cmd.Flags().BoolVar(&dc.resume, "resume", false, "skip days whose outputs already exist")

	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func (dc *DupesCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := dc.loadConfig(dc.configPath)
	if err != nil {
		return err
	}

	if dc.outputDir != "" {
		cfg.Dupes.OutputDir = dc.outputDir
	}

	from, to, err := dc.dayRange()
	if err != nil {
		return err
	}

	err = os.MkdirAll(cfg.Dupes.OutputDir, 0o750)
	if err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	analyzer := &dupes.Analyzer{
		Source:         dc.newSource(cfg),
		RemoveLandsat9: cfg.Dupes.RemoveLandsat9,
	}

	return analyzer.AnalyzeRange(cmd.Context(), from, to, cfg.Dupes.OutputDir, dc.resume)
}

func (dc *DupesCommand) dayRange() (from, to time.Time, err error) {
	from, err = time.Parse(dayFlagLayout, dc.from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s", ErrBadDayFlag, dc.from)
	}

	if dc.to == "" {
		return from, from, nil
	}

	to, err = time.Parse(dayFlagLayout, dc.to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s", ErrBadDayFlag, dc.to)
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, ErrDayRangeInverted
	}

	return from, to, nil
}
