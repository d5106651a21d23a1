// Package commands implements CLI command handlers for granulewatch.
package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/opera-sds/granulewatch/internal/config"
	"github.com/opera-sds/granulewatch/internal/mapper"
)

type configLoader func(path string) (*config.Config, error)

type searcherProvider func(cfg *config.Config) mapper.GranuleSearcher

// MapCommand holds configuration and dependencies for the map command.
type MapCommand struct {
	configPath  string
	resultsPath string
	missingPath string
	workers     int
	noReport    bool
	silent      bool

	loadConfig  configLoader
	newSearcher searcherProvider
}

// NewMapCommand creates the map subcommand.
func NewMapCommand() *cobra.Command {
	return newMapCommandWithDeps(config.LoadConfig, defaultSearcher)
}

func newMapCommandWithDeps(loadConfig configLoader, newSearcher searcherProvider) *cobra.Command {
	mc := &MapCommand{
		loadConfig:  loadConfig,
		newSearcher: newSearcher,
	}

	cmd := &cobra.Command{
		Use:   "map <granule-list-file>",
		Short: "Map Sentinel-1 granules to RTC-S1 products",
		Long: "Map each Sentinel-1 granule ID in the input file to the RTC-S1 " +
			"products derived from it, writing the full mapping and the list of " +
			"granules without products as JSON artifacts.",
		Args: cobra.ExactArgs(1),
		RunE: mc.run,
	}

	cmd.Flags().StringVarP(&mc.configPath, "config", "c", "", "config file path")
	cmd.Flags().StringVarP(&mc.resultsPath, "output", "o", "", "mapping results file (default "+config.DefaultMapperResultsPath+")")
	cmd.Flags().StringVarP(&mc.missingPath, "missing-output", "m", "", "missing granules file (default "+config.DefaultMapperMissingPath+")")
	cmd.Flags().IntVar(&mc.workers, "workers", 0, "parallel archive lookups (0 = config value)")
	cmd.Flags().BoolVar(&mc.noReport, "no-report", false, "skip the stdout report")
	cmd.Flags().BoolVar(&mc.silent, "silent", false, "disable progress output")

	return cmd
}

func (mc *MapCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := mc.loadConfig(mc.configPath)
	if err != nil {
		return err
	}

	mc.applyFlags(cfg)

	ids, err := mapper.ReadGranuleList(args[0])
	if err != nil {
		return err
	}

	var progress io.Writer
	if !mc.isSilent(cmd) {
		progress = cmd.ErrOrStderr()
	}

	m := &mapper.Mapper{
		Searcher:  mc.newSearcher(cfg),
		ConceptID: cfg.Mapper.ConceptID,
		Workers:   cfg.Mapper.Workers,
		Progress:  progress,
	}

	report, err := m.MapGranules(cmd.Context(), ids)
	if err != nil {
		return err
	}

	err = mapper.WriteResults(cfg.Mapper.ResultsPath, report)
	if err != nil {
		return err
	}

	missing, err := mapper.WriteMissing(cfg.Mapper.MissingPath, report)
	if err != nil {
		return err
	}

	if !mc.noReport {
		mapper.PrintReport(cmd.OutOrStdout(), report)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s and %s (%d missing)\n",
		cfg.Mapper.ResultsPath, cfg.Mapper.MissingPath, missing)

	if report.AllQueriesFailed() {
		return mapper.ErrArchiveUnreachable
	}

	return nil
}

func (mc *MapCommand) isSilent(cmd *cobra.Command) bool {
	if mc.silent {
		return true
	}

	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return false
	}

	return quiet
}

func (mc *MapCommand) applyFlags(cfg *config.Config) {
	if mc.resultsPath != "" {
		cfg.Mapper.ResultsPath = mc.resultsPath
	}

	if mc.missingPath != "" {
		cfg.Mapper.MissingPath = mc.missingPath
	}

	if mc.workers > 0 {
		cfg.Mapper.Workers = mc.workers
	}
}
