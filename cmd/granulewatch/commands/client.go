package commands

import (
	"github.com/opera-sds/granulewatch/internal/cmr"
	"github.com/opera-sds/granulewatch/internal/config"
	"github.com/opera-sds/granulewatch/internal/daily"
	"github.com/opera-sds/granulewatch/internal/dupes"
	"github.com/opera-sds/granulewatch/internal/latency"
	"github.com/opera-sds/granulewatch/internal/mapper"
)

// Provider types let tests substitute a stub archive for the real client.
type (
	archiveProvider func(cfg *config.Config) latency.ArchiveSource
	hitsProvider    func(cfg *config.Config) daily.HitsSource
	sourceProvider  func(cfg *config.Config) dupes.Source
)

func defaultSearcher(cfg *config.Config) mapper.GranuleSearcher {
	return cmr.New(cfg.ClientConfig())
}

func defaultArchive(cfg *config.Config) latency.ArchiveSource {
	return cmr.New(cfg.ClientConfig())
}

func defaultHits(cfg *config.Config) daily.HitsSource {
	return cmr.New(cfg.ClientConfig())
}

func defaultSource(cfg *config.Config) dupes.Source {
	return cmr.New(cfg.ClientConfig())
}
