package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opera-sds/granulewatch/internal/cmr"
	"github.com/opera-sds/granulewatch/internal/config"
	"github.com/opera-sds/granulewatch/internal/mapper"
)

const (
	inputMatched = "S1A_IW_SLC__1SDV_20220310T121213_20220310T121240_042259_050962_1662"
	inputMissing = "S1A_IW_SLC__1SDV_20220311T121213_20220311T121240_042273_050A12_77AD"
)

func testConfig() *config.Config {
	return &config.Config{
		CMR:     config.CMRConfig{PageSize: cmr.DefaultPageSize, MaxAttempts: 1},
		Mapper:  config.MapperConfig{Workers: 1, ConceptID: cmr.RTCConceptID},
		Latency: config.LatencyConfig{TemporalDays: 7, RevisionDays: 3},
		Daily:   config.DailyConfig{Days: 2},
		Dupes:   config.DupesConfig{OutputDir: "."},
	}
}

func stubLoader(t *testing.T) configLoader {
	t.Helper()

	return func(path string) (*config.Config, error) {
		assert.Empty(t, path)

		return testConfig(), nil
	}
}

type mapSearcher struct {
	err error
}

func (s *mapSearcher) SearchGranules(_ context.Context, query cmr.Query) ([]cmr.Granule, error) {
	if s.err != nil {
		return nil, s.err
	}

	if query.TemporalFrom.Format("20060102T150405") != "20220310T121213" {
		return nil, nil
	}

	return []cmr.Granule{{
		Meta: cmr.Meta{NativeID: "OPERA_L2_RTC-S1_T047-100000-IW1_20220310T121213Z_20220311T080000Z_S1A_30_v1.0"},
		UMM:  cmr.UMM{GranuleUR: "OPERA_L2_RTC-S1_T047-100000-IW1_20220310T121213Z_20220311T080000Z_S1A_30_v1.0", InputGranules: []string{inputMatched}},
	}}, nil
}

func writeInput(t *testing.T, lines string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "granules.txt")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))

	return path
}

func runMap(t *testing.T, searcher mapper.GranuleSearcher, args ...string) (*bytes.Buffer, *bytes.Buffer, error) {
	t.Helper()

	cmd := newMapCommandWithDeps(stubLoader(t), func(_ *config.Config) mapper.GranuleSearcher {
		return searcher
	})

	var stdout, stderr bytes.Buffer

	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	cmd.SetContext(context.Background())

	return &stdout, &stderr, cmd.Execute()
}

func TestMapCommandWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	results := filepath.Join(dir, "results.json")
	missing := filepath.Join(dir, "missing.json")

	input := writeInput(t, inputMatched+"\n"+inputMissing+"\n")

	stdout, _, err := runMap(t, &mapSearcher{},
		input, "-o", results, "-m", missing, "--silent")
	require.NoError(t, err)

	assert.FileExists(t, results)
	assert.FileExists(t, missing)
	assert.Contains(t, stdout.String(), "Total S1 granules")
}

func TestMapCommandNoReport(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, inputMatched+"\n")

	stdout, stderr, err := runMap(t, &mapSearcher{},
		input,
		"-o", filepath.Join(dir, "results.json"),
		"-m", filepath.Join(dir, "missing.json"),
		"--no-report", "--silent")
	require.NoError(t, err)

	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "wrote")
}

func TestMapCommandEmptyInputSucceeds(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, "\n\n")

	_, _, err := runMap(t, &mapSearcher{},
		input,
		"-o", filepath.Join(dir, "results.json"),
		"-m", filepath.Join(dir, "missing.json"),
		"--silent")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "results.json"))
}

func TestMapCommandUnreadableInputFails(t *testing.T) {
	_, _, err := runMap(t, &mapSearcher{}, filepath.Join(t.TempDir(), "absent.txt"), "--silent")
	require.Error(t, err)
}

func TestMapCommandArchiveUnreachable(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, inputMatched+"\n"+inputMissing+"\n")

	_, _, err := runMap(t, &mapSearcher{err: errors.New("cmr down")},
		input,
		"-o", filepath.Join(dir, "results.json"),
		"-m", filepath.Join(dir, "missing.json"),
		"--silent")
	require.ErrorIs(t, err, mapper.ErrArchiveUnreachable)

	// Artifacts are still written so a partial run is inspectable.
	assert.FileExists(t, filepath.Join(dir, "results.json"))
}
