package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opera-sds/granulewatch/internal/cmr"
	"github.com/opera-sds/granulewatch/internal/config"
	"github.com/opera-sds/granulewatch/internal/latency"
)

type stubArchive struct {
	outputs []cmr.Granule
	inputs  map[string]cmr.Granule
}

func (s *stubArchive) SearchGranules(_ context.Context, _ cmr.Query) ([]cmr.Granule, error) {
	return s.outputs, nil
}

func (s *stubArchive) GranuleByUR(_ context.Context, _, granuleUR string) (*cmr.Granule, error) {
	granule, ok := s.inputs[granuleUR]
	if !ok {
		return nil, cmr.ErrGranuleNotFound
	}

	return &granule, nil
}

func latencyNow() time.Time {
	return time.Date(2025, 5, 9, 0, 0, 0, 0, time.UTC)
}

func TestLatencyCommandWritesArtifacts(t *testing.T) {
	archive := &stubArchive{
		outputs: []cmr.Granule{{
			Meta: cmr.Meta{
				NativeID:     "OPERA_L2_RTC-S1_T047-100000-IW1_20250508T060000Z_20250508T180000Z_S1A_30_v1.0",
				RevisionDate: "2025-05-08T18:00:00Z",
			},
			UMM: cmr.UMM{InputGranules: []string{
				"S1A_IW_SLC__1SDV_20250508T055930_20250508T060000_059000_075000_AAAA",
			}},
		}},
		inputs: map[string]cmr.Granule{
			"S1A_IW_SLC__1SDV_20250508T055930_20250508T060000_059000_075000_AAAA": {
				Meta: cmr.Meta{RevisionDate: "2025-05-08T12:00:00Z"},
				UMM: cmr.UMM{TemporalExtent: cmr.TemporalExtent{RangeDateTime: cmr.RangeDateTime{
					BeginningDateTime: "2025-05-08T05:59:30Z",
					EndingDateTime:    "2025-05-08T06:00:00Z",
				}}},
			},
		},
	}

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "latency.json")
	htmlPath := filepath.Join(dir, "latency.html")

	cmd := newLatencyCommandWithDeps(
		stubLoader(t),
		func(_ *config.Config) latency.ArchiveSource { return archive },
		latencyNow,
	)

	var stdout, stderr bytes.Buffer

	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"-o", jsonPath, "--html", htmlPath, "--collections", cmr.RTCShortName})
	cmd.SetContext(context.Background())

	require.NoError(t, cmd.Execute())
	assert.FileExists(t, htmlPath)

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var report latency.Report

	require.NoError(t, json.Unmarshal(data, &report))
	require.Contains(t, report, "RTC-S1")
	assert.Len(t, report["RTC-S1"].OutputInputRevision, 1)
}

func TestLatencyCommandSkipsHTMLWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "latency.json")

	cmd := newLatencyCommandWithDeps(
		stubLoader(t),
		func(_ *config.Config) latency.ArchiveSource { return &stubArchive{} },
		latencyNow,
	)

	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"-o", jsonPath, "--html", ""})
	cmd.SetContext(context.Background())

	require.NoError(t, cmd.Execute())
	assert.FileExists(t, jsonPath)
	assert.NoFileExists(t, filepath.Join(dir, "latency.html"))
}
