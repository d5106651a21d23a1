package dupes

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opera-sds/granulewatch/internal/cmr"
)

const (
	hlsInputA = "HLS.L30.T41WPU.2025121T071630.v2.0"
	hlsInputB = "HLS.S30.T56MQV.2025121T081500.v2.0"
	hlsOrphan = "HLS.L30.T11SKA.2025121T091200.v2.0"
)

func hlsGranule(nativeID, platformName string, revisionID int) cmr.Granule {
	return cmr.Granule{
		Meta: cmr.Meta{NativeID: nativeID, RevisionID: revisionID, RevisionDate: "2025-05-02T10:00:00Z"},
		UMM:  cmr.UMM{Platforms: []cmr.Platform{{ShortName: platformName}}},
	}
}

func dswxGranule(nativeID, inputID string) cmr.Granule {
	return cmr.Granule{
		Meta: cmr.Meta{NativeID: nativeID, RevisionDate: "2025-05-02T18:00:00Z"},
		UMM: cmr.UMM{InputGranules: []string{
			inputID + ".B02.tif",
			inputID + ".B03.tif",
			inputID + ".Fmask.tif",
		}},
	}
}

type stubSource struct {
	byShortName map[string][]cmr.Granule
}

func (s *stubSource) SearchGranules(_ context.Context, query cmr.Query) ([]cmr.Granule, error) {
	return s.byShortName[query.ShortName], nil
}

func newSource() *stubSource {
	return &stubSource{byShortName: map[string][]cmr.Granule{
		DSWxHLSShortName: {
			// Two outputs from the same input: a duplicate.
			dswxGranule("OPERA_L3_DSWx-HLS_T41WPU_20250501T071630Z_20250502T120000Z_L8_30_v1.1", hlsInputA),
			dswxGranule("OPERA_L3_DSWx-HLS_T41WPU_20250501T071630Z_20250502T170000Z_L8_30_v1.1", hlsInputA),
			dswxGranule("OPERA_L3_DSWx-HLS_T56MQV_20250501T081500Z_20250502T130000Z_S2B_30_v1.1", hlsInputB),
			// Output whose input is absent from the query window.
			dswxGranule("OPERA_L3_DSWx-HLS_T99ZZZ_20250501T091500Z_20250502T140000Z_S2B_30_v1.1", "HLS.S30.T99ZZZ.2025121T091500.v2.0"),
		},
		HLSL30ShortName: {
			hlsGranule(hlsInputA, "LANDSAT-8", 1),
			hlsGranule(hlsOrphan, "LANDSAT-8", 2),
			hlsGranule("HLS.L30.T00AAA.2025121T050000.v2.0", "LANDSAT-9", 3),
		},
		HLSS30ShortName: {
			hlsGranule(hlsInputB, "Sentinel-2B", 4),
		},
	}}
}

func TestHLSInputFromList(t *testing.T) {
	inputs := []string{
		"s3://bucket/not-hls.tif",
		"HLS.L30.T41WPU.2025121T071630.v2.0.B02.tif",
		"HLS.L30.T41WPU.2025121T071630.v2.0.B03.tif",
	}
	assert.Equal(t, hlsInputA, HLSInputFromList(inputs))
	assert.Empty(t, HLSInputFromList([]string{"nothing", "relevant"}))
}

func TestAnalyzeDay(t *testing.T) {
	analyzer := &Analyzer{Source: newSource(), RemoveLandsat9: true}

	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	result, err := analyzer.AnalyzeDay(context.Background(), day)
	require.NoError(t, err)

	require.Len(t, result.Mappings, 4)

	countsByInput := map[string]int{}
	for _, row := range result.Mappings {
		countsByInput[row.InputProduct] = row.OutputCount
	}

	assert.Equal(t, 2, countsByInput[hlsInputA], "duplicate production must be counted")
	assert.Equal(t, 1, countsByInput[hlsInputB])

	// Input metadata joined onto mapping rows.
	var rowA MappingRow

	for _, row := range result.Mappings {
		if row.InputProduct == hlsInputA {
			rowA = row

			break
		}
	}

	assert.Equal(t, 1, rowA.InputRevisionID)
	assert.Equal(t, "LANDSAT-8", rowA.InputPlatform)

	// The LANDSAT-9 granule is filtered, so the only orphan is the L8 one.
	require.Len(t, result.Orphans, 1)
	assert.Equal(t, hlsOrphan, result.Orphans[0].GranuleID)

	assert.Equal(t, []string{"HLS.S30.T99ZZZ.2025121T091500.v2.0"}, result.MissingInputs)
}

func TestAnalyzeDayKeepsLandsat9WhenNotFiltering(t *testing.T) {
	analyzer := &Analyzer{Source: newSource()}

	result, err := analyzer.AnalyzeDay(context.Background(), time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, result.Orphans, 2)
}

func TestWriteDayResultAndResume(t *testing.T) {
	analyzer := &Analyzer{Source: newSource(), RemoveLandsat9: true}
	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	result, err := analyzer.AnalyzeDay(context.Background(), day)
	require.NoError(t, err)

	dir := t.TempDir()
	assert.False(t, OutputsExist(dir, day))
	require.NoError(t, WriteDayResult(dir, result))
	assert.True(t, OutputsExist(dir, day))

	file, err := os.Open(filepath.Join(dir, "dswx_dupes_2025-05-01.csv"))
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5) // header + 4 mappings
	assert.Equal(t, "DSWx_ID", records[0][0])
	assert.Equal(t, "DSWx_Granule_Count", records[0][6])

	missing, err := os.ReadFile(filepath.Join(dir, "missing_hls_ids_2025-05-01.txt"))
	require.NoError(t, err)
	assert.Equal(t, "HLS.S30.T99ZZZ.2025121T091500.v2.0", string(missing))
}

func TestAnalyzeRangeWritesEachDay(t *testing.T) {
	analyzer := &Analyzer{Source: newSource(), RemoveLandsat9: true}
	dir := t.TempDir()

	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC)

	require.NoError(t, analyzer.AnalyzeRange(context.Background(), from, to, dir, false))

	for _, date := range []string{"2025-05-01", "2025-05-02", "2025-05-03"} {
		assert.FileExists(t, filepath.Join(dir, "dswx_dupes_"+date+".csv"))
		assert.FileExists(t, filepath.Join(dir, "hls_orphans_"+date+".csv"))
		assert.FileExists(t, filepath.Join(dir, "missing_hls_ids_"+date+".txt"))
	}
}
