// Package dupes analyzes DSWx-HLS duplicate production: how many output
// products the archive holds per HLS input granule, which inputs were
// never processed, and which referenced inputs are absent from the query
// window.
package dupes

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"time"

	"github.com/opera-sds/granulewatch/internal/cmr"
)

// Collections involved in DSWx-HLS production.
const (
	DSWxHLSShortName = "OPERA_L3_DSWX-HLS_V1"
	HLSL30ShortName  = "HLSL30"
	HLSS30ShortName  = "HLSS30"
)

// landsat9Platform is excluded from DSWx-HLS processing; its granules are
// expected orphans.
const landsat9Platform = "LANDSAT-9"

var (
	// hlsPattern matches the HLS granule ID prefix of an input file name.
	hlsPattern = regexp.MustCompile(`HLS[.][SL]30[.]T[0-9A-Za-z]{5}[.]\d{7}T\d{6}[.]v\d+[.]\d+`)

	// hlsSuffix is the per-band / mask file suffix appended to the ID.
	hlsSuffix = regexp.MustCompile(`[.](B[A-Za-z0-9]{2}|Fmask)[.]tif$`)
)

// MappingRow associates one DSWx-HLS output with its HLS input. Input
// fields stay empty when the input is missing from the query window.
type MappingRow struct {
	DSWxID            string
	DSWxRevisionDate  string
	InputProduct      string
	InputRevisionID   int
	InputRevisionDate string
	InputPlatform     string
	OutputCount       int
}

// OrphanRow is an HLS input granule with no DSWx-HLS output.
type OrphanRow struct {
	GranuleID    string
	RevisionID   int
	RevisionDate string
	Platform     string
}

// DayResult aggregates one sensing day.
type DayResult struct {
	Day           time.Time
	Mappings      []MappingRow
	Orphans       []OrphanRow
	MissingInputs []string
}

// Source is the archive search the analyzer needs.
type Source interface {
	SearchGranules(ctx context.Context, query cmr.Query) ([]cmr.Granule, error)
}

// Analyzer joins DSWx-HLS outputs against their HLS inputs.
type Analyzer struct {
	Source Source

	// RemoveLandsat9 drops LANDSAT-9 granules from the input set before
	// joining, so they don't show up as orphans.
	RemoveLandsat9 bool
}

// HLSInputFromList extracts the HLS granule ID from a DSWx-HLS
// InputGranules list. Entries are band files; the first entry matching
// the HLS naming pattern wins.
func HLSInputFromList(inputs []string) string {
	for _, input := range inputs {
		stripped := hlsSuffix.ReplaceAllString(input, "")
		if match := hlsPattern.FindString(stripped); match != "" {
			return match
		}
	}

	return ""
}

// AnalyzeDay queries one sensing day of outputs and inputs and joins them.
func (a *Analyzer) AnalyzeDay(ctx context.Context, day time.Time) (*DayResult, error) {
	from := day.UTC().Truncate(24 * time.Hour)
	to := from.AddDate(0, 0, 1)

	outputs, err := a.search(ctx, DSWxHLSShortName, from, to)
	if err != nil {
		return nil, err
	}

	hlsl30, err := a.search(ctx, HLSL30ShortName, from, to)
	if err != nil {
		return nil, err
	}

	hlss30, err := a.search(ctx, HLSS30ShortName, from, to)
	if err != nil {
		return nil, err
	}

	inputs := make(map[string]cmr.Granule, len(hlsl30)+len(hlss30))

	for _, granule := range append(hlsl30, hlss30...) {
		if a.RemoveLandsat9 && platform(granule) == landsat9Platform {
			continue
		}

		inputs[granule.Meta.NativeID] = granule
	}

	return joinDay(from, outputs, inputs), nil
}

func (a *Analyzer) search(ctx context.Context, shortName string, from, to time.Time) ([]cmr.Granule, error) {
	granules, err := a.Source.SearchGranules(ctx, cmr.Query{
		ShortName:    shortName,
		TemporalFrom: from,
		TemporalTo:   to,
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", shortName, err)
	}

	return granules, nil
}

func joinDay(day time.Time, outputs []cmr.Granule, inputs map[string]cmr.Granule) *DayResult {
	outputsPerInput := map[string]int{}
	inputByOutput := make(map[string]string, len(outputs))

	for _, output := range outputs {
		inputID := HLSInputFromList(output.UMM.InputGranules)
		inputByOutput[output.Meta.NativeID] = inputID
		outputsPerInput[inputID]++
	}

	result := &DayResult{Day: day}
	missingSeen := map[string]bool{}

	for _, output := range outputs {
		inputID := inputByOutput[output.Meta.NativeID]

		row := MappingRow{
			DSWxID:           output.Meta.NativeID,
			DSWxRevisionDate: output.Meta.RevisionDate,
			InputProduct:     inputID,
			OutputCount:      outputsPerInput[inputID],
		}

		input, found := inputs[inputID]
		if found {
			row.InputRevisionID = input.Meta.RevisionID
			row.InputRevisionDate = input.Meta.RevisionDate
			row.InputPlatform = platform(input)
		} else if !missingSeen[inputID] {
			missingSeen[inputID] = true

			result.MissingInputs = append(result.MissingInputs, inputID)
		}

		result.Mappings = append(result.Mappings, row)
	}

	for inputID, input := range inputs {
		if outputsPerInput[inputID] == 0 {
			result.Orphans = append(result.Orphans, OrphanRow{
				GranuleID:    inputID,
				RevisionID:   input.Meta.RevisionID,
				RevisionDate: input.Meta.RevisionDate,
				Platform:     platform(input),
			})
		}
	}

	// Regularize ordering so two runs produce identical files.
	sort.Slice(result.Mappings, func(i, j int) bool {
		return result.Mappings[i].DSWxID < result.Mappings[j].DSWxID
	})
	sort.Slice(result.Orphans, func(i, j int) bool {
		return result.Orphans[i].GranuleID < result.Orphans[j].GranuleID
	})
	sort.Strings(result.MissingInputs)

	return result
}

// AnalyzeRange runs AnalyzeDay for each day in [from, to] inclusive and
// writes the per-day artifacts. A failing day is logged and skipped; the
// range run continues.
func (a *Analyzer) AnalyzeRange(ctx context.Context, from, to time.Time, outputDir string, resume bool) error {
	for day := from.UTC().Truncate(24 * time.Hour); !day.After(to); day = day.AddDate(0, 0, 1) {
		if resume && OutputsExist(outputDir, day) {
			slog.Info("skipping day, outputs exist", "day", day.Format("2006-01-02"))

			continue
		}

		result, err := a.AnalyzeDay(ctx, day)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			slog.Error("day failed", "day", day.Format("2006-01-02"), "error", err)

			continue
		}

		err = WriteDayResult(outputDir, result)
		if err != nil {
			return err
		}
	}

	return nil
}

func platform(granule cmr.Granule) string {
	if len(granule.UMM.Platforms) == 0 {
		return ""
	}

	return granule.UMM.Platforms[0].ShortName
}
