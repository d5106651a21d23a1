// Package latency measures how long the archive takes to publish derived
// products relative to their inputs.
package latency

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/opera-sds/granulewatch/internal/cmr"
)

const hoursPerDelta = float64(time.Hour)

// OutputToInput maps an OPERA product-type token to the collection its
// inputs come from.
var OutputToInput = map[string]string{
	"DSWx-HLS": "HLSL30",
	"DSWx-S1":  cmr.RTCShortName,
	"RTC-S1":   "SENTINEL-1A_SLC",
	"CSLC-S1":  "SENTINEL-1A_SLC",
}

// Series holds the three per-product latency measurements, in hours:
// output revision minus input revision, output revision minus input
// sensing end, and input revision minus input sensing end.
type Series struct {
	OutputInputRevision   []float64 `json:"output_inp_revision_diff"`
	OutputInputTemporal   []float64 `json:"output_inp_temporal_diff"`
	InputRevisionTemporal []float64 `json:"inp_revision_inp_temporal_diff"`
}

// Report maps a product type to its latency series.
type Report map[string]*Series

// ArchiveSource is the subset of the CMR client the collector needs.
type ArchiveSource interface {
	SearchGranules(ctx context.Context, query cmr.Query) ([]cmr.Granule, error)
	GranuleByUR(ctx context.Context, shortName, granuleUR string) (*cmr.Granule, error)
}

// Collector gathers latency measurements for a set of output collections.
type Collector struct {
	Source       ArchiveSource
	Collections  []string
	TemporalDays int
	RevisionDays int

	// Now is injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

// Collect queries each output collection for products updated within the
// revision window and sensed within the temporal window, resolves each
// product's latest input granule, and accumulates the latency deltas.
// Products whose input cannot be resolved are skipped, not fatal.
func (c *Collector) Collect(ctx context.Context) (Report, error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	today := now().UTC()
	temporalFrom := today.AddDate(0, 0, -c.TemporalDays)
	revisionFrom := today.AddDate(0, 0, -c.RevisionDays)

	report := Report{}

	// Different products frequently share the same latest input; fetch
	// each input's metadata once.
	inputCache := map[string]*cmr.Granule{}

	for _, collection := range c.Collections {
		granules, err := c.Source.SearchGranules(ctx, cmr.Query{
			ShortName:    collection,
			TemporalFrom: temporalFrom,
			TemporalTo:   today,
			RevisionFrom: revisionFrom,
			RevisionTo:   today,
		})
		if err != nil {
			return nil, fmt.Errorf("query collection %s: %w", collection, err)
		}

		for _, granule := range granules {
			c.accumulate(ctx, report, granule, inputCache)
		}
	}

	return report, nil
}

func (c *Collector) accumulate(ctx context.Context, report Report, granule cmr.Granule, inputCache map[string]*cmr.Granule) {
	productType := ProductType(granule.Meta.NativeID)

	inputShortName, known := OutputToInput[productType]
	if !known {
		slog.Warn("unknown product type", "granule", granule.Meta.NativeID)

		return
	}

	inputID := LatestInput(granule.UMM.InputGranules, productType)
	if inputID == "" {
		slog.Warn("no resolvable input granule", "granule", granule.Meta.NativeID)

		return
	}

	input, cached := inputCache[inputID]
	if !cached {
		fetched, err := c.Source.GranuleByUR(ctx, inputShortName, inputID)
		if err != nil {
			slog.Warn("input granule lookup failed", "input", inputID, "error", err)

			return
		}

		input = fetched
		inputCache[inputID] = input
	}

	deltas, err := computeDeltas(
		granule.Meta.RevisionDate,
		input.UMM.TemporalExtent.RangeDateTime.EndingDateTime,
		input.Meta.RevisionDate,
	)
	if err != nil {
		slog.Warn("unparseable timestamps", "granule", granule.Meta.NativeID, "error", err)

		return
	}

	series, ok := report[productType]
	if !ok {
		series = &Series{}
		report[productType] = series
	}

	series.OutputInputRevision = append(series.OutputInputRevision, deltas[0])
	series.OutputInputTemporal = append(series.OutputInputTemporal, deltas[1])
	series.InputRevisionTemporal = append(series.InputRevisionTemporal, deltas[2])
}

// ProductType extracts the product-type token from an OPERA granule ID
// (third underscore token, e.g. RTC-S1 in OPERA_L2_RTC-S1_...).
func ProductType(nativeID string) string {
	tokens := strings.Split(nativeID, "_")
	if len(tokens) < 3 {
		return ""
	}

	return tokens[2]
}

// LatestInput picks the most recent granule from an InputGranules list.
// Token positions holding the comparable timestamp differ per product
// type; entries too short for the rule are skipped.
func LatestInput(inputs []string, productType string) string {
	var latestTime, latestID string

	for _, input := range inputs {
		stamp := inputTimestamp(input, productType)
		if stamp == "" {
			continue
		}

		if stamp > latestTime {
			latestTime = stamp
			latestID = input
		}
	}

	if strings.Contains(latestID, ".") {
		latestID = strings.TrimSuffix(latestID, path.Ext(latestID))
	}

	return latestID
}

func inputTimestamp(input, productType string) string {
	switch productType {
	case "RTC-S1", "CSLC-S1":
		tokens := strings.Split(input, "_")
		if len(tokens) > 6 {
			return tokens[6]
		}
	case "DSWx-HLS":
		if !strings.Contains(input, "HLS") {
			return ""
		}

		tokens := strings.Split(input, ".")
		if len(tokens) > 6 {
			return tokens[6]
		}
	case "DSWx-S1":
		tokens := strings.Split(input, "_")
		if len(tokens) > 5 {
			return tokens[5]
		}
	}

	return ""
}

// computeDeltas returns, in hours: output revision - input revision,
// output revision - input sensing end, input revision - input sensing end.
func computeDeltas(outRevision, inputTemporalEnd, inputRevision string) ([3]float64, error) {
	var deltas [3]float64

	out, err := ParseTime(outRevision)
	if err != nil {
		return deltas, err
	}

	temporal, err := ParseTime(inputTemporalEnd)
	if err != nil {
		return deltas, err
	}

	revision, err := ParseTime(inputRevision)
	if err != nil {
		return deltas, err
	}

	deltas[0] = float64(out.Sub(revision)) / hoursPerDelta
	deltas[1] = float64(out.Sub(temporal)) / hoursPerDelta
	deltas[2] = float64(revision.Sub(temporal)) / hoursPerDelta

	return deltas, nil
}

// ParseTime parses archive timestamps, with or without fractional seconds.
func ParseTime(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse archive timestamp %q: %w", value, err)
	}

	return parsed.UTC(), nil
}

// WriteJSON dumps the raw latency series keyed by product type.
func WriteJSON(filePath string, report Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal latency report: %w", err)
	}

	err = os.WriteFile(filePath, append(data, '\n'), 0o644)
	if err != nil {
		return fmt.Errorf("write %s: %w", filePath, err)
	}

	return nil
}
