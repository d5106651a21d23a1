// Package mapper maps Sentinel-1 granules to RTC-S1 products via archive
// metadata queries.
package mapper

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/opera-sds/granulewatch/internal/cmr"
	"github.com/opera-sds/granulewatch/internal/sentinel"
)

// Status classifies the outcome of one granule lookup. "missing" means
// the archive confirmed no match; "query_error" means the archive could
// not be consulted. The two are never conflated.
type Status string

// Lookup outcome categories.
const (
	StatusMatched    Status = "matched"
	StatusMissing    Status = "missing"
	StatusInvalid    Status = "invalid"
	StatusQueryError Status = "query_error"
)

// ErrArchiveUnreachable is returned when every queried identifier failed,
// meaning the run could not determine anything about the archive state.
var ErrArchiveUnreachable = errors.New("archive unreachable: all queries failed")

// Mapping associates one input identifier with its lookup outcome.
// Immutable once produced.
type Mapping struct {
	S1Granule   string        `json:"s1_granule"`
	Status      Status        `json:"status"`
	RTCGranules []string      `json:"rtc_granules"`
	RTCCount    int           `json:"rtc_count"`
	Metadata    []cmr.Granule `json:"cmr_metadata,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Summary aggregates counts over one run.
type Summary struct {
	TotalInput       int `json:"total_s1_granules"`
	Matched          int `json:"s1_with_rtc"`
	Missing          int `json:"s1_without_rtc"`
	Invalid          int `json:"invalid_input"`
	QueryErrors      int `json:"query_errors"`
	TotalRTCGranules int `json:"total_rtc_granules"`
}

// RunReport is the aggregate of one invocation: mappings in first-seen
// input order plus summary counts.
type RunReport struct {
	Mappings []Mapping `json:"mappings"`
	Summary  Summary   `json:"summary"`
}

// MissingGranules lists the identifiers the archive confirmed absent.
// Invalid and query-error identifiers are excluded; absence of a match is
// not the same as inability to determine one.
func (r *RunReport) MissingGranules() []string {
	var missing []string

	for _, mapping := range r.Mappings {
		if mapping.Status == StatusMissing {
			missing = append(missing, mapping.S1Granule)
		}
	}

	return missing
}

// AllQueriesFailed reports whether at least one identifier was queried and
// every query failed.
func (r *RunReport) AllQueriesFailed() bool {
	queried := r.Summary.TotalInput - r.Summary.Invalid

	return queried > 0 && r.Summary.QueryErrors == queried
}

// GranuleSearcher is the archive lookup used per granule.
type GranuleSearcher interface {
	SearchGranules(ctx context.Context, query cmr.Query) ([]cmr.Granule, error)
}

// Mapper runs the lookup pipeline.
type Mapper struct {
	Searcher GranuleSearcher

	// ConceptID of the RTC-S1 collection. Defaults to cmr.RTCConceptID.
	ConceptID string

	// Workers bounds parallel lookups. Values below 2 run sequentially.
	Workers int

	// Progress receives per-granule progress lines. Nil disables them.
	Progress io.Writer
}

// ReadGranuleList reads one identifier per line, skipping blank lines and
// trimming whitespace.
func ReadGranuleList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer file.Close()

	var ids []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			ids = append(ids, line)
		}
	}

	err = scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}

	return ids, nil
}

// Dedupe removes duplicate identifiers preserving first-seen order, so
// duplicate input lines produce neither duplicate queries nor duplicate
// report entries.
func Dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))

	for _, id := range ids {
		if seen[id] {
			continue
		}

		seen[id] = true

		unique = append(unique, id)
	}

	return unique
}

// MapGranules resolves every identifier to exactly one status bucket and
// returns the aggregate report. Per-identifier failures never abort the
// run; the report carries them as query_error entries.
func (m *Mapper) MapGranules(ctx context.Context, ids []string) (*RunReport, error) {
	unique := Dedupe(ids)
	mappings := make([]Mapping, len(unique))

	m.progressf("querying archive for %d granules", len(unique))

	workers := m.Workers
	if workers < 2 {
		workers = 1
	}

	if workers > len(unique) {
		workers = max(len(unique), 1)
	}

	// Each worker writes only its own indices; results are assembled in
	// input order after all lookups settle.
	indices := make(chan int)

	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range indices {
				mappings[i] = m.lookup(ctx, unique[i], i+1, len(unique))
			}
		}()
	}

	for i := range unique {
		indices <- i
	}

	close(indices)
	wg.Wait()

	report := &RunReport{Mappings: mappings, Summary: summarize(mappings)}

	m.progressf("completed: %d/%d granules mapped to %d RTC granules",
		report.Summary.Matched, report.Summary.TotalInput, report.Summary.TotalRTCGranules)

	return report, nil
}

func (m *Mapper) lookup(ctx context.Context, id string, position, total int) Mapping {
	granule, err := sentinel.Parse(id)
	if err != nil {
		m.progressf("[%d/%d] %s INVALID", position, total, truncate(id))

		return Mapping{
			S1Granule:   id,
			Status:      StatusInvalid,
			RTCGranules: []string{},
			Error:       err.Error(),
		}
	}

	conceptID := m.ConceptID
	if conceptID == "" {
		conceptID = cmr.RTCConceptID
	}

	candidates, err := m.Searcher.SearchGranules(ctx, cmr.Query{
		ConceptID:    conceptID,
		TemporalFrom: granule.StartTime,
		TemporalTo:   granule.EndTime,
	})
	if err != nil {
		m.progressf("[%d/%d] %s ERROR: %v", position, total, truncate(id), err)

		return Mapping{
			S1Granule:   id,
			Status:      StatusQueryError,
			RTCGranules: []string{},
			Error:       err.Error(),
		}
	}

	// The temporal window is a coarse filter; only candidates derived
	// from this exact S1 granule count as matches.
	matched := make([]cmr.Granule, 0, len(candidates))

	for _, candidate := range candidates {
		if slices.Contains(candidate.UMM.InputGranules, id) {
			matched = append(matched, candidate)
		}
	}

	if len(matched) == 0 {
		m.progressf("[%d/%d] %s NOT FOUND", position, total, truncate(id))

		return Mapping{S1Granule: id, Status: StatusMissing, RTCGranules: []string{}}
	}

	rtcIDs := make([]string, len(matched))
	for i, candidate := range matched {
		rtcIDs[i] = candidate.Meta.NativeID
	}

	m.progressf("[%d/%d] %s FOUND %d RTC granule(s)", position, total, truncate(id), len(matched))

	return Mapping{
		S1Granule:   id,
		Status:      StatusMatched,
		RTCGranules: rtcIDs,
		RTCCount:    len(rtcIDs),
		Metadata:    matched,
	}
}

func summarize(mappings []Mapping) Summary {
	summary := Summary{TotalInput: len(mappings)}

	for _, mapping := range mappings {
		switch mapping.Status {
		case StatusMatched:
			summary.Matched++
			summary.TotalRTCGranules += mapping.RTCCount
		case StatusMissing:
			summary.Missing++
		case StatusInvalid:
			summary.Invalid++
		case StatusQueryError:
			summary.QueryErrors++
		}
	}

	return summary
}

func (m *Mapper) progressf(format string, args ...any) {
	if m.Progress == nil {
		return
	}

	_, _ = fmt.Fprintf(m.Progress, format+"\n", args...)
}

const truncateLen = 50

func truncate(id string) string {
	if len(id) <= truncateLen {
		return id
	}

	return id[:truncateLen] + "..."
}
