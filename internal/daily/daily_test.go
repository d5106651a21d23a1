package daily

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opera-sds/granulewatch/internal/cmr"
)

type stubHits struct {
	counts map[string]int // "collection/YYYY-MM-DD" -> count
	err    error
}

func (s *stubHits) Hits(_ context.Context, query cmr.Query) (int, error) {
	if s.err != nil {
		return 0, s.err
	}

	return s.counts[query.ShortName+"/"+query.TemporalFrom.Format("2006-01-02")], nil
}

func fixedNow() time.Time {
	return time.Date(2025, 5, 9, 13, 30, 0, 0, time.UTC)
}

func TestCollect(t *testing.T) {
	source := &stubHits{counts: map[string]int{
		"HLSL30/2025-05-08":             12,
		"HLSL30/2025-05-09":             7,
		"OPERA_L2_RTC-S1_V1/2025-05-08": 340,
		"OPERA_L2_RTC-S1_V1/2025-05-09": 288,
	}}

	collector := &Collector{
		Source:      source,
		Collections: []string{"HLSL30", "OPERA_L2_RTC-S1_V1"},
		Days:        2,
		Now:         fixedNow,
	}

	rows, err := collector.Collect(context.Background())
	require.NoError(t, err)

	want := []Row{
		{Collection: "HLSL30", Date: "2025-05-08", Count: 12},
		{Collection: "HLSL30", Date: "2025-05-09", Count: 7},
		{Collection: "OPERA_L2_RTC-S1_V1", Date: "2025-05-08", Count: 340},
		{Collection: "OPERA_L2_RTC-S1_V1", Date: "2025-05-09", Count: 288},
	}
	assert.Equal(t, want, rows)
}

func TestCollectPropagatesQueryError(t *testing.T) {
	collector := &Collector{
		Source:      &stubHits{err: errors.New("boom")},
		Collections: []string{"HLSL30"},
		Days:        1,
		Now:         fixedNow,
	}

	_, err := collector.Collect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HLSL30")
}

func TestRenderPage(t *testing.T) {
	rows := []Row{
		{Collection: "HLSL30", Date: "2025-05-08", Count: 12},
		{Collection: "HLSL30", Date: "2025-05-09", Count: 7},
	}

	var buf bytes.Buffer

	require.NoError(t, RenderPage(&buf, rows, fixedNow()))
	assert.Contains(t, buf.String(), "HLSL30")
	assert.Contains(t, buf.String(), "2025-05-08")
}
