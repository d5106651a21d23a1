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
	"github.com/opera-sds/granulewatch/internal/daily"
)

type stubHits struct {
	counts map[string]int
}

func (s *stubHits) Hits(_ context.Context, query cmr.Query) (int, error) {
	return s.counts[query.ShortName+"/"+query.TemporalFrom.Format("2006-01-02")], nil
}

func TestDailyCommandWritesArtifacts(t *testing.T) {
	source := &stubHits{counts: map[string]int{
		"HLSL30/2025-05-08": 12,
		"HLSL30/2025-05-09": 7,
	}}

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "daily.json")
	htmlPath := filepath.Join(dir, "daily.html")

	cmd := newDailyCommandWithDeps(
		stubLoader(t),
		func(_ *config.Config) daily.HitsSource { return source },
		func() time.Time { return time.Date(2025, 5, 9, 13, 30, 0, 0, time.UTC) },
	)

	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"-o", jsonPath, "--html", htmlPath, "--collections", "HLSL30", "--days", "2"})
	cmd.SetContext(context.Background())

	require.NoError(t, cmd.Execute())
	assert.FileExists(t, htmlPath)

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var rows []daily.Row

	require.NoError(t, json.Unmarshal(data, &rows))
	assert.Equal(t, []daily.Row{
		{Collection: "HLSL30", Date: "2025-05-08", Count: 12},
		{Collection: "HLSL30", Date: "2025-05-09", Count: 7},
	}, rows)
}
