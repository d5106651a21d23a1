// Package daily counts archive products published per day per collection.
package daily

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/opera-sds/granulewatch/internal/cmr"
)

const dateLayout = "2006-01-02"

// Row is one collection/day count.
type Row struct {
	Collection string `json:"collection"`
	Date       string `json:"date"`
	Count      int    `json:"count"`
}

// HitsSource is the counts-only archive query the collector needs.
type HitsSource interface {
	Hits(ctx context.Context, query cmr.Query) (int, error)
}

// Collector gathers per-day product counts for a set of collections.
type Collector struct {
	Source      HitsSource
	Collections []string
	Days        int

	// Now is injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

// Collect issues one counts-only query per collection per day, oldest day
// first. Rows are ordered by collection then date, so output is stable.
func (c *Collector) Collect(ctx context.Context) ([]Row, error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	today := now().UTC().Truncate(24 * time.Hour)

	rows := make([]Row, 0, len(c.Collections)*c.Days)

	for _, collection := range c.Collections {
		for offset := c.Days - 1; offset >= 0; offset-- {
			day := today.AddDate(0, 0, -offset)

			count, err := c.Source.Hits(ctx, cmr.Query{
				ShortName:    collection,
				TemporalFrom: day,
				TemporalTo:   day.AddDate(0, 0, 1),
			})
			if err != nil {
				return nil, fmt.Errorf("count %s for %s: %w", collection, day.Format(dateLayout), err)
			}

			rows = append(rows, Row{
				Collection: collection,
				Date:       day.Format(dateLayout),
				Count:      count,
			})
		}
	}

	return rows, nil
}

// WriteJSON writes the count rows.
func WriteJSON(path string, rows []Row) error {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal daily counts: %w", err)
	}

	err = os.WriteFile(path, append(data, '\n'), 0o644)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}
