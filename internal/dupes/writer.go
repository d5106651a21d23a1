package dupes

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

func dupesFilename(day time.Time) string {
	return "dswx_dupes_" + day.Format(dayLayout) + ".csv"
}

func orphansFilename(day time.Time) string {
	return "hls_orphans_" + day.Format(dayLayout) + ".csv"
}

func missingFilename(day time.Time) string {
	return "missing_hls_ids_" + day.Format(dayLayout) + ".txt"
}

// OutputsExist reports whether the mapping artifact for a day is already
// on disk. Used by resume mode.
func OutputsExist(dir string, day time.Time) bool {
	_, err := os.Stat(filepath.Join(dir, dupesFilename(day)))

	return err == nil
}

// WriteDayResult writes the three per-day artifacts: the output/input
// mapping CSV, the orphaned-inputs CSV, and the missing-inputs list.
func WriteDayResult(dir string, result *DayResult) error {
	err := writeCSV(
		filepath.Join(dir, dupesFilename(result.Day)),
		[]string{"DSWx_ID", "DSWx_RevDate", "InputProduct", "InputRevId", "InputRevDate", "InputPlatform", "DSWx_Granule_Count"},
		len(result.Mappings),
		func(i int) []string {
			row := result.Mappings[i]

			revisionID := ""
			if row.InputRevisionDate != "" {
				revisionID = strconv.Itoa(row.InputRevisionID)
			}

			return []string{
				row.DSWxID, row.DSWxRevisionDate, row.InputProduct,
				revisionID, row.InputRevisionDate, row.InputPlatform,
				strconv.Itoa(row.OutputCount),
			}
		},
	)
	if err != nil {
		return err
	}

	err = writeCSV(
		filepath.Join(dir, orphansFilename(result.Day)),
		[]string{"HLS_GranuleId", "HLS_RevId", "HLS_RevDate", "HLS_Platform"},
		len(result.Orphans),
		func(i int) []string {
			row := result.Orphans[i]

			return []string{row.GranuleID, strconv.Itoa(row.RevisionID), row.RevisionDate, row.Platform}
		},
	)
	if err != nil {
		return err
	}

	missingPath := filepath.Join(dir, missingFilename(result.Day))

	err = os.WriteFile(missingPath, []byte(strings.Join(result.MissingInputs, "\n")), 0o644)
	if err != nil {
		return fmt.Errorf("write %s: %w", missingPath, err)
	}

	return nil
}

func writeCSV(path string, header []string, rows int, row func(int) []string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("write %s header: %w", path, err)
	}

	for i := range rows {
		err = writer.Write(row(i))
		if err != nil {
			return fmt.Errorf("write %s row %d: %w", path, i, err)
		}
	}

	writer.Flush()

	err = writer.Error()
	if err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	return file.Close()
}
