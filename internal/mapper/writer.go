package mapper

import (
	"encoding/json"
	"fmt"
	"os"
)

const artifactPerm = 0o644

// WriteResults writes the complete-results artifact: every deduplicated
// input identifier with its status and candidate list.
func WriteResults(path string, report *RunReport) error {
	return writeJSON(path, report)
}

// WriteMissing writes the missing-granules artifact: identifiers the
// archive confirmed absent. The file is always written, even when empty,
// so two runs over the same input produce the same artifact set.
func WriteMissing(path string, report *RunReport) (int, error) {
	missing := report.MissingGranules()
	if missing == nil {
		missing = []string{}
	}

	err := writeJSON(path, missing)
	if err != nil {
		return 0, err
	}

	return len(missing), nil
}

func writeJSON(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	err = os.WriteFile(path, append(data, '\n'), artifactPerm)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}
