package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"tradesim/internal/engine"
)

// NamePlaceholder in a file path is replaced by the run name, so every run of a sweep gets
// its own file.
const NamePlaceholder = "{name}"

type jsonDocument struct {
	RunID  string        `json:"runId"`
	Report engine.Report `json:"report"`
}

// JSONReporter writes the full report, including every series, as indented JSON.
type JSONReporter struct {
	path string
}

func NewJSONReporter(path string) *JSONReporter {
	return &JSONReporter{path: path}
}

func (j *JSONReporter) Write(_ context.Context, runID string, r engine.Report) error {
	data, err := json.MarshalIndent(jsonDocument{RunID: runID, Report: r}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(expandPath(j.path, r.Name), data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func expandPath(path, name string) string {
	return strings.ReplaceAll(path, NamePlaceholder, name)
}
