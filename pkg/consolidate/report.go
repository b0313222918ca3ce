package consolidate

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// YearStats summarizes what happened to one year's collections.
type YearStats struct {
	Year            int `json:"year"`
	RollCalls       int `json:"roll_calls"`
	Details         int `json:"details"`
	VoteSets        int `json:"vote_sets"`
	OrientationSets int `json:"orientation_sets"`
	SubjectRecords  int `json:"subject_records"`
	Indexed         int `json:"indexed"`
	Valid           int `json:"valid"`

	DroppedNoSummary      int `json:"dropped_no_summary"`
	DroppedNoVotes        int `json:"dropped_no_votes"`
	DroppedNoOrientations int `json:"dropped_no_orientations"`
	DroppedNullDirectives int `json:"dropped_null_directives"`
	Malformed             int `json:"malformed_records"`

	Failed bool   `json:"failed,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (stats *YearStats) countDrop(reason DropReason) {
	switch reason {
	case DropNoSummary:
		stats.DroppedNoSummary++
	case DropNoVotes:
		stats.DroppedNoVotes++
	case DropNoOrientations:
		stats.DroppedNoOrientations++
	case DropNullDirectives:
		stats.DroppedNullDirectives++
	}
}

// Dropped returns the total number of roll calls excluded by validation.
func (stats *YearStats) Dropped() int {
	return stats.DroppedNoSummary + stats.DroppedNoVotes +
		stats.DroppedNoOrientations + stats.DroppedNullDirectives
}

// Report summarizes a full consolidation run.
type Report struct {
	GeneratedAt    time.Time     `json:"generated_at"`
	Duration       time.Duration `json:"duration_ns"`
	Years          []YearStats   `json:"years"`
	TotalRollCalls int           `json:"total_roll_calls"`
	TotalVotes     int           `json:"total_votes"`
}

// FormatReport formats a consolidation report for terminal output.
func FormatReport(report *Report) string {
	var builder strings.Builder

	builder.WriteString("\nConsolidation Report\n")
	builder.WriteString(strings.Repeat("═", 70) + "\n")
	builder.WriteString(fmt.Sprintf("Years: %d | Roll calls: %d | Individual votes: %d | Took: %s\n",
		len(report.Years), report.TotalRollCalls, report.TotalVotes,
		report.Duration.Round(time.Millisecond)))
	builder.WriteString(strings.Repeat("─", 70) + "\n")

	for _, stats := range report.Years {
		if stats.Failed {
			builder.WriteString(fmt.Sprintf("  %-8s %d  %s\n", "[FAIL]", stats.Year, stats.Error))
			continue
		}

		line := fmt.Sprintf("  %-8s %d  %d indexed, %d valid, %d dropped",
			"[OK]", stats.Year, stats.Indexed, stats.Valid, stats.Dropped())
		if stats.Malformed > 0 {
			line += fmt.Sprintf(", %d malformed", stats.Malformed)
		}
		builder.WriteString(line + "\n")

		if dropped := stats.Dropped(); dropped > 0 {
			builder.WriteString(fmt.Sprintf("           no summary: %d, no votes: %d, no orientations: %d, no directive: %d\n",
				stats.DroppedNoSummary, stats.DroppedNoVotes,
				stats.DroppedNoOrientations, stats.DroppedNullDirectives))
		}
	}

	return builder.String()
}

// FormatReportJSON formats a consolidation report as JSON.
func FormatReportJSON(report *Report) string {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}
