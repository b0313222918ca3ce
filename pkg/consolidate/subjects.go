package consolidate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/coolbeans/plenario/pkg/dataset"
	"github.com/coolbeans/plenario/pkg/rollcall"
)

// SubjectCount is one proposition theme and how many roll calls carry it.
type SubjectCount struct {
	Tema  string `json:"tema"`
	Count int    `json:"count"`
}

// SubjectYearStats is the theme coverage of one year.
type SubjectYearStats struct {
	Year        int `json:"year"`
	RollCalls   int `json:"roll_calls"`
	WithSubject int `json:"roll_calls_with_subject"`
	Distinct    int `json:"distinct_subjects"`
}

// SubjectReport summarizes theme coverage across the indexed roll calls of
// the requested years. Roll calls are counted before validation, since a
// theme exists regardless of whether the roll call survives filtering.
type SubjectReport struct {
	Years       []int              `json:"years"`
	FailedYears []int              `json:"failed_years,omitempty"`
	RollCalls   int                `json:"roll_calls"`
	WithSubject int                `json:"roll_calls_with_subject"`
	PerYear     []SubjectYearStats `json:"per_year"`
	Subjects    []SubjectCount     `json:"subjects"`
}

// BuildSubjectReport indexes the requested years and tallies how many roll
// calls each theme appears on. Unavailable years are skipped and listed in
// FailedYears.
func BuildSubjectReport(loader dataset.YearLoader, years []int) (*SubjectReport, error) {
	resolved, err := resolveYears(loader, years)
	if err != nil {
		return nil, err
	}

	report := &SubjectReport{Years: resolved}
	counts := make(map[string]int)
	for _, year := range resolved {
		data, err := loader.LoadYear(year)
		if err != nil {
			report.FailedYears = append(report.FailedYears, year)
			continue
		}
		index := rollcall.BuildIndex(data)
		yearStats := SubjectYearStats{Year: year}
		yearSubjects := make(map[string]bool)
		for _, key := range index.Keys {
			entry := index.Entries[key]
			yearStats.RollCalls++
			if len(entry.Subjects) > 0 {
				yearStats.WithSubject++
			}
			for _, tema := range entry.Subjects {
				counts[tema]++
				yearSubjects[tema] = true
			}
		}
		yearStats.Distinct = len(yearSubjects)
		report.RollCalls += yearStats.RollCalls
		report.WithSubject += yearStats.WithSubject
		report.PerYear = append(report.PerYear, yearStats)
	}
	if len(report.FailedYears) == len(resolved) {
		return nil, fmt.Errorf("all %d requested years failed to load", len(resolved))
	}

	for tema, count := range counts {
		report.Subjects = append(report.Subjects, SubjectCount{Tema: tema, Count: count})
	}
	sort.Slice(report.Subjects, func(i, j int) bool {
		if report.Subjects[i].Count != report.Subjects[j].Count {
			return report.Subjects[i].Count > report.Subjects[j].Count
		}
		return report.Subjects[i].Tema < report.Subjects[j].Tema
	})
	return report, nil
}

// FormatSubjectReport formats a subject report for terminal output. A
// positive top limits how many themes are listed.
func FormatSubjectReport(report *SubjectReport, top int) string {
	var builder strings.Builder

	builder.WriteString("\nSubject Report\n")
	builder.WriteString(strings.Repeat("═", 70) + "\n")
	builder.WriteString(fmt.Sprintf("Years: %v | Roll calls: %d | With subjects: %d | Distinct subjects: %d\n",
		report.Years, report.RollCalls, report.WithSubject, len(report.Subjects)))
	builder.WriteString(strings.Repeat("─", 70) + "\n")

	subjects := report.Subjects
	if top > 0 && top < len(subjects) {
		subjects = subjects[:top]
	}
	for _, subject := range subjects {
		builder.WriteString(fmt.Sprintf("  %-50s %5d\n", subject.Tema, subject.Count))
	}

	if len(report.PerYear) > 0 {
		builder.WriteString(strings.Repeat("─", 70) + "\n")
		for _, year := range report.PerYear {
			builder.WriteString(fmt.Sprintf("  %d  %d roll calls | %d with subjects | %d distinct\n",
				year.Year, year.RollCalls, year.WithSubject, year.Distinct))
		}
	}
	if len(report.FailedYears) > 0 {
		builder.WriteString(fmt.Sprintf("\nUnavailable years: %v\n", report.FailedYears))
	}

	return builder.String()
}

// FormatSubjectReportJSON formats a subject report as JSON.
func FormatSubjectReportJSON(report *SubjectReport) string {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}
