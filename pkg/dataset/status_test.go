package dataset

import (
	"strings"
	"testing"
)

func TestScanStatus(t *testing.T) {
	root := setupTestDataDir(t)

	statuses, err := ScanStatus(root, nil)
	if err != nil {
		t.Fatalf("ScanStatus() error = %v", err)
	}
	if len(statuses) != 1 || statuses[0].Year != 2019 {
		t.Fatalf("statuses = %+v, want the discovered year 2019", statuses)
	}

	status := statuses[0]
	if !status.RollCalls.Exists || status.RollCalls.Records != 1 {
		t.Errorf("roll calls = %+v, want 1 record", status.RollCalls)
	}
	if status.Subjects.Records != 2 {
		t.Errorf("subjects records = %d, want 2", status.Subjects.Records)
	}
	if status.Votes.Records != 1 {
		t.Errorf("vote sets = %d, want 1 keyed entry", status.Votes.Records)
	}
	if status.RollCalls.SizeBytes == 0 {
		t.Error("roll call size not captured")
	}
}

func TestScanStatusMissingAndExplicitYears(t *testing.T) {
	root := setupTestDataDir(t)

	statuses, err := ScanStatus(root, []int{2019, 2044})
	if err != nil {
		t.Fatalf("ScanStatus() error = %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("len(statuses) = %d, want 2", len(statuses))
	}

	missing := statuses[1]
	if missing.Year != 2044 {
		t.Fatalf("statuses[1].Year = %d, want 2044", missing.Year)
	}
	for _, file := range missing.files() {
		if file.Exists {
			t.Errorf("%s reported as existing for an uncollected year", file.Path)
		}
	}
}

func TestScanStatusCorruptFile(t *testing.T) {
	root := setupTestDataDir(t)
	writeFixture(t, DetailFile(root, 2019), `{broken`)

	statuses, err := ScanStatus(root, []int{2019})
	if err != nil {
		t.Fatalf("ScanStatus() error = %v", err)
	}

	details := statuses[0].Details
	if details.Error == "" {
		t.Error("corrupt file must surface its parse error")
	}
	if !details.Exists {
		t.Error("corrupt file still exists on disk")
	}
}

func TestFormatStatusReport(t *testing.T) {
	root := setupTestDataDir(t)
	statuses, err := ScanStatus(root, []int{2019, 2044})
	if err != nil {
		t.Fatalf("ScanStatus() error = %v", err)
	}

	report := FormatStatusReport(root, statuses)
	if !strings.Contains(report, "Dataset Status") {
		t.Error("report missing title")
	}
	if !strings.Contains(report, "Files: 5/10") {
		t.Errorf("report missing file tally:\n%s", report)
	}
	if !strings.Contains(report, "[OK]") || !strings.Contains(report, "[MISS]") {
		t.Errorf("report missing status markers:\n%s", report)
	}
	if !strings.Contains(report, "votacoes_2044.json") {
		t.Errorf("report missing the uncollected year's files:\n%s", report)
	}
}
