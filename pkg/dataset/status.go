package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// FileStatus describes one dataset file on disk.
type FileStatus struct {
	Path      string `json:"path"`
	Exists    bool   `json:"exists"`
	SizeBytes int64  `json:"size_bytes"`
	Records   int    `json:"records"`
	Error     string `json:"error,omitempty"`
}

// YearStatus groups the five dataset files of one year.
type YearStatus struct {
	Year         int        `json:"year"`
	RollCalls    FileStatus `json:"roll_calls"`
	Details      FileStatus `json:"details"`
	Subjects     FileStatus `json:"subjects"`
	Votes        FileStatus `json:"votes"`
	Orientations FileStatus `json:"orientations"`
}

func (status YearStatus) files() []FileStatus {
	return []FileStatus{
		status.RollCalls,
		status.Details,
		status.Subjects,
		status.Votes,
		status.Orientations,
	}
}

// ScanStatus inspects the dataset under root for the given years. With no
// years it scans every discoverable year; years that were never collected
// show up with all files missing.
func ScanStatus(root string, years []int) ([]YearStatus, error) {
	if len(years) == 0 {
		discovered, err := NewDirLoader(root).Years()
		if err != nil {
			return nil, err
		}
		years = discovered
	}

	statuses := make([]YearStatus, 0, len(years))
	for _, year := range years {
		statuses = append(statuses, YearStatus{
			Year:         year,
			RollCalls:    statFile(RollCallFile(root, year), countArrayRecords),
			Details:      statFile(DetailFile(root, year), countArrayRecords),
			Subjects:     statFile(SubjectFile(root, year), countArrayRecords),
			Votes:        statFile(VoteFile(root, year), countKeyedRecords),
			Orientations: statFile(OrientationFile(root, year), countKeyedRecords),
		})
	}
	return statuses, nil
}

func statFile(path string, count func([]byte) (int, error)) FileStatus {
	status := FileStatus{Path: path}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return status
	}
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Exists = true
	status.SizeBytes = info.Size()

	data, err := os.ReadFile(path)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	records, err := count(data)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Records = records
	return status
}

func countArrayRecords(data []byte) (int, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return 0, err
	}
	return len(items), nil
}

func countKeyedRecords(data []byte) (int, error) {
	var items map[string]json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return 0, err
	}
	return len(items), nil
}

// FormatStatusReport renders the dataset status in the usual report shape.
func FormatStatusReport(root string, statuses []YearStatus) string {
	var b strings.Builder

	present, total, records := 0, 0, 0
	for _, status := range statuses {
		for _, file := range status.files() {
			total++
			if file.Exists {
				present++
				records += file.Records
			}
		}
	}

	b.WriteString("\nDataset Status\n")
	b.WriteString(strings.Repeat("═", 70) + "\n")
	fmt.Fprintf(&b, "Root: %s | Years: %d | Files: %d/%d | Records: %s\n",
		root, len(statuses), present, total, humanize.Comma(int64(records)))
	b.WriteString(strings.Repeat("─", 70) + "\n")

	for _, status := range statuses {
		fmt.Fprintf(&b, "  %d\n", status.Year)
		for _, file := range status.files() {
			name := filepath.Base(file.Path)
			switch {
			case file.Error != "":
				fmt.Fprintf(&b, "    %-8s %-28s %s\n", "[FAIL]", name, file.Error)
			case !file.Exists:
				fmt.Fprintf(&b, "    %-8s %-28s\n", "[MISS]", name)
			default:
				fmt.Fprintf(&b, "    %-8s %-28s %8s records  %s\n", "[OK]", name,
					humanize.Comma(int64(file.Records)), humanize.Bytes(uint64(file.SizeBytes)))
			}
		}
	}
	return b.String()
}

// FormatStatusReportJSON renders the dataset status as JSON.
func FormatStatusReportJSON(statuses []YearStatus) string {
	data, err := json.MarshalIndent(statuses, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}
