package camara

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ManifestPath returns the collect manifest location inside a data dir.
func ManifestPath(dataDir string) string {
	return filepath.Join(dataDir, "collect-manifest.json")
}

// YearRecord summarizes one collected year.
type YearRecord struct {
	Year            int       `json:"year"`
	CollectedAt     time.Time `json:"collected_at"`
	RollCalls       int       `json:"roll_calls"`
	Details         int       `json:"details"`
	VoteSets        int       `json:"vote_sets"`
	OrientationSets int       `json:"orientation_sets"`
	Propositions    int       `json:"propositions"`
	Complete        bool      `json:"complete"`
}

// Manifest tracks which years have been collected so reruns can skip them.
type Manifest struct {
	Years map[int]*YearRecord `json:"years"`

	path string
	mu   sync.Mutex
}

// LoadManifest reads a manifest from path. A missing file yields an empty
// manifest bound to that path.
func LoadManifest(path string) (*Manifest, error) {
	manifest := &Manifest{
		Years: make(map[int]*YearRecord),
		path:  path,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return manifest, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if err := json.Unmarshal(data, manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if manifest.Years == nil {
		manifest.Years = make(map[int]*YearRecord)
	}
	return manifest, nil
}

// Save writes the manifest back to its path.
func (manifest *Manifest) Save() error {
	manifest.mu.Lock()
	defer manifest.mu.Unlock()

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(manifest.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// YearComplete reports whether a year was fully collected before.
func (manifest *Manifest) YearComplete(year int) bool {
	manifest.mu.Lock()
	defer manifest.mu.Unlock()

	record, ok := manifest.Years[year]
	return ok && record.Complete
}

// RecordYear stores the outcome of one collected year.
func (manifest *Manifest) RecordYear(record YearRecord) {
	manifest.mu.Lock()
	defer manifest.mu.Unlock()

	stored := record
	manifest.Years[record.Year] = &stored
}

// Snapshot returns the recorded years in ascending order.
func (manifest *Manifest) Snapshot() []YearRecord {
	manifest.mu.Lock()
	defer manifest.mu.Unlock()

	records := make([]YearRecord, 0, len(manifest.Years))
	for _, record := range manifest.Years {
		records = append(records, *record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Year < records[j].Year
	})
	return records
}

// FormatManifest renders the collect manifest for the status command.
func FormatManifest(records []YearRecord) string {
	var b strings.Builder

	b.WriteString("\nCollect Manifest\n")
	b.WriteString(strings.Repeat("─", 70) + "\n")
	if len(records) == 0 {
		b.WriteString("  no years collected yet\n")
		return b.String()
	}

	for _, record := range records {
		marker := "[OK]"
		note := "complete"
		if !record.Complete {
			marker = "[PART]"
			note = "incomplete"
		}
		fmt.Fprintf(&b, "  %-8s %d  %s  %d roll calls | %d details | %d propositions  %s\n",
			marker, record.Year, record.CollectedAt.Format("2006-01-02"),
			record.RollCalls, record.Details, record.Propositions, note)
	}
	return b.String()
}
