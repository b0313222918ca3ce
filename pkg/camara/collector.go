package camara

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/coolbeans/plenario/pkg/dataset"
)

// DefaultWorkers bounds how many years are collected concurrently.
const DefaultWorkers = 4

// Year collection outcomes.
const (
	StatusCollected = "collected"
	StatusSkipped   = "skipped"
	StatusPlanned   = "planned"
	StatusFailed    = "failed"
)

// CollectorConfig controls a collection run.
type CollectorConfig struct {
	DataDir string
	Workers int
	DryRun  bool
	Force   bool
}

// Collector downloads the per-year dataset files from the chamber API.
type Collector struct {
	client   *Client
	config   CollectorConfig
	manifest *Manifest
	logger   *zap.Logger
}

// NewCollector creates a Collector writing under config.DataDir.
func NewCollector(client *Client, config CollectorConfig, logger *zap.Logger) (*Collector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	if config.DataDir == "" {
		return nil, errors.New("data dir is required")
	}
	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	manifest, err := LoadManifest(ManifestPath(config.DataDir))
	if err != nil {
		return nil, err
	}

	return &Collector{
		client:   client,
		config:   config,
		manifest: manifest,
		logger:   logger,
	}, nil
}

// Manifest exposes the collect manifest, mainly for status reporting.
func (collector *Collector) Manifest() *Manifest {
	return collector.manifest
}

// YearResult summarizes the collection of one year.
type YearResult struct {
	Year            int    `json:"year"`
	Status          string `json:"status"`
	RollCalls       int    `json:"roll_calls"`
	Details         int    `json:"details"`
	VoteSets        int    `json:"vote_sets"`
	OrientationSets int    `json:"orientation_sets"`
	Propositions    int    `json:"propositions"`
	ItemErrors      int    `json:"item_errors,omitempty"`
	Error           string `json:"error,omitempty"`
}

// CollectReport summarizes a collection run across years.
type CollectReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Duration    time.Duration `json:"duration_ns"`
	Years       []YearResult  `json:"years"`
	Collected   int           `json:"collected"`
	Skipped     int           `json:"skipped"`
	Planned     int           `json:"planned,omitempty"`
	Failed      int           `json:"failed"`
}

// Run collects the given years concurrently and reports per-year outcomes.
// It fails only when every year fails.
func (collector *Collector) Run(ctx context.Context, years []int) (*CollectReport, error) {
	if len(years) == 0 {
		return nil, errors.New("no years to collect")
	}
	years = dedupeYears(years)
	start := time.Now()

	semaphore := make(chan struct{}, collector.config.Workers)
	results := make(chan YearResult, len(years))
	var wg sync.WaitGroup

	for _, year := range years {
		wg.Add(1)
		go func(year int) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				results <- YearResult{Year: year, Status: StatusFailed, Error: ctx.Err().Error()}
				return
			}
			results <- collector.collectYear(ctx, year)
		}(year)
	}
	wg.Wait()
	close(results)

	byYear := make(map[int]YearResult, len(years))
	for result := range results {
		byYear[result.Year] = result
	}

	report := &CollectReport{GeneratedAt: time.Now().UTC()}
	for _, year := range years {
		result := byYear[year]
		report.Years = append(report.Years, result)
		switch result.Status {
		case StatusCollected:
			report.Collected++
		case StatusSkipped:
			report.Skipped++
		case StatusPlanned:
			report.Planned++
		case StatusFailed:
			report.Failed++
		}
	}
	report.Duration = time.Since(start)

	if report.Failed == len(years) {
		return report, fmt.Errorf("all %d years failed", len(years))
	}
	return report, nil
}

func (collector *Collector) collectYear(ctx context.Context, year int) YearResult {
	result := YearResult{Year: year}

	if !collector.config.Force && collector.manifest.YearComplete(year) {
		collector.logger.Info("skipping collected year", zap.Int("year", year))
		result.Status = StatusSkipped
		return result
	}
	if collector.config.DryRun {
		result.Status = StatusPlanned
		return result
	}

	collector.logger.Info("collecting year", zap.Int("year", year))

	items, err := collector.client.ListRollCalls(ctx, year)
	if err != nil {
		collector.logger.Warn("year failed", zap.Int("year", year), zap.Error(err))
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}
	if err := writeJSON(dataset.RollCallFile(collector.config.DataDir, year), items); err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}
	result.RollCalls = len(items)

	ids := rollCallIDs(items)
	details := make([]json.RawMessage, 0, len(ids))
	votes := make(map[string]dadosEnvelope)
	orientations := make(map[string]dadosEnvelope)
	seenPropositions := make(map[string]bool)
	var propositionIDs []string

	for _, id := range ids {
		if ctx.Err() != nil {
			result.Status = StatusFailed
			result.Error = ctx.Err().Error()
			return result
		}

		detail, err := collector.client.RollCallDetail(ctx, id)
		switch {
		case errors.Is(err, ErrNotFound):
			collector.logger.Debug("detail not found", zap.String("id", id))
		case err != nil:
			collector.logger.Warn("detail failed", zap.String("id", id), zap.Error(err))
			result.ItemErrors++
		default:
			details = append(details, detail)
			harvestPropositionIDs(detail, seenPropositions, &propositionIDs)
		}

		voteItems, err := collector.client.RollCallVotes(ctx, id)
		if err != nil && !errors.Is(err, ErrNotFound) {
			collector.logger.Warn("votes failed", zap.String("id", id), zap.Error(err))
			result.ItemErrors++
		} else if len(voteItems) > 0 {
			votes[id] = dadosEnvelope{Dados: voteItems}
		}

		orientationItems, err := collector.client.RollCallOrientations(ctx, id)
		if err != nil && !errors.Is(err, ErrNotFound) {
			collector.logger.Warn("orientations failed", zap.String("id", id), zap.Error(err))
			result.ItemErrors++
		} else if len(orientationItems) > 0 {
			orientations[id] = dadosEnvelope{Dados: orientationItems}
		}
	}

	subjects, subjectErrors := collector.collectSubjects(ctx, propositionIDs)
	result.ItemErrors += subjectErrors

	if err := writeJSON(dataset.DetailFile(collector.config.DataDir, year), details); err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}
	if err := writeJSON(dataset.SubjectFile(collector.config.DataDir, year), subjects); err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}
	if len(votes) > 0 {
		if err := writeJSON(dataset.VoteFile(collector.config.DataDir, year), votes); err != nil {
			result.Status = StatusFailed
			result.Error = err.Error()
			return result
		}
	}
	if len(orientations) > 0 {
		if err := writeJSON(dataset.OrientationFile(collector.config.DataDir, year), orientations); err != nil {
			result.Status = StatusFailed
			result.Error = err.Error()
			return result
		}
	}

	result.Status = StatusCollected
	result.Details = len(details)
	result.VoteSets = len(votes)
	result.OrientationSets = len(orientations)
	result.Propositions = len(subjects)

	collector.manifest.RecordYear(YearRecord{
		Year:            year,
		CollectedAt:     time.Now().UTC(),
		RollCalls:       result.RollCalls,
		Details:         result.Details,
		VoteSets:        result.VoteSets,
		OrientationSets: result.OrientationSets,
		Propositions:    result.Propositions,
		Complete:        result.ItemErrors == 0,
	})
	if err := collector.manifest.Save(); err != nil {
		collector.logger.Warn("manifest save failed", zap.Error(err))
	}

	collector.logger.Info("year collected",
		zap.Int("year", year),
		zap.Int("roll_calls", result.RollCalls),
		zap.Int("item_errors", result.ItemErrors))
	return result
}

// collectSubjects fetches themes and basic data for each proposition
// referenced by the year's roll calls.
func (collector *Collector) collectSubjects(ctx context.Context, propositionIDs []string) ([]subjectFileRecord, int) {
	records := make([]subjectFileRecord, 0, len(propositionIDs))
	itemErrors := 0

	for _, id := range propositionIDs {
		if ctx.Err() != nil {
			return records, itemErrors
		}

		temas, err := collector.client.PropositionSubjects(ctx, id)
		if err != nil && !errors.Is(err, ErrNotFound) {
			collector.logger.Warn("subjects failed", zap.String("proposition", id), zap.Error(err))
			itemErrors++
			continue
		}

		record := subjectFileRecord{
			ID:         id,
			Temas:      temas,
			DataColeta: time.Now().Format("2006-01-02 15:04:05"),
		}
		if record.Temas == nil {
			record.Temas = []json.RawMessage{}
		}

		proposition, err := collector.client.Proposition(ctx, id)
		if err == nil {
			var scan propositionScan
			if json.Unmarshal(proposition, &scan) == nil {
				record.Informacoes = &scan
			}
		} else if !errors.Is(err, ErrNotFound) {
			collector.logger.Warn("proposition failed", zap.String("proposition", id), zap.Error(err))
		}

		records = append(records, record)
	}
	return records, itemErrors
}

type dadosEnvelope struct {
	Dados []json.RawMessage `json:"dados"`
}

type subjectFileRecord struct {
	ID          string            `json:"id"`
	Temas       []json.RawMessage `json:"temas"`
	Informacoes *propositionScan  `json:"informacoes"`
	DataColeta  string            `json:"dataColeta"`
}

type propositionScan struct {
	SiglaTipo json.RawMessage `json:"siglaTipo,omitempty"`
	Numero    json.RawMessage `json:"numero,omitempty"`
	Ano       json.RawMessage `json:"ano,omitempty"`
	Ementa    json.RawMessage `json:"ementa,omitempty"`
}

type detailScan struct {
	URIProposicaoObjeto string `json:"uriProposicaoObjeto"`
	ProposicoesAfetadas []struct {
		URI string `json:"uri"`
	} `json:"proposicoesAfetadas"`
	ObjetosPossiveis []struct {
		URI string `json:"uri"`
	} `json:"objetosPossiveis"`
	UltimaApresentacaoProposicao struct {
		URI string `json:"uriProposicaoCitada"`
	} `json:"ultimaApresentacaoProposicao"`
}

var uriIDPattern = regexp.MustCompile(`/(\d+)/?$`)

func extractPropositionID(uri string) string {
	match := uriIDPattern.FindStringSubmatch(uri)
	if match == nil {
		return ""
	}
	return match[1]
}

// harvestPropositionIDs collects proposition ids referenced by a roll call
// detail, preserving first-seen order.
func harvestPropositionIDs(detail json.RawMessage, seen map[string]bool, ids *[]string) {
	var scan detailScan
	if err := json.Unmarshal(detail, &scan); err != nil {
		return
	}

	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			*ids = append(*ids, id)
		}
	}
	add(extractPropositionID(scan.URIProposicaoObjeto))
	for _, affected := range scan.ProposicoesAfetadas {
		add(extractPropositionID(affected.URI))
	}
	for _, object := range scan.ObjetosPossiveis {
		add(extractPropositionID(object.URI))
	}
	add(extractPropositionID(scan.UltimaApresentacaoProposicao.URI))
}

func rollCallIDs(items []json.RawMessage) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		var record struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(item, &record); err != nil || record.ID == "" {
			continue
		}
		ids = append(ids, record.ID)
	}
	return ids
}

func dedupeYears(years []int) []int {
	seen := make(map[int]bool, len(years))
	out := make([]int, 0, len(years))
	for _, year := range years {
		if !seen[year] {
			seen[year] = true
			out = append(out, year)
		}
	}
	sort.Ints(out)
	return out
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// FormatCollectReport renders a human-readable collection summary.
func FormatCollectReport(report *CollectReport) string {
	var b strings.Builder

	b.WriteString("\nCollection Report\n")
	b.WriteString(strings.Repeat("═", 70) + "\n")
	fmt.Fprintf(&b, "Years: %d | Collected: %d | Skipped: %d | Failed: %d | Took: %s\n",
		len(report.Years), report.Collected, report.Skipped, report.Failed,
		report.Duration.Round(time.Millisecond))
	b.WriteString(strings.Repeat("─", 70) + "\n")

	for _, year := range report.Years {
		marker := "[OK]"
		switch year.Status {
		case StatusSkipped, StatusPlanned:
			marker = "[SKIP]"
		case StatusFailed:
			marker = "[FAIL]"
		}
		fmt.Fprintf(&b, "  %-8s %d", marker, year.Year)

		switch year.Status {
		case StatusFailed:
			fmt.Fprintf(&b, "  %s\n", year.Error)
		case StatusPlanned:
			b.WriteString("  planned\n")
		case StatusSkipped:
			b.WriteString("  already collected\n")
		default:
			fmt.Fprintf(&b, "  %d roll calls | %d details | %d vote sets | %d orientation sets | %d propositions\n",
				year.RollCalls, year.Details, year.VoteSets, year.OrientationSets, year.Propositions)
			if year.ItemErrors > 0 {
				fmt.Fprintf(&b, "           %d items failed after retries\n", year.ItemErrors)
			}
		}
	}
	return b.String()
}

// FormatCollectReportJSON renders the collection summary as JSON.
func FormatCollectReportJSON(report *CollectReport) string {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}
