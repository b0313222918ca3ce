package consolidate

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/coolbeans/plenario/pkg/dataset"
	"github.com/coolbeans/plenario/pkg/rollcall"
)

// DefaultWorkers is the number of years processed concurrently when the
// caller does not choose one.
const DefaultWorkers = 4

// Options configures a consolidation run.
type Options struct {
	// Years selects which years to process. Empty means every year the
	// loader can discover.
	Years []int

	// Workers caps how many years are processed concurrently.
	Workers int

	// Logger receives diagnostics; nil disables them.
	Logger *zap.Logger
}

// Result carries the two output tables, globally ordered, plus the run
// report. Votes mirror the roll-call ordering, with each roll call's votes
// kept in source order.
type Result struct {
	RollCalls []RollCallRow
	Votes     []VoteRow
	Report    *Report
}

// entryOutput pairs a roll-call row with its vote rows so the global sort
// keeps the two tables aligned.
type entryOutput struct {
	row   RollCallRow
	votes []VoteRow
}

type yearOutcome struct {
	year    int
	stats   YearStats
	outputs []entryOutput
}

// Run executes the pipeline. Each worker owns one year end to end: load,
// index, validate, aggregate, resolve. A single coordinating step then
// concatenates the per-year outputs and applies the global ordering, so no
// state is shared while years are in flight. A year whose collections are
// unavailable is excluded and reported; Run fails only when every
// requested year fails or no year can be determined.
func Run(ctx context.Context, loader dataset.YearLoader, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	years, err := resolveYears(loader, opts.Years)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	start := time.Now()
	logger.Debug("starting consolidation",
		zap.Ints("years", years),
		zap.Int("workers", workers))

	outcomes := make(chan yearOutcome, len(years))
	semaphore := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for _, year := range years {
		wg.Add(1)
		go func(year int) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				outcomes <- yearOutcome{
					year:  year,
					stats: YearStats{Year: year, Failed: true, Error: ctx.Err().Error()},
				}
				return
			}

			outcomes <- processYear(loader, year, logger)
		}(year)
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	collected := make(map[int]yearOutcome, len(years))
	for outcome := range outcomes {
		collected[outcome.year] = outcome
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{GeneratedAt: time.Now()}
	var outputs []entryOutput
	failed := 0
	for _, year := range years {
		outcome := collected[year]
		report.Years = append(report.Years, outcome.stats)
		if outcome.stats.Failed {
			failed++
			continue
		}
		outputs = append(outputs, outcome.outputs...)
	}
	if failed == len(years) {
		return nil, fmt.Errorf("all %d requested years failed to load", len(years))
	}

	sortOutputs(outputs)

	result := &Result{Report: report}
	for _, output := range outputs {
		result.RollCalls = append(result.RollCalls, output.row)
		result.Votes = append(result.Votes, output.votes...)
	}
	report.TotalRollCalls = len(result.RollCalls)
	report.TotalVotes = len(result.Votes)
	report.Duration = time.Since(start)

	logger.Debug("consolidation finished",
		zap.Int("roll_calls", report.TotalRollCalls),
		zap.Int("votes", report.TotalVotes),
		zap.Duration("duration", report.Duration))
	return result, nil
}

// resolveYears picks the working set: the caller's years de-duplicated and
// sorted, or everything the loader discovers.
func resolveYears(loader dataset.YearLoader, requested []int) ([]int, error) {
	years := requested
	if len(years) == 0 {
		discovered, err := loader.Years()
		if err != nil {
			return nil, fmt.Errorf("failed to discover years: %w", err)
		}
		years = discovered
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("no years to process")
	}

	seen := make(map[int]bool, len(years))
	unique := make([]int, 0, len(years))
	for _, year := range years {
		if seen[year] {
			continue
		}
		seen[year] = true
		unique = append(unique, year)
	}
	sort.Ints(unique)
	return unique, nil
}

// processYear runs the whole per-year sequence with no shared state.
func processYear(loader dataset.YearLoader, year int, logger *zap.Logger) yearOutcome {
	data, err := loader.LoadYear(year)
	if err != nil {
		logger.Warn("year unavailable",
			zap.Int("year", year),
			zap.Error(err))
		return yearOutcome{
			year:  year,
			stats: YearStats{Year: year, Failed: true, Error: err.Error()},
		}
	}

	index := rollcall.BuildIndex(data)
	stats := YearStats{
		Year:            year,
		RollCalls:       len(data.Summaries),
		Details:         len(data.Details),
		VoteSets:        len(data.Votes),
		OrientationSets: len(data.Orientations),
		SubjectRecords:  len(data.Subjects),
		Indexed:         len(index.Keys),
		Malformed:       index.Malformed,
	}

	outcome := yearOutcome{year: year}
	for _, key := range index.Keys {
		entry := index.Entries[key]
		valid, reason := Validate(entry)
		if !valid {
			stats.countDrop(reason)
			continue
		}
		row := BuildRollCallRow(year, entry)
		outcome.outputs = append(outcome.outputs, entryOutput{
			row:   row,
			votes: BuildVoteRows(row, entry),
		})
		stats.Valid++
	}

	logger.Debug("year consolidated",
		zap.Int("year", year),
		zap.Int("indexed", stats.Indexed),
		zap.Int("valid", stats.Valid),
		zap.Int("dropped", stats.Dropped()),
		zap.Int("malformed", stats.Malformed))
	outcome.stats = stats
	return outcome
}

// sortOutputs applies the global ordering: year ascending, then roll-call
// date, ties broken by normalized identifier.
func sortOutputs(outputs []entryOutput) {
	sort.SliceStable(outputs, func(i, j int) bool {
		a, b := outputs[i].row, outputs[j].row
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Data != b.Data {
			return a.Data < b.Data
		}
		return a.IDVotacao < b.IDVotacao
	})
}
