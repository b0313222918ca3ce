package export

import (
	"fmt"
	"path/filepath"

	"github.com/coolbeans/plenario/pkg/consolidate"
)

// Output format selectors.
const (
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
	FormatBoth   = "both"
)

// Write emits the consolidated tables under outputDir in the given format
// and returns the files written.
func Write(outputDir, format string, rollCalls []consolidate.RollCallRow, votes []consolidate.VoteRow) ([]string, error) {
	writeCSVs := format == FormatCSV || format == FormatBoth
	writeDB := format == FormatSQLite || format == FormatBoth
	if !writeCSVs && !writeDB {
		return nil, fmt.Errorf("unknown output format %q", format)
	}

	var written []string
	if writeCSVs {
		rollCallPath := filepath.Join(outputDir, RollCallCSVName)
		if err := WriteRollCallCSV(rollCallPath, rollCalls); err != nil {
			return written, err
		}
		written = append(written, rollCallPath)

		votePath := filepath.Join(outputDir, VoteCSVName)
		if err := WriteVoteCSV(votePath, votes); err != nil {
			return written, err
		}
		written = append(written, votePath)
	}
	if writeDB {
		dbPath := filepath.Join(outputDir, SQLiteName)
		if err := WriteSQLite(dbPath, rollCalls, votes); err != nil {
			return written, err
		}
		written = append(written, dbPath)
	}
	return written, nil
}
