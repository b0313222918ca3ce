// Package dataset loads the per-year collections written by the collector
// into the in-memory form the consolidation pipeline consumes.
package dataset

import "github.com/coolbeans/plenario/pkg/rollcall"

// YearLoader supplies per-year raw collections. Implementations report a
// structural failure (unreadable directory, undecodable collection) through
// the error return; a year whose optional collections are simply absent
// loads successfully with those collections empty.
type YearLoader interface {
	// Years lists the years discoverable by this loader, ascending.
	Years() ([]int, error)

	// LoadYear reads every collection for one year. The returned error
	// means the year is unavailable as a whole; per-record problems are
	// left to the indexer.
	LoadYear(year int) (*rollcall.YearData, error)
}
