// Package consolidate joins the per-year collections into the two
// analysis tables: one row per roll call with aggregated counts, and one
// row per individual vote annotated with party-directive fidelity.
package consolidate

import "github.com/coolbeans/plenario/pkg/rollcall"

// DropReason classifies why a roll call was excluded from the output.
type DropReason string

const (
	DropNone           DropReason = ""
	DropNoSummary      DropReason = "no summary"
	DropNoVotes        DropReason = "no votes"
	DropNoOrientations DropReason = "no orientations"
	DropNullDirectives DropReason = "no usable directive"
)

// Validate applies the inclusion predicate. A roll call is retained only
// when its metadata is present, it has at least one vote, at least one
// orientation, and at least one orientation carries a non-empty directive.
// An entry without metadata is dropped no matter what else it carries.
// Dropping is expected filtering, not an error; callers count the reasons.
func Validate(entry *rollcall.Entry) (bool, DropReason) {
	if entry.Summary == nil {
		return false, DropNoSummary
	}
	if len(entry.Votes) == 0 {
		return false, DropNoVotes
	}
	if len(entry.Orientations) == 0 {
		return false, DropNoOrientations
	}
	if !entry.HasDirective() {
		return false, DropNullDirectives
	}
	return true, DropNone
}
