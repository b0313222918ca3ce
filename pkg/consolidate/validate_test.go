package consolidate

import (
	"testing"

	"github.com/coolbeans/plenario/pkg/rollcall"
)

func TestValidate(t *testing.T) {
	summary := &rollcall.Summary{ID: "555-1", Data: "2019-03-01"}
	votes := []rollcall.Vote{{TipoVoto: rollcall.VoteYes}}
	directive := rollcall.Orientation{OrientacaoVoto: rollcall.DirectiveYes, SiglaPartidoBloco: "AAA"}
	noDirective := rollcall.Orientation{SiglaPartidoBloco: "BBB"}

	testCases := []struct {
		name   string
		entry  *rollcall.Entry
		valid  bool
		reason DropReason
	}{
		{
			name: "complete entry",
			entry: &rollcall.Entry{
				ID: "555", Summary: summary, Votes: votes,
				Orientations: []rollcall.Orientation{directive},
			},
			valid:  true,
			reason: DropNone,
		},
		{
			name: "missing summary despite votes and orientations",
			entry: &rollcall.Entry{
				ID: "555", Votes: votes,
				Orientations: []rollcall.Orientation{directive},
			},
			valid:  false,
			reason: DropNoSummary,
		},
		{
			name: "no votes despite orientations",
			entry: &rollcall.Entry{
				ID: "555", Summary: summary,
				Orientations: []rollcall.Orientation{directive},
			},
			valid:  false,
			reason: DropNoVotes,
		},
		{
			name:   "no orientations despite votes",
			entry:  &rollcall.Entry{ID: "555", Summary: summary, Votes: votes},
			valid:  false,
			reason: DropNoOrientations,
		},
		{
			name: "orientations all without directive",
			entry: &rollcall.Entry{
				ID: "555", Summary: summary, Votes: votes,
				Orientations: []rollcall.Orientation{noDirective, noDirective},
			},
			valid:  false,
			reason: DropNullDirectives,
		},
		{
			name: "released directive satisfies validity",
			entry: &rollcall.Entry{
				ID: "555", Summary: summary, Votes: votes,
				Orientations: []rollcall.Orientation{
					{OrientacaoVoto: rollcall.DirectiveReleased, SiglaPartidoBloco: "AAA"},
				},
			},
			valid:  true,
			reason: DropNone,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			valid, reason := Validate(tc.entry)
			if valid != tc.valid {
				t.Errorf("Validate() valid = %v, want %v", valid, tc.valid)
			}
			if reason != tc.reason {
				t.Errorf("Validate() reason = %q, want %q", reason, tc.reason)
			}
		})
	}
}
