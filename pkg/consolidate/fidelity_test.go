package consolidate

import (
	"testing"

	"github.com/coolbeans/plenario/pkg/rollcall"
)

func TestResolveDirective(t *testing.T) {
	orientations := []rollcall.Orientation{
		{SiglaPartidoBloco: "AAA"},
		{OrientacaoVoto: rollcall.DirectiveNo, SiglaPartidoBloco: "AAA"},
		{OrientacaoVoto: rollcall.DirectiveYes, SiglaPartidoBloco: "AAA"},
		{OrientacaoVoto: rollcall.DirectiveReleased, SiglaPartidoBloco: "BBB"},
	}

	testCases := []struct {
		name  string
		party string
		want  string
	}{
		{name: "first non-empty directive wins", party: "AAA", want: rollcall.DirectiveNo},
		{name: "released is returned as-is", party: "BBB", want: rollcall.DirectiveReleased},
		{name: "unknown party", party: "ZZZ", want: ""},
		{name: "empty party", party: "", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveDirective(orientations, tc.party)
			if got != tc.want {
				t.Errorf("ResolveDirective(%q) = %q, want %q", tc.party, got, tc.want)
			}
		})
	}
}

func TestResolveDirectiveSkipsEmptyRecords(t *testing.T) {
	orientations := []rollcall.Orientation{
		{SiglaPartidoBloco: "AAA"},
		{SiglaPartidoBloco: "AAA"},
	}
	if got := ResolveDirective(orientations, "AAA"); got != "" {
		t.Errorf("ResolveDirective = %q, want empty when the party never issued one", got)
	}
}

func TestVerdict(t *testing.T) {
	testCases := []struct {
		name      string
		tipoVoto  string
		directive string
		want      *bool
	}{
		{name: "vote follows directive", tipoVoto: rollcall.VoteYes, directive: rollcall.DirectiveYes, want: boolPtr(true)},
		{name: "vote against directive", tipoVoto: rollcall.VoteNo, directive: rollcall.DirectiveYes, want: boolPtr(false)},
		{name: "released has no verdict", tipoVoto: rollcall.VoteYes, directive: rollcall.DirectiveReleased, want: nil},
		{name: "no directive has no verdict", tipoVoto: rollcall.VoteYes, directive: "", want: nil},
		{name: "obstruction against a no directive is plain false", tipoVoto: rollcall.VoteObstruction, directive: rollcall.DirectiveNo, want: boolPtr(false)},
		{name: "directive outside the vote enumeration never matches", tipoVoto: rollcall.VoteYes, directive: "Questão de Ordem", want: boolPtr(false)},
		{name: "matching obstruction", tipoVoto: rollcall.VoteObstruction, directive: "Obstrução", want: boolPtr(true)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Verdict(tc.tipoVoto, tc.directive)
			if !boolPtrEqual(got, tc.want) {
				t.Errorf("Verdict(%q, %q) = %v, want %v", tc.tipoVoto, tc.directive, formatBoolPtr(got), formatBoolPtr(tc.want))
			}
		})
	}
}

func TestBuildVoteRows(t *testing.T) {
	entry := &rollcall.Entry{
		ID: "555",
		Summary: &rollcall.Summary{
			ID: "555-1", Data: "2019-03-01", SiglaOrgao: "PLEN",
			Descricao: "Sessão deliberativa", Aprovacao: intPtr(1),
		},
		Votes: []rollcall.Vote{
			{
				TipoVoto:         rollcall.VoteYes,
				DataRegistroVoto: "2019-03-01T18:31:00",
				Deputado:         rollcall.Deputy{ID: 1, Nome: "Ana", SiglaPartido: "XXX", SiglaUf: "SP"},
			},
			{
				TipoVoto:         rollcall.VoteNo,
				DataRegistroVoto: "2019-03-01T18:32:00",
				Deputado:         rollcall.Deputy{ID: 2, Nome: "Beto", SiglaPartido: "YYY", SiglaUf: "RJ"},
			},
		},
		Orientations: []rollcall.Orientation{
			{OrientacaoVoto: rollcall.DirectiveYes, SiglaPartidoBloco: "XXX"},
			{OrientacaoVoto: rollcall.DirectiveReleased, SiglaPartidoBloco: "YYY"},
		},
	}
	row := BuildRollCallRow(2019, entry)

	rows := BuildVoteRows(row, entry)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	first := rows[0]
	if first.DeputadoNome != "Ana" || first.IDVotacao != "555" || first.Data != "2019-03-01" {
		t.Errorf("unexpected first row: %+v", first)
	}
	if first.OrientacaoPartido != rollcall.DirectiveYes {
		t.Errorf("first directive = %q, want %q", first.OrientacaoPartido, rollcall.DirectiveYes)
	}
	if first.SeguiuOrientacao == nil || !*first.SeguiuOrientacao {
		t.Errorf("first verdict = %v, want true", formatBoolPtr(first.SeguiuOrientacao))
	}

	second := rows[1]
	if second.DeputadoNome != "Beto" {
		t.Errorf("source order not preserved: %+v", second)
	}
	if second.OrientacaoPartido != rollcall.DirectiveReleased {
		t.Errorf("second directive = %q, want %q", second.OrientacaoPartido, rollcall.DirectiveReleased)
	}
	if second.SeguiuOrientacao != nil {
		t.Errorf("second verdict = %v, want nil for released party", formatBoolPtr(second.SeguiuOrientacao))
	}
}

func TestReleasedPartyHasNoVerdictForAnyVote(t *testing.T) {
	entry := &rollcall.Entry{
		ID:      "600",
		Summary: &rollcall.Summary{ID: "600", Data: "2019-05-01"},
		Votes: []rollcall.Vote{
			{TipoVoto: rollcall.VoteYes, Deputado: rollcall.Deputy{ID: 1, SiglaPartido: "YYY"}},
			{TipoVoto: rollcall.VoteNo, Deputado: rollcall.Deputy{ID: 2, SiglaPartido: "YYY"}},
			{TipoVoto: rollcall.VoteObstruction, Deputado: rollcall.Deputy{ID: 3, SiglaPartido: "YYY"}},
		},
		Orientations: []rollcall.Orientation{
			{OrientacaoVoto: rollcall.DirectiveReleased, SiglaPartidoBloco: "YYY"},
		},
	}
	row := BuildRollCallRow(2019, entry)

	for i, voteRow := range BuildVoteRows(row, entry) {
		if voteRow.SeguiuOrientacao != nil {
			t.Errorf("vote %d verdict = %v, want nil for released party", i, formatBoolPtr(voteRow.SeguiuOrientacao))
		}
	}
}

func boolPtr(v bool) *bool {
	return &v
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func formatBoolPtr(v *bool) string {
	if v == nil {
		return "<nil>"
	}
	if *v {
		return "true"
	}
	return "false"
}
