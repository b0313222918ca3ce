package consolidate

import "github.com/coolbeans/plenario/pkg/rollcall"

// VoteRow is one row of the individual-votes table: a legislator's vote on
// a validated roll call, annotated with the party directive in force and
// whether the vote followed it.
type VoteRow struct {
	Year       int
	IDVotacao  string
	Data       string
	SiglaOrgao string
	Descricao  string
	Aprovacao  *int

	DeputadoID           int
	DeputadoNome         string
	DeputadoSiglaPartido string
	DeputadoSiglaUf      string
	TipoVoto             string
	DataRegistroVoto     string

	// OrientacaoPartido is the resolved directive for the legislator's
	// party, empty when the party issued none.
	OrientacaoPartido string

	// SeguiuOrientacao is nil when no directive applies (none issued, or
	// the party released its members), true or false otherwise.
	SeguiuOrientacao *bool
}

// ResolveDirective returns the party's directive for one roll call. When a
// party carries several orientation records the first one with a non-empty
// directive wins, in source order; an empty string means the party issued
// no usable directive.
func ResolveDirective(orientations []rollcall.Orientation, party string) string {
	for _, orientation := range orientations {
		if orientation.SiglaPartidoBloco != party {
			continue
		}
		if orientation.OrientacaoVoto != "" {
			return orientation.OrientacaoVoto
		}
	}
	return ""
}

// Verdict compares a vote against a resolved directive. It returns nil
// when the directive is absent or Liberada; otherwise true exactly when
// the vote category equals the directive category. A directive outside
// the vote-category enumeration simply never matches.
func Verdict(tipoVoto, directive string) *bool {
	if directive == "" || directive == rollcall.DirectiveReleased {
		return nil
	}
	followed := tipoVoto == directive
	return &followed
}

// BuildVoteRows produces the fidelity rows for one validated roll call.
// Descriptive fields come from the already-aggregated row so the two
// tables agree; votes keep their source order.
func BuildVoteRows(row RollCallRow, entry *rollcall.Entry) []VoteRow {
	rows := make([]VoteRow, 0, len(entry.Votes))
	for _, vote := range entry.Votes {
		directive := ResolveDirective(entry.Orientations, vote.Deputado.SiglaPartido)
		rows = append(rows, VoteRow{
			Year:                 row.Year,
			IDVotacao:            row.IDVotacao,
			Data:                 row.Data,
			SiglaOrgao:           row.SiglaOrgao,
			Descricao:            row.Descricao,
			Aprovacao:            row.Aprovacao,
			DeputadoID:           vote.Deputado.ID,
			DeputadoNome:         vote.Deputado.Nome,
			DeputadoSiglaPartido: vote.Deputado.SiglaPartido,
			DeputadoSiglaUf:      vote.Deputado.SiglaUf,
			TipoVoto:             vote.TipoVoto,
			DataRegistroVoto:     vote.DataRegistroVoto,
			OrientacaoPartido:    directive,
			SeguiuOrientacao:     Verdict(vote.TipoVoto, directive),
		})
	}
	return rows
}
