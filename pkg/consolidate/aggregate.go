package consolidate

import "github.com/coolbeans/plenario/pkg/rollcall"

// RollCallRow is one row of the consolidated roll-call table. Field names
// follow the chamber's own vocabulary because they are the output contract;
// nil pointers become empty cells at the emitter.
type RollCallRow struct {
	Year                          int
	IDVotacao                     string
	Data                          string
	DataHoraRegistro              string
	SiglaOrgao                    string
	Descricao                     string
	Aprovacao                     *int
	ProposicaoObjeto              string
	IDOrgao                       *int
	IDEvento                      *int
	DescUltimaAberturaVotacao     string
	DataHoraUltimaAberturaVotacao string
	ProposicaoAfetadaID           string
	ProposicaoAfetadaSiglaTipo    string
	ProposicaoAfetadaNumero       *int
	ProposicaoAfetadaAno          *int
	ProposicaoAfetadaEmenta       string

	// Temas is the ordered de-duplicated subject list; emitters join it.
	Temas           []string
	QuantidadeTemas int

	TotalVotos     int
	VotosSim       int
	VotosNao       int
	VotosAbstencao int
	VotosObstrucao int
	VotosOutros    int

	TotalOrientacoes     int
	OrientacoesSim       int
	OrientacoesNao       int
	OrientacoesAbstencao int
	OrientacoesLiberada  int
	OrientacoesOutras    int
}

// BuildRollCallRow aggregates one validated roll call into its table row.
// Categories that do not occur count as zero. The row is keyed by the
// normalized identifier.
func BuildRollCallRow(year int, entry *rollcall.Entry) RollCallRow {
	summary := entry.Summary
	row := RollCallRow{
		Year:             year,
		IDVotacao:        entry.ID,
		Data:             summary.Data,
		DataHoraRegistro: summary.DataHoraRegistro,
		SiglaOrgao:       summary.SiglaOrgao,
		Descricao:        summary.Descricao,
		Aprovacao:        summary.Aprovacao,
		ProposicaoObjeto: summary.ProposicaoObjeto,
		Temas:            entry.Subjects,
		QuantidadeTemas:  len(entry.Subjects),
	}

	if detail := entry.Detail; detail != nil {
		row.IDOrgao = detail.IDOrgao
		row.IDEvento = detail.IDEvento
		row.DescUltimaAberturaVotacao = detail.DescUltimaAberturaVotacao
		row.DataHoraUltimaAberturaVotacao = detail.DataHoraUltimaAberturaVotacao
		if len(detail.ProposicoesAfetadas) > 0 {
			affected := detail.ProposicoesAfetadas[0]
			row.ProposicaoAfetadaID = string(affected.ID)
			row.ProposicaoAfetadaSiglaTipo = affected.SiglaTipo
			row.ProposicaoAfetadaNumero = affected.Numero
			row.ProposicaoAfetadaAno = affected.Ano
			row.ProposicaoAfetadaEmenta = affected.Ementa
		}
	}

	countVotes(&row, entry.Votes)
	countOrientations(&row, entry.Orientations)
	return row
}

func countVotes(row *RollCallRow, votes []rollcall.Vote) {
	row.TotalVotos = len(votes)
	for _, vote := range votes {
		switch vote.TipoVoto {
		case rollcall.VoteYes:
			row.VotosSim++
		case rollcall.VoteNo:
			row.VotosNao++
		case rollcall.VoteAbstain:
			row.VotosAbstencao++
		case rollcall.VoteObstruction:
			row.VotosObstrucao++
		default:
			row.VotosOutros++
		}
	}
}

func countOrientations(row *RollCallRow, orientations []rollcall.Orientation) {
	row.TotalOrientacoes = len(orientations)
	for _, orientation := range orientations {
		switch orientation.OrientacaoVoto {
		case rollcall.DirectiveYes:
			row.OrientacoesSim++
		case rollcall.DirectiveNo:
			row.OrientacoesNao++
		case rollcall.DirectiveAbstain:
			row.OrientacoesAbstencao++
		case rollcall.DirectiveReleased:
			row.OrientacoesLiberada++
		default:
			row.OrientacoesOutras++
		}
	}
}
