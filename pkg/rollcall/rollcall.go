// Package rollcall defines the record types produced by the Chamber of
// Deputies open-data API, the identifier normalization that reconciles
// records across sources, and the per-year index that joins them.
package rollcall

import "encoding/json"

// Vote category values as recorded by the chamber.
const (
	VoteYes         = "Sim"
	VoteNo          = "Não"
	VoteAbstain     = "Abstenção"
	VoteObstruction = "Obstrução"
)

// Party directive values as recorded by the chamber. An empty directive
// means the source carried no instruction for that party.
const (
	DirectiveYes      = "Sim"
	DirectiveNo       = "Não"
	DirectiveAbstain  = "Abstenção"
	DirectiveReleased = "Liberada"
)

// FlexID decodes an identifier that sources encode either as a JSON number
// or as a string. Null decodes to the empty string.
type FlexID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// Summary is one roll call as listed by the /votacoes endpoint.
type Summary struct {
	ID               string `json:"id"`
	Data             string `json:"data"`
	DataHoraRegistro string `json:"dataHoraRegistro"`
	SiglaOrgao       string `json:"siglaOrgao"`
	Descricao        string `json:"descricao"`
	Aprovacao        *int   `json:"aprovacao"`
	ProposicaoObjeto string `json:"proposicaoObjeto"`
}

// Detail is the expanded record returned by /votacoes/{id}.
type Detail struct {
	ID                            string                `json:"id"`
	IDOrgao                       *int                  `json:"idOrgao"`
	IDEvento                      *int                  `json:"idEvento"`
	DescUltimaAberturaVotacao     string                `json:"descUltimaAberturaVotacao"`
	DataHoraUltimaAberturaVotacao string                `json:"dataHoraUltimaAberturaVotacao"`
	ProposicoesAfetadas           []AffectedProposition `json:"proposicoesAfetadas"`
}

// AffectedProposition references a bill affected by a roll call.
type AffectedProposition struct {
	ID        FlexID `json:"id"`
	SiglaTipo string `json:"siglaTipo"`
	Numero    *int   `json:"numero"`
	Ano       *int   `json:"ano"`
	Ementa    string `json:"ementa"`
}

// Vote is one legislator's vote on a roll call.
type Vote struct {
	TipoVoto         string `json:"tipoVoto"`
	DataRegistroVoto string `json:"dataRegistroVoto"`
	Deputado         Deputy `json:"deputado_"`
}

// Deputy identifies the legislator who cast a vote.
type Deputy struct {
	ID           int    `json:"id"`
	Nome         string `json:"nome"`
	SiglaPartido string `json:"siglaPartido"`
	SiglaUf      string `json:"siglaUf"`
}

// Orientation is one party's (or bloc's) voting instruction for a roll call.
// OrientacaoVoto is empty when the source recorded no directive.
type Orientation struct {
	OrientacaoVoto    string `json:"orientacaoVoto"`
	SiglaPartidoBloco string `json:"siglaPartidoBloco"`
	CodTipoLideranca  string `json:"codTipoLideranca"`
}

// Subject is one theme assigned to a proposition.
type Subject struct {
	CodTema    int    `json:"codTema"`
	Tema       string `json:"tema"`
	Relevancia int    `json:"relevancia"`
}

// SubjectRecord maps a proposition to its themes.
type SubjectRecord struct {
	ID    FlexID    `json:"id"`
	Temas []Subject `json:"temas"`
}

// VoteGroup holds the votes recorded under one raw roll-call identifier,
// preserving the order of the source file.
type VoteGroup struct {
	ID    string
	Votes []Vote
}

// OrientationGroup holds the orientations recorded under one raw roll-call
// identifier, preserving the order of the source file.
type OrientationGroup struct {
	ID           string
	Orientations []Orientation
}

// YearData carries one year's raw collections as supplied by a loader.
// Slice order follows the source files.
type YearData struct {
	Year         int
	Summaries    []Summary
	Details      []Detail
	Votes        []VoteGroup
	Orientations []OrientationGroup
	Subjects     []SubjectRecord
}
