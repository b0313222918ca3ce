package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/coolbeans/plenario/pkg/consolidate"
)

// rollCallModel mirrors the roll-call CSV columns as the votacoes table,
// plus an ano column for direct SQL filtering.
type rollCallModel struct {
	Ano                           int    `gorm:"column:ano;index"`
	IDVotacao                     string `gorm:"column:id_votacao;primaryKey"`
	Data                          string `gorm:"column:data"`
	DataHoraRegistro              string `gorm:"column:dataHoraRegistro"`
	SiglaOrgao                    string `gorm:"column:siglaOrgao"`
	Descricao                     string `gorm:"column:descricao"`
	Aprovacao                     *int   `gorm:"column:aprovacao"`
	ProposicaoObjeto              string `gorm:"column:proposicaoObjeto"`
	IDOrgao                       *int   `gorm:"column:idOrgao"`
	IDEvento                      *int   `gorm:"column:idEvento"`
	DescUltimaAberturaVotacao     string `gorm:"column:descUltimaAberturaVotacao"`
	DataHoraUltimaAberturaVotacao string `gorm:"column:dataHoraUltimaAberturaVotacao"`
	ProposicaoAfetadaID           string `gorm:"column:proposicao_afetada_id"`
	ProposicaoAfetadaSiglaTipo    string `gorm:"column:proposicao_afetada_siglaTipo"`
	ProposicaoAfetadaNumero       *int   `gorm:"column:proposicao_afetada_numero"`
	ProposicaoAfetadaAno          *int   `gorm:"column:proposicao_afetada_ano"`
	ProposicaoAfetadaEmenta       string `gorm:"column:proposicao_afetada_ementa"`
	Temas                         string `gorm:"column:temas"`
	QuantidadeTemas               int    `gorm:"column:quantidade_temas"`
	TotalVotos                    int    `gorm:"column:total_votos"`
	VotosSim                      int    `gorm:"column:votos_sim"`
	VotosNao                      int    `gorm:"column:votos_nao"`
	VotosAbstencao                int    `gorm:"column:votos_abstencao"`
	VotosObstrucao                int    `gorm:"column:votos_obstrucao"`
	VotosOutros                   int    `gorm:"column:votos_outros"`
	TotalOrientacoes              int    `gorm:"column:total_orientacoes"`
	OrientacoesSim                int    `gorm:"column:orientacoes_sim"`
	OrientacoesNao                int    `gorm:"column:orientacoes_nao"`
	OrientacoesAbstencao          int    `gorm:"column:orientacoes_abstencao"`
	OrientacoesLiberada           int    `gorm:"column:orientacoes_liberada"`
	OrientacoesOutras             int    `gorm:"column:orientacoes_outras"`
}

func (rollCallModel) TableName() string { return "votacoes" }

// voteModel mirrors the individual-votes CSV columns as the votos table.
// There is no primary key: the table is rebuilt on every export and the
// source data offers no uniqueness guarantee per legislator.
type voteModel struct {
	Ano                  int    `gorm:"column:ano;index"`
	IDVotacao            string `gorm:"column:id_votacao;index"`
	Data                 string `gorm:"column:data"`
	SiglaOrgao           string `gorm:"column:siglaOrgao"`
	Descricao            string `gorm:"column:descricao"`
	Aprovacao            *int   `gorm:"column:aprovacao"`
	DeputadoID           int    `gorm:"column:deputado_id;index"`
	DeputadoNome         string `gorm:"column:deputado_nome"`
	DeputadoSiglaPartido string `gorm:"column:deputado_siglaPartido"`
	DeputadoSiglaUf      string `gorm:"column:deputado_siglaUf"`
	TipoVoto             string `gorm:"column:tipoVoto"`
	DataRegistroVoto     string `gorm:"column:dataRegistroVoto"`
	OrientacaoPartido    string `gorm:"column:orientacao_partido"`
	SeguiuOrientacao     *bool  `gorm:"column:seguiu_orientacao"`
}

func (voteModel) TableName() string { return "votos" }

const insertBatchSize = 500

// WriteSQLite writes both consolidated tables to a SQLite database at
// path, replacing any previous contents.
func WriteSQLite(path string, rollCalls []consolidate.RollCallRow, votes []consolidate.VoteRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
	}()

	// Rebuild from scratch so reruns replace rather than append.
	if err := db.Migrator().DropTable(&rollCallModel{}, &voteModel{}); err != nil {
		return fmt.Errorf("failed to reset tables: %w", err)
	}
	if err := db.AutoMigrate(&rollCallModel{}, &voteModel{}); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}

	if len(rollCalls) > 0 {
		models := make([]rollCallModel, 0, len(rollCalls))
		for _, row := range rollCalls {
			models = append(models, toRollCallModel(row))
		}
		if err := db.CreateInBatches(models, insertBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert votacoes: %w", err)
		}
	}
	if len(votes) > 0 {
		models := make([]voteModel, 0, len(votes))
		for _, row := range votes {
			models = append(models, toVoteModel(row))
		}
		if err := db.CreateInBatches(models, insertBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert votos: %w", err)
		}
	}
	return nil
}

func toRollCallModel(row consolidate.RollCallRow) rollCallModel {
	return rollCallModel{
		Ano:                           row.Year,
		IDVotacao:                     row.IDVotacao,
		Data:                          row.Data,
		DataHoraRegistro:              row.DataHoraRegistro,
		SiglaOrgao:                    row.SiglaOrgao,
		Descricao:                     row.Descricao,
		Aprovacao:                     row.Aprovacao,
		ProposicaoObjeto:              row.ProposicaoObjeto,
		IDOrgao:                       row.IDOrgao,
		IDEvento:                      row.IDEvento,
		DescUltimaAberturaVotacao:     row.DescUltimaAberturaVotacao,
		DataHoraUltimaAberturaVotacao: row.DataHoraUltimaAberturaVotacao,
		ProposicaoAfetadaID:           row.ProposicaoAfetadaID,
		ProposicaoAfetadaSiglaTipo:    row.ProposicaoAfetadaSiglaTipo,
		ProposicaoAfetadaNumero:       row.ProposicaoAfetadaNumero,
		ProposicaoAfetadaAno:          row.ProposicaoAfetadaAno,
		ProposicaoAfetadaEmenta:       row.ProposicaoAfetadaEmenta,
		Temas:                         strings.Join(row.Temas, "; "),
		QuantidadeTemas:               row.QuantidadeTemas,
		TotalVotos:                    row.TotalVotos,
		VotosSim:                      row.VotosSim,
		VotosNao:                      row.VotosNao,
		VotosAbstencao:                row.VotosAbstencao,
		VotosObstrucao:                row.VotosObstrucao,
		VotosOutros:                   row.VotosOutros,
		TotalOrientacoes:              row.TotalOrientacoes,
		OrientacoesSim:                row.OrientacoesSim,
		OrientacoesNao:                row.OrientacoesNao,
		OrientacoesAbstencao:          row.OrientacoesAbstencao,
		OrientacoesLiberada:           row.OrientacoesLiberada,
		OrientacoesOutras:             row.OrientacoesOutras,
	}
}

func toVoteModel(row consolidate.VoteRow) voteModel {
	return voteModel{
		Ano:                  row.Year,
		IDVotacao:            row.IDVotacao,
		Data:                 row.Data,
		SiglaOrgao:           row.SiglaOrgao,
		Descricao:            row.Descricao,
		Aprovacao:            row.Aprovacao,
		DeputadoID:           row.DeputadoID,
		DeputadoNome:         row.DeputadoNome,
		DeputadoSiglaPartido: row.DeputadoSiglaPartido,
		DeputadoSiglaUf:      row.DeputadoSiglaUf,
		TipoVoto:             row.TipoVoto,
		DataRegistroVoto:     row.DataRegistroVoto,
		OrientacaoPartido:    row.OrientacaoPartido,
		SeguiuOrientacao:     row.SeguiuOrientacao,
	}
}
