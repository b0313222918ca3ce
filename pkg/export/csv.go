// Package export writes the consolidated tables to CSV files and a
// SQLite database.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/coolbeans/plenario/pkg/consolidate"
)

// Output file names, kept compatible with the spreadsheets and dashboards
// built on the original dataset.
const (
	RollCallCSVName = "votacoes_consolidadas.csv"
	VoteCSVName     = "votos_deputados.csv"
	SQLiteName      = "plenario.db"
)

// utf8BOM lets spreadsheet tools detect the encoding of accented text.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var rollCallHeader = []string{
	"id_votacao",
	"data",
	"dataHoraRegistro",
	"siglaOrgao",
	"descricao",
	"aprovacao",
	"proposicaoObjeto",
	"idOrgao",
	"idEvento",
	"descUltimaAberturaVotacao",
	"dataHoraUltimaAberturaVotacao",
	"proposicao_afetada_id",
	"proposicao_afetada_siglaTipo",
	"proposicao_afetada_numero",
	"proposicao_afetada_ano",
	"proposicao_afetada_ementa",
	"temas",
	"quantidade_temas",
	"total_votos",
	"votos_sim",
	"votos_nao",
	"votos_abstencao",
	"votos_obstrucao",
	"votos_outros",
	"total_orientacoes",
	"orientacoes_sim",
	"orientacoes_nao",
	"orientacoes_abstencao",
	"orientacoes_liberada",
	"orientacoes_outras",
}

var voteHeader = []string{
	"id_votacao",
	"data",
	"siglaOrgao",
	"descricao",
	"aprovacao",
	"deputado_id",
	"deputado_nome",
	"deputado_siglaPartido",
	"deputado_siglaUf",
	"tipoVoto",
	"dataRegistroVoto",
	"orientacao_partido",
	"seguiu_orientacao",
}

// WriteRollCallCSV writes the consolidated roll-call table to path.
func WriteRollCallCSV(path string, rows []consolidate.RollCallRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.IDVotacao,
			row.Data,
			row.DataHoraRegistro,
			row.SiglaOrgao,
			row.Descricao,
			formatIntPtr(row.Aprovacao),
			row.ProposicaoObjeto,
			formatIntPtr(row.IDOrgao),
			formatIntPtr(row.IDEvento),
			row.DescUltimaAberturaVotacao,
			row.DataHoraUltimaAberturaVotacao,
			row.ProposicaoAfetadaID,
			row.ProposicaoAfetadaSiglaTipo,
			formatIntPtr(row.ProposicaoAfetadaNumero),
			formatIntPtr(row.ProposicaoAfetadaAno),
			row.ProposicaoAfetadaEmenta,
			strings.Join(row.Temas, "; "),
			strconv.Itoa(row.QuantidadeTemas),
			strconv.Itoa(row.TotalVotos),
			strconv.Itoa(row.VotosSim),
			strconv.Itoa(row.VotosNao),
			strconv.Itoa(row.VotosAbstencao),
			strconv.Itoa(row.VotosObstrucao),
			strconv.Itoa(row.VotosOutros),
			strconv.Itoa(row.TotalOrientacoes),
			strconv.Itoa(row.OrientacoesSim),
			strconv.Itoa(row.OrientacoesNao),
			strconv.Itoa(row.OrientacoesAbstencao),
			strconv.Itoa(row.OrientacoesLiberada),
			strconv.Itoa(row.OrientacoesOutras),
		})
	}
	return writeCSV(path, rollCallHeader, records)
}

// WriteVoteCSV writes the individual-votes table to path.
func WriteVoteCSV(path string, rows []consolidate.VoteRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.IDVotacao,
			row.Data,
			row.SiglaOrgao,
			row.Descricao,
			formatIntPtr(row.Aprovacao),
			strconv.Itoa(row.DeputadoID),
			row.DeputadoNome,
			row.DeputadoSiglaPartido,
			row.DeputadoSiglaUf,
			row.TipoVoto,
			row.DataRegistroVoto,
			row.OrientacaoPartido,
			formatBoolPtr(row.SeguiuOrientacao),
		})
	}
	return writeCSV(path, voteHeader, records)
}

// writeCSV creates path with a UTF-8 BOM, a header and the given records.
func writeCSV(path string, header []string, records [][]string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()

	if _, err := file.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func formatIntPtr(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}

// formatBoolPtr renders True/False with the capitalization the previous
// exports used, and an empty cell when no verdict applies.
func formatBoolPtr(value *bool) string {
	if value == nil {
		return ""
	}
	if *value {
		return "True"
	}
	return "False"
}
