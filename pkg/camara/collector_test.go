package camara

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coolbeans/plenario/pkg/dataset"
)

// fakeChamber serves a minimal API with two roll calls in January 2022.
// Detail, votes and themes for the second roll call are partially missing
// to exercise the absence paths.
func fakeChamber(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()

	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		query := r.URL.Query()

		switch r.URL.Path {
		case "/votacoes":
			if query.Get("dataInicio") == "2022-01-01" && query.Get("pagina") == "1" {
				writeDados(w, []string{
					`{"id": "555-1", "data": "2022-01-15"}`,
					`{"id": "777-2", "data": "2022-01-20"}`,
				}, "")
				return
			}
			writeDados(w, nil, "")
		case "/votacoes/555-1":
			w.Write([]byte(`{"dados": {
				"id": "555-1",
				"uriProposicaoObjeto": "https://dadosabertos.camara.leg.br/api/v2/proposicoes/2152544",
				"proposicoesAfetadas": [{"uri": "https://dadosabertos.camara.leg.br/api/v2/proposicoes/98765"}]
			}}`))
		case "/votacoes/555-1/votos":
			writeDados(w, []string{
				`{"tipoVoto": "Sim", "deputado_": {"id": 1, "nome": "Ana", "siglaPartido": "XXX", "siglaUf": "SP"}}`,
				`{"tipoVoto": "Não", "deputado_": {"id": 2, "nome": "Beto", "siglaPartido": "YYY", "siglaUf": "RJ"}}`,
			}, "")
		case "/votacoes/555-1/orientacoes":
			writeDados(w, []string{
				`{"orientacaoVoto": "Sim", "siglaPartidoBloco": "XXX"}`,
			}, "")
		case "/votacoes/777-2/orientacoes":
			writeDados(w, nil, "")
		case "/proposicoes/2152544/temas":
			writeDados(w, []string{
				`{"codTema": 46, "tema": "Saúde"}`,
			}, "")
		case "/proposicoes/2152544":
			w.Write([]byte(`{"dados": {"siglaTipo": "PL", "numero": 123, "ano": 2020, "ementa": "Dispõe sobre saúde."}}`))
		default:
			// 777-2 detail and votes, proposition 98765: gone.
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func newTestCollector(t *testing.T, serverURL, dataDir string, dryRun, force bool) *Collector {
	t.Helper()

	client := NewClient(testClientConfig(serverURL), nil, nil)
	collector, err := NewCollector(client, CollectorConfig{
		DataDir: dataDir,
		Workers: 2,
		DryRun:  dryRun,
		Force:   force,
	}, nil)
	if err != nil {
		t.Fatalf("NewCollector() error = %v", err)
	}
	return collector
}

func TestCollectorRunWritesDataset(t *testing.T) {
	server, _ := fakeChamber(t)
	dataDir := t.TempDir()

	collector := newTestCollector(t, server.URL, dataDir, false, false)
	report, err := collector.Run(context.Background(), []int{2022})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Collected != 1 || report.Failed != 0 {
		t.Fatalf("report = %d collected / %d failed, want 1/0", report.Collected, report.Failed)
	}

	result := report.Years[0]
	if result.Status != StatusCollected {
		t.Fatalf("status = %q, want %q", result.Status, StatusCollected)
	}
	if result.RollCalls != 2 || result.Details != 1 || result.VoteSets != 1 || result.OrientationSets != 1 {
		t.Errorf("counts = %d/%d/%d/%d, want 2/1/1/1",
			result.RollCalls, result.Details, result.VoteSets, result.OrientationSets)
	}
	if result.Propositions != 2 {
		t.Errorf("propositions = %d, want 2", result.Propositions)
	}

	// The written files must round-trip through the dataset loader.
	loader := dataset.NewDirLoader(dataDir)
	data, err := loader.LoadYear(2022)
	if err != nil {
		t.Fatalf("LoadYear() error = %v", err)
	}
	if len(data.Summaries) != 2 {
		t.Errorf("summaries = %d, want 2", len(data.Summaries))
	}
	if len(data.Details) != 1 || data.Details[0].ID != "555-1" {
		t.Errorf("details = %+v, want the single 555-1 record", data.Details)
	}
	if len(data.Votes) != 1 || data.Votes[0].ID != "555-1" || len(data.Votes[0].Votes) != 2 {
		t.Errorf("votes = %+v, want 555-1 with two votes", data.Votes)
	}
	if len(data.Orientations) != 1 || data.Orientations[0].ID != "555-1" {
		t.Errorf("orientations = %+v, want 555-1 only", data.Orientations)
	}
	if len(data.Subjects) != 2 {
		t.Fatalf("subjects = %d records, want 2", len(data.Subjects))
	}
	if string(data.Subjects[0].ID) != "2152544" || len(data.Subjects[0].Temas) != 1 {
		t.Errorf("subjects[0] = %+v, want 2152544 with one theme", data.Subjects[0])
	}
	if string(data.Subjects[1].ID) != "98765" || len(data.Subjects[1].Temas) != 0 {
		t.Errorf("subjects[1] = %+v, want 98765 with no themes", data.Subjects[1])
	}

	manifest, err := LoadManifest(ManifestPath(dataDir))
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if !manifest.YearComplete(2022) {
		t.Error("manifest does not mark 2022 complete")
	}
}

func TestCollectorSkipsCollectedYear(t *testing.T) {
	server, requests := fakeChamber(t)
	dataDir := t.TempDir()

	collector := newTestCollector(t, server.URL, dataDir, false, false)
	if _, err := collector.Run(context.Background(), []int{2022}); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	firstRunRequests := atomic.LoadInt32(requests)

	rerun := newTestCollector(t, server.URL, dataDir, false, false)
	report, err := rerun.Run(context.Background(), []int{2022})
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if report.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", report.Skipped)
	}
	if got := atomic.LoadInt32(requests); got != firstRunRequests {
		t.Errorf("requests after skip = %d, want %d (no new traffic)", got, firstRunRequests)
	}

	forced := newTestCollector(t, server.URL, dataDir, false, true)
	report, err = forced.Run(context.Background(), []int{2022})
	if err != nil {
		t.Fatalf("forced Run() error = %v", err)
	}
	if report.Collected != 1 {
		t.Errorf("forced collected = %d, want 1", report.Collected)
	}
	if got := atomic.LoadInt32(requests); got == firstRunRequests {
		t.Error("force did not re-collect")
	}
}

func TestCollectorDryRun(t *testing.T) {
	server, requests := fakeChamber(t)
	dataDir := t.TempDir()

	collector := newTestCollector(t, server.URL, dataDir, true, false)
	report, err := collector.Run(context.Background(), []int{2021, 2022})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Planned != 2 {
		t.Errorf("planned = %d, want 2", report.Planned)
	}
	if got := atomic.LoadInt32(requests); got != 0 {
		t.Errorf("requests = %d, want 0 on dry run", got)
	}
	if _, err := os.Stat(dataset.RollCallFile(dataDir, 2022)); !os.IsNotExist(err) {
		t.Error("dry run wrote a roll call file")
	}
}

func TestCollectorAllYearsFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	config := testClientConfig(server.URL)
	config.MaxAttempts = 1
	client := NewClient(config, nil, nil)
	collector, err := NewCollector(client, CollectorConfig{DataDir: t.TempDir(), Workers: 2}, nil)
	if err != nil {
		t.Fatalf("NewCollector() error = %v", err)
	}

	report, err := collector.Run(context.Background(), []int{2021, 2022})
	if err == nil {
		t.Fatal("Run() expected an error when every year fails")
	}
	if report.Failed != 2 {
		t.Errorf("failed = %d, want 2", report.Failed)
	}
}

func TestCollectorRunRejectsEmptyYears(t *testing.T) {
	server, _ := fakeChamber(t)
	collector := newTestCollector(t, server.URL, t.TempDir(), false, false)

	if _, err := collector.Run(context.Background(), nil); err == nil {
		t.Fatal("Run() expected an error without years")
	}
}

func TestManifestRoundTrip(t *testing.T) {
	path := ManifestPath(t.TempDir())

	manifest, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if manifest.YearComplete(2020) {
		t.Error("empty manifest reports 2020 complete")
	}

	manifest.RecordYear(YearRecord{
		Year:        2020,
		CollectedAt: time.Now().UTC(),
		RollCalls:   10,
		Complete:    true,
	})
	manifest.RecordYear(YearRecord{Year: 2019, Complete: false})
	if err := manifest.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() after save error = %v", err)
	}
	if !reloaded.YearComplete(2020) {
		t.Error("reloaded manifest lost 2020")
	}
	if reloaded.YearComplete(2019) {
		t.Error("2019 must stay incomplete")
	}

	snapshot := reloaded.Snapshot()
	if len(snapshot) != 2 || snapshot[0].Year != 2019 || snapshot[1].Year != 2020 {
		t.Errorf("Snapshot() = %+v, want years 2019, 2020", snapshot)
	}
}
