package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/coolbeans/plenario/pkg/rollcall"
)

const (
	rollCallDir = "dados_votacoes"
	detailDir   = "dados_detalhes"
)

// RollCallFile returns the path of a year's roll-call listing.
func RollCallFile(root string, year int) string {
	return filepath.Join(root, rollCallDir, fmt.Sprintf("votacoes_%d.json", year))
}

// DetailFile returns the path of a year's roll-call details.
func DetailFile(root string, year int) string {
	return filepath.Join(root, rollCallDir, fmt.Sprintf("votacoesID_%d.json", year))
}

// SubjectFile returns the path of a year's proposition themes.
func SubjectFile(root string, year int) string {
	return filepath.Join(root, rollCallDir, fmt.Sprintf("proposicaoTema_%d.json", year))
}

// VoteFile returns the path of a year's individual votes.
func VoteFile(root string, year int) string {
	return filepath.Join(root, detailDir, "votos", fmt.Sprintf("%d.json", year))
}

// OrientationFile returns the path of a year's party orientations.
func OrientationFile(root string, year int) string {
	return filepath.Join(root, detailDir, "orientacoes", fmt.Sprintf("%d.json", year))
}

// WatchDirs lists the directories the collector writes into, for watchers
// that react to dataset changes.
func WatchDirs(root string) []string {
	return []string{
		filepath.Join(root, rollCallDir),
		filepath.Join(root, detailDir, "votos"),
		filepath.Join(root, detailDir, "orientacoes"),
	}
}

// DirLoader reads the collector's on-disk layout. The roll-call listing is
// required per year; the remaining collections load as empty when their
// file is absent.
type DirLoader struct {
	Root string
}

// NewDirLoader creates a loader rooted at the given data directory.
func NewDirLoader(root string) *DirLoader {
	return &DirLoader{Root: root}
}

// Years discovers the years that have a roll-call listing on disk.
func (loader *DirLoader) Years() ([]int, error) {
	entries, err := os.ReadDir(filepath.Join(loader.Root, rollCallDir))
	if err != nil {
		return nil, fmt.Errorf("failed to scan data directory: %w", err)
	}

	var years []int
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "votacoes_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "votacoes_"), ".json"))
		if err != nil {
			continue
		}
		years = append(years, year)
	}
	sort.Ints(years)
	return years, nil
}

// LoadYear reads all five collections for one year.
func (loader *DirLoader) LoadYear(year int) (*rollcall.YearData, error) {
	data := &rollcall.YearData{Year: year}

	raw, err := os.ReadFile(RollCallFile(loader.Root, year))
	if err != nil {
		return nil, fmt.Errorf("failed to read roll calls for %d: %w", year, err)
	}
	if err := json.Unmarshal(raw, &data.Summaries); err != nil {
		return nil, fmt.Errorf("failed to decode roll calls for %d: %w", year, err)
	}

	if _, err := readJSONFile(DetailFile(loader.Root, year), &data.Details); err != nil {
		return nil, fmt.Errorf("failed to load details for %d: %w", year, err)
	}

	if _, err := readJSONFile(SubjectFile(loader.Root, year), &data.Subjects); err != nil {
		return nil, fmt.Errorf("failed to load proposition themes for %d: %w", year, err)
	}

	if raw, ok, err := readFile(VoteFile(loader.Root, year)); err != nil {
		return nil, fmt.Errorf("failed to load votes for %d: %w", year, err)
	} else if ok {
		data.Votes, err = decodeVoteGroups(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode votes for %d: %w", year, err)
		}
	}

	if raw, ok, err := readFile(OrientationFile(loader.Root, year)); err != nil {
		return nil, fmt.Errorf("failed to load orientations for %d: %w", year, err)
	} else if ok {
		data.Orientations, err = decodeOrientationGroups(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode orientations for %d: %w", year, err)
		}
	}

	return data, nil
}

// readFile reads an optional file, reporting absence without error.
func readFile(path string) ([]byte, bool, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// readJSONFile decodes an optional JSON file into out.
func readJSONFile(path string, out any) (bool, error) {
	raw, ok, err := readFile(path)
	if err != nil || !ok {
		return ok, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, err
	}
	return true, nil
}

// decodeVoteGroups walks a {"<id>": {"dados": [...]}} document with a
// token decoder so the file's key order survives; map decoding would not
// keep it, and the first-record-wins rules downstream depend on it.
func decodeVoteGroups(raw []byte) ([]rollcall.VoteGroup, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	if err := expectObject(decoder); err != nil {
		return nil, err
	}

	var groups []rollcall.VoteGroup
	for decoder.More() {
		key, err := nextKey(decoder)
		if err != nil {
			return nil, err
		}
		var payload struct {
			Dados []rollcall.Vote `json:"dados"`
		}
		if err := decoder.Decode(&payload); err != nil {
			return nil, fmt.Errorf("failed to decode votes for entry %q: %w", key, err)
		}
		groups = append(groups, rollcall.VoteGroup{ID: key, Votes: payload.Dados})
	}
	return groups, nil
}

func decodeOrientationGroups(raw []byte) ([]rollcall.OrientationGroup, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	if err := expectObject(decoder); err != nil {
		return nil, err
	}

	var groups []rollcall.OrientationGroup
	for decoder.More() {
		key, err := nextKey(decoder)
		if err != nil {
			return nil, err
		}
		var payload struct {
			Dados []rollcall.Orientation `json:"dados"`
		}
		if err := decoder.Decode(&payload); err != nil {
			return nil, fmt.Errorf("failed to decode orientations for entry %q: %w", key, err)
		}
		groups = append(groups, rollcall.OrientationGroup{ID: key, Orientations: payload.Dados})
	}
	return groups, nil
}

func expectObject(decoder *json.Decoder) error {
	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", token)
	}
	return nil
}

func nextKey(decoder *json.Decoder) (string, error) {
	token, err := decoder.Token()
	if err != nil {
		return "", err
	}
	key, ok := token.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", token)
	}
	return key, nil
}
