package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/pacesim/internal/dynamo"
)

const (
	metadataFile   = "metadata.json"
	pacesFile      = "paces.csv"
	pmccFile       = "pmcc.csv"
	finalStateFile = "final_state.dat"
	indexFile      = "runs.db"
)

// Store keeps one directory per run under baseDir and catalogues runs in a
// sqlite index.
type Store struct {
	baseDir string
	index   *Index
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}
	if s.index != nil {
		return nil
	}
	ix, err := OpenIndex(filepath.Join(s.baseDir, indexFile))
	if err != nil {
		return err
	}
	s.index = ix
	return nil
}

func (s *Store) Close() error {
	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}

type ProtocolInfo struct {
	Period       float64 `json:"period"`
	Duration     float64 `json:"duration"`
	Start        float64 `json:"start"`
	Amplitude    float64 `json:"amplitude"`
	SamplingStep float64 `json:"sampling_step"`
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Kind       string             `json:"kind"`
	Model      string             `json:"model"`
	Integrator string             `json:"integrator"`
	Timestamp  time.Time          `json:"timestamp"`
	Protocol   ProtocolInfo       `json:"protocol"`
	Params     map[string]float64 `json:"params,omitempty"`
	Paces      int                `json:"paces"`
	Tolerance  float64            `json:"tolerance"`
	Converged  bool               `json:"converged"`
	FinalMRMS  float64            `json:"final_mrms"`
	StateNames []string           `json:"state_names"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// PaceRow is one pace of a stored run. MRMS and APD are NaN when not
// measured.
type PaceRow struct {
	Pace  int
	MRMS  float64
	APD   float64
	State []float64
}

// PMCCRow is one classifier verdict of a stored analysis.
type PMCCRow struct {
	Pace     int
	Variable string
	PMCC     float64
	Rate     float64
	Status   string
}

// Run bundles everything Save writes.
type Run struct {
	Meta  RunMetadata
	Paces []PaceRow
	PMCC  []PMCCRow
	Final dynamo.State
}

// Save writes a run directory and indexes it. ID and Timestamp are filled
// when empty.
func (s *Store) Save(ctx context.Context, run *Run) (string, error) {
	meta := run.Meta
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		meta.ID = newRunID(meta.Kind, meta.Model, meta.Timestamp)
	}
	if math.IsNaN(meta.FinalMRMS) || math.IsInf(meta.FinalMRMS, 0) {
		meta.FinalMRMS = 0
	}
	// JSON has no NaN
	for k, v := range meta.Metrics {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			delete(meta.Metrics, k)
		}
	}
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writePaces(filepath.Join(runDir, pacesFile), meta.StateNames, run.Paces); err != nil {
		return "", err
	}
	if len(run.PMCC) > 0 {
		if err := writePMCC(filepath.Join(runDir, pmccFile), run.PMCC); err != nil {
			return "", err
		}
	}
	if run.Final != nil {
		if err := SaveState(filepath.Join(runDir, finalStateFile), run.Final); err != nil {
			return "", err
		}
	}

	if s.index != nil {
		if err := s.index.Put(ctx, meta); err != nil {
			return "", err
		}
	}
	run.Meta = meta
	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', 17, 64)
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func writePaces(path string, names []string, paces []PaceRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"pace", "mrms", "apd"}, names...)
	if len(names) == 0 && len(paces) > 0 {
		for i := range paces[0].State {
			header = append(header, fmt.Sprintf("x%d", i))
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, p := range paces {
		row := []string{strconv.Itoa(p.Pace), formatFloat(p.MRMS), formatFloat(p.APD)}
		for _, v := range p.State {
			row = append(row, formatFloat(v))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writePMCC(path string, rows []PMCCRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"pace", "variable", "pmcc", "rate", "status"}); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{strconv.Itoa(r.Pace), r.Variable, formatFloat(r.PMCC), formatFloat(r.Rate), r.Status}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns stored runs, newest first. Without an open index it falls
// back to scanning run directories.
func (s *Store) List(ctx context.Context, f Filter) ([]RunMetadata, error) {
	if s.index != nil {
		return s.index.List(ctx, f)
	}

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		if (f.Model != "" && meta.Model != f.Model) || (f.Kind != "" && meta.Kind != f.Kind) {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	if f.Limit > 0 && len(runs) > f.Limit {
		runs = runs[:f.Limit]
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func (s *Store) LoadPaces(runID string) ([]PaceRow, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, pacesFile))
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []PaceRow{}, nil
	}

	rows := make([]PaceRow, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) < 3 {
			return nil, fmt.Errorf("%s line %d: expected at least 3 fields, got %d", pacesFile, i+2, len(record))
		}
		pace, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", pacesFile, i+2, err)
		}
		row := PaceRow{Pace: pace, State: make([]float64, 0, len(record)-3)}
		if row.MRMS, err = parseFloat(record[1]); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", pacesFile, i+2, err)
		}
		if row.APD, err = parseFloat(record[2]); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", pacesFile, i+2, err)
		}
		for _, field := range record[3:] {
			v, err := parseFloat(field)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", pacesFile, i+2, err)
			}
			row.State = append(row.State, v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Store) LoadPMCC(runID string) ([]PMCCRow, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, pmccFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []PMCCRow{}, nil
		}
		return nil, err
	}

	rows := make([]PMCCRow, 0, len(records))
	for i, record := range records {
		if i == 0 {
			continue
		}
		if len(record) != 5 {
			return nil, fmt.Errorf("%s line %d: expected 5 fields, got %d", pmccFile, i+1, len(record))
		}
		pace, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", pmccFile, i+1, err)
		}
		row := PMCCRow{Pace: pace, Variable: record[1], Status: record[4]}
		if row.PMCC, err = parseFloat(record[2]); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", pmccFile, i+1, err)
		}
		if row.Rate, err = parseFloat(record[3]); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", pmccFile, i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FinalStatePath is where Save wrote a run's final state.
func (s *Store) FinalStatePath(runID string) string {
	return filepath.Join(s.baseDir, runID, finalStateFile)
}
