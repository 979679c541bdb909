package storage

import (
	"encoding/json"
	"io"
	"os"
)

// ExportData is the JSON form of a stored run.
type ExportData struct {
	Meta  RunMetadata `json:"meta"`
	Paces []paceJSON  `json:"paces"`
	PMCC  []pmccJSON  `json:"pmcc,omitempty"`
}

// NaN is not valid JSON, so unmeasured values become null.
type paceJSON struct {
	Pace  int       `json:"pace"`
	MRMS  *float64  `json:"mrms"`
	APD   *float64  `json:"apd"`
	State []float64 `json:"state"`
}

type pmccJSON struct {
	Pace     int      `json:"pace"`
	Variable string   `json:"variable"`
	PMCC     *float64 `json:"pmcc"`
	Rate     *float64 `json:"rate"`
	Status   string   `json:"status"`
}

func finite(v float64) *float64 {
	if v != v {
		return nil
	}
	return &v
}

// Export collects a stored run for JSON output.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	paces, err := s.LoadPaces(runID)
	if err != nil {
		return nil, err
	}
	pmcc, err := s.LoadPMCC(runID)
	if err != nil {
		return nil, err
	}

	data := &ExportData{Meta: *meta, Paces: make([]paceJSON, len(paces))}
	for i, p := range paces {
		data.Paces[i] = paceJSON{Pace: p.Pace, MRMS: finite(p.MRMS), APD: finite(p.APD), State: p.State}
	}
	for _, r := range pmcc {
		data.PMCC = append(data.PMCC, pmccJSON{Pace: r.Pace, Variable: r.Variable, PMCC: finite(r.PMCC), Rate: finite(r.Rate), Status: r.Status})
	}
	return data, nil
}

func WriteJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}

func ExportJSONStdout(data *ExportData) error {
	return WriteJSON(os.Stdout, data)
}
