package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	Run    *RunMetadata `json:"run"`
	Basis  [][]int      `json:"basis,omitempty"`
	Totals []float64    `json:"totals"`
}

func newExport(meta *RunMetadata, basis [][]int) ExportData {
	data := ExportData{Run: meta, Basis: basis, Totals: make([]float64, len(meta.Energies))}
	for n := range meta.Energies {
		data.Totals[n] = meta.Total(n)
	}
	return data
}

// ExportJSON writes a run and, when given, its basis quanta to path.
func ExportJSON(path string, meta *RunMetadata, basis [][]int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSONTo(file, meta, basis)
}

func ExportJSONTo(w io.Writer, meta *RunMetadata, basis [][]int) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExport(meta, basis))
}
