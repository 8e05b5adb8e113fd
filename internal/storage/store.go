package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/vhci/internal/vib"
)

const (
	metadataFile = "metadata.json"
	energiesFile = "energies.csv"
	basisFile    = "basis.chk"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type IterationRecord struct {
	Iteration int       `json:"iteration"`
	Added     int       `json:"added"`
	Size      int       `json:"size"`
	Energies  []float64 `json:"energies"`
	Seconds   float64   `json:"seconds"`
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Seconds     float64            `json:"seconds"`
	Modes       int                `json:"modes"`
	BasisSize   int                `json:"basis_size"`
	NStates     int                `json:"n_states"`
	Eps1        float64            `json:"eps1"`
	Eps2        float64            `json:"eps2"`
	Eps3        float64            `json:"eps3"`
	PT2Mode     string             `json:"pt2_mode"`
	Seed        uint64             `json:"seed"`
	Energies    []float64          `json:"energies"`
	Corrections []float64          `json:"corrections,omitempty"`
	Sigma       []float64          `json:"sigma,omitempty"`
	Labels      []string           `json:"labels"`
	History     []IterationRecord  `json:"history"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

// Total returns variational energy plus correction for root n.
func (m *RunMetadata) Total(n int) float64 {
	e := m.Energies[n]
	if n < len(m.Corrections) {
		e += m.Corrections[n]
	}
	return e
}

// Save writes a new run directory and returns its id. A nil basis skips the
// checkpoint.
func (s *Store) Save(meta *RunMetadata, basis *vib.Basis) (string, error) {
	runID := fmt.Sprintf("%s_%s", meta.Name, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := writeEnergies(filepath.Join(runDir, energiesFile), meta); err != nil {
		return "", err
	}

	if basis != nil {
		if err := SaveBasis(filepath.Join(runDir, basisFile), basis); err != nil {
			return "", err
		}
	}
	return runID, nil
}

func writeEnergies(path string, meta *RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"root", "label", "e_var", "de_pt2", "sigma", "e_total"}); err != nil {
		return err
	}
	for n, e := range meta.Energies {
		row := []string{strconv.Itoa(n), "", formatFloat(e), "", "", formatFloat(meta.Total(n))}
		if n < len(meta.Labels) {
			row[1] = meta.Labels[n]
		}
		if n < len(meta.Corrections) {
			row[3] = formatFloat(meta.Corrections[n])
		}
		if n < len(meta.Sigma) {
			row[4] = formatFloat(meta.Sigma[n])
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
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
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
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

// EnergyRow is one line of energies.csv.
type EnergyRow struct {
	Root        int
	Label       string
	Variational float64
	Correction  float64
	Sigma       float64
	Total       float64
}

func (s *Store) LoadEnergies(runID string) ([]EnergyRow, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, energiesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}

	rows := make([]EnergyRow, 0, len(records))
	for i := 1; i < len(records); i++ {
		rec := records[i]
		if len(rec) != 6 {
			continue
		}
		root, err := strconv.Atoi(rec[0])
		if err != nil {
			continue
		}
		row := EnergyRow{Root: root, Label: rec[1]}
		row.Variational, _ = strconv.ParseFloat(rec[2], 64)
		row.Correction, _ = strconv.ParseFloat(rec[3], 64)
		row.Sigma, _ = strconv.ParseFloat(rec[4], 64)
		row.Total, _ = strconv.ParseFloat(rec[5], 64)
		rows = append(rows, row)
	}
	return rows, nil
}

// BasisPath is the checkpoint location of a stored run.
func (s *Store) BasisPath(runID string) string {
	return filepath.Join(s.baseDir, runID, basisFile)
}
