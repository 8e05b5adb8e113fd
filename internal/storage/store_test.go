package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/vhci/internal/vib"
)

func testBasis(t *testing.T) *vib.Basis {
	t.Helper()
	b, err := vib.TruncatedBasis([]float64{1000, 2000}, []int{3, 3}, 2)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	meta := &RunMetadata{
		Name:        "test",
		Modes:       2,
		NStates:     2,
		Seed:        42,
		Energies:    []float64{1500, 2500},
		Corrections: []float64{-1.5, -2},
		Sigma:       []float64{0.01, 0.02},
		Labels:      []string{"0", "w0"},
		History:     []IterationRecord{{Iteration: 1, Added: 3, Size: 9}},
	}

	runID, err := st.Save(meta, testBasis(t))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if !strings.HasPrefix(runID, "test_") {
		t.Errorf("expected run id prefixed with name, got %q", runID)
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.Seed != 42 {
		t.Errorf("expected seed 42, got %d", loaded.Seed)
	}
	if loaded.Total(1) != 2498 {
		t.Errorf("expected total 2498, got %f", loaded.Total(1))
	}
	if len(loaded.History) != 1 || loaded.History[0].Added != 3 {
		t.Errorf("history lost: %+v", loaded.History)
	}

	rows, err := st.LoadEnergies(runID)
	if err != nil {
		t.Fatalf("load energies failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1].Label != "w0" || rows[1].Correction != -2 || rows[1].Total != 2498 {
		t.Errorf("unexpected row: %+v", rows[1])
	}

	b, err := LoadBasis(st.BasisPath(runID), []float64{1000, 2000})
	if err != nil {
		t.Fatalf("load basis failed: %v", err)
	}
	if b.Len() != testBasis(t).Len() {
		t.Errorf("expected %d states, got %d", testBasis(t).Len(), b.Len())
	}
}

func TestList(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "missing"))
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("expected empty list, got %v, %v", runs, err)
	}

	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a", "b"} {
		if _, err := st.Save(&RunMetadata{Name: name, Energies: []float64{1}}, nil); err != nil {
			t.Fatal(err)
		}
	}
	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestCheckpointFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "basis.chk")
	if err := SaveBasis(path, testBasis(t)); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{"0 0", "1 0", "0 1", "2 0", "1 1", "0 2"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(lines))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, expected %q", i, lines[i], want[i])
		}
	}
}

func TestLoadBasisErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.chk")
	os.WriteFile(bad, []byte("0 0\n1 x\n"), 0644)
	if _, err := LoadBasis(bad, []float64{1, 2}); err == nil || !strings.Contains(err.Error(), ":2:") {
		t.Errorf("expected error on line 2, got %v", err)
	}

	short := filepath.Join(dir, "short.chk")
	os.WriteFile(short, []byte("0 0\n\n1\n"), 0644)
	if _, err := LoadBasis(short, []float64{1, 2}); err == nil {
		t.Error("expected dimension error")
	}
}

func TestExportJSON(t *testing.T) {
	meta := &RunMetadata{Name: "x", Energies: []float64{10, 20}, Corrections: []float64{-1}}
	var buf bytes.Buffer
	if err := ExportJSONTo(&buf, meta, [][]int{{0, 0}, {1, 0}}); err != nil {
		t.Fatal(err)
	}
	var got ExportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Totals) != 2 || got.Totals[0] != 9 || got.Totals[1] != 20 {
		t.Errorf("unexpected totals: %v", got.Totals)
	}
	if len(got.Basis) != 2 {
		t.Errorf("expected 2 basis rows, got %d", len(got.Basis))
	}
}
