package experiment

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/vhci/internal/config"
	"github.com/san-kum/vhci/internal/pt2"
	"github.com/san-kum/vhci/internal/storage"
)

func TestRunHarmonic(t *testing.T) {
	exp := New(config.GetPreset("harmonic"), nil)
	require.NoError(t, exp.Setup())

	out, err := exp.Run(context.Background())
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1500, 2500, 3500, 3500}, out.HCI.Energies, 1e-9)
	assert.Empty(t, out.PT2)
	assert.Nil(t, out.Correction())
	assert.Equal(t, "0", out.Labels[0])
	assert.Equal(t, "w0", out.Labels[1])
}

func TestRunWithCorrection(t *testing.T) {
	cfg := config.GetPreset("fermi")
	exp := New(cfg, nil)
	require.NoError(t, exp.Setup())

	out, err := exp.Run(context.Background())
	require.NoError(t, err)
	c := out.Correction()
	require.NotNil(t, c)
	require.Len(t, c.Correction, cfg.NStates)
	assert.Less(t, c.Correction[0], 0.0)
	for _, v := range c.Correction {
		assert.False(t, math.IsNaN(v))
	}

	meta := exp.Metadata(out)
	assert.Equal(t, "fermi", meta.Name)
	assert.Equal(t, out.HCI.Basis.Len(), meta.BasisSize)
	assert.Len(t, meta.Corrections, cfg.NStates)
	assert.Len(t, meta.History, len(out.HCI.History))
	assert.InDelta(t, out.HCI.Energies[0]+c.Correction[0], meta.Total(0), 1e-12)
}

func TestCompareMode(t *testing.T) {
	cfg := config.GetPreset("fermi")
	cfg.PT2.Mode = config.PT2Compare
	cfg.PT2.Eps3 = 0.01
	cfg.PT2.Walkers = 20
	cfg.PT2.Samples = 10
	exp := New(cfg, nil)
	require.NoError(t, exp.Setup())

	out, err := exp.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, out.PT2, 2)
	assert.Contains(t, out.PT2, config.PT2Deterministic)
	assert.Same(t, out.PT2[config.PT2SemiStochastic], out.Correction())
	assert.Contains(t, exp.Metadata(out).Metrics, "pt2_deterministic_0")
}

func TestCheckpointRestart(t *testing.T) {
	cfg := config.GetPreset("fermi")
	cfg.PT2.Mode = config.PT2None
	cfg.Basis.Checkpoint = filepath.Join(t.TempDir(), "basis.chk")

	first := New(cfg, nil)
	require.NoError(t, first.Setup())
	out, err := first.Run(context.Background())
	require.NoError(t, err)
	_, err = os.Stat(cfg.Basis.Checkpoint)
	require.NoError(t, err)

	second := New(cfg, nil)
	require.NoError(t, second.Setup())
	assert.Equal(t, out.HCI.Basis.Len(), second.basis.Len())

	st := storage.New(t.TempDir())
	require.NoError(t, st.Init())
	id, err := st.Save(first.Metadata(out), out.HCI.Basis)
	require.NoError(t, err)
	loaded, err := st.Load(id)
	require.NoError(t, err)
	assert.Equal(t, out.HCI.Energies, loaded.Energies)
}

func TestRunErrors(t *testing.T) {
	_, err := New(config.GetPreset("fermi"), nil).Run(context.Background())
	assert.Error(t, err)

	cfg := config.DefaultConfig()
	assert.ErrorIs(t, New(cfg, nil).Setup(), config.ErrInvalidConfig)

	exp := New(config.GetPreset("fermi"), nil)
	require.NoError(t, exp.Setup())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = exp.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"compare", "deterministic", "none", "semistochastic", "stochastic"}, r.ListModes())
	_, err := r.GetMethod("compare")
	assert.Error(t, err)
	_, err = r.Correct(context.Background(), "exact", pt2.Input{}, config.PT2Config{})
	assert.Error(t, err)
}
