package experiment

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/vhci/internal/config"
	"github.com/san-kum/vhci/internal/hci"
	"github.com/san-kum/vhci/internal/metrics"
	"github.com/san-kum/vhci/internal/pt2"
	"github.com/san-kum/vhci/internal/storage"
	"github.com/san-kum/vhci/internal/vib"
)

type Experiment struct {
	cfg      *config.Config
	log      *slog.Logger
	registry *Registry
	pot      vib.Potential
	basis    *vib.Basis
}

func New(cfg *config.Config, log *slog.Logger) *Experiment {
	if log == nil {
		log = slog.Default()
	}
	return &Experiment{cfg: cfg, log: log, registry: NewRegistry()}
}

// Setup validates the configuration and builds the potential and the
// starting basis, read from the checkpoint when one exists.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	pot, err := e.cfg.Potential()
	if err != nil {
		return err
	}
	e.pot = pot

	if path := e.cfg.Basis.Checkpoint; path != "" {
		b, err := storage.LoadBasis(path, e.cfg.Frequencies)
		switch {
		case err == nil && b.Len() > 0:
			e.log.Info("restarting from checkpoint", "path", path, "states", b.Len())
			e.basis = b
			return nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("read checkpoint: %w", err)
		}
	}

	b, err := e.cfg.InitialBasis()
	if err != nil {
		return err
	}
	e.basis = b
	e.log.Debug("initial basis", "states", b.Len(), "modes", len(e.cfg.Frequencies))
	return nil
}

// Outcome is the result of one full run.
type Outcome struct {
	HCI     *hci.Result
	PT2     map[string]*pt2.Result
	Labels  []string
	Elapsed time.Duration
}

// Correction returns the result reported as the run's correction: the
// sampled one when both were computed.
func (o *Outcome) Correction() *pt2.Result {
	for _, m := range []string{config.PT2SemiStochastic, config.PT2Stochastic, config.PT2Deterministic} {
		if r, ok := o.PT2[m]; ok {
			return r
		}
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*Outcome, error) {
	if e.basis == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	start := time.Now()

	phase := time.Now()
	res, err := hci.Run(ctx, e.basis, e.cfg.Frequencies, e.pot, e.hciOptions())
	if err != nil {
		return nil, err
	}
	metrics.PhaseDuration.WithLabelValues("hci").Observe(time.Since(phase).Seconds())

	if path := e.cfg.Basis.Checkpoint; path != "" {
		if err := storage.SaveBasis(path, res.Basis); err != nil {
			return nil, fmt.Errorf("write checkpoint: %w", err)
		}
	}

	out := &Outcome{HCI: res, PT2: map[string]*pt2.Result{}, Labels: Labels(res)}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in := pt2.Input{
		Basis:       res.Basis,
		Energies:    res.Energies,
		Vectors:     res.Eigen.Leading(res.Roots()),
		Frequencies: e.cfg.Frequencies,
		Potential:   e.pot,
		NStates:     res.Roots(),
		Logger:      e.log,
	}
	if out.PT2, err = e.registry.Correct(ctx, e.cfg.PT2.Mode, in, e.cfg.PT2); err != nil {
		return nil, err
	}

	out.Elapsed = time.Since(start)
	return out, nil
}

func (e *Experiment) hciOptions() hci.Options {
	return hci.Options{
		NStates:        e.cfg.NStates,
		Eps1:           e.cfg.HCI.Eps1,
		Tol:            e.cfg.HCI.Tol,
		MaxIter:        e.cfg.HCI.MaxIter,
		DenseThreshold: e.cfg.HCI.DenseThreshold,
		NCV:            e.cfg.HCI.NCV,
		MaxQuanta:      e.cfg.QuantaCap(),
		SingleDouble:   e.cfg.HCI.SingleDoubleScreening,
		Seed:           e.cfg.PT2.Seed,
		Logger:         e.log,
	}
}

// Labels names every root by its largest-weight basis state.
func Labels(res *hci.Result) []string {
	labels := make([]string, res.Roots())
	rows, _ := res.Eigen.Vectors.Dims()
	for n := range labels {
		best, weight := 0, -1.0
		for i := 0; i < rows; i++ {
			if w := math.Abs(res.Eigen.Vectors.At(i, n)); w > weight {
				best, weight = i, w
			}
		}
		labels[n] = res.Basis.At(best).Label()
	}
	return labels
}

// Metadata summarizes the outcome for the run store.
func (e *Experiment) Metadata(out *Outcome) *storage.RunMetadata {
	meta := &storage.RunMetadata{
		Name:      e.cfg.Name,
		Timestamp: time.Now(),
		Seconds:   out.Elapsed.Seconds(),
		Modes:     len(e.cfg.Frequencies),
		BasisSize: out.HCI.Basis.Len(),
		NStates:   out.HCI.Roots(),
		Eps1:      e.cfg.HCI.Eps1,
		Eps2:      e.cfg.PT2.Eps2,
		Eps3:      e.cfg.PT2.Eps3,
		PT2Mode:   e.cfg.PT2.Mode,
		Seed:      e.cfg.PT2.Seed,
		Energies:  out.HCI.Energies,
		Labels:    out.Labels,
		Metrics:   map[string]float64{},
	}
	for _, it := range out.HCI.History {
		meta.History = append(meta.History, storage.IterationRecord{
			Iteration: it.Index,
			Added:     it.Added,
			Size:      it.Size,
			Energies:  it.Energies,
			Seconds:   it.Duration.Seconds(),
		})
	}
	if c := out.Correction(); c != nil {
		meta.Corrections = c.Correction
		meta.Sigma = c.Sigma
		meta.Metrics["pt2_space"] = float64(c.SpaceSize)
		meta.Metrics["pt2_skipped"] = float64(c.Skipped)
	}
	if d, ok := out.PT2[config.PT2Deterministic]; ok && len(out.PT2) > 1 {
		for n, v := range d.Correction {
			meta.Metrics[fmt.Sprintf("pt2_deterministic_%d", n)] = v
		}
	}
	meta.Metrics["iterations"] = float64(len(out.HCI.History))
	return meta
}
