package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Process-wide collectors, registered on the default registry by promauto.
var (
	// AssemblyPairs counts basis pairs by whether they reached a matrix element
	// evaluation ("kept") or were rejected by the quick screen ("rejected").
	AssemblyPairs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vhci_assembly_pairs_total",
			Help: "Basis state pairs considered during Hamiltonian assembly",
		},
		[]string{"result"},
	)

	// AssemblyDuration measures one Hamiltonian build.
	AssemblyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vhci_assembly_duration_seconds",
			Help:    "Duration of Hamiltonian assembly in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		},
		[]string{"format"},
	)

	BasisSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vhci_basis_size",
			Help: "Number of states in the current variational basis",
		},
	)

	StatesAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vhci_heatbath_states_added_total",
			Help: "States added to the basis by heat-bath selection",
		},
	)

	Iterations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vhci_iterations_total",
			Help: "Completed HCI iterations",
		},
	)

	PT2SpaceSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vhci_pt2_space_size",
			Help: "Number of external states in the last perturbative correction",
		},
		[]string{"method"},
	)

	// SkippedDenominators counts perturbative contributions dropped because
	// the energy denominator was degenerate or the ratio was not finite.
	SkippedDenominators = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vhci_pt2_skipped_denominators_total",
			Help: "Perturbative contributions skipped for degenerate denominators",
		},
	)

	PhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vhci_phase_duration_seconds",
			Help:    "Duration of run phases in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"phase"},
	)
)
