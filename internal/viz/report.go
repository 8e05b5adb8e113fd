package viz

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/vhci/internal/storage"
)

// EnergyTable writes one row per root. Sigma is shown only when a stochastic
// correction was stored.
func EnergyTable(w io.Writer, rows []storage.EnergyRow) error {
	stochastic := false
	for _, r := range rows {
		if r.Sigma != 0 {
			stochastic = true
			break
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if stochastic {
		fmt.Fprintln(tw, "ROOT\tSTATE\tE(VAR)\tDE(PT2)\tSIGMA\tE(TOTAL)")
	} else {
		fmt.Fprintln(tw, "ROOT\tSTATE\tE(VAR)\tDE(PT2)\tE(TOTAL)")
	}
	for _, r := range rows {
		if stochastic {
			fmt.Fprintf(tw, "%d\t%s\t%.4f\t%.4f\t%.4f\t%.4f\n",
				r.Root, r.Label, r.Variational, r.Correction, r.Sigma, r.Total)
		} else {
			fmt.Fprintf(tw, "%d\t%s\t%.4f\t%.4f\t%.4f\n",
				r.Root, r.Label, r.Variational, r.Correction, r.Total)
		}
	}
	return tw.Flush()
}

// RootSeries extracts root n's energy from each iteration that resolved it.
func RootSeries(history []storage.IterationRecord, n int) []float64 {
	series := make([]float64, 0, len(history))
	for _, it := range history {
		if n < len(it.Energies) {
			series = append(series, it.Energies[n])
		}
	}
	return series
}

// SizeSeries is the basis size after each iteration.
func SizeSeries(history []storage.IterationRecord) []float64 {
	series := make([]float64, len(history))
	for i, it := range history {
		series[i] = float64(it.Size)
	}
	return series
}

// ConvergencePlot charts root n's energy over the HCI iterations. It returns
// "" when fewer than two points are available.
func ConvergencePlot(history []storage.IterationRecord, n, width int) string {
	series := RootSeries(history, n)
	if len(series) < 2 {
		return ""
	}
	return asciigraph.Plot(series,
		asciigraph.Height(10),
		asciigraph.Width(width),
		asciigraph.Precision(3),
		asciigraph.Caption(fmt.Sprintf("root %d energy vs iteration", n)),
	)
}
