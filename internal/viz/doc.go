// Package viz renders stored runs for the terminal.
//
//   - [EnergyTable]: per-root variational, correction and total energies
//   - [ConvergencePlot]: root energy against HCI iteration
//   - [Sparkline]: compact trend of a series, used for basis growth
//
// Styling uses lipgloss and respects the terminal's color profile, so
// output piped to a file stays plain.
package viz
