package metrics

import "math"

// Convergence tracks how far the variational energies move between
// successive HCI iterations.
type Convergence struct {
	name     string
	previous []float64
	current  float64
	maxShift float64
	samples  int
}

func NewConvergence() *Convergence {
	return &Convergence{name: "energy_shift"}
}

func (c *Convergence) Name() string { return c.name }

// Observe records one iteration's energies. The first observation sets the
// reference and reports no shift.
func (c *Convergence) Observe(energies []float64) {
	defer func() {
		c.previous = append(c.previous[:0], energies...)
		c.samples++
	}()
	if c.samples == 0 {
		return
	}
	c.current = 0
	for i := 0; i < min(len(energies), len(c.previous)); i++ {
		c.current = max(c.current, math.Abs(energies[i]-c.previous[i]))
	}
	c.maxShift = max(c.maxShift, c.current)
}

// Value is the largest root shift of the last observation.
func (c *Convergence) Value() float64 { return c.current }

func (c *Convergence) Max() float64 { return c.maxShift }

func (c *Convergence) Reset() {
	c.previous = c.previous[:0]
	c.current = 0
	c.maxShift = 0
	c.samples = 0
}
