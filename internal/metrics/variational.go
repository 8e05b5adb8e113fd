package metrics

// Variational counts iterations in which some root rose by more than
// threshold. Growing the basis can only lower variational energies, so any
// violation points at an eigensolver that converged to the wrong roots.
type Variational struct {
	name       string
	threshold  float64
	previous   []float64
	violations int
	samples    int
}

func NewVariational(threshold float64) *Variational {
	return &Variational{
		name:      "variational",
		threshold: threshold,
	}
}

func (v *Variational) Name() string {
	return v.name
}

func (v *Variational) Observe(energies []float64) {
	if v.samples > 0 {
		for i := 0; i < min(len(energies), len(v.previous)); i++ {
			if energies[i]-v.previous[i] > v.threshold {
				v.violations++
				break
			}
		}
	}
	v.previous = append(v.previous[:0], energies...)
	v.samples++
}

// Value is the fraction of iterations that respected the variational bound.
func (v *Variational) Value() float64 {
	if v.samples <= 1 {
		return 1.0
	}
	return 1.0 - float64(v.violations)/float64(v.samples-1)
}

func (v *Variational) Violations() int { return v.violations }

func (v *Variational) Reset() {
	v.previous = v.previous[:0]
	v.violations = 0
	v.samples = 0
}
