package hci

import (
	"cmp"
	"math"
	"slices"

	"github.com/san-kum/vhci/internal/vib"
)

func byMagnitude(a, b vib.ForceConstant) int {
	return cmp.Compare(math.Abs(b.Value), math.Abs(a.Value))
}

// SortTerms returns a copy of terms ordered by descending |Value|. Ties keep
// their input order.
func SortTerms(terms []vib.ForceConstant) []vib.ForceConstant {
	s := slices.Clone(terms)
	slices.SortStableFunc(s, byMagnitude)
	return s
}

// ScreeningTerms builds effective one- and two-mode terms that bound how
// strongly cubic and quartic terms can change single modes or mode pairs.
// They widen heat-bath selection and must never be used as couplings.
func ScreeningTerms(pot vib.Potential, modes int) []vib.ForceConstant {
	var out []vib.ForceConstant
	byOrder := pot.ByOrder()

	for i := 0; i < modes; i++ {
		w := 0.0
		for _, fc := range byOrder[3] {
			switch fc.Power(i) {
			case 1:
				w += 2 * fc.Value
			case 3:
				w += 3 * fc.Value
			}
		}
		if math.Abs(w) > 1e-12 {
			fc, _ := vib.NewForceConstant(w, []int{i}, false)
			out = append(out, fc)
		}
	}

	for i := 0; i < modes; i++ {
		for j := i; j < modes; j++ {
			w := 0.0
			for _, fc := range byOrder[4] {
				ci, cj := fc.Power(i), fc.Power(j)
				switch {
				case i != j && ci == 1 && cj == 1:
					w += 2 * fc.Value
				case i == j && ci == 2 && len(fc.Unique) == 2:
					w += 2 * fc.Value
				case (ci == 1 && cj == 3) || (ci == 3 && cj == 1):
					w += 3 * fc.Value
				case i == j && ci == 4:
					w += 4 * fc.Value
				}
			}
			if math.Abs(w) > 1e-12 {
				fc, _ := vib.NewForceConstant(w, []int{i, j}, false)
				out = append(out, fc)
			}
		}
	}
	return out
}
