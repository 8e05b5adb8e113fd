package storage

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/vhci/internal/vib"
)

// SaveBasis writes one line of space-separated quanta per state.
func SaveBasis(path string, basis *vib.Basis) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, s := range basis.States() {
		for k, m := range s.Modes {
			if k > 0 {
				w.WriteByte(' ')
			}
			w.WriteString(strconv.Itoa(m.Quanta))
		}
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadBasis reads a checkpoint written by SaveBasis. Blank lines are ignored
// and repeated states are dropped.
func LoadBasis(path string, freqs []float64) (*vib.Basis, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b := vib.NewBasis()
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		q := make([]int, len(fields))
		for i, field := range fields {
			if q[i], err = strconv.Atoi(field); err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, line, err)
			}
		}
		s, err := vib.NewState(q, freqs)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		b.Add(s)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return b, nil
}
