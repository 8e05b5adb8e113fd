package vib

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestBasisAdd(t *testing.T) {
	b := NewBasis(mustState(t, 0, 0), mustState(t, 1, 0), mustState(t, 0, 0))
	if b.Len() != 2 {
		t.Fatalf("duplicates kept: got %d states, expected 2", b.Len())
	}

	idx, added := b.Add(mustState(t, 1, 0))
	if added || idx != 1 {
		t.Errorf("re-adding: got (%d, %v), expected (1, false)", idx, added)
	}
	idx, added = b.Add(mustState(t, 0, 1))
	if !added || idx != 2 {
		t.Errorf("adding: got (%d, %v), expected (2, true)", idx, added)
	}
	if !b.Contains(mustState(t, 0, 1)) || b.IndexOf(mustState(t, 3, 3)) != -1 {
		t.Error("membership lookup wrong")
	}

	c := b.Clone()
	c.Add(mustState(t, 2, 2))
	if b.Len() != 3 || c.Len() != 4 {
		t.Errorf("clone not independent: %d and %d", b.Len(), c.Len())
	}
}

func TestBasisValidate(t *testing.T) {
	b := NewBasis(mustState(t, 0, 0), mustState(t, 0, 0, 1))
	err := b.Validate([]float64{1, 2})
	var se *StateError
	if !errors.As(err, &se) || se.Index != 1 {
		t.Fatalf("expected StateError at index 1, got %v", err)
	}
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestTruncatedBasis(t *testing.T) {
	freqs := []float64{1000, 2000}
	b, err := TruncatedBasis(freqs, []int{3, 3}, 4)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]int{{0, 0}, {1, 0}, {0, 1}, {2, 0}, {1, 1}, {0, 2}, {2, 1}, {1, 2}, {2, 2}}
	if b.Len() != len(want) {
		t.Fatalf("got %d states, expected %d", b.Len(), len(want))
	}
	for i, q := range want {
		s := b.At(i)
		if s.Quanta(0) != q[0] || s.Quanta(1) != q[1] {
			t.Errorf("state %d: got %v, expected %v", i, s, q)
		}
	}

	if _, err := TruncatedBasis(freqs, []int{3}, 4); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestParallelFor(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1001} {
		chunks := NumChunks(n, 8)
		seen := make([]int32, n)
		var calls int32
		ParallelFor(n, 8, func(chunk, start, end int) {
			if chunk < 0 || chunk >= chunks {
				t.Errorf("chunk %d outside [0, %d)", chunk, chunks)
			}
			atomic.AddInt32(&calls, 1)
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, c)
			}
		}
		if int(calls) > chunks {
			t.Errorf("n=%d: %d calls for %d chunks", n, calls, chunks)
		}
	}
}
