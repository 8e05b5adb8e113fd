package experiment

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/vhci/internal/config"
	"github.com/san-kum/vhci/internal/pt2"
)

// Method computes one kind of perturbative correction.
type Method func(in pt2.Input, cfg config.PT2Config) (*pt2.Result, error)

type Registry struct {
	methods map[string]Method
	plans   map[string][]string
}

func NewRegistry() *Registry {
	r := &Registry{
		methods: make(map[string]Method),
		plans:   make(map[string][]string),
	}

	r.methods[config.PT2Deterministic] = func(in pt2.Input, cfg config.PT2Config) (*pt2.Result, error) {
		return pt2.Compute(in, cfg.Eps2)
	}
	r.methods[config.PT2Stochastic] = func(in pt2.Input, cfg config.PT2Config) (*pt2.Result, error) {
		return pt2.ComputeStochastic(in, cfg.Eps2, samplingOptions(cfg))
	}
	r.methods[config.PT2SemiStochastic] = func(in pt2.Input, cfg config.PT2Config) (*pt2.Result, error) {
		return pt2.ComputeSemiStochastic(in, cfg.Eps2, samplingOptions(cfg))
	}

	r.plans[config.PT2None] = nil
	r.plans[config.PT2Deterministic] = []string{config.PT2Deterministic}
	r.plans[config.PT2Stochastic] = []string{config.PT2Stochastic}
	r.plans[config.PT2SemiStochastic] = []string{config.PT2SemiStochastic}
	r.plans[config.PT2Compare] = []string{config.PT2Deterministic, config.PT2SemiStochastic}

	return r
}

func samplingOptions(cfg config.PT2Config) pt2.SPT2Options {
	return pt2.SPT2Options{
		Stochastic: true,
		Eps2:       cfg.Eps3,
		Walkers:    cfg.Walkers,
		Samples:    cfg.Samples,
		Seed:       cfg.Seed,
	}
}

func (r *Registry) GetMethod(name string) (Method, error) {
	fn, ok := r.methods[name]
	if !ok {
		return nil, fmt.Errorf("unknown pt2 method: %s", name)
	}
	return fn, nil
}

func (r *Registry) ListModes() []string {
	names := make([]string, 0, len(r.plans))
	for name := range r.plans {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Correct runs every method of the mode concurrently and returns the
// results by method name.
func (r *Registry) Correct(ctx context.Context, mode string, in pt2.Input, cfg config.PT2Config) (map[string]*pt2.Result, error) {
	plan, ok := r.plans[mode]
	if !ok {
		return nil, fmt.Errorf("unknown pt2 mode: %s", mode)
	}

	var mu sync.Mutex
	results := make(map[string]*pt2.Result, len(plan))
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range plan {
		method, err := r.GetMethod(name)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := method(in, cfg)
			if err != nil {
				return fmt.Errorf("%s pt2: %w", name, err)
			}
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
