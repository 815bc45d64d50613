// Package sampler draws a class-balanced subset from a multi-label dataset.
//
// Records are drawn uniformly at random without replacement. A drawn record is
// kept when at least one of its classes is still below quota, and dropped for
// good otherwise. Sampling stops once every quota class has reached its target
// or the pool runs dry. Classes that co-occur with an under-quota class may
// overshoot their own target.
package sampler

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/dbsmedya/gobalance/internal/dataset"
	"github.com/dbsmedya/gobalance/internal/logger"
	"github.com/dbsmedya/gobalance/internal/types"
)

// ErrNegativeQuota is returned when a quota target is below zero.
var ErrNegativeQuota = errors.New("quota must not be negative")

// Options configures a sampling run.
type Options struct {
	Quota   types.ClassQuota
	Seed    int64
	Removal RemovalPolicy

	// RandomSeed ignores Seed and draws a fresh one. The seed used is reported in Result.Seed.
	RandomSeed bool

	// Rand overrides the seeded generator. Seed is then only reported.
	Rand Rand
}

// Result is the outcome of one sampling run.
type Result struct {
	Dataset *types.Dataset // accepted records, in acceptance order
	Seed    int64

	Counts     map[string]int // records containing each quota class
	Incidental map[string]int // records containing classes outside the quota
	Shortfall  map[string]int // missing records per quota class; empty when every target was met

	Considered int // records drawn from the pool
	Discarded  int // drawn records whose classes were all satisfied
	Full       bool
}

// Satisfied reports whether every quota target was met.
func (r *Result) Satisfied() bool {
	return len(r.Shortfall) == 0
}

// Sampler runs stratified sampling with fixed options.
type Sampler struct {
	opts   Options
	logger *logger.Logger
}

// New validates opts and returns a Sampler. A nil logger discards output.
func New(opts Options, log *logger.Logger) (*Sampler, error) {
	for name, target := range opts.Quota {
		if target < 0 {
			return nil, fmt.Errorf("class %q: %w (got %d)", name, ErrNegativeQuota, target)
		}
	}
	policy, err := ParseRemovalPolicy(string(opts.Removal))
	if err != nil {
		return nil, err
	}
	opts.Removal = policy

	if log == nil {
		log = logger.NewNop()
	}
	return &Sampler{opts: opts, logger: log}, nil
}

// Sample draws from ds with the package defaults: seeded PCG and swap removal.
func Sample(ds *types.Dataset, quota types.ClassQuota, seed int64) (*Result, error) {
	s, err := New(Options{Quota: quota, Seed: seed}, nil)
	if err != nil {
		return nil, err
	}
	return s.Sample(ds)
}

// NewRand returns the generator used for a given seed.
func NewRand(seed int64) *rand.Rand {
	s := uint64(seed)
	return rand.New(rand.NewPCG(s, s))
}

// Sample selects a subset of ds. Records are returned unmodified. Falling
// short of a quota is not an error; it is reported in Result.Shortfall.
func (s *Sampler) Sample(ds *types.Dataset) (*Result, error) {
	index, err := dataset.BuildIndex(ds)
	if err != nil {
		return nil, err
	}

	seed := s.opts.Seed
	if s.opts.RandomSeed {
		seed = rand.Int64() ^ time.Now().UnixNano()
	}
	rng := s.opts.Rand
	if rng == nil {
		rng = NewRand(seed)
	}

	state := newSampleState(s.opts.Quota)
	remaining := newPool(ds.Keys(), s.opts.Removal)
	selected := types.NewDataset()
	result := &Result{Seed: seed}

	s.logger.Debugw("Sampling started",
		"records", ds.Len(),
		"classes", len(s.opts.Quota),
		"seed", seed,
		"removal", s.opts.Removal,
	)

	for remaining.len() > 0 && !state.full() {
		key := remaining.draw(rng)
		result.Considered++

		classes := index[key]
		if !state.wants(classes) {
			result.Discarded++
			continue
		}

		rec, _ := ds.Get(key)
		if err := selected.Add(rec); err != nil {
			return nil, fmt.Errorf("failed to select %q: %w", key, err)
		}
		state.add(classes)

		s.logger.Debugw("Record accepted", "record", key, "counts", state.counts)
	}

	result.Dataset = selected
	result.Counts = state.counts
	result.Incidental = state.incidental
	result.Shortfall = state.shortfall()
	result.Full = state.full()

	if !result.Satisfied() {
		s.logger.Warnw("Pool exhausted before every quota was met",
			"shortfall", result.Shortfall,
			"selected", selected.Len(),
		)
	}
	s.logger.Infow("Sampling finished",
		"selected", selected.Len(),
		"considered", result.Considered,
		"discarded", result.Discarded,
		"seed", seed,
	)

	return result, nil
}
