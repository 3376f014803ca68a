package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// minimizeNelderMead finds the posterior mode with derivative-free
// Nelder-Mead, the standard choice for the non-smooth objective the
// smoother recursion produces.
func minimizeNelderMead(f func([]float64) float64, x0 []float64) ([]float64, error) {
	problem := optimize.Problem{
		Func: f,
	}

	result, err := optimize.Minimize(problem, x0, nil, &optimize.NelderMead{})
	if err != nil {
		return nil, fmt.Errorf("nelder-mead: %w", err)
	}
	if result == nil || len(result.X) != len(x0) {
		return nil, errors.New("nelder-mead returned no solution")
	}
	if math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return nil, errors.New("nelder-mead diverged")
	}

	return result.X, nil
}

// metropolis is a random-walk Metropolis sampler over the unconstrained
// parameter space. The chain starts at the posterior mode, which keeps
// burn-in short for the low-dimensional posteriors fitted here.
type metropolis struct {
	negLogPost func([]float64) float64
	seed       int64
	iterations int
	burnIn     int
	stepSize   float64
}

func newMetropolis(negLogPost func([]float64) float64, seed int64, iterations, burnIn int) *metropolis {
	return &metropolis{
		negLogPost: negLogPost,
		seed:       seed,
		iterations: iterations,
		burnIn:     burnIn,
		stepSize:   0.1,
	}
}

// PosteriorMean runs the chain and returns the mean of the post-burn-in
// draws. The sampler is deterministic for a fixed seed.
func (s *metropolis) PosteriorMean(ctx context.Context, start []float64) ([]float64, error) {
	if s.iterations <= s.burnIn {
		return nil, errors.New("iterations must exceed burn-in")
	}

	src := rand.NewPCG(uint64(s.seed), uint64(s.seed)^0x9e3779b97f4a7c15)
	rng := rand.New(src)
	proposal := distuv.Normal{Mu: 0, Sigma: s.stepSize, Src: src}

	dim := len(start)
	current := append([]float64(nil), start...)
	currentNLL := s.negLogPost(current)
	if math.IsInf(currentNLL, 1) {
		return nil, errors.New("chain start has zero posterior density")
	}

	sums := make([]float64, dim)
	kept := 0
	candidate := make([]float64, dim)

	for iter := 0; iter < s.iterations; iter++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("sampling cancelled: %w", ctx.Err())
		default:
		}

		for j := range candidate {
			candidate[j] = current[j] + proposal.Rand()
		}

		candidateNLL := s.negLogPost(candidate)
		// Accept with probability exp(currentNLL - candidateNLL).
		if candidateNLL <= currentNLL || rng.Float64() < math.Exp(currentNLL-candidateNLL) {
			copy(current, candidate)
			currentNLL = candidateNLL
		}

		if iter >= s.burnIn {
			for j := range current {
				sums[j] += current[j]
			}
			kept++
		}
	}

	mean := make([]float64, dim)
	for j := range sums {
		mean[j] = sums[j] / float64(kept)
	}
	return mean, nil
}

// newRNG builds a deterministic generator for bootstrap resampling.
func newRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// quantile returns the empirical p-quantile of values.
func quantile(values []float64, p float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}
