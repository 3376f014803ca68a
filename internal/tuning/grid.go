// Package tuning implements the hyperparameter grid search of the DLT
// experiment: an exhaustive sweep over global trend, estimator and ridge
// penalty, selecting the combination with the lowest test-window MAE.
package tuning

import (
	"context"
	"fmt"
	"math"
	"sync"

	"tdxcli/internal/forecast"
	"tdxcli/internal/infrastructure"
	"tdxcli/internal/timeseries"
)

// Combination is one point of the hyperparameter grid.
type Combination struct {
	Trend     forecast.TrendOption
	Estimator forecast.Estimator
	Penalty   *float64 // nil = no ridge penalty on regressors
}

// PenaltyLabel renders the penalty for logs and the assessment table.
// A nil penalty is recorded as an empty field.
func (c Combination) PenaltyLabel() string {
	if c.Penalty == nil {
		return ""
	}
	return fmt.Sprintf("%g", *c.Penalty)
}

// Config controls a grid search run.
type Config struct {
	Seasonality    int
	Seed           int64
	BootstrapDraws int
	MaxConcurrency int
}

// Result is the winning combination with its refitted model and accuracy.
type Result struct {
	Combination Combination
	Model       *forecast.DLT
	Prediction  *forecast.Prediction
	Accuracy    forecast.Accuracy
	Evaluated   int
}

// Penalties returns the regularization grid. The leading nil entry is the
// unpenalized regression fit.
func Penalties() []*float64 {
	p1, p2, p3 := 0.01, 0.1, 1.0
	return []*float64{nil, &p1, &p2, &p3}
}

// Grid enumerates every trend x estimator x penalty combination in a
// stable order, which is also the tie-break order of the search.
func Grid() []Combination {
	var grid []Combination
	for _, trend := range forecast.TrendOptions() {
		for _, estimator := range forecast.Estimators() {
			for _, penalty := range Penalties() {
				grid = append(grid, Combination{Trend: trend, Estimator: estimator, Penalty: penalty})
			}
		}
	}
	return grid
}

// candidate carries a grid evaluation back to the selector.
type candidate struct {
	index int
	combo Combination
	mae   float64
}

// comboSeed derives the RNG seed of one grid combination from the base
// seed, so every combination runs on its own deterministic stream.
func comboSeed(base int64, index int) int64 {
	return base + int64(index)
}

// SearchDLT evaluates the full grid on the train/test split and refits the
// winning combination with bootstrap draws enabled. Combinations whose fit
// fails are logged and skipped; the search errors only when every
// combination failed.
func SearchDLT(ctx context.Context, train, test *timeseries.Frame, cfg Config) (*Result, error) {
	logger := infrastructure.LoggerWithContext(ctx)
	grid := Grid()

	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	resultsChan := make(chan candidate, len(grid))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, maxConcurrency)

	for i, combo := range grid {
		wg.Add(1)
		go func(idx int, c Combination) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			// Interval simulation is skipped during the search; only the
			// point forecast feeds the MAE criterion.
			model := forecast.NewDLT(forecast.DLTConfig{
				Trend:       c.Trend,
				Estimator:   c.Estimator,
				Seasonality: cfg.Seasonality,
				Penalty:     c.Penalty,
				Seed:        comboSeed(cfg.Seed, idx),
			})

			if err := model.Fit(ctx, train); err != nil {
				logger.DebugContext(ctx, "grid combination failed to fit",
					"trend", string(c.Trend),
					"estimator", string(c.Estimator),
					"penalty", c.PenaltyLabel(),
					"error", err,
				)
				return
			}

			pred, err := model.Predict(test)
			if err != nil {
				logger.DebugContext(ctx, "grid combination failed to predict",
					"trend", string(c.Trend),
					"estimator", string(c.Estimator),
					"penalty", c.PenaltyLabel(),
					"error", err,
				)
				return
			}

			mae := forecast.MAE(pred.Point, test.Response)
			if math.IsNaN(mae) || math.IsInf(mae, 0) {
				return
			}

			logger.DebugContext(ctx, "grid combination evaluated",
				"trend", string(c.Trend),
				"estimator", string(c.Estimator),
				"penalty", c.PenaltyLabel(),
				"mae", mae,
			)

			resultsChan <- candidate{index: idx, combo: c, mae: mae}
		}(i, combo)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	best := candidate{index: len(grid), mae: math.Inf(1)}
	evaluated := 0
	for cand := range resultsChan {
		evaluated++
		// Grid order breaks MAE ties so the selection stays deterministic
		// under concurrent evaluation.
		if cand.mae < best.mae || (cand.mae == best.mae && cand.index < best.index) {
			best = cand
		}
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("grid search cancelled: %w", ctx.Err())
	default:
	}

	if math.IsInf(best.mae, 1) {
		return nil, fmt.Errorf("no grid combination produced a usable fit")
	}

	logger.InfoContext(ctx, "grid search completed",
		"evaluated", evaluated,
		"total", len(grid),
		"best_trend", string(best.combo.Trend),
		"best_estimator", string(best.combo.Estimator),
		"best_penalty", best.combo.PenaltyLabel(),
		"best_mae", best.mae,
	)

	// Refit the winner with interval simulation enabled for the final
	// assessment run.
	model := forecast.NewDLT(forecast.DLTConfig{
		Trend:          best.combo.Trend,
		Estimator:      best.combo.Estimator,
		Seasonality:    cfg.Seasonality,
		Penalty:        best.combo.Penalty,
		Seed:           comboSeed(cfg.Seed, best.index),
		BootstrapDraws: cfg.BootstrapDraws,
	})
	if err := model.Fit(ctx, train); err != nil {
		return nil, fmt.Errorf("refit best combination: %w", err)
	}
	pred, err := model.Predict(test)
	if err != nil {
		return nil, fmt.Errorf("predict with best combination: %w", err)
	}

	return &Result{
		Combination: best.combo,
		Model:       model,
		Prediction:  pred,
		Accuracy:    forecast.Evaluate(pred.Point, test.Response),
		Evaluated:   evaluated,
	}, nil
}
