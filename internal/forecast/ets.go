package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"

	"tdxcli/internal/timeseries"
)

// ETSConfig configures an error-trend-seasonality smoother.
type ETSConfig struct {
	Estimator      Estimator
	Seasonality    int // seasonal period, 0 disables seasonality
	Seed           int64
	BootstrapDraws int
	MCMCIterations int
	MCMCBurnIn     int
}

// ETS is an additive exponential smoothing model with a damped trend and
// optional additive seasonality. Unlike DLT it carries no deterministic
// global trend and no regression component.
type ETS struct {
	cfg ETSConfig

	params    etsParams
	state     smootherState
	residuals []float64
	trainLen  int
	respMean  float64
	respStd   float64
	season    int
	fitted    bool
}

type etsParams struct {
	LevelSmoothing    float64
	TrendSmoothing    float64
	Damping           float64
	SeasonalSmoothing float64
}

// NewETS creates an unfitted ETS model.
func NewETS(cfg ETSConfig) *ETS {
	if cfg.Estimator == "" {
		cfg.Estimator = EstimatorMAP
	}
	if cfg.MCMCIterations == 0 {
		cfg.MCMCIterations = 2000
	}
	if cfg.MCMCBurnIn == 0 {
		cfg.MCMCBurnIn = 500
	}
	return &ETS{cfg: cfg}
}

// Name implements Model.
func (m *ETS) Name() string { return "ETS" }

// Fit estimates the smoothing parameters on the training frame.
func (m *ETS) Fit(ctx context.Context, train *timeseries.Frame) error {
	n := train.Len()
	if n < 10 {
		return errors.New("insufficient training observations")
	}

	m.trainLen = n
	m.season = m.cfg.Seasonality
	if m.season > 0 && n < 2*m.season {
		m.season = 0
	}

	m.respMean, m.respStd = meanStd(train.Response)
	y := make([]float64, n)
	for i, v := range train.Response {
		y[i] = (v - m.respMean) / m.respStd
	}

	dim := 3
	if m.season > 0 {
		dim = 4
	}
	x0 := make([]float64, dim)

	negLogPost := func(x []float64) float64 {
		select {
		case <-ctx.Done():
			return math.Inf(1)
		default:
		}
		p := m.paramsFromVector(x)
		resid, _ := m.filter(p, y)
		sse := 0.0
		for _, r := range resid {
			sse += r * r
		}
		if math.IsNaN(sse) || math.IsInf(sse, 0) {
			return math.Inf(1)
		}
		return 0.5 * float64(len(resid)) * math.Log(sse/float64(len(resid))+1e-12)
	}

	mode, err := minimizeNelderMead(negLogPost, x0)
	if err != nil {
		return fmt.Errorf("posterior mode search: %w", err)
	}

	estimate := mode
	if m.cfg.Estimator == EstimatorMCMC {
		sampler := newMetropolis(negLogPost, m.cfg.Seed, m.cfg.MCMCIterations, m.cfg.MCMCBurnIn)
		estimate, err = sampler.PosteriorMean(ctx, mode)
		if err != nil {
			return fmt.Errorf("metropolis sampling: %w", err)
		}
	}

	m.params = m.paramsFromVector(estimate)
	resid, state := m.filter(m.params, y)
	m.residuals = resid
	m.state = state
	m.fitted = true

	return nil
}

// Predict forecasts one value per row of the test frame.
func (m *ETS) Predict(test *timeseries.Frame) (*Prediction, error) {
	if !m.fitted {
		return nil, errors.New("model must be fitted before prediction")
	}
	h := test.Len()
	if h == 0 {
		return nil, errors.New("empty test frame")
	}

	point := m.forecastPath(h, nil)
	for i := range point {
		point[i] = m.respMean + m.respStd*point[i]
	}
	pred := &Prediction{Point: point}

	if m.cfg.BootstrapDraws > 0 && len(m.residuals) > 1 {
		rng := newRNG(m.cfg.Seed + 1)
		paths := make([][]float64, h)
		for i := range paths {
			paths[i] = make([]float64, m.cfg.BootstrapDraws)
		}
		errs := make([]float64, h)
		for d := 0; d < m.cfg.BootstrapDraws; d++ {
			for i := range errs {
				errs[i] = m.residuals[rng.IntN(len(m.residuals))]
			}
			path := m.forecastPath(h, errs)
			for i, v := range path {
				paths[i][d] = m.respMean + m.respStd*v
			}
		}
		pred.Lower = make([]float64, h)
		pred.Upper = make([]float64, h)
		for i := range paths {
			pred.Lower[i] = quantile(paths[i], 0.025)
			pred.Upper[i] = quantile(paths[i], 0.975)
		}
	}

	return pred, nil
}

func (m *ETS) paramsFromVector(x []float64) etsParams {
	p := etsParams{
		LevelSmoothing: sigmoid(x[0]),
		TrendSmoothing: sigmoid(x[1]),
		Damping:        sigmoid(x[2]),
	}
	if m.season > 0 {
		p.SeasonalSmoothing = sigmoid(x[3])
	}
	return p
}

// filter runs the additive damped Holt-Winters recursion and returns the
// one-step-ahead residuals and the terminal state.
func (m *ETS) filter(p etsParams, y []float64) (resid []float64, state smootherState) {
	n := len(y)
	resid = make([]float64, n)

	seasonal := initialSeasonalIndices(y, m.season)
	level := y[0] - seasonalAt(seasonal, 0)
	trend := 0.0

	for t := 0; t < n; t++ {
		yhat := level + p.Damping*trend + seasonalAt(seasonal, t)
		e := y[t] - yhat
		resid[t] = e

		newLevel := level + p.Damping*trend + p.LevelSmoothing*e
		trend = p.Damping*trend + p.TrendSmoothing*p.LevelSmoothing*e
		level = newLevel
		if m.season > 0 {
			seasonal[t%m.season] += p.SeasonalSmoothing * e
		}
	}

	return resid, smootherState{Level: level, Slope: trend, Seasonal: seasonal}
}

func (m *ETS) forecastPath(h int, errs []float64) []float64 {
	p := m.params
	level := m.state.Level
	trend := m.state.Slope
	seasonal := append([]float64(nil), m.state.Seasonal...)

	out := make([]float64, h)
	for i := 0; i < h; i++ {
		t := m.trainLen + i
		yhat := level + p.Damping*trend + seasonalAt(seasonal, t)

		e := 0.0
		if errs != nil {
			e = errs[i]
		}
		out[i] = yhat + e

		newLevel := level + p.Damping*trend + p.LevelSmoothing*e
		trend = p.Damping*trend + p.TrendSmoothing*p.LevelSmoothing*e
		level = newLevel
		if m.season > 0 {
			seasonal[t%m.season] += p.SeasonalSmoothing * e
		}
	}
	return out
}

// initialSeasonalIndices seeds seasonal indices with per-phase means,
// normalized to sum to zero.
func initialSeasonalIndices(y []float64, season int) []float64 {
	if season == 0 {
		return nil
	}
	seasonal := make([]float64, season)
	counts := make([]int, season)
	for t, v := range y {
		seasonal[t%season] += v
		counts[t%season]++
	}
	mean := 0.0
	for j := range seasonal {
		if counts[j] > 0 {
			seasonal[j] /= float64(counts[j])
		}
		mean += seasonal[j]
	}
	mean /= float64(season)
	for j := range seasonal {
		seasonal[j] -= mean
	}
	return seasonal
}
