package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"

	"tdxcli/internal/timeseries"
)

// DLTConfig configures a damped local trend model.
type DLTConfig struct {
	Trend          TrendOption
	Estimator      Estimator
	Seasonality    int      // seasonal period, 0 disables seasonality
	Penalty        *float64 // ridge penalty on regressor coefficients, nil = unpenalized
	Seed           int64
	BootstrapDraws int
	MCMCIterations int
	MCMCBurnIn     int
}

// DLT is a damped local trend structural model: a deterministic global
// trend plus a damped local level/slope, additive seasonality and an
// optional regression component. Parameters are estimated by posterior
// mode search or random-walk Metropolis on the unconstrained scale.
type DLT struct {
	cfg DLTConfig

	// set by Fit
	params     dltParams
	state      smootherState
	residuals  []float64 // one-step-ahead, standardized scale
	fittedVals []float64 // one-step-ahead fitted values, standardized scale
	trainLen   int
	numReg     int
	respMean   float64
	respStd    float64
	regMean    []float64
	regStd     []float64
	season     int // effective seasonality after short-series fallback
	fitted     bool
}

// dltParams are the model parameters on the constrained scale.
type dltParams struct {
	LevelSmoothing    float64 // alpha in (0,1)
	SlopeSmoothing    float64 // beta in (0,1)
	Damping           float64 // phi in (0,1)
	SeasonalSmoothing float64 // gamma in (0,1), unused when season == 0
	TrendCoefs        []float64
	RegressorCoefs    []float64
}

// smootherState is the terminal filter state used for forecasting.
type smootherState struct {
	Level    float64
	Slope    float64
	Seasonal []float64
}

// NewDLT creates an unfitted DLT model.
func NewDLT(cfg DLTConfig) *DLT {
	if cfg.Trend == "" {
		cfg.Trend = TrendLinear
	}
	if cfg.Estimator == "" {
		cfg.Estimator = EstimatorMAP
	}
	if cfg.MCMCIterations == 0 {
		cfg.MCMCIterations = 2000
	}
	if cfg.MCMCBurnIn == 0 {
		cfg.MCMCBurnIn = 500
	}
	return &DLT{cfg: cfg}
}

// Name implements Model.
func (m *DLT) Name() string { return "DLT" }

// Config returns the model configuration.
func (m *DLT) Config() DLTConfig { return m.cfg }

// Fit estimates the model parameters on the training frame. The response
// and regressors are standardized internally so every parameter is O(1)
// regardless of the SQALE index magnitude of the project.
func (m *DLT) Fit(ctx context.Context, train *timeseries.Frame) error {
	n := train.Len()
	if n < 10 {
		return errors.New("insufficient training observations")
	}

	m.trainLen = n
	m.numReg = train.NumRegressors()
	m.season = m.cfg.Seasonality
	// Seasonal estimation needs at least two full cycles.
	if m.season > 0 && n < 2*m.season {
		m.season = 0
	}

	y := m.standardizeResponse(train.Response)
	regs := m.standardizeRegressors(train.Regressors)

	dim := m.paramDim()
	x0 := make([]float64, dim)

	negLogPost := func(x []float64) float64 {
		select {
		case <-ctx.Done():
			return math.Inf(1)
		default:
		}
		p := m.paramsFromVector(x)
		_, resid, _ := m.filter(p, y, regs)
		return m.penalizedNLL(p, resid)
	}

	mode, err := minimizeNelderMead(negLogPost, x0)
	if err != nil {
		return fmt.Errorf("posterior mode search: %w", err)
	}

	var estimate []float64
	switch m.cfg.Estimator {
	case EstimatorMCMC:
		sampler := newMetropolis(negLogPost, m.cfg.Seed, m.cfg.MCMCIterations, m.cfg.MCMCBurnIn)
		estimate, err = sampler.PosteriorMean(ctx, mode)
		if err != nil {
			return fmt.Errorf("metropolis sampling: %w", err)
		}
	default:
		estimate = mode
	}

	m.params = m.paramsFromVector(estimate)
	fittedVals, resid, state := m.filter(m.params, y, regs)
	m.fittedVals = fittedVals
	m.residuals = resid
	m.state = state
	m.fitted = true

	return nil
}

// Predict forecasts one value per row of the test frame and attaches 95%
// bootstrap prediction intervals simulated through the smoother recursion.
func (m *DLT) Predict(test *timeseries.Frame) (*Prediction, error) {
	if !m.fitted {
		return nil, errors.New("model must be fitted before prediction")
	}
	h := test.Len()
	if h == 0 {
		return nil, errors.New("empty test frame")
	}
	if test.NumRegressors() != m.numReg {
		return nil, fmt.Errorf("regressor count mismatch: train %d, test %d", m.numReg, test.NumRegressors())
	}

	regs := m.applyRegressorScaling(test.Regressors)

	point := m.forecastPath(h, regs, nil)
	for i := range point {
		point[i] = m.respMean + m.respStd*point[i]
	}

	pred := &Prediction{Point: point}

	if m.cfg.BootstrapDraws > 0 && len(m.residuals) > 1 {
		lower, upper := m.bootstrapIntervals(h, regs)
		pred.Lower = lower
		pred.Upper = upper
	}

	return pred, nil
}

// paramDim returns the length of the unconstrained parameter vector:
// smoothing (3 or 4 with seasonality) + trend coefs + regressor coefs.
func (m *DLT) paramDim() int {
	dim := 3 + m.trendCoefCount() + m.numReg
	if m.season > 0 {
		dim++
	}
	return dim
}

func (m *DLT) trendCoefCount() int {
	if m.cfg.Trend == TrendFlat {
		return 1
	}
	return 2
}

// paramsFromVector maps the unconstrained vector onto the constrained
// parameter space. Smoothing weights go through a logistic transform.
func (m *DLT) paramsFromVector(x []float64) dltParams {
	var p dltParams
	i := 0
	p.LevelSmoothing = sigmoid(x[i])
	i++
	p.SlopeSmoothing = sigmoid(x[i])
	i++
	p.Damping = sigmoid(x[i])
	i++
	if m.season > 0 {
		p.SeasonalSmoothing = sigmoid(x[i])
		i++
	}
	tc := m.trendCoefCount()
	p.TrendCoefs = append([]float64(nil), x[i:i+tc]...)
	i += tc
	p.RegressorCoefs = append([]float64(nil), x[i:]...)
	return p
}

// globalTrend evaluates the deterministic trend at 0-based time index t,
// where indices continue past the training window during forecasting.
func (m *DLT) globalTrend(p dltParams, t int) float64 {
	u := float64(t) / float64(m.trainLen)
	switch m.cfg.Trend {
	case TrendFlat:
		return p.TrendCoefs[0]
	case TrendLogLinear:
		return p.TrendCoefs[0] + p.TrendCoefs[1]*math.Log1p(float64(t))/math.Log1p(float64(m.trainLen))
	case TrendLogistic:
		return p.TrendCoefs[0] + p.TrendCoefs[1]/(1+math.Exp(-6*(u-0.5)))
	default: // linear
		return p.TrendCoefs[0] + p.TrendCoefs[1]*u
	}
}

// filter runs the one-step-ahead smoother over the standardized training
// series and returns fitted values, residuals and the terminal state.
func (m *DLT) filter(p dltParams, y []float64, regs [][]float64) (fitted, resid []float64, state smootherState) {
	n := len(y)
	fitted = make([]float64, n)
	resid = make([]float64, n)

	seasonal := initialSeasonalIndices(y, m.season)

	level := y[0] - m.globalTrend(p, 0) - seasonalAt(seasonal, 0) - dotRegs(regs, p.RegressorCoefs, 0)
	slope := 0.0

	for t := 0; t < n; t++ {
		yhat := m.globalTrend(p, t) + level + p.Damping*slope + seasonalAt(seasonal, t) + dotRegs(regs, p.RegressorCoefs, t)
		e := y[t] - yhat

		fitted[t] = yhat
		resid[t] = e

		newLevel := level + p.Damping*slope + p.LevelSmoothing*e
		slope = p.Damping*slope + p.SlopeSmoothing*p.LevelSmoothing*e
		level = newLevel
		if m.season > 0 {
			seasonal[t%m.season] += p.SeasonalSmoothing * e
		}
	}

	return fitted, resid, smootherState{Level: level, Slope: slope, Seasonal: seasonal}
}

// forecastPath extrapolates h steps from the terminal state. When errs is
// non-nil it is consumed as the simulated innovation sequence and the state
// keeps updating, which is how bootstrap paths are generated.
func (m *DLT) forecastPath(h int, regs [][]float64, errs []float64) []float64 {
	p := m.params
	level := m.state.Level
	slope := m.state.Slope
	seasonal := append([]float64(nil), m.state.Seasonal...)

	out := make([]float64, h)
	for i := 0; i < h; i++ {
		t := m.trainLen + i
		yhat := m.globalTrend(p, t) + level + p.Damping*slope + seasonalAt(seasonal, t) + dotRegs(regs, p.RegressorCoefs, i)

		e := 0.0
		if errs != nil {
			e = errs[i]
		}
		out[i] = yhat + e

		newLevel := level + p.Damping*slope + p.LevelSmoothing*e
		slope = p.Damping*slope + p.SlopeSmoothing*p.LevelSmoothing*e
		level = newLevel
		if m.season > 0 {
			seasonal[t%m.season] += p.SeasonalSmoothing * e
		}
	}
	return out
}

// bootstrapIntervals simulates BootstrapDraws forecast paths with residuals
// resampled from the training fit and returns the 2.5% and 97.5% quantiles
// on the original scale.
func (m *DLT) bootstrapIntervals(h int, regs [][]float64) (lower, upper []float64) {
	rng := newRNG(m.cfg.Seed + 1)
	draws := m.cfg.BootstrapDraws

	paths := make([][]float64, h)
	for i := range paths {
		paths[i] = make([]float64, draws)
	}

	errs := make([]float64, h)
	for d := 0; d < draws; d++ {
		for i := range errs {
			errs[i] = m.residuals[rng.IntN(len(m.residuals))]
		}
		path := m.forecastPath(h, regs, errs)
		for i, v := range path {
			paths[i][d] = m.respMean + m.respStd*v
		}
	}

	lower = make([]float64, h)
	upper = make([]float64, h)
	for i := range paths {
		lower[i] = quantile(paths[i], 0.025)
		upper[i] = quantile(paths[i], 0.975)
	}
	return lower, upper
}

// penalizedNLL is the negative log posterior up to a constant: a Gaussian
// profile likelihood plus a ridge prior on regressor coefficients and a
// weak normal prior on the trend coefficients.
func (m *DLT) penalizedNLL(p dltParams, resid []float64) float64 {
	n := len(resid)
	sse := 0.0
	for _, r := range resid {
		sse += r * r
	}
	if math.IsNaN(sse) || math.IsInf(sse, 0) {
		return math.Inf(1)
	}

	nll := 0.5 * float64(n) * math.Log(sse/float64(n)+1e-12)

	for _, c := range p.TrendCoefs {
		nll += 0.005 * c * c
	}

	if m.cfg.Penalty != nil {
		lambda := *m.cfg.Penalty
		for _, c := range p.RegressorCoefs {
			nll += lambda * c * c
		}
	}

	return nll
}

func (m *DLT) standardizeResponse(y []float64) []float64 {
	m.respMean, m.respStd = meanStd(y)
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = (v - m.respMean) / m.respStd
	}
	return out
}

func (m *DLT) standardizeRegressors(regs [][]float64) [][]float64 {
	m.regMean = make([]float64, len(regs))
	m.regStd = make([]float64, len(regs))
	out := make([][]float64, len(regs))
	for c, col := range regs {
		m.regMean[c], m.regStd[c] = meanStd(col)
		scaled := make([]float64, len(col))
		for i, v := range col {
			scaled[i] = (v - m.regMean[c]) / m.regStd[c]
		}
		out[c] = scaled
	}
	return out
}

// applyRegressorScaling scales test regressors with the training moments.
func (m *DLT) applyRegressorScaling(regs [][]float64) [][]float64 {
	out := make([][]float64, len(regs))
	for c, col := range regs {
		scaled := make([]float64, len(col))
		for i, v := range col {
			scaled[i] = (v - m.regMean[c]) / m.regStd[c]
		}
		out[c] = scaled
	}
	return out
}

func seasonalAt(seasonal []float64, t int) float64 {
	if len(seasonal) == 0 {
		return 0
	}
	return seasonal[t%len(seasonal)]
}

func dotRegs(regs [][]float64, coefs []float64, row int) float64 {
	sum := 0.0
	for c := range regs {
		if c < len(coefs) && row < len(regs[c]) {
			sum += coefs[c] * regs[c][row]
		}
	}
	return sum
}

func meanStd(values []float64) (mean, std float64) {
	n := len(values)
	if n == 0 {
		return 0, 1
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)
	if n < 2 {
		return mean, 1
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	std = math.Sqrt(sumSq / float64(n-1))
	if std == 0 {
		std = 1
	}
	return mean, std
}

// Residuals returns the one-step-ahead training residuals on the original scale.
func (m *DLT) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	out := make([]float64, len(m.residuals))
	for i, r := range m.residuals {
		out[i] = r * m.respStd
	}
	return out
}

// FittedValues returns the one-step-ahead fitted values on the original scale.
func (m *DLT) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	out := make([]float64, len(m.fittedVals))
	for i, v := range m.fittedVals {
		out[i] = m.respMean + m.respStd*v
	}
	return out
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
