// Package forecast implements the Bayesian structural time-series models
// fitted to technical-debt series: a damped local trend model with a
// configurable global trend (DLT) and an error-trend-seasonality smoother
// (ETS). Both expose posterior-mode (MAP) and random-walk Metropolis (MCMC)
// estimation and residual-bootstrap prediction intervals.
package forecast

import (
	"context"

	"tdxcli/internal/timeseries"
)

// TrendOption selects the deterministic global trend of the DLT model.
type TrendOption string

const (
	TrendLinear    TrendOption = "linear"
	TrendLogLinear TrendOption = "loglinear"
	TrendFlat      TrendOption = "flat"
	TrendLogistic  TrendOption = "logistic"
)

// TrendOptions lists every global trend in grid order.
func TrendOptions() []TrendOption {
	return []TrendOption{TrendLinear, TrendLogLinear, TrendFlat, TrendLogistic}
}

// Estimator selects how posterior parameters are obtained.
type Estimator string

const (
	// EstimatorMAP finds the posterior mode with derivative-free optimization.
	EstimatorMAP Estimator = "map"
	// EstimatorMCMC averages random-walk Metropolis draws from the posterior.
	EstimatorMCMC Estimator = "mcmc"
)

// Estimators lists both estimators in grid order.
func Estimators() []Estimator {
	return []Estimator{EstimatorMAP, EstimatorMCMC}
}

// Prediction holds point forecasts for the test window plus bootstrap
// prediction intervals at the 95% level.
type Prediction struct {
	Point []float64
	Lower []float64
	Upper []float64
}

// Model is the common surface of the DLT and ETS implementations. Fit
// estimates parameters on the training frame; Predict forecasts one value
// per row of the test frame (using its regressors where the model has any).
type Model interface {
	Fit(ctx context.Context, train *timeseries.Frame) error
	Predict(test *timeseries.Frame) (*Prediction, error)
	Name() string
}
