// Package baseline runs the related-work comparison: an automatically
// selected (S)ARIMA model fitted to the same train/test split the DLT
// experiment uses, so the Bayesian results can be compared against a
// classical order-searched model.
package baseline

import (
	"context"
	"fmt"

	"github.com/sartorproj/goarima/autoarima"
	goseries "github.com/sartorproj/goarima/timeseries"

	"tdxcli/internal/forecast"
	"tdxcli/internal/infrastructure"
	"tdxcli/internal/timeseries"
)

// Result describes the selected order and its test-window accuracy.
type Result struct {
	Order     string // "(p,d,q)" or "(p,d,q)(P,D,Q)m"
	AIC       float64
	Evaluated int
	Accuracy  forecast.Accuracy
	Forecast  []float64
}

// Run selects an ARIMA order on the training window via stepwise AIC
// search, forecasts the test horizon and scores it with the same metrics
// as the structural models. Seasonality follows the periodicity (0 for
// complete data).
func Run(ctx context.Context, train, test *timeseries.Frame, seasonality int) (*Result, error) {
	logger := infrastructure.LoggerWithContext(ctx)

	series, err := goseries.NewWithTimestamps(train.Dates, train.Response)
	if err != nil {
		return nil, fmt.Errorf("build series: %w", err)
	}

	cfg := autoarima.DefaultConfig()
	cfg.Stepwise = true
	cfg.Criterion = "aic"
	if seasonality > 0 && train.Len() >= 2*seasonality {
		cfg.Seasonal = true
		cfg.SeasonalM = seasonality
	}

	selected, err := autoarima.AutoARIMA(series, cfg)
	if err != nil {
		return nil, fmt.Errorf("auto arima: %w", err)
	}

	predicted, err := selected.Predict(test.Len())
	if err != nil {
		return nil, fmt.Errorf("arima forecast: %w", err)
	}
	if predicted == nil {
		return nil, fmt.Errorf("auto arima selected no usable model")
	}

	result := &Result{
		Order:     orderLabel(selected),
		AIC:       selected.AIC,
		Evaluated: selected.ModelsEvaluated,
		Accuracy:  forecast.Evaluate(predicted, test.Response),
		Forecast:  predicted,
	}

	logger.InfoContext(ctx, "arima baseline fitted",
		"project", train.Project,
		"order", result.Order,
		"aic", result.AIC,
		"models_evaluated", result.Evaluated,
		"mae", result.Accuracy.MAE,
	)

	return result, nil
}

func orderLabel(r *autoarima.Result) string {
	if r.IsSeasonal {
		return fmt.Sprintf("(%d,%d,%d)(%d,%d,%d)%d", r.P, r.D, r.Q, r.SP, r.SD, r.SQ, r.M)
	}
	return fmt.Sprintf("(%d,%d,%d)", r.P, r.D, r.Q)
}
