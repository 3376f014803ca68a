package forecast

import (
	"math"
)

// Accuracy holds the error metrics recorded for a fitted model on the
// held-out test window.
type Accuracy struct {
	MAE   float64
	MAPE  float64 // percent
	RMSE  float64
	MSE   float64
	SMAPE float64 // percent, kept for diagnostics
}

// MAE computes the mean absolute error between predicted and actual values.
func MAE(predicted, actual []float64) float64 {
	n := minLen(predicted, actual)
	if n == 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += math.Abs(predicted[i] - actual[i])
	}
	return sum / float64(n)
}

// MSE computes the mean squared error between predicted and actual values.
func MSE(predicted, actual []float64) float64 {
	n := minLen(predicted, actual)
	if n == 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		diff := predicted[i] - actual[i]
		sum += diff * diff
	}
	return sum / float64(n)
}

// RMSE computes the root mean squared error between predicted and actual values.
func RMSE(predicted, actual []float64) float64 {
	return math.Sqrt(MSE(predicted, actual))
}

// MAPE computes the mean absolute percentage error. Observations with a
// zero actual are skipped; if every actual is zero the result is NaN.
func MAPE(predicted, actual []float64) float64 {
	n := minLen(predicted, actual)
	if n == 0 {
		return math.NaN()
	}
	sum := 0.0
	count := 0
	for i := 0; i < n; i++ {
		if actual[i] == 0 {
			continue
		}
		sum += math.Abs((actual[i] - predicted[i]) / actual[i])
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return 100 * sum / float64(count)
}

// SMAPE computes the symmetric mean absolute percentage error.
func SMAPE(predicted, actual []float64) float64 {
	n := minLen(predicted, actual)
	if n == 0 {
		return math.NaN()
	}
	sum := 0.0
	count := 0
	for i := 0; i < n; i++ {
		denom := (math.Abs(actual[i]) + math.Abs(predicted[i])) / 2
		if denom == 0 {
			continue
		}
		sum += math.Abs(actual[i]-predicted[i]) / denom
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return 100 * sum / float64(count)
}

// Evaluate computes the full accuracy set for a prediction.
func Evaluate(predicted, actual []float64) Accuracy {
	return Accuracy{
		MAE:   MAE(predicted, actual),
		MAPE:  MAPE(predicted, actual),
		RMSE:  RMSE(predicted, actual),
		MSE:   MSE(predicted, actual),
		SMAPE: SMAPE(predicted, actual),
	}
}

// Round2 rounds a metric to two decimals for the assessment table.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return math.Round(v*100) / 100
}

func minLen(a, b []float64) int {
	if len(a) < len(b) {
		return len(a)
	}
	return len(b)
}
