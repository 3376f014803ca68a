package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMAE(t *testing.T) {
	predicted := []float64{10, 20, 30}
	actual := []float64{12, 18, 33}

	assert.InDelta(t, (2.0+2.0+3.0)/3.0, MAE(predicted, actual), 1e-12)
}

func TestMSEAndRMSE(t *testing.T) {
	predicted := []float64{1, 2, 3}
	actual := []float64{2, 2, 5}

	mse := MSE(predicted, actual)
	assert.InDelta(t, (1.0+0.0+4.0)/3.0, mse, 1e-12)
	assert.InDelta(t, math.Sqrt(mse), RMSE(predicted, actual), 1e-12)
}

func TestMAPE(t *testing.T) {
	predicted := []float64{90, 110}
	actual := []float64{100, 100}

	assert.InDelta(t, 10.0, MAPE(predicted, actual), 1e-12)
}

func TestMAPESkipsZeroActuals(t *testing.T) {
	predicted := []float64{5, 90}
	actual := []float64{0, 100}

	// Only the second observation counts.
	assert.InDelta(t, 10.0, MAPE(predicted, actual), 1e-12)
}

func TestMAPEAllZeroActualsIsNaN(t *testing.T) {
	assert.True(t, math.IsNaN(MAPE([]float64{1, 2}, []float64{0, 0})))
}

func TestMetricsEmptyInput(t *testing.T) {
	assert.True(t, math.IsNaN(MAE(nil, nil)))
	assert.True(t, math.IsNaN(MSE(nil, nil)))
	assert.True(t, math.IsNaN(MAPE(nil, nil)))
	assert.True(t, math.IsNaN(SMAPE(nil, nil)))
}

func TestSMAPE(t *testing.T) {
	predicted := []float64{110}
	actual := []float64{90}

	// |90-110| / ((90+110)/2) = 0.2
	assert.InDelta(t, 20.0, SMAPE(predicted, actual), 1e-12)
}

func TestEvaluatePerfectForecast(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5}
	acc := Evaluate(values, values)

	assert.Zero(t, acc.MAE)
	assert.Zero(t, acc.MAPE)
	assert.Zero(t, acc.RMSE)
	assert.Zero(t, acc.MSE)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, Round2(1.234))
	assert.Equal(t, 1.24, Round2(1.235))
	assert.True(t, math.IsNaN(Round2(math.NaN())))
}
