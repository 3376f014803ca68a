package experiment

import (
	"math"
	"strconv"

	"tdxcli/internal/forecast"
)

// AssessmentRow is one line of a per-periodicity assessment table: the
// winning configuration for a project and its held-out accuracy.
type AssessmentRow struct {
	Project   string
	Model     string
	Trend     string
	Estimator string
	Penalty   string
	MAE       float64
	MAPE      float64
	RMSE      float64
	MSE       float64
}

// AssessmentHeaders returns the column order of the assessment tables.
func AssessmentHeaders() []string {
	return []string{"Project", "Model", "Trend", "Estimator", "Penalty", "MAE", "MAPE", "RMSE", "MSE"}
}

// Record renders the row for CSV output. Metrics are rounded to two
// decimals; an undefined metric (e.g. MAPE over all-zero actuals) becomes
// an empty field.
func (r AssessmentRow) Record() []string {
	return []string{
		r.Project,
		r.Model,
		r.Trend,
		r.Estimator,
		r.Penalty,
		formatMetric(r.MAE),
		formatMetric(r.MAPE),
		formatMetric(r.RMSE),
		formatMetric(r.MSE),
	}
}

// newAssessmentRow builds a row from an accuracy result.
func newAssessmentRow(project, model, trend, estimator, penalty string, acc forecast.Accuracy) AssessmentRow {
	return AssessmentRow{
		Project:   project,
		Model:     model,
		Trend:     trend,
		Estimator: estimator,
		Penalty:   penalty,
		MAE:       forecast.Round2(acc.MAE),
		MAPE:      forecast.Round2(acc.MAPE),
		RMSE:      forecast.Round2(acc.RMSE),
		MSE:       forecast.Round2(acc.MSE),
	}
}

func formatMetric(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
