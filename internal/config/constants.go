package config

// Application constants - hardcoded values shared by every tdx binary
const (
	// Application Info
	AppName    = "TDX Forecaster"
	AppVersion = "1.2.0"

	// Input column names expected in the per-project tables
	DateColumn     = "COMMIT_DATE"
	ResponseColumn = "SQALE_INDEX"

	// Periodicity directory names (inputs under the data dir)
	BiweeklyDataDir = "biweekly_data"
	MonthlyDataDir  = "monthly_data"
	CompleteDataDir = "complete_data"

	// Result directory names (outputs under the results dir)
	DLTResultDir    = "DLT_Result"
	ETSResultDir    = "ETS_Result"
	SARIMAResultDir = "SARIMA_Result"

	// AssessmentFileName is the per-periodicity accuracy table each
	// forecaster run appends to.
	AssessmentFileName = "assessment.csv"

	// Seasonality per periodicity: 26 biweekly buckets and 12 monthly
	// buckets per year. Complete (per-commit) data carries no calendar
	// seasonality.
	BiweeklySeasonality = 26
	MonthlySeasonality  = 12

	// Model fitting defaults
	DefaultSeed           = 8888
	DefaultBootstrapDraws = 1000
	DefaultTrainFraction  = 0.8
	MinObservations       = 20

	// File Paths (relative to executable)
	DefaultDataDir    = "data"
	DefaultResultsDir = "data/results"
	DefaultLogsDir    = "logs"
)
