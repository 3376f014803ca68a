// Package experiment orchestrates the forecasting study: it walks the
// per-periodicity project tables, runs the hyperparameter search for each
// project, and appends the resulting accuracy rows to the assessment
// tables under the results directory.
package experiment

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"tdxcli/internal/baseline"
	"tdxcli/internal/config"
	"tdxcli/internal/exporter"
	"tdxcli/internal/forecast"
	"tdxcli/internal/infrastructure"
	"tdxcli/internal/timeseries"
	"tdxcli/internal/tuning"
)

// Periodicity is one time granularity of the study.
type Periodicity struct {
	Name        string
	Seasonality int
}

// Periodicities returns the three granularities in sweep order.
func Periodicities() []Periodicity {
	return []Periodicity{
		{Name: "biweekly", Seasonality: config.BiweeklySeasonality},
		{Name: "monthly", Seasonality: config.MonthlySeasonality},
		{Name: "complete", Seasonality: 0},
	}
}

// Runner drives a full experiment sweep.
type Runner struct {
	cfg   *config.Config
	paths *config.Paths
}

// NewRunner creates a sweep runner.
func NewRunner(cfg *config.Config, paths *config.Paths) *Runner {
	return &Runner{cfg: cfg, paths: paths}
}

// Run sweeps every periodicity. Periodicities write to disjoint assessment
// files, so they run concurrently; projects within a periodicity run in
// order so the appended rows stay sorted by project.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, periodicity := range Periodicities() {
		g.Go(func() error {
			return r.runPeriodicity(ctx, periodicity)
		})
	}

	return g.Wait()
}

// runPeriodicity processes every project table of one granularity.
func (r *Runner) runPeriodicity(ctx context.Context, p Periodicity) error {
	logger := infrastructure.LoggerWithContext(ctx)
	dir := r.paths.PeriodicityDir(p.Name)

	files, err := listProjectTables(dir)
	if err != nil {
		return fmt.Errorf("list %s tables: %w", p.Name, err)
	}

	logger.InfoContext(ctx, "processing periodicity",
		"periodicity", p.Name,
		"seasonality", p.Seasonality,
		"projects", len(files),
	)

	for _, file := range files {
		select {
		case <-ctx.Done():
			return fmt.Errorf("sweep cancelled: %w", ctx.Err())
		default:
		}

		if err := r.processProject(ctx, file, p); err != nil {
			// A single broken project must not stop the sweep.
			logger.WarnContext(ctx, "project skipped",
				"periodicity", p.Name,
				"project", timeseries.ProjectName(file),
				"error", err,
			)
		}
	}

	return nil
}

// processProject runs the full pipeline for one project table: load,
// split, grid-search DLT, optionally ETS and the SARIMA baseline, and
// append the assessment rows.
func (r *Runner) processProject(ctx context.Context, path string, p Periodicity) error {
	logger := infrastructure.LoggerWithContext(ctx)

	frame, err := timeseries.LoadFrame(path)
	if err != nil {
		return fmt.Errorf("load frame: %w", err)
	}

	if frame.Len() < r.cfg.Forecast.MinObservations {
		return fmt.Errorf("only %d observations, need %d", frame.Len(), r.cfg.Forecast.MinObservations)
	}

	train, test, err := frame.Split(r.cfg.Forecast.TrainFraction)
	if err != nil {
		return fmt.Errorf("split frame: %w", err)
	}

	logger.InfoContext(ctx, "processing project",
		"project", frame.Project,
		"periodicity", p.Name,
		"observations", frame.Len(),
		"train", train.Len(),
		"test", test.Len(),
		"regressors", frame.NumRegressors(),
	)

	if err := r.runDLT(ctx, train, test, p); err != nil {
		return err
	}

	if r.cfg.Forecast.RunETS {
		if err := r.runETS(ctx, train, test, p); err != nil {
			logger.WarnContext(ctx, "ets run failed",
				"project", frame.Project,
				"periodicity", p.Name,
				"error", err,
			)
		}
	}

	if r.cfg.Forecast.RunSARIMA {
		if err := r.runSARIMA(ctx, train, test, p); err != nil {
			logger.WarnContext(ctx, "sarima baseline failed",
				"project", frame.Project,
				"periodicity", p.Name,
				"error", err,
			)
		}
	}

	return nil
}

func (r *Runner) runDLT(ctx context.Context, train, test *timeseries.Frame, p Periodicity) error {
	logger := infrastructure.LoggerWithContext(ctx)

	result, err := tuning.SearchDLT(ctx, train, test, tuning.Config{
		Seasonality:    p.Seasonality,
		Seed:           r.cfg.Forecast.Seed,
		BootstrapDraws: r.cfg.Forecast.BootstrapDraws,
		MaxConcurrency: r.cfg.Forecast.MaxConcurrency,
	})
	if err != nil {
		return fmt.Errorf("grid search: %w", err)
	}

	row := newAssessmentRow(
		train.Project,
		"DLT",
		string(result.Combination.Trend),
		string(result.Combination.Estimator),
		result.Combination.PenaltyLabel(),
		result.Accuracy,
	)

	logger.InfoContext(ctx, "project assessed",
		"project", train.Project,
		"periodicity", p.Name,
		"model", row.Model,
		"trend", row.Trend,
		"estimator", row.Estimator,
		"penalty", row.Penalty,
		"mae", row.MAE,
		"mape", row.MAPE,
		"rmse", row.RMSE,
		"mse", row.MSE,
	)

	return r.appendRow(config.DLTResultDir, p.Name, row)
}

// runETS fits both estimators and records the better one, mirroring the
// estimator dimension of the DLT grid.
func (r *Runner) runETS(ctx context.Context, train, test *timeseries.Frame, p Periodicity) error {
	bestMAE := math.Inf(1)
	var bestRow AssessmentRow

	for _, estimator := range forecast.Estimators() {
		model := forecast.NewETS(forecast.ETSConfig{
			Estimator:      estimator,
			Seasonality:    p.Seasonality,
			Seed:           r.cfg.Forecast.Seed,
			BootstrapDraws: r.cfg.Forecast.BootstrapDraws,
		})
		if err := model.Fit(ctx, train); err != nil {
			continue
		}
		pred, err := model.Predict(test)
		if err != nil {
			continue
		}
		acc := forecast.Evaluate(pred.Point, test.Response)
		if acc.MAE < bestMAE {
			bestMAE = acc.MAE
			bestRow = newAssessmentRow(train.Project, "ETS", "", string(estimator), "", acc)
		}
	}

	if math.IsInf(bestMAE, 1) {
		return fmt.Errorf("no ets estimator produced a usable fit")
	}

	return r.appendRow(config.ETSResultDir, p.Name, bestRow)
}

func (r *Runner) runSARIMA(ctx context.Context, train, test *timeseries.Frame, p Periodicity) error {
	result, err := baseline.Run(ctx, train, test, p.Seasonality)
	if err != nil {
		return err
	}

	row := newAssessmentRow(train.Project, "SARIMA", result.Order, "aic-stepwise", "", result.Accuracy)
	return r.appendRow(config.SARIMAResultDir, p.Name, row)
}

func (r *Runner) appendRow(resultDir, periodicity string, row AssessmentRow) error {
	path := r.paths.AssessmentPath(resultDir, periodicity)
	if err := exporter.AppendRow(path, AssessmentHeaders(), row.Record()); err != nil {
		return fmt.Errorf("append assessment row: %w", err)
	}
	return nil
}

// listProjectTables returns the CSV tables of a periodicity directory in
// lexical order, skipping dot-files and non-CSV entries.
func listProjectTables(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}

	sort.Strings(files)
	return files, nil
}
