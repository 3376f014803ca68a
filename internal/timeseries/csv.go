package timeseries

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tdxcli/internal/config"
)

// dateLayouts are tried in order when parsing COMMIT_DATE values. The
// SonarQube exports in the study carry plain dates, but some projects were
// extracted with full timestamps.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006/01/02",
	"01/02/2006",
}

// LoadFrame reads a per-project table from a CSV file. The file must carry
// a COMMIT_DATE column and a SQALE_INDEX column; every other column is
// treated as a numeric regressor. Rows whose date or response fails to
// parse are dropped, mirroring a coerce-then-dropna cleaning step.
func LoadFrame(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	frame, err := LoadFrameFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}

	frame.Project = ProjectName(path)
	return frame, nil
}

// ProjectName derives the project name from a table path (the file stem).
func ProjectName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadFrameFromReader reads a per-project table from an io.Reader.
func LoadFrameFromReader(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// Ragged rows are dropped below like any other unparseable row instead
	// of aborting the load with csv.ErrFieldCount.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	dateIdx, respIdx := -1, -1
	var regressorIdx []int
	var regressorNames []string

	for i, h := range header {
		// Strip an Excel UTF-8 BOM if present on the first header cell.
		h = strings.TrimPrefix(h, "\ufeff")
		switch strings.TrimSpace(strings.Trim(h, "\"")) {
		case config.DateColumn:
			dateIdx = i
		case config.ResponseColumn:
			respIdx = i
		default:
			regressorIdx = append(regressorIdx, i)
			regressorNames = append(regressorNames, strings.TrimSpace(h))
		}
	}

	if dateIdx == -1 {
		return nil, fmt.Errorf("missing %s column", config.DateColumn)
	}
	if respIdx == -1 {
		return nil, fmt.Errorf("missing %s column", config.ResponseColumn)
	}

	frame := &Frame{
		RegressorNames: regressorNames,
		Regressors:     make([][]float64, len(regressorNames)),
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		if dateIdx >= len(record) || respIdx >= len(record) {
			continue
		}

		date, ok := parseDate(record[dateIdx])
		if !ok {
			continue
		}

		resp, ok := parseValue(record[respIdx])
		if !ok {
			continue
		}

		// Regressor rows must be complete; a single bad cell drops the row.
		regRow := make([]float64, len(regressorIdx))
		rowOK := true
		for c, idx := range regressorIdx {
			if idx >= len(record) {
				rowOK = false
				break
			}
			v, ok := parseValue(record[idx])
			if !ok {
				rowOK = false
				break
			}
			regRow[c] = v
		}
		if !rowOK {
			continue
		}

		frame.Dates = append(frame.Dates, date)
		frame.Response = append(frame.Response, resp)
		for c := range regRow {
			frame.Regressors[c] = append(frame.Regressors[c], regRow[c])
		}
	}

	if frame.Len() == 0 {
		return nil, fmt.Errorf("no valid data rows")
	}

	return frame, nil
}

// WriteFrame saves a frame as a per-project table with the canonical
// COMMIT_DATE,SQALE_INDEX[,regressor...] header.
func WriteFrame(path string, frame *Frame) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := append([]string{config.DateColumn, config.ResponseColumn}, frame.RegressorNames...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < frame.Len(); i++ {
		record := make([]string, 0, len(header))
		record = append(record, frame.Dates[i].Format("2006-01-02"))
		record = append(record, strconv.FormatFloat(frame.Response[i], 'f', -1, 64))
		for c := range frame.Regressors {
			record = append(record, strconv.FormatFloat(frame.Regressors[c][i], 'f', -1, 64))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// parseDate tries the known COMMIT_DATE layouts in order.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.Trim(s, "\""))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseValue coerces a cell to float64, rejecting the usual NA spellings.
func parseValue(s string) (float64, bool) {
	s = strings.TrimSpace(strings.Trim(s, "\""))
	if s == "" || s == "NA" || s == "NaN" || s == "null" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
