// Package exporter persists experiment outputs: the per-periodicity
// assessment CSVs the forecaster appends to, and the cross-project XLSX
// summary workbook.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers []string
	Records [][]string
	Append  bool
}

// WriteCSV writes data to a CSV file with the given options, creating the
// parent directory as needed.
func WriteCSV(filePath string, options WriteOptions) error {
	slog.Debug("Writing CSV file",
		slog.String("path", filePath),
		slog.Int("record_count", len(options.Records)),
		slog.Bool("append", options.Append))

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(filePath, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// AppendRow appends a single record to a CSV file, writing the header
// first if and only if the file does not exist yet. The write is flushed
// immediately so a crashed sweep loses at most the in-flight project.
func AppendRow(filePath string, headers, record []string) error {
	if !fileExists(filePath) {
		return WriteCSV(filePath, WriteOptions{
			Headers: headers,
			Records: [][]string{record},
		})
	}
	return WriteCSV(filePath, WriteOptions{
		Records: [][]string{record},
		Append:  true,
	})
}

// ReadAll loads an entire CSV file, returning header and records.
func ReadAll(filePath string) (headers []string, records [][]string, err error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	headers, err = reader.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	records, err = reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read records: %w", err)
	}
	return headers, records, nil
}

// fileExists reports whether the file is actually there; stat failures
// other than not-exist (permissions, a file in the path) count as absent
// so the subsequent open reports the real error.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
