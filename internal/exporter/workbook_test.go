package exporter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteSummaryWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "assessment_summary.xlsx")

	sheets := []SummarySheet{
		{
			Name:    "DLT biweekly",
			Headers: []string{"Project", "MAE", "Penalty"},
			Records: [][]string{
				{"guava", "12.5", ""},
				{"commons-io", "3.25", "0.01"},
			},
		},
		{
			Name:    "DLT monthly",
			Headers: []string{"Project", "MAE"},
			Records: [][]string{{"guava", "9.75"}},
		},
	}

	require.NoError(t, WriteSummaryWorkbook(path, sheets))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"DLT biweekly", "DLT monthly"}, f.GetSheetList())

	rows, err := f.GetRows("DLT biweekly")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Project", rows[0][0])
	assert.Equal(t, "guava", rows[1][0])
	assert.Equal(t, "12.5", rows[1][1])

	monthly, err := f.GetRows("DLT monthly")
	require.NoError(t, err)
	require.Len(t, monthly, 2)
	assert.Equal(t, "9.75", monthly[1][1])
}

func TestWriteSummaryWorkbookNoSheets(t *testing.T) {
	err := WriteSummaryWorkbook(filepath.Join(t.TempDir(), "out.xlsx"), nil)
	assert.Error(t, err)
}
