package report

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/statedge/crosscheck-go/pkg/crosscheck"
	"github.com/statedge/crosscheck-go/pkg/crosscheck/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFixture(t *testing.T, dir, name string, values [][]float64) string {
	t.Helper()

	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "B1", 2020)
	f.SetCellValue("Sheet1", "C1", 2021)
	f.SetCellValue("Sheet1", "A2", "Norte")
	f.SetCellValue("Sheet1", "A3", "Sul")
	for r, row := range values {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+2, r+2)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	pub := writeFixture(t, dir, "published.xlsx", [][]float64{{105.5, 200.5}, {300.25, 400}})
	rec := writeFixture(t, dir, "recreated.xlsx", [][]float64{{100, 200.5}, {300.25, 400}})

	opts := crosscheck.DefaultOptions()
	opts.Logger = quietLogger()
	result, err := crosscheck.Compare(pub, rec, nil, opts)
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalDiscrepancies)

	reportPath := filepath.Join(dir, "report.xlsx")
	require.NoError(t, NewBuilder(quietLogger()).Write(result, reportPath))

	wb, err := excelize.OpenFile(reportPath)
	require.NoError(t, err)
	defer wb.Close()

	sheets := wb.GetSheetList()
	assert.Contains(t, sheets, "Resumo_Geral")
	assert.Contains(t, sheets, "Detalhes_Sheet1")
	assert.Contains(t, sheets, "Info_Tecnica")
	assert.Contains(t, sheets, "Resumo_Sheet1")

	// Summary totals.
	v, err := wb.GetCellValue("Resumo_Geral", "B8")
	require.NoError(t, err)
	assert.Equal(t, "4", v)
	v, err = wb.GetCellValue("Resumo_Geral", "B9")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	// Per-sheet table row.
	v, err = wb.GetCellValue("Resumo_Geral", "A13")
	require.NoError(t, err)
	assert.Equal(t, "Sheet1", v)
	v, err = wb.GetCellValue("Resumo_Geral", "F13")
	require.NoError(t, err)
	assert.Equal(t, "comparada", v)

	// Detail listing carries the pairing type.
	v, err = wb.GetCellValue("Detalhes_Sheet1", "E4")
	require.NoError(t, err)
	assert.Equal(t, "exact", v)

	// The highlighted copy keeps the recreated value at the discrepancy
	// coordinate.
	v, err = wb.GetCellValue("Resumo_Sheet1", "B2")
	require.NoError(t, err)
	assert.Equal(t, "100", v)
}

func TestWriteReportCleanRun(t *testing.T) {
	dir := t.TempDir()
	values := [][]float64{{100, 200.5}, {300.25, 400}}
	pub := writeFixture(t, dir, "published.xlsx", values)
	rec := writeFixture(t, dir, "recreated.xlsx", values)

	opts := crosscheck.DefaultOptions()
	opts.Logger = quietLogger()
	result, err := crosscheck.Compare(pub, rec, nil, opts)
	require.NoError(t, err)

	reportPath := filepath.Join(dir, "report.xlsx")
	require.NoError(t, NewBuilder(quietLogger()).Write(result, reportPath))

	wb, err := excelize.OpenFile(reportPath)
	require.NoError(t, err)
	defer wb.Close()

	v, err := wb.GetCellValue("Detalhes_Sheet1", "A3")
	require.NoError(t, err)
	assert.Equal(t, "Nenhuma discrepância encontrada nesta folha.", v)
}

func TestWriteReportSkippedSheetAndMissingSource(t *testing.T) {
	dir := t.TempDir()

	result := &models.ComparisonResult{
		RunID:         "run-1",
		PublishedFile: filepath.Join(dir, "published.xlsx"),
		RecreatedFile: filepath.Join(dir, "missing.xlsx"),
		GeneratedAt:   time.Now(),
		Config: models.ConfigSnapshot{
			NumericTolerance: 0.01,
			FuzzyThreshold:   0.8,
			HeaderBuffer:     5,
		},
		Sheets: []models.SheetComparisonResult{{
			SheetName:  "Vazia",
			Skipped:    true,
			SkipReason: "no crosstab structure detected",
		}},
	}

	// The recreated file is gone: highlighted copies are dropped, the
	// report itself still succeeds.
	reportPath := filepath.Join(dir, "report.xlsx")
	require.NoError(t, NewBuilder(quietLogger()).Write(result, reportPath))

	wb, err := excelize.OpenFile(reportPath)
	require.NoError(t, err)
	defer wb.Close()

	sheets := wb.GetSheetList()
	assert.Contains(t, sheets, "Resumo_Geral")
	assert.Contains(t, sheets, "Info_Tecnica")
	assert.NotContains(t, sheets, "Detalhes_Vazia")
	assert.NotContains(t, sheets, "Resumo_Vazia")

	v, err := wb.GetCellValue("Resumo_Geral", "F13")
	require.NoError(t, err)
	assert.Contains(t, v, "ignorada")
}
