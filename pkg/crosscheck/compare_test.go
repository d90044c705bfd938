package crosscheck

import (
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/statedge/crosscheck-go/pkg/crosscheck/models"
)

func quietOptions() Options {
	opts := DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return opts
}

func writeWorkbook(t *testing.T, dir, name string, build func(f *excelize.File)) string {
	t.Helper()

	f := excelize.NewFile()
	build(f)

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

// fillCrosstab writes a crosstab with year column headers at row 1 and the
// given row labels in column A.
func fillCrosstab(t *testing.T, f *excelize.File, sheet string, rowLabels []string, values [][]float64) {
	t.Helper()

	for c := range values[0] {
		cell, err := excelize.CoordinatesToCellName(c+2, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, 2019+c))
	}
	for r, label := range rowLabels {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, label))
		for c, v := range values[r] {
			cell, err := excelize.CoordinatesToCellName(c+2, r+2)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
}

func TestCompareIdenticalWorkbooks(t *testing.T) {
	dir := t.TempDir()
	values := [][]float64{{100, 200.5}, {300.25, 400}}
	build := func(f *excelize.File) {
		fillCrosstab(t, f, "Sheet1", []string{"Norte", "Sul"}, values)
	}
	pub := writeWorkbook(t, dir, "published.xlsx", build)
	rec := writeWorkbook(t, dir, "recreated.xlsx", build)

	result, err := Compare(pub, rec, nil, quietOptions())
	require.NoError(t, err)

	require.Len(t, result.Sheets, 1)
	sheet := result.Sheets[0]
	assert.False(t, sheet.Skipped)
	assert.Equal(t, 4, sheet.TotalPoints)
	assert.Equal(t, 4, sheet.Counts.Exact)
	assert.Equal(t, 0, sheet.DiscrepancyCount)
	assert.Equal(t, 1.0, sheet.AccuracyRatio)
	assert.Equal(t, 1.0, result.OverallAccuracy)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 0.01, result.Config.NumericTolerance)
}

func TestCompareIdenticalWithTitleRow(t *testing.T) {
	// A sparse title row above the crosstab must not poison the dimension
	// keys: identical files still compare point for point.
	dir := t.TempDir()
	build := func(f *excelize.File) {
		require.NoError(t, f.SetCellValue("Sheet1", "A1", "Taxa de emprego por região"))
		f.SetCellValue("Sheet1", "B3", 2020)
		f.SetCellValue("Sheet1", "C3", 2021)
		f.SetCellValue("Sheet1", "A4", "Norte")
		f.SetCellValue("Sheet1", "A5", "Sul")
		f.SetCellValue("Sheet1", "B4", 100.5)
		f.SetCellValue("Sheet1", "C4", 200.5)
		f.SetCellValue("Sheet1", "B5", 300.25)
		f.SetCellValue("Sheet1", "C5", 400.75)
	}
	pub := writeWorkbook(t, dir, "published.xlsx", build)
	rec := writeWorkbook(t, dir, "recreated.xlsx", build)

	result, err := Compare(pub, rec, nil, quietOptions())
	require.NoError(t, err)

	require.Len(t, result.Sheets, 1)
	sheet := result.Sheets[0]
	assert.Equal(t, 4, sheet.TotalPoints)
	assert.Equal(t, 0, sheet.UnresolvedPublished)
	assert.Equal(t, 0, sheet.UnresolvedRecreated)
	assert.Equal(t, 4, sheet.Counts.Exact)
	assert.Equal(t, 0, sheet.DiscrepancyCount)
	assert.Equal(t, 1.0, result.OverallAccuracy)
}

func TestCompareNormalizedLabelsMatchExactly(t *testing.T) {
	dir := t.TempDir()
	values := [][]float64{{100, 200.5}, {300.25, 400}}
	pub := writeWorkbook(t, dir, "published.xlsx", func(f *excelize.File) {
		fillCrosstab(t, f, "Sheet1", []string{"De 16 a 24 anos", "65 anos ou mais"}, values)
	})
	rec := writeWorkbook(t, dir, "recreated.xlsx", func(f *excelize.File) {
		fillCrosstab(t, f, "Sheet1", []string{"16 - 24 anos", "65+"}, values)
	})

	result, err := Compare(pub, rec, nil, quietOptions())
	require.NoError(t, err)

	sheet := result.Sheets[0]
	// Spelling variants canonicalize to the same labels: exact pairing, no
	// fuzzy fallback, no discrepancies.
	assert.Equal(t, 4, sheet.Counts.Exact)
	assert.Equal(t, 0, sheet.Counts.Fuzzy)
	assert.Equal(t, 0, sheet.DiscrepancyCount)
}

func TestCompareValueMismatch(t *testing.T) {
	dir := t.TempDir()
	pub := writeWorkbook(t, dir, "published.xlsx", func(f *excelize.File) {
		fillCrosstab(t, f, "Sheet1", []string{"Norte", "Sul"},
			[][]float64{{105.5, 200.5}, {300.25, 400}})
	})
	rec := writeWorkbook(t, dir, "recreated.xlsx", func(f *excelize.File) {
		fillCrosstab(t, f, "Sheet1", []string{"Norte", "Sul"},
			[][]float64{{100, 200.5}, {300.25, 400}})
	})

	result, err := Compare(pub, rec, nil, quietOptions())
	require.NoError(t, err)

	sheet := result.Sheets[0]
	require.Equal(t, 1, sheet.DiscrepancyCount)
	record := sheet.Discrepancies[0]
	assert.Equal(t, models.MatchExact, record.MatchType)
	// Difference is signed, recreated minus published.
	assert.InDelta(t, -5.5, record.Difference, 1e-9)
	assert.InDelta(t, 5.5, math.Abs(record.Difference), 1e-9)
	assert.InDelta(t, 0.75, sheet.AccuracyRatio, 1e-9)
	assert.InDelta(t, 5.5, sheet.Stats.MaxAbs, 1e-9)
	assert.Equal(t, 1, result.TotalDiscrepancies)
}

func TestCompareSkipsUndetectableSheet(t *testing.T) {
	dir := t.TempDir()
	build := func(f *excelize.File) {
		fillCrosstab(t, f, "Sheet1", []string{"Norte", "Sul"},
			[][]float64{{100, 200.5}, {300.25, 400}})
		_, err := f.NewSheet("Notas")
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue("Notas", "A1", "Filtros aplicados"))
		require.NoError(t, f.SetCellValue("Notas", "A2", "Fonte: inquérito anual"))
	}
	pub := writeWorkbook(t, dir, "published.xlsx", build)
	rec := writeWorkbook(t, dir, "recreated.xlsx", build)

	result, err := Compare(pub, rec, nil, quietOptions())
	require.NoError(t, err)
	require.Len(t, result.Sheets, 2)

	var data, notes *models.SheetComparisonResult
	for i := range result.Sheets {
		switch result.Sheets[i].SheetName {
		case "Sheet1":
			data = &result.Sheets[i]
		case "Notas":
			notes = &result.Sheets[i]
		}
	}
	require.NotNil(t, data)
	require.NotNil(t, notes)

	// The undetectable sheet degrades to a skipped entry; the run and the
	// remaining sheets are unaffected.
	assert.False(t, data.Skipped)
	assert.Equal(t, 4, data.TotalPoints)
	assert.True(t, notes.Skipped)
	assert.Contains(t, notes.SkipReason, "no crosstab structure")
	assert.Equal(t, 4, result.TotalPoints)
	assert.Len(t, result.ComparedSheets(), 1)
	require.Len(t, result.SkippedSheets(), 1)
	assert.Equal(t, "Notas", result.SkippedSheets()[0].SheetName)
}

func TestCompareRequestedSheetMissing(t *testing.T) {
	dir := t.TempDir()
	build := func(f *excelize.File) {
		fillCrosstab(t, f, "Sheet1", []string{"Norte", "Sul"},
			[][]float64{{100, 200.5}, {300.25, 400}})
	}
	pub := writeWorkbook(t, dir, "published.xlsx", build)
	rec := writeWorkbook(t, dir, "recreated.xlsx", build)

	result, err := Compare(pub, rec, []string{"Sheet1", "Inexistente"}, quietOptions())
	require.NoError(t, err)
	require.Len(t, result.Sheets, 2)

	assert.False(t, result.Sheets[0].Skipped)
	assert.True(t, result.Sheets[1].Skipped)
	assert.Contains(t, result.Sheets[1].SkipReason, "sheet not found")
}

func TestCompareNoCommonSheets(t *testing.T) {
	dir := t.TempDir()
	pub := writeWorkbook(t, dir, "published.xlsx", func(f *excelize.File) {
		require.NoError(t, f.SetSheetName("Sheet1", "Publicado"))
		fillCrosstab(t, f, "Publicado", []string{"Norte"}, [][]float64{{100}})
	})
	rec := writeWorkbook(t, dir, "recreated.xlsx", func(f *excelize.File) {
		require.NoError(t, f.SetSheetName("Sheet1", "Recriado"))
		fillCrosstab(t, f, "Recriado", []string{"Norte"}, [][]float64{{100}})
	})

	_, err := Compare(pub, rec, nil, quietOptions())
	assert.ErrorIs(t, err, ErrNoCommonSheets)
}

func TestCompareUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	rec := writeWorkbook(t, dir, "recreated.xlsx", func(f *excelize.File) {
		fillCrosstab(t, f, "Sheet1", []string{"Norte"}, [][]float64{{100}})
	})

	_, err := Compare(filepath.Join(dir, "missing.xlsx"), rec, nil, quietOptions())
	assert.Error(t, err)
}

func TestCompareConcurrent(t *testing.T) {
	dir := t.TempDir()
	build := func(f *excelize.File) {
		fillCrosstab(t, f, "Sheet1", []string{"Norte", "Sul"},
			[][]float64{{100, 200.5}, {300.25, 400}})
		_, err := f.NewSheet("Outra")
		require.NoError(t, err)
		fillCrosstab(t, f, "Outra", []string{"Este", "Oeste"},
			[][]float64{{10.5, 20.5}, {30.5, 40.5}})
	}
	pub := writeWorkbook(t, dir, "published.xlsx", build)
	rec := writeWorkbook(t, dir, "recreated.xlsx", build)

	opts := quietOptions()
	opts.Concurrency = 4
	result, err := Compare(pub, rec, nil, opts)
	require.NoError(t, err)

	require.Len(t, result.Sheets, 2)
	assert.Equal(t, 8, result.TotalPoints)
	assert.Equal(t, 1.0, result.OverallAccuracy)
}

func TestOptionsValidate(t *testing.T) {
	opts := DefaultOptions()
	opts.NumericTolerance = -1
	assert.Error(t, opts.Validate())

	opts = DefaultOptions()
	opts.FuzzyThreshold = 1.5
	assert.Error(t, opts.Validate())

	opts = DefaultOptions()
	opts.HeaderBuffer = -1
	assert.Error(t, opts.Validate())

	assert.NoError(t, DefaultOptions().Validate())
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("CROSSCHECK_NUMERIC_TOLERANCE", "0.5")
	t.Setenv("CROSSCHECK_FUZZY_THRESHOLD", "0.9")
	t.Setenv("CROSSCHECK_HEADER_BUFFER", "3")
	t.Setenv("CROSSCHECK_EXCLUSION_KEYWORDS", "filtro,nota")

	opts, err := OptionsFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 0.5, opts.NumericTolerance)
	assert.Equal(t, 0.9, opts.FuzzyThreshold)
	assert.Equal(t, 3, opts.HeaderBuffer)
	assert.Equal(t, []string{"filtro", "nota"}, opts.ExclusionKeywords)
	// Untouched settings keep their defaults.
	assert.Equal(t, 1, opts.Concurrency)
}
