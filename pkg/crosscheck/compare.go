package crosscheck

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/statedge/crosscheck-go/pkg/crosscheck/match"
	"github.com/statedge/crosscheck-go/pkg/crosscheck/models"
	"github.com/statedge/crosscheck-go/pkg/crosscheck/normalize"
	"github.com/statedge/crosscheck-go/pkg/crosscheck/parser"
)

// Compare audits the requested sheets of two workbooks and returns the
// aggregated discrepancy set. An empty sheetNames compares every sheet
// present in both workbooks. Per-sheet failures turn into skipped entries;
// only unreadable files or an empty sheet overlap are fatal.
func Compare(publishedPath, recreatedPath string, sheetNames []string, opts Options) (*models.ComparisonResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	log := opts.logger()

	// Both workbooks are fully snapshotted and closed before any matching
	// happens; no file handle survives into the comparison phase.
	published, err := snapshotWorkbook(publishedPath, sheetNames, log)
	if err != nil {
		return nil, err
	}
	recreated, err := snapshotWorkbook(recreatedPath, sheetNames, log)
	if err != nil {
		return nil, err
	}

	names := sheetNames
	if len(names) == 0 {
		names = commonSheets(published, recreated)
		if len(names) == 0 {
			return nil, ErrNoCommonSheets
		}
	}

	norm := opts.normalizer()
	results := make([]models.SheetComparisonResult, len(names))

	if conc := opts.concurrency(); conc > 1 {
		// Sheets are independent: each worker fills its own slot and the
		// aggregate below is a plain reduce.
		g := new(errgroup.Group)
		g.SetLimit(conc)
		for i, name := range names {
			i, name := i, name
			g.Go(func() error {
				results[i] = compareSheet(name, published, recreated, opts, norm, log)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, name := range names {
			results[i] = compareSheet(name, published, recreated, opts, norm, log)
		}
	}

	result := &models.ComparisonResult{
		RunID:         uuid.NewString(),
		PublishedFile: publishedPath,
		RecreatedFile: recreatedPath,
		GeneratedAt:   time.Now(),
		Config:        opts.snapshot(),
		Sheets:        results,
	}
	for _, s := range results {
		if s.Skipped {
			continue
		}
		result.TotalPoints += s.TotalPoints
		result.TotalDiscrepancies += s.DiscrepancyCount
	}
	if result.TotalPoints > 0 {
		result.OverallAccuracy = math.Max(0, 1-float64(result.TotalDiscrepancies)/float64(result.TotalPoints))
	}

	log.Info("comparison finished",
		slog.String("run_id", result.RunID),
		slog.Int("sheets", len(results)),
		slog.Int("total_points", result.TotalPoints),
		slog.Int("discrepancies", result.TotalDiscrepancies))

	return result, nil
}

// workbook holds the snapshots of one source file after it was closed.
type workbook struct {
	path   string
	order  []string
	sheets map[string]*parser.Sheet
	errs   map[string]error
}

// sheet returns the snapshot for a name, or the load error recorded for it.
func (w *workbook) sheet(name string) (*parser.Sheet, error) {
	if s, ok := w.sheets[name]; ok {
		return s, nil
	}
	if err, ok := w.errs[name]; ok {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %q", parser.ErrSheetNotFound, name)
}

func snapshotWorkbook(path string, requested []string, log *slog.Logger) (*workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	w := &workbook{
		path:   path,
		order:  f.GetSheetList(),
		sheets: make(map[string]*parser.Sheet),
		errs:   make(map[string]error),
	}

	names := requested
	if len(names) == 0 {
		names = w.order
	}
	for _, name := range names {
		s, err := parser.LoadSheet(f, name)
		if err != nil {
			w.errs[name] = err
			log.Warn("sheet not loaded",
				slog.String("file", path),
				slog.String("sheet", name),
				slog.String("reason", err.Error()))
			continue
		}
		w.sheets[name] = s
	}
	return w, nil
}

// commonSheets returns the sheets present in both workbooks, in the
// published workbook's order.
func commonSheets(published, recreated *workbook) []string {
	inRecreated := make(map[string]bool, len(recreated.order))
	for _, name := range recreated.order {
		inRecreated[name] = true
	}
	var names []string
	for _, name := range published.order {
		if inRecreated[name] {
			names = append(names, name)
		}
	}
	return names
}

func compareSheet(name string, published, recreated *workbook, opts Options, norm *normalize.Normalizer, log *slog.Logger) models.SheetComparisonResult {
	res := models.SheetComparisonResult{SheetName: name}

	skip := func(side string, err error) models.SheetComparisonResult {
		cerr := NewComparisonError(name, side, err)
		log.Warn("sheet skipped", slog.String("sheet", name), slog.String("reason", cerr.Error()))
		res.Skipped = true
		res.SkipReason = cerr.Error()
		return res
	}

	pubSheet, err := published.sheet(name)
	if err != nil {
		return skip("published", err)
	}
	recSheet, err := recreated.sheet(name)
	if err != nil {
		return skip("recreated", err)
	}

	detectCfg := parser.DetectConfig{
		HeaderBuffer:      opts.HeaderBuffer,
		ExclusionKeywords: opts.exclusionKeywords(),
		Candidate:         opts.Candidate,
	}
	pubLayout, err := parser.DetectBounds(pubSheet, detectCfg)
	if err != nil {
		return skip("published", err)
	}
	recLayout, err := parser.DetectBounds(recSheet, detectCfg)
	if err != nil {
		return skip("recreated", err)
	}

	pubPoints := parser.ExtractPoints(pubSheet, pubLayout, parser.NewDimensionMapper(pubSheet, pubLayout, norm), opts.Candidate)
	recPoints := parser.ExtractPoints(recSheet, recLayout, parser.NewDimensionMapper(recSheet, recLayout, norm), opts.Candidate)

	mres := match.Compare(pubPoints.Points, recPoints.Points, match.Config{
		NumericTolerance: opts.NumericTolerance,
		FuzzyThreshold:   opts.FuzzyThreshold,
	})

	res.PublishedPoints = len(pubPoints.Points)
	res.RecreatedPoints = len(recPoints.Points)
	res.UnresolvedPublished = pubPoints.Unresolved
	res.UnresolvedRecreated = recPoints.Unresolved
	res.DuplicatePublished = mres.DuplicateKeys
	if mres.DuplicateKeys > 0 {
		log.Warn("duplicate published keys collapsed",
			slog.String("sheet", name),
			slog.Int("count", mres.DuplicateKeys))
	}
	res.TotalPoints = len(recPoints.Points)
	res.Counts = mres.Counts
	res.Discrepancies = mres.Records
	res.DiscrepancyCount = len(mres.Records)
	if res.TotalPoints > 0 {
		res.AccuracyRatio = math.Max(0, 1-float64(res.DiscrepancyCount)/float64(res.TotalPoints))
	}
	res.Stats = differenceStats(mres.Records)

	log.Info("sheet compared",
		slog.String("sheet", name),
		slog.Int("published_points", res.PublishedPoints),
		slog.Int("recreated_points", res.RecreatedPoints),
		slog.Int("discrepancies", res.DiscrepancyCount),
		slog.Float64("accuracy", res.AccuracyRatio))

	return res
}

// differenceStats summarizes absolute differences over records where both
// sides carry numeric values.
func differenceStats(records []models.DiscrepancyRecord) models.DifferenceStats {
	var diffs []float64
	for _, r := range records {
		if r.Published == nil || r.Recreated == nil {
			continue
		}
		if !r.Published.Numeric || !r.Recreated.Numeric {
			continue
		}
		diffs = append(diffs, math.Abs(r.Difference))
	}
	if len(diffs) == 0 {
		return models.DifferenceStats{}
	}

	var out models.DifferenceStats
	out.MeanAbs, _ = stats.Mean(diffs)
	out.MedianAbs, _ = stats.Median(diffs)
	out.MaxAbs, _ = stats.Max(diffs)
	return out
}
