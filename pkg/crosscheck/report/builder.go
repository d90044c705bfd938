// Package report renders a ComparisonResult into a human-facing workbook:
// an overall summary, one detail sheet per compared sheet, a technical
// parameters sheet and highlighted copies of the recreated sheets.
package report

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/statedge/crosscheck-go/pkg/crosscheck/models"
)

const (
	summarySheet   = "Resumo_Geral"
	technicalSheet = "Info_Tecnica"
	detailPrefix   = "Detalhes_"
	markedPrefix   = "Resumo_"
)

// Builder writes comparison reports. It borrows the ComparisonResult and
// never mutates it.
type Builder struct {
	log *slog.Logger
}

// NewBuilder creates a report builder. A nil logger means slog.Default.
func NewBuilder(log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{log: log}
}

// Write renders the report workbook at path. Highlighted copies of the
// recreated sheets are included when the recreated file is still readable;
// their absence degrades the report, never fails it.
func (b *Builder) Write(result *models.ComparisonResult, path string) error {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}

	styles, err := newStyleSet(wb)
	if err != nil {
		return fmt.Errorf("creating report styles: %w", err)
	}

	b.writeSummary(wb, styles, result)

	for _, sheet := range result.ComparedSheets() {
		if err := b.writeDetails(wb, styles, sheet); err != nil {
			return err
		}
	}

	if err := b.writeTechnical(wb, styles, result); err != nil {
		return err
	}

	b.writeHighlights(wb, styles, result)

	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("saving report to %s: %w", path, err)
	}
	b.log.Info("report written", slog.String("path", path))
	return nil
}

type styleSet struct {
	title  int
	bold   int
	header int
	yellow int
}

func newStyleSet(wb *excelize.File) (styleSet, error) {
	var s styleSet
	var err error
	if s.title, err = wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}); err != nil {
		return s, err
	}
	if s.bold, err = wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, err
	}
	if s.header, err = wb.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"CCCCCC"}},
	}); err != nil {
		return s, err
	}
	if s.yellow, err = wb.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFFF00"}},
	}); err != nil {
		return s, err
	}
	return s, nil
}

func (b *Builder) writeSummary(wb *excelize.File, styles styleSet, result *models.ComparisonResult) {
	set := func(cell string, v interface{}) { _ = wb.SetCellValue(summarySheet, cell, v) }

	set("A1", "RELATÓRIO DE COMPARAÇÃO DE DADOS")
	_ = wb.SetCellStyle(summarySheet, "A1", "A1", styles.title)

	set("A3", "Ficheiro publicado:")
	set("B3", result.PublishedFile)
	set("A4", "Ficheiro recriado:")
	set("B4", result.RecreatedFile)
	set("A5", "Execução:")
	set("B5", result.RunID)
	set("A6", "Data:")
	set("B6", result.GeneratedAt.Format("2006-01-02 15:04:05"))

	set("A8", "Total de pontos comparados:")
	set("B8", result.TotalPoints)
	set("A9", "Total de discrepâncias:")
	set("B9", result.TotalDiscrepancies)
	set("A10", "Precisão geral:")
	set("B10", fmt.Sprintf("%.2f%%", result.OverallAccuracy*100))

	headers := []string{"Folha", "Pontos Publicados", "Pontos Recriados", "Discrepâncias", "Precisão (%)", "Estado"}
	row := 12
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		set(cell, h)
		_ = wb.SetCellStyle(summarySheet, cell, cell, styles.header)
	}
	for _, s := range result.Sheets {
		row++
		values := []interface{}{
			s.SheetName, s.PublishedPoints, s.RecreatedPoints,
			s.DiscrepancyCount, fmt.Sprintf("%.2f", s.AccuracyRatio*100), "comparada",
		}
		if s.Skipped {
			values[5] = "ignorada: " + s.SkipReason
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			set(cell, v)
		}
	}
	_ = wb.SetColWidth(summarySheet, "A", "F", 24)
}

func (b *Builder) writeDetails(wb *excelize.File, styles styleSet, sheet models.SheetComparisonResult) error {
	name := sheetName(detailPrefix, sheet.SheetName)
	if _, err := wb.NewSheet(name); err != nil {
		return fmt.Errorf("creating detail sheet %q: %w", name, err)
	}
	set := func(cell string, v interface{}) { _ = wb.SetCellValue(name, cell, v) }

	set("A1", "DISCREPÂNCIAS - "+sheet.SheetName)
	_ = wb.SetCellStyle(name, "A1", "A1", styles.title)

	if len(sheet.Discrepancies) == 0 {
		set("A3", "Nenhuma discrepância encontrada nesta folha.")
		return nil
	}

	headers := []string{"Coordenadas", "Valor Recriado", "Valor Publicado", "Diferença", "Tipo", "Similaridade"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		set(cell, h)
		_ = wb.SetCellStyle(name, cell, cell, styles.header)
	}

	for i, d := range sheet.Discrepancies {
		row := i + 4
		var key models.DimensionKey
		var recValue, pubValue, diff interface{} = "N/A", "N/A", "N/A"
		if d.Recreated != nil {
			key = d.Recreated.Key
			recValue = pointValue(d.Recreated)
		}
		if d.Published != nil {
			if d.Recreated == nil {
				key = d.Published.Key
			}
			pubValue = pointValue(d.Published)
		}
		if d.Published != nil && d.Recreated != nil && d.Published.Numeric && d.Recreated.Numeric {
			diff = d.Difference
		}
		values := []interface{}{key.String(), recValue, pubValue, diff, string(d.MatchType), ""}
		if d.MatchType == models.MatchFuzzy {
			values[5] = fmt.Sprintf("%.3f", d.Similarity)
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			set(cell, v)
		}
	}
	_ = wb.SetColWidth(name, "A", "F", 26)
	return nil
}

func (b *Builder) writeTechnical(wb *excelize.File, styles styleSet, result *models.ComparisonResult) error {
	if _, err := wb.NewSheet(technicalSheet); err != nil {
		return fmt.Errorf("creating technical sheet: %w", err)
	}
	set := func(cell string, v interface{}) { _ = wb.SetCellValue(technicalSheet, cell, v) }

	set("A1", "DETALHES TÉCNICOS DA COMPARAÇÃO")
	_ = wb.SetCellStyle(technicalSheet, "A1", "A1", styles.title)

	cfg := result.Config
	set("A3", "PARÂMETROS")
	_ = wb.SetCellStyle(technicalSheet, "A3", "A3", styles.bold)
	set("A4", "Tolerância numérica:")
	set("B4", cfg.NumericTolerance)
	set("A5", "Limiar de correspondência difusa:")
	set("B5", cfg.FuzzyThreshold)
	set("A6", "Margem de cabeçalhos:")
	set("B6", cfg.HeaderBuffer)
	set("A7", "Palavras de exclusão:")
	set("B7", strings.Join(cfg.ExclusionKeywords, ", "))
	set("A8", "Regras de normalização:")
	set("B8", cfg.RuleCount)
	set("A9", "Concorrência:")
	set("B9", cfg.Concurrency)

	row := 11
	set(fmt.Sprintf("A%d", row), "FOLHAS")
	_ = wb.SetCellStyle(technicalSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), styles.bold)
	for _, s := range result.Sheets {
		row++
		if s.Skipped {
			set(fmt.Sprintf("A%d", row), s.SheetName)
			set(fmt.Sprintf("B%d", row), "ignorada: "+s.SkipReason)
			continue
		}
		set(fmt.Sprintf("A%d", row), s.SheetName)
		set(fmt.Sprintf("B%d", row), fmt.Sprintf(
			"exatas %d, difusas %d, não encontradas %d, só publicadas %d, não resolvidas %d/%d, duplicadas %d",
			s.Counts.Exact, s.Counts.Fuzzy, s.Counts.NotFound, s.Counts.PublishedOnly,
			s.UnresolvedPublished, s.UnresolvedRecreated, s.DuplicatePublished))
	}
	_ = wb.SetColWidth(technicalSheet, "A", "A", 32)
	_ = wb.SetColWidth(technicalSheet, "B", "B", 48)
	return nil
}

// writeHighlights copies the recreated sheets and fills discrepancy cells
// yellow. It needs to reread the recreated file; failure only drops the
// highlighted copies.
func (b *Builder) writeHighlights(wb *excelize.File, styles styleSet, result *models.ComparisonResult) {
	src, err := excelize.OpenFile(result.RecreatedFile)
	if err != nil {
		b.log.Warn("recreated file unavailable, skipping highlighted copies",
			slog.String("file", result.RecreatedFile),
			slog.String("reason", err.Error()))
		return
	}
	defer src.Close()

	for _, sheet := range result.ComparedSheets() {
		name := sheetName(markedPrefix, sheet.SheetName)
		rows, err := src.GetRows(sheet.SheetName)
		if err != nil {
			continue
		}
		if _, err := wb.NewSheet(name); err != nil {
			continue
		}
		for r, row := range rows {
			for c, value := range row {
				if value == "" {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
				_ = wb.SetCellValue(name, cell, value)
			}
		}
		if merges, err := src.GetMergeCells(sheet.SheetName); err == nil {
			for _, m := range merges {
				_ = wb.MergeCell(name, m.GetStartAxis(), m.GetEndAxis())
			}
		}
		for _, d := range sheet.Discrepancies {
			if d.Recreated == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(d.Recreated.Col, d.Recreated.Row)
			if err != nil {
				continue
			}
			_ = wb.SetCellStyle(name, cell, cell, styles.yellow)
			_ = wb.AddComment(name, excelize.Comment{
				Cell:   cell,
				Author: "crosscheck",
				Paragraph: []excelize.RichTextRun{
					{Text: commentText(d)},
				},
			})
		}
	}
}

func commentText(d models.DiscrepancyRecord) string {
	var sb strings.Builder
	sb.WriteString("DISCREPÂNCIA\n")
	if d.Recreated != nil {
		fmt.Fprintf(&sb, "Valor recriado: %v\n", pointValue(d.Recreated))
	}
	if d.Published != nil {
		fmt.Fprintf(&sb, "Valor publicado: %v\n", pointValue(d.Published))
		if d.Recreated != nil && d.Published.Numeric && d.Recreated.Numeric {
			fmt.Fprintf(&sb, "Diferença: %v\n", d.Difference)
		}
	} else {
		sb.WriteString("Valor não encontrado no ficheiro publicado\n")
	}
	fmt.Fprintf(&sb, "Tipo: %s", d.MatchType)
	return sb.String()
}

func pointValue(p *models.DataPoint) interface{} {
	if p.Numeric {
		return p.Value
	}
	return p.Raw
}

// sheetName builds a prefixed sheet name within Excel's 31 char limit.
func sheetName(prefix, base string) string {
	name := prefix + base
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
