package report

import (
	"fmt"
	"path/filepath"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/ptu-audit/internal/domain/entity"
	"github.com/jhoicas/ptu-audit/internal/domain/ptu"
)

const (
	DistributionFileName = "DISTRIBUIÇÃO.xlsx"
	DistributionSheet    = "Distribuição Faturas Audit+"
	currencyFormat       = `R$ #,##0.00`
	defaultColumnWidth   = 12
)

// DistributionHeaders columnas de la planilla de distribución.
var DistributionHeaders = []string{"Nº FATURA", "COMP", "UNIMED", "EMISSÃO", "VENCIMENTO", "VALOR", "AUDITOR"}

const valueColumn = 6 // VALOR

// Writer escribe los reportes de una distribución.
type Writer struct {
	log zerolog.Logger
}

// NewWriter crea el generador de reportes.
func NewWriter(log zerolog.Logger) *Writer {
	return &Writer{log: log}
}

// WriteDistribution genera DISTRIBUIÇÃO.xlsx en dir con una fila por factura, agrupadas por auditor.
func (w *Writer) WriteDistribution(plan *entity.DistributionPlan, dir string) (string, error) {
	if plan == nil || len(plan.Assignments) == 0 {
		return "", fmt.Errorf("report: plan de distribución vacío")
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", DistributionSheet); err != nil {
		return "", fmt.Errorf("report: renombrar hoja: %w", err)
	}
	currency, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(currencyFormat)})
	if err != nil {
		return "", fmt.Errorf("report: estilo moneda: %w", err)
	}

	widths := make([]int, len(DistributionHeaders))
	track := func(col int, s string) {
		if n := utf8.RuneCountInString(s); n > widths[col] {
			widths[col] = n
		}
	}
	for i, h := range DistributionHeaders {
		track(i, h)
	}
	if err := f.SetSheetRow(DistributionSheet, "A1", &DistributionHeaders); err != nil {
		return "", fmt.Errorf("report: cabecera: %w", err)
	}

	row := 2
	for _, a := range plan.Assignments {
		for _, inv := range a.Invoices {
			value := ptu.ParseValueOrZero(inv.TotalValueText).InexactFloat64()
			cells := []interface{}{
				inv.InvoiceNumber,
				FormatCompetence(inv.Competence, inv.IssueDate),
				BranchLabel(inv.DestinationBranchCode, inv.DestinationBranchName),
				FormatDate(inv.IssueDate),
				FormatDate(inv.DueDate),
				value,
				a.Auditor,
			}
			for i, c := range cells {
				track(i, fmt.Sprint(c))
			}
			start, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(DistributionSheet, start, &cells); err != nil {
				return "", fmt.Errorf("report: fila %d: %w", row, err)
			}
			valueCell, _ := excelize.CoordinatesToCellName(valueColumn, row)
			if err := f.SetCellStyle(DistributionSheet, valueCell, valueCell, currency); err != nil {
				return "", fmt.Errorf("report: formato de valor: %w", err)
			}
			row++
		}
	}

	for i, n := range widths {
		width := float64(defaultColumnWidth)
		if n > 0 {
			width = float64(n + 2)
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(DistributionSheet, col, col, width); err != nil {
			return "", fmt.Errorf("report: ancho de columna %s: %w", col, err)
		}
	}

	path := filepath.Join(dir, DistributionFileName)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("report: guardar %s: %w", path, err)
	}
	w.log.Info().Str("archivo", path).Int("faturas", row-2).Msg("planilla de distribución generada")
	return path, nil
}

func strPtr(s string) *string { return &s }
