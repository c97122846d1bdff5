// Package pdf genera la hoja de asignación de un auditor (Resumo Distribuição.pdf) con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Auditor + corrida     │  Fecha + cantidad           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fatura | Comp | Unimed | Emisión | Venc. | Valor     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: cantidad / valor asignado                          │
//	│  GUÍAS: internaciones relevantes (si existen)                │
//	│  FOOTER: QR con el resumen de la asignación                  │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ptu-audit/internal/domain/entity"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/report"
)

// SheetFileName nombre de la hoja dentro de Distribuição/<auditor>.
const SheetFileName = "Resumo Distribuição.pdf"

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 102, Blue: 68}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// SheetInfo datos de la corrida impresos en el encabezado.
type SheetInfo struct {
	RunID       string
	GeneratedAt time.Time
}

// AssignmentSheetGenerator genera la hoja de asignación usando Maroto v2.
type AssignmentSheetGenerator struct{}

// NewAssignmentSheetGenerator construye el generador.
func NewAssignmentSheetGenerator() *AssignmentSheetGenerator { return &AssignmentSheetGenerator{} }

// Generate genera el PDF y devuelve sus bytes.
func (g *AssignmentSheetGenerator) Generate(_ context.Context, a *entity.AuditorAssignment, info SheetInfo) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("pdf: asignación nula")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Distribuição Faturas Audit+", true).
		WithAuthor(a.Auditor, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(a, info))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	m.AddRows(invoiceRows(a.Invoices)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(a))

	if guides := relevantGuides(a.Invoices); len(guides) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(guideRows(guides)...)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(a, info))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// WriteFile genera la hoja y la graba en dir/Resumo Distribuição.pdf.
func (g *AssignmentSheetGenerator) WriteFile(ctx context.Context, a *entity.AuditorAssignment, info SheetInfo, dir string) (string, error) {
	data, err := g.Generate(ctx, a, info)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, SheetFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("pdf: grabar %s: %w", path, err)
	}
	return path, nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: auditor + corrida (izq) y fecha + cantidad (der).
func headerRow(a *entity.AuditorAssignment, info SheetInfo) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(a.Auditor, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Corrida: "+nonEmpty(info.RunID, "—"), props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("DISTRIBUIÇÃO DE FATURAS PTU A500", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%d fatura(s)", a.TotalCount), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Gerado em: "+info.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de facturas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).WithStyle(&props.Cell{BackgroundColor: colorPrimary}).Add(
		h("Nº Fatura", 2, align.Left),
		h("Comp.", 1, align.Center),
		h("Unimed", 4, align.Left),
		h("Emissão", 1, align.Center),
		h("Venc.", 2, align.Center),
		h("Valor", 2, align.Right),
	)
}

// invoiceRows: una fila por factura asignada.
func invoiceRows(invoices []*entity.Invoice) []core.Row {
	result := make([]core.Row, 0, len(invoices))
	for _, inv := range invoices {
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(inv.InvoiceNumber, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(
				report.FormatCompetence(inv.Competence, inv.IssueDate),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(4).Add(text.New(
				report.BranchLabel(inv.DestinationBranchCode, inv.DestinationBranchName),
				props.Text{Size: 7, Top: 1, Left: 1},
			)),
			col.New(1).Add(text.New(report.FormatDate(inv.IssueDate), props.Text{Size: 7, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(report.FormatDate(inv.DueDate), props.Text{Size: 7, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(
				"R$ "+formatMoney(inv.TotalValue),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(a *entity.AuditorAssignment) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	grand := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1, Top: 6,
		})
	}
	return row.New(14).Add(
		col.New(6),
		col.New(3).Add(label("Faturas:"), text.New("VALOR TOTAL:", props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 6,
		})),
		col.New(3).Add(
			text.New(fmt.Sprint(a.TotalCount), props.Text{Size: 9, Align: align.Right, Right: 1}),
			grand("R$ "+formatMoney(a.TotalValue)),
		),
	)
}

// guideRows: guías de internación que superan el umbral de auditoría.
func guideRows(guides []entity.AdmissionGuide) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("GUIAS DE INTERNAÇÃO RELEVANTES", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}
	for _, g := range guides {
		rows = append(rows, row.New(5).Add(
			col.New(2).Add(text.New(g.ParentInvoiceNumber, props.Text{Size: 7, Left: 1})),
			col.New(2).Add(text.New(g.GuideNumber, props.Text{Size: 7})),
			col.New(4).Add(text.New(g.BeneficiaryName, props.Text{Size: 7})),
			col.New(2).Add(text.New(g.AdmissionType, props.Text{Size: 7})),
			col.New(2).Add(text.New("R$ "+formatMoney(g.FilterValue), props.Text{Size: 7, Align: align.Right, Right: 1})),
		))
	}
	return rows
}

// footerRow: QR con auditor, cantidad y valor para conferir la entrega.
func footerRow(a *entity.AuditorAssignment, info SheetInfo) core.Row {
	summary := strings.Join([]string{
		a.Auditor,
		fmt.Sprint(a.TotalCount),
		a.TotalValue.StringFixed(2),
		info.RunID,
	}, "|")
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(summary, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Conferência da distribuição: auditor | faturas | valor | corrida.", props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
			text.New("Os ZIP desta lista estão na pasta do auditor em Distribuição.", props.Text{
				Size: 8, Top: 12, Left: 3, Color: colorGray,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func relevantGuides(invoices []*entity.Invoice) []entity.AdmissionGuide {
	var out []entity.AdmissionGuide
	for _, inv := range invoices {
		out = append(out, inv.RelevantGuides...)
	}
	return out
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney formato regional con puntos de miles y coma decimal.
// Ej: 25000 → "25.000,00", 1500.5 → "1.500,50"
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf) + "," + frac
}
