package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jhoicas/ptu-audit/internal/domain/entity"
	"github.com/jhoicas/ptu-audit/internal/domain/ptu"
)

// GuidesFileName CSV de guías relevantes dentro de Correção XML/<auditor>.
const GuidesFileName = "Guias de Internação Relevantes.csv"

// GuidesHeaders columnas del CSV de guías.
var GuidesHeaders = []string{
	"Fatura Pai",
	"Nº Guia Internação",
	"Código Beneficiário",
	"Nome Beneficiário",
	"Tipo de Internação",
	"Valor p/ Filtro (R$)",
	"Valor Real Total (R$)",
}

const utf8BOM = "\ufeff"

// WriteGuidesCSV escribe el CSV (UTF-8 con BOM, separador ";") en dir. Sin guías no crea archivo
// y devuelve ruta vacía.
func (w *Writer) WriteGuidesCSV(guides []entity.AdmissionGuide, dir string) (string, error) {
	if len(guides) == 0 {
		w.log.Warn().Str("carpeta", dir).Msg("ninguna guía de internación relevante: CSV no generado")
		return "", nil
	}
	path := filepath.Join(dir, GuidesFileName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("report: crear %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(utf8BOM); err != nil {
		return "", fmt.Errorf("report: escribir BOM: %w", err)
	}
	cw := csv.NewWriter(f)
	cw.Comma = ';'
	cw.UseCRLF = true
	if err := cw.Write(GuidesHeaders); err != nil {
		return "", fmt.Errorf("report: cabecera CSV: %w", err)
	}
	for _, g := range guides {
		rec := []string{
			g.ParentInvoiceNumber,
			g.GuideNumber,
			g.BeneficiaryCode,
			g.BeneficiaryName,
			g.AdmissionType,
			ptu.FormatValue(g.FilterValue),
			ptu.FormatValue(g.RealTotalValue),
		}
		if err := cw.Write(rec); err != nil {
			return "", fmt.Errorf("report: fila CSV: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("report: escribir CSV: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("report: cerrar %s: %w", path, err)
	}
	w.log.Info().Str("archivo", path).Int("guias", len(guides)).Msg("CSV de guías generado")
	return path, nil
}
