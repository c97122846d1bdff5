package audit

import (
	"context"

	"github.com/jhoicas/ptu-audit/internal/domain/entity"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/pdf"
)

// ReportWriter genera la planilla de distribución y el CSV de guías relevantes.
type ReportWriter interface {
	WriteDistribution(plan *entity.DistributionPlan, dir string) (string, error)
	WriteGuidesCSV(guides []entity.AdmissionGuide, dir string) (string, error)
}

// SheetWriter genera el resumen PDF de la asignación de un auditor.
type SheetWriter interface {
	WriteFile(ctx context.Context, a *entity.AuditorAssignment, info pdf.SheetInfo, dir string) (string, error)
}
