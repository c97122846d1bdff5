package audit

import (
	"context"
	"fmt"

	"github.com/jhoicas/ptu-audit/internal/domain"
	"github.com/jhoicas/ptu-audit/internal/domain/entity"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/workspace"
)

// CorrectionSummary resultado de PrepareCorrection.
type CorrectionSummary struct {
	Auditor   string   `json:"auditor"`
	Directory string   `json:"directory"`
	Extracted int      `json:"extracted"`
	Failures  []string `json:"failures,omitempty"`
	Guides    int      `json:"guides"`
	CSVPath   string   `json:"csv_path,omitempty"`
}

// PrepareCorrection extrae los .051 de los ZIP del auditor a Correção XML/<auditor> y genera
// el CSV con las guías de internación relevantes de sus facturas.
func (s *Service) PrepareCorrection(ctx context.Context, auditor string) (*CorrectionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.folder == "" {
		return nil, &PhaseError{Phase: PhaseCorrection, Err: domain.ErrNoSession}
	}
	a := s.plan.Get(auditor)
	if a == nil {
		return nil, &PhaseError{Phase: PhaseCorrection, Err: fmt.Errorf("auditor %q sin plan de distribución: %w", auditor, domain.ErrNotFound)}
	}
	if err := ctx.Err(); err != nil {
		return nil, &PhaseError{Phase: PhaseCorrection, Err: err}
	}

	layout := workspace.NewLayout(s.folder)
	res, err := workspace.NewOrganizer(layout, s.log).ExtractForCorrection(auditor)
	if err != nil {
		return nil, &PhaseError{Phase: PhaseCorrection, Err: err}
	}
	sum := &CorrectionSummary{
		Auditor:   auditor,
		Directory: layout.AuditorCorrectionDir(auditor),
		Extracted: res.Extracted,
		Failures:  res.Failures,
	}

	guides := relevantGuides(a)
	sum.Guides = len(guides)
	if len(guides) == 0 {
		s.log.Info().Str("auditor", auditor).Msg("ninguna guía relevante para CSV")
	} else if path, err := s.deps.Reports.WriteGuidesCSV(guides, sum.Directory); err != nil {
		s.log.Error().Err(err).Str("auditor", auditor).Msg("falla al generar CSV de guías")
		sum.Failures = append(sum.Failures, fmt.Sprintf("CSV de guias: %v", err))
	} else {
		sum.CSVPath = path
	}

	s.log.Info().
		Str("auditor", auditor).
		Int("extraidos", sum.Extracted).
		Int("falhas", len(sum.Failures)).
		Int("guias", sum.Guides).
		Msg("preparación para corrección concluida")
	return sum, nil
}

func relevantGuides(a *entity.AuditorAssignment) []entity.AdmissionGuide {
	var out []entity.AdmissionGuide
	for _, inv := range a.Invoices {
		out = append(out, inv.RelevantGuides...)
	}
	return out
}
