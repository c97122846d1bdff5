package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/ptu-audit/internal/domain"
	"github.com/jhoicas/ptu-audit/internal/domain/entity"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/pdf"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/workspace"
)

// DistributionSummary resultado de Distribute.
type DistributionSummary struct {
	Plan       *entity.DistributionPlan  `json:"-"`
	Organize   *workspace.OrganizeReport `json:"organize"`
	ReportPath string                    `json:"report_path,omitempty"`
	Sheets     map[string]string         `json:"sheets,omitempty"`
	Warnings   []string                  `json:"warnings,omitempty"`
	Persisted  bool                      `json:"persisted"`
}

// Distribute reparte las facturas de la sesión entre los auditores, mueve los ZIP a
// Distribuição/<auditor> y genera la planilla y los resúmenes PDF. Las fallas de los
// reportes quedan en Warnings; el plan se conserva en la sesión.
func (s *Service) Distribute(ctx context.Context, auditors []string) (*DistributionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.folder == "" {
		return nil, &PhaseError{Phase: PhaseDistribute, Err: domain.ErrNoSession}
	}
	names := make([]string, 0, len(auditors))
	for _, a := range auditors {
		if a = strings.TrimSpace(a); a != "" {
			names = append(names, a)
		}
	}
	plan, err := s.deps.Balancer.Distribute(s.invoices, names)
	if err != nil {
		return nil, &PhaseError{Phase: PhaseDistribute, Err: err}
	}
	s.plan = plan
	for _, a := range plan.Assignments {
		s.log.Info().
			Str("auditor", a.Auditor).
			Int("qtd", a.TotalCount).
			Str("valor", a.TotalValue.StringFixed(2)).
			Msg("plan de distribución")
	}

	layout := workspace.NewLayout(s.folder)
	report, err := workspace.NewOrganizer(layout, s.log).Organize(plan)
	if err != nil {
		return nil, &PhaseError{Phase: PhaseDistribute, Err: err}
	}
	sum := &DistributionSummary{Plan: plan, Organize: report, Sheets: make(map[string]string, len(plan.Assignments))}
	for _, name := range report.Auditors {
		st := report.Status[name]
		s.log.Info().Str("auditor", name).Int("movidos", st.Moved).Int("erros", st.Errors).Int("nao_encontrados", st.NotFound).Msg("ZIPs organizados")
	}
	if !report.OK() {
		sum.Warnings = append(sum.Warnings, "Problemas na organização dos ZIPs.")
	}

	if path, err := s.deps.Reports.WriteDistribution(plan, layout.DistributionDir()); err != nil {
		s.log.Error().Err(err).Msg("falla al generar planilla de distribución")
		sum.Warnings = append(sum.Warnings, fmt.Sprintf("planilla de distribución: %v", err))
	} else {
		sum.ReportPath = path
	}

	if s.deps.Sheets != nil {
		info := pdf.SheetInfo{RunID: s.runID, GeneratedAt: s.now()}
		for _, a := range plan.Assignments {
			path, err := s.deps.Sheets.WriteFile(ctx, a, info, layout.AuditorDistributionDir(a.Auditor))
			if err != nil {
				s.log.Error().Err(err).Str("auditor", a.Auditor).Msg("falla al generar resumen PDF")
				sum.Warnings = append(sum.Warnings, fmt.Sprintf("resumen PDF de %s: %v", a.Auditor, err))
				continue
			}
			sum.Sheets[a.Auditor] = path
		}
	}

	if s.deps.Ledger != nil {
		if err := s.deps.Ledger.SavePlan(ctx, s.runID, plan); err != nil {
			s.log.Error().Err(err).Str("run_id", s.runID).Msg("no fue posible registrar el plan")
		} else {
			sum.Persisted = true
		}
	}
	return sum, nil
}
