package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/jhoicas/ptu-audit/internal/domain/entity"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/archive"
)

// MoveStatus resultado del movimiento de los ZIP de un auditor.
type MoveStatus struct {
	Moved    int `json:"moved"`
	Errors   int `json:"errors"`
	NotFound int `json:"not_found"`
}

// OrganizeReport estado por auditor, en el orden del plan.
type OrganizeReport struct {
	Auditors []string              `json:"auditors"`
	Status   map[string]MoveStatus `json:"status"`
}

// OK sin errores de movimiento (los ZIP no encontrados sólo generan aviso).
func (r *OrganizeReport) OK() bool {
	for _, s := range r.Status {
		if s.Errors > 0 {
			return false
		}
	}
	return true
}

// ExtractionResult resultado de extraer los .051 de la carpeta de un auditor.
type ExtractionResult struct {
	Extracted int      `json:"extracted"`
	Failures  []string `json:"failures,omitempty"`
}

// Organizer mueve y extrae archivos según el layout de la importación.
type Organizer struct {
	layout Layout
	log    zerolog.Logger
}

// NewOrganizer crea el organizador para la raíz del layout.
func NewOrganizer(layout Layout, log zerolog.Logger) *Organizer {
	return &Organizer{layout: layout, log: log}
}

// Organize mueve el ZIP de cada factura a Distribuição/<auditor>. Un destino ya existente
// cuenta como movido; un origen inexistente se cuenta como no encontrado.
func (o *Organizer) Organize(plan *entity.DistributionPlan) (*OrganizeReport, error) {
	if plan == nil || len(plan.Assignments) == 0 {
		return nil, fmt.Errorf("workspace: plan de distribución vacío")
	}
	if err := EnsureDir(o.layout.DistributionDir()); err != nil {
		return nil, err
	}

	report := &OrganizeReport{Status: make(map[string]MoveStatus, len(plan.Assignments))}
	for _, a := range plan.Assignments {
		report.Auditors = append(report.Auditors, a.Auditor)
		report.Status[a.Auditor] = o.organizeAuditor(a)
	}
	return report, nil
}

func (o *Organizer) organizeAuditor(a *entity.AuditorAssignment) MoveStatus {
	var st MoveStatus
	dir := o.layout.AuditorDistributionDir(a.Auditor)
	if err := EnsureDir(dir); err != nil {
		o.log.Error().Err(err).Str("auditor", a.Auditor).Msg("no fue posible crear la carpeta del auditor")
		st.Errors += len(a.Invoices)
		return st
	}

	for _, inv := range a.Invoices {
		src := inv.SourceArchivePath
		if src == "" {
			st.NotFound++
			continue
		}
		dest := filepath.Join(dir, filepath.Base(src))
		if _, err := os.Stat(dest); err == nil {
			st.Moved++
			o.log.Info().Str("zip", filepath.Base(src)).Msg("ZIP ya existe en el destino")
			continue
		}
		if info, err := os.Stat(src); err != nil || info.IsDir() {
			o.log.Warn().Str("zip", src).Str("auditor", a.Auditor).Msg("ZIP original no encontrado en el origen")
			st.NotFound++
			continue
		}
		if err := moveFile(src, dest); err != nil {
			o.log.Error().Err(err).Str("zip", filepath.Base(src)).Msg("falla al mover ZIP")
			st.Errors++
			continue
		}
		st.Moved++
		o.log.Debug().Str("zip", filepath.Base(src)).Str("auditor", a.Auditor).Msg("ZIP movido")
	}
	return st
}

// ExtractForCorrection extrae el .051 de cada ZIP de Distribuição/<auditor> a Correção XML/<auditor>.
func (o *Organizer) ExtractForCorrection(auditor string) (*ExtractionResult, error) {
	src := o.layout.AuditorDistributionDir(auditor)
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("workspace: carpeta de ZIPs de %q no encontrada: %s", auditor, src)
	}
	dest := o.layout.AuditorCorrectionDir(auditor)
	if err := EnsureDir(dest); err != nil {
		return nil, err
	}
	zips, err := ListArchives(src)
	if err != nil {
		return nil, err
	}

	res := &ExtractionResult{}
	for _, z := range zips {
		if _, _, err := archive.ExtractDocument(z, dest); err != nil {
			o.log.Warn().Err(err).Str("zip", filepath.Base(z)).Msg("falla al extraer XML")
			res.Failures = append(res.Failures, fmt.Sprintf("Falha ao extrair XML do arquivo '%s'.", filepath.Base(z)))
			continue
		}
		res.Extracted++
	}
	return res, nil
}
