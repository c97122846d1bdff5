package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/ptu-audit/internal/domain"
	"github.com/jhoicas/ptu-audit/internal/domain/entity"
	"github.com/jhoicas/ptu-audit/internal/domain/repository"
)

var _ repository.AuditLedgerRepository = (*AuditLedgerRepo)(nil)

// AuditLedgerRepo implementación de AuditLedgerRepository sobre PostgreSQL.
type AuditLedgerRepo struct {
	q  Querier
	tx *TxRunner
}

// NewAuditLedgerRepository construye el adaptador con el pool; SaveRun y SavePlan abren su propia transacción.
func NewAuditLedgerRepository(pool *pgxpool.Pool) *AuditLedgerRepo {
	return &AuditLedgerRepo{q: pool, tx: NewTxRunner(pool)}
}

// SaveRun persiste la corrida, sus facturas y las guías relevantes de cada una.
func (r *AuditLedgerRepo) SaveRun(ctx context.Context, run *entity.AuditRun, invoices []*entity.Invoice) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("corrida sin id: %w", domain.ErrInvalidInput)
	}
	return r.tx.Run(ctx, func(q Querier) error {
		m := run.Mutations
		_, err := q.Exec(ctx, `
			INSERT INTO audit_runs (id, source_folder, started_at, finished_at, archives_found, invoices_imported, failures,
				rule_cnes, rule_doc_type, rule_protocol, rule_provider, rule_own_resource, rule_package, rule_coverage, rule_reallocation)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			run.ID, run.SourceFolder, run.StartedAt, run.FinishedAt, run.ArchivesFound, run.InvoicesImported, run.Failures,
			m.CNES, m.DocumentType, m.ProtocolDate, m.ProviderType, m.OwnResource, m.PackageCode, m.CoverageMerge, m.Reallocation,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("corrida %s ya registrada: %w", run.ID, domain.ErrConflict)
			}
			return fmt.Errorf("insert audit_run: %w", err)
		}
		for _, inv := range invoices {
			if err := insertInvoice(ctx, q, run.ID, inv); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertInvoice(ctx context.Context, q Querier, runID string, inv *entity.Invoice) error {
	_, err := q.Exec(ctx, `
		INSERT INTO audit_invoices (run_id, archive_name, entry_name, invoice_number, competence, branch_code, branch_name,
			issue_date, due_date, total_value, fingerprint, mutations)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		runID, inv.SourceArchiveName, inv.SourceEntryName, inv.InvoiceNumber, inv.Competence,
		inv.DestinationBranchCode, inv.DestinationBranchName, inv.IssueDate, inv.DueDate,
		inv.TotalValue, inv.Fingerprint, inv.Mutations.Total(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("archivo %s repetido en la corrida: %w", inv.SourceArchiveName, domain.ErrConflict)
		}
		return fmt.Errorf("insert audit_invoice %s: %w", inv.SourceArchiveName, err)
	}
	for _, g := range inv.RelevantGuides {
		_, err := q.Exec(ctx, `
			INSERT INTO audit_guides (run_id, archive_name, guide_number, beneficiary_code, beneficiary_name,
				admission_type, filter_value, real_total_value)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			runID, inv.SourceArchiveName, g.GuideNumber, g.BeneficiaryCode, g.BeneficiaryName,
			g.AdmissionType, g.FilterValue, g.RealTotalValue,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("guía %s sin factura %s: %w", g.GuideNumber, inv.SourceArchiveName, domain.ErrNotFound)
			}
			return fmt.Errorf("insert audit_guide %s: %w", g.GuideNumber, err)
		}
	}
	return nil
}

// SavePlan registra el auditor de cada factura; una redistribución de la misma corrida sobrescribe la anterior.
func (r *AuditLedgerRepo) SavePlan(ctx context.Context, runID string, plan *entity.DistributionPlan) error {
	if plan == nil {
		return fmt.Errorf("plan vacío: %w", domain.ErrInvalidInput)
	}
	return r.tx.Run(ctx, func(q Querier) error {
		for _, a := range plan.Assignments {
			for _, inv := range a.Invoices {
				tag, err := q.Exec(ctx, `
					INSERT INTO audit_assignments (run_id, archive_name, auditor, assigned_at)
					SELECT $1, archive_name, $3, NOW() FROM audit_invoices WHERE run_id = $1 AND archive_name = $2
					ON CONFLICT (run_id, archive_name) DO UPDATE SET auditor = EXCLUDED.auditor, assigned_at = EXCLUDED.assigned_at`,
					runID, inv.SourceArchiveName, a.Auditor,
				)
				if err != nil {
					return fmt.Errorf("insert audit_assignment %s: %w", inv.SourceArchiveName, err)
				}
				if tag.RowsAffected() == 0 {
					return fmt.Errorf("factura %s no pertenece a la corrida %s: %w", inv.SourceArchiveName, runID, domain.ErrNotFound)
				}
			}
		}
		return nil
	})
}

// FingerprintSeen indica si otra corrida ya importó una factura con el mismo fingerprint.
func (r *AuditLedgerRepo) FingerprintSeen(ctx context.Context, fingerprint, excludeRunID string) (bool, error) {
	if fingerprint == "" {
		return false, nil
	}
	var seen bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM audit_invoices WHERE fingerprint = $1 AND run_id::text <> $2)`,
		fingerprint, excludeRunID,
	).Scan(&seen)
	if err != nil {
		return false, fmt.Errorf("consultar fingerprint: %w", err)
	}
	return seen, nil
}

// AssignedAuditor devuelve el auditor registrado para un archivo de la corrida.
func (r *AuditLedgerRepo) AssignedAuditor(ctx context.Context, runID, archiveName string) (string, error) {
	var auditor string
	err := r.q.QueryRow(ctx, `
		SELECT auditor FROM audit_assignments WHERE run_id = $1 AND archive_name = $2`,
		runID, archiveName,
	).Scan(&auditor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("consultar asignación: %w", err)
	}
	return auditor, nil
}
