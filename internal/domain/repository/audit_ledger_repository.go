package repository

import (
	"context"

	"github.com/jhoicas/ptu-audit/internal/domain/entity"
)

// AuditLedgerRepository puerto de persistencia del historial de auditoría (corridas, facturas, guías y asignaciones).
type AuditLedgerRepository interface {
	// SaveRun guarda la corrida con sus facturas y guías relevantes en una sola transacción.
	SaveRun(ctx context.Context, run *entity.AuditRun, invoices []*entity.Invoice) error
	// SavePlan guarda el auditor asignado a cada factura de la corrida.
	SavePlan(ctx context.Context, runID string, plan *entity.DistributionPlan) error
	// FingerprintSeen indica si una factura con el mismo fingerprint ya fue importada en otra corrida.
	FingerprintSeen(ctx context.Context, fingerprint, excludeRunID string) (bool, error)
}
