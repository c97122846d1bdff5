// Package bootstrap arma el servicio de auditoría a partir de la configuración; lo comparten la API y la CLI.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/ptu-audit/internal/application/audit"
	"github.com/jhoicas/ptu-audit/internal/domain/distribution"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/archive"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/pdf"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/postgres"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/ptuxml"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/reference"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/report"
	"github.com/jhoicas/ptu-audit/pkg/config"
)

// ReferenceFiles resuelve los archivos de referencia; los nombres vacíos toman el valor por defecto.
func ReferenceFiles(c config.AuditConfig) reference.Files {
	files := reference.DefaultFiles(c.ReferenceDir)
	if c.IgnoreFile != "" {
		files.IgnoreFile = c.IgnoreFile
	}
	if c.BranchFile != "" {
		files.BranchFile = c.BranchFile
	}
	if c.HMFile != "" {
		files.HMFile = c.HMFile
	}
	if c.SADTFile != "" {
		files.SADTFile = c.SADTFile
	}
	return files
}

// Components servicio armado y función de cierre (pool de la bitácora si está habilitada).
type Components struct {
	Service *audit.Service
	Engine  *ptuxml.RuleEngine
	Close   func()
}

// NewComponents carga los datos de referencia, conecta la bitácora (DB.Enabled) y construye audit.Service.
func NewComponents(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Components, error) {
	ref := reference.NewLoader(ReferenceFiles(cfg.Audit), log).Load()
	engine := ptuxml.NewRuleEngine(ref, log)

	deps := audit.Dependencies{
		Engine:     engine,
		Classifier: ptuxml.NewClassifier(ref, cfg.Audit.GuideThreshold, log),
		Balancer:   distribution.NewBalancer(log),
		Repackager: archive.NewRepackager(log),
		Reports:    report.NewWriter(log),
		Sheets:     pdf.NewAssignmentSheetGenerator(),
	}

	closeFn := func() {}
	if cfg.DB.Enabled {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		if err := postgres.ApplyMigrations(ctx, pool, log); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migraciones: %w", err)
		}
		deps.Ledger = postgres.NewAuditLedgerRepository(pool)
		closeFn = pool.Close
		log.Info().Str("db", cfg.DB.DBName).Msg("bitácora de auditoría habilitada")
	} else {
		log.Info().Msg("bitácora de auditoría deshabilitada (DB_ENABLED=false)")
	}

	return &Components{
		Service: audit.NewService(deps, log),
		Engine:  engine,
		Close:   closeFn,
	}, nil
}
