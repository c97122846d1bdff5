// Package audit orquesta el flujo de auditoría de facturas PTU A500: importación, distribución
// entre auditores, preparación de XML para corrección y sustitución del hash.
package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/ptu-audit/internal/domain/distribution"
	"github.com/jhoicas/ptu-audit/internal/domain/entity"
	"github.com/jhoicas/ptu-audit/internal/domain/repository"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/archive"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/ptuxml"
)

// Fases reportadas en PhaseError.
const (
	PhaseImport     = "importación"
	PhaseDistribute = "distribución"
	PhaseCorrection = "corrección"
	PhaseHash       = "hash"
)

// PhaseError envuelve un error con la fase del flujo donde ocurrió.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Dependencies componentes usados por el servicio. Sheets y Ledger son opcionales.
type Dependencies struct {
	Engine     *ptuxml.RuleEngine
	Classifier *ptuxml.Classifier
	Balancer   *distribution.Balancer
	Repackager *archive.Repackager
	Reports    ReportWriter
	Sheets     SheetWriter
	Ledger     repository.AuditLedgerRepository
}

// Session copia del estado de la importación activa.
type Session struct {
	Folder   string
	RunID    string
	Invoices []*entity.Invoice
	Plan     *entity.DistributionPlan
}

// Service mantiene una única sesión (carpeta importada, facturas, último plan); las operaciones se serializan.
type Service struct {
	deps Dependencies
	log  zerolog.Logger
	now  func() time.Time

	mu       sync.Mutex
	folder   string
	runID    string
	invoices []*entity.Invoice
	plan     *entity.DistributionPlan
}

// NewService construye el orquestador.
func NewService(deps Dependencies, log zerolog.Logger) *Service {
	if deps.Balancer == nil {
		deps.Balancer = distribution.NewBalancer(log)
	}
	if deps.Repackager == nil {
		deps.Repackager = archive.NewRepackager(log)
	}
	return &Service{deps: deps, log: log, now: time.Now}
}

// Session devuelve una copia superficial del estado actual.
func (s *Service) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	invoices := make([]*entity.Invoice, len(s.invoices))
	copy(invoices, s.invoices)
	return Session{Folder: s.folder, RunID: s.runID, Invoices: invoices, Plan: s.plan}
}
