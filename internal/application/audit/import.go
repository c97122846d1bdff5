package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/jhoicas/ptu-audit/internal/domain/entity"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/archive"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/ptuxml"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/workspace"
)

// ImportSummary resultado de Import.
type ImportSummary struct {
	RunID         string                   `json:"run_id"`
	Folder        string                   `json:"folder"`
	ArchivesFound int                      `json:"archives_found"`
	Imported      int                      `json:"imported"`
	Failures      []string                 `json:"failures,omitempty"`
	Duplicates    []string                 `json:"duplicates,omitempty"`
	Guides        int                      `json:"guides"`
	Mutations     entity.RuleMutationCount `json:"mutations"`
	Persisted     bool                     `json:"persisted"`
}

// Import procesa todos los ZIP de la carpeta y reemplaza la sesión actual. Un archivo con
// problemas se registra en Failures y no detiene el lote.
func (s *Service) Import(ctx context.Context, folder string) (*ImportSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	layout := workspace.NewLayout(folder)
	startedAt := s.now()
	zips, err := workspace.ListArchives(layout.Root)
	if err != nil {
		return nil, &PhaseError{Phase: PhaseImport, Err: err}
	}

	sum := &ImportSummary{RunID: uuid.New().String(), Folder: layout.Root, ArchivesFound: len(zips)}
	s.log.Info().Str("carpeta", layout.Root).Int("zips", len(zips)).Msg("iniciando importación")
	if len(zips) == 0 {
		s.replaceSession(layout.Root, sum.RunID, nil)
		s.log.Warn().Str("carpeta", layout.Root).Msg("ningún archivo .zip encontrado")
		return sum, nil
	}

	for _, dir := range []string{layout.BackupDir(), layout.CorrectionDir(), layout.TempDir()} {
		if err := workspace.EnsureDir(dir); err != nil {
			return nil, &PhaseError{Phase: PhaseImport, Err: err}
		}
	}
	defer func() {
		if err := os.RemoveAll(layout.TempDir()); err != nil {
			s.log.Warn().Err(err).Str("carpeta", layout.TempDir()).Msg("falla al eliminar carpeta temporal")
		}
	}()

	invoices := make([]*entity.Invoice, 0, len(zips))
	for i, z := range zips {
		if err := ctx.Err(); err != nil {
			return sum, &PhaseError{Phase: PhaseImport, Err: err}
		}
		name := filepath.Base(z)
		log := s.log.With().Str("zip", name).Int("n", i+1).Int("total", len(zips)).Logger()

		if copied, err := workspace.Backup(z, layout.BackupDir()); err != nil {
			log.Warn().Err(err).Msg("falla al crear backup")
		} else if copied {
			log.Debug().Msg("backup creado")
		}

		inv, err := s.importArchive(z, layout.TempDir())
		if err != nil {
			log.Error().Err(err).Msg("factura descartada")
			sum.Failures = append(sum.Failures, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		if s.deps.Ledger != nil && inv.Fingerprint != "" {
			seen, err := s.deps.Ledger.FingerprintSeen(ctx, inv.Fingerprint, sum.RunID)
			if err != nil {
				log.Warn().Err(err).Msg("no fue posible consultar la bitácora")
			} else if seen {
				log.Warn().Str("fatura", inv.InvoiceNumber).Msg("factura ya importada en una corrida anterior")
				sum.Duplicates = append(sum.Duplicates, name)
			}
		}

		sum.Mutations.Add(inv.Mutations)
		sum.Guides += len(inv.RelevantGuides)
		invoices = append(invoices, inv)
		log.Info().
			Str("fatura", inv.InvoiceNumber).
			Str("valor", inv.TotalValueText).
			Int("regras", inv.Mutations.Total()).
			Int("guias", len(inv.RelevantGuides)).
			Msg("factura procesada")
	}
	sum.Imported = len(invoices)
	s.replaceSession(layout.Root, sum.RunID, invoices)
	s.log.Info().Int("importadas", sum.Imported).Int("total", len(zips)).Msg("importación concluida")

	if s.deps.Ledger != nil {
		run := &entity.AuditRun{
			ID:               sum.RunID,
			SourceFolder:     layout.Root,
			StartedAt:        startedAt,
			FinishedAt:       s.now(),
			ArchivesFound:    len(zips),
			InvoicesImported: sum.Imported,
			Failures:         len(sum.Failures),
			Mutations:        sum.Mutations,
		}
		if err := s.deps.Ledger.SaveRun(ctx, run, invoices); err != nil {
			s.log.Error().Err(err).Str("run_id", run.ID).Msg("no fue posible registrar la corrida")
		} else {
			sum.Persisted = true
		}
	}
	return sum, nil
}

// importArchive extrae el .051, aplica las reglas y lee cabecera y guías. El XML temporal se elimina siempre.
func (s *Service) importArchive(zipPath, tempDir string) (*entity.Invoice, error) {
	xmlPath, entry, err := archive.ExtractDocument(zipPath, tempDir)
	if err != nil {
		return nil, fmt.Errorf("não foi possível extrair XML: %w", err)
	}
	defer func() {
		if err := workspace.RemoveIfExists(xmlPath); err != nil {
			s.log.Warn().Err(err).Str("xml", xmlPath).Msg("falla al eliminar XML temporal")
		}
	}()

	mutations, err := s.deps.Engine.ApplyFile(xmlPath)
	if err != nil {
		s.log.Warn().Err(err).Str("xml", entry).Msg("problemas al aplicar reglas")
	}
	data, err := os.ReadFile(xmlPath)
	if err != nil {
		return nil, fmt.Errorf("leer XML: %w", err)
	}
	inv, err := s.deps.Classifier.Classify(data)
	if err != nil {
		return nil, err
	}
	inv.SourceArchivePath = zipPath
	inv.SourceArchiveName = filepath.Base(zipPath)
	inv.SourceEntryName = entry
	inv.Mutations = mutations
	if fp, err := ptuxml.Fingerprint(data); err != nil {
		s.log.Warn().Err(err).Str("xml", entry).Msg("fingerprint no calculado")
	} else {
		inv.Fingerprint = fp
	}
	return inv, nil
}

func (s *Service) replaceSession(folder, runID string, invoices []*entity.Invoice) {
	s.folder = folder
	s.runID = runID
	s.invoices = invoices
	s.plan = nil
}
