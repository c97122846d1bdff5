package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jhoicas/ptu-audit/internal/domain"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/archive"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/ptuxml"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/workspace"
)

// HashResult resultado de SubstituteHash. Message es el texto mostrado al operador.
type HashResult struct {
	OK          bool   `json:"ok"`
	Message     string `json:"message"`
	ArchivePath string `json:"archive_path,omitempty"`
	Digest      string `json:"digest,omitempty"`
	HashCreated bool   `json:"hash_created,omitempty"`
}

func failed(msg string, err error) (*HashResult, error) {
	return &HashResult{Message: msg}, &PhaseError{Phase: PhaseHash, Err: err}
}

// SubstituteHash recalcula el hash de <raíz>/Correção XML/<auditor>/<fatura>.051 y genera
// Validação CMB/<fatura>.zip a partir del ZIP en Distribuição/<auditor>. No requiere sesión.
func (s *Service) SubstituteHash(ctx context.Context, xmlPath string) (*HashResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if xmlPath == "" {
		return failed("Nenhum arquivo fornecido.", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return failed(err.Error(), err)
	}
	xmlPath, _ = filepath.Abs(xmlPath)
	entry := filepath.Base(xmlPath)
	layout, auditorFolder := workspace.LayoutFromDocument(xmlPath)
	zipPath := filepath.Join(layout.DistributionDir(), auditorFolder, archive.ArchiveName(xmlPath))

	if _, err := os.Stat(zipPath); err != nil {
		msg := fmt.Sprintf("ERRO: Não foi possível localizar o arquivo ZIP original correspondente a '%s'. Esperado em: %s", entry, zipPath)
		return failed(msg, fmt.Errorf("%s: %w", zipPath, domain.ErrNotFound))
	}
	if err := workspace.EnsureDir(layout.ValidationDir()); err != nil {
		return failed(err.Error(), err)
	}

	if _, err := s.deps.Engine.ApplyFile(xmlPath); err != nil {
		s.log.Warn().Err(err).Str("xml", entry).Msg("problemas al aplicar reglas; el hash se calcula sobre el estado actual")
	}
	doc, err := ptuxml.ParseFile(xmlPath)
	if err != nil {
		return failed(fmt.Sprintf("Não foi possível ler a raiz do XML em '%s' para o hash.", entry), err)
	}
	digest, err := ptuxml.Digest(doc)
	if err != nil {
		return failed("Falha ao calcular o hash moderno.", err)
	}
	created, err := ptuxml.SetHash(doc, digest)
	if err != nil {
		return failed("Raiz <ptuA500> não encontrada.", err)
	}
	if created {
		s.log.Warn().Str("xml", entry).Str("hash", digest).Msg("elemento hash inexistente, creado")
	} else {
		s.log.Info().Str("xml", entry).Str("hash", digest).Msg("hash sustituido")
	}
	if err := doc.WriteFile(xmlPath); err != nil {
		return failed(fmt.Sprintf("Erro inesperado: %v", err), err)
	}

	dest, repackErr := s.deps.Repackager.Repackage(zipPath, xmlPath, entry, layout.ValidationDir())
	if err := workspace.RemoveIfExists(xmlPath); err != nil {
		s.log.Warn().Err(err).Str("xml", entry).Msg("falla al eliminar XML de corrección")
	}
	if repackErr != nil {
		res, err := failed(fmt.Sprintf("Falha ao criar nova fatura ZIP: %v", repackErr), repackErr)
		res.Digest = digest
		return res, err
	}
	return &HashResult{
		OK:          true,
		Message:     fmt.Sprintf("Fatura atualizada e nova ZIP criada com sucesso em:\n%s", dest),
		ArchivePath: dest,
		Digest:      digest,
		HashCreated: created,
	}, nil
}
