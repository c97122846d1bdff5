// Package archive lee y reempaqueta los ZIP de facturas PTU (un .051 por archivo).
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhoicas/ptu-audit/internal/domain"
	"github.com/jhoicas/ptu-audit/internal/domain/ptu"
)

// ErrUnsafeEntry entrada del ZIP cuya ruta sale del directorio de destino.
var ErrUnsafeEntry = errors.New("archive: entrada con ruta fuera del destino")

// DocumentName nombre esperado del .051 para un ZIP (N0001.zip -> N0001.051).
func DocumentName(zipPath string) string {
	base := filepath.Base(zipPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ptu.DocumentExtension
}

// ArchiveName nombre del ZIP correspondiente a un .051 (N0001.051 -> N0001.zip).
func ArchiveName(documentPath string) string {
	base := filepath.Base(documentPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".zip"
}

// findDocument entrada exacta <base>.051; si no existe, la primera que termine en .051.
func findDocument(r *zip.Reader, expected string) *zip.File {
	for _, f := range r.File {
		if f.Name == expected {
			return f
		}
	}
	for _, f := range r.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ptu.DocumentExtension) {
			return f
		}
	}
	return nil
}

// ExtractDocument extrae el .051 del ZIP en destDir y devuelve la ruta del archivo y el nombre de la entrada.
func ExtractDocument(zipPath, destDir string) (path, entryName string, err error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", "", fmt.Errorf("archive: abrir %s: %w", filepath.Base(zipPath), err)
	}
	defer zr.Close()

	f := findDocument(&zr.Reader, DocumentName(zipPath))
	if f == nil {
		return "", "", fmt.Errorf("archive: %s: %w", filepath.Base(zipPath), domain.ErrDocumentNotFound)
	}
	target, err := safeJoin(destDir, f.Name)
	if err != nil {
		return "", "", err
	}
	if err := extractFile(f, target); err != nil {
		return "", "", err
	}
	return target, f.Name, nil
}

// safeJoin une destDir con el nombre de la entrada rechazando rutas absolutas o con "..".
func safeJoin(destDir, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeEntry, name)
	}
	target := filepath.Join(destDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(destDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeEntry, name)
	}
	return target, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("archive: crear carpeta: %w", err)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("archive: abrir entrada %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("archive: crear %s: %w", target, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		os.Remove(target)
		return fmt.Errorf("archive: extraer %s: %w", f.Name, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(target)
		return fmt.Errorf("archive: cerrar %s: %w", target, err)
	}
	return nil
}
