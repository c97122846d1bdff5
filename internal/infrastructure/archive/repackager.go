package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Repackager genera un ZIP nuevo con el .051 corregido conservando las demás entradas.
type Repackager struct {
	log zerolog.Logger
}

// NewRepackager crea el reempaquetador.
func NewRepackager(log zerolog.Logger) *Repackager {
	return &Repackager{log: log}
}

// Repackage escribe destDir/<nombre del ZIP original>. Las demás entradas se copian en crudo
// (bytes comprimidos, método, fechas, comentarios y extras intactos); replacementPath se agrega
// con Deflate bajo entryName. Ante cualquier error el ZIP parcial se elimina.
func (r *Repackager) Repackage(originalZip, replacementPath, entryName, destDir string) (string, error) {
	if _, err := os.Stat(originalZip); err != nil {
		return "", fmt.Errorf("archive: ZIP original no encontrado: %w", err)
	}
	if _, err := os.Stat(replacementPath); err != nil {
		return "", fmt.Errorf("archive: XML modificado no encontrado: %w", err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("archive: crear %s: %w", destDir, err)
	}

	dest := filepath.Join(destDir, filepath.Base(originalZip))
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return "", fmt.Errorf("archive: eliminar ZIP existente: %w", err)
		}
		r.log.Info().Str("zip", filepath.Base(dest)).Msg("ZIP de destino existente reemplazado")
	}

	if err := r.write(originalZip, replacementPath, entryName, dest); err != nil {
		os.Remove(dest)
		return "", err
	}
	r.log.Info().Str("zip", dest).Str("entrada", entryName).Msg("ZIP recreado")
	return dest, nil
}

func (r *Repackager) write(originalZip, replacementPath, entryName, dest string) error {
	zr, err := zip.OpenReader(originalZip)
	if err != nil {
		return fmt.Errorf("archive: abrir %s: %w", filepath.Base(originalZip), err)
	}
	defer zr.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("archive: crear %s: %w", dest, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	if zr.Comment != "" {
		if err := zw.SetComment(zr.Comment); err != nil {
			return fmt.Errorf("archive: comentario: %w", err)
		}
	}

	var template *zip.FileHeader
	for _, f := range zr.File {
		if f.Name == entryName {
			h := f.FileHeader
			template = &h
			continue
		}
		if err := copyRaw(zw, f); err != nil {
			return err
		}
	}

	if err := addReplacement(zw, replacementPath, entryName, template); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("archive: cerrar ZIP: %w", err)
	}
	return out.Close()
}

func copyRaw(zw *zip.Writer, f *zip.File) error {
	h := f.FileHeader
	w, err := zw.CreateRaw(&h)
	if err != nil {
		return fmt.Errorf("archive: copiar entrada %s: %w", f.Name, err)
	}
	raw, err := f.OpenRaw()
	if err != nil {
		return fmt.Errorf("archive: leer entrada %s: %w", f.Name, err)
	}
	if _, err := io.Copy(w, raw); err != nil {
		return fmt.Errorf("archive: copiar entrada %s: %w", f.Name, err)
	}
	return nil
}

// addReplacement agrega el XML corregido con el comentario de la entrada reemplazada.
func addReplacement(zw *zip.Writer, path, entryName string, template *zip.FileHeader) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	h, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("archive: cabecera: %w", err)
	}
	h.Name = entryName
	h.Method = zip.Deflate
	if template != nil {
		h.Comment = template.Comment
	}

	w, err := zw.CreateHeader(h)
	if err != nil {
		return fmt.Errorf("archive: crear entrada %s: %w", entryName, err)
	}
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("archive: abrir %s: %w", path, err)
	}
	defer in.Close()
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("archive: escribir entrada %s: %w", entryName, err)
	}
	return nil
}
