// Package workspace administra la estructura de carpetas de una importación de facturas:
// respaldo, distribución por auditor, corrección de XML y validación CMB.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Carpetas fijas bajo la raíz de la importación.
const (
	BackupFolder       = "Backup"
	CorrectionFolder   = "Correção XML"
	DistributionFolder = "Distribuição"
	ValidationFolder   = "Validação CMB"
	TempFolder         = ".TempExtracaoXMLImport"
)

// Layout rutas derivadas de la carpeta raíz de una importación.
type Layout struct {
	Root string
}

// NewLayout crea el layout con la raíz en forma absoluta.
func NewLayout(root string) Layout {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return Layout{Root: root}
}

// LayoutFromDocument deduce la raíz a partir de <raíz>/Correção XML/<auditor>/<fatura>.051.
// Devuelve además el nombre de la carpeta del auditor.
func LayoutFromDocument(documentPath string) (Layout, string) {
	auditorDir := filepath.Dir(documentPath)
	return NewLayout(filepath.Join(auditorDir, "..", "..")), filepath.Base(auditorDir)
}

func (l Layout) BackupDir() string       { return filepath.Join(l.Root, BackupFolder) }
func (l Layout) CorrectionDir() string   { return filepath.Join(l.Root, CorrectionFolder) }
func (l Layout) DistributionDir() string { return filepath.Join(l.Root, DistributionFolder) }
func (l Layout) ValidationDir() string   { return filepath.Join(l.Root, ValidationFolder) }
func (l Layout) TempDir() string         { return filepath.Join(l.Root, TempFolder) }

// AuditorDistributionDir Distribuição/<auditor seguro>.
func (l Layout) AuditorDistributionDir(auditor string) string {
	return filepath.Join(l.DistributionDir(), SafeAuditorName(auditor))
}

// AuditorCorrectionDir Correção XML/<auditor seguro>.
func (l Layout) AuditorCorrectionDir(auditor string) string {
	return filepath.Join(l.CorrectionDir(), SafeAuditorName(auditor))
}

// SafeAuditorName nombre de carpeta del auditor: espacios a "_" y sin puntos.
func SafeAuditorName(name string) string {
	return strings.ReplaceAll(strings.ReplaceAll(name, " ", "_"), ".", "")
}

// EnsureDir crea la carpeta (y sus padres) si no existe.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("workspace: crear carpeta %s: %w", path, err)
	}
	return nil
}

// ListArchives rutas de los *.zip de la carpeta (sin recursión), ordenadas por nombre.
func ListArchives(folder string) ([]string, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("workspace: carpeta %s: %w", folder, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace: %s no es una carpeta", folder)
	}
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("workspace: listar %s: %w", folder, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".zip") {
			continue
		}
		out = append(out, filepath.Join(folder, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}
