package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Backup copia src dentro de backupDir conservando la fecha de modificación.
// Si la copia ya existe no hace nada y devuelve copied=false.
func Backup(src, backupDir string) (copied bool, err error) {
	info, err := os.Stat(src)
	if err != nil || info.IsDir() {
		return false, fmt.Errorf("workspace: archivo original no encontrado para backup: %s", src)
	}
	dest := filepath.Join(backupDir, filepath.Base(src))
	if _, err := os.Stat(dest); err == nil {
		return false, nil
	}
	if err := copyFile(src, dest, info); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveIfExists elimina un archivo regular; un archivo inexistente no es error.
func RemoveIfExists(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("workspace: eliminar %s: %w", filepath.Base(path), err)
}

// moveFile intenta rename y, entre volúmenes distintos, copia y elimina el origen.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("workspace: mover %s: %w", filepath.Base(src), err)
	}
	if err := copyFile(src, dest, info); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("workspace: eliminar origen %s: %w", filepath.Base(src), err)
	}
	return nil
}

func copyFile(src, dest string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("workspace: abrir %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("workspace: crear %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("workspace: copiar %s: %w", filepath.Base(src), err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return fmt.Errorf("workspace: cerrar %s: %w", dest, err)
	}
	return os.Chtimes(dest, info.ModTime(), info.ModTime())
}
