package archive_test

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ptu-audit/internal/domain"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/archive"
)

type entrada struct {
	name    string
	content string
	method  uint16
}

func crearZip(t *testing.T, path string, entries ...entrada) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, e := range entries {
		h := &zip.FileHeader{Name: e.name, Method: e.method, Modified: time.Date(2025, 2, 10, 8, 30, 0, 0, time.UTC)}
		h.Comment = "orig:" + e.name
		w, err := zw.CreateHeader(h)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func rawEntries(t *testing.T, path string) map[string][]byte {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	out := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.OpenRaw()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		out[f.Name] = b
	}
	return out
}

func leerEntrada(t *testing.T, path, name string) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			b, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(b)
		}
	}
	t.Fatalf("entrada %s no encontrada", name)
	return ""
}

// ─────────────────────────────────────────────────────────────────────────────
// ExtractDocument
// ─────────────────────────────────────────────────────────────────────────────

func TestExtractDocument_NombreExacto(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "N0001.zip")
	crearZip(t, zipPath,
		entrada{name: "OUTRO.051", content: "otro", method: zip.Deflate},
		entrada{name: "N0001.051", content: "<ptuA500/>", method: zip.Deflate},
	)

	path, entry, err := archive.ExtractDocument(zipPath, filepath.Join(dir, "tmp"))
	require.NoError(t, err)
	assert.Equal(t, "N0001.051", entry)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<ptuA500/>", string(data))
}

func TestExtractDocument_AlternativoSinDistinguirMayusculas(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "N0001.zip")
	crearZip(t, zipPath,
		entrada{name: "leia.txt", content: "x", method: zip.Store},
		entrada{name: "FATURA.051", content: "a", method: zip.Deflate},
	)

	path, entry, err := archive.ExtractDocument(zipPath, dir)
	require.NoError(t, err)
	assert.Equal(t, "FATURA.051", entry)
	assert.Equal(t, filepath.Join(dir, "FATURA.051"), path)
}

func TestExtractDocument_SinDocumento(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "N0001.zip")
	crearZip(t, zipPath, entrada{name: "leia.txt", content: "x", method: zip.Store})

	_, _, err := archive.ExtractDocument(zipPath, dir)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestExtractDocument_RutaFueraDelDestino(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "N0001.zip")
	crearZip(t, zipPath, entrada{name: "../../evil.051", content: "x", method: zip.Store})

	_, _, err := archive.ExtractDocument(zipPath, filepath.Join(dir, "dest"))
	assert.ErrorIs(t, err, archive.ErrUnsafeEntry)
	_, statErr := os.Stat(filepath.Join(dir, "..", "evil.051"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtractDocument_ZipCorrupto(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "N0001.zip")
	require.NoError(t, os.WriteFile(zipPath, []byte("no es zip"), 0o644))

	_, _, err := archive.ExtractDocument(zipPath, dir)
	assert.Error(t, err)
}

func TestNombres(t *testing.T) {
	assert.Equal(t, "N0001.051", archive.DocumentName("/a/b/N0001.zip"))
	assert.Equal(t, "N0001.zip", archive.ArchiveName("/a/N0001.051"))
}

// ─────────────────────────────────────────────────────────────────────────────
// Repackager
// ─────────────────────────────────────────────────────────────────────────────

func TestRepackage_ReemplazaSoloLaEntrada(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "Distribuição", "Ana", "N0001.zip")
	crearZip(t, original,
		entrada{name: "anexo.pdf", content: string(bytes.Repeat([]byte("pdf"), 200)), method: zip.Deflate},
		entrada{name: "N0001.051", content: "<viejo/>", method: zip.Deflate},
		entrada{name: "leia.txt", content: "sin comprimir", method: zip.Store},
	)
	replacement := filepath.Join(dir, "N0001.051")
	require.NoError(t, os.WriteFile(replacement, []byte("<nuevo/>"), 0o644))

	dest, err := archive.NewRepackager(zerolog.Nop()).Repackage(original, replacement, "N0001.051", filepath.Join(dir, "Validação CMB"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Validação CMB", "N0001.zip"), dest)

	before := rawEntries(t, original)
	after := rawEntries(t, dest)
	require.Len(t, after, 3)
	assert.Equal(t, before["anexo.pdf"], after["anexo.pdf"], "bytes comprimidos idénticos")
	assert.Equal(t, before["leia.txt"], after["leia.txt"])
	assert.Equal(t, "<nuevo/>", leerEntrada(t, dest, "N0001.051"))

	zr, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer zr.Close()
	for _, f := range zr.File {
		switch f.Name {
		case "leia.txt":
			assert.Equal(t, zip.Store, f.Method)
			assert.Equal(t, "orig:leia.txt", f.Comment)
		case "N0001.051":
			assert.Equal(t, zip.Deflate, f.Method)
		}
	}
}

func TestRepackage_ReemplazaDestinoExistente(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "src", "N0001.zip")
	crearZip(t, original, entrada{name: "N0001.051", content: "a", method: zip.Deflate})
	replacement := filepath.Join(dir, "N0001.051")
	require.NoError(t, os.WriteFile(replacement, []byte("b"), 0o644))

	destDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(destDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(destDir, "N0001.zip"), []byte("viejo"), 0o644))

	dest, err := archive.NewRepackager(zerolog.Nop()).Repackage(original, replacement, "N0001.051", destDir)
	require.NoError(t, err)
	assert.Equal(t, "b", leerEntrada(t, dest, "N0001.051"))
}

func TestRepackage_OrigenCorruptoNoDejaParcial(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "N0001.zip")
	require.NoError(t, os.WriteFile(original, []byte("roto"), 0o644))
	replacement := filepath.Join(dir, "N0001.051")
	require.NoError(t, os.WriteFile(replacement, []byte("b"), 0o644))

	destDir := filepath.Join(dir, "out")
	_, err := archive.NewRepackager(zerolog.Nop()).Repackage(original, replacement, "N0001.051", destDir)
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(destDir, "N0001.zip"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRepackage_ArchivosFaltantes(t *testing.T) {
	dir := t.TempDir()
	r := archive.NewRepackager(zerolog.Nop())
	_, err := r.Repackage(filepath.Join(dir, "no.zip"), filepath.Join(dir, "x.051"), "x.051", dir)
	assert.Error(t, err)
}
