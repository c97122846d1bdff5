package audit_test

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/ptu-audit/internal/application/audit"
	"github.com/jhoicas/ptu-audit/internal/domain"
	"github.com/jhoicas/ptu-audit/internal/domain/entity"
	"github.com/jhoicas/ptu-audit/internal/domain/ptu"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/pdf"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/ptuxml"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/reference"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/report"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/workspace"
)

// ─── Fixtures ────────────────────────────────────────────────────────────────

const plantilla = `<?xml version="1.0" encoding="ISO-8859-1"?>
<ptu:ptuA500 xmlns:ptu="http://ptu.unimed.coop.br/schemas/V3_0">
  <ptu:cabecalho>
    <ptu:unimed><ptu:cd_Uni_Destino>63</ptu:cd_Uni_Destino></ptu:unimed>
    <ptu:GuiasCobrancaUtilizacao>
      <ptu:Cobranca>
        <ptu:nr_Competencia>2502</ptu:nr_Competencia>
        <ptu:documento1>
          <ptu:nr_Documento>%s</ptu:nr_Documento>
          <ptu:dt_EmissaoDoc>20250210</ptu:dt_EmissaoDoc>
          <ptu:dt_VencimentoDoc>20250310</ptu:dt_VencimentoDoc>
          <ptu:vl_TotalDoc>%s</ptu:vl_TotalDoc>
        </ptu:documento1>
      </ptu:Cobranca>
    </ptu:GuiasCobrancaUtilizacao>
  </ptu:cabecalho>
  <ptu:guiaInternacao>
    <ptu:dadosBeneficiario><ptu:id_Benef>0063000012345</ptu:id_Benef><ptu:nm_Benef>JOSÉ</ptu:nm_Benef></ptu:dadosBeneficiario>
    <ptu:dadosInternacao><ptu:rg_Internacao>1</ptu:rg_Internacao></ptu:dadosInternacao>
    <ptu:dadosHospital><ptu:CNES>%s</ptu:CNES></ptu:dadosHospital>
    <ptu:dadosGuia>
      <ptu:nr_Guias><ptu:nr_GuiaTissPrestador>G-%s</ptu:nr_GuiaTissPrestador></ptu:nr_Guias>
      <ptu:procedimentosExecutados>
        <ptu:procedimentos><ptu:tp_Tabela>18</ptu:tp_Tabela><ptu:cd_Servico>40301010</ptu:cd_Servico></ptu:procedimentos>
        <ptu:valores><ptu:vl_ServCobrado>%s</ptu:vl_ServCobrado></ptu:valores>
      </ptu:procedimentosExecutados>
    </ptu:dadosGuia>
  </ptu:guiaInternacao>
</ptu:ptuA500>
`

func factura(numero, valor, cnes, valorGuia string) string {
	return fmt.Sprintf(plantilla, numero, valor, cnes, numero, valorGuia)
}

func zipCon(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		data, err := charmap.ISO8859_1.NewEncoder().String(content)
		require.NoError(t, err)
		_, err = w.Write([]byte(data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func leerEntrada(t *testing.T, zipPath, name string) []byte {
	t.Helper()
	zr, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			return data
		}
	}
	t.Fatalf("entrada %s no encontrada en %s", name, zipPath)
	return nil
}

func existe(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// carpetaLote crea N1 (con CNES vacío y guía de 30.000), N2 y un ZIP sin .051.
func carpetaLote(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	zipCon(t, filepath.Join(dir, "N1.zip"), map[string]string{
		"N1.051":    factura("N1", "1000,00", "", "30000,00"),
		"leiame.txt": "anexo",
	})
	zipCon(t, filepath.Join(dir, "N2.zip"), map[string]string{"N2.051": factura("N2", "500,00", "1234567", "100,00")})
	zipCon(t, filepath.Join(dir, "ruim.zip"), map[string]string{"outro.txt": "x"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notas.txt"), []byte("x"), 0o644))
	return dir
}

type ledgerFake struct {
	runs     []*entity.AuditRun
	invoices []*entity.Invoice
	plans    []*entity.DistributionPlan
	seen     bool
	saveErr  error
}

func (l *ledgerFake) SaveRun(_ context.Context, run *entity.AuditRun, invoices []*entity.Invoice) error {
	if l.saveErr != nil {
		return l.saveErr
	}
	l.runs = append(l.runs, run)
	l.invoices = invoices
	return nil
}

func (l *ledgerFake) SavePlan(_ context.Context, _ string, plan *entity.DistributionPlan) error {
	l.plans = append(l.plans, plan)
	return nil
}

func (l *ledgerFake) FingerprintSeen(_ context.Context, _, _ string) (bool, error) {
	return l.seen, nil
}

func nuevoServicio(ledger *ledgerFake) *audit.Service {
	log := zerolog.Nop()
	ref := reference.Empty()
	deps := audit.Dependencies{
		Engine:     ptuxml.NewRuleEngine(ref, log),
		Classifier: ptuxml.NewClassifier(ref, ptuxml.DefaultGuideThreshold, log),
		Reports:    report.NewWriter(log),
		Sheets:     pdf.NewAssignmentSheetGenerator(),
	}
	if ledger != nil {
		deps.Ledger = ledger
	}
	return audit.NewService(deps, log)
}

func faseDe(t *testing.T, err error) string {
	t.Helper()
	var pe *audit.PhaseError
	require.True(t, errors.As(err, &pe), "se esperaba PhaseError: %v", err)
	return pe.Phase
}

// ─── Import ──────────────────────────────────────────────────────────────────

func TestImport_ProcesaLote(t *testing.T) {
	dir := carpetaLote(t)
	ledger := &ledgerFake{}
	svc := nuevoServicio(ledger)

	sum, err := svc.Import(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.ArchivesFound)
	assert.Equal(t, 2, sum.Imported)
	require.Len(t, sum.Failures, 1)
	assert.Contains(t, sum.Failures[0], "ruim.zip")
	assert.Equal(t, 1, sum.Mutations.CNES)
	assert.Equal(t, 1, sum.Guides)
	assert.True(t, sum.Persisted)
	assert.NotEmpty(t, sum.RunID)

	for _, name := range []string{"N1.zip", "N2.zip", "ruim.zip"} {
		assert.True(t, existe(filepath.Join(dir, workspace.BackupFolder, name)), name)
	}
	assert.True(t, existe(filepath.Join(dir, workspace.CorrectionFolder)))
	assert.False(t, existe(filepath.Join(dir, workspace.TempFolder)), "la carpeta temporal se elimina")

	session := svc.Session()
	require.Len(t, session.Invoices, 2)
	n1 := session.Invoices[0]
	assert.Equal(t, "N1", n1.InvoiceNumber)
	assert.Equal(t, "063", n1.DestinationBranchCode)
	assert.Equal(t, "N1.zip", n1.SourceArchiveName)
	assert.Equal(t, "N1.051", n1.SourceEntryName)
	assert.Len(t, n1.Fingerprint, 64)
	require.Len(t, n1.RelevantGuides, 1)
	assert.Equal(t, "G-N1", n1.RelevantGuides[0].GuideNumber)
	assert.Empty(t, session.Invoices[1].RelevantGuides)

	require.Len(t, ledger.runs, 1)
	assert.Equal(t, sum.RunID, ledger.runs[0].ID)
	assert.Equal(t, 1, ledger.runs[0].Failures)
	assert.Len(t, ledger.invoices, 2)
}

func TestImport_ZipOriginalSinCambios(t *testing.T) {
	dir := carpetaLote(t)
	before := leerEntrada(t, filepath.Join(dir, "N1.zip"), "N1.051")

	_, err := nuevoServicio(nil).Import(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, before, leerEntrada(t, filepath.Join(dir, "N1.zip"), "N1.051"))
}

func TestImport_DuplicadoEnBitacora(t *testing.T) {
	dir := carpetaLote(t)
	sum, err := nuevoServicio(&ledgerFake{seen: true}).Import(context.Background(), dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"N1.zip", "N2.zip"}, sum.Duplicates)
}

func TestImport_FallaDeBitacoraNoDetiene(t *testing.T) {
	dir := carpetaLote(t)
	svc := nuevoServicio(&ledgerFake{saveErr: errors.New("sin conexión")})
	sum, err := svc.Import(context.Background(), dir)
	require.NoError(t, err)
	assert.False(t, sum.Persisted)
	assert.Len(t, svc.Session().Invoices, 2)
}

func TestImport_CarpetaSinZip(t *testing.T) {
	svc := nuevoServicio(nil)
	sum, err := svc.Import(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, sum.ArchivesFound)
	assert.NotEmpty(t, svc.Session().Folder)
}

func TestImport_CarpetaInexistente(t *testing.T) {
	_, err := nuevoServicio(nil).Import(context.Background(), filepath.Join(t.TempDir(), "nada"))
	require.Error(t, err)
	assert.Equal(t, audit.PhaseImport, faseDe(t, err))
}

func TestImport_ContextoCanceladoNoReemplazaSesion(t *testing.T) {
	dir := carpetaLote(t)
	svc := nuevoServicio(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Import(ctx, dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, svc.Session().Folder)
	assert.False(t, existe(filepath.Join(dir, workspace.TempFolder)))
}

// ─── Distribute ──────────────────────────────────────────────────────────────

func TestDistribute_SinSesion(t *testing.T) {
	_, err := nuevoServicio(nil).Distribute(context.Background(), []string{"Ana"})
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestDistribute_SinAuditores(t *testing.T) {
	svc := nuevoServicio(nil)
	_, err := svc.Import(context.Background(), carpetaLote(t))
	require.NoError(t, err)

	_, err = svc.Distribute(context.Background(), []string{" ", ""})
	assert.ErrorIs(t, err, domain.ErrEmptyDistribution)
}

func TestDistribute_MueveZipsYGeneraReportes(t *testing.T) {
	dir := carpetaLote(t)
	ledger := &ledgerFake{}
	svc := nuevoServicio(ledger)
	_, err := svc.Import(context.Background(), dir)
	require.NoError(t, err)

	sum, err := svc.Distribute(context.Background(), []string{"Ana M. Souza", "Bia"})
	require.NoError(t, err)

	assert.True(t, sum.Organize.OK())
	assert.Empty(t, sum.Warnings)
	assert.Equal(t, filepath.Join(dir, workspace.DistributionFolder, report.DistributionFileName), sum.ReportPath)
	assert.True(t, existe(sum.ReportPath))
	require.Len(t, sum.Sheets, 2)
	for _, p := range sum.Sheets {
		assert.True(t, existe(p), p)
	}

	ana := sum.Plan.Get("Ana M. Souza")
	require.NotNil(t, ana)
	require.Len(t, ana.Invoices, 1)
	assert.Equal(t, "N1", ana.Invoices[0].InvoiceNumber)
	assert.True(t, existe(filepath.Join(dir, workspace.DistributionFolder, "Ana_M_Souza", "N1.zip")))
	assert.True(t, existe(filepath.Join(dir, workspace.DistributionFolder, "Bia", "N2.zip")))
	assert.False(t, existe(filepath.Join(dir, "N1.zip")))
	assert.True(t, existe(filepath.Join(dir, "ruim.zip")), "los ZIP descartados quedan en la carpeta")

	assert.Len(t, ledger.plans, 1)
	assert.True(t, sum.Persisted)
	assert.Same(t, sum.Plan, svc.Session().Plan)
}

// ─── PrepareCorrection ───────────────────────────────────────────────────────

func distribuido(t *testing.T) (*audit.Service, string) {
	t.Helper()
	dir := carpetaLote(t)
	svc := nuevoServicio(nil)
	_, err := svc.Import(context.Background(), dir)
	require.NoError(t, err)
	_, err = svc.Distribute(context.Background(), []string{"Ana", "Bia"})
	require.NoError(t, err)
	return svc, dir
}

func TestPrepareCorrection_SinSesion(t *testing.T) {
	_, err := nuevoServicio(nil).PrepareCorrection(context.Background(), "Ana")
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestPrepareCorrection_AuditorSinPlan(t *testing.T) {
	svc, _ := distribuido(t)
	_, err := svc.PrepareCorrection(context.Background(), "Carla")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, audit.PhaseCorrection, faseDe(t, err))
}

func TestPrepareCorrection_ExtraeYGeneraCSV(t *testing.T) {
	svc, dir := distribuido(t)

	sum, err := svc.PrepareCorrection(context.Background(), "Ana")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Extracted)
	assert.Empty(t, sum.Failures)
	assert.Equal(t, 1, sum.Guides)
	assert.Equal(t, filepath.Join(dir, workspace.CorrectionFolder, "Ana", report.GuidesFileName), sum.CSVPath)
	assert.True(t, existe(filepath.Join(dir, workspace.CorrectionFolder, "Ana", "N1.051")))

	sum, err = svc.PrepareCorrection(context.Background(), "Bia")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Extracted)
	assert.Zero(t, sum.Guides)
	assert.Empty(t, sum.CSVPath)
}

// ─── SubstituteHash ──────────────────────────────────────────────────────────

func TestSubstituteHash_GeneraZipEnValidacion(t *testing.T) {
	svc, dir := distribuido(t)
	_, err := svc.PrepareCorrection(context.Background(), "Ana")
	require.NoError(t, err)
	xmlPath := filepath.Join(dir, workspace.CorrectionFolder, "Ana", "N1.051")

	res, err := svc.SubstituteHash(context.Background(), xmlPath)
	require.NoError(t, err)
	require.True(t, res.OK, res.Message)

	dest := filepath.Join(dir, workspace.ValidationFolder, "N1.zip")
	assert.Equal(t, dest, res.ArchivePath)
	assert.Equal(t, "Fatura atualizada e nova ZIP criada com sucesso em:\n"+dest, res.Message)
	assert.True(t, res.HashCreated)
	assert.False(t, existe(xmlPath), "el XML de corrección se elimina")

	data := leerEntrada(t, dest, "N1.051")
	assert.Contains(t, string(data), "<ptu:hash>"+res.Digest+"</ptu:hash>")
	assert.True(t, strings.Index(string(data), "<ptu:hash>") < strings.Index(string(data), "<ptu:cabecalho>"))
	digest, err := ptu.ContentDigest(data)
	require.NoError(t, err)
	assert.Equal(t, res.Digest, digest, "el hash grabado coincide con el recalculado")
	assert.Contains(t, string(data), "<ptu:CNES>"+ptu.CNESPlaceholder+"</ptu:CNES>")

	assert.Equal(t, []byte("anexo"), leerEntrada(t, dest, "leiame.txt"))
}

func TestSubstituteHash_SinZipOriginal(t *testing.T) {
	dir := t.TempDir()
	xmlDir := filepath.Join(dir, workspace.CorrectionFolder, "Ana")
	require.NoError(t, os.MkdirAll(xmlDir, 0o755))
	xmlPath := filepath.Join(xmlDir, "N9.051")
	require.NoError(t, os.WriteFile(xmlPath, []byte(factura("N9", "1,00", "1", "1,00")), 0o644))

	res, err := nuevoServicio(nil).SubstituteHash(context.Background(), xmlPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, res.OK)
	assert.Contains(t, res.Message, "Não foi possível localizar o arquivo ZIP original correspondente a 'N9.051'")
	assert.True(t, existe(xmlPath), "sin ZIP el XML no se toca")
}

func TestSubstituteHash_RutaVacia(t *testing.T) {
	res, err := nuevoServicio(nil).SubstituteHash(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, "Nenhum arquivo fornecido.", res.Message)
	assert.Equal(t, audit.PhaseHash, faseDe(t, err))
}
