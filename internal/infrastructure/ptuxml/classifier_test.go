package ptuxml_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ptu-audit/internal/domain"
	"github.com/jhoicas/ptu-audit/internal/domain/entity"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/ptuxml"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/reference"
)

const facturaInternacao = `<?xml version="1.0" encoding="ISO-8859-1"?>
<ptu:ptuA500 xmlns:ptu="http://ptu.unimed.coop.br/schemas/V3_0">
  <ptu:cabecalho>
    <ptu:unimed>
      <ptu:cd_Uni_Destino>63</ptu:cd_Uni_Destino>
    </ptu:unimed>
    <ptu:GuiasCobrancaUtilizacao>
      <ptu:Cobranca>
        <ptu:nr_Competencia>2502</ptu:nr_Competencia>
        <ptu:documento1>
          <ptu:nr_Documento> N0009 </ptu:nr_Documento>
          <ptu:dt_EmissaoDoc>20250210</ptu:dt_EmissaoDoc>
          <ptu:dt_VencimentoDoc>20250310</ptu:dt_VencimentoDoc>
          <ptu:vl_TotalDoc>66700,00</ptu:vl_TotalDoc>
        </ptu:documento1>
      </ptu:Cobranca>
    </ptu:GuiasCobrancaUtilizacao>
  </ptu:cabecalho>
  <ptu:guiaInternacao>
    <ptu:dadosBeneficiario>
      <ptu:id_Benef>0063000012345</ptu:id_Benef>
      <ptu:nm_Benef>MARIA JOSÉ</ptu:nm_Benef>
    </ptu:dadosBeneficiario>
    <ptu:dadosInternacao>
      <ptu:rg_Internacao>1</ptu:rg_Internacao>
    </ptu:dadosInternacao>
    <ptu:dadosGuia>
      <ptu:nr_Guias>
        <ptu:nr_GuiaTissPrestador>G-001</ptu:nr_GuiaTissPrestador>
      </ptu:nr_Guias>
      <ptu:procedimentosExecutados>
        <ptu:procedimentos><ptu:tp_Tabela>00</ptu:tp_Tabela><ptu:cd_Servico>10101012</ptu:cd_Servico></ptu:procedimentos>
        <ptu:valores><ptu:vl_ServCobrado>20000,00</ptu:vl_ServCobrado></ptu:valores>
      </ptu:procedimentosExecutados>
      <ptu:procedimentosExecutados>
        <ptu:procedimentos><ptu:tp_Tabela>18</ptu:tp_Tabela><ptu:cd_Servico>40301010</ptu:cd_Servico></ptu:procedimentos>
        <ptu:valores><ptu:vl_ServCobrado>10000,00</ptu:vl_ServCobrado></ptu:valores>
        <ptu:taxas><ptu:tx_AdmServico>1000,00</ptu:tx_AdmServico></ptu:taxas>
      </ptu:procedimentosExecutados>
      <ptu:procedimentosExecutados>
        <ptu:procedimentos><ptu:tp_Tabela>22</ptu:tp_Tabela><ptu:cd_Servico>90000001</ptu:cd_Servico></ptu:procedimentos>
        <ptu:valores><ptu:vl_ServCobrado>5000,00</ptu:vl_ServCobrado></ptu:valores>
      </ptu:procedimentosExecutados>
      <ptu:procedimentosExecutados>
        <ptu:procedimentos><ptu:tp_Tabela>98</ptu:tp_Tabela><ptu:cd_Servico>70000001</ptu:cd_Servico></ptu:procedimentos>
        <ptu:valores><ptu:vl_ServCobrado>700,00</ptu:vl_ServCobrado></ptu:valores>
      </ptu:procedimentosExecutados>
    </ptu:dadosGuia>
  </ptu:guiaInternacao>
  <ptu:guiaInternacao>
    <ptu:dadosInternacao>
      <ptu:rg_Internacao>7</ptu:rg_Internacao>
    </ptu:dadosInternacao>
    <ptu:dadosGuia>
      <ptu:procedimentosExecutados>
        <ptu:procedimentos><ptu:tp_Tabela>19</ptu:tp_Tabela></ptu:procedimentos>
        <ptu:valores>
          <ptu:vl_ServCobrado>abc</ptu:vl_ServCobrado>
          <ptu:vl_CO_Cobrado>30000,00</ptu:vl_CO_Cobrado>
        </ptu:valores>
        <ptu:taxas><ptu:tx_AdmCO>0,50</ptu:tx_AdmCO></ptu:taxas>
      </ptu:procedimentosExecutados>
    </ptu:dadosGuia>
  </ptu:guiaInternacao>
</ptu:ptuA500>
`

func conIgnorados(codes ...string) *reference.Dataset {
	ignore := make(map[string]bool, len(codes))
	for _, c := range codes {
		ignore[c] = true
	}
	return reference.NewDataset(reference.Data{
		Ignore:   ignore,
		Branches: map[string]string{"063": "UNIMED CAMPO GRANDE"},
	})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestClassifier_Cabecera(t *testing.T) {
	c := ptuxml.NewClassifier(conIgnorados(), decimal.Zero, zerolog.Nop())

	inv, err := c.ExtractHeader(latin1(t, facturaInternacao))
	require.NoError(t, err)

	assert.Equal(t, "N0009", inv.InvoiceNumber)
	assert.Equal(t, "2502", inv.Competence)
	assert.Equal(t, "63", inv.DestinationBranchCode)
	assert.Equal(t, "20250210", inv.IssueDate)
	assert.Equal(t, "20250310", inv.DueDate)
	assert.Equal(t, "66700,00", inv.TotalValueText)
	assert.True(t, inv.TotalValue.Equal(dec("66700")))
}

func TestClassifier_CabeceraVaciaEsIlegible(t *testing.T) {
	c := ptuxml.NewClassifier(nil, decimal.Zero, zerolog.Nop())
	_, err := c.ExtractHeader([]byte(`<ptu:ptuA500 xmlns:ptu="http://ptu.unimed.coop.br/schemas/V3_0"><ptu:outro/></ptu:ptuA500>`))
	assert.ErrorIs(t, err, domain.ErrUnreadableDocument)
}

func TestClassifier_XMLInvalidoEsError(t *testing.T) {
	c := ptuxml.NewClassifier(nil, decimal.Zero, zerolog.Nop())
	_, err := c.ExtractHeader([]byte(`<ptu:ptuA500 xmlns:ptu="http://ptu.unimed.coop.br/schemas/V3_0"><ptu:a>`))
	assert.Error(t, err)
}

func TestClassifier_ResolveBranch(t *testing.T) {
	c := ptuxml.NewClassifier(conIgnorados(), decimal.Zero, zerolog.Nop())

	inv := &entity.Invoice{DestinationBranchCode: "63"}
	c.ResolveBranch(inv)
	assert.Equal(t, "063", inv.DestinationBranchCode)
	assert.Equal(t, "UNIMED CAMPO GRANDE", inv.DestinationBranchName)

	inv = &entity.Invoice{DestinationBranchCode: "A1"}
	c.ResolveBranch(inv)
	assert.Equal(t, "A1", inv.DestinationBranchCode)
	assert.Equal(t, "CÓDIGO A1 NÃO MAPEADO", inv.DestinationBranchName)

	inv = &entity.Invoice{DestinationBranchCode: "  "}
	c.ResolveBranch(inv)
	assert.Equal(t, "", inv.DestinationBranchCode)
	assert.Equal(t, "NÃO ENCONTRADO NO XML", inv.DestinationBranchName)

	sinMapa := ptuxml.NewClassifier(reference.Empty(), decimal.Zero, zerolog.Nop())
	inv = &entity.Invoice{DestinationBranchCode: "63"}
	sinMapa.ResolveBranch(inv)
	assert.Equal(t, "MAPA UNIMEDS NÃO CARREGADO (Cód: 063)", inv.DestinationBranchName)
}

func TestClassifier_ListaIgnoradosExcluyeDelFiltro(t *testing.T) {
	c := ptuxml.NewClassifier(conIgnorados("10101012"), dec("1"), zerolog.Nop())

	guides, err := c.RelevantGuides(latin1(t, facturaInternacao), "N0009")
	require.NoError(t, err)
	require.Len(t, guides, 2)

	g := guides[0]
	assert.Equal(t, "N0009", g.ParentInvoiceNumber)
	assert.Equal(t, "G-001", g.GuideNumber)
	assert.Equal(t, "0063000012345", g.BeneficiaryCode)
	assert.Equal(t, "MARIA JOSÉ", g.BeneficiaryName)
	assert.Equal(t, "Hospitalar", g.AdmissionType)
	assert.True(t, g.FilterValue.Equal(dec("11000")), "tabla 00 ignorada, 22 y 98 fuera del filtro: %s", g.FilterValue)
	assert.True(t, g.RealTotalValue.Equal(dec("36700")), "el total real suma todo: %s", g.RealTotalValue)

	g = guides[1]
	assert.Equal(t, "GuiaDesconhecida_2", g.GuideNumber)
	assert.Equal(t, "Cod:7", g.AdmissionType)
	assert.True(t, g.FilterValue.Equal(dec("30000.5")), "valor no numérico cuenta como 0: %s", g.FilterValue)
}

func TestClassifier_UmbralDescartaGuias(t *testing.T) {
	data := latin1(t, facturaInternacao)

	c := ptuxml.NewClassifier(conIgnorados("10101012"), ptuxml.DefaultGuideThreshold, zerolog.Nop())
	assert.True(t, c.Threshold().Equal(dec("25000")))
	guides, err := c.RelevantGuides(data, "N0009")
	require.NoError(t, err)
	require.Len(t, guides, 1)
	assert.Equal(t, "GuiaDesconhecida_2", guides[0].GuideNumber)

	sinIgnorados := ptuxml.NewClassifier(conIgnorados(), ptuxml.DefaultGuideThreshold, zerolog.Nop())
	guides, err = sinIgnorados.RelevantGuides(data, "N0009")
	require.NoError(t, err)
	require.Len(t, guides, 2)
	assert.True(t, guides[0].FilterValue.Equal(dec("31000")))
}

func TestClassifier_UmbralCeroConservaTodasLasGuias(t *testing.T) {
	c := ptuxml.NewClassifier(conIgnorados("10101012"), decimal.Zero, zerolog.Nop())
	assert.True(t, c.Threshold().IsZero(), "cero no se sustituye por el umbral por defecto")

	guides, err := c.RelevantGuides(latin1(t, facturaInternacao), "N0009")
	require.NoError(t, err)
	require.Len(t, guides, 2)
	assert.Equal(t, "G-001", guides[0].GuideNumber)
	assert.Equal(t, "GuiaDesconhecida_2", guides[1].GuideNumber)
}

func TestClassifier_ClassifyCompleto(t *testing.T) {
	c := ptuxml.NewClassifier(conIgnorados("10101012"), ptuxml.DefaultGuideThreshold, zerolog.Nop())

	inv, err := c.Classify(latin1(t, facturaInternacao))
	require.NoError(t, err)
	assert.Equal(t, "063", inv.DestinationBranchCode)
	assert.Equal(t, "UNIMED CAMPO GRANDE", inv.DestinationBranchName)
	require.Len(t, inv.RelevantGuides, 1)
	assert.Equal(t, "N0009", inv.RelevantGuides[0].ParentInvoiceNumber)
}

func TestClassifier_SinNumeroNoEvaluaGuias(t *testing.T) {
	c := ptuxml.NewClassifier(nil, dec("1"), zerolog.Nop())
	inv, err := c.Classify([]byte(`<ptu:ptuA500 xmlns:ptu="http://ptu.unimed.coop.br/schemas/V3_0">
  <ptu:cabecalho><ptu:GuiasCobrancaUtilizacao><ptu:Cobranca><ptu:nr_Competencia>2502</ptu:nr_Competencia></ptu:Cobranca></ptu:GuiasCobrancaUtilizacao></ptu:cabecalho>
  <ptu:guiaInternacao><ptu:dadosGuia><ptu:procedimentosExecutados>
    <ptu:procedimentos><ptu:tp_Tabela>18</ptu:tp_Tabela></ptu:procedimentos>
    <ptu:valores><ptu:vl_ServCobrado>100</ptu:vl_ServCobrado></ptu:valores>
  </ptu:procedimentosExecutados></ptu:dadosGuia></ptu:guiaInternacao>
</ptu:ptuA500>`))
	require.NoError(t, err)
	assert.Empty(t, inv.RelevantGuides)
	assert.Equal(t, "NÃO ENCONTRADO NO XML", inv.DestinationBranchName)
}
