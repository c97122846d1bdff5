package ptuxml_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/ptu-audit/internal/infrastructure/ptuxml"
)

func latin1(t *testing.T, s string) []byte {
	t.Helper()
	b, err := charmap.ISO8859_1.NewEncoder().String(s)
	require.NoError(t, err)
	return []byte(b)
}

func parse(t *testing.T, s string) *ptuxml.Document {
	t.Helper()
	doc, err := ptuxml.Parse(latin1(t, s))
	require.NoError(t, err)
	return doc
}

func textOf(t *testing.T, doc *ptuxml.Document, path string) string {
	t.Helper()
	e := doc.FindOne(nil, path)
	require.NotNil(t, e, path)
	return ptuxml.Text(e)
}

// Factura SADT con un caso para cada regla de corrección.
const facturaSADT = `<?xml version="1.0" encoding="ISO-8859-1"?>
<ptu:ptuA500 xmlns:ptu="http://ptu.unimed.coop.br/schemas/V3_0">
  <ptu:cabecalho>
    <ptu:unimed>
      <ptu:cd_Uni_Origem>001</ptu:cd_Uni_Origem>
      <ptu:cd_Uni_Destino>63</ptu:cd_Uni_Destino>
    </ptu:unimed>
    <ptu:GuiasCobrancaUtilizacao>
      <ptu:Cobranca>
        <ptu:nr_Competencia>2502</ptu:nr_Competencia>
        <ptu:documento1>
          <ptu:nr_Documento>N0001</ptu:nr_Documento>
          <ptu:tp_Documento>3</ptu:tp_Documento>
          <ptu:dt_EmissaoDoc>20250210</ptu:dt_EmissaoDoc>
          <ptu:dt_VencimentoDoc>20250310</ptu:dt_VencimentoDoc>
          <ptu:vl_TotalDoc>1500,50</ptu:vl_TotalDoc>
          <ptu:NFE>
            <ptu:nr_NFE>123</ptu:nr_NFE>
          </ptu:NFE>
        </ptu:documento1>
      </ptu:Cobranca>
    </ptu:GuiasCobrancaUtilizacao>
  </ptu:cabecalho>
  <ptu:guiaSADT>
    <ptu:dadosBeneficiario>
      <ptu:nm_Benef>JOSÉ DA SILVA</ptu:nm_Benef>
    </ptu:dadosBeneficiario>
    <ptu:dadosGuia>
      <ptu:dt_Conhecimento>20250105</ptu:dt_Conhecimento>
      <ptu:dt_Protocolo>20250101</ptu:dt_Protocolo>
      <ptu:dadosAtendimento>
        <ptu:tp_Atendimento>01</ptu:tp_Atendimento>
      </ptu:dadosAtendimento>
      <ptu:contratadoExecutante>
        <ptu:UnimedPrestador>
          <ptu:cd_Prest>11110</ptu:cd_Prest>
        </ptu:UnimedPrestador>
        <ptu:prestador>
          <ptu:tp_Prestador>10</ptu:tp_Prestador>
          <ptu:id_RecProprio>N</ptu:id_RecProprio>
        </ptu:prestador>
        <ptu:tp_Participacao>1</ptu:tp_Participacao>
        <ptu:CNES>0</ptu:CNES>
      </ptu:contratadoExecutante>
      <ptu:contratadoSolicitante>
        <ptu:cd_Prest>55555</ptu:cd_Prest>
        <ptu:tp_Prestador>47</ptu:tp_Prestador>
      </ptu:contratadoSolicitante>
      <ptu:procedimentosExecutados>
        <ptu:id_Pacote>s</ptu:id_Pacote>
        <ptu:cd_Pacote>123</ptu:cd_Pacote>
        <ptu:procedimentos>
          <ptu:tp_Tabela>18</ptu:tp_Tabela>
          <ptu:cd_Servico>40301010</ptu:cd_Servico>
        </ptu:procedimentos>
        <ptu:valores>
          <ptu:vl_ServCobrado>100,00</ptu:vl_ServCobrado>
          <ptu:vl_CO_Cobrado>50,50</ptu:vl_CO_Cobrado>
        </ptu:valores>
        <ptu:taxas>
          <ptu:tx_AdmCO>5,00</ptu:tx_AdmCO>
        </ptu:taxas>
      </ptu:procedimentosExecutados>
    </ptu:dadosGuia>
  </ptu:guiaSADT>
</ptu:ptuA500>
`
