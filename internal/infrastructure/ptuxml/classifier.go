package ptuxml

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ptu-audit/internal/domain"
	"github.com/jhoicas/ptu-audit/internal/domain/entity"
	"github.com/jhoicas/ptu-audit/internal/domain/ptu"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/reference"
)

// DefaultGuideThreshold valor de filtro mínimo para que una guía de internación sea auditada.
var DefaultGuideThreshold = decimal.NewFromInt(25000)

var namespaces = map[string]string{ptu.Prefix: ptu.Namespace}

func mustCompile(expr string) *xpath.Expr {
	e, err := xpath.CompileWithNS(expr, namespaces)
	if err != nil {
		panic(fmt.Sprintf("ptuxml: xpath %q: %v", expr, err))
	}
	return e
}

const cobranca = "//ptu:cabecalho/ptu:GuiasCobrancaUtilizacao/ptu:Cobranca"

var (
	xpInvoiceNumber = mustCompile(cobranca + "/ptu:documento1/ptu:nr_Documento")
	xpCompetence    = mustCompile(cobranca + "/ptu:nr_Competencia")
	xpBranch        = mustCompile("//ptu:cabecalho/ptu:unimed/ptu:cd_Uni_Destino")
	xpIssueDate     = mustCompile(cobranca + "/ptu:documento1/ptu:dt_EmissaoDoc")
	xpDueDate       = mustCompile(cobranca + "/ptu:documento1/ptu:dt_VencimentoDoc")
	xpTotalValue    = mustCompile(cobranca + "/ptu:documento1/ptu:vl_TotalDoc")

	xpAdmissionGuides = mustCompile("//ptu:guiaInternacao")
	xpGuideNumber     = mustCompile("ptu:dadosGuia/ptu:nr_Guias/ptu:nr_GuiaTissPrestador")
	xpBeneficiaryCode = mustCompile("ptu:dadosBeneficiario/ptu:id_Benef")
	xpBeneficiaryName = mustCompile("ptu:dadosBeneficiario/ptu:nm_Benef")
	xpAdmissionType   = mustCompile("ptu:dadosInternacao/ptu:rg_Internacao")
	xpExecutedDirect  = mustCompile("ptu:dadosGuia/ptu:procedimentosExecutados")
	xpExecutedAny     = mustCompile(".//ptu:procedimentosExecutados")

	xpTableCode     = mustCompile(".//ptu:procedimentos/ptu:tp_Tabela")
	xpServiceCode   = mustCompile(".//ptu:procedimentos/ptu:cd_Servico")
	xpChargedValue  = mustCompile(".//ptu:valores/ptu:vl_ServCobrado")
	xpAdminFee      = mustCompile(".//ptu:taxas/ptu:tx_AdmServico")
	xpOverheadValue = mustCompile(".//ptu:valores/ptu:vl_CO_Cobrado")
	xpOverheadFee   = mustCompile(".//ptu:taxas/ptu:tx_AdmCO")
)

// Classifier extrae la cabecera de la factura y las guías de internación relevantes para auditoría.
type Classifier struct {
	ref       *reference.Dataset
	threshold decimal.Decimal
	log       zerolog.Logger
}

// NewClassifier crea el clasificador con el umbral tal cual; cero conserva toda guía de valor no negativo.
func NewClassifier(ref *reference.Dataset, threshold decimal.Decimal, log zerolog.Logger) *Classifier {
	if ref == nil {
		ref = reference.Empty()
	}
	return &Classifier{ref: ref, threshold: threshold, log: log}
}

// Threshold valor de corte vigente.
func (c *Classifier) Threshold() decimal.Decimal {
	return c.threshold
}

func parseQuery(data []byte) (*xmlquery.Node, error) {
	top, err := xmlquery.ParseWithOptions(bytes.NewReader(data), xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{
			Strict:        false,
			Entity:        map[string]string{},
			CharsetReader: charsetReader,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ptuxml: parsear para clasificación: %w", err)
	}
	return top, nil
}

// leafText texto anterior al primer elemento hijo; ok=false si el nodo no tiene texto.
func leafText(n *xmlquery.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	var sb strings.Builder
	found := false
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		switch ch.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			sb.WriteString(ch.Data)
			found = true
		case xmlquery.CommentNode:
		default:
			return sb.String(), found
		}
	}
	return sb.String(), found
}

// lastText texto recortado de la última coincidencia.
func lastText(top *xmlquery.Node, expr *xpath.Expr) (string, bool) {
	nodes := xmlquery.QuerySelectorAll(top, expr)
	if len(nodes) == 0 {
		return "", false
	}
	s, ok := leafText(nodes[len(nodes)-1])
	return strings.TrimSpace(s), ok
}

// Classify cabecera, Unimed destino y guías relevantes en una sola lectura.
func (c *Classifier) Classify(data []byte) (*entity.Invoice, error) {
	top, err := parseQuery(data)
	if err != nil {
		return nil, err
	}
	inv, err := c.header(top)
	if err != nil {
		return nil, err
	}
	c.ResolveBranch(inv)
	if inv.InvoiceNumber != "" {
		inv.RelevantGuides = c.guides(top, inv.InvoiceNumber)
	} else {
		c.log.Warn().Msg("factura sin número: guías no evaluadas")
	}
	return inv, nil
}

// ExtractHeader campos de cabecera del documento. Sin ningún campo devuelve ErrUnreadableDocument.
func (c *Classifier) ExtractHeader(data []byte) (*entity.Invoice, error) {
	top, err := parseQuery(data)
	if err != nil {
		return nil, err
	}
	return c.header(top)
}

func (c *Classifier) header(top *xmlquery.Node) (*entity.Invoice, error) {
	inv := &entity.Invoice{}
	inv.InvoiceNumber, _ = lastText(top, xpInvoiceNumber)
	inv.Competence, _ = lastText(top, xpCompetence)
	inv.DestinationBranchCode, _ = lastText(top, xpBranch)
	inv.IssueDate, _ = lastText(top, xpIssueDate)
	inv.DueDate, _ = lastText(top, xpDueDate)
	inv.TotalValueText, _ = lastText(top, xpTotalValue)
	if !inv.HasHeaderData() {
		return nil, domain.ErrUnreadableDocument
	}
	if v, ok := ptu.ParseValue(inv.TotalValueText); ok {
		inv.TotalValue = v
	} else {
		inv.TotalValue = decimal.Zero
		c.log.Warn().Str("fatura", inv.InvoiceNumber).Str("vl_TotalDoc", inv.TotalValueText).Msg("valor total no numérico")
	}
	return inv, nil
}

// ResolveBranch normaliza cd_Uni_Destino a tres dígitos y resuelve el nombre de la Unimed.
func (c *Classifier) ResolveBranch(inv *entity.Invoice) {
	code := strings.TrimSpace(inv.DestinationBranchCode)
	if code == "" {
		inv.DestinationBranchCode = ""
		inv.DestinationBranchName = ptu.BranchNotInDocument
		c.log.Warn().Str("fatura", inv.InvoiceNumber).Msg("código de Unimed destino no encontrado")
		return
	}
	if n, err := strconv.Atoi(code); err == nil {
		code = fmt.Sprintf("%03d", n)
	} else {
		c.log.Warn().Str("fatura", inv.InvoiceNumber).Str("cd_Uni_Destino", code).Msg("código de Unimed no numérico")
	}
	inv.DestinationBranchCode = code
	inv.DestinationBranchName = c.ref.BranchName(code)
}

// RelevantGuides guías de internación cuyo valor de filtro alcanza el umbral.
func (c *Classifier) RelevantGuides(data []byte, invoiceNumber string) ([]entity.AdmissionGuide, error) {
	top, err := parseQuery(data)
	if err != nil {
		return nil, err
	}
	return c.guides(top, invoiceNumber), nil
}

func (c *Classifier) guides(top *xmlquery.Node, invoiceNumber string) []entity.AdmissionGuide {
	var out []entity.AdmissionGuide
	for i, g := range xmlquery.QuerySelectorAll(top, xpAdmissionGuides) {
		guide := entity.AdmissionGuide{
			ParentInvoiceNumber: invoiceNumber,
			FilterValue:         decimal.Zero,
			RealTotalValue:      decimal.Zero,
		}
		number, ok := lastText(g, xpGuideNumber)
		if !ok {
			number = fmt.Sprintf("%s%d", ptu.UnknownGuidePrefix, i+1)
		}
		guide.GuideNumber = number
		guide.BeneficiaryCode, _ = lastText(g, xpBeneficiaryCode)
		guide.BeneficiaryName, _ = lastText(g, xpBeneficiaryName)
		admission, _ := lastText(g, xpAdmissionType)
		guide.AdmissionType = ptu.AdmissionTypeName(admission)

		executed := xmlquery.QuerySelectorAll(g, xpExecutedDirect)
		if len(executed) == 0 {
			executed = xmlquery.QuerySelectorAll(g, xpExecutedAny)
		}
		for _, pe := range executed {
			item := c.lineItem(pe, number)
			total := item.Total()
			guide.RealTotalValue = guide.RealTotalValue.Add(total)
			if c.countsForFilter(item) {
				guide.FilterValue = guide.FilterValue.Add(total)
			}
		}

		c.log.Debug().
			Str("guia", number).
			Str("valor_filtro", guide.FilterValue.StringFixed(2)).
			Str("valor_real", guide.RealTotalValue.StringFixed(2)).
			Msg("guía de internación evaluada")
		if guide.FilterValue.GreaterThanOrEqual(c.threshold) {
			out = append(out, guide)
		}
	}
	return out
}

// countsForFilter tabla 22 excluida; tabla 00 con código ignorado excluida; sólo 00, 18, 19 y 20 suman.
func (c *Classifier) countsForFilter(item entity.LineItem) bool {
	if item.TableCode == ptu.TableExcluded {
		return false
	}
	if item.TableCode == ptu.TableHonorarium && item.ServiceCode != "" && c.ref.Ignored(item.ServiceCode) {
		return false
	}
	return ptu.FilterTables[item.TableCode]
}

func (c *Classifier) lineItem(pe *xmlquery.Node, guide string) entity.LineItem {
	item := entity.LineItem{}
	item.TableCode, _ = lastText(pe, xpTableCode)
	item.ServiceCode, _ = lastText(pe, xpServiceCode)
	item.ChargedValue = c.value(pe, xpChargedValue, "vl_ServCobrado", guide)
	item.AdminFee = c.value(pe, xpAdminFee, "tx_AdmServico", guide)
	item.OverheadValue = c.value(pe, xpOverheadValue, "vl_CO_Cobrado", guide)
	item.OverheadFee = c.value(pe, xpOverheadFee, "tx_AdmCO", guide)
	return item
}

// value campo monetario del ítem; ausente vale cero y no numérico vale cero con aviso.
func (c *Classifier) value(pe *xmlquery.Node, expr *xpath.Expr, field, guide string) decimal.Decimal {
	raw, ok := lastText(pe, expr)
	if !ok {
		return decimal.Zero
	}
	v, ok := ptu.ParseValue(raw)
	if !ok {
		c.log.Warn().Str("campo", field).Str("valor", raw).Str("guia", guide).Msg("valor inválido, tratado como 0")
		return decimal.Zero
	}
	return v
}
