package ptuxml

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"

	"github.com/jhoicas/ptu-audit/internal/domain/entity"
	"github.com/jhoicas/ptu-audit/internal/domain/ptu"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/reference"
)

// RuleEngine aplica las reglas de corrección del A500 en orden fijo. Cada regla devuelve la
// cantidad de nodos modificados y reaplicarla sobre el resultado devuelve 0.
type RuleEngine struct {
	ref *reference.Dataset
	log zerolog.Logger
}

// NewRuleEngine crea el motor con los datos de referencia (pueden estar vacíos).
func NewRuleEngine(ref *reference.Dataset, log zerolog.Logger) *RuleEngine {
	if ref == nil {
		ref = reference.Empty()
	}
	return &RuleEngine{ref: ref, log: log}
}

// Apply ejecuta todas las reglas sobre el documento.
func (r *RuleEngine) Apply(doc *Document) entity.RuleMutationCount {
	return entity.RuleMutationCount{
		CNES:          r.applyCNES(doc),
		DocumentType:  r.applyDocumentType(doc),
		ProtocolDate:  r.applyProtocolDate(doc),
		ProviderType:  r.applyProviderType(doc),
		OwnResource:   r.applyOwnResource(doc),
		PackageCode:   r.applyPackageCode(doc),
		CoverageMerge: r.applyCoverageMerge(doc),
		Reallocation:  r.applyReallocation(doc),
	}
}

// ApplyFile parsea el .051, aplica las reglas y lo regraba sólo si hubo modificaciones.
func (r *RuleEngine) ApplyFile(path string) (entity.RuleMutationCount, error) {
	doc, err := ParseFile(path)
	if err != nil {
		return entity.RuleMutationCount{}, err
	}
	if doc.Recovered {
		r.log.Warn().Str("archivo", path).Msg("XML mal formado, se aplican reglas sobre el árbol recuperado")
	}
	count := r.Apply(doc)
	if count.Total() == 0 {
		r.log.Debug().Str("archivo", path).Msg("ninguna regla modificó el documento")
		return count, nil
	}
	if err := doc.WriteFile(path); err != nil {
		return count, fmt.Errorf("ptuxml: grabar reglas: %w", err)
	}
	r.log.Info().Str("archivo", path).Int("modificaciones", count.Total()).Msg("documento corregido")
	return count, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// findUnion resultados de varias rutas sin duplicados, en el orden de las rutas.
func (d *Document) findUnion(ctx *etree.Element, paths ...string) []*etree.Element {
	var out []*etree.Element
	seen := make(map[*etree.Element]bool)
	for _, p := range paths {
		for _, e := range d.FindAll(ctx, p) {
			if !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		}
	}
	return out
}

// firstOf primer elemento encontrado probando las rutas en orden.
func (d *Document) firstOf(ctx *etree.Element, paths ...string) *etree.Element {
	for _, p := range paths {
		if e := d.FindOne(ctx, p); e != nil {
			return e
		}
	}
	return nil
}

func isPTU(e *etree.Element, local string) bool {
	return e != nil && e.Tag == local && e.NamespaceURI() == ptu.Namespace
}

func trimmed(e *etree.Element) string {
	return strings.TrimSpace(Text(e))
}

// ─── 1. CNES ─────────────────────────────────────────────────────────────────

func (r *RuleEngine) applyCNES(doc *Document) int {
	n := 0
	nodes := doc.findUnion(nil,
		"//ptu:contratadoExecutante/ptu:CNES",
		"//ptu:dadosExecutante/ptu:CNES",
		"//ptu:dadosHospital/ptu:CNES",
	)
	for _, cnes := range nodes {
		old := trimmed(cnes)
		if old != "" && old != "0" {
			continue
		}
		SetText(cnes, ptu.CNESPlaceholder)
		r.log.Debug().Str("anterior", old).Msg("regla CNES aplicada")
		n++
	}
	return n
}

// ─── 2. Tipo de documento ────────────────────────────────────────────────────

func (r *RuleEngine) applyDocumentType(doc *Document) int {
	n := 0
	docs := doc.findUnion(nil, "//ptu:Cobranca/ptu:documento1", "//ptu:Cobranca/ptu:documento2")
	for _, d := range docs {
		tp := doc.FindOne(d, "ptu:tp_Documento")
		if tp == nil || trimmed(tp) != ptu.DocumentTypeNFe {
			continue
		}
		SetText(tp, ptu.DocumentTypeInvoice)
		n++
		if nfe := doc.FindOne(d, "ptu:NFE"); nfe != nil {
			Remove(nfe)
			r.log.Debug().Msg("regla tipo documento: NFE eliminada")
		}
	}
	return n
}

// ─── 3. Fecha de protocolo ───────────────────────────────────────────────────

func (r *RuleEngine) applyProtocolDate(doc *Document) int {
	n := 0
	for _, dg := range doc.FindAll(nil, "//ptu:dadosGuia") {
		known := doc.FindOne(dg, "ptu:dt_Conhecimento")
		protocol := doc.FindOne(dg, "ptu:dt_Protocolo")
		if known == nil || protocol == nil || Text(known) == "" {
			continue
		}
		if Text(protocol) == Text(known) {
			continue
		}
		r.log.Debug().Str("anterior", Text(protocol)).Str("nueva", Text(known)).Msg("regla fecha protocolo aplicada")
		SetText(protocol, Text(known))
		n++
	}
	return n
}

// ─── 4. Tipo de prestador ────────────────────────────────────────────────────

func (d *Document) providerCode(ctx *etree.Element) *etree.Element {
	return d.firstOf(ctx, "ptu:UnimedPrestador/ptu:cd_Prest", "ptu:cd_Prest")
}

func (r *RuleEngine) applyProviderType(doc *Document) int {
	n := 0
	contexts := doc.findUnion(nil,
		"//ptu:contratadoExecutante",
		"//ptu:contratadoSolicitante",
		"//ptu:dadosExecutante",
		"//ptu:equipe_Profissional/ptu:Prestador",
	)
	for _, ctx := range contexts {
		codeNode := doc.providerCode(ctx)
		typeNode := doc.firstOf(ctx, "ptu:prestador/ptu:tp_Prestador", "ptu:tp_Prestador")
		if codeNode == nil || typeNode == nil {
			continue
		}
		code, original := trimmed(codeNode), trimmed(typeNode)

		resolved := original
		if code == ptu.ProviderCodeOwnNetwork {
			resolved = ptu.ProviderTypeOwnNetwork
			r.removeParticipation(doc, ctx, codeNode)
		} else {
			resolved = ptu.RemapProviderType(original)
		}

		if resolved != original {
			SetText(typeNode, resolved)
			r.log.Debug().Str("cd_Prest", code).Str("anterior", original).Str("nuevo", resolved).Msg("regla tipo prestador aplicada")
			n++
		}
		if resolved == ptu.ProviderTypeOwnNetwork {
			n += r.forceAttendanceType(doc, ctx)
		}
	}
	return n
}

// removeParticipation elimina tp_Participacao del contexto o, si cd_Prest está dentro de
// UnimedPrestador, del abuelo de cd_Prest.
func (r *RuleEngine) removeParticipation(doc *Document, ctx, codeNode *etree.Element) {
	part := doc.FindOne(ctx, "ptu:tp_Participacao")
	if part == nil {
		if parent := codeNode.Parent(); parent != nil && parent.Tag == "UnimedPrestador" && parent.Parent() != nil {
			part = doc.FindOne(parent.Parent(), "ptu:tp_Participacao")
		}
	}
	if part != nil {
		Remove(part)
		r.log.Debug().Msg("regla tipo prestador: tp_Participacao eliminada")
	}
}

// forceAttendanceType fija tp_Atendimento = 06 en la guía que contiene el contexto.
func (r *RuleEngine) forceAttendanceType(doc *Document, ctx *etree.Element) int {
	guide := enclosingGuide(ctx)
	if guide == nil {
		return 0
	}
	att := doc.FindOne(guide, ".//ptu:dadosAtendimento/ptu:tp_Atendimento")
	if att == nil || Text(att) == "" || trimmed(att) == ptu.AttendanceTypeOwnNetwork {
		return 0
	}
	r.log.Debug().Str("anterior", trimmed(att)).Msg("regla tipo prestador: tp_Atendimento forzado a 06")
	SetText(att, ptu.AttendanceTypeOwnNetwork)
	return 1
}

func enclosingGuide(e *etree.Element) *etree.Element {
	for p := e.Parent(); p != nil; p = p.Parent() {
		for _, tag := range ptu.GuideTags {
			if isPTU(p, tag) {
				return p
			}
		}
	}
	return nil
}

// ─── 5. Recurso propio ───────────────────────────────────────────────────────

func (r *RuleEngine) applyOwnResource(doc *Document) int {
	n := 0
	contexts := doc.findUnion(nil,
		"//ptu:contratadoExecutante",
		"//ptu:contratadoSolicitante",
		"//ptu:dadosExecutante",
	)
	for _, ctx := range contexts {
		codeNode := doc.providerCode(ctx)
		flagNode := doc.FindOne(ctx, "ptu:prestador/ptu:id_RecProprio")
		if codeNode == nil || flagNode == nil {
			continue
		}
		want := ptu.OwnResourceFlag(trimmed(codeNode))
		if Text(flagNode) != "" && trimmed(flagNode) == want {
			continue
		}
		r.log.Debug().Str("cd_Prest", trimmed(codeNode)).Str("anterior", trimmed(flagNode)).Str("nuevo", want).Msg("regla recurso propio aplicada")
		SetText(flagNode, want)
		n++
	}
	return n
}

// ─── 6. Dígitos de paquete ───────────────────────────────────────────────────

func (r *RuleEngine) applyPackageCode(doc *Document) int {
	n := 0
	for _, pe := range doc.FindAll(nil, "//ptu:procedimentosExecutados") {
		flag := doc.FindOne(pe, "ptu:id_Pacote")
		codeNode := doc.FindOne(pe, "ptu:cd_Pacote")
		if flag == nil || codeNode == nil {
			continue
		}
		code := trimmed(codeNode)
		width := utf8.RuneCountInString(code)
		if !strings.EqualFold(trimmed(flag), "S") || code == "" || width >= ptu.PackageCodeWidth {
			continue
		}
		padded := strings.Repeat("0", ptu.PackageCodeWidth-width) + code
		if Text(codeNode) == padded {
			continue
		}
		SetText(codeNode, padded)
		r.log.Debug().Str("anterior", code).Str("nuevo", padded).Msg("regla dígitos de paquete aplicada")
		n++
	}
	return n
}

// ─── 7. Fusión HM/CO por cobertura ───────────────────────────────────────────

// valueSlots nodos de valores y tasas de un procedimiento; nil si faltan.
type valueSlots struct {
	charged, overhead *etree.Element
	adminFee, overFee *etree.Element
}

func (r *RuleEngine) applyCoverageMerge(doc *Document) int {
	if !r.ref.CoverageLoaded() {
		r.log.Warn().Msg("listas referenciales HM/SADT no cargadas: fusión HM/CO omitida")
		return 0
	}
	n := 0
	for _, svc := range doc.FindAll(nil, "//ptu:procedimentos/ptu:cd_Servico") {
		code := trimmed(svc)
		if code == "" {
			continue
		}
		proc, ok := r.ref.LookupProcedure(code)
		if !ok || !proc.Covered {
			continue
		}
		slots, ok := doc.valueSlots(svc.Parent())
		if !ok {
			continue
		}
		applied := doc.mergePair(slots.charged, slots.overhead, "vl_ServCobrado") +
			doc.mergePair(slots.adminFee, slots.overFee, "tx_AdmServico")
		if applied > 0 {
			r.log.Debug().Str("cd_Servico", code).Int("fusiones", applied).Msg("regla HM/CO aplicada")
		}
		n += applied
	}
	return n
}

// valueSlots resuelve la forma del procedimiento: consulta (valores directos en procedimentos)
// o procedimientos ejecutados (bloques valores/taxas). Nunca crea bloques vacíos.
func (d *Document) valueSlots(procs *etree.Element) (valueSlots, bool) {
	if !isPTU(procs, "procedimentos") {
		return valueSlots{}, false
	}
	if dg := procs.Parent(); isPTU(dg, "dadosGuia") && isPTU(dg.Parent(), "guiaConsulta") {
		return valueSlots{
			charged:  d.FindOne(procs, "ptu:vl_ServCobrado"),
			overhead: d.FindOne(procs, "ptu:vl_CO_Cobrado"),
			adminFee: d.FindOne(procs, "ptu:tx_AdmServico"),
			overFee:  d.FindOne(procs, "ptu:tx_AdmCO"),
		}, true
	}
	pe := procs.Parent()
	if !isPTU(pe, "procedimentosExecutados") {
		return valueSlots{}, false
	}
	values := d.FindOne(pe, "ptu:valores")
	fees := d.FindOne(pe, "ptu:taxas")
	return valueSlots{
		charged:  d.findIn(values, "ptu:vl_ServCobrado"),
		overhead: d.findIn(values, "ptu:vl_CO_Cobrado"),
		adminFee: d.findIn(fees, "ptu:tx_AdmServico"),
		overFee:  d.findIn(fees, "ptu:tx_AdmCO"),
	}, true
}

// findIn como FindOne pero nil si el contexto no existe.
func (d *Document) findIn(ctx *etree.Element, path string) *etree.Element {
	if ctx == nil {
		return nil
	}
	return d.FindOne(ctx, path)
}

// mergePair suma el valor CO en el valor cobrado (o lo mueve si el cobrado está vacío) y elimina el CO.
// El cobrado que falte se crea junto al CO, en el mismo bloque.
func (d *Document) mergePair(charged, overhead *etree.Element, chargedLocal string) int {
	if overhead == nil {
		return 0
	}
	ov, overOK := ptu.ParseValue(Text(overhead))
	if !overOK {
		return 0
	}
	if charged != nil {
		if cv, ok := ptu.ParseValue(Text(charged)); ok {
			SetText(charged, ptu.FormatValue(cv.Add(ov)))
			Remove(overhead)
			return 1
		}
		if trimmed(charged) != "" {
			return 0
		}
		SetText(charged, ptu.FormatValue(ov))
		Remove(overhead)
		return 1
	}
	created := d.CreateBefore(overhead.Parent(), chargedLocal, overhead)
	SetText(created, ptu.FormatValue(ov))
	Remove(overhead)
	return 1
}

// ─── 8. Reasignación de ítems duplicados ─────────────────────────────────────

// applyReallocation no tiene tabla de reasignación definida: no modifica el documento.
func (r *RuleEngine) applyReallocation(_ *Document) int {
	return 0
}
