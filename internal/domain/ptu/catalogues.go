// Package ptu contiene catálogos y algoritmos puros del layout PTU A500 (Intercâmbio Unimed V3_0):
// tablas de códigos usadas por las reglas de corrección, parseo de valores en formato regional
// y el hash de contenido compatible con el validador legado.
package ptu

// =============================================================================
// Namespace y elementos raíz
// =============================================================================

const (
	// Namespace único del documento A500 V3_0.
	Namespace = "http://ptu.unimed.coop.br/schemas/V3_0"
	// Prefix usado en las expresiones de consulta y al crear nodos nuevos.
	Prefix = "ptu"
	// RootTag nombre local del elemento raíz.
	RootTag = "ptuA500"
	// HashTag nombre local del elemento que transporta el hash de contenido.
	HashTag = "hash"
	// DocumentExtension extensión del XML de la factura dentro del ZIP.
	DocumentExtension = ".051"
)

// =============================================================================
// Regla CNES
// =============================================================================

// CNESPlaceholder valor que reemplaza un CNES vacío o "0".
const CNESPlaceholder = "9999999"

// =============================================================================
// Regla tipo de documento
// =============================================================================

const (
	DocumentTypeNFe     = "3" // Nota fiscal electrónica (no aceptada en el intercambio)
	DocumentTypeInvoice = "1" // Fatura
)

// =============================================================================
// Regla tipo de prestador
// =============================================================================

const (
	// ProviderCodeOwnNetwork cd_Prest que fuerza tp_Prestador = "08".
	ProviderCodeOwnNetwork = "11110"
	// ProviderTypeOwnNetwork tipo de prestador forzado para la red propia.
	ProviderTypeOwnNetwork = "08"
	// AttendanceTypeOwnNetwork tp_Atendimento exigido cuando el prestador es "08".
	AttendanceTypeOwnNetwork = "06"
)

// ProviderTypeRemap asociación tipo nuevo -> tipos legados (Tabla de tp_Prestador).
type ProviderTypeRemap struct {
	NewCode  string
	OldCodes map[string]bool
}

// ProviderTypeTable tabla de remapeo en orden de evaluación: la primera coincidencia gana.
var ProviderTypeTable = []ProviderTypeRemap{
	{NewCode: "01", OldCodes: set("10", "11", "13", "49", "54", "80", "82")},
	{NewCode: "02", OldCodes: set("42", "44", "50", "51", "52")},
	{NewCode: "03", OldCodes: set("30")},
	{NewCode: "04", OldCodes: set("20", "21", "22", "23", "24", "25", "26", "40", "41", "43", "45", "46", "53")},
	{NewCode: "05", OldCodes: set("12", "47")},
	{NewCode: "06", OldCodes: set("14")},
	{NewCode: "11", OldCodes: set("48")},
}

// RemapProviderType devuelve el tipo nuevo para un tp_Prestador legado; sin coincidencia devuelve el original.
// La tabla se resuelve hasta un punto fijo: 48 pasa por 11 y termina en 01.
func RemapProviderType(code string) string {
	for range ProviderTypeTable {
		next := remapOnce(code)
		if next == code {
			break
		}
		code = next
	}
	return code
}

func remapOnce(code string) string {
	for _, r := range ProviderTypeTable {
		if r.OldCodes[code] {
			return r.NewCode
		}
	}
	return code
}

// GuideTags elementos de guía que pueden contener un contexto de prestador.
var GuideTags = []string{"guiaConsulta", "guiaSADT", "guiaInternacao", "guiaHonorarios"}

// =============================================================================
// Regla recurso propio
// =============================================================================

// OwnResourceProviders cd_Prest considerados recurso propio (id_RecProprio = "S").
var OwnResourceProviders = set("11099", "11110", "11152", "8150", "8162")

// OwnResourceFlag devuelve "S" o "N" según el cd_Prest.
func OwnResourceFlag(providerCode string) string {
	if OwnResourceProviders[providerCode] {
		return "S"
	}
	return "N"
}

// =============================================================================
// Regla dígitos de paquete
// =============================================================================

// PackageCodeWidth ancho del cd_Pacote completado con ceros a la izquierda.
const PackageCodeWidth = 8

// =============================================================================
// Clasificación de guías de internación
// =============================================================================

const (
	TableExcluded      = "22" // Tabla siempre fuera del valor de filtro
	TableHonorarium    = "00" // Tabla 00: sujeta a la lista de códigos ignorados
	UnknownGuidePrefix = "GuiaDesconhecida_"
)

// FilterTables tablas que suman al valor de filtro.
var FilterTables = set("00", "18", "19", "20")

// AdmissionTypes rg_Internacao -> descripción.
var AdmissionTypes = map[string]string{
	"1": "Hospitalar",
	"2": "Hospital-dia",
	"3": "Domiciliar",
}

// AdmissionTypeName devuelve la descripción del régimen de internación o "Cod:<x>" si no es conocido.
func AdmissionTypeName(code string) string {
	if name, ok := AdmissionTypes[code]; ok {
		return name
	}
	return "Cod:" + code
}

// =============================================================================
// Sentinelas de Unimed destino
// =============================================================================

// BranchNotInDocument nombre usado cuando el XML no trae cd_Uni_Destino.
const BranchNotInDocument = "NÃO ENCONTRADO NO XML"

// CoverageFlagCovered valor de COBERTO_UNIMED_CG que habilita la fusión HM/CO.
const CoverageFlagCovered = "SIM"

func set(codes ...string) map[string]bool {
	m := make(map[string]bool, len(codes))
	for _, c := range codes {
		m[c] = true
	}
	return m
}
