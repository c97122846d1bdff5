// Package reference carga los datos de referencia del auditor (códigos a ignorar de la tabla 00,
// mapa de Unimeds y listas referenciales HM/SADT). El Dataset resultante es inmutable.
package reference

import (
	"fmt"
	"strings"

	"github.com/jhoicas/ptu-audit/internal/domain/ptu"
)

// Procedure registro de una lista referencial (HM o SADT).
type Procedure struct {
	Code    string
	Covered bool // COBERTO_UNIMED_CG == "SIM"
}

// Data contenido crudo de un Dataset; usado por el loader y por los tests.
type Data struct {
	HM       map[string]Procedure // nil = lista no cargada
	SADT     map[string]Procedure // nil = lista no cargada
	Ignore   map[string]bool      // nil = lista no cargada
	Branches map[string]string    // nil = mapa no cargado
}

// Dataset datos de referencia de solo lectura, compartidos por todos los componentes de una corrida.
type Dataset struct {
	hm       map[string]Procedure
	sadt     map[string]Procedure
	ignore   map[string]bool
	branches map[string]string
}

// NewDataset copia los mapas recibidos.
func NewDataset(d Data) *Dataset {
	return &Dataset{
		hm:       cloneMap(d.HM),
		sadt:     cloneMap(d.SADT),
		ignore:   cloneMap(d.Ignore),
		branches: cloneMap(d.Branches),
	}
}

// Empty dataset sin ninguna lista cargada.
func Empty() *Dataset {
	return &Dataset{}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// CoverageLoaded true si al menos una lista referencial (HM o SADT) fue cargada.
func (d *Dataset) CoverageLoaded() bool {
	return d != nil && (d.hm != nil || d.sadt != nil)
}

// LookupProcedure busca el código en HM y luego en SADT.
func (d *Dataset) LookupProcedure(code string) (Procedure, bool) {
	if d == nil {
		return Procedure{}, false
	}
	code = strings.TrimSpace(code)
	if p, ok := d.hm[code]; ok {
		return p, true
	}
	p, ok := d.sadt[code]
	return p, ok
}

// IgnoreLoaded indica si la lista de la tabla 00 fue cargada.
func (d *Dataset) IgnoreLoaded() bool {
	return d != nil && d.ignore != nil
}

// Ignored indica si el código de servicio de la tabla 00 queda fuera del valor de filtro.
func (d *Dataset) Ignored(code string) bool {
	return d != nil && d.ignore[code]
}

// BranchesLoaded indica si el mapa de Unimeds fue cargado.
func (d *Dataset) BranchesLoaded() bool {
	return d != nil && d.branches != nil
}

// BranchName nombre de la Unimed; nunca vacío: sin mapa o sin código devuelve un marcador explícito.
func (d *Dataset) BranchName(code string) string {
	code = strings.TrimSpace(code)
	if !d.BranchesLoaded() {
		return fmt.Sprintf("MAPA UNIMEDS NÃO CARREGADO (Cód: %s)", code)
	}
	if name, ok := d.branches[code]; ok {
		return name
	}
	return fmt.Sprintf("CÓDIGO %s NÃO MAPEADO", code)
}

// Counts tamaño de cada lista, para logs.
func (d *Dataset) Counts() (hm, sadt, ignore, branches int) {
	if d == nil {
		return 0, 0, 0, 0
	}
	return len(d.hm), len(d.sadt), len(d.ignore), len(d.branches)
}

// isCovered interpreta COBERTO_UNIMED_CG; ausente equivale a "NAO".
func isCovered(flag string) bool {
	return strings.EqualFold(strings.TrimSpace(flag), ptu.CoverageFlagCovered)
}
