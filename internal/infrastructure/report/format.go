// Package report genera los artefactos de la distribución: planilla XLSX (excelize) y CSV de
// guías de internación relevantes.
package report

import (
	"strings"
	"time"
)

// FormatCompetence convierte AAMM a AAAAMM tomando el siglo de la fecha de emisión (AAAAMMDD).
// Un valor de seis dígitos o sin emisión válida se devuelve sin cambios.
func FormatCompetence(competence, issueDate string) string {
	if len(competence) == 4 && len(issueDate) == 8 {
		return issueDate[:2] + competence
	}
	return competence
}

// FormatDate convierte AAAAMMDD a DD/MM/AAAA; si no es una fecha válida devuelve el texto original.
func FormatDate(yyyymmdd string) string {
	if len(yyyymmdd) != 8 {
		return yyyymmdd
	}
	t, err := time.Parse("20060102", yyyymmdd)
	if err != nil {
		return yyyymmdd
	}
	return t.Format("02/01/2006")
}

// BranchLabel texto de la columna UNIMED: "cód - nombre", o el sentinela que corresponda.
func BranchLabel(code, name string) string {
	switch {
	case code != "" && name != "" && name != "N/A" && !strings.Contains(strings.ToLower(name), "não encontrada"):
		return code + " - " + name
	case code != "":
		return code + " - (Nome não localizado)"
	default:
		return name
	}
}
