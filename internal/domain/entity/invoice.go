package entity

import "github.com/shopspring/decimal"

// Invoice cabecera de una factura PTU A500 importada (solo campos escalares; el árbol XML
// se descarta al terminar la importación del archivo).
type Invoice struct {
	InvoiceNumber         string          // documento1/nr_Documento
	Competence            string          // Cobranca/nr_Competencia (AAMM)
	DestinationBranchCode string          // cd_Uni_Destino normalizado a 3 dígitos
	DestinationBranchName string          // nombre de la Unimed o sentinela "NÃO MAPEADO"
	IssueDate             string          // dt_EmissaoDoc (AAAAMMDD)
	DueDate               string          // dt_VencimentoDoc (AAAAMMDD)
	TotalValueText        string          // vl_TotalDoc tal como viene en el XML
	TotalValue            decimal.Decimal // vl_TotalDoc interpretado (cero si no es numérico)
	SourceArchivePath     string          // ruta del ZIP en la carpeta importada
	SourceArchiveName     string          // nombre del ZIP
	SourceEntryName       string          // nombre del .051 dentro del ZIP
	Fingerprint           string          // SHA-256 del XML canónico (C14N) tras las reglas
	Mutations             RuleMutationCount
	RelevantGuides        []AdmissionGuide
}

// HasHeaderData indica si al menos un campo de cabecera fue leído del XML.
func (i *Invoice) HasHeaderData() bool {
	return i.InvoiceNumber != "" || i.Competence != "" || i.DestinationBranchCode != "" ||
		i.IssueDate != "" || i.DueDate != "" || i.TotalValueText != ""
}
