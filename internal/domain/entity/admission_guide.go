package entity

import "github.com/shopspring/decimal"

// AdmissionGuide guía de internación relevante para auditoría (derivada, solo lectura).
type AdmissionGuide struct {
	ParentInvoiceNumber string
	GuideNumber         string
	BeneficiaryCode     string
	BeneficiaryName     string
	AdmissionType       string          // Hospitalar, Hospital-dia, Domiciliar o Cod:<x>
	FilterValue         decimal.Decimal // suma de los ítems que pasan la política de filtro
	RealTotalValue      decimal.Decimal // suma de todos los ítems
}

// LineItem procedimiento ejecutado de una guía.
type LineItem struct {
	TableCode     string
	ServiceCode   string
	ChargedValue  decimal.Decimal // valores/vl_ServCobrado
	AdminFee      decimal.Decimal // taxas/tx_AdmServico
	OverheadValue decimal.Decimal // valores/vl_CO_Cobrado
	OverheadFee   decimal.Decimal // taxas/tx_AdmCO
}

// Total suma de los cuatro campos monetarios del ítem.
func (l LineItem) Total() decimal.Decimal {
	return l.ChargedValue.Add(l.AdminFee).Add(l.OverheadValue).Add(l.OverheadFee)
}
