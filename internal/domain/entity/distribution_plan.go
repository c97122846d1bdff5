package entity

import "github.com/shopspring/decimal"

// AuditorAssignment facturas asignadas a un auditor y sus totales.
type AuditorAssignment struct {
	Auditor    string
	Invoices   []*Invoice
	TotalValue decimal.Decimal
	TotalCount int
}

// DistributionPlan resultado de la distribución: una asignación por auditor, en el orden recibido.
type DistributionPlan struct {
	Assignments []*AuditorAssignment
}

// Get devuelve la asignación de un auditor o nil.
func (p *DistributionPlan) Get(auditor string) *AuditorAssignment {
	if p == nil {
		return nil
	}
	for _, a := range p.Assignments {
		if a.Auditor == auditor {
			return a
		}
	}
	return nil
}

// InvoiceCount total de facturas asignadas.
func (p *DistributionPlan) InvoiceCount() int {
	n := 0
	for _, a := range p.Assignments {
		n += a.TotalCount
	}
	return n
}

// TotalValue suma de los totales de todos los auditores.
func (p *DistributionPlan) TotalValue() decimal.Decimal {
	sum := decimal.Zero
	for _, a := range p.Assignments {
		sum = sum.Add(a.TotalValue)
	}
	return sum
}
