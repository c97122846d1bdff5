// Package distribution reparte facturas entre auditores con la heurística voraz
// "mayor valor primero": cada factura va al auditor con menor (valor total, cantidad).
package distribution

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ptu-audit/internal/domain"
	"github.com/jhoicas/ptu-audit/internal/domain/entity"
	"github.com/jhoicas/ptu-audit/internal/domain/ptu"
)

// Balancer motor de distribución. No guarda estado entre llamadas.
type Balancer struct {
	log zerolog.Logger
}

// NewBalancer crea el motor con el logger dado (zerolog.Nop() en tests).
func NewBalancer(log zerolog.Logger) *Balancer {
	return &Balancer{log: log}
}

type weighted struct {
	inv   *entity.Invoice
	value decimal.Decimal
}

// Distribute asigna cada factura a exactamente un auditor.
// La diferencia entre el mayor y el menor total nunca supera el valor de la factura más grande.
func (b *Balancer) Distribute(invoices []*entity.Invoice, auditors []string) (*entity.DistributionPlan, error) {
	if len(invoices) == 0 || len(auditors) == 0 {
		return nil, domain.ErrEmptyDistribution
	}
	plan := &entity.DistributionPlan{Assignments: make([]*entity.AuditorAssignment, 0, len(auditors))}
	seen := make(map[string]bool, len(auditors))
	for _, name := range auditors {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("distribution: nombre de auditor vacío: %w", domain.ErrInvalidInput)
		}
		if seen[name] {
			return nil, fmt.Errorf("distribution: auditor duplicado %q: %w", name, domain.ErrInvalidInput)
		}
		seen[name] = true
		plan.Assignments = append(plan.Assignments, &entity.AuditorAssignment{Auditor: name, TotalValue: decimal.Zero})
	}

	items := make([]weighted, 0, len(invoices))
	for _, inv := range invoices {
		items = append(items, weighted{inv: inv, value: b.value(inv)})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].value.GreaterThan(items[j].value)
	})

	for _, it := range items {
		target := lightest(plan.Assignments)
		target.Invoices = append(target.Invoices, it.inv)
		target.TotalValue = target.TotalValue.Add(it.value)
		target.TotalCount++
	}
	return plan, nil
}

// value interpreta vl_TotalDoc; texto no numérico cuenta como cero.
func (b *Balancer) value(inv *entity.Invoice) decimal.Decimal {
	v, ok := ptu.ParseValue(inv.TotalValueText)
	if !ok {
		b.log.Warn().
			Str("fatura", inv.InvoiceNumber).
			Str("valor", inv.TotalValueText).
			Msg("valor de factura no numérico, se distribuye como 0")
		return decimal.Zero
	}
	return v
}

// lightest primer auditor (orden de entrada) con menor valor total y, a igualdad, menor cantidad.
func lightest(assignments []*entity.AuditorAssignment) *entity.AuditorAssignment {
	best := assignments[0]
	for _, a := range assignments[1:] {
		switch a.TotalValue.Cmp(best.TotalValue) {
		case -1:
			best = a
		case 0:
			if a.TotalCount < best.TotalCount {
				best = a
			}
		}
	}
	return best
}
