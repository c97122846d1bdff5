package distribution_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ptu-audit/internal/domain"
	"github.com/jhoicas/ptu-audit/internal/domain/distribution"
	"github.com/jhoicas/ptu-audit/internal/domain/entity"
)

func facturas(valores ...string) []*entity.Invoice {
	out := make([]*entity.Invoice, 0, len(valores))
	for i, v := range valores {
		out = append(out, &entity.Invoice{InvoiceNumber: string(rune('A' + i)), TotalValueText: v})
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Ejemplo de siete facturas (una con valor ilegible)
// ─────────────────────────────────────────────────────────────────────────────

func TestDistribute_SieteFacturasDosAuditores(t *testing.T) {
	b := distribution.NewBalancer(zerolog.Nop())
	invoices := facturas("1500.50", "300.00", "1200.75", "800.00", "850.25", "300.00", "X100.00")

	plan, err := b.Distribute(invoices, []string{"Pedro", "Colega"})
	require.NoError(t, err)
	require.Len(t, plan.Assignments, 2)

	assert.Equal(t, 7, plan.InvoiceCount())
	assert.True(t, plan.TotalValue().Equal(decimal.RequireFromString("4951.50")))

	pedro, colega := plan.Get("Pedro"), plan.Get("Colega")
	require.NotNil(t, pedro)
	require.NotNil(t, colega)
	// 1500.50 P, 1200.75 C, 850.25 C, 800 P, 300 C, 300 P, 0 C
	assert.True(t, pedro.TotalValue.Equal(decimal.RequireFromString("2600.50")), pedro.TotalValue.String())
	assert.True(t, colega.TotalValue.Equal(decimal.RequireFromString("2351.00")), colega.TotalValue.String())
	assert.Equal(t, 3, pedro.TotalCount)
	assert.Equal(t, 4, colega.TotalCount)

	diff := pedro.TotalValue.Sub(colega.TotalValue).Abs()
	assert.True(t, diff.LessThanOrEqual(decimal.RequireFromString("1500.50")))
}

// ─────────────────────────────────────────────────────────────────────────────
// Propiedades: partición completa, conservación y cota de balance
// ─────────────────────────────────────────────────────────────────────────────

func TestDistribute_ParticionYConservacion(t *testing.T) {
	b := distribution.NewBalancer(zerolog.Nop())
	casos := [][]string{
		{"10"},
		{"5,50", "5,50", "5,50"},
		{"1000", "1", "1", "1", "1", "1", "1", "1"},
		{"0", "0", "0", "0"},
		{"99.99", "250", "13.37", "1000.01", "42", "7", "600", "600", "0,01"},
	}
	auditores := [][]string{{"A"}, {"A", "B"}, {"A", "B", "C"}, {"A", "B", "C", "D", "E"}}

	for _, valores := range casos {
		for _, nombres := range auditores {
			invoices := facturas(valores...)
			plan, err := b.Distribute(invoices, nombres)
			require.NoError(t, err)

			vistos := map[*entity.Invoice]int{}
			suma, esperado, mayor := decimal.Zero, decimal.Zero, decimal.Zero
			for _, a := range plan.Assignments {
				for _, inv := range a.Invoices {
					vistos[inv]++
				}
				suma = suma.Add(a.TotalValue)
				assert.Equal(t, len(a.Invoices), a.TotalCount)
			}
			for _, inv := range invoices {
				assert.Equal(t, 1, vistos[inv], "factura %s asignada una sola vez", inv.InvoiceNumber)
				v, _ := decimal.NewFromString(replaceComma(inv.TotalValueText))
				esperado = esperado.Add(v)
				if v.GreaterThan(mayor) {
					mayor = v
				}
			}
			assert.True(t, suma.Equal(esperado), "suma %s != %s", suma, esperado)
			assert.Equal(t, len(invoices), plan.InvoiceCount())

			max, min := plan.Assignments[0].TotalValue, plan.Assignments[0].TotalValue
			for _, a := range plan.Assignments {
				if a.TotalValue.GreaterThan(max) {
					max = a.TotalValue
				}
				if a.TotalValue.LessThan(min) {
					min = a.TotalValue
				}
			}
			assert.True(t, max.Sub(min).LessThanOrEqual(mayor), "desbalance %s > %s", max.Sub(min), mayor)
		}
	}
}

func replaceComma(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r == ',' {
			out[i] = '.'
		}
	}
	return string(out)
}

func TestDistribute_EmpateUsaCantidadYOrden(t *testing.T) {
	b := distribution.NewBalancer(zerolog.Nop())
	plan, err := b.Distribute(facturas("0", "0", "0"), []string{"Ana", "Bia"})
	require.NoError(t, err)
	assert.Equal(t, 2, plan.Get("Ana").TotalCount)
	assert.Equal(t, 1, plan.Get("Bia").TotalCount)
	assert.Equal(t, "A", plan.Get("Ana").Invoices[0].InvoiceNumber)
}

// ─────────────────────────────────────────────────────────────────────────────
// Errores
// ─────────────────────────────────────────────────────────────────────────────

func TestDistribute_EntradasVacias(t *testing.T) {
	b := distribution.NewBalancer(zerolog.Nop())

	_, err := b.Distribute(nil, []string{"A"})
	assert.ErrorIs(t, err, domain.ErrEmptyDistribution)

	_, err = b.Distribute(facturas("1"), nil)
	assert.ErrorIs(t, err, domain.ErrEmptyDistribution)
}

func TestDistribute_AuditoresInvalidos(t *testing.T) {
	b := distribution.NewBalancer(zerolog.Nop())

	_, err := b.Distribute(facturas("1"), []string{"A", " "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = b.Distribute(facturas("1"), []string{"A", "A"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
