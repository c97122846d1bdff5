package dto

import (
	"github.com/jhoicas/ptu-audit/internal/domain/entity"
	"github.com/jhoicas/ptu-audit/internal/domain/ptu"
)

// ImportRequest carpeta con los ZIP de facturas (ruta en el servidor).
type ImportRequest struct {
	Folder string `json:"folder" validate:"required"`
}

// DistributeRequest nombres de los auditores, en el orden de la distribución.
type DistributeRequest struct {
	Auditors []string `json:"auditors" validate:"required,min=1,dive,required"`
}

// CorrectionRequest auditor cuyos XML se preparan para corrección.
type CorrectionRequest struct {
	Auditor string `json:"auditor" validate:"required"`
}

// HashRequest ruta del .051 dentro de Correção XML/<auditor>.
type HashRequest struct {
	XMLPath string `json:"xml_path" validate:"required"`
}

// GuideResponse guía de internación relevante.
type GuideResponse struct {
	GuideNumber     string `json:"guide_number"`
	BeneficiaryCode string `json:"beneficiary_code"`
	BeneficiaryName string `json:"beneficiary_name"`
	AdmissionType   string `json:"admission_type"`
	FilterValue     string `json:"filter_value"`
	RealTotalValue  string `json:"real_total_value"`
}

// InvoiceResponse factura importada.
type InvoiceResponse struct {
	InvoiceNumber string          `json:"invoice_number"`
	Competence    string          `json:"competence"`
	BranchCode    string          `json:"branch_code"`
	BranchName    string          `json:"branch_name"`
	IssueDate     string          `json:"issue_date"`
	DueDate       string          `json:"due_date"`
	TotalValue    string          `json:"total_value"`
	ArchiveName   string          `json:"archive_name"`
	Fingerprint   string          `json:"fingerprint,omitempty"`
	Mutations     int             `json:"mutations"`
	Guides        []GuideResponse `json:"guides,omitempty"`
}

// AssignmentResponse facturas y totales de un auditor.
type AssignmentResponse struct {
	Auditor    string            `json:"auditor"`
	TotalValue string            `json:"total_value"`
	TotalCount int               `json:"total_count"`
	Invoices   []InvoiceResponse `json:"invoices"`
}

// SessionResponse estado de la importación activa.
type SessionResponse struct {
	Folder   string               `json:"folder"`
	RunID    string               `json:"run_id"`
	Invoices []InvoiceResponse    `json:"invoices"`
	Plan     []AssignmentResponse `json:"plan,omitempty"`
}

// FromInvoice mapea la entidad; los valores se formatean con coma decimal.
func FromInvoice(inv *entity.Invoice) InvoiceResponse {
	out := InvoiceResponse{
		InvoiceNumber: inv.InvoiceNumber,
		Competence:    inv.Competence,
		BranchCode:    inv.DestinationBranchCode,
		BranchName:    inv.DestinationBranchName,
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		TotalValue:    ptu.FormatValue(inv.TotalValue),
		ArchiveName:   inv.SourceArchiveName,
		Fingerprint:   inv.Fingerprint,
		Mutations:     inv.Mutations.Total(),
	}
	for _, g := range inv.RelevantGuides {
		out.Guides = append(out.Guides, GuideResponse{
			GuideNumber:     g.GuideNumber,
			BeneficiaryCode: g.BeneficiaryCode,
			BeneficiaryName: g.BeneficiaryName,
			AdmissionType:   g.AdmissionType,
			FilterValue:     ptu.FormatValue(g.FilterValue),
			RealTotalValue:  ptu.FormatValue(g.RealTotalValue),
		})
	}
	return out
}

// FromInvoices mapea una lista de facturas.
func FromInvoices(invoices []*entity.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, FromInvoice(inv))
	}
	return out
}

// FromPlan mapea el plan de distribución; nil devuelve nil.
func FromPlan(plan *entity.DistributionPlan) []AssignmentResponse {
	if plan == nil {
		return nil
	}
	out := make([]AssignmentResponse, 0, len(plan.Assignments))
	for _, a := range plan.Assignments {
		out = append(out, AssignmentResponse{
			Auditor:    a.Auditor,
			TotalValue: ptu.FormatValue(a.TotalValue),
			TotalCount: a.TotalCount,
			Invoices:   FromInvoices(a.Invoices),
		})
	}
	return out
}
