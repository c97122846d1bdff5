package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ptu-audit/internal/application/audit"
	"github.com/jhoicas/ptu-audit/internal/application/dto"
	"github.com/jhoicas/ptu-audit/internal/infrastructure/workspace"
)

// AuditHandler expone el flujo de auditoría (importar, distribuir, corrección, hash).
type AuditHandler struct {
	svc *audit.Service
}

// NewAuditHandler construye el handler.
func NewAuditHandler(svc *audit.Service) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// DistributeResponse plan y artefactos de la distribución.
type DistributeResponse struct {
	Plan       []dto.AssignmentResponse  `json:"plan"`
	Organize   *workspace.OrganizeReport `json:"organize"`
	ReportPath string                    `json:"report_path,omitempty"`
	Sheets     map[string]string         `json:"sheets,omitempty"`
	Warnings   []string                  `json:"warnings,omitempty"`
	Persisted  bool                      `json:"persisted"`
}

// Import godoc
// @Summary      Importar carpeta de faturas
// @Tags         audit
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.ImportRequest  true  "carpeta en el servidor"
// @Success      200   {object}  audit.ImportSummary
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/audit/import [post]
func (h *AuditHandler) Import(c *fiber.Ctx) error {
	var in dto.ImportRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	sum, err := h.svc.Import(c.UserContext(), in.Folder)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sum)
}

// Distribute godoc
// @Summary      Distribuir faturas entre auditores
// @Tags         audit
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.DistributeRequest  true  "auditores"
// @Success      200   {object}  DistributeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/audit/distribute [post]
func (h *AuditHandler) Distribute(c *fiber.Ctx) error {
	var in dto.DistributeRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	sum, err := h.svc.Distribute(c.UserContext(), in.Auditors)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(DistributeResponse{
		Plan:       dto.FromPlan(sum.Plan),
		Organize:   sum.Organize,
		ReportPath: sum.ReportPath,
		Sheets:     sum.Sheets,
		Warnings:   sum.Warnings,
		Persisted:  sum.Persisted,
	})
}

// Session godoc
// @Summary      Estado de la importación activa
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  dto.SessionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/audit/session [get]
func (h *AuditHandler) Session(c *fiber.Ctx) error {
	s := h.svc.Session()
	if s.Folder == "" {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NO_SESSION", Message: "no hay importación activa"})
	}
	return c.JSON(dto.SessionResponse{
		Folder:   s.Folder,
		RunID:    s.RunID,
		Invoices: dto.FromInvoices(s.Invoices),
		Plan:     dto.FromPlan(s.Plan),
	})
}

// PrepareCorrection godoc
// @Summary      Extraer XML del auditor para corrección
// @Tags         audit
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CorrectionRequest  true  "auditor"
// @Success      200   {object}  audit.CorrectionSummary
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/audit/correction [post]
func (h *AuditHandler) PrepareCorrection(c *fiber.Ctx) error {
	var in dto.CorrectionRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	sum, err := h.svc.PrepareCorrection(c.UserContext(), in.Auditor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sum)
}

// SubstituteHash godoc
// @Summary      Recalcular hash y generar ZIP en Validação CMB
// @Tags         audit
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.HashRequest  true  "ruta del .051"
// @Success      200   {object}  audit.HashResult
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/audit/hash [post]
func (h *AuditHandler) SubstituteHash(c *fiber.Ctx) error {
	var in dto.HashRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	res, err := h.svc.SubstituteHash(c.UserContext(), in.XMLPath)
	if err != nil {
		msg := ""
		if res != nil {
			msg = res.Message
		}
		status, body := errorBody(err, msg)
		return c.Status(status).JSON(body)
	}
	return c.JSON(res)
}
