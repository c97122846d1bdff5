package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ptu-audit/internal/application/audit"
	"github.com/jhoicas/ptu-audit/internal/application/auth"
	"github.com/jhoicas/ptu-audit/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	Audit     *audit.Service
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	protected.Get("/auth/me", authHandler.Me)

	auditGroup := protected.Group("/audit")
	auditHandler := NewAuditHandler(deps.Audit)
	auditGroup.Post("/import", RequireRole(entity.RoleAdmin), auditHandler.Import)
	auditGroup.Post("/distribute", RequireRole(entity.RoleAdmin), auditHandler.Distribute)
	auditGroup.Get("/session", RequireRole(entity.RoleAdmin, entity.RoleAuditor), auditHandler.Session)
	auditGroup.Post("/correction", RequireRole(entity.RoleAdmin, entity.RoleAuditor), auditHandler.PrepareCorrection)
	auditGroup.Post("/hash", RequireRole(entity.RoleAdmin, entity.RoleAuditor), auditHandler.SubstituteHash)
}
