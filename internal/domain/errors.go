package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("operador no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrUnreadableDocument = errors.New("documento PTU ilegible: cabecera sin datos")
	ErrDocumentNotFound   = errors.New("no hay documento .051 en el archivo")
	ErrDigestFailed       = errors.New("no fue posible calcular el hash del documento")
	ErrEmptyDistribution  = errors.New("lista de facturas o de auditores vacía")
	ErrNoSession          = errors.New("no hay importación activa")
)
