package dto

// ErrorResponse cuerpo de error HTTP. Phase sólo viene en fallas del flujo de auditoría.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Phase   string `json:"phase,omitempty"`
}
