package entity

// Roles válidos para Operator.
const (
	RoleAdmin   = "admin"   // importa y distribuye
	RoleAuditor = "auditor" // prepara corrección y sustituye hash
)

// Operator usuario del API de auditoría (definido por configuración).
type Operator struct {
	Email        string
	PasswordHash string // bcrypt
	Role         string
	Name         string // nombre para mostrar; vacío usa el email
}

// DisplayName nombre del operador en respuestas y tokens.
func (o Operator) DisplayName() string {
	if o.Name != "" {
		return o.Name
	}
	return o.Email
}
