// Package operators expone los operadores del API definidos en la configuración (AUDIT_OPERATORS).
package operators

import (
	"strings"

	"github.com/jhoicas/ptu-audit/internal/domain"
	"github.com/jhoicas/ptu-audit/internal/domain/entity"
	"github.com/jhoicas/ptu-audit/internal/domain/repository"
	"github.com/jhoicas/ptu-audit/pkg/config"
)

var _ repository.OperatorRepository = (*StaticRepo)(nil)

// StaticRepo operadores en memoria indexados por email (minúsculas).
type StaticRepo struct {
	byEmail map[string]entity.Operator
}

// NewStaticRepository construye el repositorio a partir de la configuración.
func NewStaticRepository(ops []config.OperatorConfig) *StaticRepo {
	m := make(map[string]entity.Operator, len(ops))
	for _, o := range ops {
		email := strings.ToLower(strings.TrimSpace(o.Email))
		m[email] = entity.Operator{Email: email, PasswordHash: o.PasswordHash, Role: o.Role, Name: o.Name}
	}
	return &StaticRepo{byEmail: m}
}

// FindByEmail devuelve ErrUserNotFound si el email no está configurado.
func (r *StaticRepo) FindByEmail(email string) (*entity.Operator, error) {
	op, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &op, nil
}
