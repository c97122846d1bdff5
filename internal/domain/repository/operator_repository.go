package repository

import "github.com/jhoicas/ptu-audit/internal/domain/entity"

// OperatorRepository puerto de lectura de operadores del API.
type OperatorRepository interface {
	FindByEmail(email string) (*entity.Operator, error)
}
