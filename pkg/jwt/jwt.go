package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity operador autenticado tal como viaja en el token.
type Identity struct {
	Email string `json:"email"`
	Role  string `json:"role"` // "admin" | "auditor"
	Name  string `json:"name,omitempty"`
}

// Claims claims estándar más la identidad del operador.
// El middleware RBAC decide con Role sin consultar la configuración.
type Claims struct {
	jwt.RegisteredClaims
	Identity
}

var errEmptySecret = errors.New("jwt: secret vacío")

// Generate firma un token HS256 para el operador; el subject es su email.
func Generate(secret, issuer string, expMinutes int, id Identity) (string, error) {
	if secret == "" {
		return "", errEmptySecret
	}
	if id.Email == "" {
		return "", fmt.Errorf("jwt: operador sin email")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		Identity: id,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Parse valida firma y expiración y devuelve la identidad del operador.
// Un token cuyo subject no coincide con el email es inválido.
func Parse(secret, tokenString string) (Identity, error) {
	if secret == "" {
		return Identity{}, errEmptySecret
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid || claims.Email == "" || claims.Subject != claims.Email {
		return Identity{}, fmt.Errorf("jwt: claims inválidos")
	}
	return claims.Identity, nil
}
