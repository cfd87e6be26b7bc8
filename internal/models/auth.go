package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims carries the identity contract supplied by the external
// identity provider: who the caller is, their role, and their department.
type JWTClaims struct {
	UserID       string   `json:"user_id"`
	Role         UserRole `json:"role"`
	DepartmentID string   `json:"department_id"`
	Email        string   `json:"email"`
	FullName     string   `json:"full_name"`
	jwt.RegisteredClaims
}
