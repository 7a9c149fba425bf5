package entity

import "time"

// Rôles valides.
const (
	RoleAdmin      = "admin"
	RoleGerant     = "gerant"
	RoleMagasinier = "magasinier"
	RoleVendeur    = "vendeur"
)

// ElevatedRoles rôles autorisés aux opérations sensibles (annulation, prix, ajustements).
var ElevatedRoles = []string{RoleAdmin, RoleGerant}

// StockRoles rôles autorisés à déplacer du stock.
var StockRoles = []string{RoleAdmin, RoleGerant, RoleMagasinier}

// User utilisateur du système.
type User struct {
	ID           string
	Email        string
	PasswordHash string // hash bcrypt
	Name         string
	Role         string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor identité de l'appelant courant (fournie par la session).
type Actor struct {
	ID   string
	Name string
	Role string
}

// HasRole vrai si l'acteur possède l'un des rôles.
func HasRole(actor Actor, roles ...string) bool {
	if actor.Role == "" {
		return false
	}
	for _, r := range roles {
		if actor.Role == r {
			return true
		}
	}
	return false
}

// IsElevated vrai pour admin et gérant.
func (a Actor) IsElevated() bool {
	return HasRole(a, ElevatedRoles...)
}
