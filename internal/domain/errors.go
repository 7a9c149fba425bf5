package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Erreurs du domaine (sans dépendance d'infrastructure).
var (
	ErrNotFound                   = errors.New("ressource introuvable")
	ErrInvalidInput               = errors.New("entrée invalide")
	ErrDuplicate                  = errors.New("ressource en double")
	ErrUnauthorized               = errors.New("non authentifié")
	ErrForbidden                  = errors.New("accès refusé")
	ErrConflict                   = errors.New("conflit avec l'état actuel")
	ErrInsufficientStock          = errors.New("stock insuffisant")
	ErrInsufficientIngredient     = errors.New("ingrédients insuffisants")
	ErrInvalidPayment             = errors.New("montant reçu insuffisant")
	ErrNotEligibleForCancellation = errors.New("vente non annulable")
	ErrPersistence                = errors.New("erreur de persistance")
)

// InsufficientStockError détaille un manque de stock sur une réserve.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Pool        string
	Requested   decimal.Decimal
	Available   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	if e.ProductName != "" {
		return fmt.Sprintf("Stock insuffisant pour %s, disponible: %s", e.ProductName, e.Available.String())
	}
	return fmt.Sprintf("Stock insuffisant, disponible: %s", e.Available.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// IngredientShortfall un ingrédient manquant pour une production.
type IngredientShortfall struct {
	IngredientID string
	Name         string
	Unit         string
	Required     decimal.Decimal
	Available    decimal.Decimal
	Missing      decimal.Decimal
}

// InsufficientIngredientError liste tous les ingrédients manquants d'une production.
type InsufficientIngredientError struct {
	Recipe     string
	Shortfalls []IngredientShortfall
}

func (e *InsufficientIngredientError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s (requis %s, disponible %s)", s.Name, s.Required.String(), s.Available.String()))
	}
	return fmt.Sprintf("Ingrédients insuffisants pour %s: %s", e.Recipe, strings.Join(parts, ", "))
}

func (e *InsufficientIngredientError) Unwrap() error { return ErrInsufficientIngredient }

// PaymentError paiement refusé: panier vide ou montant reçu inférieur au total.
type PaymentError struct {
	Total    decimal.Decimal
	Tendered decimal.Decimal
	Reason   string // renseigné quand le refus ne tient pas au montant
}

func (e *PaymentError) Error() string {
	if e.Reason != "" {
		return "Paiement refusé: " + e.Reason
	}
	return fmt.Sprintf("Montant reçu insuffisant: total %s, reçu %s", e.Total.String(), e.Tendered.String())
}

func (e *PaymentError) Unwrap() error { return ErrInvalidPayment }

// NotEligibleError raison pour laquelle une vente ne peut pas être annulée.
type NotEligibleError struct {
	Reason string
}

func (e *NotEligibleError) Error() string { return e.Reason }

func (e *NotEligibleError) Unwrap() error { return ErrNotEligibleForCancellation }

// PersistenceError enveloppe une erreur de stockage avec l'opération en cours.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// Persistence construit une PersistenceError (nil si err est nil).
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
