package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/inventory"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

// RecipeLineInput ajout ou modification d'une ligne de recette.
type RecipeLineInput struct {
	RecipeName      string
	IngredientID    string
	QuantityPerUnit decimal.Decimal
	Actor           entity.Actor
}

// RecipeUseCase administration et consultation des recettes. Écriture réservée à l'administrateur.
type RecipeUseCase struct {
	repos    repository.Repos
	resolver *RecipeResolver
	now      func() time.Time
}

// NewRecipeUseCase construit le cas d'usage sur des dépôts hors transaction.
func NewRecipeUseCase(repos repository.Repos, resolver *RecipeResolver) *RecipeUseCase {
	return &RecipeUseCase{repos: repos, resolver: resolver, now: time.Now}
}

// List noms de recettes et nombre de lignes.
func (uc *RecipeUseCase) List(ctx context.Context) ([]repository.RecipeSummary, error) {
	return uc.repos.Recipes.ListRecipes(ctx)
}

// Get recette résolue.
func (uc *RecipeUseCase) Get(ctx context.Context, name string) (*entity.Recipe, error) {
	return uc.resolver.Resolve(ctx, uc.repos, name)
}

// Cost coût des ingrédients pour qty unités.
func (uc *RecipeUseCase) Cost(ctx context.Context, name string, qty decimal.Decimal) (decimal.Decimal, error) {
	if !qty.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: la quantité doit être positive", domain.ErrInvalidInput)
	}
	return uc.resolver.IngredientCost(ctx, uc.repos, name, qty)
}

// Availability besoins et manques pour qty unités.
func (uc *RecipeUseCase) Availability(ctx context.Context, name string, qty decimal.Decimal) (*Availability, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("%w: la quantité doit être positive", domain.ErrInvalidInput)
	}
	return uc.resolver.Availability(ctx, uc.repos, name, qty)
}

// AddLine ajoute un ingrédient à une recette. ErrDuplicate si l'ingrédient y figure déjà.
func (uc *RecipeUseCase) AddLine(ctx context.Context, in RecipeLineInput) (*entity.RecipeLine, error) {
	if !entity.HasRole(in.Actor, entity.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	name := inventory.CleanName(in.RecipeName)
	if name == "" || strings.TrimSpace(in.IngredientID) == "" {
		return nil, fmt.Errorf("%w: recette et ingrédient requis", domain.ErrInvalidInput)
	}
	if !in.QuantityPerUnit.IsPositive() {
		return nil, fmt.Errorf("%w: quantité nécessaire positive requise", domain.ErrInvalidInput)
	}
	ing, err := uc.repos.Products.GetByID(ctx, in.IngredientID)
	if err != nil {
		return nil, err
	}
	if ing == nil {
		return nil, fmt.Errorf("%w: ingrédient %s", domain.ErrNotFound, in.IngredientID)
	}
	if inventory.NormalizeName(ing.Name) == inventory.NormalizeName(name) {
		return nil, fmt.Errorf("%w: une recette ne peut pas se contenir elle-même", domain.ErrInvalidInput)
	}
	line := &entity.RecipeLine{
		ID:              uuid.New().String(),
		RecipeName:      name,
		IngredientID:    in.IngredientID,
		QuantityPerUnit: in.QuantityPerUnit,
		CreatedAt:       uc.now(),
	}
	if err := uc.repos.Recipes.CreateLine(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

// UpdateLine modifie la quantité nécessaire d'une ligne.
func (uc *RecipeUseCase) UpdateLine(ctx context.Context, id string, in RecipeLineInput) (*entity.RecipeLine, error) {
	if !entity.HasRole(in.Actor, entity.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	if !in.QuantityPerUnit.IsPositive() {
		return nil, fmt.Errorf("%w: quantité nécessaire positive requise", domain.ErrInvalidInput)
	}
	line, err := uc.repos.Recipes.GetLine(ctx, id)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, fmt.Errorf("%w: ligne de recette %s", domain.ErrNotFound, id)
	}
	line.QuantityPerUnit = in.QuantityPerUnit
	if err := uc.repos.Recipes.UpdateLine(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

// DeleteLine supprime une ligne de recette.
func (uc *RecipeUseCase) DeleteLine(ctx context.Context, actor entity.Actor, id string) error {
	if !entity.HasRole(actor, entity.RoleAdmin) {
		return domain.ErrForbidden
	}
	return uc.repos.Recipes.DeleteLine(ctx, id)
}
