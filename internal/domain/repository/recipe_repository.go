package repository

import (
	"context"

	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
)

// RecipeSummary nom de recette et nombre de lignes.
type RecipeSummary struct {
	Name  string
	Lines int
}

// RecipeRepository lignes de nomenclature, regroupées par nom de produit fini (comparaison insensible à la casse et aux accents).
type RecipeRepository interface {
	CreateLine(ctx context.Context, line *entity.RecipeLine) error
	GetLine(ctx context.Context, id string) (*entity.RecipeLine, error)
	UpdateLine(ctx context.Context, line *entity.RecipeLine) error
	DeleteLine(ctx context.Context, id string) error
	ListLines(ctx context.Context, recipeName string) ([]*entity.RecipeLine, error)
	ListRecipes(ctx context.Context) ([]RecipeSummary, error)
}
