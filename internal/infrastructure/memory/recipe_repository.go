package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/inventory"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

var _ repository.RecipeRepository = (*RecipeRepo)(nil)

// RecipeRepo lignes de recette en mémoire.
type RecipeRepo struct {
	h handle
}

func (r *RecipeRepo) CreateLine(_ context.Context, line *entity.RecipeLine) error {
	return r.h.do(func(st *state) error {
		if _, ok := st.products[line.IngredientID]; !ok {
			return domain.ErrNotFound
		}
		key := inventory.NormalizeName(line.RecipeName)
		for _, l := range st.recipeLines {
			if l.IngredientID == line.IngredientID && inventory.NormalizeName(l.RecipeName) == key {
				return domain.ErrDuplicate
			}
		}
		st.recipeLines[line.ID] = *line
		return nil
	})
}

func (r *RecipeRepo) GetLine(_ context.Context, id string) (*entity.RecipeLine, error) {
	var out *entity.RecipeLine
	err := r.h.do(func(st *state) error {
		if l, ok := st.recipeLines[id]; ok {
			out = &l
		}
		return nil
	})
	return out, err
}

func (r *RecipeRepo) UpdateLine(_ context.Context, line *entity.RecipeLine) error {
	return r.h.do(func(st *state) error {
		l, ok := st.recipeLines[line.ID]
		if !ok {
			return domain.ErrNotFound
		}
		l.QuantityPerUnit = line.QuantityPerUnit
		st.recipeLines[line.ID] = l
		return nil
	})
}

func (r *RecipeRepo) DeleteLine(_ context.Context, id string) error {
	return r.h.do(func(st *state) error {
		if _, ok := st.recipeLines[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.recipeLines, id)
		return nil
	})
}

func (r *RecipeRepo) ListLines(_ context.Context, recipeName string) ([]*entity.RecipeLine, error) {
	key := inventory.NormalizeName(recipeName)
	var out []*entity.RecipeLine
	err := r.h.do(func(st *state) error {
		for _, l := range st.recipeLines {
			if inventory.NormalizeName(l.RecipeName) == key {
				l := l
				out = append(out, &l)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].ID < out[j].ID
			}
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
		return nil
	})
	return out, err
}

func (r *RecipeRepo) ListRecipes(_ context.Context) ([]repository.RecipeSummary, error) {
	var out []repository.RecipeSummary
	err := r.h.do(func(st *state) error {
		idx := map[string]int{}
		for _, l := range st.recipeLines {
			key := inventory.NormalizeName(l.RecipeName)
			i, ok := idx[key]
			if !ok {
				idx[key] = len(out)
				out = append(out, repository.RecipeSummary{Name: l.RecipeName})
				i = len(out) - 1
			}
			out[i].Lines++
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}
