package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/inventory"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

var _ repository.RecipeRepository = (*RecipeRepo)(nil)

const recipeColumns = `id, nom_produit, ingredient_id, quantite_necessaire, created_at`

// RecipeRepo lignes de recette sur PostgreSQL.
type RecipeRepo struct {
	q Querier
}

// NewRecipeRepository construit l'adaptateur. Passer pool ou tx (Querier).
func NewRecipeRepository(q Querier) *RecipeRepo {
	return &RecipeRepo{q: q}
}

func scanRecipeLine(row pgx.Row) (*entity.RecipeLine, error) {
	var l entity.RecipeLine
	if err := row.Scan(&l.ID, &l.RecipeName, &l.IngredientID, &l.QuantityPerUnit, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateLine ErrDuplicate si l'ingrédient figure déjà dans la recette, ErrNotFound si l'ingrédient n'existe pas.
func (r *RecipeRepo) CreateLine(ctx context.Context, line *entity.RecipeLine) error {
	query := `
		INSERT INTO recettes (id, nom_produit, nom_produit_normalise, ingredient_id, quantite_necessaire, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query,
		line.ID, line.RecipeName, inventory.NormalizeName(line.RecipeName),
		line.IngredientID, line.QuantityPerUnit, line.CreatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isForeignKeyViolation(err):
			return domain.ErrNotFound
		}
		return domain.Persistence("insert recipe line", err)
	}
	return nil
}

func (r *RecipeRepo) GetLine(ctx context.Context, id string) (*entity.RecipeLine, error) {
	l, err := scanRecipeLine(r.q.QueryRow(ctx, `SELECT `+recipeColumns+` FROM recettes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Persistence("get recipe line", err)
	}
	return l, nil
}

// UpdateLine seule la quantité par unité est modifiable.
func (r *RecipeRepo) UpdateLine(ctx context.Context, line *entity.RecipeLine) error {
	tag, err := r.q.Exec(ctx, `UPDATE recettes SET quantite_necessaire = $2 WHERE id = $1`, line.ID, line.QuantityPerUnit)
	if err != nil {
		return domain.Persistence("update recipe line", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RecipeRepo) DeleteLine(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM recettes WHERE id = $1`, id)
	if err != nil {
		return domain.Persistence("delete recipe line", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListLines lignes d'une recette dans l'ordre de saisie.
func (r *RecipeRepo) ListLines(ctx context.Context, recipeName string) ([]*entity.RecipeLine, error) {
	query := `
		SELECT ` + recipeColumns + `
		FROM recettes
		WHERE nom_produit_normalise = $1
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, inventory.NormalizeName(recipeName))
	if err != nil {
		return nil, domain.Persistence("list recipe lines", err)
	}
	defer rows.Close()
	var list []*entity.RecipeLine
	for rows.Next() {
		l, err := scanRecipeLine(rows)
		if err != nil {
			return nil, domain.Persistence("scan recipe line", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// ListRecipes une entrée par recette avec son nombre de lignes.
func (r *RecipeRepo) ListRecipes(ctx context.Context) ([]repository.RecipeSummary, error) {
	query := `
		SELECT MIN(nom_produit), COUNT(*)
		FROM recettes
		GROUP BY nom_produit_normalise
		ORDER BY MIN(nom_produit)`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, domain.Persistence("list recipes", err)
	}
	defer rows.Close()
	var list []repository.RecipeSummary
	for rows.Next() {
		var s repository.RecipeSummary
		if err := rows.Scan(&s.Name, &s.Lines); err != nil {
			return nil, domain.Persistence("scan recipe", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
