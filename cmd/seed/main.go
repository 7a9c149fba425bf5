// seed importe un catalogue d'achats et des recettes depuis des exports CSV (séparateur ';').
//
// Usage: go run ./cmd/seed achats.csv [recettes.csv]
//
//	achats.csv:   nom;unite;quantite;prix_unitaire;fournisseur
//	recettes.csv: recette;ingredient;quantite_par_unite
//
// Les fichiers en ISO-8859-1 (exports tableur) sont convertis en UTF-8.
// Chaque ligne passe par les mêmes cas d'usage que l'API: mouvements journalisés, coût moyen pondéré.
package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/boulangerie-api/internal/application/inventory"
	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/infrastructure/postgres"
	"github.com/jhoicas/boulangerie-api/pkg/config"
	"github.com/jhoicas/boulangerie-api/pkg/logger"
)

type purchaseRow struct {
	line      int
	name      string
	unit      string
	quantity  decimal.Decimal
	unitPrice decimal.Decimal
	supplier  string
}

type recipeRow struct {
	line       int
	recipe     string
	ingredient string
	perUnit    decimal.Decimal
}

var seedActor = entity.Actor{ID: "seed", Name: "import", Role: entity.RoleAdmin}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: seed achats.csv [recettes.csv]")
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Charger la configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Named("seed")

	purchases, err := readFile(os.Args[1], parsePurchases)
	if err != nil {
		log.Fatal().Err(err).Str("file", os.Args[1]).Msg("lecture des achats")
	}
	var recipes []recipeRow
	if len(os.Args) > 2 {
		if recipes, err = readFile(os.Args[2], parseRecipes); err != nil {
			log.Fatal().Err(err).Str("file", os.Args[2]).Msg("lecture des recettes")
		}
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("connexion PostgreSQL")
	}
	defer pool.Close()

	tx := postgres.NewTxRunner(pool)
	repos := postgres.NewRepos(pool)
	ledger := inventory.NewLedger()
	recorder := inventory.NewMovementRecorder(log)
	purchaseUC := inventory.NewPurchaseUseCase(tx, ledger, recorder, nil, log)
	recipeUC := inventory.NewRecipeUseCase(repos, inventory.NewRecipeResolver(ledger))

	for _, row := range purchases {
		res, err := purchaseUC.ReceivePurchase(ctx, inventory.PurchaseInput{
			Name:      row.name,
			Unit:      row.unit,
			Quantity:  row.quantity,
			UnitPrice: row.unitPrice,
			Supplier:  row.supplier,
			Actor:     seedActor,
		})
		if err != nil {
			log.Fatal().Err(err).Int("line", row.line).Str("name", row.name).Msg("réception d'achat")
		}
		log.Info().Str("product", res.Product.Name).Bool("created", res.Created).Str("unit_cost", res.UnitCost.StringFixed(2)).Msg("achat importé")
	}

	added, skipped := 0, 0
	for _, row := range recipes {
		ingredient, err := repos.Products.GetByName(ctx, row.ingredient)
		if err != nil {
			log.Fatal().Err(err).Int("line", row.line).Msg("recherche de l'ingrédient")
		}
		if ingredient == nil {
			log.Fatal().Int("line", row.line).Str("ingredient", row.ingredient).Msg("ingrédient inconnu, l'importer d'abord comme achat")
		}
		_, err = recipeUC.AddLine(ctx, inventory.RecipeLineInput{
			RecipeName:      row.recipe,
			IngredientID:    ingredient.ID,
			QuantityPerUnit: row.perUnit,
			Actor:           seedActor,
		})
		if errors.Is(err, domain.ErrDuplicate) {
			skipped++
			continue
		}
		if err != nil {
			log.Fatal().Err(err).Int("line", row.line).Str("recipe", row.recipe).Msg("ajout de ligne de recette")
		}
		added++
	}

	fmt.Printf("Importé: %d achats, %d lignes de recette (%d déjà présentes)\n", len(purchases), added, skipped)
}

func readFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(utf8Reader(raw))
}

// utf8Reader décode en ISO-8859-1 tout contenu qui n'est pas de l'UTF-8 valide.
func utf8Reader(raw []byte) io.Reader {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if utf8.Valid(raw) {
		return bytes.NewReader(raw)
	}
	return transform.NewReader(bytes.NewReader(raw), charmap.ISO8859_1.NewDecoder())
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

// parseDecimal accepte la virgule décimale ("0,5").
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	return decimal.NewFromString(strings.Replace(s, ",", ".", 1))
}

func isHeader(record []string, first string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), first)
}

func parsePurchases(r io.Reader) ([]purchaseRow, error) {
	cr := newCSVReader(r)
	var out []purchaseRow
	for line := 1; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("ligne %d: %w", line, err)
		}
		if line == 1 && isHeader(record, "nom") {
			continue
		}
		if len(record) < 4 {
			return nil, fmt.Errorf("ligne %d: 4 colonnes minimum (nom;unite;quantite;prix_unitaire)", line)
		}
		qty, err := parseDecimal(record[2])
		if err != nil {
			return nil, fmt.Errorf("ligne %d: quantité %q: %w", line, record[2], err)
		}
		price, err := parseDecimal(record[3])
		if err != nil {
			return nil, fmt.Errorf("ligne %d: prix %q: %w", line, record[3], err)
		}
		row := purchaseRow{
			line:      line,
			name:      strings.TrimSpace(record[0]),
			unit:      strings.TrimSpace(record[1]),
			quantity:  qty,
			unitPrice: price,
		}
		if len(record) > 4 {
			row.supplier = strings.TrimSpace(record[4])
		}
		out = append(out, row)
	}
}

func parseRecipes(r io.Reader) ([]recipeRow, error) {
	cr := newCSVReader(r)
	var out []recipeRow
	for line := 1; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("ligne %d: %w", line, err)
		}
		if line == 1 && isHeader(record, "recette") {
			continue
		}
		if len(record) < 3 {
			return nil, fmt.Errorf("ligne %d: 3 colonnes attendues (recette;ingredient;quantite_par_unite)", line)
		}
		perUnit, err := parseDecimal(record[2])
		if err != nil {
			return nil, fmt.Errorf("ligne %d: quantité %q: %w", line, record[2], err)
		}
		out = append(out, recipeRow{
			line:       line,
			recipe:     strings.TrimSpace(record[0]),
			ingredient: strings.TrimSpace(record[1]),
			perUnit:    perUnit,
		})
	}
}
