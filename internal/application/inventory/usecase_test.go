package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/boulangerie-api/internal/application/inventory"
	"github.com/jhoicas/boulangerie-api/internal/application/pricing"
	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
	"github.com/jhoicas/boulangerie-api/internal/infrastructure/cache"
	"github.com/jhoicas/boulangerie-api/internal/infrastructure/memory"
	"github.com/jhoicas/boulangerie-api/pkg/logger"
)

var (
	gerant     = entity.Actor{ID: "u-gerant", Name: "Moussa", Role: entity.RoleGerant}
	magasinier = entity.Actor{ID: "u-mag", Name: "Fatou", Role: entity.RoleMagasinier}
	vendeur    = entity.Actor{ID: "u-vend", Name: "Ibou", Role: entity.RoleVendeur}
	admin      = entity.Actor{ID: "u-admin", Name: "Admin", Role: entity.RoleAdmin}
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	store    *memory.Store
	tx       *memory.TxRunner
	cache    *cache.MemoryStockCache
	ledger   *inventory.Ledger
	recorder *inventory.MovementRecorder
	resolver *inventory.RecipeResolver
	log      *logger.Logger
}

func newFixture() *fixture {
	store := memory.NewStore()
	ledger := inventory.NewLedger()
	return &fixture{
		store:    store,
		tx:       memory.NewTxRunner(store),
		cache:    cache.NewMemoryStockCache(),
		ledger:   ledger,
		recorder: inventory.NewMovementRecorder(logger.Nop()),
		resolver: inventory.NewRecipeResolver(ledger),
		log:      logger.Nop(),
	}
}

func (f *fixture) transfers() *inventory.TransferUseCase {
	return inventory.NewTransferUseCase(f.tx, f.ledger, f.recorder, f.cache, f.log)
}

func (f *fixture) queries() *inventory.StockQueryUseCase {
	return inventory.NewStockQueryUseCase(f.store.Repos(), f.ledger, f.cache, time.Minute, d("5"), f.log)
}

func (f *fixture) production() *inventory.ProductionUseCase {
	prices := pricing.NewPricingUseCase(f.tx, f.store.Repos(), f.resolver, f.cache, f.log)
	return inventory.NewProductionUseCase(f.tx, f.ledger, f.resolver, f.recorder, prices, f.cache, f.log)
}

func (f *fixture) balance(t *testing.T, productID string, pool entity.Pool) decimal.Decimal {
	t.Helper()
	b, err := f.ledger.Balance(context.Background(), f.store.Repos(), productID, pool)
	require.NoError(t, err)
	return b.Available
}

// seedBakery farine et sel en atelier, recette "Pain" = 0,25 kg farine + 0,01 kg sel.
func (f *fixture) seedBakery(t *testing.T, farine, sel string) {
	t.Helper()
	f.store.SeedProduct(entity.Product{ID: "farine", Name: "Farine", Unit: "kg", PurchasePrice: d("1000"), PurchasedQty: d("100"), Remaining: d("50")})
	f.store.SeedProduct(entity.Product{ID: "sel", Name: "Sel", Unit: "kg", PurchasePrice: d("50"), PurchasedQty: d("10"), Remaining: d("5")})
	f.store.SeedStock(entity.PoolWorkshop, "farine", d(farine))
	f.store.SeedStock(entity.PoolWorkshop, "sel", d(sel))

	recipes := inventory.NewRecipeUseCase(f.store.Repos(), f.resolver)
	_, err := recipes.AddLine(context.Background(), inventory.RecipeLineInput{RecipeName: "Pain", IngredientID: "farine", QuantityPerUnit: d("0.25"), Actor: admin})
	require.NoError(t, err)
	_, err = recipes.AddLine(context.Background(), inventory.RecipeLineInput{RecipeName: "Pain", IngredientID: "sel", QuantityPerUnit: d("0.01"), Actor: admin})
	require.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Grand livre
// ──────────────────────────────────────────────────────────────────────────────

func TestLedger_AdjustRefuseSoldeNegatif(t *testing.T) {
	f := newFixture()
	f.store.SeedProduct(entity.Product{ID: "p1", Name: "Croissant", Unit: "pièce"})
	f.store.SeedStock(entity.PoolShop, "p1", d("3"))

	err := f.tx.Run(context.Background(), func(r repository.Repos) error {
		_, err := f.ledger.Adjust(context.Background(), r, "p1", entity.PoolShop, entity.FieldAvailable, d("-4"))
		return err
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "Croissant", insufficient.ProductName)
	assert.True(t, insufficient.Available.Equal(d("3")))
	assert.True(t, f.balance(t, "p1", entity.PoolShop).Equal(d("3")))
}

func TestLedger_BoutiqueAutoCreee_AtelierNon(t *testing.T) {
	f := newFixture()
	f.store.SeedProduct(entity.Product{ID: "p1", Name: "Baguette", Unit: "pièce"})
	ctx := context.Background()

	err := f.tx.Run(ctx, func(r repository.Repos) error {
		_, err := f.ledger.Adjust(ctx, r, "p1", entity.PoolShop, entity.FieldAvailable, d("2"))
		return err
	})
	require.NoError(t, err)
	assert.True(t, f.balance(t, "p1", entity.PoolShop).Equal(d("2")))

	err = f.tx.Run(ctx, func(r repository.Repos) error {
		_, err := f.ledger.Adjust(ctx, r, "p1", entity.PoolWorkshop, entity.FieldAvailable, d("2"))
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedger_ReserveBruteSansReserve(t *testing.T) {
	f := newFixture()
	f.store.SeedProduct(entity.Product{ID: "p1", Name: "Farine", Unit: "kg", Remaining: d("10")})
	ctx := context.Background()

	err := f.tx.Run(ctx, func(r repository.Repos) error {
		_, err := f.ledger.Adjust(ctx, r, "p1", entity.PoolRaw, entity.FieldReserved, d("1"))
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Transfert
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_ConserveLesQuantites(t *testing.T) {
	f := newFixture()
	f.store.SeedProduct(entity.Product{ID: "farine", Name: "Farine", Unit: "kg", Remaining: d("50")})

	res, err := f.transfers().Transfer(context.Background(), inventory.TransferInput{
		ProductID: "farine", From: entity.PoolRaw, To: entity.PoolWorkshop, Quantity: d("12.5"), Actor: magasinier,
	})
	require.NoError(t, err)

	assert.True(t, f.balance(t, "farine", entity.PoolRaw).Equal(d("37.5")))
	assert.True(t, f.balance(t, "farine", entity.PoolWorkshop).Equal(d("12.5")))
	assert.True(t, res.Source.Before.Available.Add(res.Destination.Before.Available).
		Equal(res.Source.After.Available.Add(res.Destination.After.Available)))
	assert.Len(t, res.MovementIDs, 2)
	assert.NotEmpty(t, res.Reference)
	assert.Equal(t, 2, f.store.MovementCount())

	moves, err := f.queries().Movements(context.Background(), entity.MovementFilter{Reference: res.Reference})
	require.NoError(t, err)
	require.Len(t, moves, 2)
	for _, m := range moves {
		assert.Equal(t, entity.MovementTransfert, m.Type)
		assert.True(t, m.Quantity.Equal(d("12.5")))
	}
}

func TestTransfer_AllerRetourRestaureLesReserves(t *testing.T) {
	f := newFixture()
	f.store.SeedProduct(entity.Product{ID: "farine", Name: "Farine", Unit: "kg", Remaining: d("45")})
	uc := f.transfers()
	ctx := context.Background()

	_, err := uc.Transfer(ctx, inventory.TransferInput{ProductID: "farine", From: entity.PoolRaw, To: entity.PoolWorkshop, Quantity: d("20"), Actor: magasinier})
	require.NoError(t, err)
	_, err = uc.Transfer(ctx, inventory.TransferInput{ProductID: "farine", From: entity.PoolWorkshop, To: entity.PoolRaw, Quantity: d("20"), Actor: magasinier})
	require.NoError(t, err)

	assert.True(t, f.balance(t, "farine", entity.PoolRaw).Equal(d("45")))
	assert.True(t, f.balance(t, "farine", entity.PoolWorkshop).IsZero())
	// une sortie et une entrée par transfert
	assert.Equal(t, 4, f.store.MovementCount())
}

func TestTransfer_StockInsuffisant_AucuneEcriture(t *testing.T) {
	f := newFixture()
	f.store.SeedProduct(entity.Product{ID: "p1", Name: "Pain", Unit: "pièce"})
	f.store.SeedStock(entity.PoolWorkshop, "p1", d("4"))

	_, err := f.transfers().Transfer(context.Background(), inventory.TransferInput{
		ProductID: "p1", From: entity.PoolWorkshop, To: entity.PoolShop, Quantity: d("5"), Actor: gerant,
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Available.Equal(d("4")))
	assert.True(t, f.balance(t, "p1", entity.PoolWorkshop).Equal(d("4")))
	assert.True(t, f.balance(t, "p1", entity.PoolShop).IsZero())
	assert.Zero(t, f.store.MovementCount())
}

func TestTransfer_Validation(t *testing.T) {
	f := newFixture()
	f.store.SeedProduct(entity.Product{ID: "p1", Name: "Pain", Unit: "pièce"})
	uc := f.transfers()
	ctx := context.Background()

	cases := []struct {
		name string
		in   inventory.TransferInput
		want error
	}{
		{"meme reserve", inventory.TransferInput{ProductID: "p1", From: entity.PoolShop, To: entity.PoolShop, Quantity: d("1"), Actor: gerant}, domain.ErrInvalidInput},
		{"quantite nulle", inventory.TransferInput{ProductID: "p1", From: entity.PoolWorkshop, To: entity.PoolShop, Quantity: d("0"), Actor: gerant}, domain.ErrInvalidInput},
		{"reserve inconnue", inventory.TransferInput{ProductID: "p1", From: "cave", To: entity.PoolShop, Quantity: d("1"), Actor: gerant}, domain.ErrInvalidInput},
		{"vendeur", inventory.TransferInput{ProductID: "p1", From: entity.PoolWorkshop, To: entity.PoolShop, Quantity: d("1"), Actor: vendeur}, domain.ErrForbidden},
		{"produit inconnu", inventory.TransferInput{ProductID: "zz", From: entity.PoolWorkshop, To: entity.PoolShop, Quantity: d("1"), Actor: gerant}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Transfer(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Achats
// ──────────────────────────────────────────────────────────────────────────────

func TestPurchase_CreeProduitPuisPondereLeCout(t *testing.T) {
	f := newFixture()
	uc := inventory.NewPurchaseUseCase(f.tx, f.ledger, f.recorder, f.cache, f.log)
	ctx := context.Background()

	first, err := uc.ReceivePurchase(ctx, inventory.PurchaseInput{Name: "  Beurre   doux ", Unit: "kg", Quantity: d("10"), UnitPrice: d("2"), Actor: magasinier})
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, "Beurre doux", first.Product.Name)
	assert.True(t, first.UnitCost.Equal(d("2")))

	// même produit retrouvé par nom, sans tenir compte de la casse ni des accents
	second, err := uc.ReceivePurchase(ctx, inventory.PurchaseInput{Name: "beurre DOUX", Quantity: d("10"), UnitPrice: d("4"), Supplier: "Laiterie", Actor: magasinier})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Product.ID, second.Product.ID)
	assert.True(t, second.UnitCost.Equal(d("3")), "coût pondéré: (10×2 + 10×4) / 20")
	assert.True(t, f.balance(t, first.Product.ID, entity.PoolRaw).Equal(d("20")))
	assert.Equal(t, 2, f.store.MovementCount())
}

func TestPurchase_VendeurRefuse(t *testing.T) {
	f := newFixture()
	uc := inventory.NewPurchaseUseCase(f.tx, f.ledger, f.recorder, f.cache, f.log)

	_, err := uc.ReceivePurchase(context.Background(), inventory.PurchaseInput{Name: "Sucre", Quantity: d("1"), UnitPrice: d("1"), Actor: vendeur})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ajustements
// ──────────────────────────────────────────────────────────────────────────────

func TestAdjustment_AligneSurLeComptage(t *testing.T) {
	f := newFixture()
	f.store.SeedProduct(entity.Product{ID: "p1", Name: "Pain", Unit: "pièce"})
	f.store.SeedStock(entity.PoolShop, "p1", d("10"))
	uc := inventory.NewAdjustmentUseCase(f.tx, f.ledger, f.recorder, f.cache, f.log)
	ctx := context.Background()

	res, err := uc.Adjust(ctx, inventory.AdjustmentInput{ProductID: "p1", Pool: entity.PoolShop, Counted: d("7"), Reason: "casse", Actor: gerant})
	require.NoError(t, err)
	assert.True(t, res.Delta.Equal(d("-3")))
	assert.True(t, f.balance(t, "p1", entity.PoolShop).Equal(d("7")))
	assert.Equal(t, 1, f.store.MovementCount())

	same, err := uc.Adjust(ctx, inventory.AdjustmentInput{ProductID: "p1", Pool: entity.PoolShop, Counted: d("7"), Reason: "recomptage", Actor: gerant})
	require.NoError(t, err)
	assert.Nil(t, same.Change)
	assert.Equal(t, 1, f.store.MovementCount())

	_, err = uc.Adjust(ctx, inventory.AdjustmentInput{ProductID: "p1", Pool: entity.PoolShop, Counted: d("1"), Reason: "x", Actor: magasinier})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ──────────────────────────────────────────────────────────────────────────────
// Production
// ──────────────────────────────────────────────────────────────────────────────

func TestProduction_ManquesTousListesSansEcriture(t *testing.T) {
	f := newFixture()
	f.seedBakery(t, "1", "0")

	_, err := f.production().Produce(context.Background(), inventory.ProduceInput{RecipeName: "Pain", Quantity: d("10"), Actor: magasinier})

	var shortfall *domain.InsufficientIngredientError
	require.ErrorAs(t, err, &shortfall)
	assert.Equal(t, "Pain", shortfall.Recipe)
	require.Len(t, shortfall.Shortfalls, 2)
	byName := map[string]domain.IngredientShortfall{}
	for _, s := range shortfall.Shortfalls {
		byName[s.Name] = s
	}
	assert.True(t, byName["Farine"].Missing.Equal(d("1.5")))
	assert.True(t, byName["Sel"].Missing.Equal(d("0.1")))

	assert.True(t, f.balance(t, "farine", entity.PoolWorkshop).Equal(d("1")))
	assert.Zero(t, f.store.MovementCount())
	p, err := f.store.Repos().Products.GetByName(context.Background(), "Pain")
	require.NoError(t, err)
	assert.Nil(t, p, "aucun produit fini créé")
}

func TestProduction_ConsommeEtCrediteLaBoutique(t *testing.T) {
	f := newFixture()
	f.seedBakery(t, "10", "1")
	ctx := context.Background()

	res, err := f.production().Produce(ctx, inventory.ProduceInput{RecipeName: "pain", Quantity: d("8"), Actor: magasinier})
	require.NoError(t, err)

	assert.Equal(t, entity.PoolShop, res.Production.Destination)
	assert.Equal(t, entity.ProductionDone, res.Production.Status)
	assert.True(t, f.balance(t, "farine", entity.PoolWorkshop).Equal(d("8")))
	assert.True(t, f.balance(t, "sel", entity.PoolWorkshop).Equal(d("0.92")))
	assert.True(t, f.balance(t, res.Production.ProductID, entity.PoolShop).Equal(d("8")))
	// 8 × (0,25 × 10 + 0,01 × 5)
	assert.True(t, res.Production.IngredientCost.Equal(d("20.4")), res.Production.IngredientCost.String())
	assert.False(t, res.PriceApplied)
	// deux sorties atelier + une entrée boutique
	assert.Equal(t, 3, f.store.MovementCount())

	ws, err := f.store.Repos().Stock.Get(ctx, entity.PoolWorkshop, "farine")
	require.NoError(t, err)
	assert.True(t, ws.Used.Equal(d("2")))

	again, err := f.production().Produce(ctx, inventory.ProduceInput{RecipeName: "Pain", Quantity: d("2"), Actor: magasinier})
	require.NoError(t, err)
	assert.Equal(t, res.Production.ProductID, again.Production.ProductID, "le produit fini est réutilisé")
	assert.True(t, f.balance(t, res.Production.ProductID, entity.PoolShop).Equal(d("10")))
}

func TestScenario_FarineT45VersPain(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	// 900 pour 45 kg: 20 le kg; levure à 10 le kg
	f.store.SeedProduct(entity.Product{ID: "t45", Name: "Farine T45", Unit: "kg", PurchasePrice: d("900"), PurchasedQty: d("45"), Remaining: d("45")})
	f.store.SeedProduct(entity.Product{ID: "levure", Name: "Levure", Unit: "kg", PurchasePrice: d("10"), PurchasedQty: d("1")})
	f.store.SeedStock(entity.PoolWorkshop, "levure", d("0.5"))

	_, err := f.transfers().Transfer(ctx, inventory.TransferInput{ProductID: "t45", From: entity.PoolRaw, To: entity.PoolWorkshop, Quantity: d("10"), Actor: magasinier})
	require.NoError(t, err)
	assert.True(t, f.balance(t, "t45", entity.PoolRaw).Equal(d("35")))
	assert.True(t, f.balance(t, "t45", entity.PoolWorkshop).Equal(d("10")))

	recipes := inventory.NewRecipeUseCase(f.store.Repos(), f.resolver)
	_, err = recipes.AddLine(ctx, inventory.RecipeLineInput{RecipeName: "Pain", IngredientID: "t45", QuantityPerUnit: d("2"), Actor: admin})
	require.NoError(t, err)
	_, err = recipes.AddLine(ctx, inventory.RecipeLineInput{RecipeName: "Pain", IngredientID: "levure", QuantityPerUnit: d("0.1"), Actor: admin})
	require.NoError(t, err)

	res, err := f.production().Produce(ctx, inventory.ProduceInput{RecipeName: "Pain", Quantity: d("5"), Actor: magasinier})
	require.NoError(t, err)

	assert.True(t, f.balance(t, "t45", entity.PoolRaw).Equal(d("35")))
	assert.True(t, f.balance(t, "t45", entity.PoolWorkshop).IsZero())
	assert.True(t, f.balance(t, "levure", entity.PoolWorkshop).IsZero())
	assert.True(t, f.balance(t, res.Production.ProductID, entity.PoolShop).Equal(d("5")))
	// 5 × (2 × 20 + 0,1 × 10)
	assert.True(t, res.Production.IngredientCost.Equal(d("205")), res.Production.IngredientCost.String())
}

func TestProduction_PrixDeVente(t *testing.T) {
	f := newFixture()
	f.seedBakery(t, "10", "1")
	price := d("250")
	ctx := context.Background()

	_, err := f.production().Produce(ctx, inventory.ProduceInput{RecipeName: "Pain", Quantity: d("4"), SellingPrice: &price, Actor: magasinier})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Zero(t, f.store.MovementCount())

	res, err := f.production().Produce(ctx, inventory.ProduceInput{RecipeName: "Pain", Quantity: d("4"), SellingPrice: &price, Actor: gerant})
	require.NoError(t, err)
	assert.True(t, res.PriceApplied)

	p, err := f.store.Repos().Products.GetByID(ctx, res.Production.ProductID)
	require.NoError(t, err)
	assert.True(t, p.SalePrice.Equal(price))
	shop, err := f.store.Repos().Stock.Get(ctx, entity.PoolShop, p.ID)
	require.NoError(t, err)
	require.True(t, shop.SalePrice.Valid)
	assert.True(t, shop.SalePrice.Decimal.Equal(price))
}

func TestProduction_RecetteInconnue(t *testing.T) {
	f := newFixture()
	_, err := f.production().Produce(context.Background(), inventory.ProduceInput{RecipeName: "Brioche", Quantity: d("1"), Actor: gerant})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecipeResolver_CoutEtDisponibilite(t *testing.T) {
	f := newFixture()
	f.seedBakery(t, "5", "1")
	recipes := inventory.NewRecipeUseCase(f.store.Repos(), f.resolver)
	ctx := context.Background()

	cost, err := recipes.Cost(ctx, "Pain", d("10"))
	require.NoError(t, err)
	assert.True(t, cost.Equal(d("25.5")), cost.String())

	av, err := recipes.Availability(ctx, "Pain", d("30"))
	require.NoError(t, err)
	assert.False(t, av.CanProduce)
	assert.True(t, av.MaxProducible.Equal(d("20")))
	require.Len(t, av.Shortfalls(), 1)
	assert.Equal(t, "Farine", av.Shortfalls()[0].Name)
}

func TestRecipeUseCase_Lignes(t *testing.T) {
	f := newFixture()
	f.seedBakery(t, "5", "1")
	recipes := inventory.NewRecipeUseCase(f.store.Repos(), f.resolver)
	ctx := context.Background()

	_, err := recipes.AddLine(ctx, inventory.RecipeLineInput{RecipeName: "Pain", IngredientID: "sel", QuantityPerUnit: d("0.02"), Actor: admin})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = recipes.AddLine(ctx, inventory.RecipeLineInput{RecipeName: "Pain", IngredientID: "sel", QuantityPerUnit: d("0.02"), Actor: gerant})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = recipes.AddLine(ctx, inventory.RecipeLineInput{RecipeName: "Farine", IngredientID: "farine", QuantityPerUnit: d("1"), Actor: admin})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	recipe, err := recipes.Get(ctx, "PAIN")
	require.NoError(t, err)
	require.Len(t, recipe.Lines, 2)

	updated, err := recipes.UpdateLine(ctx, recipe.Lines[0].LineID, inventory.RecipeLineInput{QuantityPerUnit: d("0.3"), Actor: admin})
	require.NoError(t, err)
	assert.True(t, updated.QuantityPerUnit.Equal(d("0.3")))

	require.NoError(t, recipes.DeleteLine(ctx, admin, recipe.Lines[1].LineID))
	recipe, err = recipes.Get(ctx, "Pain")
	require.NoError(t, err)
	assert.Len(t, recipe.Lines, 1)
}

// ──────────────────────────────────────────────────────────────────────────────
// Journal et requêtes
// ──────────────────────────────────────────────────────────────────────────────

func TestRecorder_EchecDuJournalNAnnulePasLeStock(t *testing.T) {
	f := newFixture()
	f.store.SeedProduct(entity.Product{ID: "farine", Name: "Farine", Unit: "kg", Remaining: d("10")})
	f.store.FailMovements(errors.New("journal indisponible"))

	res, err := f.transfers().Transfer(context.Background(), inventory.TransferInput{
		ProductID: "farine", From: entity.PoolRaw, To: entity.PoolWorkshop, Quantity: d("4"), Actor: gerant,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"", ""}, res.MovementIDs)
	assert.True(t, f.balance(t, "farine", entity.PoolRaw).Equal(d("6")))
	assert.Zero(t, f.store.MovementCount())

	// le rapprochement signale la ligne sans mouvement comme cohérente faute de référence
	drift, err := f.queries().Reconcile(context.Background(), "farine", entity.PoolWorkshop)
	require.NoError(t, err)
	assert.Nil(t, drift.LastRecorded)
	assert.True(t, drift.Consistent)
}

func TestReconcile_DetecteUnMouvementPerdu(t *testing.T) {
	f := newFixture()
	f.store.SeedProduct(entity.Product{ID: "farine", Name: "Farine", Unit: "kg", Remaining: d("10")})
	uc := f.transfers()
	ctx := context.Background()

	_, err := uc.Transfer(ctx, inventory.TransferInput{ProductID: "farine", From: entity.PoolRaw, To: entity.PoolWorkshop, Quantity: d("4"), Actor: gerant})
	require.NoError(t, err)

	drift, err := f.queries().Reconcile(ctx, "farine", entity.PoolWorkshop)
	require.NoError(t, err)
	assert.True(t, drift.Consistent)

	f.store.FailMovements(errors.New("journal indisponible"))
	_, err = uc.Transfer(ctx, inventory.TransferInput{ProductID: "farine", From: entity.PoolRaw, To: entity.PoolWorkshop, Quantity: d("1"), Actor: gerant})
	require.NoError(t, err)

	drift, err = f.queries().Reconcile(ctx, "farine", entity.PoolWorkshop)
	require.NoError(t, err)
	assert.False(t, drift.Consistent)
	assert.True(t, drift.Balance.Equal(d("5")))
	assert.True(t, drift.LastRecorded.Equal(d("4")))
}

func TestStockQuery_CacheInvalideApresMutation(t *testing.T) {
	f := newFixture()
	f.store.SeedProduct(entity.Product{ID: "farine", Name: "Farine", Unit: "kg", Remaining: d("10")})
	q := f.queries()
	ctx := context.Background()

	b, err := q.Balances(ctx, "farine")
	require.NoError(t, err)
	assert.True(t, b.Pools[entity.PoolRaw].Available.Equal(d("10")))
	assert.True(t, b.Pools[entity.PoolShop].Available.IsZero())
	assert.Equal(t, 1, f.cache.Len())

	_, err = f.transfers().Transfer(ctx, inventory.TransferInput{ProductID: "farine", From: entity.PoolRaw, To: entity.PoolWorkshop, Quantity: d("3"), Actor: gerant})
	require.NoError(t, err)
	assert.Zero(t, f.cache.Len())

	b, err = q.Balances(ctx, "farine")
	require.NoError(t, err)
	assert.True(t, b.Pools[entity.PoolRaw].Available.Equal(d("7")))
	assert.True(t, b.Pools[entity.PoolWorkshop].Available.Equal(d("3")))
}

// committingCache exécute une écriture concurrente juste avant le remplissage du cache.
type committingCache struct {
	*cache.MemoryStockCache
	beforeFill func()
}

func (c *committingCache) Fill(ctx context.Context, gen uint64, key string, value any, ttl time.Duration) error {
	if hook := c.beforeFill; hook != nil {
		c.beforeFill = nil
		hook()
	}
	return c.MemoryStockCache.Fill(ctx, gen, key, value, ttl)
}

func TestStockQuery_LecturePerimeeNeRepeuplePasLeCache(t *testing.T) {
	f := newFixture()
	f.store.SeedProduct(entity.Product{ID: "farine", Name: "Farine", Unit: "kg", Remaining: d("10")})
	ctx := context.Background()
	c := &committingCache{MemoryStockCache: cache.NewMemoryStockCache()}
	q := inventory.NewStockQueryUseCase(f.store.Repos(), f.ledger, c, time.Minute, d("5"), f.log)
	transfers := inventory.NewTransferUseCase(f.tx, f.ledger, f.recorder, c, f.log)

	c.beforeFill = func() {
		_, err := transfers.Transfer(ctx, inventory.TransferInput{ProductID: "farine", From: entity.PoolRaw, To: entity.PoolWorkshop, Quantity: d("3"), Actor: gerant})
		require.NoError(t, err)
	}
	stale, err := q.Balances(ctx, "farine")
	require.NoError(t, err)
	assert.True(t, stale.Pools[entity.PoolRaw].Available.Equal(d("10")), "lu avant le transfert")
	assert.Zero(t, c.Len(), "le solde lu avant le commit n'est pas mis en cache")

	fresh, err := q.Balances(ctx, "farine")
	require.NoError(t, err)
	assert.True(t, fresh.Pools[entity.PoolRaw].Available.Equal(d("7")))
	assert.Equal(t, 1, c.Len())
}

func TestStockQuery_Resume(t *testing.T) {
	f := newFixture()
	f.store.SeedProduct(entity.Product{ID: "farine", Name: "Farine", Unit: "kg", Remaining: d("10")})
	f.store.SeedProduct(entity.Product{ID: "pain", Name: "Pain", Unit: "pièce"})
	f.store.SeedStock(entity.PoolShop, "pain", d("0"))

	summary, err := f.queries().Summary(context.Background())
	require.NoError(t, err)
	require.Len(t, summary, len(entity.Pools))
	assert.Equal(t, entity.PoolRaw, summary[0].Pool)
	for _, s := range summary {
		if s.Pool == entity.PoolShop {
			assert.Equal(t, 1, s.OutOfStock)
		}
	}

	_, err = f.queries().ListPool(context.Background(), "cave", 10, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReplenishment_MatiereSousLaCouverture(t *testing.T) {
	f := newFixture()
	f.store.SeedProduct(entity.Product{ID: "farine", Name: "Farine", Unit: "kg", PurchasePrice: d("1000"), PurchasedQty: d("100"), Remaining: d("50")})
	f.store.SeedProduct(entity.Product{ID: "sel", Name: "Sel", Unit: "kg", PurchasePrice: d("50"), PurchasedQty: d("10"), Remaining: d("5")})

	_, err := f.transfers().Transfer(context.Background(), inventory.TransferInput{
		ProductID: "farine", From: entity.PoolRaw, To: entity.PoolWorkshop, Quantity: d("45"), Actor: magasinier,
	})
	require.NoError(t, err)

	list, err := inventory.NewReplenishmentUseCase(f.store.Repos()).GenerateReplenishmentList(context.Background())
	require.NoError(t, err)

	// sel jamais consommé: absent
	require.Len(t, list, 1)
	s := list[0]
	assert.Equal(t, "farine", s.ProductID)
	assert.Equal(t, 1, s.Priority)
	assert.True(t, s.Remaining.Equal(d("5")))
	assert.True(t, s.DailyConsumption.Equal(d("1.5")))
	assert.True(t, s.SuggestedOrderQty.Equal(d("5.5")), s.SuggestedOrderQty.String())
	assert.True(t, s.DaysOfCover.Equal(d("3.3")))
	assert.True(t, s.EstimatedOrderCost.Equal(d("55")))
}
