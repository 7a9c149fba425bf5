package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalytics "github.com/jhoicas/boulangerie-api/internal/application/analytics"
	"github.com/jhoicas/boulangerie-api/internal/application/auth"
	"github.com/jhoicas/boulangerie-api/internal/application/dto"
	"github.com/jhoicas/boulangerie-api/internal/application/inventory"
	"github.com/jhoicas/boulangerie-api/internal/application/pricing"
	"github.com/jhoicas/boulangerie-api/internal/application/sales"
	"github.com/jhoicas/boulangerie-api/internal/application/usecase"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/infrastructure/cache"
	"github.com/jhoicas/boulangerie-api/internal/infrastructure/memory"
	"github.com/jhoicas/boulangerie-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/boulangerie-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/boulangerie-api/pkg/jwt"
	"github.com/jhoicas/boulangerie-api/pkg/logger"
)

type testServer struct {
	app   *fiber.App
	store *memory.Store
}

// newTestServer monte toute l'API sur le store en mémoire.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	tx := memory.NewTxRunner(store)
	repos := store.Repos()
	log := logger.Nop()
	stockCache := cache.NewMemoryStockCache()

	ledger := inventory.NewLedger()
	recorder := inventory.NewMovementRecorder(log)
	resolver := inventory.NewRecipeResolver(ledger)
	pricingUC := pricing.NewPricingUseCase(tx, repos, resolver, stockCache, log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:        auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}),
		UserUC:        usecase.NewUserUseCase(store.Users()),
		ProductUC:     usecase.NewProductUseCase(repos.Products),
		PurchaseUC:    inventory.NewPurchaseUseCase(tx, ledger, recorder, stockCache, log),
		TransferUC:    inventory.NewTransferUseCase(tx, ledger, recorder, stockCache, log),
		AdjustmentUC:  inventory.NewAdjustmentUseCase(tx, ledger, recorder, stockCache, log),
		StockQueryUC:  inventory.NewStockQueryUseCase(repos, ledger, stockCache, time.Minute, decimal.NewFromInt(5), log),
		Replenishment: inventory.NewReplenishmentUseCase(repos),
		RecipeUC:      inventory.NewRecipeUseCase(repos, resolver),
		ProductionUC:  inventory.NewProductionUseCase(tx, ledger, resolver, recorder, pricingUC, stockCache, log),
		POSUC: sales.NewPOSUseCase(tx, repos, ledger, recorder, stockCache, pdf.NewMarotoTicketRenderer(),
			sales.POSConfig{Shop: sales.ShopInfo{Name: "Boulangerie du Port", Currency: "FCFA"}}, log),
		CancelUC:    sales.NewCancellationUseCase(tx, repos, ledger, recorder, stockCache, sales.CancellationPolicy{}, log),
		PricingUC:   pricingUC,
		DashboardUC: appanalytics.NewDashboardUseCase(store.Analytics()),
		JWTSecret:   testJWTSecret,
	})
	return &testServer{app: app, store: store}
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, userID, "Test "+role, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (s *testServer) call(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func (s *testServer) seedBread(t *testing.T, shopQty int64) *entity.Product {
	t.Helper()
	p := s.store.SeedProduct(entity.Product{ID: "pain-1", Name: "Pain", Unit: "pièce", SalePrice: decimal.NewFromInt(500)})
	s.store.SeedStock(entity.PoolShop, p.ID, decimal.NewFromInt(shopQty))
	return p
}

func TestLoginEtMe(t *testing.T) {
	s := newTestServer(t)
	_, err := s.store.SeedUser("gerant@boulangerie.test", "motdepasse1", "Fatou", entity.RoleGerant)
	require.NoError(t, err)

	resp, body := s.call(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "gerant@boulangerie.test", Password: "motdepasse1"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var login dto.LoginResponse
	require.NoError(t, json.Unmarshal(body, &login))
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, entity.RoleGerant, login.User.Role)

	resp, body = s.call(t, http.MethodGet, "/api/auth/me", "Bearer "+login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var me dto.UserResponse
	require.NoError(t, json.Unmarshal(body, &me))
	assert.Equal(t, "Fatou", me.Name)

	resp, _ = s.call(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "gerant@boulangerie.test", Password: "mauvais"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSale_FinaliseEtTicketPDF(t *testing.T) {
	s := newTestServer(t)
	p := s.seedBread(t, 10)
	seller := bearer(t, "vendeur-1", entity.RoleVendeur)

	resp, body := s.call(t, http.MethodPost, "/api/sales", seller, dto.CreateSaleRequest{
		Items:          []dto.SaleItemRequest{{ProductID: p.ID, Quantity: decimal.NewFromInt(2)}},
		AmountTendered: decimal.NewFromInt(1000),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var sale dto.SaleResponse
	require.NoError(t, json.Unmarshal(body, &sale))
	assert.True(t, sale.Total.Equal(decimal.NewFromInt(1000)))
	assert.True(t, sale.Change.IsZero())
	assert.NotEmpty(t, sale.TicketNumber)
	assert.Equal(t, entity.SaleValidated, sale.Status)

	resp, body = s.call(t, http.MethodGet, "/api/sales/tickets/"+sale.TicketNumber, seller, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = s.call(t, http.MethodGet, "/api/sales/"+sale.ID+"/ticket.pdf", seller, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	resp, body = s.call(t, http.MethodGet, "/api/stock/products/"+p.ID, seller, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var balances dto.ProductBalancesResponse
	require.NoError(t, json.Unmarshal(body, &balances))
	assert.True(t, balances.Pools["shop"].Available.Equal(decimal.NewFromInt(8)))
	assert.True(t, balances.Pools["shop"].Sold.Equal(decimal.NewFromInt(2)))
}

func TestSale_StockInsuffisant_422(t *testing.T) {
	s := newTestServer(t)
	p := s.seedBread(t, 1)

	resp, body := s.call(t, http.MethodPost, "/api/sales", bearer(t, "vendeur-1", entity.RoleVendeur), dto.CreateSaleRequest{
		Items:          []dto.SaleItemRequest{{ProductID: p.ID, Quantity: decimal.NewFromInt(3)}},
		AmountTendered: decimal.NewFromInt(5000),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "INSUFFICIENT_STOCK")
	assert.Contains(t, string(body), "Pain")
	assert.Equal(t, 0, s.store.SaleCount())
	assert.Equal(t, 0, s.store.MovementCount())
}

func TestSale_MontantInsuffisant_422(t *testing.T) {
	s := newTestServer(t)
	p := s.seedBread(t, 5)

	resp, body := s.call(t, http.MethodPost, "/api/sales", bearer(t, "vendeur-1", entity.RoleVendeur), dto.CreateSaleRequest{
		Items:          []dto.SaleItemRequest{{ProductID: p.ID, Quantity: decimal.NewFromInt(2)}},
		AmountTendered: decimal.NewFromInt(900),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "INVALID_PAYMENT")
}

func TestSale_Annulation(t *testing.T) {
	s := newTestServer(t)
	p := s.seedBread(t, 10)
	seller := bearer(t, "vendeur-1", entity.RoleVendeur)
	manager := bearer(t, "gerant-1", entity.RoleGerant)

	resp, body := s.call(t, http.MethodPost, "/api/sales", seller, dto.CreateSaleRequest{
		Items:          []dto.SaleItemRequest{{ProductID: p.ID, Quantity: decimal.NewFromInt(4)}},
		AmountTendered: decimal.NewFromInt(2000),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var sale dto.SaleResponse
	require.NoError(t, json.Unmarshal(body, &sale))

	// un vendeur reçoit un refus métier, pas un 403
	resp, body = s.call(t, http.MethodPost, "/api/sales/"+sale.ID+"/cancel", seller, dto.CancelSaleRequest{Reason: "erreur de saisie"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "NOT_ELIGIBLE")

	resp, body = s.call(t, http.MethodGet, "/api/sales/"+sale.ID+"/cancellation/eligibility?reason=erreur%20de%20saisie", manager, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var elig dto.EligibilityResponse
	require.NoError(t, json.Unmarshal(body, &elig))
	assert.True(t, elig.Cancelable)

	resp, body = s.call(t, http.MethodPost, "/api/sales/"+sale.ID+"/cancel", manager, dto.CancelSaleRequest{Reason: "erreur de saisie"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var cancellation dto.CancellationResponse
	require.NoError(t, json.Unmarshal(body, &cancellation))
	assert.True(t, cancellation.Amount.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, "gerant-1", cancellation.CancelledBy)

	resp, _ = s.call(t, http.MethodPost, "/api/sales/"+sale.ID+"/cancel", manager, dto.CancelSaleRequest{Reason: "erreur de saisie"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = s.call(t, http.MethodGet, "/api/sales/"+sale.ID+"/cancellation", manager, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = s.call(t, http.MethodGet, "/api/stock/products/"+p.ID, manager, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var balances dto.ProductBalancesResponse
	require.NoError(t, json.Unmarshal(body, &balances))
	assert.True(t, balances.Pools["shop"].Available.Equal(decimal.NewFromInt(10)))
}

func TestSale_VendeurNeVoitQueSesVentes(t *testing.T) {
	s := newTestServer(t)
	p := s.seedBread(t, 10)
	for _, id := range []string{"vendeur-1", "vendeur-2"} {
		resp, body := s.call(t, http.MethodPost, "/api/sales", bearer(t, id, entity.RoleVendeur), dto.CreateSaleRequest{
			Items:          []dto.SaleItemRequest{{ProductID: p.ID, Quantity: decimal.NewFromInt(1)}},
			AmountTendered: decimal.NewFromInt(500),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	}

	resp, body := s.call(t, http.MethodGet, "/api/sales", bearer(t, "vendeur-1", entity.RoleVendeur), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var list dto.SaleListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "vendeur-1", list.Items[0].SellerID)

	resp, body = s.call(t, http.MethodGet, "/api/sales", bearer(t, "gerant-1", entity.RoleGerant), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list.Items, 2)
}

func TestProduction_ManquesListes_422(t *testing.T) {
	s := newTestServer(t)
	farine := s.store.SeedProduct(entity.Product{ID: "farine", Name: "Farine", Unit: "kg", PurchasePrice: decimal.NewFromInt(6000), PurchasedQty: decimal.NewFromInt(10)})
	levure := s.store.SeedProduct(entity.Product{ID: "levure", Name: "Levure", Unit: "kg", PurchasePrice: decimal.NewFromInt(2000), PurchasedQty: decimal.NewFromInt(1)})
	s.store.SeedStock(entity.PoolWorkshop, farine.ID, decimal.RequireFromString("1"))
	admin := bearer(t, "admin-1", entity.RoleAdmin)

	for _, line := range []dto.RecipeLineRequest{
		{RecipeName: "Pain", IngredientID: farine.ID, QuantityPerUnit: decimal.RequireFromString("0.5")},
		{RecipeName: "Pain", IngredientID: levure.ID, QuantityPerUnit: decimal.RequireFromString("0.01")},
	} {
		resp, body := s.call(t, http.MethodPost, "/api/recipes/lines", admin, line)
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	}

	resp, body := s.call(t, http.MethodPost, "/api/productions", bearer(t, "mag-1", entity.RoleMagasinier), dto.ProduceRequest{
		RecipeName: "pain",
		Quantity:   decimal.NewFromInt(10),
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(body))
	var shortfall dto.ShortfallErrorResponse
	require.NoError(t, json.Unmarshal(body, &shortfall))
	assert.Equal(t, "INSUFFICIENT_INGREDIENTS", shortfall.Code)
	assert.Len(t, shortfall.Shortfalls, 2)
	assert.Equal(t, 0, s.store.MovementCount())
}

func TestProduction_Reussie(t *testing.T) {
	s := newTestServer(t)
	farine := s.store.SeedProduct(entity.Product{ID: "farine", Name: "Farine", Unit: "kg", PurchasePrice: decimal.NewFromInt(6000), PurchasedQty: decimal.NewFromInt(10)})
	s.store.SeedStock(entity.PoolWorkshop, farine.ID, decimal.NewFromInt(10))
	admin := bearer(t, "admin-1", entity.RoleAdmin)

	resp, body := s.call(t, http.MethodPost, "/api/recipes/lines", admin, dto.RecipeLineRequest{
		RecipeName: "Pain", IngredientID: farine.ID, QuantityPerUnit: decimal.RequireFromString("0.5"),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = s.call(t, http.MethodGet, "/api/recipes/Pain/availability?quantity=10", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var avail dto.AvailabilityResponse
	require.NoError(t, json.Unmarshal(body, &avail))
	assert.True(t, avail.CanProduce)
	assert.True(t, avail.MaxProducible.Equal(decimal.NewFromInt(20)))

	resp, body = s.call(t, http.MethodPost, "/api/productions", admin, dto.ProduceRequest{RecipeName: "Pain", Quantity: decimal.NewFromInt(10)})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var prod dto.ProductionResponse
	require.NoError(t, json.Unmarshal(body, &prod))
	assert.Equal(t, "shop", prod.Destination)
	assert.True(t, prod.IngredientCost.Equal(decimal.NewFromInt(3000)))
	require.NotNil(t, prod.Output)
	assert.True(t, prod.Output.After.Equal(decimal.NewFromInt(10)))

	resp, body = s.call(t, http.MethodGet, "/api/productions/"+prod.ID, admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
}

func TestStock_TransfertEtRoles(t *testing.T) {
	s := newTestServer(t)
	farine := s.store.SeedProduct(entity.Product{ID: "farine", Name: "Farine", Unit: "kg", Remaining: decimal.NewFromInt(25)})

	req := dto.TransferRequest{ProductID: farine.ID, From: "raw", To: "workshop", Quantity: decimal.NewFromInt(10)}

	resp, _ := s.call(t, http.MethodPost, "/api/stock/transfers", bearer(t, "vendeur-1", entity.RoleVendeur), req)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := s.call(t, http.MethodPost, "/api/stock/transfers", bearer(t, "mag-1", entity.RoleMagasinier), req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var tr dto.TransferResponse
	require.NoError(t, json.Unmarshal(body, &tr))
	assert.True(t, tr.Source.After.Equal(decimal.NewFromInt(15)))
	assert.True(t, tr.Destination.After.Equal(decimal.NewFromInt(10)))
	assert.Len(t, tr.MovementIDs, 2)

	req.Quantity = decimal.NewFromInt(100)
	resp, body = s.call(t, http.MethodPost, "/api/stock/transfers", bearer(t, "mag-1", entity.RoleMagasinier), req)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "INSUFFICIENT_STOCK")

	req.From = "cave"
	resp, _ = s.call(t, http.MethodPost, "/api/stock/transfers", bearer(t, "mag-1", entity.RoleMagasinier), req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = s.call(t, http.MethodGet, "/api/stock/movements?product_id=farine&type=transfert", bearer(t, "mag-1", entity.RoleMagasinier), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var moves dto.MovementListResponse
	require.NoError(t, json.Unmarshal(body, &moves))
	assert.Len(t, moves.Items, 2)

	resp, _ = s.call(t, http.MethodGet, "/api/stock/movements?type=vol", bearer(t, "mag-1", entity.RoleMagasinier), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = s.call(t, http.MethodGet, "/api/stock/products/farine/pools/workshop/reconcile", bearer(t, "mag-1", entity.RoleMagasinier), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var rec dto.ReconcileResponse
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.True(t, rec.Consistent)
}

func TestPrix_VendeurRefuse_GerantAccepte(t *testing.T) {
	s := newTestServer(t)
	p := s.seedBread(t, 5)
	body := dto.SetPriceRequest{ProductID: p.ID, Price: decimal.NewFromInt(600)}

	resp, _ := s.call(t, http.MethodPut, "/api/prices", bearer(t, "vendeur-1", entity.RoleVendeur), body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, out := s.call(t, http.MethodPut, "/api/prices", bearer(t, "gerant-1", entity.RoleGerant), body)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(out))
	var price dto.PriceResponse
	require.NoError(t, json.Unmarshal(out, &price))
	assert.True(t, price.SalePrice.Equal(decimal.NewFromInt(600)))

	resp, _ = s.call(t, http.MethodGet, "/api/prices", bearer(t, "vendeur-1", entity.RoleVendeur), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUsers_AdminSeulement(t *testing.T) {
	s := newTestServer(t)
	req := dto.CreateUserRequest{Email: "nouveau@boulangerie.test", Password: "motdepasse1", Name: "Moussa", Role: entity.RoleVendeur}

	resp, _ := s.call(t, http.MethodPost, "/api/users", bearer(t, "gerant-1", entity.RoleGerant), req)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := s.call(t, http.MethodPost, "/api/users", bearer(t, "admin-1", entity.RoleAdmin), req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, _ = s.call(t, http.MethodPost, "/api/users", bearer(t, "admin-1", entity.RoleAdmin), req)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDashboard_Resume(t *testing.T) {
	s := newTestServer(t)
	p := s.seedBread(t, 10)

	resp, body := s.call(t, http.MethodPost, "/api/sales", bearer(t, "vendeur-1", entity.RoleVendeur), dto.CreateSaleRequest{
		Items:          []dto.SaleItemRequest{{ProductID: p.ID, Quantity: decimal.NewFromInt(3)}},
		AmountTendered: decimal.NewFromInt(1500),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, _ = s.call(t, http.MethodGet, "/api/dashboard/summary", bearer(t, "vendeur-1", entity.RoleVendeur), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = s.call(t, http.MethodGet, "/api/dashboard/summary", bearer(t, "gerant-1", entity.RoleGerant), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var summary dto.DashboardSummaryDTO
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.True(t, summary.TodaySales.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, 1, summary.TodayTickets)
	require.Len(t, summary.TopProducts, 1)
	assert.Equal(t, p.ID, summary.TopProducts[0].ProductID)
}
