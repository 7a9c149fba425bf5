package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/boulangerie-api/internal/application/analytics"
	"github.com/jhoicas/boulangerie-api/internal/application/auth"
	"github.com/jhoicas/boulangerie-api/internal/application/dto"
	"github.com/jhoicas/boulangerie-api/internal/application/inventory"
	"github.com/jhoicas/boulangerie-api/internal/application/pricing"
	"github.com/jhoicas/boulangerie-api/internal/application/sales"
	"github.com/jhoicas/boulangerie-api/internal/application/usecase"
	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	ticketing "github.com/jhoicas/boulangerie-api/internal/domain/inventory"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
	"github.com/jhoicas/boulangerie-api/internal/infrastructure/cache"
	"github.com/jhoicas/boulangerie-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/boulangerie-api/internal/infrastructure/pdf"
	"github.com/jhoicas/boulangerie-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/boulangerie-api/internal/interfaces/http"
	"github.com/jhoicas/boulangerie-api/pkg/config"
	"github.com/jhoicas/boulangerie-api/pkg/logger"
)

// storage dépôts et transactions selon le mode de stockage.
type storage struct {
	tx        inventory.TxRunner
	repos     repository.Repos
	users     repository.UserRepository
	analytics repository.AnalyticsRepository
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("charger la configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.Storage).
		Msg("démarrage de l'application")

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialisation du stockage")
	}
	defer store.close()

	var stockCache inventory.StockCache = cache.NewMemoryStockCache()
	if cfg.Redis.Addr != "" {
		rc := cache.NewRedisStockCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.App.Name)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis injoignable, cache en mémoire")
			_ = rc.Close()
		} else {
			stockCache = rc
			defer rc.Close()
		}
	}

	ledger := inventory.NewLedger()
	recorder := inventory.NewMovementRecorder(log.Named("movements"))
	resolver := inventory.NewRecipeResolver(ledger)

	userUC := usecase.NewUserUseCase(store.users)
	productUC := usecase.NewProductUseCase(store.repos.Products)
	pricingUC := pricing.NewPricingUseCase(store.tx, store.repos, resolver, stockCache, log.Named("pricing"))
	purchaseUC := inventory.NewPurchaseUseCase(store.tx, ledger, recorder, stockCache, log.Named("purchases"))
	transferUC := inventory.NewTransferUseCase(store.tx, ledger, recorder, stockCache, log.Named("transfers"))
	adjustmentUC := inventory.NewAdjustmentUseCase(store.tx, ledger, recorder, stockCache, log.Named("adjustments"))
	stockQueryUC := inventory.NewStockQueryUseCase(store.repos, ledger, stockCache, cfg.Redis.TTL, cfg.Stock.LowThreshold, log.Named("stock"))
	replenishmentUC := inventory.NewReplenishmentUseCase(store.repos)
	recipeUC := inventory.NewRecipeUseCase(store.repos, resolver)
	productionUC := inventory.NewProductionUseCase(store.tx, ledger, resolver, recorder, pricingUC, stockCache, log.Named("production"))

	// PDF: ticket de caisse 80 mm
	ticketRenderer := infrapdf.NewMarotoTicketRenderer()
	prefix := cfg.Sales.TicketPrefix
	posUC := sales.NewPOSUseCase(store.tx, store.repos, ledger, recorder, stockCache, ticketRenderer, sales.POSConfig{
		Shop:        sales.ShopInfo{Name: cfg.Shop.Name, Address: cfg.Shop.Address, Currency: cfg.Shop.Currency},
		Tickets:     func(now time.Time) string { return ticketing.TicketNumber(prefix, now) },
		MaxAttempts: cfg.Sales.TicketMaxAttempts,
	}, log.Named("pos"))
	cancelUC := sales.NewCancellationUseCase(store.tx, store.repos, ledger, recorder, stockCache, sales.CancellationPolicy{
		Window:          cfg.Sales.CancelWindow(),
		MinReasonLength: cfg.Sales.CancelReasonMinLength,
	}, log.Named("cancellations"))

	dashboardUC := analytics.NewDashboardUseCase(store.analytics)

	authUC := auth.NewAuthUseCase(store.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	seedAdmin(ctx, cfg.Seed, userUC, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(httpRouter.RequestLogger(log.Named("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: cfg.Swagger.FilePath,
		Path:     "docs",
		Title:    "Boulangerie API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.App.Storage})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:        authUC,
		UserUC:        userUC,
		ProductUC:     productUC,
		PurchaseUC:    purchaseUC,
		TransferUC:    transferUC,
		AdjustmentUC:  adjustmentUC,
		StockQueryUC:  stockQueryUC,
		Replenishment: replenishmentUC,
		RecipeUC:      recipeUC,
		ProductionUC:  productionUC,
		POSUC:         posUC,
		CancelUC:      cancelUC,
		PricingUC:     pricingUC,
		DashboardUC:   dashboardUC,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("serveur HTTP arrêté")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("signal d'arrêt reçu, fermeture du serveur...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("arrêt du serveur")
	}

	log.Info().Msg("application arrêtée")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.App.Storage == "memory" {
		log.Warn().Msg("stockage en mémoire: les données sont perdues à l'arrêt")
		mem := memory.NewStore()
		return &storage{
			tx:        memory.NewTxRunner(mem),
			repos:     mem.Repos(),
			users:     mem.Users(),
			analytics: mem.Analytics(),
			close:     func() {},
		}, nil
	}

	if cfg.DB.AutoMigrate {
		m, err := postgres.NewMigrator(cfg.DB.ConnectionString(), log.Named("migrate"))
		if err != nil {
			return nil, err
		}
		err = m.Up()
		_ = m.Close()
		if err != nil {
			return nil, err
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	return &storage{
		tx:        postgres.NewTxRunner(pool),
		repos:     postgres.NewRepos(pool),
		users:     postgres.NewUserRepository(pool),
		analytics: postgres.NewAnalyticsRepository(pool),
		close:     pool.Close,
	}, nil
}

// seedAdmin crée le compte administrateur initial; un compte existant est laissé tel quel.
func seedAdmin(ctx context.Context, seed config.SeedConfig, users *usecase.UserUseCase, log *logger.Logger) {
	if seed.AdminEmail == "" || seed.AdminPassword == "" {
		return
	}
	system := entity.Actor{ID: "system", Name: "system", Role: entity.RoleAdmin}
	_, err := users.Create(ctx, system, dto.CreateUserRequest{
		Email:    seed.AdminEmail,
		Password: seed.AdminPassword,
		Name:     seed.AdminName,
		Role:     entity.RoleAdmin,
	})
	switch {
	case err == nil:
		log.Info().Str("email", seed.AdminEmail).Msg("administrateur initial créé")
	case errors.Is(err, domain.ErrDuplicate):
		log.Debug().Str("email", seed.AdminEmail).Msg("administrateur initial déjà présent")
	default:
		log.Error().Err(err).Msg("création de l'administrateur initial")
	}
}
