package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/application/inventory"
	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	ticketing "github.com/jhoicas/boulangerie-api/internal/domain/inventory"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
	"github.com/jhoicas/boulangerie-api/pkg/logger"
)

var errTicketTaken = errors.New("numéro de ticket déjà attribué")

// SaleItem article du panier. UnitPrice nil: prix boutique du produit.
type SaleItem struct {
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice *decimal.Decimal
}

// FinalizeSaleInput panier validé en caisse.
type FinalizeSaleInput struct {
	Items          []SaleItem
	AmountTendered decimal.Decimal
	Seller         entity.Actor
}

// POSUseCase finalisation des ventes en caisse: un ticket, ses lignes et les sorties de stock boutique
// sont écrits dans une seule transaction.
type POSUseCase struct {
	tx          inventory.TxRunner
	repos       repository.Repos
	ledger      *inventory.Ledger
	recorder    *inventory.MovementRecorder
	cache       inventory.StockCache
	renderer    TicketRenderer
	shop        ShopInfo
	tickets     TicketGenerator
	maxAttempts int
	log         *logger.Logger
	now         func() time.Time
}

// POSConfig paramètres de la caisse.
type POSConfig struct {
	Shop        ShopInfo
	Tickets     TicketGenerator
	MaxAttempts int
}

// NewPOSUseCase construit le cas d'usage. repos sert aux lectures hors transaction.
func NewPOSUseCase(tx inventory.TxRunner, repos repository.Repos, ledger *inventory.Ledger, recorder *inventory.MovementRecorder, cache inventory.StockCache, renderer TicketRenderer, cfg POSConfig, log *logger.Logger) *POSUseCase {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Tickets == nil {
		cfg.Tickets = func(now time.Time) string { return ticketing.TicketNumber("TK", now) }
	}
	return &POSUseCase{
		tx: tx, repos: repos, ledger: ledger, recorder: recorder, cache: cache,
		renderer: renderer, shop: cfg.Shop, tickets: cfg.Tickets, maxAttempts: cfg.MaxAttempts,
		log: log, now: time.Now,
	}
}

type cartLine struct {
	productID string
	quantity  decimal.Decimal
	price     *decimal.Decimal
}

// mergeItems regroupe les lignes d'un même produit en gardant l'ordre de première apparition.
func mergeItems(items []SaleItem) ([]cartLine, error) {
	idx := make(map[string]int, len(items))
	out := make([]cartLine, 0, len(items))
	for _, it := range items {
		id := strings.TrimSpace(it.ProductID)
		if id == "" {
			return nil, fmt.Errorf("%w: produit requis", domain.ErrInvalidInput)
		}
		if !it.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: la quantité doit être positive", domain.ErrInvalidInput)
		}
		if it.UnitPrice != nil && it.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: prix unitaire négatif", domain.ErrInvalidInput)
		}
		if i, ok := idx[id]; ok {
			out[i].quantity = out[i].quantity.Add(it.Quantity)
			if out[i].price == nil {
				out[i].price = it.UnitPrice
			} else if it.UnitPrice != nil && !it.UnitPrice.Equal(*out[i].price) {
				return nil, fmt.Errorf("%w: prix différents pour le même produit", domain.ErrInvalidInput)
			}
			continue
		}
		idx[id] = len(out)
		out = append(out, cartLine{productID: id, quantity: it.Quantity, price: it.UnitPrice})
	}
	return out, nil
}

// FinalizeSale valide le panier: prix, total, paiement, contrôle de stock de toutes les lignes,
// puis ticket, sorties boutique et mouvements "vente".
func (uc *POSUseCase) FinalizeSale(ctx context.Context, in FinalizeSaleInput) (*entity.Sale, error) {
	if in.Seller.ID == "" || in.Seller.Role == "" {
		return nil, domain.ErrUnauthorized
	}
	if len(in.Items) == 0 {
		return nil, &domain.PaymentError{Tendered: in.AmountTendered, Reason: "panier vide"}
	}
	lines, err := mergeItems(in.Items)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		if l.price != nil && !in.Seller.IsElevated() {
			return nil, fmt.Errorf("%w: seul un gérant peut modifier un prix en caisse", domain.ErrForbidden)
		}
	}

	var sale *entity.Sale
	for attempt := 1; ; attempt++ {
		ticket := uc.tickets(uc.now())
		err = uc.tx.Run(ctx, func(r repository.Repos) error {
			var err error
			sale, err = uc.finalizeInTx(ctx, r, lines, in, ticket)
			return err
		})
		if errors.Is(err, errTicketTaken) && attempt < uc.maxAttempts {
			uc.log.Warn().Str("ticket", ticket).Int("attempt", attempt).Msg("collision de numéro de ticket")
			continue
		}
		break
	}
	if errors.Is(err, errTicketTaken) {
		return nil, fmt.Errorf("%w: %v", domain.ErrConflict, err)
	}
	if err != nil {
		return nil, err
	}

	inventory.InvalidateCache(ctx, uc.cache, uc.log)
	uc.log.Info().
		Str("sale_id", sale.ID).
		Str("ticket", sale.TicketNumber).
		Str("total", sale.Total.String()).
		Int("lines", len(sale.Lines)).
		Str("seller_id", sale.SellerID).
		Msg("vente validée")
	return sale, nil
}

func (uc *POSUseCase) finalizeInTx(ctx context.Context, r repository.Repos, lines []cartLine, in FinalizeSaleInput, ticket string) (*entity.Sale, error) {
	now := uc.now()
	sale := &entity.Sale{
		ID:             uuid.New().String(),
		TicketNumber:   ticket,
		AmountTendered: in.AmountTendered,
		SellerID:       in.Seller.ID,
		Status:         entity.SaleValidated,
		CreatedAt:      now,
		UpdatedAt:      now,
		Total:          decimal.Zero,
	}

	// verrous pris dans l'ordre des IDs produit
	order := make([]int, len(lines))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return lines[order[a]].productID < lines[order[b]].productID })

	saleLines := make([]entity.SaleLine, len(lines))
	for _, i := range order {
		l := lines[i]
		p, err := r.Products.GetByID(ctx, l.productID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: produit %s", domain.ErrNotFound, l.productID)
		}
		entry, err := r.Stock.GetForUpdate(ctx, entity.PoolShop, l.productID)
		if err != nil {
			return nil, err
		}
		available := entry.Balance().Available
		if available.LessThan(l.quantity) {
			return nil, &domain.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Pool:        string(entity.PoolShop),
				Requested:   l.quantity,
				Available:   available,
			}
		}
		price, err := resolvePrice(l, p, entry)
		if err != nil {
			return nil, err
		}
		saleLines[i] = entity.SaleLine{
			ID:          uuid.New().String(),
			SaleID:      sale.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    l.quantity,
			UnitPrice:   price,
			Total:       price.Mul(l.quantity),
		}
	}
	for _, sl := range saleLines {
		sale.Total = sale.Total.Add(sl.Total)
	}
	if in.AmountTendered.LessThan(sale.Total) {
		return nil, &domain.PaymentError{Total: sale.Total, Tendered: in.AmountTendered}
	}
	sale.Change = in.AmountTendered.Sub(sale.Total)
	sale.Lines = saleLines

	if err := r.Sales.Create(ctx, sale); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, errTicketTaken
		}
		return nil, err
	}
	for _, sl := range saleLines {
		change, err := uc.ledger.Apply(ctx, r, sl.ProductID, entity.PoolShop, entity.StockDelta{
			Available: sl.Quantity.Neg(),
			Sold:      sl.Quantity,
		})
		if err != nil {
			return nil, err
		}
		uc.recorder.RecordChange(ctx, r.Movements, change, entity.MovementVente, sl.Quantity, in.Seller.ID, sale.TicketNumber, "")
	}
	return sale, nil
}

// resolvePrice prix saisi, sinon copie boutique, sinon prix du produit.
func resolvePrice(l cartLine, p *entity.Product, entry *entity.StockEntry) (decimal.Decimal, error) {
	if l.price != nil {
		return *l.price, nil
	}
	if entry != nil && entry.SalePrice.Valid {
		return entry.SalePrice.Decimal, nil
	}
	if p.SalePrice.IsPositive() {
		return p.SalePrice, nil
	}
	return decimal.Zero, fmt.Errorf("%w: aucun prix de vente pour %s", domain.ErrInvalidInput, p.Name)
}

// GetSale vente par ID.
func (uc *POSUseCase) GetSale(ctx context.Context, id string) (*entity.Sale, error) {
	s, err := uc.repos.Sales.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: vente %s", domain.ErrNotFound, id)
	}
	return s, nil
}

// GetSaleByTicket vente par numéro de ticket.
func (uc *POSUseCase) GetSaleByTicket(ctx context.Context, ticket string) (*entity.Sale, error) {
	s, err := uc.repos.Sales.GetByTicket(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: ticket %s", domain.ErrNotFound, ticket)
	}
	return s, nil
}

// ListSales ventes filtrées, les plus récentes d'abord.
func (uc *POSUseCase) ListSales(ctx context.Context, filter entity.SaleFilter) ([]*entity.Sale, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return uc.repos.Sales.List(ctx, filter)
}

// RenderTicket reçu PDF d'une vente.
func (uc *POSUseCase) RenderTicket(ctx context.Context, saleID string) ([]byte, error) {
	if uc.renderer == nil {
		return nil, fmt.Errorf("%w: rendu des tickets non configuré", domain.ErrConflict)
	}
	s, err := uc.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return uc.renderer.RenderTicket(s, uc.shop)
}
