// Package memory implémente les dépôts en mémoire (tests, démo sans base).
// Un seul verrou protège l'état; une transaction le garde pendant toute sa durée
// et restaure un instantané en cas d'erreur.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

type state struct {
	products      map[string]entity.Product
	stock         map[entity.Pool]map[string]entity.StockEntry
	movements     []entity.Movement
	recipeLines   map[string]entity.RecipeLine
	productions   map[string]entity.Production
	sales         map[string]entity.Sale
	cancellations map[string]entity.SaleCancellation // par vente
	users         map[string]entity.User
}

func newState() *state {
	st := &state{
		products:      make(map[string]entity.Product),
		stock:         make(map[entity.Pool]map[string]entity.StockEntry),
		recipeLines:   make(map[string]entity.RecipeLine),
		productions:   make(map[string]entity.Production),
		sales:         make(map[string]entity.Sale),
		cancellations: make(map[string]entity.SaleCancellation),
		users:         make(map[string]entity.User),
	}
	for _, p := range []entity.Pool{entity.PoolWorkshop, entity.PoolShop, entity.PoolKitchen} {
		st.stock[p] = make(map[string]entity.StockEntry)
	}
	return st
}

func (st *state) clone() *state {
	c := newState()
	for k, v := range st.products {
		c.products[k] = v
	}
	for pool, rows := range st.stock {
		for k, v := range rows {
			c.stock[pool][k] = v
		}
	}
	c.movements = append([]entity.Movement(nil), st.movements...)
	for k, v := range st.recipeLines {
		c.recipeLines[k] = v
	}
	for k, v := range st.productions {
		c.productions[k] = v
	}
	for k, v := range st.sales {
		v.Lines = append([]entity.SaleLine(nil), v.Lines...)
		c.sales[k] = v
	}
	for k, v := range st.cancellations {
		c.cancellations[k] = v
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	return c
}

// Store état partagé des dépôts en mémoire.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time

	movementErr error // injecté par les tests pour simuler un journal indisponible
}

// NewStore construit un store vide.
func NewStore() *Store {
	return &Store{st: newState(), now: time.Now}
}

// FailMovements fait échouer toute écriture de mouvement avec err (nil pour rétablir).
func (s *Store) FailMovements(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movementErr = err
}

// Repos dépôts hors transaction: chaque appel prend le verrou.
func (s *Store) Repos() repository.Repos {
	return s.repos(false)
}

// Users dépôt des utilisateurs.
func (s *Store) Users() *UserRepo {
	return &UserRepo{h: handle{store: s}}
}

func (s *Store) repos(inTx bool) repository.Repos {
	h := handle{store: s, inTx: inTx}
	return repository.Repos{
		Products:      &ProductRepo{h: h},
		Stock:         &StockRepo{h: h},
		Movements:     &MovementRepo{h: h},
		Recipes:       &RecipeRepo{h: h},
		Productions:   &ProductionRepo{h: h},
		Sales:         &SaleRepo{h: h},
		Cancellations: &CancellationRepo{h: h},
	}
}

// SeedProduct insère un produit avec sa réserve brute (tests et démo).
func (s *Store) SeedProduct(p entity.Product) *entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
		p.UpdatedAt = p.CreatedAt
	}
	p.Active = true
	s.st.products[p.ID] = p
	return &p
}

// SeedStock positionne une ligne de stock (tests et démo).
func (s *Store) SeedStock(pool entity.Pool, productID string, available decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.stock[pool][productID] = entity.StockEntry{
		ID:        fmt.Sprintf("%s-%s", pool, productID),
		ProductID: productID,
		Pool:      pool,
		Available: available,
		UpdatedAt: s.now(),
	}
}

// SetSaleCreatedAt réécrit la date d'une vente (tests de fenêtre d'annulation).
func (s *Store) SetSaleCreatedAt(saleID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sale, ok := s.st.sales[saleID]; ok {
		sale.CreatedAt = at
		s.st.sales[saleID] = sale
	}
}

// MovementCount nombre de mouvements enregistrés.
func (s *Store) MovementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.movements)
}

// SaleCount nombre de ventes enregistrées.
func (s *Store) SaleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.sales)
}

type handle struct {
	store *Store
	inTx  bool
}

func (h handle) do(fn func(st *state) error) error {
	if !h.inTx {
		h.store.mu.Lock()
		defer h.store.mu.Unlock()
	}
	return fn(h.store.st)
}

func (h handle) now() time.Time { return h.store.now() }

func page(n, limit, offset int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	return offset, end
}

// TxRunner exécute fn sous le verrou du store; toute erreur restaure l'état initial.
type TxRunner struct {
	store *Store
}

// NewTxRunner construit le runner.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run exécute fn avec des dépôts liés à la transaction.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snapshot := r.store.st.clone()
	if err := fn(r.store.repos(true)); err != nil {
		r.store.st = snapshot
		return err
	}
	return nil
}
