package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/boulangerie-api/internal/application/dto"
	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

// ProductUseCase consultation et désactivation des produits. Les quantités et coûts passent par les entrées d'achat.
type ProductUseCase struct {
	repo repository.ProductRepository
}

// NewProductUseCase construit le cas d'usage.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

// GetByID obtient un produit par ID (nil, nil s'il n'existe pas).
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	return ToProductResponse(product), nil
}

// List liste les produits avec pagination.
func (uc *ProductUseCase) List(ctx context.Context, activeOnly bool, limit, offset int) (*dto.ProductListResponse, error) {
	list, err := uc.repo.List(ctx, activeOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *ToProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Deactivate retire un produit des achats; les soldes existants restent consultables.
func (uc *ProductUseCase) Deactivate(ctx context.Context, actor entity.Actor, id string) error {
	if !actor.IsElevated() {
		return domain.ErrForbidden
	}
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product == nil {
		return fmt.Errorf("%w: produit %s", domain.ErrNotFound, id)
	}
	return uc.repo.Deactivate(ctx, id)
}

// ToProductResponse convertit l'entité en DTO.
func ToProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Unit:          p.Unit,
		PurchasePrice: p.PurchasePrice,
		PurchasedQty:  p.PurchasedQty,
		UnitCost:      p.UnitCost().Round(4),
		Remaining:     p.Remaining,
		SalePrice:     p.SalePrice,
		Active:        p.Active,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
