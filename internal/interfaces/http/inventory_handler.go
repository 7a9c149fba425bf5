package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/application/dto"
	"github.com/jhoicas/boulangerie-api/internal/application/inventory"
	"github.com/jhoicas/boulangerie-api/internal/application/usecase"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
)

// InventoryHandler achats, transferts, ajustements et consultation du stock (protégé).
type InventoryHandler struct {
	purchases     *inventory.PurchaseUseCase
	transfers     *inventory.TransferUseCase
	adjustments   *inventory.AdjustmentUseCase
	queries       *inventory.StockQueryUseCase
	replenishment *inventory.ReplenishmentUseCase
}

// NewInventoryHandler construit le handler.
func NewInventoryHandler(
	purchases *inventory.PurchaseUseCase,
	transfers *inventory.TransferUseCase,
	adjustments *inventory.AdjustmentUseCase,
	queries *inventory.StockQueryUseCase,
	replenishment *inventory.ReplenishmentUseCase,
) *InventoryHandler {
	return &InventoryHandler{
		purchases:     purchases,
		transfers:     transfers,
		adjustments:   adjustments,
		queries:       queries,
		replenishment: replenishment,
	}
}

// ReceivePurchase godoc
// @Summary      Réceptionner un achat de matière première
// @Description  Crédite la réserve brute et recalcule le coût unitaire moyen pondéré.
//
//	Sans product_id, le produit est recherché par nom puis créé.
//
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PurchaseRequest  true  "product_id ou name, quantity, unit_price"
// @Success      201   {object}  dto.PurchaseResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/purchases [post]
func (h *InventoryHandler) ReceivePurchase(c *fiber.Ctx) error {
	var in dto.PurchaseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.purchases.ReceivePurchase(c.Context(), inventory.PurchaseInput{
		ProductID: in.ProductID,
		Name:      in.Name,
		Unit:      in.Unit,
		Quantity:  in.Quantity,
		UnitPrice: in.UnitPrice,
		Supplier:  in.Supplier,
		Actor:     GetActor(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.PurchaseResponse{
		Product:    *usecase.ToProductResponse(res.Product),
		Created:    res.Created,
		UnitCost:   res.UnitCost,
		Before:     res.Change.Before.Available,
		After:      res.Change.After.Available,
		MovementID: res.MovementID,
	})
}

// Transfer godoc
// @Summary      Transférer du stock entre deux réserves
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "product_id, from, to (raw|workshop|shop|kitchen), quantity"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stock/transfers [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	from, err := parsePool(in.From)
	if err != nil {
		return respondError(c, err)
	}
	to, err := parsePool(in.To)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.transfers.Transfer(c.Context(), inventory.TransferInput{
		ProductID: in.ProductID,
		From:      from,
		To:        to,
		Quantity:  in.Quantity,
		Actor:     GetActor(c),
		Reference: in.Reference,
		Comment:   in.Comment,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TransferResponse{
		Reference:   res.Reference,
		ProductID:   res.ProductID,
		ProductName: res.ProductName,
		Quantity:    res.Quantity,
		Source:      toLedgerChangeDTO(res.Source),
		Destination: toLedgerChangeDTO(res.Destination),
		MovementIDs: res.MovementIDs,
	})
}

// Adjust godoc
// @Summary      Ajuster un stock après inventaire physique
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustmentRequest  true  "product_id, pool, counted, reason"
// @Success      200   {object}  dto.AdjustmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	pool, err := parsePool(in.Pool)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.adjustments.Adjust(c.Context(), inventory.AdjustmentInput{
		ProductID: in.ProductID,
		Pool:      pool,
		Counted:   in.Counted,
		Reason:    in.Reason,
		Actor:     GetActor(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	out := dto.AdjustmentResponse{Delta: res.Delta, MovementID: res.MovementID}
	if res.Change != nil {
		ch := toLedgerChangeDTO(*res.Change)
		out.Change = &ch
	}
	return c.JSON(out)
}

// Balances godoc
// @Summary      Soldes d'un produit dans toutes les réserves
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "ID du produit"
// @Success      200  {object}  dto.ProductBalancesResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/products/{product_id} [get]
func (h *InventoryHandler) Balances(c *fiber.Ctx) error {
	b, err := h.queries.Balances(c.Context(), c.Params("product_id"))
	if err != nil {
		return respondError(c, err)
	}
	out := dto.ProductBalancesResponse{
		ProductID:   b.ProductID,
		ProductName: b.ProductName,
		Unit:        b.Unit,
		Pools:       make(map[string]dto.BalanceDTO, len(b.Pools)),
	}
	for pool, bal := range b.Pools {
		out.Pools[string(pool)] = toBalanceDTO(bal)
	}
	return c.JSON(out)
}

// ListPool godoc
// @Summary      Lignes de stock d'une réserve
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        pool    path   string  true   "raw | workshop | shop | kitchen"
// @Param        limit   query  int     false  "Limite"
// @Param        offset  query  int     false  "Décalage"
// @Success      200  {object}  dto.StockListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/pools/{pool} [get]
func (h *InventoryHandler) ListPool(c *fiber.Ctx) error {
	pool, err := parsePool(c.Params("pool"))
	if err != nil {
		return respondError(c, err)
	}
	page := pageFrom(c)
	entries, err := h.queries.ListPool(c.Context(), pool, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]dto.StockEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, toStockEntryResponse(e))
	}
	return c.JSON(dto.StockListResponse{
		Pool:  string(pool),
		Label: pool.Label(),
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// Summary godoc
// @Summary      Tableau de bord des réserves
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.PoolSummaryResponse
// @Router       /api/stock/summary [get]
func (h *InventoryHandler) Summary(c *fiber.Ctx) error {
	list, err := h.queries.Summary(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.PoolSummaryResponse, 0, len(list))
	for _, s := range list {
		out = append(out, dto.PoolSummaryResponse{
			Pool:           string(s.Pool),
			Label:          s.Pool.Label(),
			Products:       s.Products,
			TotalAvailable: s.TotalAvailable,
			LowStock:       s.LowStock,
			OutOfStock:     s.OutOfStock,
		})
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Historique des mouvements de stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Produit"
// @Param        type        query  string  false  "entree | sortie | transfert | vente | annulation_vente | ajustement"
// @Param        pool        query  string  false  "Réserve"
// @Param        reference   query  string  false  "Ticket, lot ou référence de transfert"
// @Param        from        query  string  false  "Début (RFC3339 ou AAAA-MM-JJ)"
// @Param        to          query  string  false  "Fin (RFC3339 ou AAAA-MM-JJ)"
// @Param        limit       query  int     false  "Limite"
// @Param        offset      query  int     false  "Décalage"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/movements [get]
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	page := pageFrom(c)
	filter := entity.MovementFilter{
		ProductID: c.Query("product_id"),
		Reference: c.Query("reference"),
		Limit:     page.Limit,
		Offset:    page.Offset,
	}
	if t := c.Query("type"); t != "" {
		typ, ok := entity.ParseMovementType(t)
		if !ok {
			return badRequest(c, "type de mouvement inconnu: "+t)
		}
		filter.Type = typ
	}
	if p := c.Query("pool"); p != "" {
		pool, err := parsePool(p)
		if err != nil {
			return respondError(c, err)
		}
		filter.Pool = pool
	}
	var err error
	if filter.From, err = queryTime(c, "from", false); err != nil {
		return respondError(c, err)
	}
	if filter.To, err = queryTime(c, "to", true); err != nil {
		return respondError(c, err)
	}
	list, err := h.queries.Movements(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, toMovementResponse(m))
	}
	return c.JSON(dto.MovementListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}

// Reconcile godoc
// @Summary      Comparer un solde avec le dernier mouvement journalisé
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "ID du produit"
// @Param        pool        path  string  true  "Réserve"
// @Success      200  {object}  dto.ReconcileResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/products/{product_id}/pools/{pool}/reconcile [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	pool, err := parsePool(c.Params("pool"))
	if err != nil {
		return respondError(c, err)
	}
	d, err := h.queries.Reconcile(c.Context(), c.Params("product_id"), pool)
	if err != nil {
		return respondError(c, err)
	}
	out := dto.ReconcileResponse{
		ProductID:    d.ProductID,
		Pool:         string(d.Pool),
		Balance:      d.Balance,
		LastRecorded: d.LastRecorded,
		Consistent:   d.Consistent,
	}
	if d.LastMovement != nil {
		m := toMovementResponse(d.LastMovement)
		out.LastMovement = &m
	}
	return c.JSON(out)
}

// GetReplenishmentList godoc
// @Summary      Liste de réapprovisionnement
// @Description  Matières premières dont la couverture est inférieure au seuil,
//
//	triées par urgence puis par coût de commande.
//
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/stock/replenishment-list [get]
func (h *InventoryHandler) GetReplenishmentList(c *fiber.Ctx) error {
	list, err := h.replenishment.GenerateReplenishmentList(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	total := decimal.Zero
	for _, s := range list {
		total = total.Add(s.EstimatedOrderCost)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"estimated_cost": total,
		"replenishments": list,
	})
}
