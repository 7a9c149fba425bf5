package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/boulangerie-api/internal/application/dto"
	"github.com/jhoicas/boulangerie-api/internal/application/sales"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
)

// SaleHandler caisse, tickets et annulations.
type SaleHandler struct {
	pos    *sales.POSUseCase
	cancel *sales.CancellationUseCase
}

// NewSaleHandler construit le handler.
func NewSaleHandler(pos *sales.POSUseCase, cancel *sales.CancellationUseCase) *SaleHandler {
	return &SaleHandler{pos: pos, cancel: cancel}
}

// Create godoc
// @Summary      Finaliser une vente
// @Description  Débite le stock boutique de chaque article et émet un ticket unique.
//
//	Tout ou rien: un article en rupture annule toute la vente.
//
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "items, amount_tendered"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	items := make([]sales.SaleItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, sales.SaleItem{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	sale, err := h.pos.FinalizeSale(c.Context(), sales.FinalizeSaleInput{
		Items:          items,
		AmountTendered: in.AmountTendered,
		Seller:         GetActor(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSaleResponse(sale))
}

// List godoc
// @Summary      Lister les ventes
// @Description  Un vendeur ne voit que ses propres ventes.
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        status     query  string  false  "validee | annulee"
// @Param        seller_id  query  string  false  "Vendeur"
// @Param        from       query  string  false  "Début (RFC3339 ou AAAA-MM-JJ)"
// @Param        to         query  string  false  "Fin (RFC3339 ou AAAA-MM-JJ)"
// @Param        limit      query  int     false  "Limite"
// @Param        offset     query  int     false  "Décalage"
// @Success      200  {object}  dto.SaleListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	page := pageFrom(c)
	filter := entity.SaleFilter{
		Status:   c.Query("status"),
		SellerID: c.Query("seller_id"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	}
	if filter.Status != "" && filter.Status != entity.SaleValidated && filter.Status != entity.SaleCancelled {
		return badRequest(c, "statut inconnu: "+filter.Status)
	}
	if actor := GetActor(c); !actor.IsElevated() {
		filter.SellerID = actor.ID
	}
	var err error
	if filter.From, err = queryTime(c, "from", false); err != nil {
		return respondError(c, err)
	}
	if filter.To, err = queryTime(c, "to", true); err != nil {
		return respondError(c, err)
	}
	list, err := h.pos.ListSales(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]dto.SaleResponse, 0, len(list))
	for _, s := range list {
		items = append(items, toSaleResponse(s))
	}
	return c.JSON(dto.SaleListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}

// GetByID godoc
// @Summary      Obtenir une vente
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la vente"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	sale, err := h.pos.GetSale(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toSaleResponse(sale))
}

// GetByTicket godoc
// @Summary      Obtenir une vente par numéro de ticket
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        ticket  path  string  true  "Numéro de ticket"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/tickets/{ticket} [get]
func (h *SaleHandler) GetByTicket(c *fiber.Ctx) error {
	sale, err := h.pos.GetSaleByTicket(c.Context(), c.Params("ticket"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toSaleResponse(sale))
}

// TicketPDF godoc
// @Summary      Ticket de caisse en PDF
// @Tags         sales
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la vente"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/ticket.pdf [get]
func (h *SaleHandler) TicketPDF(c *fiber.Ctx) error {
	out, err := h.pos.RenderTicket(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="ticket-`+c.Params("id")+`.pdf"`)
	return c.Send(out)
}

// Eligibility godoc
// @Summary      Vérifier si une vente peut être annulée
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID de la vente"
// @Param        reason  query  string  false  "Motif envisagé"
// @Success      200  {object}  dto.EligibilityResponse
// @Router       /api/sales/{id}/cancellation/eligibility [get]
func (h *SaleHandler) Eligibility(c *fiber.Ctx) error {
	id := c.Params("id")
	e, err := h.cancel.CanCancel(c.Context(), GetActor(c), id, c.Query("reason"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.EligibilityResponse{SaleID: id, Cancelable: e.Allowed, Reason: e.Reason})
}

// Cancel godoc
// @Summary      Annuler une vente
// @Description  Réservé aux gérants et administrateurs, dans les 7 jours. Recrédite le stock boutique.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la vente"
// @Param        body  body  dto.CancelSaleRequest  true  "reason"
// @Success      200   {object}  dto.CancellationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/cancel [post]
func (h *SaleHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.cancel.Cancel(c.Context(), sales.CancelInput{
		SaleID: c.Params("id"),
		Reason: in.Reason,
		Actor:  GetActor(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toCancellationResponse(res.Cancellation))
}

// GetCancellation godoc
// @Summary      Trace d'annulation d'une vente
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la vente"
// @Success      200  {object}  dto.CancellationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/cancellation [get]
func (h *SaleHandler) GetCancellation(c *fiber.Ctx) error {
	sc, err := h.cancel.GetCancellation(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toCancellationResponse(sc))
}
