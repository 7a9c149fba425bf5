package repository

// Repos ensemble des dépôts liés à une même transaction.
type Repos struct {
	Products      ProductRepository
	Stock         StockRepository
	Movements     MovementRepository
	Recipes       RecipeRepository
	Productions   ProductionRepository
	Sales         SaleRepository
	Cancellations CancellationRepository
}
