package inventory

import "github.com/shopspring/decimal"

// costPlaces précision du coût unitaire (au dix-millième: farine au gramme près).
const costPlaces = 4

// WeightedAverage coût unitaire de la réserve brute après une réception.
//
//	((oldQty * oldPrice) + (addedQty * addedPrice)) / (oldQty + addedQty)
//
// Un restant nul ou négatif (produit épuisé, restant importé incohérent) ne pèse pas:
// le coût devient celui de la réception. Sans quantité reçue, le coût actuel est conservé.
func WeightedAverage(oldQty, oldPrice, addedQty, addedPrice decimal.Decimal) decimal.Decimal {
	if !addedQty.IsPositive() {
		if !oldQty.IsPositive() {
			return decimal.Zero
		}
		return oldPrice
	}
	if !oldQty.IsPositive() {
		return addedPrice
	}
	num := oldQty.Mul(oldPrice).Add(addedQty.Mul(addedPrice))
	return num.Div(oldQty.Add(addedQty)).Round(costPlaces)
}
