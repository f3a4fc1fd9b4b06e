package pricing

import (
	"github.com/shopspring/decimal"
)

var (
	provisionDivisor = decimal.RequireFromString("1.08")
	vatDivisor       = decimal.RequireFromString("1.19")
	genericFactor    = decimal.RequireFromString("1.03")
	hundred          = decimal.NewFromInt(100)
)

// ZCalculation is the spreadsheet style margin calculation for a Zalando article
type ZCalculation struct {
	CostsProduction decimal.Decimal `json:"costs_production"`
	VkZalando       decimal.Decimal `json:"vk_zalando"`
	ShippingCosts   decimal.Decimal `json:"shipping_costs"`
	ReturnCosts     decimal.Decimal `json:"return_costs"`
	Provision       decimal.Decimal `json:"eight_percent_provision"`
	Vat             decimal.Decimal `json:"nineteen_percent_vat"`
	GenericCosts    decimal.Decimal `json:"generic_costs"`
	ProfitAfterTax  decimal.Decimal `json:"profit_after_taxes"`
}

// ZCalculate computes provision, vat, generic costs and profit for a sell price.
// Provision and vat are negative (deducted), generic costs positive, all rounded to cents.
func ZCalculate(vk, production, shipping, returns decimal.Decimal) ZCalculation {
	provision := vk.Div(provisionDivisor).Sub(vk).RoundBank(2)
	vat := vk.Div(vatDivisor).Sub(vk).RoundBank(2)
	generic := vk.Mul(genericFactor).Sub(vk).RoundBank(2)
	profit := vk.Sub(production).Sub(shipping).Add(provision).Add(vat).Add(generic).RoundBank(2)
	return ZCalculation{
		CostsProduction: production,
		VkZalando:       vk,
		ShippingCosts:   shipping,
		ReturnCosts:     returns,
		Provision:       provision,
		Vat:             vat,
		GenericCosts:    generic,
		ProfitAfterTax:  profit,
	}
}

// ZalandoProvisionPercent returns payment service fee plus the price dependent platform fee
func ZalandoProvisionPercent(price decimal.Decimal) decimal.Decimal {
	paymentServiceFee := decimal.RequireFromString("1.55")
	platformFee := decimal.RequireFromString("3.55")

	switch {
	case price.GreaterThan(decimal.NewFromInt(50)) && price.LessThanOrEqual(decimal.NewFromInt(80)):
		platformFee = decimal.RequireFromString("8.55")
	case price.GreaterThan(decimal.NewFromInt(120)):
		platformFee = decimal.RequireFromString("13.55")
	}
	return paymentServiceFee.Add(platformFee)
}
