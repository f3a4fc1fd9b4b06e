package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZCalculate(t *testing.T) {
	c := ZCalculate(d("69.95"), d("23.13"), d("3.55"), d("3.55"))

	assert.Equal(t, "-5.18", c.Provision.StringFixed(2))
	assert.Equal(t, "-11.17", c.Vat.StringFixed(2))
	assert.Equal(t, "2.10", c.GenericCosts.StringFixed(2))
	assert.Equal(t, "29.02", c.ProfitAfterTax.StringFixed(2))
}

func TestZalandoProvisionPercent(t *testing.T) {
	tests := []struct {
		price string
		want  string
	}{
		{"30", "5.10"},
		{"50", "5.10"},
		{"50.01", "10.10"},
		{"69.95", "10.10"},
		{"80", "10.10"},
		{"100", "5.10"},
		{"120", "5.10"},
		{"150", "15.10"},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			assert.Equal(t, tt.want, ZalandoProvisionPercent(d(tt.price)).StringFixed(2))
		})
	}
}

func newStats(price string, shipped, returned int) ArticleStats {
	p := d(price)
	return ArticleStats{
		SKU:                   "women-bom-na-s",
		Category:              "Woman Bomber Jacken",
		Marketplace:           "ZALANDO",
		Price:                 p,
		ProvisionInPercent:    ZalandoProvisionPercent(p),
		VatInPercent:          19,
		GenericCostsInPercent: 3,
		ProductionCosts:       d("23.13"),
		ShippingCosts:         d("3.55"),
		ReturnCosts:           d("3.55"),
		Shipped:               shipped,
		Returned:              returned,
	}
}

func TestArticleStats(t *testing.T) {
	a := newStats("64.95", 3, 2)

	assert.Equal(t, "6.56", a.ProvisionAmount().StringFixed(2))
	assert.Equal(t, "12.34", a.VatAmount().StringFixed(2))
	assert.Equal(t, "1.95", a.GenericCostsAmount().StringFixed(2))
	assert.Equal(t, "17.42", a.ProfitAfterTaxes().StringFixed(2))
	assert.Equal(t, "17.42", a.TotalRevenue().StringFixed(2))
	assert.Equal(t, "18.10", a.TotalReturnCosts().StringFixed(2))
	assert.Equal(t, "-0.68", a.TotalDiff().StringFixed(2))
	assert.Equal(t, "194.85", a.Sales().StringFixed(2))
}

func TestGroupByCategory(t *testing.T) {
	groups := GroupByCategory([]ArticleStats{
		newStats("69.95", 4, 0),
		newStats("64.95", 3, 2),
	})

	require.Len(t, groups, 1)
	g := groups["Woman Bomber Jacken"]
	require.NotNil(t, g)
	require.Len(t, g.Content, 2)

	assert.Equal(t, "20.82", g.Content[0].ProfitAfterTaxes.StringFixed(2))
	assert.Equal(t, "83.28", g.Content[0].TotalRevenue.StringFixed(2))
	assert.Equal(t, "279.80", g.Content[0].Sales.StringFixed(2))

	assert.Equal(t, 7, g.Stats.Shipped)
	assert.Equal(t, 2, g.Stats.Returned)
	assert.Equal(t, "474.65", g.Stats.Sales.StringFixed(2))
	assert.Equal(t, "100.70", g.Stats.TotalRevenue.StringFixed(2))
	assert.Equal(t, "18.10", g.Stats.TotalReturnCosts.StringFixed(2))
	assert.Equal(t, "82.60", g.Stats.TotalDiff.StringFixed(2))

	assert.Equal(t, []string{"Woman Bomber Jacken"}, SortedCategoryNames(groups))
}
