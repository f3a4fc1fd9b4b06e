package feed

import (
	"io"

	"github.com/m13/backoffice/internal/infrastructure/csvutil"
)

// ZalandoColumns is the column order Zalando's feed importer expects
var ZalandoColumns = []string{
	ColStore, ColEAN, ColPrice, ColRetailPrice, ColQuantity, ColProductNumber,
	ColProductName, ColArticleNumber, ColArticleColor, ColArticleSize, ColStoreArticleLocation,
}

// zalandoQuantityColumn is written unquoted
const zalandoQuantityColumn = 4

// ZalandoRecord returns the row in Zalando column order
func (r Row) ZalandoRecord() []string {
	return []string{
		r.Store, r.EAN, r.Price, r.RetailPrice, r.Quantity, r.ProductNumber,
		r.ProductName, r.ArticleNumber, r.ArticleColor, r.ArticleSize, r.StoreArticleLocation,
	}
}

// WriteShop writes rows in shop column order with every field quoted
func WriteShop(w io.Writer, rows []Row) error {
	cw := csvutil.NewWriter(w, ';', csvutil.QuoteAll)
	if err := cw.Write(ShopColumns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return err
		}
	}
	return cw.Flush()
}

// WriteZalando writes the transformed feed: Zalando column order, quantity bare, all else quoted
func WriteZalando(w io.Writer, rows []Row) error {
	if err := csvutil.NewWriter(w, ';', csvutil.QuoteAll).WriteAll([][]string{ZalandoColumns}); err != nil {
		return err
	}
	cw := csvutil.NewWriter(w, ';', csvutil.QuoteAll).WithRawColumns(zalandoQuantityColumn)
	for _, r := range rows {
		if err := cw.Write(r.ZalandoRecord()); err != nil {
			return err
		}
	}
	return cw.Flush()
}
