package feed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/m13/backoffice/internal/domain/integration"
)

type jsonStockEntry struct {
	SKU      string          `json:"sku"`
	Quantity json.RawMessage `json:"quantity"`
}

// ParseJSONStock parses the `[{sku, quantity}]` stock feed.
// Entries with an empty or null quantity are skipped.
func ParseJSONStock(data []byte) ([]integration.StockItem, error) {
	var entries []jsonStockEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("feed: decode json stock: %w", err)
	}
	items := make([]integration.StockItem, 0, len(entries))
	for _, e := range entries {
		raw := strings.Trim(strings.TrimSpace(string(e.Quantity)), `"`)
		if e.SKU == "" || raw == "" || raw == "null" {
			continue
		}
		qty, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: sku %s: %q", ErrInvalidQuantity, e.SKU, raw)
		}
		if qty < 0 {
			qty = 0
		}
		items = append(items, integration.StockItem{SKU: e.SKU, Quantity: qty})
	}
	return items, nil
}
