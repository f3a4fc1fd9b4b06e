package catalog

import "errors"

var (
	ErrConfigNotFound           = errors.New("catalog: marketplace config not found")
	ErrInvalidConfigMarketplace = errors.New("catalog: marketplace does not support cost configs")
	ErrInvalidCosts             = errors.New("catalog: costs must not be negative")
	ErrPriceNotFound            = errors.New("catalog: price not found")
	ErrInvalidSKU               = errors.New("catalog: sku is required")
	ErrCategoryNotFound         = errors.New("catalog: category not found")
	ErrInvalidCategoryName      = errors.New("catalog: category name is required")
	ErrJobNotFound              = errors.New("catalog: job not found")
)
