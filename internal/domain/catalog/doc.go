// Package catalog contains the shop-side master data shared by all marketplaces:
// per-marketplace cost configuration, categories, the central price table,
// the command job log and persisted error records.
package catalog
