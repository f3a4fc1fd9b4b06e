// Package integration contains the Marketplace Integration bounded context.
// This context manages the retailer's connections to third-party marketplaces
// (OTTO, Zalando, Etsy, TikTok Shop, AboutYou, Mirapodo, Galaxus, Galeria).
//
// Key concepts:
//   - Marketplace: Code identifying a connected marketplace
//   - Order / OrderItem: Orders imported from a marketplace, upserted by marketplace keys
//   - OrderSource, StockTarget, PriceTarget, ShipmentTarget: Port interfaces per capability
//   - BatchRequest: Asynchronous marketplace batch job polled until completion
//   - MarketplaceProduct: Mapping of a shop SKU to the marketplace's product identifiers
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
