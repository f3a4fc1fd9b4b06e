// Package models contains GORM persistence models for the aggregates whose domain
// types carry no ORM tags: marketplace orders with their items, shipments, batch
// requests, feed uploads, tokens, listings, webhook messages and the Zalando
// report lines.
//
// Every model converts with ToDomain and FromDomain. Catalog and pricing
// entities are mapped directly and have no model here.
package models
