// Package models contains the GORM persistence models for store profiles,
// the catalog and the sale ledger. Domain entities carry no ORM tags; each
// model converts with ToDomain and a ...FromDomain constructor.
//
// The struct tags mirror the SQL files under migrations/ so that
// AutoMigrate builds an equivalent schema for SQLite development databases
// and tests.
package models
