// Package models contains the GORM persistence models for the hub. They are
// kept apart from the domain aggregates so the domain stays free of ORM tags;
// every model has ToDomain/FromDomain mappers.
//
//   - occupancy.go: tables, sessions and session members
//   - membership.go: members and the wallet ledger
//   - affiliate.go: affiliates and earnings
package models
