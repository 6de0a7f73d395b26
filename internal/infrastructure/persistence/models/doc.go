// Package models contains GORM-specific persistence models that map to
// database tables. They are kept separate from the domain entities so
// the domain layer stays free of ORM tags and column mappings; each
// model carries FromDomain/ToDomain mappers and the repositories only
// ever touch the models.
//
// Layout:
//   - base.go: shared embeds (BaseModel, AggregateModel with version column)
//   - plan.go: payment plans, plan templates, demand drafts
//   - sales.go: flats, customers, bookings, payments
//   - construction.go: per-phase construction progress records
package models
