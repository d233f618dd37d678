// Package aggregates implements the domain aggregate contracts on gorm.
//
// Aggregates compose table repos from internal/data/repos and own the
// transaction boundary of invariant-critical writes.
package aggregates
