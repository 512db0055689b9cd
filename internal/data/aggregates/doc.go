// Package aggregates contains infrastructure implementations of domain aggregate contracts.
//
// Implementations compose table-level repos from internal/data/repos and own
// the transaction boundary of every write that must keep a recipe composition
// or a membership edge set consistent.
package aggregates
