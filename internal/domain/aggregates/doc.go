// Package aggregates defines domain-facing aggregate contracts.
//
// These contracts avoid persistence/transport details and represent semantic
// write boundaries where invariants must be enforced atomically: recipe
// composition and user membership edges.
package aggregates
