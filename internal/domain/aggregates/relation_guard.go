package aggregates

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/pantry-backend/internal/domain/recipes"
)

var RelationGuardContract = Contract{
	Name:             "Recipes.RelationGuard",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns set semantics of favorite, shopping cart and subscribe membership edges.",
}

// RelationGuard owns user membership edges.
//
// Add fails with CodeConflict/ReasonAlreadyExists when the pair exists,
// Remove with CodeNotFound/ReasonMembershipNotFound when it does not.
type RelationGuard interface {
	Aggregate

	Add(ctx context.Context, in MembershipInput) error
	Remove(ctx context.Context, in MembershipInput) error
}

type MembershipInput struct {
	Kind     recipes.MembershipKind
	UserID   uuid.UUID
	TargetID uuid.UUID
}
