package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var RecipeComposerContract = Contract{
	Name:             "Recipes.RecipeComposer",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns atomic recipe row + ingredient-amount edges + tag edges writes, including author membership bootstrap.",
}

// RecipeComposer owns recipe composition invariants.
//
// Write method failures should return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeForbidden, CodeRetryable, CodeInternal.
// Validation failures carry a Reason cause and the offending input Field.
type RecipeComposer interface {
	Aggregate

	// Create validates and persists a recipe together with its full composition.
	Create(ctx context.Context, in CreateRecipeInput) (RecipeComposition, error)

	// Update replaces scalar fields and reconciles the composition of an existing recipe.
	Update(ctx context.Context, in UpdateRecipeInput) (RecipeComposition, error)

	// Delete removes a recipe with every edge and membership that points at it.
	Delete(ctx context.Context, in DeleteRecipeInput) error
}

type IngredientAmount struct {
	IngredientID uuid.UUID
	Amount       int
}

type CreateRecipeInput struct {
	AuthorID    uuid.UUID
	Name        string
	Image       string
	Text        string
	CookingTime int
	Ingredients []IngredientAmount
	TagIDs      []uuid.UUID
}

// UpdateRecipeInput replaces a recipe's fields. An empty Image keeps the
// stored one.
type UpdateRecipeInput struct {
	ActorID     uuid.UUID
	RecipeID    uuid.UUID
	Name        string
	Image       string
	Text        string
	CookingTime int
	Ingredients []IngredientAmount
	TagIDs      []uuid.UUID
}

type DeleteRecipeInput struct {
	ActorID  uuid.UUID
	RecipeID uuid.UUID
}

// ComposedIngredient is one persisted recipe_ingredient edge.
type ComposedIngredient struct {
	EdgeID       uuid.UUID
	IngredientID uuid.UUID
	Amount       int
}

type RecipeComposition struct {
	RecipeID    uuid.UUID
	AuthorID    uuid.UUID
	Ingredients []ComposedIngredient
	TagIDs      []uuid.UUID
	ComposedAt  time.Time
}
