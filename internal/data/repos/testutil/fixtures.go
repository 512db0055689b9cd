package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pantry-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	id := uuid.New()
	u := &types.User{
		ID:        id,
		Email:     email,
		Username:  "user_" + id.String()[:8],
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedIngredient(tb testing.TB, ctx context.Context, tx *gorm.DB, name, unit string) *types.Ingredient {
	tb.Helper()
	ing := &types.Ingredient{
		ID:              uuid.New(),
		Name:            name,
		MeasurementUnit: unit,
	}
	if err := tx.WithContext(ctx).Create(ing).Error; err != nil {
		tb.Fatalf("seed ingredient: %v", err)
	}
	return ing
}

func SeedTag(tb testing.TB, ctx context.Context, tx *gorm.DB, name, slug string) *types.Tag {
	tb.Helper()
	tag := &types.Tag{
		ID:    uuid.New(),
		Name:  name,
		Slug:  slug,
		Color: "#E26C2D",
	}
	if err := tx.WithContext(ctx).Create(tag).Error; err != nil {
		tb.Fatalf("seed tag: %v", err)
	}
	return tag
}

// SeedRecipe inserts a recipe row with the given ingredient amounts and tags.
func SeedRecipe(tb testing.TB, ctx context.Context, tx *gorm.DB, authorID uuid.UUID, name string, amounts map[uuid.UUID]int, tagIDs ...uuid.UUID) *types.Recipe {
	tb.Helper()
	rec := &types.Recipe{
		ID:          uuid.New(),
		AuthorID:    authorID,
		Name:        name,
		Image:       "recipes/images/" + name + ".png",
		Text:        "mix and bake",
		CookingTime: 10,
	}
	if err := tx.WithContext(ctx).Create(rec).Error; err != nil {
		tb.Fatalf("seed recipe: %v", err)
	}
	for ingID, amount := range amounts {
		edge := &types.RecipeIngredient{ID: uuid.New(), RecipeID: rec.ID, IngredientID: ingID, Amount: amount}
		if err := tx.WithContext(ctx).Create(edge).Error; err != nil {
			tb.Fatalf("seed recipe ingredient: %v", err)
		}
	}
	for _, tagID := range tagIDs {
		edge := &types.RecipeTag{ID: uuid.New(), RecipeID: rec.ID, TagID: tagID}
		if err := tx.WithContext(ctx).Create(edge).Error; err != nil {
			tb.Fatalf("seed recipe tag: %v", err)
		}
	}
	return rec
}

func SeedCartItem(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, recipeID uuid.UUID) *types.ShoppingCart {
	tb.Helper()
	row := &types.ShoppingCart{ID: uuid.New(), UserID: userID, RecipeID: recipeID}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed shopping cart: %v", err)
	}
	return row
}

func SeedFavorite(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, recipeID uuid.UUID) *types.Favorite {
	tb.Helper()
	row := &types.Favorite{ID: uuid.New(), UserID: userID, RecipeID: recipeID}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed favorite: %v", err)
	}
	return row
}
