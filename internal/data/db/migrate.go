package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/pantry-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// EnsureRecipeIndexes adds Postgres-only expression indexes. Other dialects
// rely on the struct-tag indexes created by AutoMigrate.
func EnsureRecipeIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != DriverPostgres {
		return nil
	}
	// Case-insensitive prefix search over the ingredient catalog.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_ingredient_lower_name
		ON ingredient (lower(name) text_pattern_ops);
	`).Error; err != nil {
		return fmt.Errorf("create idx_ingredient_lower_name: %w", err)
	}
	// Recipe listing is newest first.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_recipe_created_at_desc
		ON recipe (created_at DESC, id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_recipe_created_at_desc: %w", err)
	}
	// Cart aggregation walks shopping_cart by user then joins compositions.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_recipe_ingredient_recipe_amount
		ON recipe_ingredient (recipe_id, ingredient_id, amount);
	`).Error; err != nil {
		return fmt.Errorf("create idx_recipe_ingredient_recipe_amount: %w", err)
	}
	return nil
}
