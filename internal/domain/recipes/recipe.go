package recipes

import (
	"time"

	"github.com/google/uuid"
)

type Recipe struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID    uuid.UUID `gorm:"type:uuid;not null;index;column:author_id" json:"author_id"`
	Name        string    `gorm:"not null;size:200" json:"name"`
	Image       string    `gorm:"not null;column:image" json:"image"`
	Text        string    `gorm:"not null;type:text" json:"text"`
	CookingTime int       `gorm:"not null;column:cooking_time" json:"cooking_time"`

	CreatedAt time.Time `gorm:"not null;index;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Recipe) TableName() string { return "recipe" }

// RecipeIngredient is a composition edge. The (recipe_id, ingredient_id)
// unique index is the final guard against duplicate ingredients.
type RecipeIngredient struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecipeID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_ingredient,priority:1;column:recipe_id" json:"recipe_id"`
	IngredientID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_ingredient,priority:2;index;column:ingredient_id" json:"ingredient_id"`
	Amount       int       `gorm:"not null" json:"amount"`
}

func (RecipeIngredient) TableName() string { return "recipe_ingredient" }

type RecipeTag struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecipeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_tag,priority:1;column:recipe_id" json:"recipe_id"`
	TagID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_tag,priority:2;index;column:tag_id" json:"tag_id"`
}

func (RecipeTag) TableName() string { return "recipe_tag" }
