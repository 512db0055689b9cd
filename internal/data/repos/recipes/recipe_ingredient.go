package recipes

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pantry-backend/internal/domain"
	"github.com/yungbote/pantry-backend/internal/platform/dbctx"
	"github.com/yungbote/pantry-backend/internal/platform/logger"
)

// CartLine is one un-aggregated (ingredient, amount) pair reached through a
// user's shopping cart.
type CartLine struct {
	RecipeID        uuid.UUID
	IngredientID    uuid.UUID
	Name            string
	MeasurementUnit string
	Amount          int
}

// ComposedLine is a recipe_ingredient edge joined with its catalog entry.
type ComposedLine struct {
	ID              uuid.UUID
	RecipeID        uuid.UUID
	IngredientID    uuid.UUID
	Name            string
	MeasurementUnit string
	Amount          int
}

type RecipeIngredientRepo interface {
	Create(dbc dbctx.Context, rows []*types.RecipeIngredient) ([]*types.RecipeIngredient, error)
	GetByRecipeIDs(dbc dbctx.Context, recipeIDs []uuid.UUID) ([]*types.RecipeIngredient, error)
	GetComposedByRecipeIDs(dbc dbctx.Context, recipeIDs []uuid.UUID) ([]ComposedLine, error)
	UpdateAmount(dbc dbctx.Context, id uuid.UUID, amount int) error
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	DeleteByRecipeIDs(dbc dbctx.Context, recipeIDs []uuid.UUID) error
	CartLinesByUser(dbc dbctx.Context, userID uuid.UUID) ([]CartLine, error)
}

type recipeIngredientRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecipeIngredientRepo(db *gorm.DB, baseLog *logger.Logger) RecipeIngredientRepo {
	return &recipeIngredientRepo{db: db, log: baseLog.With("repo", "RecipeIngredientRepo")}
}

func (r *recipeIngredientRepo) Create(dbc dbctx.Context, rows []*types.RecipeIngredient) ([]*types.RecipeIngredient, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.RecipeIngredient{}, nil
	}
	for _, row := range rows {
		if row != nil && row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *recipeIngredientRepo) GetByRecipeIDs(dbc dbctx.Context, recipeIDs []uuid.UUID) ([]*types.RecipeIngredient, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.RecipeIngredient
	if len(recipeIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("recipe_id IN ?", recipeIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recipeIngredientRepo) GetComposedByRecipeIDs(dbc dbctx.Context, recipeIDs []uuid.UUID) ([]ComposedLine, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []ComposedLine{}
	if len(recipeIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Table("recipe_ingredient AS ri").
		Select("ri.id, ri.recipe_id, ri.ingredient_id, i.name, i.measurement_unit, ri.amount").
		Joins("JOIN ingredient AS i ON i.id = ri.ingredient_id").
		Where("ri.recipe_id IN ?", recipeIDs).
		Order("LOWER(i.name) ASC, i.id ASC").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recipeIngredientRepo) UpdateAmount(dbc dbctx.Context, id uuid.UUID, amount int) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.RecipeIngredient{}).
		Where("id = ?", id).
		Update("amount", amount).Error
}

func (r *recipeIngredientRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.RecipeIngredient{}).Error
}

func (r *recipeIngredientRepo) DeleteByRecipeIDs(dbc dbctx.Context, recipeIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(recipeIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Where("recipe_id IN ?", recipeIDs).
		Delete(&types.RecipeIngredient{}).Error
}

func (r *recipeIngredientRepo) CartLinesByUser(dbc dbctx.Context, userID uuid.UUID) ([]CartLine, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []CartLine{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Table("shopping_cart AS sc").
		Select("ri.recipe_id, ri.ingredient_id, i.name, i.measurement_unit, ri.amount").
		Joins("JOIN recipe_ingredient AS ri ON ri.recipe_id = sc.recipe_id").
		Joins("JOIN ingredient AS i ON i.id = ri.ingredient_id").
		Where("sc.user_id = ?", userID).
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
