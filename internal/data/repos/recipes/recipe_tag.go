package recipes

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pantry-backend/internal/domain"
	"github.com/yungbote/pantry-backend/internal/platform/dbctx"
	"github.com/yungbote/pantry-backend/internal/platform/logger"
)

// TaggedRecipe is a recipe_tag edge joined with its tag.
type TaggedRecipe struct {
	RecipeID uuid.UUID
	TagID    uuid.UUID
	Name     string
	Slug     string
	Color    string
}

type RecipeTagRepo interface {
	Create(dbc dbctx.Context, rows []*types.RecipeTag) ([]*types.RecipeTag, error)
	GetByRecipeIDs(dbc dbctx.Context, recipeIDs []uuid.UUID) ([]*types.RecipeTag, error)
	GetTagsByRecipeIDs(dbc dbctx.Context, recipeIDs []uuid.UUID) ([]TaggedRecipe, error)
	DeleteByRecipeIDs(dbc dbctx.Context, recipeIDs []uuid.UUID) error
}

type recipeTagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecipeTagRepo(db *gorm.DB, baseLog *logger.Logger) RecipeTagRepo {
	return &recipeTagRepo{db: db, log: baseLog.With("repo", "RecipeTagRepo")}
}

func (r *recipeTagRepo) Create(dbc dbctx.Context, rows []*types.RecipeTag) ([]*types.RecipeTag, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.RecipeTag{}, nil
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

func (r *recipeTagRepo) GetByRecipeIDs(dbc dbctx.Context, recipeIDs []uuid.UUID) ([]*types.RecipeTag, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.RecipeTag
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

func (r *recipeTagRepo) GetTagsByRecipeIDs(dbc dbctx.Context, recipeIDs []uuid.UUID) ([]TaggedRecipe, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []TaggedRecipe{}
	if len(recipeIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Table("recipe_tag AS rt").
		Select("rt.recipe_id, tg.id AS tag_id, tg.name, tg.slug, tg.color").
		Joins("JOIN tag AS tg ON tg.id = rt.tag_id").
		Where("rt.recipe_id IN ?", recipeIDs).
		Order("tg.name ASC").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recipeTagRepo) DeleteByRecipeIDs(dbc dbctx.Context, recipeIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(recipeIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Where("recipe_id IN ?", recipeIDs).
		Delete(&types.RecipeTag{}).Error
}
