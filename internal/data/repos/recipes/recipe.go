package recipes

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/pantry-backend/internal/domain"
	"github.com/yungbote/pantry-backend/internal/platform/dbctx"
	"github.com/yungbote/pantry-backend/internal/platform/logger"
)

// RecipeFilter narrows recipe listings. Zero values disable a filter.
type RecipeFilter struct {
	AuthorID       uuid.UUID
	TagSlugs       []string
	FavoritedBy    uuid.UUID
	NotFavoritedBy uuid.UUID
	InCartOf       uuid.UUID
	NotInCartOf    uuid.UUID
	// Search matches name or text case-insensitively; wildcards are literal.
	Search string
	Limit  int
	Offset int
}

type RecipeRepo interface {
	Create(dbc dbctx.Context, row *types.Recipe) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Recipe, error)
	// GetByIDForUpdate row-locks the recipe on dialects that support it.
	GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.Recipe, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Recipe, error)
	ExistingIDs(dbc dbctx.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	List(dbc dbctx.Context, f RecipeFilter) ([]*types.Recipe, int64, error)
	CountByAuthorIDs(dbc dbctx.Context, authorIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	ListByAuthor(dbc dbctx.Context, authorID uuid.UUID, limit int) ([]*types.Recipe, error)
}

type recipeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecipeRepo(db *gorm.DB, baseLog *logger.Logger) RecipeRepo {
	return &recipeRepo{db: db, log: baseLog.With("repo", "RecipeRepo")}
}

func (r *recipeRepo) Create(dbc dbctx.Context, row *types.Recipe) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *recipeRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Recipe, error) {
	return r.getByID(dbc, id, false)
}

func (r *recipeRepo) GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.Recipe, error) {
	return r.getByID(dbc, id, true)
}

func (r *recipeRepo) getByID(dbc dbctx.Context, id uuid.UUID, forUpdate bool) (*types.Recipe, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	q := t.WithContext(dbc.Ctx)
	if forUpdate && q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row types.Recipe
	if err := q.Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *recipeRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Recipe, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Recipe
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recipeRepo) ExistingIDs(dbc dbctx.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []uuid.UUID{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Recipe{}).
		Where("id IN ?", ids).
		Pluck("id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recipeRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Recipe{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *recipeRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.Recipe{}).Error
}

func (r *recipeRepo) List(dbc dbctx.Context, f RecipeFilter) ([]*types.Recipe, int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).Model(&types.Recipe{})
	if f.AuthorID != uuid.Nil {
		q = q.Where("recipe.author_id = ?", f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		sub := t.WithContext(dbc.Ctx).
			Table("recipe_tag").
			Select("recipe_tag.recipe_id").
			Joins("JOIN tag ON tag.id = recipe_tag.tag_id").
			Where("tag.slug IN ?", f.TagSlugs)
		q = q.Where("recipe.id IN (?)", sub)
	}
	q = r.membershipFilter(dbc, t, q, "favorite", f.FavoritedBy, f.NotFavoritedBy)
	q = r.membershipFilter(dbc, t, q, "shopping_cart", f.InCartOf, f.NotInCartOf)
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		pattern := "%" + EscapeLike(term) + "%"
		q = q.Where(`(LOWER(recipe.name) LIKE ? ESCAPE '\' OR LOWER(recipe.text) LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var out []*types.Recipe
	if err := q.Order("recipe.created_at DESC, recipe.id DESC").Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// membershipFilter keeps recipes in (or, with exclude, out of) one user's
// edge table.
func (r *recipeRepo) membershipFilter(dbc dbctx.Context, t, q *gorm.DB, table string, include, exclude uuid.UUID) *gorm.DB {
	if include != uuid.Nil {
		sub := t.WithContext(dbc.Ctx).Table(table).Select("recipe_id").Where("user_id = ?", include)
		q = q.Where("recipe.id IN (?)", sub)
	}
	if exclude != uuid.Nil {
		sub := t.WithContext(dbc.Ctx).Table(table).Select("recipe_id").Where("user_id = ?", exclude)
		q = q.Where("recipe.id NOT IN (?)", sub)
	}
	return q
}

func (r *recipeRepo) CountByAuthorIDs(dbc dbctx.Context, authorIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := make(map[uuid.UUID]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}
	type row struct {
		AuthorID uuid.UUID
		Count    int64
	}
	var rows []row
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Recipe{}).
		Select("author_id, COUNT(*) AS count").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, rr := range rows {
		out[rr.AuthorID] = rr.Count
	}
	return out, nil
}

func (r *recipeRepo) ListByAuthor(dbc dbctx.Context, authorID uuid.UUID, limit int) ([]*types.Recipe, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Recipe
	if authorID == uuid.Nil {
		return out, nil
	}
	q := t.WithContext(dbc.Ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
