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

type IngredientRepo interface {
	Create(dbc dbctx.Context, rows []*types.Ingredient) ([]*types.Ingredient, error)
	// CreateIgnoreDuplicates inserts rows whose name is not taken yet and
	// reports how many were actually inserted.
	CreateIgnoreDuplicates(dbc dbctx.Context, rows []*types.Ingredient) (int64, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Ingredient, error)
	GetByNames(dbc dbctx.Context, names []string) ([]*types.Ingredient, error)
	ExistingIDs(dbc dbctx.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	SearchByPrefix(dbc dbctx.Context, prefix string, limit int) ([]*types.Ingredient, error)
	// SearchByContains matches term anywhere in the name, ignoring case.
	// Names starting with term sort first.
	SearchByContains(dbc dbctx.Context, term string, limit int) ([]*types.Ingredient, error)
	List(dbc dbctx.Context) ([]*types.Ingredient, error)
}

type ingredientRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIngredientRepo(db *gorm.DB, baseLog *logger.Logger) IngredientRepo {
	return &ingredientRepo{db: db, log: baseLog.With("repo", "IngredientRepo")}
}

func (r *ingredientRepo) Create(dbc dbctx.Context, rows []*types.Ingredient) ([]*types.Ingredient, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Ingredient{}, nil
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

func (r *ingredientRepo) CreateIgnoreDuplicates(dbc dbctx.Context, rows []*types.Ingredient) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return 0, nil
	}
	for _, row := range rows {
		if row != nil && row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	res := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *ingredientRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Ingredient, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Ingredient
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

func (r *ingredientRepo) GetByNames(dbc dbctx.Context, names []string) ([]*types.Ingredient, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Ingredient
	if len(names) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("name IN ?", names).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ingredientRepo) ExistingIDs(dbc dbctx.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []uuid.UUID{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Ingredient{}).
		Where("id IN ?", ids).
		Pluck("id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ingredientRepo) SearchByPrefix(dbc dbctx.Context, prefix string, limit int) ([]*types.Ingredient, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).Model(&types.Ingredient{})
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, EscapeLike(prefix)+"%")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.Ingredient
	if err := q.Order("LOWER(name) ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ingredientRepo) SearchByContains(dbc dbctx.Context, term string, limit int) ([]*types.Ingredient, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return r.SearchByPrefix(dbc, "", limit)
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	escaped := EscapeLike(term)
	q := t.WithContext(dbc.Ctx).
		Model(&types.Ingredient{}).
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+escaped+"%").
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                `CASE WHEN LOWER(name) LIKE ? ESCAPE '\' THEN 0 ELSE 1 END, LOWER(name) ASC, id ASC`,
			Vars:               []any{escaped + "%"},
			WithoutParentheses: true,
		}})
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.Ingredient
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ingredientRepo) List(dbc dbctx.Context) ([]*types.Ingredient, error) {
	return r.SearchByPrefix(dbc, "", 0)
}

// EscapeLike escapes LIKE wildcards so user input matches literally.
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
