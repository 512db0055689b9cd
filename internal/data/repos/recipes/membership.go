package recipes

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pantry-backend/internal/domain"
	"github.com/yungbote/pantry-backend/internal/platform/dbctx"
	"github.com/yungbote/pantry-backend/internal/platform/logger"
)

// EdgeStore is the kind-agnostic surface of a membership table.
type EdgeStore interface {
	Kind() types.MembershipKind
	Insert(dbc dbctx.Context, userID, targetID uuid.UUID) error
	// Delete reports whether a row was removed.
	Delete(dbc dbctx.Context, userID, targetID uuid.UUID) (bool, error)
	Exists(dbc dbctx.Context, userID, targetID uuid.UUID) (bool, error)
	// TargetIDsOf returns the subset of targetIDs the user holds an edge to.
	TargetIDsOf(dbc dbctx.Context, userID uuid.UUID, targetIDs []uuid.UUID) ([]uuid.UUID, error)
	DeleteByTargetIDs(dbc dbctx.Context, targetIDs []uuid.UUID) error
}

// MembershipRepo serves one of the favorite, shopping_cart or subscribe tables.
type MembershipRepo[E any] interface {
	EdgeStore
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit, offset int) ([]*E, error)
	// TargetIDsByUser is ListByUser reduced to target ids, newest first.
	TargetIDsByUser(dbc dbctx.Context, userID uuid.UUID, limit, offset int) ([]uuid.UUID, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type FavoriteRepo = MembershipRepo[types.Favorite]
type ShoppingCartRepo = MembershipRepo[types.ShoppingCart]
type SubscribeRepo = MembershipRepo[types.Subscribe]

type membershipRepo[E any, PE interface {
	*E
	types.MembershipEdge
}] struct {
	db     *gorm.DB
	log    *logger.Logger
	kind   types.MembershipKind
	column string
}

func NewMembershipRepo[E any, PE interface {
	*E
	types.MembershipEdge
}](db *gorm.DB, baseLog *logger.Logger) MembershipRepo[E] {
	zero := PE(new(E))
	return &membershipRepo[E, PE]{
		db:     db,
		log:    baseLog.With("repo", "MembershipRepo", "kind", string(zero.Kind())),
		kind:   zero.Kind(),
		column: zero.TargetColumn(),
	}
}

func NewFavoriteRepo(db *gorm.DB, baseLog *logger.Logger) FavoriteRepo {
	return NewMembershipRepo[types.Favorite](db, baseLog)
}

func NewShoppingCartRepo(db *gorm.DB, baseLog *logger.Logger) ShoppingCartRepo {
	return NewMembershipRepo[types.ShoppingCart](db, baseLog)
}

func NewSubscribeRepo(db *gorm.DB, baseLog *logger.Logger) SubscribeRepo {
	return NewMembershipRepo[types.Subscribe](db, baseLog)
}

func (r *membershipRepo[E, PE]) Kind() types.MembershipKind { return r.kind }

func (r *membershipRepo[E, PE]) Insert(dbc dbctx.Context, userID, targetID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	row := PE(new(E))
	row.Set(uuid.New(), userID, targetID, time.Now().UTC())
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *membershipRepo[E, PE]) Delete(dbc dbctx.Context, userID, targetID uuid.UUID) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND "+r.column+" = ?", userID, targetID).
		Delete(PE(new(E)))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *membershipRepo[E, PE]) Exists(dbc dbctx.Context, userID, targetID uuid.UUID) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil || targetID == uuid.Nil {
		return false, nil
	}
	var count int64
	if err := t.WithContext(dbc.Ctx).
		Model(PE(new(E))).
		Where("user_id = ? AND "+r.column+" = ?", userID, targetID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *membershipRepo[E, PE]) TargetIDsOf(dbc dbctx.Context, userID uuid.UUID, targetIDs []uuid.UUID) ([]uuid.UUID, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []uuid.UUID{}
	if userID == uuid.Nil || len(targetIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Model(PE(new(E))).
		Where("user_id = ? AND "+r.column+" IN ?", userID, targetIDs).
		Pluck(r.column, &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *membershipRepo[E, PE]) DeleteByTargetIDs(dbc dbctx.Context, targetIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(targetIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Where(r.column+" IN ?", targetIDs).
		Delete(PE(new(E))).Error
}

func (r *membershipRepo[E, PE]) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit, offset int) ([]*E, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*E{}
	if userID == uuid.Nil {
		return out, nil
	}
	q := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *membershipRepo[E, PE]) TargetIDsByUser(dbc dbctx.Context, userID uuid.UUID, limit, offset int) ([]uuid.UUID, error) {
	rows, err := r.ListByUser(dbc, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		owner, target := PE(row).Pair()
		if owner != userID {
			r.log.Warn("edge owner mismatch", "user_id", userID, "owner_id", owner)
			continue
		}
		out = append(out, target)
	}
	return out, nil
}

func (r *membershipRepo[E, PE]) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var count int64
	if userID == uuid.Nil {
		return 0, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Model(PE(new(E))).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
