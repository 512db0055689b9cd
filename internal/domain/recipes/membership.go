package recipes

import (
	"time"

	"github.com/google/uuid"
)

// MembershipKind tags the three user->entity edge tables.
type MembershipKind string

const (
	MembershipFavorite     MembershipKind = "favorite"
	MembershipShoppingCart MembershipKind = "shopping_cart"
	MembershipSubscribe    MembershipKind = "subscribe"
)

func (k MembershipKind) Valid() bool {
	switch k {
	case MembershipFavorite, MembershipShoppingCart, MembershipSubscribe:
		return true
	}
	return false
}

// MembershipEdge is implemented by pointers to the edge row types so a single
// generic repo can serve all of them.
type MembershipEdge interface {
	Kind() MembershipKind
	// TargetColumn names the column holding the target entity id.
	TargetColumn() string
	Set(id, userID, targetID uuid.UUID, at time.Time)
	Pair() (userID, targetID uuid.UUID)
}

type Favorite struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_recipe,priority:1;column:user_id" json:"user_id"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_recipe,priority:2;index;column:recipe_id" json:"recipe_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Favorite) TableName() string               { return "favorite" }
func (*Favorite) Kind() MembershipKind           { return MembershipFavorite }
func (*Favorite) TargetColumn() string           { return "recipe_id" }
func (f *Favorite) Pair() (uuid.UUID, uuid.UUID) { return f.UserID, f.RecipeID }
func (f *Favorite) Set(id, userID, targetID uuid.UUID, at time.Time) {
	f.ID, f.UserID, f.RecipeID, f.CreatedAt = id, userID, targetID, at
}

type ShoppingCart struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shopping_cart_user_recipe,priority:1;column:user_id" json:"user_id"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shopping_cart_user_recipe,priority:2;index;column:recipe_id" json:"recipe_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ShoppingCart) TableName() string               { return "shopping_cart" }
func (*ShoppingCart) Kind() MembershipKind           { return MembershipShoppingCart }
func (*ShoppingCart) TargetColumn() string           { return "recipe_id" }
func (s *ShoppingCart) Pair() (uuid.UUID, uuid.UUID) { return s.UserID, s.RecipeID }
func (s *ShoppingCart) Set(id, userID, targetID uuid.UUID, at time.Time) {
	s.ID, s.UserID, s.RecipeID, s.CreatedAt = id, userID, targetID, at
}

// Subscribe is a follower->author edge. The CHECK constraint keeps
// self-subscriptions out even if validation is bypassed.
type Subscribe struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_subscribe_user_author,priority:1;column:user_id;check:chk_subscribe_not_self,user_id <> author_id" json:"user_id"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_subscribe_user_author,priority:2;index;column:author_id" json:"author_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Subscribe) TableName() string               { return "subscribe" }
func (*Subscribe) Kind() MembershipKind           { return MembershipSubscribe }
func (*Subscribe) TargetColumn() string           { return "author_id" }
func (s *Subscribe) Pair() (uuid.UUID, uuid.UUID) { return s.UserID, s.AuthorID }
func (s *Subscribe) Set(id, userID, targetID uuid.UUID, at time.Time) {
	s.ID, s.UserID, s.AuthorID, s.CreatedAt = id, userID, targetID, at
}
