package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pantry-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pantry-backend/internal/domain"
	"github.com/yungbote/pantry-backend/internal/platform/dbctx"
)

func TestUserTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewUserTokenRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "usertokenrepo@example.com")

	makeToken := func(access string, ttl time.Duration) *types.UserToken {
		return &types.UserToken{
			UserID:      u.ID,
			AccessToken: access,
			ExpiresAt:   time.Now().Add(ttl),
		}
	}

	live := makeToken("access-live", time.Hour)
	stale := makeToken("access-stale", -time.Hour)
	if _, err := repo.Create(dbc, []*types.UserToken{live, stale}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if live.ID == uuid.Nil {
		t.Fatalf("Create: expected id to be assigned")
	}

	if rows, err := repo.GetByUserIDs(dbc, []uuid.UUID{u.ID}); err != nil || len(rows) != 2 {
		t.Fatalf("GetByUserIDs: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByAccessTokens(dbc, []string{live.AccessToken}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByAccessTokens: err=%v len=%d", err, len(rows))
	}

	n, err := repo.DeleteExpired(dbc, time.Now())
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpired: err=%v n=%d", err, n)
	}

	n, err = repo.DeleteByAccessTokens(dbc, []string{live.AccessToken})
	if err != nil || n != 1 {
		t.Fatalf("DeleteByAccessTokens: err=%v n=%d", err, n)
	}
	if rows, err := repo.GetByAccessTokens(dbc, []string{live.AccessToken}); err != nil || len(rows) != 0 {
		t.Fatalf("GetByAccessTokens after delete: err=%v len=%d", err, len(rows))
	}

	if err := repo.DeleteByUserIDs(dbc, []uuid.UUID{u.ID}); err != nil {
		t.Fatalf("DeleteByUserIDs: %v", err)
	}
}
