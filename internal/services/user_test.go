package services

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/pantry-backend/internal/domain/aggregates"
	"github.com/yungbote/pantry-backend/internal/platform/dbctx"
)

func TestUserServiceProfiles(t *testing.T) {
	e := newTestEnv(t)
	bg := context.Background()
	chef := e.seedUser(t, "chef@example.com")
	fan := e.seedUser(t, "fan@example.com")

	_, err := e.userSvc.GetMe(bg, uuid.Nil)
	wantAPIError(t, err, http.StatusUnauthorized, "unauthorized")

	me, err := e.userSvc.GetMe(bg, fan.ID)
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if me.ID != fan.ID || me.Email != "fan@example.com" || me.IsSubscribed || me.Avatar != "" {
		t.Fatalf("me: %+v", me)
	}

	if _, err := e.membershipSvc.Subscribe(bg, fan.ID, chef.ID, 0); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	profile, err := e.userSvc.GetByID(bg, fan.ID, chef.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !profile.IsSubscribed {
		t.Fatalf("fan should see is_subscribed")
	}
	anon, err := e.userSvc.GetByID(bg, uuid.Nil, chef.ID)
	if err != nil {
		t.Fatalf("anonymous GetByID: %v", err)
	}
	if anon.IsSubscribed {
		t.Fatalf("anonymous caller must not see subscriptions")
	}

	_, err = e.userSvc.GetByID(bg, uuid.Nil, uuid.New())
	wantAPIError(t, err, http.StatusNotFound, "user_not_found")
}

func TestUserServiceAvatar(t *testing.T) {
	e := newTestEnv(t)
	bg := context.Background()
	chef := e.seedUser(t, "chef@example.com")

	_, err := e.userSvc.SetAvatar(bg, uuid.Nil, pngDataURL(t))
	wantAPIError(t, err, http.StatusUnauthorized, "unauthorized")

	_, err = e.userSvc.SetAvatar(bg, chef.ID, "")
	if domainagg.ReasonOf(err) != domainagg.ReasonMissingField || domainagg.FieldOf(err) != "avatar" {
		t.Fatalf("empty avatar: got %v", err)
	}
	_, err = e.userSvc.SetAvatar(bg, chef.ID, "data:image/png;base64,!!")
	if !domainagg.IsCode(err, domainagg.CodeValidation) || domainagg.ReasonOf(err) != domainagg.ReasonInvalidImage || domainagg.FieldOf(err) != "avatar" {
		t.Fatalf("bad avatar: want invalid_image on avatar, got %v", err)
	}

	first, err := e.userSvc.SetAvatar(bg, chef.ID, pngDataURL(t))
	if err != nil {
		t.Fatalf("SetAvatar: %v", err)
	}
	if !strings.HasPrefix(first, "/media/users/avatars/") {
		t.Fatalf("avatar url: got %q", first)
	}
	stored, _ := e.users.GetByID(dbctx.Context{Ctx: bg}, chef.ID)
	firstPath := e.mediaPath(t, stored.Avatar)

	me, err := e.userSvc.GetMe(bg, chef.ID)
	if err != nil || me.Avatar != first {
		t.Fatalf("GetMe avatar: err=%v avatar=%q want %q", err, me.Avatar, first)
	}

	second, err := e.userSvc.SetAvatar(bg, chef.ID, pngDataURL(t))
	if err != nil {
		t.Fatalf("SetAvatar (replace): %v", err)
	}
	if second == first {
		t.Fatalf("replacement should get a new key")
	}
	if _, err := os.Stat(firstPath); !os.IsNotExist(err) {
		t.Fatalf("replaced avatar file should be removed, stat err=%v", err)
	}
	stored, _ = e.users.GetByID(dbctx.Context{Ctx: bg}, chef.ID)
	secondPath := e.mediaPath(t, stored.Avatar)

	if err := e.userSvc.DeleteAvatar(bg, chef.ID); err != nil {
		t.Fatalf("DeleteAvatar: %v", err)
	}
	if _, err := os.Stat(secondPath); !os.IsNotExist(err) {
		t.Fatalf("deleted avatar file should be removed, stat err=%v", err)
	}
	me, _ = e.userSvc.GetMe(bg, chef.ID)
	if me.Avatar != "" {
		t.Fatalf("avatar after delete: %q", me.Avatar)
	}
	err = e.userSvc.DeleteAvatar(bg, chef.ID)
	wantAPIError(t, err, http.StatusNotFound, "avatar_not_found")
}
