package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pantry-backend/internal/data/repos"
	domainagg "github.com/yungbote/pantry-backend/internal/domain/aggregates"
	"github.com/yungbote/pantry-backend/internal/platform/apierr"
	"github.com/yungbote/pantry-backend/internal/platform/dbctx"
	"github.com/yungbote/pantry-backend/internal/platform/logger"
	"github.com/yungbote/pantry-backend/internal/platform/media"
)

const (
	avatarDir      = "users/avatars"
	opUserAvatar   = "Users.Service.Avatar"
	avatarFieldKey = "avatar"
)

type UserService interface {
	GetMe(ctx context.Context, userID uuid.UUID) (*AuthorView, error)
	// GetByID returns a public profile; is_subscribed is relative to viewerID.
	GetByID(ctx context.Context, viewerID, userID uuid.UUID) (*AuthorView, error)
	// SetAvatar stores a base64 data URL image and returns its public URL.
	SetAvatar(ctx context.Context, userID uuid.UUID, dataURL string) (string, error)
	DeleteAvatar(ctx context.Context, userID uuid.UUID) error
}

type userService struct {
	log        *logger.Logger
	userRepo   repos.UserRepo
	subscribes repos.SubscribeRepo
	media      media.Store
	hydrator   recipeHydrator
}

func NewUserService(log *logger.Logger, userRepo repos.UserRepo, subscribes repos.SubscribeRepo, store media.Store) UserService {
	return &userService{
		log:        log.With("service", "UserService"),
		userRepo:   userRepo,
		subscribes: subscribes,
		media:      store,
		hydrator:   recipeHydrator{media: store},
	}
}

func (us *userService) GetMe(ctx context.Context, userID uuid.UUID) (*AuthorView, error) {
	if userID == uuid.Nil {
		us.log.Warn("User id not set in request data")
		return nil, apierr.Unauthorized("unauthorized", ErrUnauthenticated)
	}
	return us.GetByID(ctx, userID, userID)
}

func (us *userService) GetByID(ctx context.Context, viewerID, userID uuid.UUID) (*AuthorView, error) {
	dbc := dbctx.Context{Ctx: ctx}
	u, err := us.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user_not_found", fmt.Errorf("user %s not found", userID))
	}

	subscribed := map[uuid.UUID]struct{}{}
	if viewerID != uuid.Nil && viewerID != userID {
		ids, err := us.subscribes.TargetIDsOf(dbc, viewerID, []uuid.UUID{userID})
		if err != nil {
			return nil, fmt.Errorf("error checking subscription: %w", err)
		}
		subscribed = idSet(ids)
	}
	view := us.hydrator.author(u, userID, subscribed)
	return &view, nil
}

func (us *userService) SetAvatar(ctx context.Context, userID uuid.UUID, dataURL string) (string, error) {
	if userID == uuid.Nil {
		return "", apierr.Unauthorized("unauthorized", ErrUnauthenticated)
	}
	if strings.TrimSpace(dataURL) == "" {
		return "", domainagg.Fail(domainagg.CodeValidation, opUserAvatar, domainagg.ReasonMissingField, avatarFieldKey, "avatar is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	u, err := us.userRepo.GetByID(dbc, userID)
	if err != nil {
		return "", fmt.Errorf("error fetching user: %w", err)
	}
	if u == nil {
		return "", apierr.NotFound("user_not_found", fmt.Errorf("user %s not found", userID))
	}
	key, err := saveImage(ctx, us.media, opUserAvatar, avatarDir, avatarFieldKey, dataURL)
	if err != nil {
		return "", err
	}
	if err := us.userRepo.UpdateAvatar(dbc, userID, key); err != nil {
		us.discard(ctx, key)
		return "", fmt.Errorf("save avatar: %w", err)
	}
	us.discard(ctx, u.Avatar)
	return us.hydrator.imageURL(key), nil
}

func (us *userService) DeleteAvatar(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return apierr.Unauthorized("unauthorized", ErrUnauthenticated)
	}
	dbc := dbctx.Context{Ctx: ctx}
	u, err := us.userRepo.GetByID(dbc, userID)
	if err != nil {
		return fmt.Errorf("error fetching user: %w", err)
	}
	if u == nil || u.Avatar == "" {
		return apierr.NotFound("avatar_not_found", fmt.Errorf("user %s has no avatar", userID))
	}
	if err := us.userRepo.UpdateAvatar(dbc, userID, ""); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("user_not_found", err)
		}
		return fmt.Errorf("clear avatar: %w", err)
	}
	us.discard(ctx, u.Avatar)
	return nil
}

func (us *userService) discard(ctx context.Context, key string) {
	if key == "" || us.media == nil {
		return
	}
	if err := us.media.Delete(ctx, key); err != nil {
		us.log.Warn("failed to delete avatar (ignored)", "key", key, "error", err)
	}
}
