package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/pantry-backend/internal/data/repos"
	types "github.com/yungbote/pantry-backend/internal/domain"
	domainagg "github.com/yungbote/pantry-backend/internal/domain/aggregates"
	"github.com/yungbote/pantry-backend/internal/observability"
	"github.com/yungbote/pantry-backend/internal/platform/apierr"
	"github.com/yungbote/pantry-backend/internal/platform/dbctx"
	"github.com/yungbote/pantry-backend/internal/platform/logger"
	"github.com/yungbote/pantry-backend/internal/platform/media"
)

const (
	defaultSubscriptionPageLimit = 6
	maxSubscriptionPageLimit     = 100
	defaultSubscriptionRecipes   = 3
)

// SubscriptionView is a followed author with a preview of their latest recipes.
type SubscriptionView struct {
	AuthorView
	Recipes      []RecipeShortView `json:"recipes"`
	RecipesCount int64             `json:"recipes_count"`
}

type SubscriptionPage struct {
	Count   int64              `json:"count"`
	Results []SubscriptionView `json:"results"`
}

type SubscriptionQuery struct {
	Limit        int
	Offset       int
	RecipesLimit int
}

type MembershipService interface {
	// AddRecipe puts the recipe into the user's favorites or shopping cart.
	AddRecipe(ctx context.Context, userID uuid.UUID, kind types.MembershipKind, recipeID uuid.UUID) (*RecipeShortView, error)
	RemoveRecipe(ctx context.Context, userID uuid.UUID, kind types.MembershipKind, recipeID uuid.UUID) error
	Subscribe(ctx context.Context, userID, authorID uuid.UUID, recipesLimit int) (*SubscriptionView, error)
	Unsubscribe(ctx context.Context, userID, authorID uuid.UUID) error
	ListSubscriptions(ctx context.Context, userID uuid.UUID, q SubscriptionQuery) (SubscriptionPage, error)
}

type MembershipServiceDeps struct {
	Log        *logger.Logger
	Guard      domainagg.RelationGuard
	Recipes    repos.RecipeRepo
	Users      repos.UserRepo
	Subscribes repos.SubscribeRepo
	Media      media.Store
	Metrics    *observability.Metrics
}

type membershipService struct {
	log        *logger.Logger
	guard      domainagg.RelationGuard
	recipes    repos.RecipeRepo
	users      repos.UserRepo
	subscribes repos.SubscribeRepo
	metrics    *observability.Metrics
	hydrator   recipeHydrator
}

func NewMembershipService(deps MembershipServiceDeps) MembershipService {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &membershipService{
		log:        log.With("service", "MembershipService"),
		guard:      deps.Guard,
		recipes:    deps.Recipes,
		users:      deps.Users,
		subscribes: deps.Subscribes,
		metrics:    deps.Metrics,
		hydrator:   recipeHydrator{media: deps.Media},
	}
}

func (s *membershipService) AddRecipe(ctx context.Context, userID uuid.UUID, kind types.MembershipKind, recipeID uuid.UUID) (*RecipeShortView, error) {
	if err := s.change(ctx, userID, kind, "add", recipeID); err != nil {
		return nil, err
	}
	r, err := s.recipes.GetByID(dbctx.Context{Ctx: ctx}, recipeID)
	if err != nil {
		return nil, fmt.Errorf("load recipe: %w", err)
	}
	if r == nil {
		return nil, apierr.NotFound("recipe_not_found", fmt.Errorf("recipe %s not found", recipeID))
	}
	short := s.hydrator.short(r)
	return &short, nil
}

func (s *membershipService) RemoveRecipe(ctx context.Context, userID uuid.UUID, kind types.MembershipKind, recipeID uuid.UUID) error {
	return s.change(ctx, userID, kind, "remove", recipeID)
}

func (s *membershipService) Subscribe(ctx context.Context, userID, authorID uuid.UUID, recipesLimit int) (*SubscriptionView, error) {
	if err := s.change(ctx, userID, types.MembershipSubscribe, "add", authorID); err != nil {
		return nil, err
	}
	author, err := s.users.GetByID(dbctx.Context{Ctx: ctx}, authorID)
	if err != nil {
		return nil, fmt.Errorf("load author: %w", err)
	}
	if author == nil {
		return nil, apierr.NotFound("user_not_found", fmt.Errorf("user %s not found", authorID))
	}
	views, err := s.subscriptionViews(ctx, []*types.User{author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *membershipService) Unsubscribe(ctx context.Context, userID, authorID uuid.UUID) error {
	return s.change(ctx, userID, types.MembershipSubscribe, "remove", authorID)
}

func (s *membershipService) ListSubscriptions(ctx context.Context, userID uuid.UUID, q SubscriptionQuery) (SubscriptionPage, error) {
	page := SubscriptionPage{Results: []SubscriptionView{}}
	if userID == uuid.Nil {
		return page, apierr.Unauthorized("unauthorized", ErrUnauthenticated)
	}
	dbc := dbctx.Context{Ctx: ctx}
	total, err := s.subscribes.CountByUser(dbc, userID)
	if err != nil {
		return page, fmt.Errorf("count subscriptions: %w", err)
	}
	authorIDs, err := s.subscribes.TargetIDsByUser(dbc, userID,
		clampLimit(q.Limit, defaultSubscriptionPageLimit, maxSubscriptionPageLimit), max(q.Offset, 0))
	if err != nil {
		return page, fmt.Errorf("list subscriptions: %w", err)
	}
	authors, err := s.users.GetByIDs(dbc, authorIDs)
	if err != nil {
		return page, fmt.Errorf("load authors: %w", err)
	}
	// Keep subscription order; GetByIDs does not.
	byID := make(map[uuid.UUID]*types.User, len(authors))
	for _, a := range authors {
		byID[a.ID] = a
	}
	ordered := make([]*types.User, 0, len(authors))
	for _, id := range authorIDs {
		if a, ok := byID[id]; ok {
			ordered = append(ordered, a)
		}
	}
	views, err := s.subscriptionViews(ctx, ordered, q.RecipesLimit)
	if err != nil {
		return page, err
	}
	page.Count = total
	page.Results = views
	return page, nil
}

func (s *membershipService) subscriptionViews(ctx context.Context, authors []*types.User, recipesLimit int) ([]SubscriptionView, error) {
	out := make([]SubscriptionView, 0, len(authors))
	if len(authors) == 0 {
		return out, nil
	}
	if recipesLimit <= 0 {
		recipesLimit = defaultSubscriptionRecipes
	}
	dbc := dbctx.Context{Ctx: ctx}
	ids := make([]uuid.UUID, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	counts, err := s.recipes.CountByAuthorIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("count author recipes: %w", err)
	}
	subscribed := idSet(ids)
	for _, a := range authors {
		latest, err := s.recipes.ListByAuthor(dbc, a.ID, recipesLimit)
		if err != nil {
			return nil, fmt.Errorf("list author recipes: %w", err)
		}
		shorts := make([]RecipeShortView, 0, len(latest))
		for _, r := range latest {
			shorts = append(shorts, s.hydrator.short(r))
		}
		out = append(out, SubscriptionView{
			AuthorView:   s.hydrator.author(a, a.ID, subscribed),
			Recipes:      shorts,
			RecipesCount: counts[a.ID],
		})
	}
	return out, nil
}

func (s *membershipService) change(ctx context.Context, userID uuid.UUID, kind types.MembershipKind, action string, targetID uuid.UUID) error {
	if userID == uuid.Nil {
		return apierr.Unauthorized("unauthorized", ErrUnauthenticated)
	}
	in := domainagg.MembershipInput{Kind: kind, UserID: userID, TargetID: targetID}
	var err error
	if action == "add" {
		err = s.guard.Add(ctx, in)
	} else {
		err = s.guard.Remove(ctx, in)
	}
	status := "ok"
	if err != nil {
		status = string(domainagg.CodeOf(err))
	}
	s.metrics.IncMembershipChange(string(kind), action, status)
	return err
}
