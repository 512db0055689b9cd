package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pantry-backend/internal/data/repos"
	types "github.com/yungbote/pantry-backend/internal/domain"
	"github.com/yungbote/pantry-backend/internal/observability"
	"github.com/yungbote/pantry-backend/internal/platform/apierr"
	"github.com/yungbote/pantry-backend/internal/platform/cache"
	"github.com/yungbote/pantry-backend/internal/platform/dbctx"
	"github.com/yungbote/pantry-backend/internal/platform/logger"
	"github.com/yungbote/pantry-backend/internal/platform/validation"
)

const (
	defaultIngredientSearchLimit = 50
	maxIngredientSearchLimit     = 500
	tagListCacheKey              = "tags:all"
)

type IngredientSeed struct {
	Name            string `json:"name" yaml:"name" validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" yaml:"measurement_unit" validate:"required,max=200"`
}

type TagSeed struct {
	Name  string `json:"name" yaml:"name" validate:"required,max=200"`
	Slug  string `json:"slug" yaml:"slug" validate:"required,max=50,slug"`
	Color string `json:"color,omitempty" yaml:"color" validate:"omitempty,hexcolor6"`
}

// EnsureResult reports how many seeds were new. Seeds whose unique key already
// existed are counted in Total but not in Created.
type EnsureResult struct {
	Total   int
	Created int64
}

type IngredientService interface {
	// Search returns ingredients whose name starts with prefix, ignoring case.
	Search(ctx context.Context, prefix string, limit int) ([]*types.Ingredient, error)
	// SearchContains returns ingredients whose name contains term, names
	// starting with term first.
	SearchContains(ctx context.Context, term string, limit int) ([]*types.Ingredient, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Ingredient, error)
	EnsureIngredients(ctx context.Context, seeds []IngredientSeed) (EnsureResult, error)
}

type TagService interface {
	List(ctx context.Context) ([]*types.Tag, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Tag, error)
	EnsureTags(ctx context.Context, seeds []TagSeed) (EnsureResult, error)
}

type ingredientService struct {
	log      *logger.Logger
	repo     repos.IngredientRepo
	cache    cache.Cache
	cacheTTL time.Duration
	metrics  *observability.Metrics
}

func NewIngredientService(log *logger.Logger, repo repos.IngredientRepo, c cache.Cache, cacheTTL time.Duration, metrics *observability.Metrics) IngredientService {
	if c == nil {
		c = cache.Noop{}
	}
	return &ingredientService{
		log:      log.With("service", "IngredientService"),
		repo:     repo,
		cache:    c,
		cacheTTL: cacheTTL,
		metrics:  metrics,
	}
}

func (s *ingredientService) Search(ctx context.Context, prefix string, limit int) ([]*types.Ingredient, error) {
	return s.cachedSearch(ctx, "prefix", prefix, limit, s.repo.SearchByPrefix)
}

func (s *ingredientService) SearchContains(ctx context.Context, term string, limit int) ([]*types.Ingredient, error) {
	return s.cachedSearch(ctx, "contains", term, limit, s.repo.SearchByContains)
}

func (s *ingredientService) cachedSearch(
	ctx context.Context,
	mode, term string,
	limit int,
	search func(dbctx.Context, string, int) ([]*types.Ingredient, error),
) ([]*types.Ingredient, error) {
	term = strings.TrimSpace(term)
	if limit <= 0 {
		limit = defaultIngredientSearchLimit
	}
	if limit > maxIngredientSearchLimit {
		limit = maxIngredientSearchLimit
	}
	key := fmt.Sprintf("ingredients:%s:%s:%d", mode, strings.ToLower(term), limit)

	var cached []*types.Ingredient
	if s.cacheTTL > 0 {
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("ingredient cache read failed", "error", err)
		}
		if found {
			s.metrics.IncCatalogCache("hit")
			return cached, nil
		}
		s.metrics.IncCatalogCache("miss")
	}

	out, err := search(dbctx.Context{Ctx: ctx}, term, limit)
	if err != nil {
		return nil, fmt.Errorf("search ingredients: %w", err)
	}
	if s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, key, out, s.cacheTTL); err != nil {
			s.log.Warn("ingredient cache write failed", "error", err)
		}
	}
	return out, nil
}

func (s *ingredientService) Get(ctx context.Context, id uuid.UUID) (*types.Ingredient, error) {
	rows, err := s.repo.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	if len(rows) == 0 {
		return nil, apierr.NotFound("ingredient_not_found", fmt.Errorf("ingredient %s not found", id))
	}
	return rows[0], nil
}

// EnsureIngredients inserts the seeds whose name is not in the catalog yet.
// Running it twice with the same input creates nothing the second time.
func (s *ingredientService) EnsureIngredients(ctx context.Context, seeds []IngredientSeed) (EnsureResult, error) {
	rows := make([]*types.Ingredient, 0, len(seeds))
	seen := make(map[string]struct{}, len(seeds))
	for i, seed := range seeds {
		seed.Name = strings.TrimSpace(seed.Name)
		seed.MeasurementUnit = strings.TrimSpace(seed.MeasurementUnit)
		if err := validation.Struct(seed); err != nil {
			return EnsureResult{}, apierr.BadRequest("invalid_ingredient", fmt.Errorf("ingredient #%d: %w", i+1, err))
		}
		if _, dup := seen[seed.Name]; dup {
			continue
		}
		seen[seed.Name] = struct{}{}
		rows = append(rows, &types.Ingredient{Name: seed.Name, MeasurementUnit: seed.MeasurementUnit})
	}
	created, err := s.repo.CreateIgnoreDuplicates(dbctx.Context{Ctx: ctx}, rows)
	if err != nil {
		return EnsureResult{}, fmt.Errorf("ensure ingredients: %w", err)
	}
	s.log.Info("ingredients ensured", "total", len(rows), "created", created)
	return EnsureResult{Total: len(rows), Created: created}, nil
}

type tagService struct {
	log      *logger.Logger
	repo     repos.TagRepo
	cache    cache.Cache
	cacheTTL time.Duration
	metrics  *observability.Metrics
}

func NewTagService(log *logger.Logger, repo repos.TagRepo, c cache.Cache, cacheTTL time.Duration, metrics *observability.Metrics) TagService {
	if c == nil {
		c = cache.Noop{}
	}
	return &tagService{
		log:      log.With("service", "TagService"),
		repo:     repo,
		cache:    c,
		cacheTTL: cacheTTL,
		metrics:  metrics,
	}
}

func (s *tagService) List(ctx context.Context) ([]*types.Tag, error) {
	if s.cacheTTL > 0 {
		var cached []*types.Tag
		found, err := s.cache.Get(ctx, tagListCacheKey, &cached)
		if err != nil {
			s.log.Warn("tag cache read failed", "error", err)
		}
		if found {
			s.metrics.IncCatalogCache("hit")
			return cached, nil
		}
		s.metrics.IncCatalogCache("miss")
	}
	out, err := s.repo.List(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	if s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, tagListCacheKey, out, s.cacheTTL); err != nil {
			s.log.Warn("tag cache write failed", "error", err)
		}
	}
	return out, nil
}

func (s *tagService) Get(ctx context.Context, id uuid.UUID) (*types.Tag, error) {
	rows, err := s.repo.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	if len(rows) == 0 {
		return nil, apierr.NotFound("tag_not_found", fmt.Errorf("tag %s not found", id))
	}
	return rows[0], nil
}

func (s *tagService) EnsureTags(ctx context.Context, seeds []TagSeed) (EnsureResult, error) {
	rows := make([]*types.Tag, 0, len(seeds))
	seenName := make(map[string]struct{}, len(seeds))
	seenSlug := make(map[string]struct{}, len(seeds))
	for i, seed := range seeds {
		seed.Name = strings.TrimSpace(seed.Name)
		seed.Slug = strings.TrimSpace(seed.Slug)
		seed.Color = strings.ToUpper(strings.TrimSpace(seed.Color))
		if err := validation.Struct(seed); err != nil {
			return EnsureResult{}, apierr.BadRequest("invalid_tag", fmt.Errorf("tag #%d: %w", i+1, err))
		}
		_, dupName := seenName[seed.Name]
		_, dupSlug := seenSlug[seed.Slug]
		if dupName || dupSlug {
			continue
		}
		seenName[seed.Name] = struct{}{}
		seenSlug[seed.Slug] = struct{}{}
		rows = append(rows, &types.Tag{Name: seed.Name, Slug: seed.Slug, Color: seed.Color})
	}
	created, err := s.repo.CreateIgnoreDuplicates(dbctx.Context{Ctx: ctx}, rows)
	if err != nil {
		return EnsureResult{}, fmt.Errorf("ensure tags: %w", err)
	}
	if created > 0 {
		if err := s.cache.Delete(ctx, tagListCacheKey); err != nil {
			s.log.Warn("tag cache invalidation failed", "error", err)
		}
	}
	s.log.Info("tags ensured", "total", len(rows), "created", created)
	return EnsureResult{Total: len(rows), Created: created}, nil
}
