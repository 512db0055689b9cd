package services

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/pantry-backend/internal/data/repos"
	"github.com/yungbote/pantry-backend/internal/observability"
	"github.com/yungbote/pantry-backend/internal/platform/apierr"
	"github.com/yungbote/pantry-backend/internal/platform/dbctx"
	"github.com/yungbote/pantry-backend/internal/platform/logger"
	"github.com/yungbote/pantry-backend/internal/platform/render"
)

const shoppingListTitle = "Shopping list"

// ShoppingListLine is one ingredient summed across every recipe in a cart.
type ShoppingListLine struct {
	IngredientID uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Unit         string    `json:"measurement_unit"`
	TotalAmount  int       `json:"amount"`
}

type ShoppingListFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

type CartService interface {
	BuildShoppingList(ctx context.Context, userID uuid.UUID) ([]ShoppingListLine, error)
	ExportShoppingList(ctx context.Context, userID uuid.UUID, format render.Format) (*ShoppingListFile, error)
}

type cartService struct {
	log       *logger.Logger
	lines     repos.RecipeIngredientRepo
	renderers *render.Registry
	metrics   *observability.Metrics
}

func NewCartService(log *logger.Logger, lines repos.RecipeIngredientRepo, renderers *render.Registry, metrics *observability.Metrics) CartService {
	return &cartService{
		log:       log.With("service", "CartService"),
		lines:     lines,
		renderers: renderers,
		metrics:   metrics,
	}
}

func (s *cartService) BuildShoppingList(ctx context.Context, userID uuid.UUID) ([]ShoppingListLine, error) {
	if userID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthorized", ErrUnauthenticated)
	}
	rows, err := s.lines.CartLinesByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart lines: %w", err)
	}
	out := AggregateCartLines(rows)
	s.metrics.ObserveCartLines(len(out))
	return out, nil
}

func (s *cartService) ExportShoppingList(ctx context.Context, userID uuid.UUID, format render.Format) (*ShoppingListFile, error) {
	renderer, err := s.renderers.Get(format)
	if err != nil {
		s.metrics.IncCartExport(string(format), "unsupported")
		return nil, apierr.BadRequest("invalid_format", err)
	}
	list, err := s.BuildShoppingList(ctx, userID)
	if err != nil {
		s.metrics.IncCartExport(string(format), "error")
		return nil, err
	}

	lines := make([]render.Line, 0, len(list))
	for _, l := range list {
		lines = append(lines, render.Line{Name: l.Name, Unit: l.Unit, Amount: l.TotalAmount})
	}
	var buf bytes.Buffer
	if err := renderer.Render(&buf, shoppingListTitle, lines); err != nil {
		s.metrics.IncCartExport(string(format), "error")
		return nil, fmt.Errorf("render shopping list: %w", err)
	}
	s.metrics.IncCartExport(string(format), "ok")
	s.log.Debug("shopping list exported", "user_id", userID, "format", format, "lines", len(lines))
	return &ShoppingListFile{
		Filename:    "shopping_list." + string(renderer.Format()),
		ContentType: renderer.ContentType(),
		Body:        buf.Bytes(),
	}, nil
}

// AggregateCartLines groups cart lines by ingredient and sums their amounts.
// The result is ordered by case-folded name, then exact name, then id.
func AggregateCartLines(rows []repos.CartLine) []ShoppingListLine {
	byIngredient := make(map[uuid.UUID]*ShoppingListLine, len(rows))
	out := make([]ShoppingListLine, 0, len(rows))
	order := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		line, ok := byIngredient[r.IngredientID]
		if !ok {
			line = &ShoppingListLine{IngredientID: r.IngredientID, Name: r.Name, Unit: r.MeasurementUnit}
			byIngredient[r.IngredientID] = line
			order = append(order, r.IngredientID)
		}
		line.TotalAmount += r.Amount
	}
	for _, id := range order {
		out = append(out, *byIngredient[id])
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if li != lj {
			return li < lj
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].IngredientID.String() < out[j].IngredientID.String()
	})
	return out
}
