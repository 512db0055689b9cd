package aggregates

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/pantry-backend/internal/domain/aggregates"
)

const (
	defaultMinCookingTime = 1
	defaultMinAmount      = 1
	defaultMaxNameLength  = 200
)

// CompositionRules are the configurable bounds a recipe must satisfy.
type CompositionRules struct {
	MinCookingTime int
	MinAmount      int
	MaxNameLength  int
	// BootstrapAuthorMemberships adds the new recipe to its author's
	// favorites and shopping cart inside the create transaction.
	BootstrapAuthorMemberships bool
}

func (r CompositionRules) withDefaults() CompositionRules {
	if r.MinCookingTime <= 0 {
		r.MinCookingTime = defaultMinCookingTime
	}
	if r.MinAmount <= 0 {
		r.MinAmount = defaultMinAmount
	}
	if r.MaxNameLength <= 0 {
		r.MaxNameLength = defaultMaxNameLength
	}
	return r
}

type compositionDraft struct {
	Name        string
	Text        string
	CookingTime int
	Ingredients []domainagg.IngredientAmount
	TagIDs      []uuid.UUID
}

// validateDraft runs every check that needs no storage access. The first
// failing rule wins.
func validateDraft(op string, rules CompositionRules, d compositionDraft) error {
	if strings.TrimSpace(d.Name) == "" {
		return domainagg.Fail(domainagg.CodeValidation, op, domainagg.ReasonMissingField, "name", "name is required")
	}
	if utf8.RuneCountInString(d.Name) > rules.MaxNameLength {
		return domainagg.Fail(domainagg.CodeValidation, op, domainagg.ReasonTooLong, "name",
			fmt.Sprintf("name must be at most %d characters", rules.MaxNameLength))
	}
	if strings.TrimSpace(d.Text) == "" {
		return domainagg.Fail(domainagg.CodeValidation, op, domainagg.ReasonMissingField, "text", "text is required")
	}
	if d.CookingTime < rules.MinCookingTime {
		return domainagg.Fail(domainagg.CodeValidation, op, domainagg.ReasonBelowMinimum, "cooking_time",
			fmt.Sprintf("cooking_time must be at least %d", rules.MinCookingTime))
	}

	if len(d.Ingredients) == 0 {
		return domainagg.Fail(domainagg.CodeValidation, op, domainagg.ReasonEmptyIngredients, "ingredients", "at least one ingredient is required")
	}
	seenIngredients := make(map[uuid.UUID]struct{}, len(d.Ingredients))
	for _, ing := range d.Ingredients {
		if _, dup := seenIngredients[ing.IngredientID]; dup {
			return domainagg.Fail(domainagg.CodeValidation, op, domainagg.ReasonDuplicateIngredient, "ingredients",
				fmt.Sprintf("ingredient %s is listed more than once", ing.IngredientID))
		}
		seenIngredients[ing.IngredientID] = struct{}{}
	}
	for _, ing := range d.Ingredients {
		if ing.Amount < rules.MinAmount {
			return domainagg.Fail(domainagg.CodeValidation, op, domainagg.ReasonBelowMinimum, "ingredients",
				fmt.Sprintf("amount for ingredient %s must be at least %d", ing.IngredientID, rules.MinAmount))
		}
	}

	if len(d.TagIDs) == 0 {
		return domainagg.Fail(domainagg.CodeValidation, op, domainagg.ReasonEmptyTags, "tags", "at least one tag is required")
	}
	seenTags := make(map[uuid.UUID]struct{}, len(d.TagIDs))
	for _, id := range d.TagIDs {
		if _, dup := seenTags[id]; dup {
			return domainagg.Fail(domainagg.CodeValidation, op, domainagg.ReasonDuplicateTag, "tags",
				fmt.Sprintf("tag %s is listed more than once", id))
		}
		seenTags[id] = struct{}{}
	}
	return nil
}

func ingredientIDs(in []domainagg.IngredientAmount) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(in))
	for _, ing := range in {
		out = append(out, ing.IngredientID)
	}
	return out
}

// firstMissing returns the first id of want (in order) absent from have.
func firstMissing(want, have []uuid.UUID) (uuid.UUID, bool) {
	present := make(map[uuid.UUID]struct{}, len(have))
	for _, id := range have {
		present[id] = struct{}{}
	}
	for _, id := range want {
		if _, ok := present[id]; !ok {
			return id, true
		}
	}
	return uuid.Nil, false
}

// compositionDiff is the reconciliation plan between stored and desired
// ingredient edges, keyed by ingredient id.
type compositionDiff struct {
	Update map[uuid.UUID]int // edge id -> new amount, only when the amount changed
	Delete []uuid.UUID       // edge ids
	Insert []domainagg.IngredientAmount
}

type storedEdge struct {
	EdgeID       uuid.UUID
	IngredientID uuid.UUID
	Amount       int
}

func diffComposition(current []storedEdge, desired []domainagg.IngredientAmount) compositionDiff {
	out := compositionDiff{Update: map[uuid.UUID]int{}}
	want := make(map[uuid.UUID]int, len(desired))
	for _, d := range desired {
		want[d.IngredientID] = d.Amount
	}
	have := make(map[uuid.UUID]storedEdge, len(current))
	for _, e := range current {
		have[e.IngredientID] = e
		amount, ok := want[e.IngredientID]
		switch {
		case !ok:
			out.Delete = append(out.Delete, e.EdgeID)
		case amount != e.Amount:
			out.Update[e.EdgeID] = amount
		}
	}
	for _, d := range desired {
		if _, ok := have[d.IngredientID]; !ok {
			out.Insert = append(out.Insert, d)
		}
	}
	return out
}
