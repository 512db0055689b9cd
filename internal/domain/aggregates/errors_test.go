package aggregates

import (
	"errors"
	"fmt"
	"testing"
)

func TestFailCarriesReasonAndField(t *testing.T) {
	err := Fail(CodeValidation, "Recipes.Composer.Create", ReasonDuplicateIngredient, "ingredients", "")
	wrapped := fmt.Errorf("create recipe: %w", err)

	if !errors.Is(wrapped, ReasonDuplicateIngredient) {
		t.Fatalf("expected errors.Is to match reason, got %v", wrapped)
	}
	if errors.Is(wrapped, ReasonDuplicateTag) {
		t.Fatalf("unexpected match on a different reason")
	}
	if got := ReasonOf(wrapped); got != ReasonDuplicateIngredient {
		t.Fatalf("ReasonOf: want=%q got=%q", ReasonDuplicateIngredient, got)
	}
	if got := FieldOf(wrapped); got != "ingredients" {
		t.Fatalf("FieldOf: want=ingredients got=%q", got)
	}
	if !IsCode(wrapped, CodeValidation) {
		t.Fatalf("IsCode: expected validation, got %q", CodeOf(wrapped))
	}
	if want := "Recipes.Composer.Create: duplicate ingredient (validation)"; err.Error() != want {
		t.Fatalf("Error(): want=%q got=%q", want, err.Error())
	}
}

func TestReasonOfPlainError(t *testing.T) {
	if got := ReasonOf(errors.New("boom")); got != "" {
		t.Fatalf("expected empty reason, got %q", got)
	}
	if got := CodeOf(errors.New("boom")); got != "" {
		t.Fatalf("expected empty code, got %q", got)
	}
}
