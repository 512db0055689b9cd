package validation

import (
	"errors"
	"testing"
)

type tagInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Slug  string `json:"slug" validate:"required,max=50,slug"`
	Color string `json:"color" validate:"omitempty,hexcolor6"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name  string
		in    tagInput
		field string
		tag   string
	}{
		{"valid", tagInput{Name: "Breakfast", Slug: "breakfast_1-a", Color: "#E26C2D"}, "", ""},
		{"missing name", tagInput{Slug: "x"}, "name", "required"},
		{"bad slug", tagInput{Name: "x", Slug: "has space"}, "slug", "slug"},
		{"bad color", tagInput{Name: "x", Slug: "x", Color: "red"}, "color", "hexcolor6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Struct: %v", err)
				}
				return
			}
			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("want *FieldError, got %T (%v)", err, err)
			}
			if fe.Field != tt.field || fe.Tag != tt.tag {
				t.Fatalf("field/tag: want=%s/%s got=%s/%s", tt.field, tt.tag, fe.Field, fe.Tag)
			}
		})
	}
}

func TestIsSlug(t *testing.T) {
	if !IsSlug("spicy-food_2") {
		t.Fatalf("expected valid slug")
	}
	if IsSlug("spicy food") || IsSlug("") {
		t.Fatalf("expected invalid slug")
	}
}

func TestUsernameRule(t *testing.T) {
	type account struct {
		Username string `json:"username" validate:"required,username"`
	}
	for name, ok := range map[string]bool{
		"chef.anna": true,
		"a+b@c-d_e": true,
		"me":        false,
		"ME":        false,
		"two words": false,
	} {
		err := Struct(account{Username: name})
		if (err == nil) != ok {
			t.Fatalf("username %q: want ok=%v got err=%v", name, ok, err)
		}
	}
}
