// Package validation wraps go-playground/validator with the request rules used
// by catalog and account inputs.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	slugPattern  = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	userPattern  = regexp.MustCompile(`^[\w.@+-]+$`)
)

// FieldError is the first failing field of a validated struct, named by its
// json tag.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

func (e *FieldError) Error() string {
	switch e.Tag {
	case "required":
		return fmt.Sprintf("%s is required", e.Field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.Field, e.Param)
	case "min":
		return fmt.Sprintf("%s must be at least %s", e.Field, e.Param)
	case "slug":
		return fmt.Sprintf("%s may only contain letters, digits, '-' and '_'", e.Field)
	case "hexcolor6":
		return fmt.Sprintf("%s must be a #RRGGBB color", e.Field)
	case "username":
		return fmt.Sprintf("%s may only contain letters, digits and @/./+/-/_ and cannot be 'me'", e.Field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", e.Field)
	}
	return fmt.Sprintf("%s failed %s validation", e.Field, e.Tag)
}

// Get returns the shared validator with the custom rules registered.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
		Register(validate)
	})
	return validate
}

// Register installs the custom rules on v. gin's binding validator calls this
// too so `binding:"slug"` works on request structs.
func Register(v *validator.Validate) {
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
		return colorPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return userPattern.MatchString(s) && !strings.EqualFold(s, "me")
	})
}

// Struct validates s and returns a *FieldError for the first failure.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()}
	}
	return err
}

// IsSlug reports whether s satisfies the tag slug charset.
func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
