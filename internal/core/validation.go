package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate shares gin's struct tag so request models carry one set of rules.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

const maxLinkLength = 120

var linkPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._~/-]*$`)

// NormalizeLink trims surrounding whitespace and slashes from a public link.
func NormalizeLink(link string) string {
	return strings.Trim(strings.TrimSpace(link), "/")
}

// ValidateLink checks a normalized public link. Links may contain "/" but
// never empty or dot segments.
func ValidateLink(link string) error {
	if link == "" {
		return validationErr("card link cannot be empty")
	}
	if len(link) > maxLinkLength {
		return validationErr("card link cannot be longer than %d characters", maxLinkLength)
	}
	if !linkPattern.MatchString(link) {
		return validationErr("card link %q contains unsupported characters", link)
	}
	for _, seg := range strings.Split(link, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return validationErr("card link %q has an empty or relative segment", link)
		}
	}
	return nil
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return validationErr("%s", err.Error())
	}
	return nil
}
