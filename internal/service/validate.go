package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rivo/uniseg"
)

var looseEmailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// NewValidator returns a validator with the custom tags used by the resolvers:
//
//	looseemail        something@something.something, no whitespace
//	graphemes=min:max length in user-perceived characters, inclusive
func NewValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("looseemail", validateLooseEmail)
	_ = v.RegisterValidation("graphemes", validateGraphemes)
	return v
}

func validateLooseEmail(fl validator.FieldLevel) bool {
	return looseEmailPattern.MatchString(fl.Field().String())
}

func validateGraphemes(fl validator.FieldLevel) bool {
	lo, hi, ok := parseRange(fl.Param())
	if !ok {
		return false
	}
	n := uniseg.GraphemeClusterCount(fl.Field().String())
	return n >= lo && n <= hi
}

// parseRange reads "min:max".
func parseRange(param string) (int, int, bool) {
	loStr, hiStr, found := strings.Cut(param, ":")
	if !found {
		return 0, 0, false
	}
	lo, err := strconv.Atoi(loStr)
	if err != nil {
		return 0, 0, false
	}
	hi, err := strconv.Atoi(hiStr)
	if err != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

// credentials is the shape shared by signup and login.
type credentials struct {
	Email    string `validate:"looseemail"`
	Password string `validate:"graphemes=8:64"`
}

const (
	nameRule      = "graphemes=1:50"
	resourcesRule = "min=0"
	amountRule    = "min=1"
)
