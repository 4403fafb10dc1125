package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// MaxNameLength is the longest habit name accepted, in characters.
const MaxNameLength = 20

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// ErrInvalidName wraps every habit name validation failure.
var ErrInvalidName = errors.New("invalid habit name")

// ValidateHabitName trims name and checks it against the Habit tags. It
// returns the trimmed name.
func ValidateHabitName(name string) (string, error) {
	h := Habit{Name: normalizeName(name)}
	err := getValidator().Struct(h)
	if err == nil {
		return h.Name, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "", fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	switch verrs[0].Tag() {
	case "required":
		return "", fmt.Errorf("%w: name is required", ErrInvalidName)
	case "max":
		return "", fmt.Errorf("%w: must be at most %s characters", ErrInvalidName, verrs[0].Param())
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidName, verrs[0].Tag())
	}
}
