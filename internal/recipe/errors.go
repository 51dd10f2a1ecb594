package recipe

import "github.com/cockroachdb/errors"

var (
	ErrRecipe   = errors.New("recipe error")
	ErrInvalid  = errors.New("invalid recipe")
	ErrNotFound = errors.New("recipe not found")
)
