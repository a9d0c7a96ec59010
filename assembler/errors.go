package assembler

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownFormulation = errors.New("unrecognized formulation")
	ErrCategoryMismatch   = errors.New("formulation category mismatch")
	ErrShapeMismatch      = errors.New("shape mismatch")
	ErrInvalidParameters  = errors.New("invalid parameters")
)

func unknownFormulation(name string) error {
	return fmt.Errorf("%w %q, valid names are: %s", ErrUnknownFormulation, name,
		strings.Join(Formulations(), ", "))
}

func categoryMismatch(name, want string) error {
	return fmt.Errorf("%w: %s is not a %s formulation", ErrCategoryMismatch, name, want)
}

func shapeMismatch(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrShapeMismatch, fmt.Sprintf(format, args...))
}
