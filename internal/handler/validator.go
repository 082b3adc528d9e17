package handler

import (
	"errors"
	"regexp"

	"github.com/goevery/chatrelay/internal/ierr"
)

// IdentifierValidator rejects structurally invalid user and group
// identifiers before they reach the relay, which assumes well-formed input.
type IdentifierValidator struct {
	idRegex *regexp.Regexp
}

func NewIdentifierValidator() *IdentifierValidator {
	return &IdentifierValidator{
		idRegex: regexp.MustCompile(`^[\w-]+$`),
	}
}

func (v *IdentifierValidator) Validate(id string) error {
	valid := v.idRegex.MatchString(id)
	if !valid {
		return ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid identifier"))
	}

	return nil
}
