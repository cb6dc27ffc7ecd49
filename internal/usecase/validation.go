package usecase

import (
	"strings"

	"go-healthcare-portal/pkg/apperror"
	"go-healthcare-portal/pkg/validation"
)

func validationError(err error) error {
	return apperror.BadRequest("Validation failed: " + strings.Join(validation.FormatValidationErrors(err), "; "))
}
