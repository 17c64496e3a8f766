package service

import (
	"errors"
	"fmt"
	"strings"

	"learncode/internal/common"

	"gopkg.in/go-playground/validator.v9"
)

var validate = validator.New()

// validateRequest runs the struct tags of req and folds every failing field
// into one ErrValidation.
func validateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%v: %w", err, common.ErrValidation)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), common.ErrValidation)
}
