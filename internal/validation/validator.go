// Package validation checks request bodies before they reach the stores.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/emilythestrangee/comment-board/backend/internal/common"
	"github.com/emilythestrangee/comment-board/backend/internal/models"
)

// Validator wraps a go-playground validator that reports fields by their
// JSON names.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

func (v *Validator) ValidateCreate(req *models.CreateCommentRequest) error {
	return v.check(req)
}

func (v *Validator) ValidateUpdate(req *models.UpdateCommentRequest) error {
	return v.check(req)
}

func (v *Validator) ValidateVote(req *models.VoteRequest) error {
	return v.check(req)
}

func (v *Validator) ValidateRegister(req *models.RegisterRequest) error {
	return v.check(req)
}

func (v *Validator) ValidateLogin(req *models.LoginRequest) error {
	return v.check(req)
}

// check runs the struct rules and folds failures into a
// *common.ValidationError keyed by JSON field name.
func (v *Validator) check(req any) error {
	err := v.v.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}

	out := &common.ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		if _, seen := out.Fields[fe.Field()]; seen {
			continue
		}
		out.Fields[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}
