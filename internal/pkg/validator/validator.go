package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground validator
type Validator struct {
	validate *validator.Validate
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"-"`
	Value   string `json:"-"`
	Message string `json:"message"`
}

// New creates a new validator instance
func New() *Validator {
	v := validator.New()

	// Register custom tag name function to use json tags
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{
		validate: v,
	}
}

// Validate validates a struct and returns at most one error per field.
// Element errors such as alarmIds[2] are reported on the slice field itself.
func (v *Validator) Validate(i interface{}) []ValidationError {
	var validationErrors []ValidationError

	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []ValidationError{{Field: "body", Tag: "invalid", Message: err.Error()}}
	}

	seen := make(map[string]bool)
	for _, fe := range fieldErrs {
		field := fieldName(fe)
		if seen[field] {
			continue
		}
		seen[field] = true
		validationErrors = append(validationErrors, ValidationError{
			Field:   field,
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: msgForTag(field, fe),
		})
	}

	return validationErrors
}

// fieldName strips element indexes and the root struct name from a namespace.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	for {
		open := strings.Index(ns, "[")
		if open < 0 {
			break
		}
		end := strings.Index(ns[open:], "]")
		if end < 0 {
			break
		}
		ns = ns[:open] + ns[open+end+1:]
	}
	return ns
}

// Merge returns violations with each entry replaced by the override for the same field.
// Overrides for fields absent from violations are appended in their own order.
func Merge(overrides, violations []ValidationError) []ValidationError {
	if len(overrides) == 0 {
		return violations
	}
	byField := make(map[string]ValidationError, len(overrides))
	for _, o := range overrides {
		if _, ok := byField[o.Field]; !ok {
			byField[o.Field] = o
		}
	}

	merged := make([]ValidationError, 0, len(violations)+len(overrides))
	used := make(map[string]bool, len(overrides))
	for _, v := range violations {
		if o, ok := byField[v.Field]; ok {
			if !used[v.Field] {
				merged = append(merged, o)
				used[v.Field] = true
			}
			continue
		}
		merged = append(merged, v)
	}
	for _, o := range overrides {
		if !used[o.Field] {
			merged = append(merged, o)
			used[o.Field] = true
		}
	}
	return merged
}

// ValidateVar validates a single variable
func (v *Validator) ValidateVar(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

// ValidateField validates a single named value and returns its first violation, if any.
func (v *Validator) ValidateField(name string, value interface{}, tag string) *ValidationError {
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return &ValidationError{Field: name, Tag: "invalid", Message: err.Error()}
	}
	fe := fieldErrs[0]
	return &ValidationError{
		Field:   name,
		Tag:     fe.Tag(),
		Value:   fmt.Sprintf("%v", fe.Value()),
		Message: msgForTag(name, fe),
	}
}

// msgForTag returns a human-readable message for a validation tag
func msgForTag(field string, fe validator.FieldError) string {
	isElem := strings.HasSuffix(fe.Field(), "]")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array {
			return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters long", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "gt":
		if isElem {
			return fmt.Sprintf("%s must contain only values greater than %s", field, fe.Param())
		}
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must be a valid numeric value", field)
	default:
		return fmt.Sprintf("%s failed validation for tag: %s", field, fe.Tag())
	}
}

// Global validator instance
var globalValidator *Validator

// Init initializes the global validator
func Init() {
	globalValidator = New()
}

// Validate validates a struct using the global validator
func Validate(i interface{}) []ValidationError {
	if globalValidator == nil {
		Init()
	}
	return globalValidator.Validate(i)
}
