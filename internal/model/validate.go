package model

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// maxLen adds an error when s is longer than n characters.
func (e *ValidationError) maxLen(field, s string, n int) {
	if utf8.RuneCountInString(s) > n {
		e.add(field, "must be %d characters or fewer", n)
	}
}

// required adds an error when s is blank.
func (e *ValidationError) required(field, s string) {
	if strings.TrimSpace(s) == "" {
		e.add(field, "is required")
	}
}

var attributeName = regexp.MustCompile(`^[a-z0-9_]+$`)

// ValidAttributeName reports whether name is lower case letters, digits and
// underscores.
func ValidAttributeName(name string) bool {
	return attributeName.MatchString(name)
}

// ValidateAttribute checks an Attribute against the table's column bounds.
// It returns a *ValidationError if any rules fail, or nil if the row is valid.
func ValidateAttribute(a *Attribute) error {
	var ve ValidationError

	if a.Name == "" {
		ve.add("attribute", "is required")
	} else if !ValidAttributeName(a.Name) {
		ve.add("attribute", "invalid attribute name %q, must be lower case separated by underscore", a.Name)
	}
	ve.maxLen("attribute", a.Name, MaxAttributeLen)

	ve.required("category", a.Category)
	ve.maxLen("category", a.Category, MaxCategoryLen)

	ve.maxLen("value", a.Value, MaxValueLen)
	ve.maxLen("comment", a.Comment, MaxCommentLen)

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateConsentType checks that a consent type is identified and that its
// window is ordered.
func ValidateConsentType(c *ConsentType) error {
	var ve ValidationError

	ve.required("app_label", c.AppLabel)
	ve.required("model_name", c.ModelName)
	ve.required("version", c.Version)
	if c.StartDatetime.IsZero() {
		ve.add("start_datetime", "is required")
	}
	if !c.EndDatetime.IsZero() && c.EndDatetime.Before(c.StartDatetime) {
		ve.add("end_datetime", "must not be before start_datetime")
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
