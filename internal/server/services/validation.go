package services

import (
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strings"

	"github.com/dmitrijs2005/partsinventory/internal/common"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	namePattern     = regexp.MustCompile(`^[a-zA-Z]+$`)
)

const (
	minPasswordLength = 8
	maxNameLength     = 10
	maxCategoryName   = 64
)

// FieldError is a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every rejected field of one input. It matches
// common.ErrorValidation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%v: %s", common.ErrorValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return common.ErrorValidation }

// Messages returns the field messages in field order, for display.
func (e *ValidationError) Messages() []string {
	out := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		out = append(out, f.Message)
	}
	return out
}

type validator struct {
	fields []FieldError
}

func (v *validator) fail(field, msg string) {
	v.fields = append(v.fields, FieldError{Field: field, Message: msg})
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	sort.SliceStable(v.fields, func(i, j int) bool { return v.fields[i].Field < v.fields[j].Field })
	return &ValidationError{Fields: v.fields}
}

func (v *validator) username(s string) {
	switch {
	case s == "":
		v.fail("username", "Username is required")
	case !usernamePattern.MatchString(s):
		v.fail("username", "Username may contain only letters, digits, '_' and '-'")
	}
}

func (v *validator) password(s string) {
	switch {
	case s == "":
		v.fail("password", "Password is required")
	case len(s) < minPasswordLength:
		v.fail("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
}

func (v *validator) name(field, label, s string) {
	switch {
	case s == "":
		v.fail(field, label+" is required")
	case !namePattern.MatchString(s):
		v.fail(field, label+" must contain only letters")
	case len(s) > maxNameLength:
		v.fail(field, fmt.Sprintf("%s must be at most %d characters", label, maxNameLength))
	}
}

// email validates s and returns it normalized.
func (v *validator) email(s string) string {
	if s == "" {
		v.fail("email", "Email is required")
		return s
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		v.fail("email", "Email must be a valid address")
		return s
	}
	return strings.ToLower(s)
}

// ParseAdminFlag interprets a submitted admin field the way HTML forms and
// JSON clients send it. Only true, "true" and "on" enable it.
func ParseAdminFlag(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.TrimSpace(t)
		return s == "true" || s == "on"
	default:
		return false
	}
}
