// Package validation turns missing or malformed input into one structured
// failure.
//
// A Validator is created per input object, rules are applied field by field,
// and Err returns either nil or a single apperror of kind ErrValidation whose
// Fields map lists every violated field. Rules never stop at the first
// failure: a login request with neither email nor password reports both.
//
//	v := validation.New()
//	v.Required("email", in.Email)
//	v.Required("password", in.Password)
//	if err := v.Err(); err != nil {
//	    return nil, err
//	}
package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/sakif/conduit/internal/apperror"
)

// Validator accumulates field violations.
type Validator struct {
	errs map[string][]string
}

func New() *Validator {
	return &Validator{errs: make(map[string][]string)}
}

// Add records a violation for field. A message already recorded for the
// field is not repeated, so a rule applied to every element of a list
// reports once.
func (v *Validator) Add(field, message string) {
	for _, m := range v.errs[field] {
		if m == message {
			return
		}
	}
	v.errs[field] = append(v.errs[field], message)
}

// Check records message for field when ok is false.
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.Add(field, message)
	}
}

// Required fails when the value is absent or blank. It reports whether the
// value passed, so callers can skip follow-up rules on a missing field.
func (v *Validator) Required(field string, value *string) bool {
	if value == nil || strings.TrimSpace(*value) == "" {
		v.Add(field, apperror.BlankMessage)
		return false
	}
	return true
}

// NotBlank is Required for patch fields: absence is fine, an explicit empty
// value is not.
func (v *Validator) NotBlank(field string, value *string) bool {
	if value == nil {
		return true
	}
	return v.Required(field, value)
}

// MaxLength fails when a present value has more than n characters once
// surrounding whitespace is trimmed, which is the form that gets stored.
func (v *Validator) MaxLength(field string, value *string, n int) {
	if value != nil && utf8.RuneCountInString(strings.TrimSpace(*value)) > n {
		v.Add(field, fmt.Sprintf("is too long (maximum is %d characters)", n))
	}
}

// Email fails when a present, non-blank value is not a bare address.
func (v *Validator) Email(field string, value *string) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return
	}
	addr, err := mail.ParseAddress(*value)
	if err != nil || addr.Address != strings.TrimSpace(*value) {
		v.Add(field, "is invalid")
	}
}

// Valid reports whether no rule has failed so far.
func (v *Validator) Valid() bool {
	return len(v.errs) == 0
}

// Err returns nil when every rule passed, otherwise one ErrValidation
// carrying all violations.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return apperror.Invalid(v.errs)
}
