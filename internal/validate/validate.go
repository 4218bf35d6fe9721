// Package validate holds the per-field input validators shared by the
// create and edit flows.
//
// Each validator takes the raw text a user typed and returns either the
// trimmed value to store or an *Error carrying a user-facing reason.
// Validators are pure; they never touch conversation state or storage.
package validate

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
)

// MinNameLength is the minimum number of characters in a name or surname.
const MinNameLength = 2

// MinPhoneDigits is the minimum number of digits in a phone number once
// the separators '+', ' ' and '-' are removed.
const MinPhoneDigits = 7

// phoneSeparators are removed before the digit check. They are kept in the
// stored value.
const phoneSeparators = "+ -"

// Error reports input that failed validation for a field.
// It is recoverable: the flow re-prompts the same step.
type Error struct {
	Field  card.Field
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is (or wraps) a validation failure.
func IsValidationError(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

// Func validates raw input and returns the value to store.
type Func func(raw string) (string, error)

// For returns the validator for f.
// Panics on a field outside the closed set.
func For(f card.Field) Func {
	switch f {
	case card.FieldName:
		return Name
	case card.FieldSurname:
		return Surname
	case card.FieldLocation:
		return Location
	case card.FieldPhone:
		return Phone
	case card.FieldInstagram:
		return Instagram
	case card.FieldProfession:
		return Profession
	}
	panic(fmt.Sprintf("validate: unknown field %d", int(f)))
}

// Field runs the validator for f on raw.
func Field(f card.Field, raw string) (string, error) {
	return For(f)(raw)
}

// Name accepts a trimmed name of at least MinNameLength characters.
func Name(raw string) (string, error) {
	return minLength(card.FieldName, raw, "Ism kamida 2 ta harf bo'lishi kerak.")
}

// Surname accepts a trimmed surname of at least MinNameLength characters.
func Surname(raw string) (string, error) {
	return minLength(card.FieldSurname, raw, "Familya kamida 2 ta harf bo'lishi kerak.")
}

// Location accepts any trimmed text.
func Location(raw string) (string, error) {
	return clean(raw), nil
}

// Phone accepts a number with at least MinPhoneDigits digits. The digit
// check ignores '+', spaces and '-' and folds compatibility digits
// (superscripts, circled digits) to their plain form, but the stored value
// is the trimmed input exactly as typed.
func Phone(raw string) (string, error) {
	phone := clean(raw)
	digits := strings.Map(func(r rune) rune {
		if strings.ContainsRune(phoneSeparators, r) {
			return -1
		}
		return r
	}, norm.NFKC.String(phone))

	if !allDigits(digits) || utf8.RuneCountInString(digits) < MinPhoneDigits {
		return "", &Error{
			Field:  card.FieldPhone,
			Reason: "Noto'g'ri telefon raqami.",
		}
	}
	return phone, nil
}

// Instagram accepts any handle; leading '@' characters are dropped.
func Instagram(raw string) (string, error) {
	return strings.TrimLeft(clean(raw), "@"), nil
}

// Profession accepts any trimmed text.
func Profession(raw string) (string, error) {
	return clean(raw), nil
}

func minLength(f card.Field, raw, reason string) (string, error) {
	v := clean(raw)
	if utf8.RuneCountInString(v) < MinNameLength {
		return "", &Error{Field: f, Reason: reason}
	}
	return v, nil
}

// clean trims surrounding whitespace. Lengths are counted in code points of
// the trimmed text, so a decomposed accent counts as two.
func clean(raw string) string {
	return strings.TrimSpace(raw)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
