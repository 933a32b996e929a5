// Package validation is the guard layer for untrusted user input. All
// checks are pure functions; failures carry CodeValidation with a message
// safe to surface verbatim to the user.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	dErrors "arida/pkg/domain-errors"
)

const (
	minNameLen = 2
	maxNameLen = 100

	minEmailLen = 5
	maxEmailLen = 254

	minPasswordLen = 8
	maxPasswordLen = 128

	minPhoneLen = 9
	maxPhoneLen = 13

	minTitleLen = 10
	maxTitleLen = 200

	minDescriptionLen = 50
	maxDescriptionLen = 5000

	maxCommentLen = 1000
)

var (
	// Latin (with accents) and Arabic scripts, plus spaces, hyphens, apostrophes.
	nameRe = regexp.MustCompile(`^[\p{Latin}\p{Arabic}' -]+$`)

	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	// +212 or leading 0, operator digit 5-7, then 8 more digits.
	moroccanPhoneRe = regexp.MustCompile(`^(\+212|0)[5-7][0-9]{8}$`)
)

func errTooShort(field string, min int) error {
	return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s must be at least %d characters", field, min))
}

func errTooLong(field string, max int) error {
	return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s must be at most %d characters", field, max))
}

// Name validates a person's display name.
func Name(s string) error {
	n := utf8.RuneCountInString(s)
	if n < minNameLen {
		return errTooShort("name", minNameLen)
	}
	if n > maxNameLen {
		return errTooLong("name", maxNameLen)
	}
	if !nameRe.MatchString(s) {
		return dErrors.New(dErrors.CodeValidation, "name contains unsupported characters")
	}
	return nil
}

// Email validates an RFC-shaped email address.
func Email(s string) error {
	if len(s) < minEmailLen {
		return errTooShort("email", minEmailLen)
	}
	if len(s) > maxEmailLen {
		return errTooLong("email", maxEmailLen)
	}
	if !emailRe.MatchString(s) {
		return dErrors.New(dErrors.CodeValidation, "email is not a valid address")
	}
	return nil
}

// Password validates password strength: length plus lowercase, uppercase,
// and digit classes. Storage and verification belong to the identity
// provider, not this service.
func Password(s string) error {
	if len(s) < minPasswordLen {
		return errTooShort("password", minPasswordLen)
	}
	if len(s) > maxPasswordLen {
		return errTooLong("password", maxPasswordLen)
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLower || !hasUpper || !hasDigit {
		return dErrors.New(dErrors.CodeValidation, "password must contain a lowercase letter, an uppercase letter, and a digit")
	}
	return nil
}

// MoroccanPhone validates a Moroccan mobile or landline number:
// +212 or a leading 0, an operator digit 5-7, and 8 more digits.
// Internal spaces are ignored.
func MoroccanPhone(s string) error {
	cleaned := strings.ReplaceAll(s, " ", "")
	if len(cleaned) < minPhoneLen {
		return errTooShort("phone", minPhoneLen)
	}
	if len(cleaned) > maxPhoneLen {
		return errTooLong("phone", maxPhoneLen)
	}
	if !moroccanPhoneRe.MatchString(cleaned) {
		return dErrors.New(dErrors.CodeValidation, "phone is not a valid Moroccan number")
	}
	return nil
}

// PetitionTitle validates a petition title. Angle brackets, braces,
// square brackets, and slashes are rejected outright rather than escaped.
func PetitionTitle(s string) error {
	n := utf8.RuneCountInString(s)
	if n < minTitleLen {
		return errTooShort("title", minTitleLen)
	}
	if n > maxTitleLen {
		return errTooLong("title", maxTitleLen)
	}
	if strings.ContainsAny(s, `<>{}[]\/`) {
		return dErrors.New(dErrors.CodeValidation, "title contains forbidden characters")
	}
	return nil
}

// PetitionDescription validates a petition body. Unlike titles, forward
// slashes are allowed (URLs in descriptions are handled by the spam check).
func PetitionDescription(s string) error {
	n := utf8.RuneCountInString(s)
	if n < minDescriptionLen {
		return errTooShort("description", minDescriptionLen)
	}
	if n > maxDescriptionLen {
		return errTooLong("description", maxDescriptionLen)
	}
	if strings.ContainsAny(s, `<>{}[]\`) {
		return dErrors.New(dErrors.CodeValidation, "description contains forbidden characters")
	}
	return nil
}

// Comment validates an appeal or comment message body.
func Comment(s string) error {
	n := utf8.RuneCountInString(s)
	if n < 1 {
		return dErrors.New(dErrors.CodeValidation, "comment must not be empty")
	}
	if n > maxCommentLen {
		return errTooLong("comment", maxCommentLen)
	}
	if strings.ContainsAny(s, `<>{}[]\`) {
		return dErrors.New(dErrors.CodeValidation, "comment contains forbidden characters")
	}
	return nil
}

// NotBlank rejects empty or whitespace-only required fields, e.g. the
// reason on a reject or pause action.
func NotBlank(field, s string) error {
	if strings.TrimSpace(s) == "" {
		return dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	return nil
}
