// Package validate holds the per-field checks of the registration form.
// Every check is pure: it returns the normalized value or an *Error.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
)

type Reason string

const (
	ReasonNameTooShort   Reason = "name_too_short"
	ReasonDateFormat     Reason = "date_format"
	ReasonDateInvalid    Reason = "date_invalid"
	ReasonTooYoung       Reason = "too_young"
	ReasonTooOld         Reason = "too_old"
	ReasonEmailFormat    Reason = "email_format"
	ReasonPhoneFormat    Reason = "phone_format"
	ReasonUniversityName Reason = "university_name"
	ReasonEmpty          Reason = "empty"
)

const (
	MinAge = 14
	MaxAge = 100

	DateLayout = "02.01.2006"
)

type Error struct {
	Field  string
	Reason Reason
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ReasonOf extracts the rejection reason, or "" for other errors.
func ReasonOf(err error) Reason {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return ""
}

var (
	datePattern  = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)
	emailPattern = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	phonePattern = regexp.MustCompile(`^(\+7|8)\d{10}$`)
)

func FullName(input string) (string, error) {
	name := strings.TrimSpace(input)
	if len(strings.Fields(name)) < 2 {
		return "", &Error{Field: "full_name", Reason: ReasonNameTooShort}
	}
	return name, nil
}

// BirthDate checks DD.MM.YYYY and the age window relative to now.
func BirthDate(input string, now time.Time) (string, error) {
	s := strings.TrimSpace(input)
	if !datePattern.MatchString(s) {
		return "", &Error{Field: "birth_date", Reason: ReasonDateFormat}
	}
	d, err := time.ParseInLocation(DateLayout, s, now.Location())
	if err != nil {
		return "", &Error{Field: "birth_date", Reason: ReasonDateInvalid}
	}
	age := Age(d, now)
	if age < MinAge {
		return "", &Error{Field: "birth_date", Reason: ReasonTooYoung}
	}
	if age > MaxAge {
		return "", &Error{Field: "birth_date", Reason: ReasonTooOld}
	}
	return s, nil
}

// Age in fractional years, counting whole days over 365.25.
func Age(birth, now time.Time) float64 {
	days := int(now.Sub(birth).Hours() / 24)
	return float64(days) / 365.25
}

func Email(input string) (string, error) {
	s := strings.TrimSpace(input)
	if !govalidator.Matches(s, emailPattern) {
		return "", &Error{Field: "email", Reason: ReasonEmailFormat}
	}
	return s, nil
}

// Phone drops everything but digits and '+' and expects +7 or 8 followed by 10 digits.
func Phone(input string) (string, error) {
	var b strings.Builder
	for _, r := range input {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if !phonePattern.MatchString(s) {
		return "", &Error{Field: "phone", Reason: ReasonPhoneFormat}
	}
	return s, nil
}

// CustomUniversity is the free-text university entered after choosing "other".
func CustomUniversity(input string) (string, error) {
	s := strings.TrimSpace(input)
	if !govalidator.MinStringLength(s, "3") {
		return "", &Error{Field: "university", Reason: ReasonUniversityName}
	}
	return s, nil
}

// Choice accepts any non-empty trimmed text, used for keyboard-backed steps
// where the user may also type a value.
func Choice(field, input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", &Error{Field: field, Reason: ReasonEmpty}
	}
	return s, nil
}
