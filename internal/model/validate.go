package model

import (
	"fmt"
	"strings"
)

// ValidationError aggregates every field message from a failed validation
// so the caller sees all problems at once instead of fixing them one by one.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Fields, ". ")
}

func (e *ValidationError) add(format string, a ...any) {
	e.Fields = append(e.Fields, fmt.Sprintf(format, a...))
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ValidateNewUser checks the signup input. The confirmation field is
// validated here and only here; it is discarded before anything reaches
// the repository.
func ValidateNewUser(name, email, password, passwordConfirm string) error {
	v := &ValidationError{}
	if name == "" {
		v.add("Please provide your name")
	}
	if !validEmail(email) {
		v.add("Please provide a valid email")
	}
	if len(password) < 8 {
		v.add("Password must have at least 8 characters")
	}
	if passwordConfirm == "" {
		v.add("Please confirm your password")
	} else if password != passwordConfirm {
		v.add("Passwords should be the same!!")
	}
	return v.orNil()
}

// ValidateNewPassword checks a credential rotation (updateMyPassword and
// resetPassword both go through it).
func ValidateNewPassword(password, passwordConfirm string) error {
	v := &ValidationError{}
	if len(password) < 8 {
		v.add("Password must have at least 8 characters")
	}
	if password != passwordConfirm {
		v.add("Passwords should be the same!!")
	}
	return v.orNil()
}

// ValidateTour checks a tour before it is persisted. Update paths must call
// it with the merged record so cross-field rules (discount below price) see
// the final values.
func ValidateTour(t Tour) error {
	v := &ValidationError{}
	switch n := len(t.Name); {
	case n == 0:
		v.add("A tour must have a name")
	case n < 10:
		v.add("A tour name must have more than 10 characters")
	case n > 40:
		v.add("A tour name must have less than 40 characters")
	}
	if t.Duration <= 0 {
		v.add("A tour must have a duration")
	}
	if t.MaxGroupSize <= 0 {
		v.add("A tour must have a group size")
	}
	switch t.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyDifficult:
	default:
		v.add("Possible difficulty values are - easy, medium, difficult")
	}
	if t.RatingsAverage < 1 || t.RatingsAverage > 5 {
		v.add("Rating must be between 1 and 5")
	}
	if t.Price <= 0 {
		v.add("A tour must have a price")
	}
	if t.PriceDiscount != nil && *t.PriceDiscount >= t.Price {
		v.add("Discount price must be less than regular price")
	}
	if t.Summary == "" {
		v.add("A tour must have a summary")
	}
	if t.ImageCover == "" {
		v.add("A tour must have a cover image")
	}
	return v.orNil()
}

// validEmail is a minimal structural check: one "@" with a dot somewhere
// after it. Deliverability is out of scope.
func validEmail(s string) bool {
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	dot := strings.LastIndex(s, ".")
	return dot > at+1 && dot < len(s)-1
}
