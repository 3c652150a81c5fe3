package model

import (
	"strings"
	"testing"
	"time"
)

func validTour() Tour {
	return Tour{
		Name:           "The Forest Hiker",
		Duration:       5,
		MaxGroupSize:   25,
		Difficulty:     DifficultyEasy,
		RatingsAverage: 4.7,
		Price:          397,
		Summary:        "Breathtaking hike through the Canadian Banff National Park",
		ImageCover:     "tour-1-cover.jpg",
	}
}

func TestValidateTour(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		if err := ValidateTour(validTour()); err != nil {
			t.Fatalf("expected valid tour, got %v", err)
		}
	})

	t.Run("discount below price", func(t *testing.T) {
		tour := validTour()
		discount := tour.Price + 1
		tour.PriceDiscount = &discount
		err := ValidateTour(tour)
		if err == nil || !strings.Contains(err.Error(), "Discount price") {
			t.Fatalf("expected discount message, got %v", err)
		}
	})

	t.Run("aggregates all field messages", func(t *testing.T) {
		err := ValidateTour(Tour{})
		if err == nil {
			t.Fatal("expected validation failure")
		}
		verr, ok := err.(*ValidationError)
		if !ok {
			t.Fatalf("expected *ValidationError, got %T", err)
		}
		if len(verr.Fields) < 5 {
			t.Fatalf("expected every problem reported, got %v", verr.Fields)
		}
	})

	t.Run("name length bounds", func(t *testing.T) {
		tour := validTour()
		tour.Name = "Short"
		if err := ValidateTour(tour); err == nil {
			t.Fatal("expected short name rejection")
		}
		tour.Name = strings.Repeat("x", 41)
		if err := ValidateTour(tour); err == nil {
			t.Fatal("expected long name rejection")
		}
	})
}

func TestValidateNewUser(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		if err := ValidateNewUser("A", "a@b.com", "secret123", "secret123"); err != nil {
			t.Fatalf("expected valid input, got %v", err)
		}
	})

	t.Run("mismatched confirmation", func(t *testing.T) {
		err := ValidateNewUser("A", "a@b.com", "secret123", "secret124")
		if err == nil || !strings.Contains(err.Error(), "same") {
			t.Fatalf("expected confirmation message, got %v", err)
		}
	})

	t.Run("bad email", func(t *testing.T) {
		if err := ValidateNewUser("A", "not-an-email", "secret123", "secret123"); err == nil {
			t.Fatal("expected email rejection")
		}
	})

	t.Run("short password", func(t *testing.T) {
		if err := ValidateNewUser("A", "a@b.com", "short", "short"); err == nil {
			t.Fatal("expected short password rejection")
		}
	})
}

func TestChangedPasswordAfter(t *testing.T) {
	issued := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("never rotated", func(t *testing.T) {
		if (User{}).ChangedPasswordAfter(issued) {
			t.Fatal("user without rotation must not invalidate tokens")
		}
	})

	t.Run("rotated after issuance", func(t *testing.T) {
		changed := issued.Add(time.Hour)
		u := User{PasswordChangedAt: &changed}
		if !u.ChangedPasswordAfter(issued) {
			t.Fatal("rotation after issuance must invalidate the token")
		}
	})

	t.Run("rotated before issuance", func(t *testing.T) {
		changed := issued.Add(-time.Hour)
		u := User{PasswordChangedAt: &changed}
		if u.ChangedPasswordAfter(issued) {
			t.Fatal("rotation before issuance must not invalidate the token")
		}
	})
}

func TestDurationWeeks(t *testing.T) {
	if got := (Tour{Duration: 14}).DurationWeeks(); got != 2 {
		t.Fatalf("expected 2 weeks, got %v", got)
	}
}
