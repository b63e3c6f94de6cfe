package project

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	minNameLength        = 3
	maxNameLength        = 100
	maxDescriptionLength = 500
)

// ValidateName checks a project or task name is 3-100 characters after
// trimming.
func ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < minNameLength {
		return fmt.Errorf("%w: name must be at least %d characters", ErrInvalidName, minNameLength)
	}
	if n > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidateDescription checks the description length.
func ValidateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > maxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidDescription, maxDescriptionLength)
	}
	return nil
}

// Validate checks a project payload.
func (in ProjectInput) Validate() error {
	if err := ValidateName(in.Name); err != nil {
		return err
	}
	if err := ValidateDescription(in.Description); err != nil {
		return err
	}
	if in.StartDate == nil || in.StartDate.IsZero() {
		return fmt.Errorf("%w: start_date is required", ErrInvalidDates)
	}
	if in.EndDate == nil || in.EndDate.IsZero() {
		return fmt.Errorf("%w: end_date is required", ErrInvalidDates)
	}
	if in.EndDate.Before(*in.StartDate) {
		return fmt.Errorf("%w: end_date is before start_date", ErrInvalidDates)
	}
	return nil
}

// Validate checks a task payload.
func (in TaskInput) Validate() error {
	if err := ValidateName(in.Name); err != nil {
		return err
	}
	if err := ValidateDescription(in.Description); err != nil {
		return err
	}
	if in.DueDate == nil || in.DueDate.IsZero() {
		return fmt.Errorf("%w: due_date is required", ErrInvalidDates)
	}
	if in.Status != nil && !in.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *in.Status)
	}
	return nil
}
