package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"campus-events/internal/apperr"
)

// EventDraft is what an author submits; the workflow turns it into an EventRecord.
type EventDraft struct {
	Title            string     `json:"title" validate:"required"`
	Description      string     `json:"description" validate:"required"`
	Department       Department `json:"department" validate:"department"`
	Date             time.Time  `json:"date"`
	Venue            string     `json:"venue" validate:"required"`
	Latitude         *float64   `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude        *float64   `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	RegistrationLink string     `json:"registration_link,omitempty" validate:"omitempty,url"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// registration only fails on an empty tag name or nil func
	_ = v.RegisterValidation("department", func(fl validator.FieldLevel) bool {
		return Department(fl.Field().String()).Valid()
	})
	return v
}

func (d *EventDraft) normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Venue = strings.TrimSpace(d.Venue)
	d.RegistrationLink = strings.TrimSpace(d.RegistrationLink)
}

// Validate checks the draft against the record invariants. The date must lie
// after now; it is never re-checked once the record exists.
func (d EventDraft) Validate(now time.Time) error {
	d.normalize()

	var problems []string
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	if d.Date.IsZero() {
		problems = append(problems, "date is required")
	} else if !d.Date.After(now) {
		problems = append(problems, "date must be in the future")
	}
	if (d.Latitude == nil) != (d.Longitude == nil) {
		problems = append(problems, "latitude and longitude must be given together")
	}

	if len(problems) > 0 {
		return apperr.NewValidation(problems...)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "url":
		return fe.Field() + " must be a valid URL"
	case "department":
		names := make([]string, len(Departments))
		for i, d := range Departments {
			names[i] = string(d)
		}
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.Join(names, ", "))
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", fe.Field())
	}
	return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
}

// Record builds the stored form of a validated draft.
func (d EventDraft) Record(id, createdBy string, status Status, now time.Time) EventRecord {
	d.normalize()
	rec := EventRecord{
		ID:               id,
		Title:            d.Title,
		Description:      d.Description,
		Department:       d.Department,
		Date:             d.Date,
		Venue:            d.Venue,
		RegistrationLink: d.RegistrationLink,
		Status:           status,
		CreatedBy:        createdBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if d.Latitude != nil && d.Longitude != nil {
		rec.Coordinates = &Coordinates{Latitude: *d.Latitude, Longitude: *d.Longitude}
	}
	return rec
}
