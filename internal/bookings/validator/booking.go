package validator

import (
	"fmt"
	"strings"
	"time"

	"milovat/pkg/logger"
	"milovat/pkg/model"
	"milovat/pkg/sanitizer"
	"milovat/pkg/validation"
)

const dayLayout = "2006-01-02"

// naiveLayouts are accepted for datetimes without an offset; they are read in the booking zone.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

type BookingValidator struct {
	validate *validation.Validator
	loc      *time.Location
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger, loc *time.Location) *BookingValidator {
	if loc == nil {
		loc = time.UTC
	}
	log.Info("Booking validator initialized successfully", "timezone", loc.String())

	return &BookingValidator{
		validate: validation.New(),
		loc:      loc,
		logger:   log,
	}
}

func (v *BookingValidator) Location() *time.Location {
	return v.loc
}

// FromRequest sanitizes and validates req and returns the booking it describes, with times in UTC.
func (v *BookingValidator) FromRequest(req *model.BookingRequest) (*model.Booking, error) {
	var errs validation.FieldErrors

	booking := &model.Booking{
		Facility:    sanitizer.NormalizeFacility(req.Facility),
		RequesterID: strings.TrimSpace(req.RequesterID),
	}

	start, err := v.parseTime("start", req.Start)
	if err != nil {
		errs = append(errs, *err)
	}
	end, err := v.parseTime("end", req.End)
	if err != nil {
		errs = append(errs, *err)
	}
	booking.Start = start
	booking.End = end

	if len(errs) > 0 {
		if booking.Facility == "" {
			errs = append(errs, validation.FieldError{Field: "facility", Message: "facility is required"})
		}
		return nil, errs
	}

	if err := v.Validate(booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// Validate checks the booking invariants: non-empty facility, both instants set, start strictly before end.
func (v *BookingValidator) Validate(booking *model.Booking) error {
	if err := v.validate.Struct(booking); err != nil {
		return err
	}

	if !booking.Start.Before(booking.End) {
		return validation.FieldErrors{
			validation.FieldError{
				Field:   "end",
				Message: "end must be after start",
			},
		}
	}

	return nil
}

func (v *BookingValidator) parseTime(field, raw string) (time.Time, *validation.FieldError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, &validation.FieldError{Field: field, Message: field + " is required"}
	}

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC().Truncate(time.Millisecond), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, v.loc); err == nil {
			return t.UTC().Truncate(time.Millisecond), nil
		}
	}

	return time.Time{}, &validation.FieldError{
		Field:   field,
		Message: fmt.Sprintf("%s must be an ISO-8601 datetime, got %q", field, raw),
	}
}

// ParseDay accepts YYYY-MM-DD or any accepted datetime and returns local midnight of that
// calendar date in the booking zone.
func (v *BookingValidator) ParseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, validation.FieldErrors{{Field: "date", Message: "date is required"}}
	}

	if d, err := time.ParseInLocation(dayLayout, raw, v.loc); err == nil {
		return d, nil
	}

	var t time.Time
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t = parsed
	} else {
		for _, layout := range naiveLayouts {
			if parsed, err := time.ParseInLocation(layout, raw, v.loc); err == nil {
				t = parsed
				break
			}
		}
	}
	if t.IsZero() {
		return time.Time{}, validation.FieldErrors{{
			Field:   "date",
			Message: fmt.Sprintf("date must be YYYY-MM-DD, got %q", raw),
		}}
	}

	// the date part as written is the calendar day
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, v.loc), nil
}
