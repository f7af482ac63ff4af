package service

import (
	"context"
	"errors"
	"time"

	bookingserrors "milovat/internal/bookings/errors"
	"milovat/internal/bookings/events"
	"milovat/internal/bookings/locker"
	"milovat/internal/bookings/repository"
	"milovat/internal/bookings/validator"
	"milovat/pkg/auth"
	"milovat/pkg/config"
	mongodb "milovat/pkg/db/mongo"
	apperrors "milovat/pkg/errors"
	"milovat/pkg/model"
	"milovat/pkg/sanitizer"
	"milovat/pkg/validation"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	msgConflict     = "facility already booked for that time"
	msgFacilityBusy = "facility is busy, retry shortly"
)

type BookingService interface {
	Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, id string, req *model.BookingRequest) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
	OccupiedHours(ctx context.Context, facility, date string) ([]model.OccupiedSlot, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	locker    locker.Locker
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	locker locker.Locker,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &bookingService{
		repo:      repo,
		locker:    locker,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	booking, err := s.validator.FromRequest(req)
	if err != nil {
		s.cfg.Log.Warn("Booking validation failed", "facility", req.Facility, "error", err)
		return nil, validation.ToAppError(err, "Invalid booking")
	}

	unlock, err := s.lock(ctx, booking.Facility)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.verifyAvailability(txCtx, booking, ""); err != nil {
			return err
		}
		booking.Touch(model.Now())
		if err := s.repo.Create(txCtx, booking); err != nil {
			return s.storeError("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure("Failed to create booking", err, "facility", booking.Facility)
		return nil, err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"facility", booking.Facility,
		"start", booking.Start,
		"end", booking.End,
	)
	s.publish(ctx, model.BookingCreated, booking)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(id, err)
	}
	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if count, err = s.repo.Count(gctx); err != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", err)
			return s.storeError("Failed to count bookings", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if bookings, err = s.repo.FindAll(gctx, limit, offset); err != nil {
			s.cfg.Log.Error("Failed to list bookings", "limit", limit, "offset", offset, "error", err)
			return s.storeError("Failed to retrieve bookings", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	return bookings, count, nil
}

func (s *bookingService) Update(ctx context.Context, id string, req *model.BookingRequest) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if _, err := mongodb.ObjectID(id); err != nil {
		return nil, apperrors.InvalidInput("Invalid booking ID format")
	}

	updated, err := s.validator.FromRequest(req)
	if err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, validation.ToAppError(err, "Invalid booking")
	}

	unlock, err := s.lock(ctx, updated.Facility)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var existing *model.Booking
	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		var err error
		existing, err = s.repo.FindByID(txCtx, id)
		if err != nil {
			return s.lookupError(id, err)
		}

		if err := s.verifyAvailability(txCtx, updated, id); err != nil {
			return err
		}

		existing.Facility = updated.Facility
		existing.Start = updated.Start
		existing.End = updated.End
		if updated.RequesterID != "" {
			existing.RequesterID = updated.RequesterID
		}
		existing.Touch(model.Now())

		if err := s.repo.Update(txCtx, existing); err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Booking", id)
			}
			return s.storeError("Failed to update booking", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure("Failed to update booking", err, "id", id)
		return nil, err
	}

	s.cfg.Log.Info("Booking updated successfully", "id", id, "facility", existing.Facility)
	s.publish(ctx, model.BookingUpdated, existing)
	return existing, nil
}

func (s *bookingService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.lookupError(id, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", id)
		}
		s.cfg.Log.Error("Failed to delete booking", "id", id, "error", err)
		return s.storeError("Failed to delete booking", err)
	}

	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	s.publish(ctx, model.BookingDeleted, existing)
	return nil
}

// OccupiedHours reports, for every booking on facility starting within the given calendar
// day, the hour of day of its start and end in the booking time zone.
func (s *bookingService) OccupiedHours(ctx context.Context, facility, date string) ([]model.OccupiedSlot, error) {
	var errs validation.FieldErrors
	facility = sanitizer.NormalizeFacility(facility)
	if facility == "" {
		errs = append(errs, validation.FieldError{Field: "facility", Message: "facility is required"})
	}
	day, err := s.validator.ParseDay(date)
	if err != nil {
		var fieldErrs validation.FieldErrors
		if errors.As(err, &fieldErrs) {
			errs = append(errs, fieldErrs...)
		}
	}
	if len(errs) > 0 {
		details := make(map[string]any, len(errs))
		for _, fe := range errs {
			details[fe.Field] = fe.Message
		}
		return nil, apperrors.InvalidInput("Invalid occupied hours query").WithDetails(details)
	}

	// 23:59:59 of the same local day; AddDate keeps DST days correct
	from := day
	to := day.AddDate(0, 0, 1).Add(-time.Second)

	intervals, skipped, err := s.repo.FindStartingWithin(ctx, facility, from, to)
	if err != nil {
		s.cfg.Log.Error("Failed to query occupied hours", "facility", facility, "date", date, "error", err)
		return nil, s.storeError("Failed to retrieve occupied hours", err)
	}
	if skipped > 0 {
		s.cfg.Log.Warn("Skipped unreadable bookings in occupied hours", "facility", facility, "date", date, "skipped", skipped)
	}

	loc := s.validator.Location()
	slots := make([]model.OccupiedSlot, 0, len(intervals))
	for _, iv := range intervals {
		slots = append(slots, model.OccupiedSlot{
			Start: iv.Start.In(loc).Hour(),
			End:   iv.End.In(loc).Hour(),
		})
	}
	return slots, nil
}

func (s *bookingService) verifyAvailability(ctx context.Context, booking *model.Booking, excludeID string) error {
	conflicts, err := s.repo.FindOverlapping(ctx, booking.Facility, booking.Start, booking.End, excludeID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid booking ID format")
		}
		return s.storeError("Failed to check booking availability", err)
	}
	if len(conflicts) > 0 {
		s.cfg.Log.Warn("Booking conflict detected",
			"facility", booking.Facility,
			"start", booking.Start,
			"end", booking.End,
			"conflicting_id", conflicts[0].ID,
		)
		return apperrors.Conflict(msgConflict).WithDetails(map[string]any{
			"facility":      booking.Facility,
			"conflictingId": conflicts[0].ID,
		})
	}
	return nil
}

func (s *bookingService) lock(ctx context.Context, facility string) (func(), error) {
	unlock, err := s.locker.Lock(ctx, facility)
	if err == nil {
		return unlock, nil
	}

	switch {
	case errors.Is(err, bookingserrors.ErrFacilityBusy):
		s.cfg.Log.Warn("Timed out waiting for facility lock", "facility", facility)
		return nil, apperrors.Conflict(msgFacilityBusy).WithCause(err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return nil, apperrors.Timeout("Request cancelled while waiting for facility lock")
	default:
		s.cfg.Log.Error("Failed to acquire facility lock", "facility", facility, "error", err)
		return nil, s.storeError("Failed to acquire facility lock", err)
	}
}

func (s *bookingService) lookupError(id string, err error) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	default:
		s.cfg.Log.Error("Failed to retrieve booking", "id", id, "error", err)
		return s.storeError("Failed to retrieve booking", err)
	}
}

// storeError keeps AppErrors raised inside transactions and classifies raw store failures.
func (s *bookingService) storeError(msg string, err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	if mongodb.IsUnavailable(err) {
		return apperrors.Unavailable("Booking store").WithCause(err)
	}
	return apperrors.Internal(msg, err)
}

func (s *bookingService) logFailure(msg string, err error, args ...any) {
	args = append(args, "error", err)
	if appErr := apperrors.AsAppError(err); appErr.StatusCode() < 500 {
		s.cfg.Log.Warn(msg, args...)
		return
	}
	s.cfg.Log.Error(msg, args...)
}

// publish never fails the request; the write is already stored.
func (s *bookingService) publish(ctx context.Context, eventType model.BookingEventType, booking *model.Booking) {
	event := &model.BookingEvent{
		EventID:     uuid.NewString(),
		Type:        eventType,
		BookingID:   booking.ID,
		Facility:    booking.Facility,
		Start:       booking.Start,
		End:         booking.End,
		RequesterID: booking.RequesterID,
		OccurredAt:  model.Now(),
	}
	if id, ok := auth.FromContext(ctx); ok {
		event.ActorID = id.UserID
	}

	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.cfg.Log.Error("Failed to publish booking event",
			"event_id", event.EventID,
			"type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}
