package audit

import (
	"context"
	"fmt"
	"time"

	mongodb "milovat/pkg/db/mongo"
	"milovat/pkg/kafka"
	"milovat/pkg/logger"
	"milovat/pkg/model"
)

// Handler turns booking events from the topic into audit entries.
type Handler struct {
	repo Repository
	log  *logger.Logger
	now  func() time.Time
}

func NewHandler(repo Repository, log *logger.Logger) *Handler {
	return &Handler{repo: repo, log: log, now: model.Now}
}

// Handle is a kafka.MessageHandler. Malformed events are permanent failures and end up in
// the DLQ; an unreachable store is transient so the consumer retries.
func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	var event model.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("undecodable booking event", err)
	}
	if event.EventID == "" {
		event.EventID = msg.GetEventID()
	}
	if err := validate(&event); err != nil {
		return kafka.NewPermanentError("invalid booking event", err)
	}
	event.ReceivedAt = h.now()

	inserted, err := h.repo.Record(ctx, &event)
	if err != nil {
		if mongodb.IsUnavailable(err) {
			return kafka.NewTransientError("audit store unavailable", err)
		}
		return err
	}

	log := h.log.With("event_id", event.EventID, "type", event.Type, "booking_id", event.BookingID)
	if correlationID := msg.GetCorrelationID(); correlationID != "" {
		log = log.With(logger.RequestIDAttr, correlationID)
	}
	if !inserted {
		log.Debug("booking event already audited")
		return nil
	}
	log.Info("booking event audited", "facility", event.Facility)
	return nil
}

func validate(e *model.BookingEvent) error {
	switch {
	case e.EventID == "":
		return fmt.Errorf("missing event id")
	case e.BookingID == "":
		return fmt.Errorf("missing booking id")
	}
	switch e.Type {
	case model.BookingCreated, model.BookingUpdated, model.BookingDeleted:
		return nil
	}
	return fmt.Errorf("unknown event type %q", e.Type)
}
