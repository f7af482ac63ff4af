package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"milovat/pkg/client"
	apperrors "milovat/pkg/errors"
	"milovat/pkg/logger"
	"milovat/pkg/model"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// smoke exercises a running API end to end: login, the booking conflict rules and the
// occupied-hours query. The bookings it creates are removed before it exits.

const JobName = "booking-smoke"

func main() {
	_ = godotenv.Load(getenv("ENV_FILE", ".env"))

	log := logger.New(logger.Config{
		Level:   getenv("LOG_LEVEL", "info"),
		Format:  getenv("LOG_FORMAT", logger.TEXT),
		Service: JobName,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	hc := client.NewHttpClient(getenv("SMOKE_BASE_URL", "http://localhost:8080"))
	if err := hc.WaitForHealthy(ctx, 30*time.Second); err != nil {
		log.Fatal("API is not healthy", "base_url", hc.BaseURL, "error", err)
	}
	username := getenv("SMOKE_USERNAME", os.Getenv("BOOTSTRAP_ADMIN_USERNAME"))
	if err := hc.Login(ctx, username, getenv("SMOKE_PASSWORD", os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"))); err != nil {
		log.Fatal("Login failed", "username", username, "error", err)
	}

	if err := run(ctx, client.NewBookingClientFromHTTP(hc), log); err != nil {
		log.Fatal("Smoke run failed", "error", err)
	}
	log.Info("Smoke run passed")
}

func run(ctx context.Context, bookings *client.BookingClient, log *logger.Logger) error {
	facility := "smoke-" + uuid.NewString()[:8]
	day := time.Now().UTC().AddDate(0, 0, 1).Truncate(24 * time.Hour)
	at := func(hour int) string { return day.Add(time.Duration(hour) * time.Hour).Format(time.RFC3339) }

	first, err := bookings.Create(ctx, model.BookingRequest{Facility: facility, Start: at(10), End: at(11)})
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer cleanup(bookings, first.ID, log)
	log.Info("Created booking", "id", first.ID, "facility", facility)

	_, err = bookings.Create(ctx, model.BookingRequest{Facility: facility, Start: at(10), End: at(12)})
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		return fmt.Errorf("overlapping booking: want %s, got %v", apperrors.CodeConflict, err)
	}

	// half-open intervals: touching the end of the first booking is allowed
	second, err := bookings.Create(ctx, model.BookingRequest{Facility: facility, Start: at(11), End: at(12)})
	if err != nil {
		return fmt.Errorf("adjacent booking: %w", err)
	}
	defer cleanup(bookings, second.ID, log)

	slots, err := bookings.OccupiedHours(ctx, facility, day.Format(time.DateOnly))
	if err != nil {
		return fmt.Errorf("occupied hours: %w", err)
	}
	if len(slots) != 2 || slots[0] != (model.OccupiedSlot{Start: 10, End: 11}) || slots[1] != (model.OccupiedSlot{Start: 11, End: 12}) {
		return fmt.Errorf("occupied hours: unexpected slots %v", slots)
	}

	if _, err := bookings.Update(ctx, second.ID, model.BookingRequest{Facility: facility, Start: at(10), End: at(11)}); !apperrors.HasCode(err, apperrors.CodeConflict) {
		return fmt.Errorf("conflicting update: want %s, got %v", apperrors.CodeConflict, err)
	}

	got, err := bookings.Get(ctx, first.ID)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if got.Facility != facility {
		return fmt.Errorf("get: facility %q, want %q", got.Facility, facility)
	}
	return nil
}

func cleanup(bookings *client.BookingClient, id string, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := bookings.Delete(ctx, id); err != nil && !apperrors.HasCode(err, apperrors.CodeNotFound) {
		log.Warn("Failed to remove smoke booking", "id", id, "error", err)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
