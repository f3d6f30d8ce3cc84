package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/models"
)

const (
	generationHorizon = 24 * time.Hour
	recurrenceStep    = 7 * 24 * time.Hour
)

type RecurringStore interface {
	Create(ctx context.Context, rec models.RecurringRequest) (models.RecurringRequest, error)
	GetByID(ctx context.Context, id string) (models.RecurringRequest, error)
	ListActiveByClient(ctx context.Context, clientID string) ([]models.RecurringRequest, error)
	ListDue(ctx context.Context, horizon time.Time) ([]models.RecurringRequest, error)
	Deactivate(ctx context.Context, id string) error
	AdvanceSchedule(ctx context.Context, id string, next time.Time) error
}

// RequestCreator is the slice of the engine the generation sweep needs.
type RequestCreator interface {
	Create(ctx context.Context, client models.User, input models.CreateServiceRequestInput) (models.ServiceRequest, error)
}

type RecurringRequestService struct {
	Recurring RecurringStore
	Users     DirectoryStore
	Districts DistrictStore
	Requests  RequestCreator
	ErrorLog  *log.Logger
	InfoLog   *log.Logger
}

// ComputeNextOccurrence returns the earliest UTC instant strictly after now
// that falls on the given ISO weekday (1=Monday..7=Sunday) at timeOfDay
// ("HH:MM", half-hour aligned).
func ComputeNextOccurrence(now time.Time, dayOfWeek int, timeOfDay string) (time.Time, error) {
	if dayOfWeek < 1 || dayOfWeek > 7 {
		return time.Time{}, fmt.Errorf("day_of_week must be between 1 and 7: %w", models.ErrInvalidRequest)
	}
	hour, minute, err := parseTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, err
	}

	now = now.UTC()
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		if isoWeekday(candidate) == dayOfWeek && candidate.After(now) {
			return candidate, nil
		}
		candidate = candidate.AddDate(0, 0, 1)
	}
	return time.Time{}, fmt.Errorf("could not compute next occurrence for day %d at %s", dayOfWeek, timeOfDay)
}

func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func parseTimeOfDay(raw string) (int, int, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("time_of_day must be HH:MM: %w", models.ErrInvalidRequest)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("time_of_day hour is invalid: %w", models.ErrInvalidRequest)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || (minute != 0 && minute != 30) {
		return 0, 0, fmt.Errorf("time_of_day minutes must be 00 or 30: %w", models.ErrInvalidRequest)
	}
	return hour, minute, nil
}

// Create registers a weekly template. The first occurrence is computed
// immediately so the sweep has a concrete due time to compare against.
func (s *RecurringRequestService) Create(ctx context.Context, client models.User, input models.CreateRecurringRequestInput) (models.RecurringRequest, error) {
	if input.AddressStreet == "" || input.AddressNumber == "" {
		return models.RecurringRequest{}, fmt.Errorf("address_street and address_number are required: %w", models.ErrInvalidRequest)
	}
	if input.HoursRequested <= 0 {
		return models.RecurringRequest{}, fmt.Errorf("hours_requested must be positive: %w", models.ErrInvalidRequest)
	}
	if _, err := s.Districts.GetActiveByID(ctx, input.DistrictID); err != nil {
		if errors.Is(err, models.ErrDistrictInactive) {
			return models.RecurringRequest{}, fmt.Errorf("district not found or inactive: %w", models.ErrInvalidRequest)
		}
		return models.RecurringRequest{}, err
	}

	next, err := ComputeNextOccurrence(time.Now().UTC(), input.DayOfWeek, input.TimeOfDay)
	if err != nil {
		return models.RecurringRequest{}, err
	}

	return s.Recurring.Create(ctx, models.RecurringRequest{
		ClientID:         client.ID,
		DistrictID:       input.DistrictID,
		AddressStreet:    input.AddressStreet,
		AddressNumber:    input.AddressNumber,
		AddressFloorApt:  input.AddressFloorApt,
		AddressReference: input.AddressReference,
		AddressLatitude:  input.AddressLatitude,
		AddressLongitude: input.AddressLongitude,
		HoursRequested:   input.HoursRequested,
		DayOfWeek:        input.DayOfWeek,
		TimeOfDay:        input.TimeOfDay,
		IsActive:         true,
		NextScheduledAt:  next,
	})
}

func (s *RecurringRequestService) FindMine(ctx context.Context, clientID string) ([]models.RecurringRequest, error) {
	return s.Recurring.ListActiveByClient(ctx, clientID)
}

// Cancel deactivates the template. Requests already generated from it are
// untouched.
func (s *RecurringRequestService) Cancel(ctx context.Context, id string, user models.User) error {
	rec, err := s.Recurring.GetByID(ctx, id)
	if errors.Is(err, models.ErrRecurringNotFound) {
		return fmt.Errorf("recurring request not found: %w", models.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if user.Role != models.RoleAdmin && rec.ClientID != user.ID {
		return fmt.Errorf("you can only cancel your own recurring requests: %w", models.ErrForbidden)
	}
	return s.Recurring.Deactivate(ctx, id)
}

// GenerateDueRequests materializes every active template due within the next
// 24 hours into a concrete service request and advances its schedule one week.
// Each template fails or succeeds on its own; a schedule is only advanced when
// the attempt ran to a decision, so transient creation failures retry on the
// next sweep.
func (s *RecurringRequestService) GenerateDueRequests(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	due, err := s.Recurring.ListDue(ctx, now.Add(generationHorizon))
	if err != nil {
		return 0, err
	}

	generated := 0
	for _, rec := range due {
		client, err := s.Users.GetUserByID(ctx, rec.ClientID)
		if err != nil || client.IsBlocked {
			s.errorf("skipping recurring request %s: client %s unavailable (%v)", rec.ID, rec.ClientID, err)
			s.advance(ctx, rec)
			continue
		}

		input := models.CreateServiceRequestInput{
			DistrictID:         rec.DistrictID,
			AddressStreet:      rec.AddressStreet,
			AddressNumber:      rec.AddressNumber,
			AddressFloorApt:    rec.AddressFloorApt,
			AddressReference:   rec.AddressReference,
			AddressLatitude:    rec.AddressLatitude,
			AddressLongitude:   rec.AddressLongitude,
			HoursRequested:     rec.HoursRequested,
			ScheduledAt:        rec.NextScheduledAt.UTC().Format(time.RFC3339),
			RecurringRequestID: &rec.ID,
		}
		if _, err := s.Requests.Create(ctx, client, input); err != nil {
			s.errorf("failed to generate request from recurring %s: %v", rec.ID, err)
			continue
		}

		generated++
		s.advance(ctx, rec)
	}

	if generated > 0 && s.InfoLog != nil {
		s.InfoLog.Printf("generated %d service requests from recurring templates", generated)
	}
	return generated, nil
}

func (s *RecurringRequestService) advance(ctx context.Context, rec models.RecurringRequest) {
	next := rec.NextScheduledAt.Add(recurrenceStep)
	if err := s.Recurring.AdvanceSchedule(ctx, rec.ID, next); err != nil {
		s.errorf("failed to advance recurring request %s: %v", rec.ID, err)
	}
}

func (s *RecurringRequestService) errorf(format string, args ...interface{}) {
	if s.ErrorLog != nil {
		s.ErrorLog.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
