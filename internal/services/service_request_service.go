package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/lifecycle"
	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/models"
)

const (
	claimWindow           = 15 * time.Minute
	maxCancelReasonLength = 500
	maxCommentLength      = 500
	availableListLimit    = 10
	adminListLimit        = 200
	adminCancelReason     = "Admin status update"
)

// ServiceRequestStore is the persistence surface the engine relies on. Every
// transition method performs its own conditional write; the engine never
// holds state between the read and the write.
type ServiceRequestStore interface {
	Create(ctx context.Context, req models.ServiceRequest) (models.ServiceRequest, error)
	GetByID(ctx context.Context, id string) (models.ServiceRequest, error)
	ListByClient(ctx context.Context, clientID, status string) ([]models.ServiceRequest, error)
	ListPendingByDistrict(ctx context.Context, districtID string, now time.Time, limit int) ([]models.ServiceRequest, error)
	ListAssignedToProvider(ctx context.Context, providerID string) ([]models.ServiceRequest, error)
	ListRecent(ctx context.Context, limit int) ([]models.ServiceRequest, error)
	AcceptPending(ctx context.Context, id, providerID string, now time.Time) error
	StartAccepted(ctx context.Context, id, providerID string, now time.Time) error
	CompleteInProgress(ctx context.Context, id, providerID string, now time.Time) error
	CancelFrom(ctx context.Context, id, fromStatus, cancelledBy, role, reason string, now time.Time) error
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	ForceStatus(ctx context.Context, req models.ServiceRequest) error
}

type RatingStore interface {
	Create(ctx context.Context, rating models.Rating) (models.Rating, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.Rating, error)
}

type DirectoryStore interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
	ListProviderPushTokens(ctx context.Context, districtID string) ([]string, error)
}

type AddressStore interface {
	GetByID(ctx context.Context, id string) (models.UserAddress, error)
}

type DistrictStore interface {
	GetActiveByID(ctx context.Context, id string) (models.District, error)
}

type Quoter interface {
	GetQuote(ctx context.Context, districtID string, hours int) (models.Quote, error)
}

// Notifier delivers push events. Implementations are best-effort and must
// never return delivery failures into the engine's control flow.
type Notifier interface {
	SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string)
}

type ServiceRequestService struct {
	Requests  ServiceRequestStore
	Ratings   RatingStore
	Users     DirectoryStore
	Addresses AddressStore
	Districts DistrictStore
	Pricing   Quoter
	Push      Notifier
}

// Create validates the payload, quotes the price and persists the request as
// PENDING with a fixed claim window. The quoted price and currency are frozen
// into the row and never recomputed.
func (s *ServiceRequestService) Create(ctx context.Context, client models.User, input models.CreateServiceRequestInput) (models.ServiceRequest, error) {
	street := input.AddressStreet
	number := input.AddressNumber
	floorApt := input.AddressFloorApt
	reference := input.AddressReference
	latitude := input.AddressLatitude
	longitude := input.AddressLongitude

	if input.AddressID != nil {
		saved, err := s.Addresses.GetByID(ctx, *input.AddressID)
		if errors.Is(err, models.ErrAddressNotFound) {
			return models.ServiceRequest{}, fmt.Errorf("saved address not found: %w", models.ErrInvalidRequest)
		}
		if err != nil {
			return models.ServiceRequest{}, err
		}
		if saved.UserID != client.ID {
			return models.ServiceRequest{}, fmt.Errorf("you can only use your own saved addresses: %w", models.ErrForbidden)
		}
		street = saved.AddressStreet
		number = saved.AddressNumber
		floorApt = saved.AddressFloorApt
		reference = saved.AddressReference
		latitude = saved.Latitude
		longitude = saved.Longitude
	} else if street == "" || number == "" {
		return models.ServiceRequest{}, fmt.Errorf("either address_id or address_street + address_number are required: %w", models.ErrInvalidRequest)
	}

	if _, err := s.Districts.GetActiveByID(ctx, input.DistrictID); err != nil {
		if errors.Is(err, models.ErrDistrictInactive) {
			return models.ServiceRequest{}, fmt.Errorf("district not found or inactive: %w", models.ErrInvalidRequest)
		}
		return models.ServiceRequest{}, err
	}

	now := time.Now().UTC()
	scheduledAt, err := parseScheduledAt(input.ScheduledAt, now)
	if err != nil {
		return models.ServiceRequest{}, err
	}

	quote, err := s.Pricing.GetQuote(ctx, input.DistrictID, input.HoursRequested)
	if err != nil {
		return models.ServiceRequest{}, err
	}

	req := models.ServiceRequest{
		ClientID:           client.ID,
		DistrictID:         input.DistrictID,
		AddressStreet:      street,
		AddressNumber:      number,
		AddressFloorApt:    floorApt,
		AddressReference:   reference,
		AddressLatitude:    latitude,
		AddressLongitude:   longitude,
		HoursRequested:     input.HoursRequested,
		PriceTotal:         quote.PriceTotal,
		Currency:           quote.Currency,
		ScheduledAt:        scheduledAt,
		Status:             lifecycle.StatusPending,
		RecurringRequestID: input.RecurringRequestID,
		ExpiresAt:          now.Add(claimWindow),
	}

	created, err := s.Requests.Create(ctx, req)
	if err != nil {
		return models.ServiceRequest{}, err
	}

	s.notifyProvidersNewRequest(ctx, created)

	return s.Requests.GetByID(ctx, created.ID)
}

// FindAvailableForProvider lists claimable PENDING requests in the provider's
// district, oldest first. An unavailable provider sees an empty list rather
// than an error.
func (s *ServiceRequestService) FindAvailableForProvider(ctx context.Context, provider models.User) ([]models.AvailableRequest, error) {
	if provider.Role != models.RoleProvider {
		return nil, fmt.Errorf("only providers can view available requests: %w", models.ErrForbidden)
	}
	if !provider.IsAvailable {
		return []models.AvailableRequest{}, nil
	}

	now := time.Now().UTC()
	pending, err := s.Requests.ListPendingByDistrict(ctx, provider.DistrictID, now, availableListLimit)
	if err != nil {
		return nil, err
	}

	available := make([]models.AvailableRequest, 0, len(pending))
	for _, req := range pending {
		remaining := req.ExpiresAt.Sub(now)
		if remaining <= 0 {
			continue
		}
		available = append(available, models.AvailableRequest{
			ID:                   req.ID,
			DistrictName:         req.DistrictName,
			HoursRequested:       req.HoursRequested,
			PriceTotal:           req.PriceTotal,
			Currency:             req.Currency,
			ScheduledAt:          req.ScheduledAt,
			ExpiresAt:            req.ExpiresAt,
			TimeRemainingSeconds: int64(remaining / time.Second),
		})
	}
	return available, nil
}

// Accept claims a PENDING request for the provider. The winner is decided by
// a single conditional write in the store; everyone else gets Conflict and
// should re-poll the available list instead of retrying the same id.
func (s *ServiceRequestService) Accept(ctx context.Context, id string, provider models.User) (models.ServiceRequest, error) {
	if provider.Role != models.RoleProvider {
		return models.ServiceRequest{}, fmt.Errorf("only providers can accept requests: %w", models.ErrForbidden)
	}
	if !provider.IsAvailable {
		return models.ServiceRequest{}, fmt.Errorf("provider is currently unavailable: %w", models.ErrForbidden)
	}
	if !provider.IsVerified {
		return models.ServiceRequest{}, fmt.Errorf("provider must be verified to accept requests: %w", models.ErrForbidden)
	}
	if provider.IsBlocked {
		return models.ServiceRequest{}, fmt.Errorf("blocked provider cannot accept requests: %w", models.ErrForbidden)
	}

	existing, err := s.Requests.GetByID(ctx, id)
	if err != nil {
		return models.ServiceRequest{}, notFoundErr(err)
	}
	if existing.DistrictID != provider.DistrictID {
		return models.ServiceRequest{}, fmt.Errorf("provider can only accept requests from own district: %w", models.ErrForbidden)
	}

	if err := s.Requests.AcceptPending(ctx, id, provider.ID, time.Now().UTC()); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return models.ServiceRequest{}, fmt.Errorf("ya fue tomado o expiró: %w", models.ErrConflict)
		}
		return models.ServiceRequest{}, err
	}

	accepted, err := s.Requests.GetByID(ctx, id)
	if err != nil {
		return models.ServiceRequest{}, notFoundErr(err)
	}

	s.notifyClientRequestAccepted(ctx, accepted)

	return accepted, nil
}

func (s *ServiceRequestService) FindAssignedForProvider(ctx context.Context, providerID string) ([]models.ServiceRequest, error) {
	return s.Requests.ListAssignedToProvider(ctx, providerID)
}

// Start moves an ACCEPTED request to IN_PROGRESS; only the assigned provider may do so.
func (s *ServiceRequestService) Start(ctx context.Context, id string, provider models.User) (models.ServiceRequest, error) {
	return s.advance(ctx, id, provider, lifecycle.StatusAccepted, s.Requests.StartAccepted)
}

// Complete moves an IN_PROGRESS request to COMPLETED; only the assigned provider may do so.
func (s *ServiceRequestService) Complete(ctx context.Context, id string, provider models.User) (models.ServiceRequest, error) {
	return s.advance(ctx, id, provider, lifecycle.StatusInProgress, s.Requests.CompleteInProgress)
}

func (s *ServiceRequestService) advance(ctx context.Context, id string, provider models.User, requiredStatus string,
	transition func(ctx context.Context, id, providerID string, now time.Time) error) (models.ServiceRequest, error) {

	req, err := s.Requests.GetByID(ctx, id)
	if err != nil {
		return models.ServiceRequest{}, notFoundErr(err)
	}
	if req.ProviderID == nil || *req.ProviderID != provider.ID {
		return models.ServiceRequest{}, fmt.Errorf("only the assigned provider can update this service: %w", models.ErrForbidden)
	}
	if req.Status != requiredStatus {
		return models.ServiceRequest{}, fmt.Errorf("request is %s, expected %s: %w", req.Status, requiredStatus, models.ErrInvalidTransition)
	}

	if err := transition(ctx, id, provider.ID, time.Now().UTC()); err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			return models.ServiceRequest{}, fmt.Errorf("request left %s before the update: %w", requiredStatus, models.ErrInvalidTransition)
		}
		return models.ServiceRequest{}, err
	}
	return s.Requests.GetByID(ctx, id)
}

// CancelDecision is the outcome of the cancellation authorization matrix.
type CancelDecision struct {
	Allowed bool
	Reason  string
}

// CanCancelRequest is the pure role/state authorization matrix consulted
// before any cancellation write.
func CanCancelRequest(req models.ServiceRequest, user models.User) CancelDecision {
	if !lifecycle.CanTransition(req.Status, lifecycle.StatusCancelled) {
		return CancelDecision{Allowed: false, Reason: "invalid_status"}
	}

	if user.Role == models.RoleAdmin {
		return CancelDecision{Allowed: true}
	}

	switch req.Status {
	case lifecycle.StatusPending:
		if user.Role == models.RoleClient && req.ClientID == user.ID {
			return CancelDecision{Allowed: true}
		}
		return CancelDecision{Allowed: false, Reason: "only client owner or admin can cancel PENDING request"}
	case lifecycle.StatusAccepted:
		if user.Role == models.RoleClient && req.ClientID == user.ID {
			return CancelDecision{Allowed: true}
		}
		if user.Role == models.RoleProvider && req.ProviderID != nil && *req.ProviderID == user.ID {
			return CancelDecision{Allowed: true}
		}
		return CancelDecision{Allowed: false, Reason: "only owner client, assigned provider, or admin can cancel ACCEPTED request"}
	case lifecycle.StatusInProgress:
		return CancelDecision{Allowed: false, Reason: "only admin can cancel IN_PROGRESS request"}
	}
	return CancelDecision{Allowed: false, Reason: "invalid_status"}
}

// Cancel applies the authorization matrix and, when allowed, cancels the
// request with a conditional write naming the status the decision was made
// against.
func (s *ServiceRequestService) Cancel(ctx context.Context, id string, user models.User, reason string) (models.ServiceRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.ServiceRequest{}, fmt.Errorf("cancellation_reason is required: %w", models.ErrInvalidRequest)
	}
	if len(reason) > maxCancelReasonLength {
		return models.ServiceRequest{}, fmt.Errorf("cancellation_reason exceeds %d characters: %w", maxCancelReasonLength, models.ErrInvalidRequest)
	}

	req, err := s.Requests.GetByID(ctx, id)
	if err != nil {
		return models.ServiceRequest{}, notFoundErr(err)
	}

	decision := CanCancelRequest(req, user)
	if !decision.Allowed {
		if decision.Reason == "invalid_status" {
			return models.ServiceRequest{}, fmt.Errorf("cannot cancel service request with status %s: %w", req.Status, models.ErrInvalidTransition)
		}
		return models.ServiceRequest{}, fmt.Errorf("%s: %w", decision.Reason, models.ErrForbidden)
	}

	err = s.Requests.CancelFrom(ctx, id, req.Status, user.ID, user.Role, reason, time.Now().UTC())
	if err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			return models.ServiceRequest{}, fmt.Errorf("request left %s before cancellation: %w", req.Status, models.ErrInvalidTransition)
		}
		return models.ServiceRequest{}, err
	}
	return s.Requests.GetByID(ctx, id)
}

// Rate records the one allowed rating for a completed request.
func (s *ServiceRequestService) Rate(ctx context.Context, requestID string, client models.User, input models.CreateRatingInput) (models.Rating, error) {
	if input.Stars < 1 || input.Stars > 5 {
		return models.Rating{}, fmt.Errorf("stars must be between 1 and 5: %w", models.ErrInvalidRequest)
	}
	if input.Comment != nil && len(*input.Comment) > maxCommentLength {
		return models.Rating{}, fmt.Errorf("comment exceeds %d characters: %w", maxCommentLength, models.ErrInvalidRequest)
	}

	req, err := s.Requests.GetByID(ctx, requestID)
	if err != nil {
		return models.Rating{}, notFoundErr(err)
	}
	if req.ClientID != client.ID {
		return models.Rating{}, fmt.Errorf("only request owner can rate this service: %w", models.ErrForbidden)
	}
	if req.Status != lifecycle.StatusCompleted {
		return models.Rating{}, fmt.Errorf("service request must be COMPLETED before rating: %w", models.ErrInvalidRequest)
	}
	if req.ProviderID == nil {
		return models.Rating{}, fmt.Errorf("service request has no assigned provider: %w", models.ErrInvalidRequest)
	}

	rating, err := s.Ratings.Create(ctx, models.Rating{
		ServiceRequestID: requestID,
		ClientID:         client.ID,
		ProviderID:       *req.ProviderID,
		Stars:            input.Stars,
		Comment:          input.Comment,
	})
	if errors.Is(err, models.ErrAlreadyRated) {
		return models.Rating{}, fmt.Errorf("rating already exists for this service request: %w", models.ErrConflict)
	}
	if err != nil {
		return models.Rating{}, err
	}
	return rating, nil
}

func (s *ServiceRequestService) GetProviderRatings(ctx context.Context, providerID string) (models.ProviderRatingSummary, error) {
	ratings, err := s.Ratings.ListByProvider(ctx, providerID)
	if err != nil {
		return models.ProviderRatingSummary{}, err
	}
	summary := models.ProviderRatingSummary{
		ProviderID:   providerID,
		TotalRatings: len(ratings),
		Ratings:      ratings,
	}
	if len(ratings) > 0 {
		var sum int
		for _, rating := range ratings {
			sum += rating.Stars
		}
		summary.AverageStars = math.Round(float64(sum)/float64(len(ratings))*100) / 100
	}
	return summary, nil
}

func (s *ServiceRequestService) FindMine(ctx context.Context, clientID, status string) ([]models.ServiceRequest, error) {
	if status != "" && !lifecycle.IsValid(status) {
		return nil, fmt.Errorf("unknown status %q: %w", status, models.ErrInvalidRequest)
	}
	return s.Requests.ListByClient(ctx, clientID, status)
}

func (s *ServiceRequestService) FindByIDForUser(ctx context.Context, id string, user models.User) (models.ServiceRequest, error) {
	req, err := s.Requests.GetByID(ctx, id)
	if err != nil {
		return models.ServiceRequest{}, notFoundErr(err)
	}
	if user.Role == models.RoleClient && req.ClientID != user.ID {
		return models.ServiceRequest{}, fmt.Errorf("you can only access your own service requests: %w", models.ErrForbidden)
	}
	if user.Role == models.RoleProvider && (req.ProviderID == nil || *req.ProviderID != user.ID) {
		return models.ServiceRequest{}, fmt.Errorf("you can only access assigned service requests: %w", models.ErrForbidden)
	}
	return req, nil
}

func (s *ServiceRequestService) FindAllForAdmin(ctx context.Context) ([]models.ServiceRequest, error) {
	return s.Requests.ListRecent(ctx, adminListLimit)
}

// ExpireDue transitions every stale PENDING request to EXPIRED and returns
// the affected count. Safe to call repeatedly.
func (s *ServiceRequestService) ExpireDue(ctx context.Context) (int64, error) {
	return s.Requests.ExpireDue(ctx, time.Now().UTC())
}

// AdminSetStatus is the privileged correction path. It bypasses the
// transition guards but records the same audit fields as a normal
// cancellation; a missing reason is defaulted rather than rejected.
func (s *ServiceRequestService) AdminSetStatus(ctx context.Context, id string, admin models.User, input models.SetRequestStatusInput) (models.ServiceRequest, error) {
	if admin.Role != models.RoleAdmin {
		return models.ServiceRequest{}, fmt.Errorf("only admin can force a request status: %w", models.ErrForbidden)
	}
	if !lifecycle.IsValid(input.Status) {
		return models.ServiceRequest{}, fmt.Errorf("unknown status %q: %w", input.Status, models.ErrInvalidRequest)
	}

	req, err := s.Requests.GetByID(ctx, id)
	if err != nil {
		return models.ServiceRequest{}, notFoundErr(err)
	}

	now := time.Now().UTC()
	req.Status = input.Status
	if input.Status == lifecycle.StatusAccepted && req.AcceptedAt == nil {
		req.AcceptedAt = &now
	}
	if input.Status == lifecycle.StatusInProgress && req.StartedAt == nil {
		req.StartedAt = &now
	}
	if input.Status == lifecycle.StatusCompleted && req.CompletedAt == nil {
		req.CompletedAt = &now
	}
	if input.Status == lifecycle.StatusCancelled {
		reason := adminCancelReason
		if input.CancellationReason != nil && strings.TrimSpace(*input.CancellationReason) != "" {
			reason = *input.CancellationReason
		}
		role := models.RoleAdmin
		req.CancelledAt = &now
		req.CancelledBy = &admin.ID
		req.CancelledByRole = &role
		req.CancellationReason = &reason
	}

	if err := s.Requests.ForceStatus(ctx, req); err != nil {
		return models.ServiceRequest{}, notFoundErr(err)
	}
	return s.Requests.GetByID(ctx, id)
}

func (s *ServiceRequestService) notifyProvidersNewRequest(ctx context.Context, req models.ServiceRequest) {
	if s.Push == nil {
		return
	}
	tokens, err := s.Users.ListProviderPushTokens(ctx, req.DistrictID)
	if err != nil {
		log.Printf("failed to load provider tokens for request %s: %v", req.ID, err)
		return
	}
	s.Push.SendToTokens(ctx, tokens,
		"Nueva solicitud disponible",
		fmt.Sprintf("Hay una nueva solicitud en tu distrito por %d hora(s).", req.HoursRequested),
		map[string]string{
			"type":        "NEW_SERVICE_REQUEST",
			"request_id":  req.ID,
			"district_id": req.DistrictID,
		})
}

func (s *ServiceRequestService) notifyClientRequestAccepted(ctx context.Context, req models.ServiceRequest) {
	if s.Push == nil {
		return
	}
	client, err := s.Users.GetUserByID(ctx, req.ClientID)
	if err != nil {
		log.Printf("failed to load client %s for accepted request %s: %v", req.ClientID, req.ID, err)
		return
	}
	if client.FCMToken == nil {
		return
	}
	s.Push.SendToTokens(ctx, []string{*client.FCMToken},
		"Tu solicitud fue aceptada",
		"Un proveedor aceptó tu solicitud. Revisa los detalles del servicio.",
		map[string]string{
			"type":       "REQUEST_ACCEPTED",
			"request_id": req.ID,
		})
}

func parseScheduledAt(raw string, now time.Time) (time.Time, error) {
	scheduledAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("scheduled_at is invalid: %w", models.ErrInvalidRequest)
	}
	scheduledAt = scheduledAt.UTC()
	if !scheduledAt.After(now) {
		return time.Time{}, fmt.Errorf("scheduled_at must be in the future: %w", models.ErrInvalidRequest)
	}
	if m := scheduledAt.Minute(); (m != 0 && m != 30) || scheduledAt.Second() != 0 || scheduledAt.Nanosecond() != 0 {
		return time.Time{}, fmt.Errorf("scheduled_at must fall on a half-hour boundary: %w", models.ErrInvalidRequest)
	}
	return scheduledAt, nil
}

func notFoundErr(err error) error {
	if errors.Is(err, models.ErrRequestNotFound) {
		return fmt.Errorf("service request not found: %w", models.ErrNotFound)
	}
	return err
}
