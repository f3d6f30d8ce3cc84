package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/lifecycle"
	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/models"
)

type stubRequestStore struct {
	mu     sync.Mutex
	nextID int
	reqs   map[string]models.ServiceRequest
}

func newStubRequestStore() *stubRequestStore {
	return &stubRequestStore{reqs: make(map[string]models.ServiceRequest)}
}

func (s *stubRequestStore) put(req models.ServiceRequest) models.ServiceRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.ID == "" {
		s.nextID++
		req.ID = fmt.Sprintf("req-%d", s.nextID)
	}
	s.reqs[req.ID] = req
	return req
}

func (s *stubRequestStore) Create(_ context.Context, req models.ServiceRequest) (models.ServiceRequest, error) {
	req.CreatedAt = time.Now().UTC()
	req.UpdatedAt = req.CreatedAt
	return s.put(req), nil
}

func (s *stubRequestStore) GetByID(_ context.Context, id string) (models.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.reqs[id]
	if !ok {
		return models.ServiceRequest{}, models.ErrRequestNotFound
	}
	return req, nil
}

func (s *stubRequestStore) ListByClient(_ context.Context, clientID, status string) ([]models.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ServiceRequest
	for _, req := range s.reqs {
		if req.ClientID == clientID && (status == "" || req.Status == status) {
			out = append(out, req)
		}
	}
	return out, nil
}

func (s *stubRequestStore) ListPendingByDistrict(_ context.Context, districtID string, now time.Time, limit int) ([]models.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ServiceRequest
	for _, req := range s.reqs {
		if req.DistrictID == districtID && req.Status == lifecycle.StatusPending && req.ExpiresAt.After(now) {
			out = append(out, req)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubRequestStore) ListAssignedToProvider(_ context.Context, providerID string) ([]models.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ServiceRequest
	for _, req := range s.reqs {
		if req.ProviderID != nil && *req.ProviderID == providerID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (s *stubRequestStore) ListRecent(_ context.Context, limit int) ([]models.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ServiceRequest
	for _, req := range s.reqs {
		out = append(out, req)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubRequestStore) AcceptPending(_ context.Context, id, providerID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.reqs[id]
	if !ok || req.Status != lifecycle.StatusPending || req.ProviderID != nil || !req.ExpiresAt.After(now) {
		return models.ErrConflict
	}
	req.ProviderID = &providerID
	req.Status = lifecycle.StatusAccepted
	req.AcceptedAt = &now
	s.reqs[id] = req
	return nil
}

func (s *stubRequestStore) StartAccepted(_ context.Context, id, providerID string, now time.Time) error {
	return s.transition(id, providerID, lifecycle.StatusAccepted, lifecycle.StatusInProgress, now)
}

func (s *stubRequestStore) CompleteInProgress(_ context.Context, id, providerID string, now time.Time) error {
	return s.transition(id, providerID, lifecycle.StatusInProgress, lifecycle.StatusCompleted, now)
}

func (s *stubRequestStore) transition(id, providerID, from, to string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.reqs[id]
	if !ok || req.Status != from || req.ProviderID == nil || *req.ProviderID != providerID {
		return models.ErrInvalidTransition
	}
	req.Status = to
	if to == lifecycle.StatusInProgress {
		req.StartedAt = &now
	}
	if to == lifecycle.StatusCompleted {
		req.CompletedAt = &now
	}
	s.reqs[id] = req
	return nil
}

func (s *stubRequestStore) CancelFrom(_ context.Context, id, fromStatus, cancelledBy, role, reason string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.reqs[id]
	if !ok || req.Status != fromStatus {
		return models.ErrInvalidTransition
	}
	req.Status = lifecycle.StatusCancelled
	req.CancelledAt = &now
	req.CancelledBy = &cancelledBy
	req.CancelledByRole = &role
	req.CancellationReason = &reason
	s.reqs[id] = req
	return nil
}

func (s *stubRequestStore) ExpireDue(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, req := range s.reqs {
		if req.Status == lifecycle.StatusPending && req.ExpiresAt.Before(now) {
			req.Status = lifecycle.StatusExpired
			s.reqs[id] = req
			n++
		}
	}
	return n, nil
}

func (s *stubRequestStore) ForceStatus(_ context.Context, req models.ServiceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reqs[req.ID]; !ok {
		return models.ErrRequestNotFound
	}
	s.reqs[req.ID] = req
	return nil
}

type stubRatingStore struct {
	mu      sync.Mutex
	ratings map[string]models.Rating
}

func newStubRatingStore() *stubRatingStore {
	return &stubRatingStore{ratings: make(map[string]models.Rating)}
}

func (s *stubRatingStore) Create(_ context.Context, rating models.Rating) (models.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ratings[rating.ServiceRequestID]; ok {
		return models.Rating{}, models.ErrAlreadyRated
	}
	rating.ID = "rating-" + rating.ServiceRequestID
	rating.CreatedAt = time.Now().UTC()
	s.ratings[rating.ServiceRequestID] = rating
	return rating, nil
}

func (s *stubRatingStore) ListByProvider(_ context.Context, providerID string) ([]models.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Rating
	for _, rating := range s.ratings {
		if rating.ProviderID == providerID {
			out = append(out, rating)
		}
	}
	return out, nil
}

type stubDirectory struct {
	users  map[string]models.User
	tokens []string
}

func (s *stubDirectory) GetUserByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, models.ErrUserNotFound
	}
	return user, nil
}

func (s *stubDirectory) ListProviderPushTokens(context.Context, string) ([]string, error) {
	return s.tokens, nil
}

type stubAddresses struct {
	addrs map[string]models.UserAddress
}

func (s *stubAddresses) GetByID(_ context.Context, id string) (models.UserAddress, error) {
	addr, ok := s.addrs[id]
	if !ok {
		return models.UserAddress{}, models.ErrAddressNotFound
	}
	return addr, nil
}

type stubDistricts struct {
	active map[string]models.District
}

func (s *stubDistricts) GetActiveByID(_ context.Context, id string) (models.District, error) {
	d, ok := s.active[id]
	if !ok {
		return models.District{}, models.ErrDistrictInactive
	}
	return d, nil
}

type stubQuoter struct {
	pricePerHour float64
	currency     string
}

func (s *stubQuoter) GetQuote(_ context.Context, districtID string, hours int) (models.Quote, error) {
	return models.Quote{
		DistrictID:   districtID,
		Hours:        hours,
		PricePerHour: s.pricePerHour,
		PriceTotal:   s.pricePerHour * float64(hours),
		Currency:     s.currency,
	}, nil
}

type recordedPush struct {
	tokens []string
	title  string
	body   string
	data   map[string]string
}

type stubNotifier struct {
	mu    sync.Mutex
	sends []recordedPush
}

func (s *stubNotifier) SendToTokens(_ context.Context, tokens []string, title, body string, data map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends = append(s.sends, recordedPush{tokens: tokens, title: title, body: body, data: data})
}

func newTestEngine() (*ServiceRequestService, *stubRequestStore, *stubRatingStore, *stubNotifier) {
	store := newStubRequestStore()
	ratings := newStubRatingStore()
	notifier := &stubNotifier{}
	svc := &ServiceRequestService{
		Requests: store,
		Ratings:  ratings,
		Users: &stubDirectory{
			users: map[string]models.User{
				"client-1": {ID: "client-1", Role: models.RoleClient, FCMToken: strPtr("client-token")},
			},
			tokens: []string{"provider-token"},
		},
		Addresses: &stubAddresses{addrs: map[string]models.UserAddress{
			"addr-1": {ID: "addr-1", UserID: "client-1", AddressStreet: "Calle Falsa", AddressNumber: "123"},
		}},
		Districts: &stubDistricts{active: map[string]models.District{
			"district-1": {ID: "district-1", Name: "Centro", IsActive: true},
		}},
		Pricing: &stubQuoter{pricePerHour: 15.00, currency: "AED"},
		Push:    notifier,
	}
	return svc, store, ratings, notifier
}

func strPtr(s string) *string { return &s }

func client() models.User {
	return models.User{ID: "client-1", Role: models.RoleClient}
}

func provider() models.User {
	return models.User{
		ID: "provider-1", Role: models.RoleProvider, DistrictID: "district-1",
		IsVerified: true, IsAvailable: true,
	}
}

func admin() models.User {
	return models.User{ID: "admin-1", Role: models.RoleAdmin}
}

func futureHalfHour() string {
	t := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
	return t.Format(time.RFC3339)
}

func createPending(t *testing.T, svc *ServiceRequestService) models.ServiceRequest {
	t.Helper()
	req, err := svc.Create(context.Background(), client(), models.CreateServiceRequestInput{
		DistrictID:     "district-1",
		AddressStreet:  "Calle Falsa",
		AddressNumber:  "123",
		HoursRequested: 3,
		ScheduledAt:    futureHalfHour(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return req
}

func TestCreateFreezesPriceAndClaimWindow(t *testing.T) {
	svc, _, _, notifier := newTestEngine()

	before := time.Now().UTC()
	req := createPending(t, svc)

	if req.Status != lifecycle.StatusPending {
		t.Errorf("status = %s, want PENDING", req.Status)
	}
	if req.PriceTotal != 45.00 {
		t.Errorf("price_total = %.2f, want 45.00 (3h x 15.00)", req.PriceTotal)
	}
	if req.Currency != "AED" {
		t.Errorf("currency = %s, want AED", req.Currency)
	}
	window := req.ExpiresAt.Sub(before)
	if window < 14*time.Minute || window > 16*time.Minute {
		t.Errorf("claim window = %v, want about 15m", window)
	}
	if len(notifier.sends) != 1 {
		t.Fatalf("expected one provider notification, got %d", len(notifier.sends))
	}
	if notifier.sends[0].title != "Nueva solicitud disponible" {
		t.Errorf("notification title = %q", notifier.sends[0].title)
	}
}

func TestCreateRejectsMisalignedSchedule(t *testing.T) {
	svc, _, _, _ := newTestEngine()

	misaligned := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour).Add(17 * time.Minute)
	_, err := svc.Create(context.Background(), client(), models.CreateServiceRequestInput{
		DistrictID:     "district-1",
		AddressStreet:  "Calle Falsa",
		AddressNumber:  "123",
		HoursRequested: 2,
		ScheduledAt:    misaligned.Format(time.RFC3339),
	})
	if !errors.Is(err, models.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestCreateRejectsPastSchedule(t *testing.T) {
	svc, _, _, _ := newTestEngine()

	past := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Hour)
	_, err := svc.Create(context.Background(), client(), models.CreateServiceRequestInput{
		DistrictID:     "district-1",
		AddressStreet:  "Calle Falsa",
		AddressNumber:  "123",
		HoursRequested: 2,
		ScheduledAt:    past.Format(time.RFC3339),
	})
	if !errors.Is(err, models.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestCreateRejectsForeignSavedAddress(t *testing.T) {
	svc, _, _, _ := newTestEngine()

	other := models.User{ID: "client-2", Role: models.RoleClient}
	_, err := svc.Create(context.Background(), other, models.CreateServiceRequestInput{
		DistrictID:     "district-1",
		AddressID:      strPtr("addr-1"),
		HoursRequested: 2,
		ScheduledAt:    futureHalfHour(),
	})
	if !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestAcceptRaceHasSingleWinner(t *testing.T) {
	svc, _, _, _ := newTestEngine()
	req := createPending(t, svc)

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := provider()
			p.ID = fmt.Sprintf("provider-%d", i)
			_, errs[i] = svc.Accept(context.Background(), req.ID, p)
		}(i)
	}
	wg.Wait()

	winners, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, models.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Errorf("winners = %d, want exactly 1", winners)
	}
	if conflicts != n-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, n-1)
	}
}

func TestAcceptPreconditions(t *testing.T) {
	svc, _, _, _ := newTestEngine()
	req := createPending(t, svc)

	cases := []struct {
		name string
		user models.User
	}{
		{"client cannot accept", client()},
		{"unavailable provider", func() models.User { p := provider(); p.IsAvailable = false; return p }()},
		{"unverified provider", func() models.User { p := provider(); p.IsVerified = false; return p }()},
		{"blocked provider", func() models.User { p := provider(); p.IsBlocked = true; return p }()},
		{"wrong district", func() models.User { p := provider(); p.DistrictID = "district-2"; return p }()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Accept(context.Background(), req.ID, tc.user)
			if !errors.Is(err, models.ErrForbidden) {
				t.Errorf("err = %v, want ErrForbidden", err)
			}
		})
	}
}

func TestAcceptExpiredRequestConflictsThenSweepExpires(t *testing.T) {
	svc, store, _, _ := newTestEngine()
	req := createPending(t, svc)

	stale, _ := store.GetByID(context.Background(), req.ID)
	stale.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	store.put(stale)

	_, err := svc.Accept(context.Background(), req.ID, provider())
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("accept expired: err = %v, want ErrConflict", err)
	}

	expired, err := svc.ExpireDue(context.Background())
	if err != nil {
		t.Fatalf("ExpireDue: %v", err)
	}
	if expired != 1 {
		t.Errorf("expired = %d, want 1", expired)
	}

	again, err := svc.ExpireDue(context.Background())
	if err != nil {
		t.Fatalf("ExpireDue second run: %v", err)
	}
	if again != 0 {
		t.Errorf("second sweep expired = %d, want 0", again)
	}

	got, _ := store.GetByID(context.Background(), req.ID)
	if got.Status != lifecycle.StatusExpired {
		t.Errorf("status = %s, want EXPIRED", got.Status)
	}
}

func TestStartAndCompleteRequireAssignedProvider(t *testing.T) {
	svc, _, _, _ := newTestEngine()
	req := createPending(t, svc)

	p := provider()
	if _, err := svc.Accept(context.Background(), req.ID, p); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	other := provider()
	other.ID = "provider-2"
	if _, err := svc.Start(context.Background(), req.ID, other); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("start by other provider: err = %v, want ErrForbidden", err)
	}

	if _, err := svc.Complete(context.Background(), req.ID, p); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("complete before start: err = %v, want ErrInvalidTransition", err)
	}

	started, err := svc.Start(context.Background(), req.ID, p)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if started.Status != lifecycle.StatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", started.Status)
	}

	completed, err := svc.Complete(context.Background(), req.ID, p)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if completed.Status != lifecycle.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", completed.Status)
	}
}

func TestCancelMatrix(t *testing.T) {
	owner := client()
	assigned := provider()
	otherClient := models.User{ID: "client-2", Role: models.RoleClient}
	otherProvider := models.User{ID: "provider-2", Role: models.RoleProvider}

	cases := []struct {
		name    string
		status  string
		user    models.User
		allowed bool
	}{
		{"pending owner client", lifecycle.StatusPending, owner, true},
		{"pending other client", lifecycle.StatusPending, otherClient, false},
		{"pending provider", lifecycle.StatusPending, assigned, false},
		{"pending admin", lifecycle.StatusPending, admin(), true},
		{"accepted owner client", lifecycle.StatusAccepted, owner, true},
		{"accepted assigned provider", lifecycle.StatusAccepted, assigned, true},
		{"accepted other provider", lifecycle.StatusAccepted, otherProvider, false},
		{"accepted other client", lifecycle.StatusAccepted, otherClient, false},
		{"accepted admin", lifecycle.StatusAccepted, admin(), true},
		{"in_progress owner client", lifecycle.StatusInProgress, owner, false},
		{"in_progress assigned provider", lifecycle.StatusInProgress, assigned, false},
		{"in_progress admin", lifecycle.StatusInProgress, admin(), true},
		{"completed admin", lifecycle.StatusCompleted, admin(), false},
		{"cancelled admin", lifecycle.StatusCancelled, admin(), false},
		{"expired owner", lifecycle.StatusExpired, owner, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := models.ServiceRequest{ID: "req-x", ClientID: owner.ID, Status: tc.status}
			if tc.status != lifecycle.StatusPending && tc.status != lifecycle.StatusExpired {
				req.ProviderID = strPtr(assigned.ID)
			}
			decision := CanCancelRequest(req, tc.user)
			if decision.Allowed != tc.allowed {
				t.Errorf("allowed = %v, want %v (reason %q)", decision.Allowed, tc.allowed, decision.Reason)
			}
		})
	}
}

func TestCancelWritesAuditFields(t *testing.T) {
	svc, store, _, _ := newTestEngine()
	req := createPending(t, svc)

	cancelled, err := svc.Cancel(context.Background(), req.ID, client(), "change of plans")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != lifecycle.StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}
	if cancelled.CancelledBy == nil || *cancelled.CancelledBy != "client-1" {
		t.Errorf("cancelled_by = %v, want client-1", cancelled.CancelledBy)
	}
	if cancelled.CancelledByRole == nil || *cancelled.CancelledByRole != models.RoleClient {
		t.Errorf("cancelled_by_role = %v, want CLIENT", cancelled.CancelledByRole)
	}
	if cancelled.CancellationReason == nil || *cancelled.CancellationReason != "change of plans" {
		t.Errorf("cancellation_reason = %v", cancelled.CancellationReason)
	}

	got, _ := store.GetByID(context.Background(), req.ID)
	if got.Status != lifecycle.StatusCancelled {
		t.Errorf("stored status = %s, want CANCELLED", got.Status)
	}
}

func TestCancelAcceptedThenCancelAgain(t *testing.T) {
	svc, _, _, _ := newTestEngine()
	req := createPending(t, svc)

	if _, err := svc.Accept(context.Background(), req.ID, provider()); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if _, err := svc.Cancel(context.Background(), req.ID, client(), "found someone else"); err != nil {
		t.Fatalf("first cancel: %v", err)
	}

	_, err := svc.Cancel(context.Background(), req.ID, client(), "found someone else")
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("second cancel: err = %v, want ErrInvalidTransition", err)
	}
}

func TestCancelValidatesReason(t *testing.T) {
	svc, _, _, _ := newTestEngine()
	req := createPending(t, svc)

	if _, err := svc.Cancel(context.Background(), req.ID, client(), "  "); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("blank reason: err = %v, want ErrInvalidRequest", err)
	}
	long := strings.Repeat("x", 501)
	if _, err := svc.Cancel(context.Background(), req.ID, client(), long); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("long reason: err = %v, want ErrInvalidRequest", err)
	}
}

func TestCancelTerminalIsInvalidTransition(t *testing.T) {
	svc, store, _, _ := newTestEngine()
	req := createPending(t, svc)

	done, _ := store.GetByID(context.Background(), req.ID)
	done.Status = lifecycle.StatusCompleted
	done.ProviderID = strPtr("provider-1")
	store.put(done)

	_, err := svc.Cancel(context.Background(), req.ID, admin(), "cleanup")
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestRateRequiresCompletedAndOwner(t *testing.T) {
	svc, _, _, _ := newTestEngine()
	req := createPending(t, svc)
	p := provider()

	if _, err := svc.Rate(context.Background(), req.ID, client(), models.CreateRatingInput{Stars: 5}); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("rate pending: err = %v, want ErrInvalidRequest", err)
	}

	if _, err := svc.Accept(context.Background(), req.ID, p); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if _, err := svc.Start(context.Background(), req.ID, p); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.Complete(context.Background(), req.ID, p); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	other := models.User{ID: "client-2", Role: models.RoleClient}
	if _, err := svc.Rate(context.Background(), req.ID, other, models.CreateRatingInput{Stars: 5}); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("rate by non-owner: err = %v, want ErrForbidden", err)
	}

	if _, err := svc.Rate(context.Background(), req.ID, client(), models.CreateRatingInput{Stars: 0}); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("stars=0: err = %v, want ErrInvalidRequest", err)
	}
	if _, err := svc.Rate(context.Background(), req.ID, client(), models.CreateRatingInput{Stars: 6}); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("stars=6: err = %v, want ErrInvalidRequest", err)
	}

	rating, err := svc.Rate(context.Background(), req.ID, client(), models.CreateRatingInput{Stars: 4})
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if rating.ProviderID != p.ID {
		t.Errorf("rating provider = %s, want %s", rating.ProviderID, p.ID)
	}

	if _, err := svc.Rate(context.Background(), req.ID, client(), models.CreateRatingInput{Stars: 2}); !errors.Is(err, models.ErrConflict) {
		t.Errorf("duplicate rating: err = %v, want ErrConflict", err)
	}
}

func TestConcurrentDuplicateRatingSingleWinner(t *testing.T) {
	svc, store, _, _ := newTestEngine()
	req := createPending(t, svc)

	done, _ := store.GetByID(context.Background(), req.ID)
	done.Status = lifecycle.StatusCompleted
	done.ProviderID = strPtr("provider-1")
	store.put(done)

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Rate(context.Background(), req.ID, client(), models.CreateRatingInput{Stars: 5})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else if !errors.Is(err, models.ErrConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Errorf("winners = %d, want exactly 1", winners)
	}
}

func TestProviderRatingSummaryAverage(t *testing.T) {
	svc, _, ratings, _ := newTestEngine()

	for i, stars := range []int{5, 4, 4} {
		_, err := ratings.Create(context.Background(), models.Rating{
			ServiceRequestID: fmt.Sprintf("req-%d", i),
			ClientID:         "client-1",
			ProviderID:       "provider-1",
			Stars:            stars,
		})
		if err != nil {
			t.Fatalf("seed rating: %v", err)
		}
	}

	summary, err := svc.GetProviderRatings(context.Background(), "provider-1")
	if err != nil {
		t.Fatalf("GetProviderRatings: %v", err)
	}
	if summary.TotalRatings != 3 {
		t.Errorf("total = %d, want 3", summary.TotalRatings)
	}
	if summary.AverageStars != 4.33 {
		t.Errorf("average = %v, want 4.33", summary.AverageStars)
	}
}

func TestAdminSetStatusDefaultsCancellationReason(t *testing.T) {
	svc, _, _, _ := newTestEngine()
	req := createPending(t, svc)

	updated, err := svc.AdminSetStatus(context.Background(), req.ID, admin(), models.SetRequestStatusInput{
		Status: lifecycle.StatusCancelled,
	})
	if err != nil {
		t.Fatalf("AdminSetStatus: %v", err)
	}
	if updated.Status != lifecycle.StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", updated.Status)
	}
	if updated.CancellationReason == nil || *updated.CancellationReason != "Admin status update" {
		t.Errorf("cancellation_reason = %v, want default", updated.CancellationReason)
	}
	if updated.CancelledByRole == nil || *updated.CancelledByRole != models.RoleAdmin {
		t.Errorf("cancelled_by_role = %v, want ADMIN", updated.CancelledByRole)
	}
}

func TestAdminSetStatusRejectsUnknownStatus(t *testing.T) {
	svc, _, _, _ := newTestEngine()
	req := createPending(t, svc)

	_, err := svc.AdminSetStatus(context.Background(), req.ID, admin(), models.SetRequestStatusInput{Status: "DONE"})
	if !errors.Is(err, models.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestFindByIDForUserScopesAccess(t *testing.T) {
	svc, _, _, _ := newTestEngine()
	req := createPending(t, svc)

	if _, err := svc.FindByIDForUser(context.Background(), req.ID, client()); err != nil {
		t.Errorf("owner lookup: %v", err)
	}
	other := models.User{ID: "client-2", Role: models.RoleClient}
	if _, err := svc.FindByIDForUser(context.Background(), req.ID, other); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("other client: err = %v, want ErrForbidden", err)
	}
	if _, err := svc.FindByIDForUser(context.Background(), req.ID, provider()); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("unassigned provider: err = %v, want ErrForbidden", err)
	}
	if _, err := svc.FindByIDForUser(context.Background(), "missing", admin()); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing id: err = %v, want ErrNotFound", err)
	}
}

func TestFindAvailableHidesExpiredAndUnavailableProvider(t *testing.T) {
	svc, store, _, _ := newTestEngine()
	req := createPending(t, svc)

	p := provider()
	available, err := svc.FindAvailableForProvider(context.Background(), p)
	if err != nil {
		t.Fatalf("FindAvailableForProvider: %v", err)
	}
	if len(available) != 1 || available[0].ID != req.ID {
		t.Fatalf("available = %+v, want the pending request", available)
	}
	if available[0].TimeRemainingSeconds <= 0 {
		t.Errorf("time_remaining_seconds = %d, want positive", available[0].TimeRemainingSeconds)
	}

	p.IsAvailable = false
	available, err = svc.FindAvailableForProvider(context.Background(), p)
	if err != nil {
		t.Fatalf("unavailable provider: %v", err)
	}
	if len(available) != 0 {
		t.Errorf("unavailable provider sees %d requests, want 0", len(available))
	}

	stale, _ := store.GetByID(context.Background(), req.ID)
	stale.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	store.put(stale)

	p.IsAvailable = true
	available, err = svc.FindAvailableForProvider(context.Background(), p)
	if err != nil {
		t.Fatalf("after expiry: %v", err)
	}
	if len(available) != 0 {
		t.Errorf("expired request still listed: %+v", available)
	}
}
