package handlers_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shaheerasim320/event-hub/handlers"
	"github.com/shaheerasim320/event-hub/metrics"
	"github.com/shaheerasim320/event-hub/model"
	"github.com/shaheerasim320/event-hub/payment"
	"github.com/shaheerasim320/event-hub/router"
)

const (
	testJWTSecret     = "test-sign-secret"
	testWebhookSecret = "whsec_test_secret"
)

// memEventStore is an in-memory stand-in for the Mongo event store with the
// same query semantics.
type memEventStore struct {
	mu     sync.Mutex
	events map[primitive.ObjectID]model.Event
}

func newMemEventStore() *memEventStore {
	return &memEventStore{events: map[primitive.ObjectID]model.Event{}}
}

func (s *memEventStore) List(_ context.Context, filter model.EventFilter) ([]model.Event, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := filter.Status
	if status == "" {
		status = model.EventPublished
	}

	matched := []model.Event{}
	for _, ev := range s.events {
		if ev.Status != status {
			continue
		}
		if filter.Category != "" && ev.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !containsFold(ev.Title, filter.Search) &&
			!containsFold(ev.Description, filter.Search) && !containsFold(ev.Location.Venue, filter.Search) {
			continue
		}
		if filter.Location != "" && !containsFold(ev.Location.Venue, filter.Location) {
			continue
		}
		if filter.Date != nil {
			y1, m1, d1 := filter.Date.Date()
			y2, m2, d2 := ev.StartTime.Date()
			if y1 != y2 || m1 != m2 || d1 != d2 {
				continue
			}
		}
		matched = append(matched, ev)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].StartTime.Before(matched[j].StartTime) })

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *memEventStore) GetById(_ context.Context, id primitive.ObjectID) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &ev, nil
}

func (s *memEventStore) ListFeatured(_ context.Context, limit int64) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []model.Event{}
	for _, ev := range s.events {
		if ev.Status == model.EventPublished && ev.IsFeatured {
			matched = append(matched, ev)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].StartTime.Before(matched[j].StartTime) })
	if int64(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *memEventStore) ListByOrganizer(_ context.Context, organizerId primitive.ObjectID) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []model.Event{}
	for _, ev := range s.events {
		if ev.Organizer == organizerId {
			matched = append(matched, ev)
		}
	}
	return matched, nil
}

func (s *memEventStore) CategoryCounts(_ context.Context) ([]model.CategoryCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byCategory := map[model.Category]int64{}
	for _, ev := range s.events {
		if ev.Status == model.EventPublished {
			byCategory[ev.Category]++
		}
	}
	counts := []model.CategoryCount{}
	for name, count := range byCategory {
		counts = append(counts, model.CategoryCount{Name: name, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Name < counts[j].Name })
	return counts, nil
}

func (s *memEventStore) Insert(_ context.Context, event *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.Id] = *event
	return nil
}

func (s *memEventStore) Update(_ context.Context, event *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[event.Id]; !ok {
		return model.ErrNotFound
	}
	s.events[event.Id] = *event
	return nil
}

func (s *memEventStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *memEventStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.events)), nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// memBookingStore mirrors the Mongo booking store's reconciliation contract:
// session-id idempotency, bounded seat consumption, compensation on
// exhaustion. One mutex plays the role of the transaction.
type memBookingStore struct {
	mu       sync.Mutex
	events   *memEventStore
	bookings map[primitive.ObjectID]model.Booking
}

func newMemBookingStore(events *memEventStore) *memBookingStore {
	return &memBookingStore{events: events, bookings: map[primitive.ObjectID]model.Booking{}}
}

func (s *memBookingStore) findBySession(sessionId string) (model.Booking, bool) {
	for _, b := range s.bookings {
		if b.StripeSessionId == sessionId {
			return b, true
		}
	}
	return model.Booking{}, false
}

func (s *memBookingStore) InsertPending(_ context.Context, booking *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[booking.Id] = *booking
	return nil
}

func (s *memBookingStore) ConfirmBySession(_ context.Context, p model.ConfirmParams) (model.ConfirmOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events.mu.Lock()
	defer s.events.mu.Unlock()

	existing, found := s.findBySession(p.SessionId)
	if found && existing.Status != model.BookingPending {
		return model.OutcomeDuplicate, nil
	}

	now := time.Now().UTC()
	ev, evExists := s.events.events[p.EventId]
	if !evExists || ev.BookedSeats+p.Quantity > ev.Capacity {
		rejected := existing
		if !found {
			rejected = model.Booking{
				Id:              primitive.NewObjectID(),
				User:            p.UserId,
				Event:           p.EventId,
				NumberOfTickets: p.Quantity,
				StripeSessionId: p.SessionId,
				CreatedAt:       now,
			}
		}
		rejected.Status = model.BookingCancelled
		rejected.PaymentStatus = model.PaymentRefunded
		rejected.TotalAmount = p.TotalAmount
		rejected.Currency = p.Currency
		rejected.RefundAmount = p.TotalAmount
		rejected.CancellationReason = "event sold out before payment completed"
		rejected.CancelledAt = &now
		rejected.UpdatedAt = now
		s.bookings[rejected.Id] = rejected
		return model.OutcomeRejected, nil
	}

	confirmed := existing
	if !found {
		confirmed = model.Booking{
			Id:              primitive.NewObjectID(),
			User:            p.UserId,
			Event:           p.EventId,
			NumberOfTickets: p.Quantity,
			StripeSessionId: p.SessionId,
			CreatedAt:       now,
		}
	}
	confirmed.Status = model.BookingConfirmed
	confirmed.PaymentStatus = model.PaymentPaid
	confirmed.TotalAmount = p.TotalAmount
	confirmed.Currency = p.Currency
	confirmed.Tickets = model.NewTickets(p.Quantity)
	confirmed.UpdatedAt = now
	s.bookings[confirmed.Id] = confirmed

	ev.BookedSeats += p.Quantity
	ev.AvailableSeats = ev.Capacity - ev.BookedSeats
	s.events.events[ev.Id] = ev

	return model.OutcomeConfirmed, nil
}

func (s *memBookingStore) Cancel(_ context.Context, id primitive.ObjectID, reason string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events.mu.Lock()
	defer s.events.mu.Unlock()

	booking, ok := s.bookings[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	if !booking.CanBeCancelled() {
		return nil, model.ErrNotCancellable
	}

	now := time.Now().UTC()
	booking.Status = model.BookingCancelled
	booking.PaymentStatus = model.PaymentRefunded
	booking.CancellationReason = reason
	booking.CancelledAt = &now
	booking.RefundAmount = booking.TotalAmount
	booking.UpdatedAt = now
	s.bookings[id] = booking

	if ev, ok := s.events.events[booking.Event]; ok {
		release := booking.NumberOfTickets
		if release > ev.BookedSeats {
			release = ev.BookedSeats
		}
		ev.BookedSeats -= release
		ev.AvailableSeats = ev.Capacity - ev.BookedSeats
		s.events.events[ev.Id] = ev
	}

	return &booking, nil
}

func (s *memBookingStore) GetById(_ context.Context, id primitive.ObjectID) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	booking, ok := s.bookings[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &booking, nil
}

func (s *memBookingStore) ListByUser(_ context.Context, userId primitive.ObjectID) ([]model.BookingWithEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events.mu.Lock()
	defer s.events.mu.Unlock()

	joined := []model.BookingWithEvent{}
	for _, b := range s.bookings {
		if b.User != userId {
			continue
		}
		entry := model.BookingWithEvent{Booking: b}
		if ev, ok := s.events.events[b.Event]; ok {
			evCopy := ev
			entry.EventInfo = &evCopy
		}
		joined = append(joined, entry)
	}
	sort.Slice(joined, func(i, j int) bool { return joined[i].CreatedAt.After(joined[j].CreatedAt) })
	return joined, nil
}

func (s *memBookingStore) CountActiveForEvent(_ context.Context, eventId primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, b := range s.bookings {
		if b.Event == eventId && b.IsActive() {
			count++
		}
	}
	return count, nil
}

func (s *memBookingStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.bookings)), nil
}

func (s *memBookingStore) Revenue(_ context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, b := range s.bookings {
		if b.Status == model.BookingConfirmed {
			total += b.TotalAmount
		}
	}
	return total, nil
}

// memUserStore backs the auth handlers.
type memUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[primitive.ObjectID]model.User{}}
}

func (s *memUserStore) Insert(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return model.ErrDuplicateEmail
		}
	}
	s.users[user.Id] = *user
	return nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range s.users {
		if user.Email == email {
			userCopy := user
			return &userCopy, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *memUserStore) GetById(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &user, nil
}

func (s *memUserStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.users)), nil
}

// fakePayments hands out predictable session ids and verifies webhooks with
// the same signing scheme Stripe uses, so handler tests exercise the real
// parse path through StripeProvider where they need to.
type fakePayments struct {
	mu       sync.Mutex
	sessions int
	lastReq  payment.CheckoutParams
	failNext bool
}

func (f *fakePayments) CreateCheckoutSession(p payment.CheckoutParams) (*payment.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return nil, fmt.Errorf("provider unavailable")
	}
	f.sessions++
	f.lastReq = p
	return &payment.CheckoutSession{Id: fmt.Sprintf("cs_test_%d", f.sessions)}, nil
}

func (f *fakePayments) ParseWebhook(payload []byte, sigHeader string) (*payment.WebhookEvent, error) {
	if !validSignature(payload, sigHeader, testWebhookSecret) {
		return nil, payment.ErrInvalidSignature
	}
	var event struct {
		Type string `json:"type"`
		Data struct {
			Object payment.SessionData `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	return &payment.WebhookEvent{Type: event.Type, Session: event.Data.Object}, nil
}

func validSignature(payload []byte, header, secret string) bool {
	var ts, v1 string
	for _, part := range strings.Split(header, ",") {
		if strings.HasPrefix(part, "t=") {
			ts = strings.TrimPrefix(part, "t=")
		}
		if strings.HasPrefix(part, "v1=") {
			v1 = strings.TrimPrefix(part, "v1=")
		}
	}
	if ts == "" || v1 == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "."))
	mac.Write(payload)
	return hmac.Equal([]byte(hex.EncodeToString(mac.Sum(nil))), []byte(v1))
}

// signPayload produces a Stripe-style signature header for a webhook payload.
func signPayload(payload []byte, secret string) string {
	ts := fmt.Sprint(time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

type testEnv struct {
	app      *fiber.App
	events   *memEventStore
	bookings *memBookingStore
	users    *memUserStore
	payments *fakePayments
	metrics  *metrics.Metrics
}

func newTestEnv() *testEnv {
	events := newMemEventStore()
	bookings := newMemBookingStore(events)
	users := newMemUserStore()
	payments := &fakePayments{}
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	h := handlers.New(events, bookings, users, payments, m, testJWTSecret)

	app := fiber.New()
	router.SetupRoutes(app, h, testJWTSecret)

	return &testEnv{app: app, events: events, bookings: bookings, users: users, payments: payments, metrics: m}
}

func authCookie(userId primitive.ObjectID, email string, role model.Role) string {
	claims := jwt.MapClaims{
		"userId": userId.Hex(),
		"email":  email,
		"role":   string(role),
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	return "token=" + token
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(res *http.Response, out interface{}) error {
	defer res.Body.Close()
	return json.NewDecoder(res.Body).Decode(out)
}

func publishedEvent(capacity uint, price float64, start time.Time) model.Event {
	now := time.Now().UTC()
	return model.Event{
		Id:          primitive.NewObjectID(),
		Title:       "Gopher Days",
		Description: "Two days of Go talks",
		Organizer:   primitive.NewObjectID(),
		Category:    model.CategoryTechnology,
		Location:    model.Location{Venue: "Convention Center"},
		StartTime:   start,
		EndTime:     start.Add(8 * time.Hour),
		Capacity:    capacity,
		Price:       price,
		Currency:    "usd",
		Status:      model.EventPublished,
		BookedSeats: 0, AvailableSeats: capacity,
		CreatedAt: now, UpdatedAt: now,
	}
}

// checkoutCompletedPayload builds a provider event for the given session.
func checkoutCompletedPayload(sessionId string, eventId, userId primitive.ObjectID, quantity uint, amountTotal int64) []byte {
	payload, _ := json.Marshal(map[string]interface{}{
		"id":   "evt_" + sessionId,
		"type": payment.EventCheckoutCompleted,
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":           sessionId,
				"amount_total": amountTotal,
				"currency":     "usd",
				"metadata": map[string]string{
					"eventId":  eventId.Hex(),
					"userId":   userId.Hex(),
					"quantity": fmt.Sprint(quantity),
				},
			},
		},
	})
	return payload
}
