package handlers

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shaheerasim320/event-hub/errors"
	"github.com/shaheerasim320/event-hub/middleware"
	"github.com/shaheerasim320/event-hub/model"
)

const featuredLimit = 6

// GetEvents returns the filtered, paginated public listing sorted by start
// time ascending.
func (h *Handler) GetEvents(c *fiber.Ctx) error {
	filter := model.EventFilter{
		Search:   c.Query("search"),
		Location: c.Query("location"),
		Status:   model.EventStatus(c.Query("status")),
		Page:     int64(c.QueryInt("page", 1)),
		Limit:    int64(c.QueryInt("limit", 12)),
	}

	if category := strings.ToLower(c.Query("category")); category != "" && category != "all" {
		filter.Category = model.Category(category)
	}
	if date := c.Query("date"); date != "" {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			return errors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable date filter: %v", err))
		}
		filter.Date = &day
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 12
	}

	events, total, err := h.events.List(c.Context(), filter)
	if err != nil {
		log.Printf("event listing error: %v", err)
		return errors.RaiseInternalServerError(c, "database error")
	}

	pages := (total + filter.Limit - 1) / filter.Limit

	return c.JSON(fiber.Map{
		"events": events,
		"pagination": fiber.Map{
			"page":  filter.Page,
			"limit": filter.Limit,
			"total": total,
			"pages": pages,
		},
	})
}

func (h *Handler) GetEvent(c *fiber.Ctx) error {
	eventId, err := primitive.ObjectIDFromHex(c.Params("eventId"))
	if err != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("invalid event id %v", c.Params("eventId")))
	}

	event, err := h.events.GetById(c.Context(), eventId)
	if err != nil {
		if isErr(err, model.ErrNotFound) {
			return errors.RaiseNotFoundError(c, fmt.Sprintf("event %v not found", c.Params("eventId")))
		}
		log.Printf("event lookup error: %v", err)
		return errors.RaiseInternalServerError(c, "database error")
	}

	return c.JSON(event)
}

func (h *Handler) GetFeaturedEvents(c *fiber.Ctx) error {
	events, err := h.events.ListFeatured(c.Context(), featuredLimit)
	if err != nil {
		log.Printf("featured events error: %v", err)
		return errors.RaiseInternalServerError(c, "database error")
	}
	return c.JSON(events)
}

func (h *Handler) GetCategories(c *fiber.Ctx) error {
	counts, err := h.events.CategoryCounts(c.Context())
	if err != nil {
		log.Printf("category counts error: %v", err)
		return errors.RaiseInternalServerError(c, "database error")
	}
	return c.JSON(counts)
}

func (h *Handler) GetMyEvents(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalFromContext(c)
	if err != nil {
		return errors.RaiseUnauthenticatedError(c, "")
	}

	events, err := h.events.ListByOrganizer(c.Context(), principal.UserId)
	if err != nil {
		log.Printf("organizer events error: %v", err)
		return errors.RaiseInternalServerError(c, "database error")
	}
	return c.JSON(fiber.Map{"events": events})
}

// CreateEvent publishes a new event. Admin only; the event goes straight to
// published, there is no draft workflow.
func (h *Handler) CreateEvent(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalFromContext(c)
	if err != nil {
		return errors.RaiseUnauthenticatedError(c, "")
	}
	if !principal.IsAdmin() {
		return errors.RaisePermissionsError(c, "only admin can create events")
	}

	event := new(model.Event)
	if err := c.BodyParser(event); err != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable event parameters: %v", err))
	}

	event.Id = primitive.NewObjectID()
	event.Title = strings.TrimSpace(event.Title)
	event.Organizer = principal.UserId
	event.Status = model.EventPublished
	event.BookedSeats = 0
	event.AvailableSeats = event.Capacity
	if event.Currency == "" {
		event.Currency = "usd"
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	if err := event.Validate(); err != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("incorrect input for event parameters: %v", err))
	}

	if err := h.events.Insert(c.Context(), event); err != nil {
		log.Printf("event insert error: %v", err)
		return errors.RaiseInternalServerError(c, "database error")
	}

	return c.Status(fiber.StatusCreated).JSON(event)
}

func (h *Handler) UpdateEvent(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalFromContext(c)
	if err != nil {
		return errors.RaiseUnauthenticatedError(c, "")
	}

	eventId, err := primitive.ObjectIDFromHex(c.Params("eventId"))
	if err != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("invalid event id %v", c.Params("eventId")))
	}

	existing, err := h.events.GetById(c.Context(), eventId)
	if err != nil {
		if isErr(err, model.ErrNotFound) {
			return errors.RaiseNotFoundError(c, fmt.Sprintf("event %v not found", c.Params("eventId")))
		}
		log.Printf("event lookup error: %v", err)
		return errors.RaiseInternalServerError(c, "database error")
	}

	if !principal.CanManageEvent(existing) {
		return errors.RaisePermissionsError(c, "not authorized to update this event")
	}

	updated := *existing
	if err := c.BodyParser(&updated); err != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable event parameters: %v", err))
	}

	// inventory fields are owned by the booking ledger, never by this path
	updated.Id = existing.Id
	updated.Organizer = existing.Organizer
	updated.BookedSeats = existing.BookedSeats
	updated.Title = strings.TrimSpace(updated.Title)
	updated.UpdatedAt = time.Now().UTC()

	if updated.Capacity < existing.BookedSeats {
		return errors.RaiseBadRequestError(c,
			fmt.Sprintf("cannot set capacity to %v, %v seats already booked", updated.Capacity, existing.BookedSeats))
	}
	updated.AvailableSeats = updated.Capacity - updated.BookedSeats

	if err := updated.Validate(); err != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("incorrect input for event parameters: %v", err))
	}

	if err := h.events.Update(c.Context(), &updated); err != nil {
		log.Printf("event update error: %v", err)
		return errors.RaiseInternalServerError(c, "database error")
	}

	return c.JSON(updated)
}

// DeleteEvent removes an event. Deletion is blocked while confirmed bookings
// still reference it, cancel those first.
func (h *Handler) DeleteEvent(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalFromContext(c)
	if err != nil {
		return errors.RaiseUnauthenticatedError(c, "")
	}

	eventId, err := primitive.ObjectIDFromHex(c.Params("eventId"))
	if err != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("invalid event id %v", c.Params("eventId")))
	}

	event, err := h.events.GetById(c.Context(), eventId)
	if err != nil {
		if isErr(err, model.ErrNotFound) {
			return errors.RaiseNotFoundError(c, fmt.Sprintf("event %v not found", c.Params("eventId")))
		}
		log.Printf("event lookup error: %v", err)
		return errors.RaiseInternalServerError(c, "database error")
	}

	if !principal.CanManageEvent(event) {
		return errors.RaisePermissionsError(c, "not authorized to delete this event")
	}

	active, err := h.bookings.CountActiveForEvent(c.Context(), eventId)
	if err != nil {
		log.Printf("active bookings count error: %v", err)
		return errors.RaiseInternalServerError(c, "database error")
	}
	if active > 0 {
		return errors.RaiseConflictError(c,
			fmt.Sprintf("event has %v active bookings, cancel them before deleting", active))
	}

	if err := h.events.Delete(c.Context(), eventId); err != nil {
		if isErr(err, model.ErrNotFound) {
			return errors.RaiseNotFoundError(c, fmt.Sprintf("event %v not found", c.Params("eventId")))
		}
		log.Printf("event delete error: %v", err)
		return errors.RaiseInternalServerError(c, "database error")
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "entity deleted",
		"data":    fmt.Sprintf("event with id %v was deleted", c.Params("eventId"))})
}
