package model

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category string

const (
	CategoryMusic      Category = "music"
	CategorySports     Category = "sports"
	CategoryBusiness   Category = "business"
	CategoryTechnology Category = "technology"
	CategoryFood       Category = "food"
	CategoryArt        Category = "art"
	CategoryEducation  Category = "education"
	CategoryOther      Category = "other"
)

var Categories = []Category{
	CategoryMusic, CategorySports, CategoryBusiness, CategoryTechnology,
	CategoryFood, CategoryArt, CategoryEducation, CategoryOther,
}

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

type Address struct {
	Street  string `json:"street,omitempty" bson:"street,omitempty"`
	City    string `json:"city,omitempty" bson:"city,omitempty"`
	State   string `json:"state,omitempty" bson:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty" bson:"zip_code,omitempty"`
	Country string `json:"country,omitempty" bson:"country,omitempty"`
}

type Location struct {
	Venue   string  `json:"venue" bson:"venue"`
	Address Address `json:"address,omitempty" bson:"address,omitempty"`
}

type Event struct {
	Id             primitive.ObjectID `json:"_id" bson:"_id"`
	Title          string             `json:"title" bson:"title"`
	Description    string             `json:"description" bson:"description"`
	Organizer      primitive.ObjectID `json:"organizer" bson:"organizer"`
	Category       Category           `json:"category" bson:"category"`
	Location       Location           `json:"location" bson:"location"`
	StartTime      time.Time          `json:"start_time" bson:"start_time"`
	EndTime        time.Time          `json:"end_time" bson:"end_time"`
	Capacity       uint               `json:"capacity" bson:"capacity"`
	Price          float64            `json:"price" bson:"price"`
	Currency       string             `json:"currency" bson:"currency"`
	Images         []string           `json:"images,omitempty" bson:"images,omitempty"`
	Tags           []string           `json:"tags,omitempty" bson:"tags,omitempty"`
	Status         EventStatus        `json:"status" bson:"status"`
	IsFeatured     bool               `json:"is_featured" bson:"is_featured"`
	BookedSeats    uint               `json:"booked_seats" bson:"booked_seats"`
	AvailableSeats uint               `json:"available_seats" bson:"available_seats"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (s EventStatus) IsValid() bool {
	switch s {
	case EventDraft, EventPublished, EventCancelled, EventCompleted:
		return true
	}
	return false
}

func (e *Event) IsSoldOut() bool {
	return e.BookedSeats >= e.Capacity
}

func (e *Event) IsUpcoming() bool {
	return time.Now().Before(e.StartTime)
}

// ConsumeSeats applies a bounded seat increment, the in-memory twin of the
// conditional update the booking store runs against the events collection.
func (e *Event) ConsumeSeats(quantity uint) error {
	if e.BookedSeats+quantity > e.Capacity {
		return ErrInsufficientInventory
	}
	e.BookedSeats += quantity
	e.AvailableSeats = e.Capacity - e.BookedSeats
	return nil
}

// ReleaseSeats returns seats to inventory after a cancellation or refund.
// The count never drops below zero even if bookkeeping drifted.
func (e *Event) ReleaseSeats(quantity uint) {
	if quantity > e.BookedSeats {
		quantity = e.BookedSeats
	}
	e.BookedSeats -= quantity
	e.AvailableSeats = e.Capacity - e.BookedSeats
}

// Validate collects every field violation into a single error so the caller
// can surface one aggregated message.
func (e *Event) Validate() error {
	var problems []string

	if len(strings.TrimSpace(e.Title)) < 2 {
		problems = append(problems, "event title is required")
	}
	if strings.TrimSpace(e.Description) == "" {
		problems = append(problems, "event description is required")
	}
	if !e.Category.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown event category %q", e.Category))
	}
	if strings.TrimSpace(e.Location.Venue) == "" {
		problems = append(problems, "venue is required")
	}
	if e.StartTime.IsZero() {
		problems = append(problems, "start date is required")
	}
	if e.EndTime.IsZero() {
		problems = append(problems, "end date is required")
	}
	if !e.StartTime.IsZero() && !e.EndTime.IsZero() && e.EndTime.Before(e.StartTime) {
		problems = append(problems, "event cannot end before it starts")
	}
	if e.Capacity == 0 {
		problems = append(problems, "event capacity must be at least 1")
	}
	if e.Price < 0 {
		problems = append(problems, "event price cannot be negative")
	}
	if !e.Status.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown event status %q", e.Status))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, ", "))
	}
	return nil
}

// EventFilter narrows the public listing. Zero values mean "no filter";
// Status defaults to published at the query layer.
type EventFilter struct {
	Category Category
	Search   string
	Location string
	Date     *time.Time
	Status   EventStatus
	Page     int64
	Limit    int64
}

type CategoryCount struct {
	Name  Category `json:"name" bson:"name"`
	Count int64    `json:"count" bson:"count"`
}
