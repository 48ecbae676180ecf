package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shaheerasim320/event-hub/model"
)

// Principal is the authenticated caller as decoded from the session
// credential. Role checks live here so enforcement points cannot drift.
type Principal struct {
	UserId primitive.ObjectID
	Email  string
	Role   model.Role
}

var ErrNoPrincipal = errors.New("no authenticated principal on request")

// PrincipalFromContext extracts the principal stored by Authorize.
func PrincipalFromContext(c *fiber.Ctx) (Principal, error) {
	token, ok := c.Locals("identity").(*jwt.Token)
	if !ok {
		return Principal{}, ErrNoPrincipal
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrNoPrincipal
	}

	userHex, _ := claims["userId"].(string)
	userId, err := primitive.ObjectIDFromHex(userHex)
	if err != nil {
		return Principal{}, ErrNoPrincipal
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return Principal{UserId: userId, Email: email, Role: model.Role(role)}, nil
}

func (p Principal) IsAdmin() bool {
	return p.Role == model.RoleAdmin
}

// CanManageEvent allows the event's organizer and admins to mutate it.
func (p Principal) CanManageEvent(event *model.Event) bool {
	return p.IsAdmin() || event.Organizer == p.UserId
}

// CanAccessBooking allows the booking's owner and admins.
func (p Principal) CanAccessBooking(booking *model.Booking) bool {
	return p.IsAdmin() || booking.User == p.UserId
}
